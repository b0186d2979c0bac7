package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/kmarsack/storeyard-backend/api/responses"
	"github.com/kmarsack/storeyard-backend/pkg/config"
	pkgerrors "github.com/kmarsack/storeyard-backend/pkg/errors"
	"github.com/kmarsack/storeyard-backend/pkg/logger"
)

const readinessTimeout = 5 * time.Second

// Pinger is satisfied by the db, redis, and pubsub clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storeyard-Env", cfg.App.Env)
		responses.WriteSuccess(w, "live", map[string]string{"status": "live"})
	}
}

// HealthReady pings every backing dependency. A single failed dependency
// marks the instance not ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Storeyard-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		statuses := make(map[string]string, len(deps))
		var combined error
		for name, dep := range deps {
			if dep == nil {
				statuses[name] = "skipped"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				statuses[name] = "down"
				combined = multierr.Append(combined, err)
				continue
			}
			statuses[name] = "up"
		}

		if combined != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnavailable, combined, "dependency check failed").
				WithDetails(statuses))
			return
		}
		responses.WriteSuccess(w, "ready", statuses)
	}
}
