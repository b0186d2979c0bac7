package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kmarsack/storeyard-backend/pkg/config"
	"github.com/kmarsack/storeyard-backend/pkg/logger"
)

const shutdownGrace = 15 * time.Second

// Server wraps the HTTP listener with graceful shutdown.
type Server struct {
	srv  *http.Server
	logg *logger.Logger
}

func NewServer(cfg *config.Config, logg *logger.Logger, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              ":" + cfg.App.Port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logg: logg,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if s.logg != nil {
		s.logg.Info(shutdownCtx, "draining http server")
	}
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
