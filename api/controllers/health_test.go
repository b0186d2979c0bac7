package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kmarsack/storeyard-backend/pkg/config"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

func healthConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	return cfg
}

func TestHealthLive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	HealthLive(healthConfig())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if resp.Header().Get("X-Storeyard-Env") != "test" {
		t.Fatal("expected env header")
	}
}

func TestHealthReadyAllUp(t *testing.T) {
	up := pingerFunc(func(ctx context.Context) error { return nil })
	deps := map[string]Pinger{"database": up, "redis": up}

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	HealthReady(healthConfig(), testLogger(), deps)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !decodeEnvelope(t, resp).Success {
		t.Fatalf("expected ready got %s", resp.Body.String())
	}
}

func TestHealthReadyDependencyDownIs503(t *testing.T) {
	up := pingerFunc(func(ctx context.Context) error { return nil })
	down := pingerFunc(func(ctx context.Context) error { return errors.New("connection refused") })
	deps := map[string]Pinger{"database": up, "redis": down}

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	HealthReady(healthConfig(), testLogger(), deps)(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if decodeEnvelope(t, resp).Success {
		t.Fatal("expected failure envelope")
	}
}

func TestHealthReadySkipsNilDependency(t *testing.T) {
	deps := map[string]Pinger{"pubsub": nil}

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	HealthReady(healthConfig(), testLogger(), deps)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
