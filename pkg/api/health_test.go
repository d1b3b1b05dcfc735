package api_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/pkg/api"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type warm bool

func (w warm) Warm() bool { return bool(w) }

func TestReady(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		db     api.Pinger
		prices api.Warmer
		status int
	}{
		{"ready", up, warm(true), http.StatusOK},
		{"database down", down, warm(true), http.StatusServiceUnavailable},
		{"prices cold", up, warm(false), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			api.Ready(tt.db, tt.prices, zap.NewNop())(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}
