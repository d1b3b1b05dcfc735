package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	apphttp "github.com/chainsafe/custody-ledger/pkg/app/http"
)

const readyTimeout = 3 * time.Second

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Warmer reports whether the price table holds a usable snapshot.
type Warmer interface {
	Warm() bool
}

// Health serves liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type readiness struct {
	Database bool `json:"database"`
	Prices   bool `json:"prices"`
}

// Ready serves readiness: the database answers and prices have loaded.
func Ready(db Pinger, prices Warmer, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		status := readiness{Database: true, Prices: prices.Warm()}
		if err := db.Ping(ctx); err != nil {
			logger.Warn("Readiness check: database unreachable", zap.Error(err))
			status.Database = false
		}

		code := http.StatusOK
		if !status.Database || !status.Prices {
			code = http.StatusServiceUnavailable
		}
		if err := apphttp.WriteJSON(w, code, status); err != nil {
			logger.Warn("Failed to write response", zap.Error(err))
		}
	}
}
