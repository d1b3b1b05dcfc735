package provider

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/chainsafe/custody-ledger/internal/metrics"
	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/currency"
)

// Caller applies the client-side rate limit and per-call deadline shared by
// all of one adapter's RPC calls, and records call metrics.
type Caller struct {
	chain   currency.Chain
	limiter *rate.Limiter
	timeout time.Duration
}

// NewCaller builds a Caller from provider settings.
func NewCaller(chain currency.Chain, cfg config.ProviderConfig) *Caller {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Caller{chain: chain, limiter: rate.NewLimiter(limit, burst), timeout: timeout}
}

// Do runs fn under the rate limit and deadline. Errors fn leaves unclassified
// are classified here: deadlines become transient.
func (c *Caller) Do(ctx context.Context, method string, fn func(ctx context.Context) error) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return Transient(c.chain, method, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	metrics.ProviderCallDuration.WithLabelValues(string(c.chain), method).Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.ProviderCallsTotal.WithLabelValues(string(c.chain), method, "ok").Inc()
		return nil
	}

	var pe *Error
	if !errors.As(err, &pe) {
		if KindOf(err) == KindTransient || callCtx.Err() != nil {
			err = Transient(c.chain, method, err)
		} else {
			err = Permanent(c.chain, method, err)
		}
	}
	metrics.ProviderCallsTotal.WithLabelValues(string(c.chain), method, KindOf(err).String()).Inc()
	return err
}
