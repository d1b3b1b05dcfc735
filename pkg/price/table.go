package price

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/chainsafe/custody-ledger/internal/metrics"
	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/currency"
)

// Table caches quote snapshots and refreshes them at most once per TTL.
// Readers always get a whole snapshot; a refresh swaps the pointer.
type Table struct {
	source   Source
	registry *currency.Registry
	ttl      time.Duration
	maxStale time.Duration
	logger   *zap.Logger
	now      func() time.Time

	snap  atomic.Pointer[Snapshot]
	group singleflight.Group
}

// NewTable creates a price table over source. Snapshots older than maxStale
// are never served, even when the source is down.
func NewTable(source Source, registry *currency.Registry, ttl, maxStale time.Duration, logger *zap.Logger) *Table {
	if maxStale < ttl {
		maxStale = ttl
	}
	return &Table{
		source:   source,
		registry: registry,
		ttl:      ttl,
		maxStale: maxStale,
		logger:   logger.With(zap.String("component", "price")),
		now:      time.Now,
	}
}

// Snapshot returns a fresh-enough snapshot, refreshing when the TTL elapsed.
func (t *Table) Snapshot(ctx context.Context) (*Snapshot, error) {
	cur := t.snap.Load()
	if cur != nil && t.now().Sub(cur.FetchedAt) < t.ttl {
		metrics.PriceSnapshotAge.Set(t.now().Sub(cur.FetchedAt).Seconds())
		return cur, nil
	}

	v, err, _ := t.group.Do("refresh", func() (any, error) {
		return t.refresh(ctx)
	})
	if err == nil {
		return v.(*Snapshot), nil
	}

	if cur != nil && t.now().Sub(cur.FetchedAt) < t.maxStale {
		t.logger.Warn("serving stale prices", zap.Duration("age", t.now().Sub(cur.FetchedAt)), zap.Error(err))
		metrics.PriceSnapshotAge.Set(t.now().Sub(cur.FetchedAt).Seconds())
		return cur, nil
	}
	return nil, apperrors.ProviderTransientError(err, "price table unavailable")
}

// Warm reports whether a snapshot within the staleness bound is loaded.
func (t *Table) Warm() bool {
	cur := t.snap.Load()
	return cur != nil && t.now().Sub(cur.FetchedAt) < t.maxStale
}

func (t *Table) refresh(ctx context.Context) (*Snapshot, error) {
	quotes, err := t.source.Quotes(ctx)
	if err != nil {
		metrics.PriceRefreshesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to fetch quotes: %w", err)
	}

	prices := make(map[currency.Symbol]Price, len(quotes))
	for _, sym := range t.registry.Symbols() {
		q, ok := quotes[sym]
		if !ok {
			continue
		}
		p, err := FromDecimal(q)
		if err != nil {
			metrics.PriceRefreshesTotal.WithLabelValues("invalid").Inc()
			return nil, fmt.Errorf("invalid quote for %s: %w", sym, err)
		}
		prices[sym] = p
	}

	snap := &Snapshot{Prices: prices, FetchedAt: t.now()}
	t.snap.Store(snap)
	metrics.PriceRefreshesTotal.WithLabelValues("ok").Inc()
	metrics.PriceSnapshotAge.Set(0)
	t.logger.Debug("price table refreshed", zap.Int("currencies", len(prices)))
	return snap, nil
}
