// Package memstore is an in-memory implementation of every store interface
// in the module. A transaction holds one process-wide mutex and restores a
// snapshot when it fails, which gives tests the same all-or-nothing
// behaviour as the postgres store.
package memstore

import (
	"context"
	"sync"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
)

type txKey struct{}

type balanceKey struct {
	userID   string
	currency currency.Symbol
}

// Store keeps all records in maps guarded by a single mutex.
type Store struct {
	mu sync.Mutex
	d  *data
}

// New creates an empty store.
func New() *Store {
	return &Store{d: newData()}
}

func inTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

// lock acquires the store mutex unless ctx already belongs to a transaction
// that holds it.
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// RunInTx runs fn with the store mutex held and rolls every change back when
// fn returns an error. Nested calls join the outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.d.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.d = snap
		return err
	}
	return nil
}

var _ ledger.Store = (*Store)(nil)
