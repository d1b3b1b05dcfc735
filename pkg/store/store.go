// Package store is the postgres persistence for the ledger, deposits,
// withdrawals, conversions and bets. Methods called with a context returned
// by RunInTx run inside that transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/chainsafe/custody-ledger/pkg/currency"
)

type txKey struct{}

// Store implements the ledger, deposit, withdrawal, conversion and
// settlement store interfaces over bun.
type Store struct {
	db *bun.DB
}

// NewStore creates a new postgres store
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// idb returns the transaction carried by ctx, or the pool.
func (s *Store) idb(ctx context.Context) bun.IDB {
	if tx, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return tx
	}
	return s.db
}

// RunInTx runs fn in a read-committed transaction. Nested calls join the
// outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return fn(ctx)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// ReadSnapshot runs fn in a read-only repeatable-read transaction so every
// query sees the same committed state.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	return s.db.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}

// ErrDecimalsChanged is returned by SyncCurrencies when configuration
// changes the decimals of a currency already recorded.
var ErrDecimalsChanged = errors.New("currency decimals changed")

// SyncCurrencies records every configured currency and rejects a
// configuration that changes the decimals of one already recorded.
func (s *Store) SyncCurrencies(ctx context.Context, reg *currency.Registry) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		for _, c := range reg.All() {
			existing := new(CurrencyDao)
			err := s.idb(ctx).NewSelect().Model(existing).Where("symbol = ?", string(c.Symbol)).Scan(ctx)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				dao := &CurrencyDao{Symbol: string(c.Symbol), Decimals: c.Decimals, Chain: string(c.Chain)}
				if _, err := s.idb(ctx).NewInsert().Model(dao).Exec(ctx); err != nil {
					return fmt.Errorf("failed to record currency %s: %w", c.Symbol, err)
				}
			case err != nil:
				return fmt.Errorf("failed to read currency %s: %w", c.Symbol, err)
			case existing.Decimals != c.Decimals:
				return fmt.Errorf("%w: %s is stored with %d decimals, configured with %d",
					ErrDecimalsChanged, c.Symbol, existing.Decimals, c.Decimals)
			}
		}
		return nil
	})
}
