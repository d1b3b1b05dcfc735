package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
)

func (s *Store) LockBalance(ctx context.Context, userID string, cur currency.Symbol) (*ledger.Balance, error) {
	db := s.idb(ctx)
	if _, err := db.NewInsert().
		Model(&BalanceDao{UserID: userID, Currency: string(cur)}).
		On("CONFLICT (user_id, currency) DO NOTHING").
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create balance row: %w", err)
	}
	dao := new(BalanceDao)
	if err := db.NewSelect().Model(dao).
		Where("user_id = ?", userID).
		Where("currency = ?", string(cur)).
		For("UPDATE").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}
	return fromBalanceDao(dao), nil
}

func (s *Store) SaveBalance(ctx context.Context, b *ledger.Balance) error {
	_, err := s.idb(ctx).NewUpdate().
		Model(toBalanceDao(b)).
		Column("deposit", "winnings", "gaming", "savings", "liquidity", "version", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	return nil
}

func (s *Store) GetPool(ctx context.Context, cur currency.Symbol) (*ledger.Pool, error) {
	db := s.idb(ctx)
	if _, err := db.NewInsert().
		Model(&PoolDao{Currency: string(cur)}).
		On("CONFLICT (currency) DO NOTHING").
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create pool row: %w", err)
	}
	dao := new(PoolDao)
	if err := db.NewSelect().Model(dao).Where("currency = ?", string(cur)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to load pool: %w", err)
	}
	return fromPoolDao(dao), nil
}

func (s *Store) UpdatePool(ctx context.Context, p *ledger.Pool, prevVersion int64) error {
	res, err := s.idb(ctx).NewUpdate().
		Model(toPoolDao(p)).
		Column("balance", "escrow", "paid_out", "version", "updated_at").
		WherePK().
		Where("version = ?", prevVersion).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update pool: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ledger.ErrConflict
	}
	return nil
}

func (s *Store) AppendJournal(ctx context.Context, entries []*ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	daos := make([]*JournalDao, 0, len(entries))
	for _, e := range entries {
		daos = append(daos, toJournalDao(e))
	}
	if _, err := s.idb(ctx).NewInsert().Model(&daos).Exec(ctx); err != nil {
		return fmt.Errorf("failed to append journal: %w", err)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, userID string) ([]*ledger.Balance, error) {
	var daos []*BalanceDao
	if err := s.idb(ctx).NewSelect().Model(&daos).
		Where("user_id = ?", userID).
		Order("currency ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	out := make([]*ledger.Balance, 0, len(daos))
	for _, d := range daos {
		out = append(out, fromBalanceDao(d))
	}
	return out, nil
}

func (s *Store) ListPools(ctx context.Context) ([]*ledger.Pool, error) {
	var daos []*PoolDao
	if err := s.idb(ctx).NewSelect().Model(&daos).Order("currency ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	out := make([]*ledger.Pool, 0, len(daos))
	for _, d := range daos {
		out = append(out, fromPoolDao(d))
	}
	return out, nil
}

func (s *Store) AllBalances(ctx context.Context) ([]*ledger.Balance, error) {
	var daos []*BalanceDao
	if err := s.idb(ctx).NewSelect().Model(&daos).
		Order("user_id ASC", "currency ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	out := make([]*ledger.Balance, 0, len(daos))
	for _, d := range daos {
		out = append(out, fromBalanceDao(d))
	}
	return out, nil
}

func (s *Store) JournalTotals(ctx context.Context) ([]ledger.JournalTotal, error) {
	var rows []struct {
		UserID     string `bun:"user_id"`
		Currency   string `bun:"currency"`
		SubBalance string `bun:"sub_balance"`
		Amount     int64  `bun:"amount"`
	}
	err := s.idb(ctx).NewSelect().
		Model((*JournalDao)(nil)).
		Column("user_id", "currency", "sub_balance").
		ColumnExpr("SUM(amount)::bigint AS amount").
		Group("user_id", "currency", "sub_balance").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to sum journal: %w", err)
	}
	out := make([]ledger.JournalTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, ledger.JournalTotal{
			UserID:     r.UserID,
			Currency:   currency.Symbol(r.Currency),
			SubBalance: ledger.SubBalance(r.SubBalance),
			Amount:     r.Amount,
		})
	}
	return out, nil
}

// ListJournal relies on ulid ids sorting by creation time.
func (s *Store) ListJournal(ctx context.Context, userID string, limit int, before string) ([]*ledger.Entry, error) {
	var daos []*JournalDao
	q := s.idb(ctx).NewSelect().Model(&daos).
		Where("user_id = ?", userID).
		Order("id DESC")
	if before != "" {
		q = q.Where("id < ?", before)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	out := make([]*ledger.Entry, 0, len(daos))
	for _, d := range daos {
		out = append(out, fromJournalDao(d))
	}
	return out, nil
}

var (
	_ ledger.Store  = (*Store)(nil)
	_ ledger.Reader = (*Store)(nil)
)
