package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/deposit"
)

func (s *Store) ListReceiveAddresses(ctx context.Context, chain currency.Chain) ([]*deposit.ReceiveAddress, error) {
	var daos []*ReceiveAddressDao
	if err := s.idb(ctx).NewSelect().Model(&daos).
		Where("chain = ?", string(chain)).
		Order("address ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list receive addresses: %w", err)
	}
	out := make([]*deposit.ReceiveAddress, 0, len(daos))
	for _, d := range daos {
		out = append(out, fromReceiveAddressDao(d))
	}
	return out, nil
}

func (s *Store) GetReceiveAddress(ctx context.Context, userID string, chain currency.Chain) (*deposit.ReceiveAddress, error) {
	dao := new(ReceiveAddressDao)
	err := s.idb(ctx).NewSelect().Model(dao).
		Where("user_id = ?", userID).
		Where("chain = ?", string(chain)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, deposit.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receive address: %w", err)
	}
	return fromReceiveAddressDao(dao), nil
}

func (s *Store) GetReceiveAddressByAddress(ctx context.Context, address string) (*deposit.ReceiveAddress, error) {
	dao := new(ReceiveAddressDao)
	err := s.idb(ctx).NewSelect().Model(dao).Where("address = ?", address).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, deposit.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receive address: %w", err)
	}
	return fromReceiveAddressDao(dao), nil
}

func (s *Store) CreateReceiveAddress(ctx context.Context, a *deposit.ReceiveAddress) error {
	if _, err := s.idb(ctx).NewInsert().Model(toReceiveAddressDao(a)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return deposit.ErrConflict
		}
		return fmt.Errorf("failed to create receive address: %w", err)
	}
	return nil
}

func (s *Store) ClaimCreditAttempt(ctx context.Context, address, txID string, now time.Time, window time.Duration) (bool, time.Time, error) {
	res, err := s.idb(ctx).NewUpdate().
		Model((*ReceiveAddressDao)(nil)).
		Set("last_credit_attempt_at = ?", now).
		Set("last_credit_tx_id = ?", txID).
		Where("address = ?", address).
		WhereGroup(" AND ", func(q *bun.UpdateQuery) *bun.UpdateQuery {
			return q.
				Where("last_credit_attempt_at IS NULL").
				WhereOr("last_credit_tx_id = ?", txID).
				WhereOr("last_credit_attempt_at <= ?", now.Add(-window))
		}).
		Exec(ctx)
	if err != nil {
		return false, time.Time{}, fmt.Errorf("failed to claim credit attempt: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return false, time.Time{}, err
	} else if n > 0 {
		return true, time.Time{}, nil
	}

	ra, err := s.GetReceiveAddressByAddress(ctx, address)
	if err != nil {
		return false, time.Time{}, err
	}
	if ra.LastCreditAttemptAt == nil {
		return false, time.Time{}, fmt.Errorf("credit attempt on %s lost a concurrent update", address)
	}
	return false, ra.LastCreditAttemptAt.Add(window), nil
}

func (s *Store) GetCursor(ctx context.Context, address string, cur currency.Symbol) (string, error) {
	dao := new(ScanCursorDao)
	err := s.idb(ctx).NewSelect().Model(dao).
		Where("address = ?", address).
		Where("currency = ?", string(cur)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get cursor: %w", err)
	}
	return dao.Cursor, nil
}

func (s *Store) SaveCursor(ctx context.Context, address string, cur currency.Symbol, cursor string) error {
	_, err := s.idb(ctx).NewInsert().
		Model(&ScanCursorDao{Address: address, Currency: string(cur), Cursor: cursor, UpdatedAt: time.Now().UTC()}).
		On("CONFLICT (address, currency) DO UPDATE").
		Set("cursor = EXCLUDED.cursor").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}

// UpsertDeposit inserts d as seen or raises the stored confirmation count.
// The confirmation count never decreases.
func (s *Store) UpsertDeposit(ctx context.Context, d *deposit.Deposit) (*deposit.Deposit, bool, error) {
	var out *deposit.Deposit
	var created bool
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		dao := toDepositDao(d)
		dao.State = string(deposit.StateSeen)
		res, err := s.idb(ctx).NewInsert().Model(dao).
			On("CONFLICT (tx_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to insert deposit: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n == 1
		if !created {
			if _, err := s.idb(ctx).NewUpdate().
				Model((*DepositDao)(nil)).
				Set("confirmations = GREATEST(confirmations, ?)", d.Confirmations).
				Where("tx_id = ?", d.TxID).
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to refresh deposit: %w", err)
			}
		}
		out, err = s.GetDeposit(ctx, d.TxID)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

func (s *Store) setDepositState(ctx context.Context, txID string, to deposit.State, set func(q *bun.UpdateQuery) *bun.UpdateQuery) error {
	q := s.idb(ctx).NewUpdate().Model((*DepositDao)(nil)).Set("state = ?", string(to))
	res, err := set(q).
		Where("tx_id = ?", txID).
		Where("state = ?", string(deposit.StateSeen)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark deposit %s: %w", to, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 1 {
		return nil
	}
	if _, err := s.GetDeposit(ctx, txID); err != nil {
		return err
	}
	return deposit.ErrConflict
}

func (s *Store) MarkCredited(ctx context.Context, txID string, at time.Time) error {
	return s.setDepositState(ctx, txID, deposit.StateCredited, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("credited_at = ?", at)
	})
}

func (s *Store) MarkRejected(ctx context.Context, txID, reason string) error {
	return s.setDepositState(ctx, txID, deposit.StateRejected, func(q *bun.UpdateQuery) *bun.UpdateQuery {
		return q.Set("reason = ?", reason)
	})
}

func (s *Store) GetDeposit(ctx context.Context, txID string) (*deposit.Deposit, error) {
	dao := new(DepositDao)
	err := s.idb(ctx).NewSelect().Model(dao).Where("tx_id = ?", txID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, deposit.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit: %w", err)
	}
	return fromDepositDao(dao), nil
}

// ListDeposits returns matching deposits oldest first.
func (s *Store) ListDeposits(ctx context.Context, f deposit.Filter) ([]*deposit.Deposit, error) {
	var daos []*DepositDao
	q := s.idb(ctx).NewSelect().Model(&daos).Order("first_seen ASC", "tx_id ASC")
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Currency != "" {
		q = q.Where("currency = ?", string(f.Currency))
	}
	if f.Address != "" {
		q = q.Where("address = ?", f.Address)
	}
	if f.State != "" {
		q = q.Where("state = ?", string(f.State))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	out := make([]*deposit.Deposit, 0, len(daos))
	for _, d := range daos {
		out = append(out, fromDepositDao(d))
	}
	return out, nil
}

var _ deposit.Store = (*Store)(nil)
