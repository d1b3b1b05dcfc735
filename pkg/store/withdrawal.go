package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/withdrawal"
)

var withdrawalMutableColumns = []string{
	"state", "signed_tx_id", "signed_tx", "last_valid_height", "not_after", "provider_tx_id",
	"confirmations", "failure_kind", "failure_reason", "last_error", "attempt_count",
	"next_attempt_at", "lease_until", "reserved_at", "signed_at", "broadcast_at",
	"confirmed_at", "finalized_at", "updated_at",
}

var terminalStates = []string{string(withdrawal.StateFinalized), string(withdrawal.StateFailedRefunded)}

func (s *Store) CreateWithdrawal(ctx context.Context, w *withdrawal.Withdrawal) error {
	if _, err := s.idb(ctx).NewInsert().Model(toWithdrawalDao(w)).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return withdrawal.ErrStateConflict
		}
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id string) (*withdrawal.Withdrawal, error) {
	dao := new(WithdrawalDao)
	err := s.idb(ctx).NewSelect().Model(dao).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, withdrawal.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}
	return fromWithdrawalDao(dao), nil
}

// ListWithdrawals returns matches newest first.
func (s *Store) ListWithdrawals(ctx context.Context, f withdrawal.Filter) ([]*withdrawal.Withdrawal, error) {
	var daos []*WithdrawalDao
	q := s.idb(ctx).NewSelect().Model(&daos).Order("created_at DESC", "id DESC")
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if len(f.States) > 0 {
		states := make([]string, 0, len(f.States))
		for _, st := range f.States {
			states = append(states, string(st))
		}
		q = q.Where("state IN (?)", bun.In(states))
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	out := make([]*withdrawal.Withdrawal, 0, len(daos))
	for _, d := range daos {
		out = append(out, fromWithdrawalDao(d))
	}
	return out, nil
}

func (s *Store) SaveWithdrawal(ctx context.Context, w *withdrawal.Withdrawal, expect withdrawal.State, note string) error {
	return s.RunInTx(ctx, func(ctx context.Context) error {
		res, err := s.idb(ctx).NewUpdate().
			Model(toWithdrawalDao(w)).
			Column(withdrawalMutableColumns...).
			WherePK().
			Where("state = ?", string(expect)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to save withdrawal: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			if _, err := s.GetWithdrawal(ctx, w.ID); err != nil {
				return err
			}
			return withdrawal.ErrStateConflict
		}
		if w.State == expect {
			return nil
		}
		t := &TransitionDao{
			WithdrawalID: w.ID,
			FromState:    string(expect),
			ToState:      string(w.State),
			Note:         note,
			At:           w.UpdatedAt,
		}
		if _, err := s.idb(ctx).NewInsert().Model(t).Exec(ctx); err != nil {
			return fmt.Errorf("failed to record transition: %w", err)
		}
		return nil
	})
}

func (s *Store) ClaimWithdrawal(ctx context.Context, id string, now, until time.Time) (*withdrawal.Withdrawal, error) {
	var out *withdrawal.Withdrawal
	err := s.RunInTx(ctx, func(ctx context.Context) error {
		res, err := s.idb(ctx).NewUpdate().
			Model((*WithdrawalDao)(nil)).
			Set("lease_until = ?", until).
			Where("id = ?", id).
			Where("state NOT IN (?)", bun.In(terminalStates)).
			Where("(lease_until IS NULL OR lease_until <= ?)", now).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to claim withdrawal: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		w, err := s.GetWithdrawal(ctx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return withdrawal.ErrStateConflict
		}
		out = w
		return nil
	})
	return out, err
}

func (s *Store) DueWithdrawals(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	q := s.idb(ctx).NewSelect().
		Model((*WithdrawalDao)(nil)).
		Column("id").
		Where("state NOT IN (?)", bun.In(terminalStates)).
		Where("next_attempt_at <= ?", now).
		Where("(lease_until IS NULL OR lease_until <= ?)", now).
		Order("next_attempt_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("failed to list due withdrawals: %w", err)
	}
	return ids, nil
}

func (s *Store) SumWithdrawn(ctx context.Context, userID string, cur currency.Symbol, since time.Time) (int64, error) {
	var sum int64
	err := s.idb(ctx).NewSelect().
		Model((*WithdrawalDao)(nil)).
		ColumnExpr("COALESCE(SUM(amount), 0)::bigint").
		Where("user_id = ?", userID).
		Where("currency = ?", string(cur)).
		Where("created_at >= ?", since).
		Where("state NOT IN (?)", bun.In([]string{string(withdrawal.StatePending), string(withdrawal.StateFailedRefunded)})).
		Scan(ctx, &sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum withdrawals: %w", err)
	}
	return sum, nil
}

func (s *Store) ListTransitions(ctx context.Context, id string) ([]*withdrawal.Transition, error) {
	var daos []*TransitionDao
	if err := s.idb(ctx).NewSelect().Model(&daos).
		Where("withdrawal_id = ?", id).
		Order("id ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	out := make([]*withdrawal.Transition, 0, len(daos))
	for _, d := range daos {
		out = append(out, fromTransitionDao(d))
	}
	return out, nil
}

var _ withdrawal.Store = (*Store)(nil)
