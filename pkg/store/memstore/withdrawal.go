package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/withdrawal"
)

func cloneWithdrawal(w *withdrawal.Withdrawal) *withdrawal.Withdrawal {
	cp := *w
	cp.SignedTx = append([]byte(nil), w.SignedTx...)
	for _, p := range []**time.Time{&cp.NotAfter, &cp.LeaseUntil, &cp.ReservedAt, &cp.SignedAt, &cp.BroadcastAt, &cp.ConfirmedAt, &cp.FinalizedAt} {
		if *p != nil {
			t := **p
			*p = &t
		}
	}
	return &cp
}

func (s *Store) CreateWithdrawal(ctx context.Context, w *withdrawal.Withdrawal) error {
	defer s.lock(ctx)()
	if _, ok := s.d.withdrawals[w.ID]; ok {
		return withdrawal.ErrStateConflict
	}
	s.d.withdrawals[w.ID] = cloneWithdrawal(w)
	s.d.withdrawalOrder = append(s.d.withdrawalOrder, w.ID)
	return nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id string) (*withdrawal.Withdrawal, error) {
	defer s.lock(ctx)()
	w, ok := s.d.withdrawals[id]
	if !ok {
		return nil, withdrawal.ErrNotFound
	}
	return cloneWithdrawal(w), nil
}

// ListWithdrawals returns matches newest first.
func (s *Store) ListWithdrawals(ctx context.Context, f withdrawal.Filter) ([]*withdrawal.Withdrawal, error) {
	defer s.lock(ctx)()
	var out []*withdrawal.Withdrawal
	for i := len(s.d.withdrawalOrder) - 1; i >= 0; i-- {
		w := s.d.withdrawals[s.d.withdrawalOrder[i]]
		if f.UserID != "" && w.UserID != f.UserID {
			continue
		}
		if len(f.States) > 0 && !hasState(f.States, w.State) {
			continue
		}
		out = append(out, cloneWithdrawal(w))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func hasState(states []withdrawal.State, s withdrawal.State) bool {
	for _, st := range states {
		if st == s {
			return true
		}
	}
	return false
}

func (s *Store) SaveWithdrawal(ctx context.Context, w *withdrawal.Withdrawal, expect withdrawal.State, note string) error {
	defer s.lock(ctx)()
	cur, ok := s.d.withdrawals[w.ID]
	if !ok {
		return withdrawal.ErrNotFound
	}
	if cur.State != expect {
		return withdrawal.ErrStateConflict
	}
	s.d.withdrawals[w.ID] = cloneWithdrawal(w)
	if w.State != expect {
		s.d.transitions = append(s.d.transitions, &withdrawal.Transition{
			WithdrawalID: w.ID,
			From:         expect,
			To:           w.State,
			Note:         note,
			At:           w.UpdatedAt,
		})
	}
	return nil
}

func (s *Store) ClaimWithdrawal(ctx context.Context, id string, now, until time.Time) (*withdrawal.Withdrawal, error) {
	defer s.lock(ctx)()
	w, ok := s.d.withdrawals[id]
	if !ok {
		return nil, withdrawal.ErrNotFound
	}
	if w.State.Terminal() || (w.LeaseUntil != nil && w.LeaseUntil.After(now)) {
		return nil, withdrawal.ErrStateConflict
	}
	w.LeaseUntil = &until
	return cloneWithdrawal(w), nil
}

func (s *Store) DueWithdrawals(ctx context.Context, now time.Time, limit int) ([]string, error) {
	defer s.lock(ctx)()
	var due []*withdrawal.Withdrawal
	for _, w := range s.d.withdrawals {
		if w.State.Terminal() || w.NextAttemptAt.After(now) {
			continue
		}
		if w.LeaseUntil != nil && w.LeaseUntil.After(now) {
			continue
		}
		due = append(due, w)
	}
	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	ids := make([]string, 0, len(due))
	for _, w := range due {
		if limit > 0 && len(ids) == limit {
			break
		}
		ids = append(ids, w.ID)
	}
	return ids, nil
}

func (s *Store) SumWithdrawn(ctx context.Context, userID string, cur currency.Symbol, since time.Time) (int64, error) {
	defer s.lock(ctx)()
	var sum int64
	for _, w := range s.d.withdrawals {
		if w.UserID != userID || w.Currency != cur || w.CreatedAt.Before(since) {
			continue
		}
		if w.State == withdrawal.StatePending || w.State == withdrawal.StateFailedRefunded {
			continue
		}
		sum += w.Amount
	}
	return sum, nil
}

func (s *Store) ListTransitions(ctx context.Context, id string) ([]*withdrawal.Transition, error) {
	defer s.lock(ctx)()
	var out []*withdrawal.Transition
	for _, t := range s.d.transitions {
		if t.WithdrawalID == id {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

var _ withdrawal.Store = (*Store)(nil)
