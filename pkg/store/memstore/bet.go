package memstore

import (
	"context"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/settlement"
)

func cloneBet(b *settlement.Bet) *settlement.Bet {
	cp := *b
	cp.Params = append([]byte(nil), b.Params...)
	if b.SettledAt != nil {
		at := *b.SettledAt
		cp.SettledAt = &at
	}
	return &cp
}

func (s *Store) CreateBet(ctx context.Context, b *settlement.Bet) error {
	defer s.lock(ctx)()
	if _, ok := s.d.bets[b.ID]; ok {
		return settlement.ErrStateConflict
	}
	s.d.bets[b.ID] = cloneBet(b)
	s.d.betOrder = append(s.d.betOrder, b.ID)
	return nil
}

func (s *Store) GetBet(ctx context.Context, id string) (*settlement.Bet, error) {
	defer s.lock(ctx)()
	b, ok := s.d.bets[id]
	if !ok {
		return nil, settlement.ErrNotFound
	}
	return cloneBet(b), nil
}

func (s *Store) SaveBet(ctx context.Context, b *settlement.Bet, expect settlement.State) error {
	defer s.lock(ctx)()
	cur, ok := s.d.bets[b.ID]
	if !ok {
		return settlement.ErrNotFound
	}
	if cur.State != expect {
		return settlement.ErrStateConflict
	}
	s.d.bets[b.ID] = cloneBet(b)
	return nil
}

func (s *Store) ListBets(ctx context.Context, userID string, limit int) ([]*settlement.Bet, error) {
	defer s.lock(ctx)()
	var out []*settlement.Bet
	for i := len(s.d.betOrder) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if b := s.d.bets[s.d.betOrder[i]]; b.UserID == userID {
			out = append(out, cloneBet(b))
		}
	}
	return out, nil
}

func (s *Store) ListOpenBets(ctx context.Context, createdBefore time.Time, limit int) ([]*settlement.Bet, error) {
	defer s.lock(ctx)()
	var out []*settlement.Bet
	for _, id := range s.d.betOrder {
		if limit > 0 && len(out) == limit {
			break
		}
		if b := s.d.bets[id]; b.State == settlement.StateOpen && b.CreatedAt.Before(createdBefore) {
			out = append(out, cloneBet(b))
		}
	}
	return out, nil
}

func (s *Store) LastLossAt(ctx context.Context, userID string, cur currency.Symbol) (*time.Time, error) {
	defer s.lock(ctx)()
	var last *time.Time
	for _, b := range s.d.bets {
		if b.UserID != userID || b.Currency != cur || b.Outcome != settlement.OutcomeLoss || b.SettledAt == nil {
			continue
		}
		if last == nil || b.SettledAt.After(*last) {
			at := *b.SettledAt
			last = &at
		}
	}
	return last, nil
}

var _ settlement.Store = (*Store)(nil)
