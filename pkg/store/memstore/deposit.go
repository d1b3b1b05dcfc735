package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/deposit"
)

type cursorKey struct {
	address  string
	currency currency.Symbol
}

type addressKey struct {
	userID string
	chain  currency.Chain
}

func cloneAddress(a *deposit.ReceiveAddress) *deposit.ReceiveAddress {
	cp := *a
	if a.LastCreditAttemptAt != nil {
		at := *a.LastCreditAttemptAt
		cp.LastCreditAttemptAt = &at
	}
	return &cp
}

func cloneDeposit(d *deposit.Deposit) *deposit.Deposit {
	cp := *d
	if d.CreditedAt != nil {
		at := *d.CreditedAt
		cp.CreditedAt = &at
	}
	return &cp
}

func (s *Store) ListReceiveAddresses(ctx context.Context, chain currency.Chain) ([]*deposit.ReceiveAddress, error) {
	defer s.lock(ctx)()
	var out []*deposit.ReceiveAddress
	for _, a := range s.d.addresses {
		if a.Chain == chain {
			out = append(out, cloneAddress(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (s *Store) GetReceiveAddress(ctx context.Context, userID string, chain currency.Chain) (*deposit.ReceiveAddress, error) {
	defer s.lock(ctx)()
	addr, ok := s.d.addressByUser[addressKey{userID: userID, chain: chain}]
	if !ok {
		return nil, deposit.ErrNotFound
	}
	return cloneAddress(s.d.addresses[addr]), nil
}

func (s *Store) GetReceiveAddressByAddress(ctx context.Context, address string) (*deposit.ReceiveAddress, error) {
	defer s.lock(ctx)()
	a, ok := s.d.addresses[address]
	if !ok {
		return nil, deposit.ErrNotFound
	}
	return cloneAddress(a), nil
}

func (s *Store) CreateReceiveAddress(ctx context.Context, a *deposit.ReceiveAddress) error {
	defer s.lock(ctx)()
	key := addressKey{userID: a.UserID, chain: a.Chain}
	if _, ok := s.d.addressByUser[key]; ok {
		return deposit.ErrConflict
	}
	if _, ok := s.d.addresses[a.Address]; ok {
		return deposit.ErrConflict
	}
	s.d.addresses[a.Address] = cloneAddress(a)
	s.d.addressByUser[key] = a.Address
	return nil
}

func (s *Store) ClaimCreditAttempt(ctx context.Context, address, txID string, now time.Time, window time.Duration) (bool, time.Time, error) {
	defer s.lock(ctx)()
	a, ok := s.d.addresses[address]
	if !ok {
		return false, time.Time{}, deposit.ErrNotFound
	}
	if a.LastCreditAttemptAt != nil && a.LastCreditTxID != txID {
		if until := a.LastCreditAttemptAt.Add(window); now.Before(until) {
			return false, until, nil
		}
	}
	a.LastCreditAttemptAt = &now
	a.LastCreditTxID = txID
	return true, time.Time{}, nil
}

func (s *Store) GetCursor(ctx context.Context, address string, cur currency.Symbol) (string, error) {
	defer s.lock(ctx)()
	return s.d.cursors[cursorKey{address: address, currency: cur}], nil
}

func (s *Store) SaveCursor(ctx context.Context, address string, cur currency.Symbol, cursor string) error {
	defer s.lock(ctx)()
	s.d.cursors[cursorKey{address: address, currency: cur}] = cursor
	return nil
}

func (s *Store) UpsertDeposit(ctx context.Context, d *deposit.Deposit) (*deposit.Deposit, bool, error) {
	defer s.lock(ctx)()
	if existing, ok := s.d.deposits[d.TxID]; ok {
		if d.Confirmations > existing.Confirmations {
			existing.Confirmations = d.Confirmations
		}
		return cloneDeposit(existing), false, nil
	}
	cp := cloneDeposit(d)
	cp.State = deposit.StateSeen
	s.d.deposits[d.TxID] = cp
	s.d.depositOrder = append(s.d.depositOrder, d.TxID)
	return cloneDeposit(cp), true, nil
}

func (s *Store) MarkCredited(ctx context.Context, txID string, at time.Time) error {
	defer s.lock(ctx)()
	d, ok := s.d.deposits[txID]
	if !ok {
		return deposit.ErrNotFound
	}
	if d.State != deposit.StateSeen {
		return deposit.ErrConflict
	}
	d.State = deposit.StateCredited
	d.CreditedAt = &at
	return nil
}

func (s *Store) MarkRejected(ctx context.Context, txID, reason string) error {
	defer s.lock(ctx)()
	d, ok := s.d.deposits[txID]
	if !ok {
		return deposit.ErrNotFound
	}
	if d.State != deposit.StateSeen {
		return deposit.ErrConflict
	}
	d.State = deposit.StateRejected
	d.Reason = reason
	return nil
}

func (s *Store) GetDeposit(ctx context.Context, txID string) (*deposit.Deposit, error) {
	defer s.lock(ctx)()
	d, ok := s.d.deposits[txID]
	if !ok {
		return nil, deposit.ErrNotFound
	}
	return cloneDeposit(d), nil
}

// ListDeposits returns matching deposits oldest first.
func (s *Store) ListDeposits(ctx context.Context, f deposit.Filter) ([]*deposit.Deposit, error) {
	defer s.lock(ctx)()
	var out []*deposit.Deposit
	for _, id := range s.d.depositOrder {
		d := s.d.deposits[id]
		switch {
		case f.UserID != "" && d.UserID != f.UserID,
			f.Currency != "" && d.Currency != f.Currency,
			f.Address != "" && d.Address != f.Address,
			f.State != "" && d.State != f.State:
			continue
		}
		out = append(out, cloneDeposit(d))
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

var _ deposit.Store = (*Store)(nil)
