package memstore

import (
	"context"
	"sort"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
)

func (s *Store) LockBalance(ctx context.Context, userID string, cur currency.Symbol) (*ledger.Balance, error) {
	defer s.lock(ctx)()
	key := balanceKey{userID: userID, currency: cur}
	b, ok := s.d.balances[key]
	if !ok {
		b = &ledger.Balance{UserID: userID, Currency: cur}
		s.d.balances[key] = b
	}
	cp := *b
	return &cp, nil
}

func (s *Store) SaveBalance(ctx context.Context, b *ledger.Balance) error {
	defer s.lock(ctx)()
	cp := *b
	s.d.balances[balanceKey{userID: b.UserID, currency: b.Currency}] = &cp
	return nil
}

func (s *Store) GetPool(ctx context.Context, cur currency.Symbol) (*ledger.Pool, error) {
	defer s.lock(ctx)()
	p, ok := s.d.pools[cur]
	if !ok {
		p = &ledger.Pool{Currency: cur}
		s.d.pools[cur] = p
	}
	cp := *p
	return &cp, nil
}

func (s *Store) UpdatePool(ctx context.Context, p *ledger.Pool, prevVersion int64) error {
	defer s.lock(ctx)()
	cur, ok := s.d.pools[p.Currency]
	if !ok || cur.Version != prevVersion {
		return ledger.ErrConflict
	}
	cp := *p
	s.d.pools[p.Currency] = &cp
	return nil
}

func (s *Store) AppendJournal(ctx context.Context, entries []*ledger.Entry) error {
	defer s.lock(ctx)()
	for _, e := range entries {
		cp := *e
		s.d.journal = append(s.d.journal, &cp)
	}
	return nil
}

func (s *Store) ListBalances(ctx context.Context, userID string) ([]*ledger.Balance, error) {
	defer s.lock(ctx)()
	var out []*ledger.Balance
	for key, b := range s.d.balances {
		if key.userID == userID {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

func (s *Store) ListPools(ctx context.Context) ([]*ledger.Pool, error) {
	defer s.lock(ctx)()
	out := make([]*ledger.Pool, 0, len(s.d.pools))
	for _, p := range s.d.pools {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Currency < out[j].Currency })
	return out, nil
}

// Journal returns a copy of every journal entry, oldest first.
func (s *Store) Journal() []*ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ledger.Entry, 0, len(s.d.journal))
	for _, e := range s.d.journal {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// ReadSnapshot runs fn with the store mutex held.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.RunInTx(ctx, fn)
}

func (s *Store) AllBalances(ctx context.Context) ([]*ledger.Balance, error) {
	defer s.lock(ctx)()
	out := make([]*ledger.Balance, 0, len(s.d.balances))
	for _, b := range s.d.balances {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].Currency < out[j].Currency
	})
	return out, nil
}

type totalKey struct {
	userID   string
	currency currency.Symbol
	sub      ledger.SubBalance
}

func (s *Store) JournalTotals(ctx context.Context) ([]ledger.JournalTotal, error) {
	defer s.lock(ctx)()
	sums := make(map[totalKey]int64)
	for _, e := range s.d.journal {
		sums[totalKey{e.UserID, e.Currency, e.SubBalance}] += e.Amount
	}
	out := make([]ledger.JournalTotal, 0, len(sums))
	for k, v := range sums {
		out = append(out, ledger.JournalTotal{UserID: k.userID, Currency: k.currency, SubBalance: k.sub, Amount: v})
	}
	return out, nil
}

func (s *Store) ListJournal(ctx context.Context, userID string, limit int, before string) ([]*ledger.Entry, error) {
	defer s.lock(ctx)()
	var out []*ledger.Entry
	skipping := before != ""
	for i := len(s.d.journal) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		e := s.d.journal[i]
		if skipping {
			if e.ID == before {
				skipping = false
			}
			continue
		}
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CorruptBalance overwrites a stored balance without journaling. Tests use it
// to exercise the auditor.
func (s *Store) CorruptBalance(userID string, cur currency.Symbol, mutate func(b *ledger.Balance)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := balanceKey{userID: userID, currency: cur}
	b, ok := s.d.balances[key]
	if !ok {
		b = &ledger.Balance{UserID: userID, Currency: cur}
		s.d.balances[key] = b
	}
	mutate(b)
}

var _ ledger.Reader = (*Store)(nil)
