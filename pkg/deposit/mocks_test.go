package deposit_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/provider"
)

// fakeAdapter serves scripted incoming transfers per address.
type fakeAdapter struct {
	chain currency.Chain

	mu        sync.Mutex
	transfers map[string][]provider.Transfer
	keys      int
	incoming  func(addr, cursor string) ([]provider.Transfer, error)
}

func newFakeAdapter(chain currency.Chain) *fakeAdapter {
	return &fakeAdapter{chain: chain, transfers: make(map[string][]provider.Transfer)}
}

func (f *fakeAdapter) add(addr string, t provider.Transfer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.Cursor == "" {
		t.Cursor = t.TxID
	}
	f.transfers[addr] = append(f.transfers[addr], t)
}

func (f *fakeAdapter) setConfirmations(addr, txID string, conf int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.transfers[addr] {
		if f.transfers[addr][i].TxID == txID {
			f.transfers[addr][i].Confirmations = conf
		}
	}
}

func (f *fakeAdapter) Chain() currency.Chain { return f.chain }

func (f *fakeAdapter) ValidateAddress(string) error { return nil }

func (f *fakeAdapter) ConfirmedBalance(context.Context, currency.Currency, string) (int64, error) {
	return 0, nil
}

func (f *fakeAdapter) IncomingTransactions(_ context.Context, _ currency.Currency, addr, cursor string) ([]provider.Transfer, error) {
	if f.incoming != nil {
		return f.incoming(addr, cursor)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	all := f.transfers[addr]
	start := 0
	for i, t := range all {
		if t.Cursor == cursor {
			start = i + 1
		}
	}
	return append([]provider.Transfer(nil), all[start:]...), nil
}

func (f *fakeAdapter) Sign(context.Context, provider.SendRequest) (*provider.SignedTx, error) {
	return nil, provider.Permanent(f.chain, "sign", fmt.Errorf("not used"))
}

func (f *fakeAdapter) Broadcast(context.Context, currency.Currency, *provider.SignedTx) (string, error) {
	return "", provider.Permanent(f.chain, "broadcast", fmt.Errorf("not used"))
}

func (f *fakeAdapter) TxStatus(context.Context, provider.StatusQuery) (*provider.TxStatus, error) {
	return &provider.TxStatus{}, nil
}

func (f *fakeAdapter) NewReceiveKey() (*provider.ReceiveKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys++
	return &provider.ReceiveKey{
		Address: fmt.Sprintf("%s-addr-%d", f.chain, f.keys),
		Secret:  fmt.Sprintf("secret-%d", f.keys),
	}, nil
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
