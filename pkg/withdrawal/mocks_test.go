package withdrawal_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/provider"
	"github.com/chainsafe/custody-ledger/pkg/store/memstore"
	"github.com/chainsafe/custody-ledger/pkg/withdrawal"
)

// mockAdapter is a func-field chain adapter. Unset funcs sign "sig-<n>",
// accept every broadcast and report transactions as not found.
type mockAdapter struct {
	chain currency.Chain

	ValidateAddressFunc func(addr string) error
	SignFunc            func(ctx context.Context, req provider.SendRequest) (*provider.SignedTx, error)
	BroadcastFunc       func(ctx context.Context, tx *provider.SignedTx) (string, error)
	TxStatusFunc        func(ctx context.Context, q provider.StatusQuery) (*provider.TxStatus, error)

	mu         sync.Mutex
	signs      int
	broadcasts int
	queries    []string
}

func newMockAdapter(chain currency.Chain) *mockAdapter {
	return &mockAdapter{chain: chain}
}

func (m *mockAdapter) Chain() currency.Chain { return m.chain }

func (m *mockAdapter) ValidateAddress(addr string) error {
	if m.ValidateAddressFunc != nil {
		return m.ValidateAddressFunc(addr)
	}
	if addr == "" || addr == "bad" {
		return errors.New("malformed address")
	}
	return nil
}

func (m *mockAdapter) ConfirmedBalance(context.Context, currency.Currency, string) (int64, error) {
	return 0, nil
}

func (m *mockAdapter) IncomingTransactions(context.Context, currency.Currency, string, string) ([]provider.Transfer, error) {
	return nil, nil
}

func (m *mockAdapter) Sign(ctx context.Context, req provider.SendRequest) (*provider.SignedTx, error) {
	m.mu.Lock()
	m.signs++
	n := m.signs
	m.mu.Unlock()
	if m.SignFunc != nil {
		return m.SignFunc(ctx, req)
	}
	return &provider.SignedTx{
		TxID:     fmt.Sprintf("sig-%d", n),
		Raw:      []byte(req.IdempotencyKey),
		NotAfter: time.Now().Add(time.Hour),
	}, nil
}

func (m *mockAdapter) Broadcast(ctx context.Context, _ currency.Currency, tx *provider.SignedTx) (string, error) {
	m.mu.Lock()
	m.broadcasts++
	m.mu.Unlock()
	if m.BroadcastFunc != nil {
		return m.BroadcastFunc(ctx, tx)
	}
	return tx.TxID, nil
}

func (m *mockAdapter) TxStatus(ctx context.Context, q provider.StatusQuery) (*provider.TxStatus, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q.TxID)
	m.mu.Unlock()
	if m.TxStatusFunc != nil {
		return m.TxStatusFunc(ctx, q)
	}
	return &provider.TxStatus{}, nil
}

func (m *mockAdapter) NewReceiveKey() (*provider.ReceiveKey, error) {
	return nil, errors.New("not used")
}

func (m *mockAdapter) counts() (signs, broadcasts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signs, m.broadcasts
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errStoreDown = errors.New("store unavailable")

// refundFailingStore fails every save that would move a withdrawal to
// FAILED_REFUNDED.
type refundFailingStore struct {
	*memstore.Store

	mu       sync.Mutex
	attempts int
}

func (s *refundFailingStore) SaveWithdrawal(ctx context.Context, w *withdrawal.Withdrawal, expect withdrawal.State, note string) error {
	if w.State == withdrawal.StateFailedRefunded {
		s.mu.Lock()
		s.attempts++
		s.mu.Unlock()
		return errStoreDown
	}
	return s.Store.SaveWithdrawal(ctx, w, expect, note)
}

func (s *refundFailingStore) refundAttempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}
