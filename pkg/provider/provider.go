// Package provider defines the chain adapter contract used by the deposit
// monitor and the withdrawal orchestrator.
package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/keys"
)

// Transfer is an inbound transfer to a watched address.
type Transfer struct {
	TxID          string
	Amount        int64
	Confirmations int64
	// Cursor resumes the scan after this transfer.
	Cursor string
}

// SendRequest describes an outbound transfer from a hot wallet.
type SendRequest struct {
	// IdempotencyKey is derived from the withdrawal id; the same key always
	// describes the same economic transfer.
	IdempotencyKey string
	Currency       currency.Currency
	From           keys.Handle
	To             string
	Amount         int64
	FeeHint        int64
}

// SignedTx is a signed, not yet broadcast transaction. TxID is determined by
// the signed bytes, so a broadcast of Raw can always be found by TxID later.
type SignedTx struct {
	TxID string
	Raw  []byte
	// LastValidHeight is the last block height at which the chain accepts the
	// transaction, when the chain has such a bound.
	LastValidHeight uint64
	// NotAfter is the wall-clock expiry of the transaction.
	NotAfter time.Time
}

// StatusQuery identifies a transaction whose status is requested.
type StatusQuery struct {
	Currency        currency.Currency
	TxID            string
	LastValidHeight uint64
	NotAfter        time.Time
}

// TxStatus is the chain's view of a transaction.
type TxStatus struct {
	Found         bool
	Confirmations int64
	// Final means the transaction can no longer be reverted.
	Final bool
	// Dropped means the transaction can never be included.
	Dropped bool
	// Failed means the transaction was included but reverted.
	Failed bool
	Reason string
}

// ReceiveKey is a freshly generated deposit address and its private key in
// the chain's usual text encoding.
type ReceiveKey struct {
	Address string
	Secret  string
}

// Adapter is implemented once per chain. Implementations are safe for
// concurrent use across distinct withdrawals.
//
//go:generate mockery --name Adapter --output mocks --outpkg mocks --filename mock_adapter.go --with-expecter
type Adapter interface {
	Chain() currency.Chain
	// ValidateAddress checks syntax and, where the chain has one, the checksum.
	ValidateAddress(addr string) error
	ConfirmedBalance(ctx context.Context, cur currency.Currency, addr string) (int64, error)
	// IncomingTransactions returns transfers to addr after cursor, oldest first.
	IncomingTransactions(ctx context.Context, cur currency.Currency, addr, cursor string) ([]Transfer, error)
	Sign(ctx context.Context, req SendRequest) (*SignedTx, error)
	// Broadcast submits a signed transaction and returns the chain's id for it.
	Broadcast(ctx context.Context, cur currency.Currency, tx *SignedTx) (string, error)
	TxStatus(ctx context.Context, q StatusQuery) (*TxStatus, error)
	NewReceiveKey() (*ReceiveKey, error)
}

// SignAndBroadcast signs and submits req in one step, for callers that do
// not persist the signed transaction in between.
func SignAndBroadcast(ctx context.Context, a Adapter, req SendRequest) (string, error) {
	tx, err := a.Sign(ctx, req)
	if err != nil {
		return "", err
	}
	return a.Broadcast(ctx, req.Currency, tx)
}

// Registry maps chains to adapters.
type Registry struct {
	mu       sync.RWMutex
	adapters map[currency.Chain]Adapter
}

// NewRegistry creates a registry from adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[currency.Chain]Adapter)}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces the adapter for its chain.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Chain()] = a
}

// Get returns the adapter for chain.
func (r *Registry) Get(chain currency.Chain) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[chain]
	if !ok {
		return nil, fmt.Errorf("no provider adapter for chain %s", chain)
	}
	return a, nil
}

// Chains lists the chains with a registered adapter.
func (r *Registry) Chains() []currency.Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]currency.Chain, 0, len(r.adapters))
	for c := range r.adapters {
		out = append(out, c)
	}
	return out
}

// ValidateAddress checks addr against the adapter for chain.
func (r *Registry) ValidateAddress(chain currency.Chain, addr string) error {
	a, err := r.Get(chain)
	if err != nil {
		return err
	}
	return a.ValidateAddress(addr)
}
