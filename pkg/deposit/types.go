// Package deposit watches receive addresses on chain and credits confirmed
// inbound transfers to the ledger exactly once per transaction id.
package deposit

import (
	"context"
	"errors"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by compare-and-set writes that lost a race.
	ErrConflict = errors.New("state conflict")
)

// State of a deposit record.
type State string

const (
	StateSeen     State = "seen"
	StateCredited State = "credited"
	StateRejected State = "rejected"
)

// Deposit is one inbound transfer, keyed by chain transaction id.
type Deposit struct {
	TxID          string
	Currency      currency.Symbol
	UserID        string
	Address       string
	Amount        int64
	Confirmations int64
	State         State
	Reason        string
	FirstSeen     time.Time
	CreditedAt    *time.Time
}

// ReceiveAddress is a user's deposit address on one chain. The private key is
// sealed by the key cipher.
type ReceiveAddress struct {
	UserID              string
	Chain               currency.Chain
	Address             string
	EncryptedKey        string
	CreatedAt           time.Time
	LastCreditAttemptAt *time.Time
	LastCreditTxID      string
}

// Filter narrows ListDeposits.
type Filter struct {
	UserID   string
	Currency currency.Symbol
	Address  string
	State    State
	Limit    int
}

// Store persists receive addresses, scan cursors and deposits.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	ListReceiveAddresses(ctx context.Context, chain currency.Chain) ([]*ReceiveAddress, error)
	GetReceiveAddress(ctx context.Context, userID string, chain currency.Chain) (*ReceiveAddress, error)
	GetReceiveAddressByAddress(ctx context.Context, address string) (*ReceiveAddress, error)
	// CreateReceiveAddress returns ErrConflict when the user already has an
	// address on the chain.
	CreateReceiveAddress(ctx context.Context, a *ReceiveAddress) error
	// ClaimCreditAttempt records a credit attempt for txID on address unless
	// another transaction was attempted there within window before now, in
	// which case it returns false and the time the cooldown ends. The check
	// and the write are one atomic step.
	ClaimCreditAttempt(ctx context.Context, address, txID string, now time.Time, window time.Duration) (bool, time.Time, error)

	GetCursor(ctx context.Context, address string, cur currency.Symbol) (string, error)
	SaveCursor(ctx context.Context, address string, cur currency.Symbol, cursor string) error

	// UpsertDeposit inserts d in state seen, or refreshes the confirmation
	// count of an existing record. It returns the stored record and whether
	// it was created.
	UpsertDeposit(ctx context.Context, d *Deposit) (*Deposit, bool, error)
	// MarkCredited moves txID from seen to credited; ErrConflict otherwise.
	MarkCredited(ctx context.Context, txID string, at time.Time) error
	MarkRejected(ctx context.Context, txID, reason string) error
	GetDeposit(ctx context.Context, txID string) (*Deposit, error)
	ListDeposits(ctx context.Context, f Filter) ([]*Deposit, error)
}
