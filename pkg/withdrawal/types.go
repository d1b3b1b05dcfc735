// Package withdrawal drives outbound transfers through
// PENDING → RESERVED → SIGNED → BROADCAST → CONFIRMING → FINALIZED, with
// FAILED_REFUNDED as the only other terminal state.
package withdrawal

import (
	"context"
	"errors"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
)

var (
	ErrNotFound = errors.New("withdrawal not found")
	// ErrStateConflict is returned when a compare-and-set on state or lease lost.
	ErrStateConflict = errors.New("withdrawal state conflict")
)

// State of a withdrawal.
type State string

const (
	StatePending        State = "PENDING"
	StateReserved       State = "RESERVED"
	StateSigned         State = "SIGNED"
	StateBroadcast      State = "BROADCAST"
	StateConfirming     State = "CONFIRMING"
	StateFinalized      State = "FINALIZED"
	StateFailedRefunded State = "FAILED_REFUNDED"
)

var transitions = map[State][]State{
	StatePending:    {StateReserved, StateFailedRefunded},
	StateReserved:   {StateSigned, StateFailedRefunded},
	StateSigned:     {StateBroadcast, StateFailedRefunded},
	StateBroadcast:  {StateConfirming, StateFailedRefunded},
	StateConfirming: {StateFinalized, StateFailedRefunded},
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateFinalized || s == StateFailedRefunded
}

// CanTransition reports whether from → to is an edge of the state machine.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// FailureKind records why a withdrawal ended in FAILED_REFUNDED.
type FailureKind string

const (
	FailureInvalidInput          FailureKind = "invalid_input"
	FailureInsufficientFunds     FailureKind = "insufficient_funds"
	FailureInsufficientLiquidity FailureKind = "insufficient_liquidity"
	FailureLimitExceeded         FailureKind = "limit_exceeded"
	FailureSignRejected          FailureKind = "sign_rejected"
	FailureBroadcastRejected     FailureKind = "broadcast_rejected"
	FailureAttemptsExhausted     FailureKind = "attempts_exhausted"
	FailureDropped               FailureKind = "dropped"
	FailureReverted              FailureKind = "reverted"
)

// Withdrawal is the orchestrator's record of one outbound transfer.
//
// SignedTxID is the id the chain will assign to the signed bytes; it is not
// evidence of a broadcast. ProviderTxID is only ever set from a successful
// adapter broadcast or from the chain reporting the signed transaction.
type Withdrawal struct {
	ID             string
	UserID         string
	Currency       currency.Symbol
	Amount         int64
	SubBalance     ledger.SubBalance
	Destination    string
	State          State
	IdempotencyKey string

	SignedTxID      string
	SignedTx        []byte
	LastValidHeight uint64
	NotAfter        *time.Time
	ProviderTxID    string
	Confirmations   int64

	FailureKind   FailureKind
	FailureReason string
	// LastError is the most recent retryable error, kept for operators.
	LastError     string
	AttemptCount  int
	NextAttemptAt time.Time
	LeaseUntil    *time.Time

	CreatedAt   time.Time
	ReservedAt  *time.Time
	SignedAt    *time.Time
	BroadcastAt *time.Time
	ConfirmedAt *time.Time
	FinalizedAt *time.Time
	UpdatedAt   time.Time
}

// Broadcast reports whether the withdrawal has a verifiable on-chain id.
func (w *Withdrawal) Broadcast() bool {
	return w.ProviderTxID != ""
}

// Transition is one recorded state change.
type Transition struct {
	WithdrawalID string
	From         State
	To           State
	Note         string
	At           time.Time
}

// Filter narrows List.
type Filter struct {
	UserID string
	States []State
	Limit  int
}

// Store persists withdrawals. Writes made with a context from ledger.Update
// join the ledger transaction.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	CreateWithdrawal(ctx context.Context, w *Withdrawal) error
	GetWithdrawal(ctx context.Context, id string) (*Withdrawal, error)
	ListWithdrawals(ctx context.Context, f Filter) ([]*Withdrawal, error)
	// SaveWithdrawal writes w only if the stored state equals expect, and
	// records a Transition when w.State differs from expect. It returns
	// ErrStateConflict otherwise.
	SaveWithdrawal(ctx context.Context, w *Withdrawal, expect State, note string) error
	// ClaimWithdrawal leases a non-terminal withdrawal until the given time.
	// It returns ErrStateConflict when another worker holds a live lease.
	ClaimWithdrawal(ctx context.Context, id string, now, until time.Time) (*Withdrawal, error)
	// DueWithdrawals lists ids of non-terminal, unleased withdrawals whose
	// next attempt is due.
	DueWithdrawals(ctx context.Context, now time.Time, limit int) ([]string, error)
	// SumWithdrawn totals amounts of the user's withdrawals in cur created
	// at or after since that hold or have spent a reservation, i.e. every
	// state except PENDING and FAILED_REFUNDED.
	SumWithdrawn(ctx context.Context, userID string, cur currency.Symbol, since time.Time) (int64, error)
	ListTransitions(ctx context.Context, id string) ([]*Transition, error)
}
