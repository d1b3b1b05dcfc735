// Package settlement stakes bets against the ledger and settles their
// outcomes: wins pay into winnings, losses split between savings and the
// liquidity pool, pushes return the stake.
package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
)

var (
	ErrNotFound      = errors.New("bet not found")
	ErrStateConflict = errors.New("bet state conflict")
)

// Outcome of a settled bet.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomePush Outcome = "push"
)

// Valid reports whether o is a known outcome.
func (o Outcome) Valid() bool {
	return o == OutcomeWin || o == OutcomeLoss || o == OutcomePush
}

// State of a bet record.
type State string

const (
	StateOpen    State = "open"
	StateSettled State = "settled"
	// StateVoid is a bet whose stake was returned because it could not be
	// resolved.
	StateVoid State = "void"
)

// Bet is the record of one staked game round.
type Bet struct {
	ID       string
	UserID   string
	Game     string
	Currency currency.Symbol
	Stake    int64
	Params   json.RawMessage
	State    State
	Outcome  Outcome
	// Payout is the total returned to the player on a win, stake included.
	Payout         int64
	SavingsShare   int64
	LiquidityShare int64
	Note           string
	CreatedAt      time.Time
	SettledAt      *time.Time
}

// Store persists bets. Writes made with a context from ledger.Update join
// the ledger transaction.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	CreateBet(ctx context.Context, b *Bet) error
	GetBet(ctx context.Context, id string) (*Bet, error)
	// SaveBet writes b only if the stored state equals expect.
	SaveBet(ctx context.Context, b *Bet, expect State) error
	// ListBets returns the user's bets, newest first.
	ListBets(ctx context.Context, userID string, limit int) ([]*Bet, error)
	// ListOpenBets returns open bets created before the given time, oldest
	// first.
	ListOpenBets(ctx context.Context, createdBefore time.Time, limit int) ([]*Bet, error)
	// LastLossAt returns when the user last lost a bet in cur, or nil.
	LastLossAt(ctx context.Context, userID string, cur currency.Symbol) (*time.Time, error)
}
