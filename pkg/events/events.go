// Package events publishes domain notifications and fans balance changes out
// to live subscribers.
package events

import (
	"context"
	"sync"
	"time"
)

// Subjects, relative to the configured prefix.
const (
	SubjectDepositCredited = "deposits.credited"
	SubjectBetSettled      = "bets.settled"
	withdrawalPrefix       = "withdrawals."
)

// SubjectWithdrawal is the subject for a withdrawal entering state.
func SubjectWithdrawal(state string) string {
	return withdrawalPrefix + state
}

// DepositCredited is published after a deposit is credited to the ledger.
type DepositCredited struct {
	TxID       string    `json:"txid"`
	UserID     string    `json:"user_id"`
	Currency   string    `json:"currency"`
	Amount     int64     `json:"amount"`
	Address    string    `json:"address"`
	CreditedAt time.Time `json:"credited_at"`
}

// WithdrawalChanged is published on every withdrawal state transition.
type WithdrawalChanged struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Currency     string    `json:"currency"`
	Amount       int64     `json:"amount"`
	State        string    `json:"state"`
	ProviderTxID string    `json:"provider_txid,omitempty"`
	Broadcast    bool      `json:"broadcast"`
	Reason       string    `json:"reason,omitempty"`
	At           time.Time `json:"at"`
}

// BetSettled is published after a bet is settled.
type BetSettled struct {
	BetID    string    `json:"bet_id"`
	UserID   string    `json:"user_id"`
	Game     string    `json:"game"`
	Currency string    `json:"currency"`
	Stake    int64     `json:"stake"`
	Outcome  string    `json:"outcome"`
	Payout   int64     `json:"payout"`
	At       time.Time `json:"at"`
}

// Publisher emits notifications. Publishing is best effort: callers log
// failures and never roll back state because of them.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

// Published is one event captured by a Recorder.
type Published struct {
	Subject string
	Payload any
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func (r *Recorder) Publish(_ context.Context, subject string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Subject: subject, Payload: payload})
	return nil
}

// Events returns the recorded events in publish order.
func (r *Recorder) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}

// Subjects returns the recorded subjects in publish order.
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}
