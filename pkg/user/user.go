package user

import (
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
)

// User represents the domain model for an account holder. Accounts are
// created on the first wallet sign-in; a username and password can be added
// later for password logins.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Wallets      []Wallet
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Wallet is an external wallet linked to a user by a signed challenge.
type Wallet struct {
	Chain    currency.Chain
	Address  string
	LinkedAt time.Time
}

// New creates a User with one linked wallet.
func New(id string, w Wallet, now time.Time) *User {
	w.LinkedAt = now
	return &User{
		ID:        id,
		Wallets:   []Wallet{w},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasPassword reports whether password logins are enabled for the user.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// ChallengeRequest asks for a sign-in message for a wallet.
type ChallengeRequest struct {
	Chain   string `json:"chain" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// ChallengeResponse carries the message the wallet must sign.
type ChallengeResponse struct {
	ChallengeID string    `json:"challenge_id"`
	Message     string    `json:"message"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// VerifyRequest redeems a challenge with the wallet's signature.
type VerifyRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
	Signature   string `json:"signature" validate:"required"`
}

// LoginRequest is a username and password login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CredentialsRequest sets the username and password on an account.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SessionResponse is returned by every successful sign-in.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Created   bool      `json:"created,omitzero"`
}

// Profile is the public view of a user.
type Profile struct {
	ID          string          `json:"id"`
	Username    string          `json:"username,omitzero"`
	HasPassword bool            `json:"has_password"`
	Wallets     []WalletProfile `json:"wallets"`
	CreatedAt   time.Time       `json:"created_at"`
}

// WalletProfile is the public view of a linked wallet.
type WalletProfile struct {
	Chain    string    `json:"chain"`
	Address  string    `json:"address"`
	LinkedAt time.Time `json:"linked_at"`
}

// ToProfile converts a user to its public view.
func (u *User) ToProfile() *Profile {
	p := &Profile{
		ID:          u.ID,
		Username:    u.Username,
		HasPassword: u.HasPassword(),
		Wallets:     make([]WalletProfile, 0, len(u.Wallets)),
		CreatedAt:   u.CreatedAt,
	}
	for _, w := range u.Wallets {
		p.Wallets = append(p.Wallets, WalletProfile{Chain: string(w.Chain), Address: w.Address, LinkedAt: w.LinkedAt})
	}
	return p
}
