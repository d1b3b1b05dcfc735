package userstore

import (
	"context"
	"errors"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/user"
)

var (
	// ErrUserNotFound is returned when a user lookup finds no matching record.
	ErrUserNotFound = errors.New("user not found")
	// ErrWalletLinked is returned when a wallet already belongs to a user.
	ErrWalletLinked = errors.New("wallet already linked")
	// ErrUsernameTaken is returned when another user holds the username.
	ErrUsernameTaken = errors.New("username taken")
)

// Store defines the interface for account persistence
type Store interface {
	CreateUser(ctx context.Context, usr *user.User) error
	GetUser(ctx context.Context, opts ...QueryOption) (*user.User, error)
	SetCredentials(ctx context.Context, userID, username, passwordHash string) error
	ListUserIDs(ctx context.Context) ([]string, error)
}

// QueryOptions defines options for querying users
type QueryOptions struct {
	ID       *string
	Username *string
	Chain    *currency.Chain
	Address  *string
}

// QueryOption is a functional option for querying users
type QueryOption func(*QueryOptions)

// WithID sets the user ID filter
func WithID(id string) QueryOption {
	return func(opts *QueryOptions) {
		opts.ID = &id
	}
}

// WithUsername sets the username filter
func WithUsername(username string) QueryOption {
	return func(opts *QueryOptions) {
		opts.Username = &username
	}
}

// WithWallet finds the user a wallet is linked to
func WithWallet(chain currency.Chain, address string) QueryOption {
	return func(opts *QueryOptions) {
		opts.Chain = &chain
		opts.Address = &address
	}
}

// Apply folds opts into QueryOptions.
func Apply(opts ...QueryOption) *QueryOptions {
	options := &QueryOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}
