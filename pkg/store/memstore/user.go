package memstore

import (
	"context"
	"slices"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/user"
	"github.com/chainsafe/custody-ledger/pkg/userstore"
)

type walletKey struct {
	chain   currency.Chain
	address string
}

func cloneUser(u *user.User) *user.User {
	cp := *u
	cp.Wallets = slices.Clone(u.Wallets)
	return &cp
}

func (s *Store) CreateUser(ctx context.Context, usr *user.User) error {
	defer s.lock(ctx)()
	if _, ok := s.d.users[usr.ID]; ok {
		return userstore.ErrUsernameTaken
	}
	if usr.Username != "" {
		if _, ok := s.d.usernames[usr.Username]; ok {
			return userstore.ErrUsernameTaken
		}
	}
	for _, w := range usr.Wallets {
		if _, ok := s.d.walletOwner[walletKey{w.Chain, w.Address}]; ok {
			return userstore.ErrWalletLinked
		}
	}
	s.d.users[usr.ID] = cloneUser(usr)
	s.d.userOrder = append(s.d.userOrder, usr.ID)
	if usr.Username != "" {
		s.d.usernames[usr.Username] = usr.ID
	}
	for _, w := range usr.Wallets {
		s.d.walletOwner[walletKey{w.Chain, w.Address}] = usr.ID
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, opts ...userstore.QueryOption) (*user.User, error) {
	defer s.lock(ctx)()
	options := userstore.Apply(opts...)

	id := ""
	switch {
	case options.ID != nil:
		id = *options.ID
	case options.Username != nil:
		id = s.d.usernames[*options.Username]
	case options.Chain != nil && options.Address != nil:
		id = s.d.walletOwner[walletKey{*options.Chain, *options.Address}]
	}
	u, ok := s.d.users[id]
	if !ok {
		return nil, userstore.ErrUserNotFound
	}
	if options.Username != nil && u.Username != *options.Username {
		return nil, userstore.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) SetCredentials(ctx context.Context, userID, username, passwordHash string) error {
	defer s.lock(ctx)()
	u, ok := s.d.users[userID]
	if !ok {
		return userstore.ErrUserNotFound
	}
	if owner, ok := s.d.usernames[username]; ok && owner != userID {
		return userstore.ErrUsernameTaken
	}
	if u.Username != "" {
		delete(s.d.usernames, u.Username)
	}
	u.Username = username
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	s.d.usernames[username] = userID
	return nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	defer s.lock(ctx)()
	return slices.Clone(s.d.userOrder), nil
}

var _ userstore.Store = (*Store)(nil)
