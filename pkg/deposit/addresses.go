package deposit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/keys"
	"github.com/chainsafe/custody-ledger/pkg/provider"
)

// AddressInfo is what a user needs to fund a currency.
type AddressInfo struct {
	Currency         currency.Symbol
	Chain            currency.Chain
	Address          string
	MinDeposit       int64
	MinConfirmations int64
}

// AddressBook hands out one receive address per (user, chain). Currencies on
// the same chain share the address.
type AddressBook struct {
	store    Store
	registry *currency.Registry
	adapters *provider.Registry
	cipher   keys.KeyCipher
	logger   *zap.Logger
	now      func() time.Time
}

// NewAddressBook creates an address book.
func NewAddressBook(store Store, registry *currency.Registry, adapters *provider.Registry, cipher keys.KeyCipher, logger *zap.Logger) *AddressBook {
	return &AddressBook{
		store:    store,
		registry: registry,
		adapters: adapters,
		cipher:   cipher,
		logger:   logger.With(zap.String("component", "receive_addresses")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ReceiveAddress returns the user's address for sym, generating and sealing a
// new key on first use.
func (b *AddressBook) ReceiveAddress(ctx context.Context, userID string, sym currency.Symbol) (*AddressInfo, error) {
	cur, err := b.registry.Get(sym)
	if err != nil {
		return nil, apperrors.InvalidInputError(err, fmt.Sprintf("unknown currency %s", sym))
	}

	ra, err := b.store.GetReceiveAddress(ctx, userID, cur.Chain)
	if errors.Is(err, ErrNotFound) {
		ra, err = b.create(ctx, userID, cur.Chain)
	}
	if err != nil {
		return nil, err
	}

	return &AddressInfo{
		Currency:         cur.Symbol,
		Chain:            cur.Chain,
		Address:          ra.Address,
		MinDeposit:       cur.MinDeposit,
		MinConfirmations: cur.MinConfirmations,
	}, nil
}

func (b *AddressBook) create(ctx context.Context, userID string, chain currency.Chain) (*ReceiveAddress, error) {
	adapter, err := b.adapters.Get(chain)
	if err != nil {
		return nil, apperrors.NotSupportedError(err, fmt.Sprintf("deposits on %s are not enabled", chain))
	}
	key, err := adapter.NewReceiveKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate receive key: %w", err)
	}
	sealed, err := b.cipher.Encrypt([]byte(key.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to seal receive key: %w", err)
	}

	ra := &ReceiveAddress{
		UserID:       userID,
		Chain:        chain,
		Address:      key.Address,
		EncryptedKey: sealed,
		CreatedAt:    b.now(),
	}
	if err := b.store.CreateReceiveAddress(ctx, ra); err != nil {
		if errors.Is(err, ErrConflict) {
			// lost a race with a concurrent request for the same user
			return b.store.GetReceiveAddress(ctx, userID, chain)
		}
		return nil, fmt.Errorf("failed to store receive address: %w", err)
	}
	b.logger.Info("Receive address created",
		zap.String("user_id", userID),
		zap.String("chain", string(chain)),
		zap.String("address", key.Address))
	return ra, nil
}

// KeyHandle returns the sealed key of a receive address as a key handle, for
// sweeping funds out of it.
func (b *AddressBook) KeyHandle(ctx context.Context, address string) (keys.Handle, error) {
	ra, err := b.store.GetReceiveAddressByAddress(ctx, address)
	if err != nil {
		return "", err
	}
	return keys.SealedHandle(ra.EncryptedKey), nil
}
