// Package conversion moves value between currencies of one user's deposit
// sub-balance at the price table's rate.
package conversion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
	"github.com/chainsafe/custody-ledger/pkg/price"
)

// Record is an executed conversion.
type Record struct {
	ID         string
	UserID     string
	From       currency.Symbol
	FromAmount int64
	To         currency.Symbol
	ToAmount   int64
	RateScaled string
	CreatedAt  time.Time
}

// Quote is a priced but unexecuted conversion.
type Quote struct {
	From       currency.Symbol
	FromAmount int64
	To         currency.Symbol
	ToAmount   int64
	RateScaled string
	PricedAt   time.Time
}

// Store persists conversion records.
//
//go:generate mockery --name Store --output mocks --outpkg mocks --filename mock_store.go --with-expecter
type Store interface {
	CreateConversion(ctx context.Context, r *Record) error
	ListConversions(ctx context.Context, userID string, limit int) ([]*Record, error)
}

// Prices is the price table as seen by the engine.
type Prices interface {
	Snapshot(ctx context.Context) (*price.Snapshot, error)
}

// Engine executes conversions.
type Engine struct {
	ledger   *ledger.Ledger
	prices   Prices
	store    Store
	registry *currency.Registry
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine creates a conversion engine.
func NewEngine(l *ledger.Ledger, prices Prices, store Store, logger *zap.Logger) *Engine {
	return &Engine{
		ledger:   l,
		prices:   prices,
		store:    store,
		registry: l.Registry(),
		logger:   logger.With(zap.String("component", "conversion")),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Quote prices a conversion against the current snapshot without executing it.
func (e *Engine) Quote(ctx context.Context, from, to currency.Symbol, amount int64) (*Quote, error) {
	fromCur, toCur, err := e.pair(from, to, amount)
	if err != nil {
		return nil, err
	}
	snap, err := e.prices.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return e.price(snap, fromCur, toCur, amount)
}

func (e *Engine) price(snap *price.Snapshot, from, to currency.Currency, amount int64) (*Quote, error) {
	out, err := snap.Convert(amount, from, to)
	switch {
	case errors.Is(err, price.ErrZeroOutput):
		return nil, apperrors.InvalidInputError(err, "zero_output")
	case errors.Is(err, price.ErrNoPrice):
		return nil, apperrors.ProviderTransientError(err, fmt.Sprintf("no price for %s/%s", from.Symbol, to.Symbol))
	case err != nil:
		return nil, apperrors.InvalidInputError(err, err.Error())
	}
	rate, err := snap.RateScaled(from.Symbol, to.Symbol)
	if err != nil {
		return nil, apperrors.ProviderTransientError(err, "no price")
	}
	return &Quote{
		From:       from.Symbol,
		FromAmount: amount,
		To:         to.Symbol,
		ToAmount:   out,
		RateScaled: rate,
		PricedAt:   snap.FetchedAt,
	}, nil
}

// Convert debits from and credits to within the user's deposit sub-balance
// and records the conversion, all in one ledger update.
func (e *Engine) Convert(ctx context.Context, userID string, from, to currency.Symbol, amount int64) (*Record, error) {
	fromCur, toCur, err := e.pair(from, to, amount)
	if err != nil {
		return nil, err
	}
	snap, err := e.prices.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	q, err := e.price(snap, fromCur, toCur, amount)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:         ulid.Make().String(),
		UserID:     userID,
		From:       q.From,
		FromAmount: q.FromAmount,
		To:         q.To,
		ToAmount:   q.ToAmount,
		RateScaled: q.RateScaled,
		CreatedAt:  e.now(),
	}
	err = e.ledger.Update(ctx, userID, nil, func(ctx context.Context, m *ledger.Mutator) error {
		if err := m.Debit(ctx, from, ledger.SubDeposit, amount, ledger.CauseConversionOut, rec.ID); err != nil {
			return err
		}
		if err := m.Credit(ctx, to, ledger.SubDeposit, q.ToAmount, ledger.CauseConversionIn, rec.ID); err != nil {
			return err
		}
		if err := e.store.CreateConversion(ctx, rec); err != nil {
			return fmt.Errorf("failed to record conversion: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("conversion executed",
		zap.String("id", rec.ID),
		zap.String("user_id", userID),
		zap.String("from", string(from)),
		zap.Int64("from_amount", amount),
		zap.String("to", string(to)),
		zap.Int64("to_amount", rec.ToAmount))
	return rec, nil
}

// History lists a user's most recent conversions.
func (e *Engine) History(ctx context.Context, userID string, limit int) ([]*Record, error) {
	return e.store.ListConversions(ctx, userID, limit)
}

func (e *Engine) pair(from, to currency.Symbol, amount int64) (currency.Currency, currency.Currency, error) {
	if amount <= 0 {
		return currency.Currency{}, currency.Currency{}, apperrors.InvalidInputError(nil, "amount must be positive")
	}
	if from == to {
		return currency.Currency{}, currency.Currency{}, apperrors.InvalidInputError(nil, "cannot convert a currency to itself")
	}
	fromCur, err := e.registry.Get(from)
	if err != nil {
		return currency.Currency{}, currency.Currency{}, apperrors.InvalidInputError(err, err.Error())
	}
	toCur, err := e.registry.Get(to)
	if err != nil {
		return currency.Currency{}, currency.Currency{}, apperrors.InvalidInputError(err, err.Error())
	}
	return fromCur, toCur, nil
}
