// Package ledger owns every sub-balance and liquidity pool mutation.
//
// All writes go through Update, which serializes mutations per user, takes
// the per-currency pool mutexes in sorted order after the user mutex, and
// commits balances, pools and journal entries in one store transaction after
// checking that no sub-balance or pool figure went negative.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/internal/metrics"
	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/currency"
)

// Observer is called after an update commits with the currencies it touched.
type Observer func(userID string, currencies []currency.Symbol)

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for journal timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger is the single writer of balances, pools and the journal.
type Ledger struct {
	store    Store
	registry *currency.Registry
	logger   *zap.Logger

	users *keyedMutex
	pools *keyedMutex
	now   func() time.Time

	obsMu     sync.RWMutex
	observers []Observer
}

// New creates a ledger over store.
func New(store Store, registry *currency.Registry, logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		store:    store,
		registry: registry,
		logger:   logger.With(zap.String("component", "ledger")),
		users:    newKeyedMutex(),
		pools:    newKeyedMutex(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Subscribe registers an observer for committed updates.
func (l *Ledger) Subscribe(o Observer) {
	l.obsMu.Lock()
	defer l.obsMu.Unlock()
	l.observers = append(l.observers, o)
}

// Registry returns the currency registry the ledger validates against.
func (l *Ledger) Registry() *currency.Registry {
	return l.registry
}

// Update runs fn as one atomic mutation of userID's balances. pools lists the
// currencies whose liquidity pool fn may read or change. Other components
// write their own records inside fn using the context it receives, so those
// writes commit or roll back together with the ledger change.
//
// Update must be the outermost transaction: never call it from inside
// Store.RunInTx or from another Update.
func (l *Ledger) Update(
	ctx context.Context,
	userID string,
	pools []currency.Symbol,
	fn func(ctx context.Context, m *Mutator) error,
) error {
	if userID == "" {
		return apperrors.InvalidInputError(nil, "user id is required")
	}
	for _, c := range pools {
		if _, err := l.registry.Get(c); err != nil {
			return apperrors.InvalidInputError(err, fmt.Sprintf("unknown currency %s", c))
		}
	}

	unlockUser := l.users.Lock(userID)
	defer unlockUser()
	unlockPools := l.pools.lockCurrencies(pools)
	defer unlockPools()

	m := newMutator(l, userID, pools)
	err := l.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := fn(ctx, m); err != nil {
			return err
		}
		return m.commit(ctx)
	})
	if err != nil {
		kind := apperrors.KindOf(err)
		metrics.LedgerRejectionsTotal.WithLabelValues(string(kind)).Inc()
		if kind == apperrors.KindInvariantViolation {
			l.logger.Error("ledger invariant violation",
				zap.String("user_id", userID),
				zap.Any("pools", pools),
				zap.Any("entries", m.entries),
				zap.Error(err))
		}
		return err
	}

	l.published(m)
	return nil
}

func (l *Ledger) published(m *Mutator) {
	touched := make([]currency.Symbol, 0, len(m.balances))
	for cur := range m.balances {
		touched = append(touched, cur)
	}
	for _, e := range m.entries {
		metrics.LedgerMutationsTotal.WithLabelValues(string(e.Currency), string(e.Cause)).Inc()
	}
	for cur, ps := range m.pools {
		if ps.dirty {
			metrics.PoolAvailable.WithLabelValues(string(cur)).Set(float64(ps.pool.Available()))
		}
	}

	l.obsMu.RLock()
	observers := append([]Observer(nil), l.observers...)
	l.obsMu.RUnlock()
	for _, o := range observers {
		o(m.userID, touched)
	}
	for _, h := range m.hooks {
		h()
	}
}

func poolsFor(cur currency.Symbol, subs ...SubBalance) []currency.Symbol {
	for _, s := range subs {
		if s == SubLiquidity {
			return []currency.Symbol{cur}
		}
	}
	return nil
}

// Credit adds amount to one sub-balance.
func (l *Ledger) Credit(ctx context.Context, userID string, cur currency.Symbol, sub SubBalance, amount int64, cause Cause, ref string) error {
	return l.Update(ctx, userID, poolsFor(cur, sub), func(ctx context.Context, m *Mutator) error {
		return m.Credit(ctx, cur, sub, amount, cause, ref)
	})
}

// Debit subtracts amount from one sub-balance, failing with InsufficientFunds
// if it would go negative.
func (l *Ledger) Debit(ctx context.Context, userID string, cur currency.Symbol, sub SubBalance, amount int64, cause Cause, ref string) error {
	return l.Update(ctx, userID, poolsFor(cur, sub), func(ctx context.Context, m *Mutator) error {
		return m.Debit(ctx, cur, sub, amount, cause, ref)
	})
}

// Move transfers amount between two sub-balances of one user.
func (l *Ledger) Move(ctx context.Context, userID string, cur currency.Symbol, from, to SubBalance, amount int64, cause Cause, ref string) error {
	return l.Update(ctx, userID, poolsFor(cur, from, to), func(ctx context.Context, m *Mutator) error {
		return m.Move(ctx, cur, from, to, amount, cause, ref)
	})
}

// ReserveLiquidity commits deposit funds to the shared pool.
func (l *Ledger) ReserveLiquidity(ctx context.Context, userID string, cur currency.Symbol, amount int64) error {
	return l.Update(ctx, userID, []currency.Symbol{cur}, func(ctx context.Context, m *Mutator) error {
		return m.Move(ctx, cur, SubDeposit, SubLiquidity, amount, CauseLiquidityCommit, "")
	})
}

// ReleaseLiquidity returns committed funds to deposit. Funds earmarked by
// in-flight withdrawals or already paid out cannot be released.
func (l *Ledger) ReleaseLiquidity(ctx context.Context, userID string, cur currency.Symbol, amount int64) error {
	return l.Update(ctx, userID, []currency.Symbol{cur}, func(ctx context.Context, m *Mutator) error {
		return m.ReleaseLiquidity(ctx, cur, amount, "")
	})
}

// Pool returns the pool record for cur read under the currency mutex.
// Inside Update use Mutator.Pool instead.
func (l *Ledger) Pool(ctx context.Context, cur currency.Symbol) (*Pool, error) {
	if _, err := l.registry.Get(cur); err != nil {
		return nil, apperrors.InvalidInputError(err, fmt.Sprintf("unknown currency %s", cur))
	}
	unlock := l.pools.Lock(string(cur))
	defer unlock()

	p, err := l.store.GetPool(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool %s: %w", cur, err)
	}
	return p, nil
}

// PoolAvailable returns the withdrawal ceiling for cur.
func (l *Ledger) PoolAvailable(ctx context.Context, cur currency.Symbol) (int64, error) {
	p, err := l.Pool(ctx, cur)
	if err != nil {
		return 0, err
	}
	return p.Available(), nil
}

// Pools lists every pool record.
func (l *Ledger) Pools(ctx context.Context) ([]*Pool, error) {
	pools, err := l.store.ListPools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pools: %w", err)
	}
	return pools, nil
}

// Replenish records that amount of finalized outflow has been refilled into
// the hot wallet, raising the pool's available figure.
func (l *Ledger) Replenish(ctx context.Context, cur currency.Symbol, amount int64) (*Pool, error) {
	if _, err := l.registry.Get(cur); err != nil {
		return nil, apperrors.InvalidInputError(err, fmt.Sprintf("unknown currency %s", cur))
	}
	if amount <= 0 {
		return nil, apperrors.InvalidInputError(nil, "amount must be positive")
	}
	unlock := l.pools.Lock(string(cur))
	defer unlock()

	var out *Pool
	err := l.store.RunInTx(ctx, func(ctx context.Context) error {
		p, err := l.store.GetPool(ctx, cur)
		if err != nil {
			return fmt.Errorf("failed to get pool %s: %w", cur, err)
		}
		if p.PaidOut < amount {
			return apperrors.InvalidInputError(nil, fmt.Sprintf("replenish exceeds paid out amount %d", p.PaidOut))
		}
		prev := p.Version
		p.PaidOut -= amount
		p.Version = prev + 1
		p.UpdatedAt = l.now()
		if err := l.store.UpdatePool(ctx, p, prev); err != nil {
			return poolWriteError(cur, err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.PoolAvailable.WithLabelValues(string(cur)).Set(float64(out.Available()))
	l.logger.Info("pool replenished", zap.String("currency", string(cur)), zap.Int64("amount", amount))
	return out, nil
}

// Wallet returns every configured currency's balance for userID, including
// zero rows for currencies the user never touched.
func (l *Ledger) Wallet(ctx context.Context, userID string) ([]*Balance, error) {
	stored, err := l.store.ListBalances(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	byCur := make(map[currency.Symbol]*Balance, len(stored))
	for _, b := range stored {
		byCur[b.Currency] = b
	}
	out := make([]*Balance, 0, len(l.registry.Symbols()))
	for _, sym := range l.registry.Symbols() {
		if b, ok := byCur[sym]; ok {
			out = append(out, b)
			continue
		}
		out = append(out, &Balance{UserID: userID, Currency: sym})
	}
	return out, nil
}
