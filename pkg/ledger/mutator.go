package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/oklog/ulid/v2"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/currency"
)

type balanceState struct {
	bal   *Balance
	dirty bool
}

type poolState struct {
	pool  *Pool
	prev  int64
	dirty bool
}

// Mutator stages changes for one user inside an Update call. Sub-balance
// checks happen as each change is staged; whole-record checks run at commit.
type Mutator struct {
	l        *Ledger
	userID   string
	locked   map[currency.Symbol]bool
	balances map[currency.Symbol]*balanceState
	pools    map[currency.Symbol]*poolState
	entries  []*Entry
	hooks    []func()
}

func newMutator(l *Ledger, userID string, pools []currency.Symbol) *Mutator {
	locked := make(map[currency.Symbol]bool, len(pools))
	for _, c := range pools {
		locked[c] = true
	}
	return &Mutator{
		l:        l,
		userID:   userID,
		locked:   locked,
		balances: make(map[currency.Symbol]*balanceState),
		pools:    make(map[currency.Symbol]*poolState),
	}
}

// UserID returns the user being mutated.
func (m *Mutator) UserID() string { return m.userID }

// AfterCommit registers fn to run once the update has committed.
func (m *Mutator) AfterCommit(fn func()) {
	m.hooks = append(m.hooks, fn)
}

func (m *Mutator) balance(ctx context.Context, cur currency.Symbol) (*balanceState, error) {
	if bs, ok := m.balances[cur]; ok {
		return bs, nil
	}
	if _, err := m.l.registry.Get(cur); err != nil {
		return nil, apperrors.InvalidInputError(err, fmt.Sprintf("unknown currency %s", cur))
	}
	b, err := m.l.store.LockBalance(ctx, m.userID, cur)
	if err != nil {
		return nil, fmt.Errorf("failed to lock balance: %w", err)
	}
	bs := &balanceState{bal: b}
	m.balances[cur] = bs
	return bs, nil
}

func (m *Mutator) pool(ctx context.Context, cur currency.Symbol) (*poolState, error) {
	if ps, ok := m.pools[cur]; ok {
		return ps, nil
	}
	if !m.locked[cur] {
		return nil, apperrors.InvariantViolationError(nil, fmt.Sprintf("pool %s accessed without its lock", cur))
	}
	p, err := m.l.store.GetPool(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("failed to get pool %s: %w", cur, err)
	}
	ps := &poolState{pool: p, prev: p.Version}
	m.pools[cur] = ps
	return ps, nil
}

// Balance returns a copy of the staged balance for cur.
func (m *Mutator) Balance(ctx context.Context, cur currency.Symbol) (Balance, error) {
	bs, err := m.balance(ctx, cur)
	if err != nil {
		return Balance{}, err
	}
	return *bs.bal, nil
}

// Pool returns a copy of the staged pool for cur. The pool must have been
// named when the update started.
func (m *Mutator) Pool(ctx context.Context, cur currency.Symbol) (Pool, error) {
	ps, err := m.pool(ctx, cur)
	if err != nil {
		return Pool{}, err
	}
	return *ps.pool, nil
}

// Credit stages an addition to one sub-balance.
func (m *Mutator) Credit(ctx context.Context, cur currency.Symbol, sub SubBalance, amount int64, cause Cause, ref string) error {
	if err := positive(amount); err != nil {
		return err
	}
	return m.apply(ctx, cur, sub, amount, cause, ref)
}

// Debit stages a subtraction from one sub-balance.
func (m *Mutator) Debit(ctx context.Context, cur currency.Symbol, sub SubBalance, amount int64, cause Cause, ref string) error {
	if err := positive(amount); err != nil {
		return err
	}
	return m.apply(ctx, cur, sub, -amount, cause, ref)
}

// Move stages a transfer between two sub-balances of the same currency.
func (m *Mutator) Move(ctx context.Context, cur currency.Symbol, from, to SubBalance, amount int64, cause Cause, ref string) error {
	if from == to {
		return apperrors.InvalidInputError(nil, "source and destination sub-balance must differ")
	}
	if err := m.Debit(ctx, cur, from, amount, cause, ref); err != nil {
		return err
	}
	return m.Credit(ctx, cur, to, amount, cause, ref)
}

// ReleaseLiquidity moves committed funds back to deposit when the pool has
// that much available.
func (m *Mutator) ReleaseLiquidity(ctx context.Context, cur currency.Symbol, amount int64, ref string) error {
	if err := positive(amount); err != nil {
		return err
	}
	ps, err := m.pool(ctx, cur)
	if err != nil {
		return err
	}
	if ps.pool.Available() < amount {
		return apperrors.InsufficientLiquidityError(nil,
			fmt.Sprintf("only %d %s of pool liquidity is free to release", ps.pool.Available(), cur))
	}
	return m.Move(ctx, cur, SubLiquidity, SubDeposit, amount, CauseLiquidityRelease, ref)
}

// EarmarkWithdrawal debits sub and holds amount in pool escrow.
func (m *Mutator) EarmarkWithdrawal(ctx context.Context, cur currency.Symbol, sub SubBalance, amount int64, ref string) error {
	if !sub.Withdrawable() {
		return apperrors.InvalidInputError(nil, fmt.Sprintf("cannot withdraw from %s", sub))
	}
	if err := positive(amount); err != nil {
		return err
	}
	ps, err := m.pool(ctx, cur)
	if err != nil {
		return err
	}
	if ps.pool.Available() < amount {
		return apperrors.InsufficientLiquidityError(nil,
			fmt.Sprintf("withdrawal of %d exceeds available %s liquidity %d", amount, cur, ps.pool.Available()))
	}
	if err := m.apply(ctx, cur, sub, -amount, CauseWithdrawReserve, ref); err != nil {
		return err
	}
	ps.pool.Escrow += amount
	ps.dirty = true
	return nil
}

// RefundWithdrawal returns an earmarked amount to sub and releases escrow.
func (m *Mutator) RefundWithdrawal(ctx context.Context, cur currency.Symbol, sub SubBalance, amount int64, ref string) error {
	if err := positive(amount); err != nil {
		return err
	}
	ps, err := m.pool(ctx, cur)
	if err != nil {
		return err
	}
	if ps.pool.Escrow < amount {
		return apperrors.InvariantViolationError(nil, fmt.Sprintf("%s escrow %d below refund %d", cur, ps.pool.Escrow, amount))
	}
	if err := m.apply(ctx, cur, sub, amount, CauseWithdrawRefund, ref); err != nil {
		return err
	}
	ps.pool.Escrow -= amount
	ps.dirty = true
	return nil
}

// SettleWithdrawal moves an earmarked amount from escrow to paid out and
// journals a zero-amount finalize marker against sub.
func (m *Mutator) SettleWithdrawal(ctx context.Context, cur currency.Symbol, sub SubBalance, amount int64, ref string) error {
	if err := positive(amount); err != nil {
		return err
	}
	ps, err := m.pool(ctx, cur)
	if err != nil {
		return err
	}
	if ps.pool.Escrow < amount {
		return apperrors.InvariantViolationError(nil, fmt.Sprintf("%s escrow %d below settlement %d", cur, ps.pool.Escrow, amount))
	}
	if _, err := m.balance(ctx, cur); err != nil {
		return err
	}
	ps.pool.Escrow -= amount
	ps.pool.PaidOut += amount
	ps.dirty = true
	m.journal(cur, sub, 0, CauseWithdrawFinalize, ref)
	return nil
}

func (m *Mutator) apply(ctx context.Context, cur currency.Symbol, sub SubBalance, delta int64, cause Cause, ref string) error {
	if _, err := ParseSubBalance(string(sub)); err != nil {
		return apperrors.InvalidInputError(err, err.Error())
	}
	bs, err := m.balance(ctx, cur)
	if err != nil {
		return err
	}
	next, ok := addChecked(bs.bal.Get(sub), delta)
	if !ok {
		return apperrors.InvalidInputError(nil, "amount overflows balance")
	}
	if next < 0 {
		return apperrors.InsufficientFundsError(nil, fmt.Sprintf("insufficient %s %s balance", cur, sub))
	}

	if sub == SubLiquidity {
		ps, err := m.pool(ctx, cur)
		if err != nil {
			return err
		}
		pb, ok := addChecked(ps.pool.Balance, delta)
		if !ok {
			return apperrors.InvalidInputError(nil, "amount overflows pool")
		}
		ps.pool.Balance = pb
		ps.dirty = true
	}

	bs.bal.set(sub, next)
	bs.dirty = true
	m.journal(cur, sub, delta, cause, ref)
	return nil
}

func (m *Mutator) journal(cur currency.Symbol, sub SubBalance, amount int64, cause Cause, ref string) {
	m.entries = append(m.entries, &Entry{
		ID:         ulid.Make().String(),
		UserID:     m.userID,
		Currency:   cur,
		SubBalance: sub,
		Amount:     amount,
		Cause:      cause,
		Ref:        ref,
		CreatedAt:  m.l.now(),
	})
}

func (m *Mutator) commit(ctx context.Context) error {
	now := m.l.now()
	for cur, bs := range m.balances {
		if !bs.dirty {
			continue
		}
		for _, sub := range SubBalances {
			if bs.bal.Get(sub) < 0 {
				return apperrors.InvariantViolationError(nil, fmt.Sprintf("%s %s balance negative before commit", cur, sub))
			}
		}
		bs.bal.Version++
		bs.bal.UpdatedAt = now
		if err := m.l.store.SaveBalance(ctx, bs.bal); err != nil {
			return fmt.Errorf("failed to save balance: %w", err)
		}
	}

	for cur, ps := range m.pools {
		if !ps.dirty {
			continue
		}
		p := ps.pool
		if p.Balance < 0 || p.Escrow < 0 || p.PaidOut < 0 || p.Available() < 0 {
			return apperrors.InvariantViolationError(nil,
				fmt.Sprintf("%s pool inconsistent: balance=%d escrow=%d paid_out=%d", cur, p.Balance, p.Escrow, p.PaidOut))
		}
		p.Version = ps.prev + 1
		p.UpdatedAt = now
		if err := m.l.store.UpdatePool(ctx, p, ps.prev); err != nil {
			return poolWriteError(cur, err)
		}
	}

	if len(m.entries) > 0 {
		if err := m.l.store.AppendJournal(ctx, m.entries); err != nil {
			return fmt.Errorf("failed to append journal: %w", err)
		}
	}
	return nil
}

func poolWriteError(cur currency.Symbol, err error) error {
	if errors.Is(err, ErrConflict) {
		return apperrors.ConflictError(err, fmt.Sprintf("%s pool changed concurrently", cur))
	}
	return fmt.Errorf("failed to update pool %s: %w", cur, err)
}

func positive(amount int64) error {
	if amount <= 0 {
		return apperrors.InvalidInputError(nil, "amount must be positive")
	}
	return nil
}

func addChecked(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}
