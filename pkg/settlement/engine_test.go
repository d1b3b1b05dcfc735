package settlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/events"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
	"github.com/chainsafe/custody-ledger/pkg/settlement"
	"github.com/chainsafe/custody-ledger/pkg/store/memstore"
)

const crt currency.Symbol = "CRT"

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type resolverFunc func(ctx context.Context, b *settlement.Bet) (*settlement.Resolution, error)

func (f resolverFunc) Resolve(ctx context.Context, b *settlement.Bet) (*settlement.Resolution, error) {
	return f(ctx, b)
}

func fixed(outcome settlement.Outcome, payout int64) resolverFunc {
	return func(context.Context, *settlement.Bet) (*settlement.Resolution, error) {
		return &settlement.Resolution{Outcome: outcome, Payout: payout}, nil
	}
}

type fixture struct {
	ledger    *ledger.Ledger
	engine    *settlement.Engine
	now       time.Time
	published *events.Recorder
}

func newFixture(t *testing.T, cfg config.SettlementConfig, resolver settlement.Resolver) *fixture {
	t.Helper()
	reg := currency.NewRegistryFrom(currency.Currency{Symbol: crt, Decimals: 9, Chain: currency.ChainSolana})
	st := memstore.New()
	f := &fixture{now: t0, published: &events.Recorder{}}
	clock := func() time.Time { return f.now }
	f.ledger = ledger.New(st, reg, zap.NewNop(), ledger.WithClock(clock))

	if cfg.SavingsBps == 0 && cfg.LiquidityBps == 0 {
		cfg.SavingsBps, cfg.LiquidityBps = 5000, 5000
	}
	engine, err := settlement.NewEngine(cfg, st, f.ledger, resolver, zap.NewNop(),
		settlement.WithClock(clock), settlement.WithPublisher(f.published))
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	f.engine = engine

	if err := f.ledger.Credit(context.Background(), "u1", crt, ledger.SubDeposit, 5_000_000_000, ledger.CauseDeposit, "T1"); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}
	return f
}

func (f *fixture) balance(t *testing.T) *ledger.Balance {
	t.Helper()
	wallet, err := f.ledger.Wallet(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Wallet() failed: %v", err)
	}
	for _, b := range wallet {
		if b.Currency == crt {
			return b
		}
	}
	t.Fatal("CRT balance missing")
	return nil
}

func (f *fixture) pool(t *testing.T) *ledger.Pool {
	t.Helper()
	p, err := f.ledger.Pool(context.Background(), crt)
	if err != nil {
		t.Fatalf("Pool() failed: %v", err)
	}
	return p
}

func TestPlaceBet_LossSplitsStake(t *testing.T) {
	f := newFixture(t, config.SettlementConfig{}, fixed(settlement.OutcomeLoss, 0))

	bet, err := f.engine.PlaceBet(context.Background(), settlement.BetRequest{
		UserID: "u1", Game: "dice", Currency: crt, Stake: 1_000_000_000,
	})
	if err != nil {
		t.Fatalf("PlaceBet() failed: %v", err)
	}
	if bet.State != settlement.StateSettled || bet.Outcome != settlement.OutcomeLoss {
		t.Fatalf("expected settled loss, got %s %s", bet.State, bet.Outcome)
	}
	if bet.SavingsShare != 500_000_000 || bet.LiquidityShare != 500_000_000 {
		t.Fatalf("unexpected split %d/%d", bet.SavingsShare, bet.LiquidityShare)
	}

	b := f.balance(t)
	if b.Deposit != 4_000_000_000 || b.Gaming != 0 || b.Savings != 500_000_000 || b.Liquidity != 500_000_000 {
		t.Fatalf("unexpected balance after loss: %+v", b)
	}
	if p := f.pool(t); p.Balance != 500_000_000 || p.Available() != 500_000_000 {
		t.Fatalf("expected pool to grow by the liquidity share, got %+v", p)
	}
	if subjects := f.published.Subjects(); len(subjects) != 1 || subjects[0] != events.SubjectBetSettled {
		t.Fatalf("expected one bet event, got %v", subjects)
	}
}

func TestPlaceBet_UnevenSplitKeepsRemainderInPool(t *testing.T) {
	f := newFixture(t, config.SettlementConfig{SavingsBps: 3333, LiquidityBps: 6667}, fixed(settlement.OutcomeLoss, 0))

	bet, err := f.engine.PlaceBet(context.Background(), settlement.BetRequest{
		UserID: "u1", Game: "dice", Currency: crt, Stake: 10,
	})
	if err != nil {
		t.Fatalf("PlaceBet() failed: %v", err)
	}
	if bet.SavingsShare != 3 || bet.LiquidityShare != 7 {
		t.Fatalf("expected 3/7 split, got %d/%d", bet.SavingsShare, bet.LiquidityShare)
	}
	if b := f.balance(t); b.Total() != 5_000_000_000 {
		t.Fatalf("settlement changed the total: %d", b.Total())
	}
}

func TestPlaceBet_WinCreditsWinnings(t *testing.T) {
	f := newFixture(t, config.SettlementConfig{}, fixed(settlement.OutcomeWin, 2_500_000_000))

	bet, err := f.engine.PlaceBet(context.Background(), settlement.BetRequest{
		UserID: "u1", Game: "slots", Currency: crt, Stake: 1_000_000_000,
	})
	if err != nil {
		t.Fatalf("PlaceBet() failed: %v", err)
	}
	if bet.Payout != 2_500_000_000 {
		t.Fatalf("expected payout 2500000000, got %d", bet.Payout)
	}
	b := f.balance(t)
	if b.Deposit != 5_000_000_000 || b.Winnings != 1_500_000_000 || b.Gaming != 0 {
		t.Fatalf("unexpected balance after win: %+v", b)
	}
}

func TestPlaceBet_PushReturnsStake(t *testing.T) {
	f := newFixture(t, config.SettlementConfig{}, fixed(settlement.OutcomePush, 0))

	if _, err := f.engine.PlaceBet(context.Background(), settlement.BetRequest{
		UserID: "u1", Game: "roulette", Currency: crt, Stake: 1_000_000_000,
	}); err != nil {
		t.Fatalf("PlaceBet() failed: %v", err)
	}
	b := f.balance(t)
	if b.Deposit != 5_000_000_000 || b.Gaming != 0 || b.Savings != 0 {
		t.Fatalf("push should leave balances unchanged: %+v", b)
	}
}

func TestPlaceBet_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  settlement.BetRequest
		kind apperrors.Kind
	}{
		{"zero stake", settlement.BetRequest{Game: "dice", Currency: crt}, apperrors.KindInvalidInput},
		{"no game", settlement.BetRequest{Currency: crt, Stake: 1}, apperrors.KindInvalidInput},
		{"unknown currency", settlement.BetRequest{Game: "dice", Currency: "XYZ", Stake: 1}, apperrors.KindInvalidInput},
		{"stake above deposit", settlement.BetRequest{Game: "dice", Currency: crt, Stake: 5_000_000_001}, apperrors.KindInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, config.SettlementConfig{}, fixed(settlement.OutcomeLoss, 0))
			tt.req.UserID = "u1"
			if _, err := f.engine.PlaceBet(context.Background(), tt.req); !apperrors.IsKind(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
			if b := f.balance(t); b.Deposit != 5_000_000_000 {
				t.Fatalf("rejected bet changed the balance: %+v", b)
			}
		})
	}
}

func TestPlaceBet_ResolverFailureVoidsBet(t *testing.T) {
	f := newFixture(t, config.SettlementConfig{}, resolverFunc(func(context.Context, *settlement.Bet) (*settlement.Resolution, error) {
		return nil, errors.New("connection refused")
	}))

	_, err := f.engine.PlaceBet(context.Background(), settlement.BetRequest{
		UserID: "u1", Game: "dice", Currency: crt, Stake: 1_000_000_000,
	})
	if !apperrors.IsKind(err, apperrors.KindProviderTransient) {
		t.Fatalf("expected ProviderTransient, got %v", err)
	}
	if b := f.balance(t); b.Deposit != 5_000_000_000 || b.Gaming != 0 {
		t.Fatalf("voided bet must return the stake: %+v", b)
	}
	history, err := f.engine.History(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(history) != 1 || history[0].State != settlement.StateVoid {
		t.Fatalf("expected one void bet, got %+v", history)
	}
}

func TestSettle_RejectsSecondSettlement(t *testing.T) {
	f := newFixture(t, config.SettlementConfig{}, fixed(settlement.OutcomeLoss, 0))
	bet, err := f.engine.PlaceBet(context.Background(), settlement.BetRequest{
		UserID: "u1", Game: "dice", Currency: crt, Stake: 100,
	})
	if err != nil {
		t.Fatalf("PlaceBet() failed: %v", err)
	}
	if _, err := f.engine.Settle(context.Background(), bet.ID, settlement.OutcomeWin, 200); !apperrors.IsKind(err, apperrors.KindConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if _, err := f.engine.Settle(context.Background(), "missing", settlement.OutcomeWin, 200); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestReleaseSavings_HonoursLock(t *testing.T) {
	f := newFixture(t, config.SettlementConfig{SavingsLock: 24 * time.Hour}, fixed(settlement.OutcomeLoss, 0))
	ctx := context.Background()
	if _, err := f.engine.PlaceBet(ctx, settlement.BetRequest{UserID: "u1", Game: "dice", Currency: crt, Stake: 1_000}); err != nil {
		t.Fatalf("PlaceBet() failed: %v", err)
	}

	f.now = t0.Add(24*time.Hour - time.Second)
	if err := f.engine.ReleaseSavings(ctx, "u1", crt, 500); !apperrors.IsKind(err, apperrors.KindCooldown) {
		t.Fatalf("expected Cooldown inside the lock, got %v", err)
	}

	f.now = t0.Add(24 * time.Hour)
	if err := f.engine.ReleaseSavings(ctx, "u1", crt, 600); !apperrors.IsKind(err, apperrors.KindInsufficientFunds) {
		t.Fatalf("expected InsufficientFunds above savings, got %v", err)
	}
	if err := f.engine.ReleaseSavings(ctx, "u1", crt, 500); err != nil {
		t.Fatalf("ReleaseSavings() failed: %v", err)
	}
	if b := f.balance(t); b.Savings != 0 || b.Deposit != 5_000_000_000-500 {
		t.Fatalf("unexpected balance after release: %+v", b)
	}
}

func TestNewEngine_RejectsBadSplit(t *testing.T) {
	_, err := settlement.NewEngine(config.SettlementConfig{SavingsBps: 6000, LiquidityBps: 5000}, memstore.New(), nil, nil, zap.NewNop())
	if err == nil {
		t.Fatal("expected an error for a split above 10000 bps")
	}
}

func TestPlaceBet_WinNotAboveStakeVoidsBet(t *testing.T) {
	f := newFixture(t, config.SettlementConfig{}, fixed(settlement.OutcomeWin, 1_000_000_000))

	_, err := f.engine.PlaceBet(context.Background(), settlement.BetRequest{
		UserID: "u1", Game: "dice", Currency: crt, Stake: 1_000_000_000,
	})
	if err == nil {
		t.Fatal("expected a win paying only the stake to be refused")
	}
	if b := f.balance(t); b.Deposit != 5_000_000_000 || b.Gaming != 0 {
		t.Fatalf("stake must return to deposit: %+v", b)
	}
	history, err := f.engine.History(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(history) != 1 || history[0].State != settlement.StateVoid {
		t.Fatalf("expected one void bet, got %+v", history)
	}
}

// saveFailingStore fails bet saves while failing is set.
type saveFailingStore struct {
	*memstore.Store
	failing bool
}

func (s *saveFailingStore) SaveBet(ctx context.Context, b *settlement.Bet, expect settlement.State) error {
	if s.failing {
		return errors.New("database unavailable")
	}
	return s.Store.SaveBet(ctx, b, expect)
}

func TestVoidStale_ReturnsStakeOfOpenBets(t *testing.T) {
	ctx := context.Background()
	reg := currency.NewRegistryFrom(currency.Currency{Symbol: crt, Decimals: 9, Chain: currency.ChainSolana})
	st := &saveFailingStore{Store: memstore.New(), failing: true}
	now := t0
	clock := func() time.Time { return now }
	l := ledger.New(st.Store, reg, zap.NewNop(), ledger.WithClock(clock))
	engine, err := settlement.NewEngine(config.SettlementConfig{SavingsBps: 5000, LiquidityBps: 5000, StaleAfter: 10 * time.Minute},
		st, l, fixed(settlement.OutcomeLoss, 0), zap.NewNop(), settlement.WithClock(clock))
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}
	if err := l.Credit(ctx, "u1", crt, ledger.SubDeposit, 1_000, ledger.CauseDeposit, "T1"); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}

	if _, err := engine.PlaceBet(ctx, settlement.BetRequest{UserID: "u1", Game: "dice", Currency: crt, Stake: 400}); err == nil {
		t.Fatal("expected settlement to fail while saves fail")
	}
	wallet, _ := l.Wallet(ctx, "u1")
	if wallet[0].Gaming != 400 {
		t.Fatalf("expected the stake held in gaming, got %+v", wallet[0])
	}

	st.failing = false
	if n, err := engine.VoidStale(ctx); err != nil || n != 0 {
		t.Fatalf("expected a fresh bet to be left alone, got %d, %v", n, err)
	}

	now = t0.Add(10*time.Minute + time.Second)
	n, err := engine.VoidStale(ctx)
	if err != nil {
		t.Fatalf("VoidStale() failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one voided bet, got %d", n)
	}
	wallet, _ = l.Wallet(ctx, "u1")
	if b := wallet[0]; b.Gaming != 0 || b.Deposit != 1_000 {
		t.Fatalf("stale bet must return its stake: %+v", b)
	}
	bets, err := engine.History(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("History() failed: %v", err)
	}
	if len(bets) != 1 || bets[0].State != settlement.StateVoid {
		t.Fatalf("expected the bet voided, got %+v", bets)
	}
}
