package api_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/pkg/api"
	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/audit"
	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/conversion"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/deposit"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
	"github.com/chainsafe/custody-ledger/pkg/price"
	"github.com/chainsafe/custody-ledger/pkg/settlement"
	"github.com/chainsafe/custody-ledger/pkg/store/memstore"
	"github.com/chainsafe/custody-ledger/pkg/withdrawal"
)

type pricesFunc func(ctx context.Context) (*price.Snapshot, error)

func (f pricesFunc) Snapshot(ctx context.Context) (*price.Snapshot, error) { return f(ctx) }

type loseEverything struct{}

func (loseEverything) Resolve(context.Context, *settlement.Bet) (*settlement.Resolution, error) {
	return &settlement.Resolution{Outcome: settlement.OutcomeLoss}, nil
}

type fixture struct {
	store       *memstore.Store
	ledger      *ledger.Ledger
	deps        api.Deps
	withdrawals *fakeWithdrawals
	deposits    *fakeDeposits
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := currency.NewRegistryFrom(
		currency.Currency{Symbol: "CRT", Decimals: 9, Chain: currency.ChainSolana},
		currency.Currency{Symbol: "DOGE", Decimals: 8, Chain: currency.ChainDogecoin},
	)
	st := memstore.New()
	l := ledger.New(st, reg, zap.NewNop())

	snap := &price.Snapshot{
		Prices:    map[currency.Symbol]price.Price{"CRT": price.Ratio(1, 100), "DOGE": price.Ratio(1, 10)},
		FetchedAt: time.Now(),
	}
	conv := conversion.NewEngine(l, pricesFunc(func(context.Context) (*price.Snapshot, error) { return snap, nil }), st, zap.NewNop())
	games, err := settlement.NewEngine(config.SettlementConfig{SavingsBps: 5000, LiquidityBps: 5000}, st, l, loseEverything{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() failed: %v", err)
	}

	f := &fixture{store: st, ledger: l, withdrawals: &fakeWithdrawals{}, deposits: &fakeDeposits{}}
	f.deps = api.Deps{
		Ledger:      l,
		Journal:     st,
		Converter:   conv,
		Withdrawals: f.withdrawals,
		Games:       games,
		Addresses: &fakeAddresses{ReceiveAddressFn: func(_ context.Context, userID string, sym currency.Symbol) (*deposit.AddressInfo, error) {
			return &deposit.AddressInfo{Currency: sym, Chain: currency.ChainSolana, Address: "addr-" + userID, MinDeposit: 10}, nil
		}},
		Deposits: f.deposits,
		Auditor:  audit.New(st, zap.NewNop()),
	}

	if err := l.Credit(context.Background(), "u1", "CRT", ledger.SubDeposit, 10_000, ledger.CauseDeposit, "T1"); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}
	return f
}

func (f *fixture) service() api.Service { return api.NewLog(api.NewService(f.deps, zap.NewNop()), zap.NewNop()) }

func (f *fixture) admin() api.Admin { return api.NewAdmin(f.deps, zap.NewNop()) }

func balanceOf(t *testing.T, w *api.WalletResponse, cur string) *api.BalanceView {
	t.Helper()
	for _, b := range w.Balances {
		if b.Currency == cur {
			return b
		}
	}
	t.Fatalf("no %s balance in %+v", cur, w)
	return nil
}

func TestService_WalletIncludesPoolHint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.service().Liquidity(ctx, "u1", &api.LiquidityRequest{Currency: "crt", Amount: 4_000, Direction: api.DirectionReserve})
	if err != nil {
		t.Fatalf("Liquidity() failed: %v", err)
	}
	b := balanceOf(t, resp, "CRT")
	if b.Deposit != 6_000 || b.Liquidity != 4_000 || b.PoolAvailable != 4_000 || b.Total != 10_000 {
		t.Fatalf("unexpected balance %+v", b)
	}
	if d := balanceOf(t, resp, "DOGE"); d.Total != 0 || d.Decimals != 8 {
		t.Fatalf("expected an empty DOGE row, got %+v", d)
	}

	if _, err := f.service().Liquidity(ctx, "u1", &api.LiquidityRequest{Currency: "CRT", Amount: 4_001, Direction: api.DirectionRelease}); !apperrors.IsKind(err, apperrors.KindInsufficientLiquidity) {
		t.Fatalf("expected InsufficientLiquidity, got %v", err)
	}
}

func TestService_ConvertAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.service()

	rec, err := svc.Convert(ctx, "u1", &api.ConvertRequest{From: "CRT", To: "DOGE", Amount: 1_000})
	if err != nil {
		t.Fatalf("Convert() failed: %v", err)
	}
	if rec.ID == "" || rec.FromAmount != 1_000 || rec.ToAmount <= 0 {
		t.Fatalf("unexpected conversion %+v", rec)
	}
	history, err := svc.Conversions(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("Conversions() failed: %v", err)
	}
	if len(history) != 1 || history[0].ID != rec.ID {
		t.Fatalf("unexpected history %+v", history)
	}

	if _, err := svc.Convert(ctx, "u1", &api.ConvertRequest{From: "XYZ", To: "DOGE", Amount: 1}); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected InvalidInput for an unknown currency, got %v", err)
	}
}

func TestService_BetLossAndJournalPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.service()

	bet, err := svc.PlaceBet(ctx, "u1", &api.BetRequest{Game: "dice", Currency: "CRT", Stake: 1_000})
	if err != nil {
		t.Fatalf("PlaceBet() failed: %v", err)
	}
	if bet.Outcome != string(settlement.OutcomeLoss) || bet.SavingsShare != 500 || bet.LiquidityShare != 500 {
		t.Fatalf("unexpected bet %+v", bet)
	}

	first, err := svc.Journal(ctx, "u1", 2, "")
	if err != nil {
		t.Fatalf("Journal() failed: %v", err)
	}
	if len(first.Entries) != 2 || first.Next == "" {
		t.Fatalf("expected a full first page, got %+v", first)
	}
	second, err := svc.Journal(ctx, "u1", 50, first.Next)
	if err != nil {
		t.Fatalf("Journal() failed: %v", err)
	}
	if len(second.Entries) == 0 || second.Next != "" {
		t.Fatalf("unexpected second page %+v", second)
	}
	for _, e := range second.Entries {
		if e.ID >= first.Next {
			t.Fatalf("entry %s is not older than the cursor %s", e.ID, first.Next)
		}
	}
}

func TestService_WithdrawalBelongsToCaller(t *testing.T) {
	f := newFixture(t)
	f.withdrawals.GetFn = func(context.Context, string) (*withdrawal.Withdrawal, error) {
		return &withdrawal.Withdrawal{ID: "w1", UserID: "u2", State: withdrawal.StateReserved}, nil
	}

	if _, err := f.service().Withdrawal(context.Background(), "u1", "w1"); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected NotFound for another user's withdrawal, got %v", err)
	}
}

func TestService_WithdrawDefaultsToDeposit(t *testing.T) {
	f := newFixture(t)
	var got withdrawal.Request
	f.withdrawals.RequestFn = func(_ context.Context, req withdrawal.Request) (*withdrawal.Withdrawal, error) {
		got = req
		return &withdrawal.Withdrawal{ID: "w1", UserID: req.UserID, Currency: req.Currency, Amount: req.Amount, SubBalance: req.SubBalance, State: withdrawal.StateReserved}, nil
	}

	resp, err := f.service().Withdraw(context.Background(), "u1", &api.WithdrawRequest{Currency: "crt", Amount: 50, DestinationAddress: "  Dest  "})
	if err != nil {
		t.Fatalf("Withdraw() failed: %v", err)
	}
	if got.SubBalance != ledger.SubDeposit || got.Currency != "CRT" || got.Destination != "Dest" {
		t.Fatalf("unexpected orchestrator request %+v", got)
	}
	if resp.State != string(withdrawal.StateReserved) || resp.Broadcast {
		t.Fatalf("unexpected response %+v", resp)
	}

	if _, err := f.service().Withdraw(context.Background(), "u1", &api.WithdrawRequest{Currency: "CRT", Amount: 50, DestinationAddress: "D", SubBalance: "pocket"}); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected InvalidInput for an unknown sub-balance, got %v", err)
	}
}

func TestService_ManualVerifyKeepsDepositsOnCooldown(t *testing.T) {
	f := newFixture(t)
	f.deposits.ManualVerifyFn = func(_ context.Context, req deposit.VerifyRequest) ([]*deposit.Deposit, error) {
		if req.TxID != "abc" || req.Currency != "DOGE" {
			t.Errorf("unexpected verify request %+v", req)
		}
		return []*deposit.Deposit{{TxID: "abc", State: deposit.StateSeen}}, apperrors.CooldownError(nil, "cooling down")
	}

	out, err := f.service().ManualVerify(context.Background(), "u1", &api.ManualVerifyRequest{Currency: "doge", TxID: " abc "})
	if !apperrors.IsKind(err, apperrors.KindCooldown) {
		t.Fatalf("expected Cooldown, got %v", err)
	}
	if len(out) != 1 || out[0].TxID != "abc" {
		t.Fatalf("expected the blocked deposit to be reported, got %+v", out)
	}
}

func TestAdmin_AdjustAndAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.admin()

	b, err := admin.Adjust(ctx, &api.AdjustRequest{UserID: "u1", Currency: "CRT", SubBalance: "liquidity", Amount: 300, Reason: "ops-42"})
	if err != nil {
		t.Fatalf("Adjust() failed: %v", err)
	}
	if b.Liquidity != 300 || b.PoolAvailable != 300 {
		t.Fatalf("unexpected balance %+v", b)
	}
	if _, err := admin.Adjust(ctx, &api.AdjustRequest{UserID: "u1", Currency: "CRT", SubBalance: "winnings", Amount: -1, Reason: "ops-43"}); !apperrors.IsKind(err, apperrors.KindInsufficientFunds) {
		t.Fatalf("expected InsufficientFunds, got %v", err)
	}

	report, err := admin.Audit(ctx)
	if err != nil {
		t.Fatalf("Audit() failed: %v", err)
	}
	if !report.OK || report.Pools != 1 {
		t.Fatalf("expected a clean audit with one pool, got %+v", report)
	}

	if _, err := admin.Replenish(ctx, "CRT", 1); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected InvalidInput when nothing was paid out, got %v", err)
	}
}
