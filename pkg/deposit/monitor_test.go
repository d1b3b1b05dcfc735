package deposit_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/deposit"
	"github.com/chainsafe/custody-ledger/pkg/events"
	"github.com/chainsafe/custody-ledger/pkg/keys"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
	"github.com/chainsafe/custody-ledger/pkg/provider"
	"github.com/chainsafe/custody-ledger/pkg/store/memstore"
)

const (
	usdc currency.Symbol = "USDC"
	crt  currency.Symbol = "CRT"
	doge currency.Symbol = "DOGE"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memstore.Store
	ledger    *ledger.Ledger
	sol       *fakeAdapter
	doge      *fakeAdapter
	book      *deposit.AddressBook
	monitor   *deposit.Monitor
	clock     *clock
	cipher    keys.KeyCipher
	published *events.Recorder
}

// newFixture builds a monitor over a fresh memstore; wrap, when set, decorates
// the deposit store the monitor sees.
func newFixture(t *testing.T, wrap func(*memstore.Store) deposit.Store) *fixture {
	t.Helper()
	reg := currency.NewRegistryFrom(
		currency.Currency{Symbol: usdc, Decimals: 6, Chain: currency.ChainSolana, AssetID: "mint", PerTxCap: 1e12, DailyCap: 1e13, MinConfirmations: 12},
		currency.Currency{Symbol: crt, Decimals: 9, Chain: currency.ChainSolana, AssetID: "crt-mint", PerTxCap: 1e16, DailyCap: 1e17},
		currency.Currency{Symbol: doge, Decimals: 8, Chain: currency.ChainDogecoin, AssetID: "native", PerTxCap: 1e12, DailyCap: 1e13, MinConfirmations: 6, MinDeposit: 100_000_000},
	)
	mem := memstore.New()
	var st deposit.Store = mem
	if wrap != nil {
		st = wrap(mem)
	}
	clk := &clock{now: t0}
	l := ledger.New(mem, reg, zap.NewNop(), ledger.WithClock(clk.Now))

	sol := newFakeAdapter(currency.ChainSolana)
	dg := newFakeAdapter(currency.ChainDogecoin)
	adapters := provider.NewRegistry(sol, dg)

	cipher, err := keys.NewMasterKeyCipher(bytes.Repeat([]byte{7}, 32))
	if err != nil {
		t.Fatalf("NewMasterKeyCipher() failed: %v", err)
	}

	rec := &events.Recorder{}
	cfg := config.DepositConfig{Cooldown: time.Hour, BackoffBase: time.Millisecond, BackoffMax: 10 * time.Millisecond}
	mon := deposit.NewMonitor(cfg, st, deposit.NewStoreCooldowns(st, cfg.Cooldown), l, adapters, zap.NewNop(),
		deposit.WithClock(clk.Now), deposit.WithPublisher(rec))

	return &fixture{
		store:     mem,
		ledger:    l,
		sol:       sol,
		doge:      dg,
		book:      deposit.NewAddressBook(st, reg, adapters, cipher, zap.NewNop()),
		monitor:   mon,
		clock:     clk,
		cipher:    cipher,
		published: rec,
	}
}

func (f *fixture) address(t *testing.T, userID string, sym currency.Symbol) string {
	t.Helper()
	info, err := f.book.ReceiveAddress(context.Background(), userID, sym)
	if err != nil {
		t.Fatalf("ReceiveAddress() failed: %v", err)
	}
	return info.Address
}

func (f *fixture) balance(t *testing.T, userID string, sym currency.Symbol) *ledger.Balance {
	t.Helper()
	wallet, err := f.ledger.Wallet(context.Background(), userID)
	if err != nil {
		t.Fatalf("Wallet() failed: %v", err)
	}
	for _, b := range wallet {
		if b.Currency == sym {
			return b
		}
	}
	t.Fatalf("currency %s missing", sym)
	return nil
}

func depositEntries(st *memstore.Store, txID string) int {
	n := 0
	for _, e := range st.Journal() {
		if e.Cause == ledger.CauseDeposit && e.Ref == txID {
			n++
		}
	}
	return n
}

func TestPoll_CreditsConfirmedDeposit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	addr := f.address(t, "u1", usdc)
	f.sol.add(addr, provider.Transfer{TxID: "T1", Amount: 100_000_000, Confirmations: 12})

	if err := f.monitor.Poll(ctx, usdc); err != nil {
		t.Fatalf("Poll() failed: %v", err)
	}

	d, err := f.store.GetDeposit(ctx, "T1")
	if err != nil {
		t.Fatalf("GetDeposit() failed: %v", err)
	}
	if d.State != deposit.StateCredited || d.CreditedAt == nil {
		t.Fatalf("expected credited deposit, got %+v", d)
	}
	if got := f.balance(t, "u1", usdc).Deposit; got != 100_000_000 {
		t.Fatalf("expected deposit balance 100000000, got %d", got)
	}
	if subjects := f.published.Subjects(); len(subjects) != 1 || subjects[0] != events.SubjectDepositCredited {
		t.Fatalf("expected one credited event, got %v", subjects)
	}

	cursor, _ := f.store.GetCursor(ctx, addr, usdc)
	if cursor != "T1" {
		t.Fatalf("expected cursor T1, got %q", cursor)
	}
}

func TestPoll_UnderConfirmedWaits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	addr := f.address(t, "u1", usdc)
	f.sol.add(addr, provider.Transfer{TxID: "T1", Amount: 5_000_000, Confirmations: 11})

	if err := f.monitor.Poll(ctx, usdc); err != nil {
		t.Fatalf("Poll() failed: %v", err)
	}
	if _, err := f.store.GetDeposit(ctx, "T1"); !errors.Is(err, deposit.ErrNotFound) {
		t.Fatalf("expected no record below the confirmation threshold, got %v", err)
	}
	if cursor, _ := f.store.GetCursor(ctx, addr, usdc); cursor != "" {
		t.Fatalf("cursor advanced past an unconfirmed transfer: %q", cursor)
	}

	f.sol.setConfirmations(addr, "T1", 12)
	if err := f.monitor.Poll(ctx, usdc); err != nil {
		t.Fatalf("Poll() failed: %v", err)
	}
	if got := f.balance(t, "u1", usdc).Deposit; got != 5_000_000 {
		t.Fatalf("expected 5000000 credited, got %d", got)
	}
}

// staleStore replays an old view of pending deposits, as a second monitor
// instance racing the first would see.
type staleStore struct {
	*memstore.Store
	pending []*deposit.Deposit
}

func (s *staleStore) ListDeposits(ctx context.Context, f deposit.Filter) ([]*deposit.Deposit, error) {
	if s.pending != nil && f.State == deposit.StateSeen {
		return s.pending, nil
	}
	return s.Store.ListDeposits(ctx, f)
}

func TestPoll_DoubleCreditPrevented(t *testing.T) {
	ctx := context.Background()
	var stale *staleStore
	f := newFixture(t, func(mem *memstore.Store) deposit.Store {
		stale = &staleStore{Store: mem}
		return stale
	})
	mem := f.store
	f.address(t, "u1", doge)

	var calls int
	f.doge.incoming = func(string, string) ([]provider.Transfer, error) {
		calls++
		if calls == 1 {
			return nil, provider.Transient(currency.ChainDogecoin, "incoming", errors.New("429 too many requests"))
		}
		return []provider.Transfer{{TxID: "T2", Amount: 1_000_000_000, Confirmations: 6, Cursor: "120"}}, nil
	}

	err := f.monitor.Poll(ctx, doge)
	if !provider.IsTransient(err) {
		t.Fatalf("expected transient error on first poll, got %v", err)
	}
	if got := f.balance(t, "u1", doge).Deposit; got != 0 {
		t.Fatalf("nothing should be credited after a failed poll, got %d", got)
	}

	if err := f.monitor.Poll(ctx, doge); err != nil {
		t.Fatalf("Poll() failed: %v", err)
	}
	seen, err := mem.GetDeposit(ctx, "T2")
	if err != nil {
		t.Fatalf("GetDeposit() failed: %v", err)
	}
	seen.State = deposit.StateSeen
	stale.pending = []*deposit.Deposit{seen}

	if err := f.monitor.Poll(ctx, doge); err != nil {
		t.Fatalf("replayed credit should be swallowed, got %v", err)
	}
	if got := f.balance(t, "u1", doge).Deposit; got != 1_000_000_000 {
		t.Fatalf("expected exactly one credit of 10 DOGE, got %d", got)
	}
	if n := depositEntries(mem, "T2"); n != 1 {
		t.Fatalf("expected one journal entry for T2, got %d", n)
	}
}

func TestPoll_BelowMinimumRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	addr := f.address(t, "u1", doge)
	f.doge.add(addr, provider.Transfer{TxID: "dust", Amount: 99_999_999, Confirmations: 10})

	if err := f.monitor.Poll(ctx, doge); err != nil {
		t.Fatalf("Poll() failed: %v", err)
	}
	d, err := f.store.GetDeposit(ctx, "dust")
	if err != nil {
		t.Fatalf("GetDeposit() failed: %v", err)
	}
	if d.State != deposit.StateRejected || d.Reason != deposit.ReasonBelowMinimum {
		t.Fatalf("expected rejected below_minimum, got %s %q", d.State, d.Reason)
	}
	if got := f.balance(t, "u1", doge).Deposit; got != 0 {
		t.Fatalf("rejected deposit was credited: %d", got)
	}
}

func TestPoll_CooldownBoundary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	addr := f.address(t, "u1", usdc)
	f.sol.add(addr, provider.Transfer{TxID: "A", Amount: 1_000_000, Confirmations: 20})

	if err := f.monitor.Poll(ctx, usdc); err != nil {
		t.Fatalf("Poll() failed: %v", err)
	}

	f.sol.add(addr, provider.Transfer{TxID: "B", Amount: 2_000_000, Confirmations: 20})
	f.clock.Set(t0.Add(time.Hour - time.Second))
	if err := f.monitor.Poll(ctx, usdc); err != nil {
		t.Fatalf("Poll() during cooldown should requeue silently, got %v", err)
	}
	d, _ := f.store.GetDeposit(ctx, "B")
	if d.State != deposit.StateSeen {
		t.Fatalf("expected B held in seen during cooldown, got %s", d.State)
	}

	_, err := f.monitor.ManualVerify(ctx, deposit.VerifyRequest{UserID: "u1", Currency: usdc, TxID: "B"})
	if !apperrors.IsKind(err, apperrors.KindCooldown) {
		t.Fatalf("expected Cooldown from manual verify, got %v", err)
	}

	f.clock.Set(t0.Add(time.Hour))
	if err := f.monitor.Poll(ctx, usdc); err != nil {
		t.Fatalf("Poll() failed: %v", err)
	}
	d, _ = f.store.GetDeposit(ctx, "B")
	if d.State != deposit.StateCredited {
		t.Fatalf("expected B credited exactly at the boundary, got %s", d.State)
	}
	if got := f.balance(t, "u1", usdc).Deposit; got != 3_000_000 {
		t.Fatalf("expected 3000000, got %d", got)
	}
}

func TestManualVerify(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	addr := f.address(t, "u1", usdc)
	f.sol.add(addr, provider.Transfer{TxID: "M1", Amount: 7_000_000, Confirmations: 15})

	got, err := f.monitor.ManualVerify(ctx, deposit.VerifyRequest{UserID: "u1", Currency: usdc, Address: addr})
	if err != nil {
		t.Fatalf("ManualVerify() failed: %v", err)
	}
	if len(got) != 1 || got[0].TxID != "M1" || got[0].State != deposit.StateCredited {
		t.Fatalf("unexpected verify result %+v", got)
	}

	again, err := f.monitor.ManualVerify(ctx, deposit.VerifyRequest{UserID: "u1", Currency: usdc, TxID: "M1"})
	if err != nil {
		t.Fatalf("second ManualVerify() failed: %v", err)
	}
	if len(again) != 1 || again[0].State != deposit.StateCredited {
		t.Fatalf("expected credited record on re-verify, got %+v", again)
	}
	if n := depositEntries(f.store, "M1"); n != 1 {
		t.Fatalf("expected one credit, got %d", n)
	}

	if _, err := f.monitor.ManualVerify(ctx, deposit.VerifyRequest{UserID: "u1", Currency: usdc, TxID: "missing"}); !apperrors.IsKind(err, apperrors.KindNotFound) {
		t.Fatalf("expected NotFound for unknown txid, got %v", err)
	}
	if _, err := f.monitor.ManualVerify(ctx, deposit.VerifyRequest{UserID: "u1", Currency: usdc, Address: "someone-else"}); !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Fatalf("expected InvalidInput for foreign address, got %v", err)
	}
}

func TestAddressBook_OneAddressPerChain(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	a, err := f.book.ReceiveAddress(ctx, "u1", usdc)
	if err != nil {
		t.Fatalf("ReceiveAddress() failed: %v", err)
	}
	b, err := f.book.ReceiveAddress(ctx, "u1", crt)
	if err != nil {
		t.Fatalf("ReceiveAddress() failed: %v", err)
	}
	if a.Address != b.Address {
		t.Fatalf("expected one solana address, got %s and %s", a.Address, b.Address)
	}
	if a.MinConfirmations != 12 {
		t.Fatalf("expected min confirmations 12, got %d", a.MinConfirmations)
	}
	if f.sol.keys != 1 {
		t.Fatalf("expected a single key generation, got %d", f.sol.keys)
	}

	ra, err := f.store.GetReceiveAddressByAddress(ctx, a.Address)
	if err != nil {
		t.Fatalf("GetReceiveAddressByAddress() failed: %v", err)
	}
	if ra.EncryptedKey == "secret-1" {
		t.Fatal("receive key stored in plaintext")
	}
	secret, err := keys.NewResolver(f.cipher).Resolve(keys.SealedHandle(ra.EncryptedKey))
	if err != nil {
		t.Fatalf("Resolve() failed: %v", err)
	}
	if secret != "secret-1" {
		t.Fatalf("sealed key did not round trip, got %q", secret)
	}

	d, err := f.book.ReceiveAddress(ctx, "u1", doge)
	if err != nil {
		t.Fatalf("ReceiveAddress() failed: %v", err)
	}
	if d.Address == a.Address || d.MinDeposit != 100_000_000 {
		t.Fatalf("unexpected dogecoin address info %+v", d)
	}
}

func TestCredit_ConcurrentPollAndManualVerifyHonourCooldown(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	addr := f.address(t, "u1", usdc)
	f.sol.add(addr, provider.Transfer{TxID: "A", Amount: 1_000_000, Confirmations: 20})
	f.sol.add(addr, provider.Transfer{TxID: "B", Amount: 2_000_000, Confirmations: 20})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := f.monitor.Poll(ctx, usdc); err != nil {
				t.Errorf("Poll() failed: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_, err := f.monitor.ManualVerify(ctx, deposit.VerifyRequest{UserID: "u1", Currency: usdc, TxID: "B"})
			if err != nil && !apperrors.IsKind(err, apperrors.KindCooldown) {
				t.Errorf("ManualVerify() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	credited := 0
	for _, tx := range []string{"A", "B"} {
		credited += depositEntries(f.store, tx)
	}
	if credited != 1 {
		t.Fatalf("expected one credit inside the cooldown window, got %d", credited)
	}
	if got := f.balance(t, "u1", usdc).Deposit; got != 1_000_000 && got != 2_000_000 {
		t.Fatalf("expected a single deposit credited, got balance %d", got)
	}
}
