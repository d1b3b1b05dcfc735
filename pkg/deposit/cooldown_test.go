package deposit_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/deposit"
	"github.com/chainsafe/custody-ledger/pkg/pgutil"
	"github.com/chainsafe/custody-ledger/pkg/store/memstore"
)

func exerciseCooldowns(t *testing.T, c deposit.Cooldowns) {
	t.Helper()
	ctx := context.Background()
	const addr = "addr-1"

	if ok, _, err := c.Claim(ctx, "u1", addr, "A", t0); err != nil || !ok {
		t.Fatalf("fresh address should accept a claim (ok=%v err=%v)", ok, err)
	}

	tests := []struct {
		name string
		txID string
		at   time.Time
		ok   bool
	}{
		{"same tx retries freely", "A", t0, true},
		{"other tx inside window", "B", t0.Add(59 * time.Minute), false},
		{"one second before boundary", "B", t0.Add(time.Hour - time.Second), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, until, err := c.Claim(ctx, "u1", addr, tt.txID, tt.at)
			if err != nil {
				t.Fatalf("Claim() failed: %v", err)
			}
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if !ok && !until.Equal(t0.Add(time.Hour)) {
				t.Fatalf("expected cooldown until %s, got %s", t0.Add(time.Hour), until)
			}
		})
	}

	if ok, _, err := c.Claim(ctx, "u1", addr, "B", t0.Add(time.Hour)); err != nil || !ok {
		t.Fatalf("claim exactly at the boundary should pass (ok=%v err=%v)", ok, err)
	}
	if ok, until, err := c.Claim(ctx, "u1", addr, "C", t0.Add(90*time.Minute)); err != nil || ok || !until.Equal(t0.Add(2*time.Hour)) {
		t.Fatalf("the boundary claim must start a new window (ok=%v until=%s err=%v)", ok, until, err)
	}
}

// exerciseConcurrentClaims races claims for distinct transactions on one
// address; exactly one may win.
func exerciseConcurrentClaims(t *testing.T, c deposit.Cooldowns) {
	t.Helper()
	const racers = 16
	var (
		wg  sync.WaitGroup
		won atomic.Int32
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok, _, err := c.Claim(context.Background(), "u1", "addr-race", fmt.Sprintf("tx-%d", i), t0)
			if err != nil {
				t.Errorf("Claim() failed: %v", err)
				return
			}
			if ok {
				won.Add(1)
			}
		}(i)
	}
	wg.Wait()
	if n := won.Load(); n != 1 {
		t.Fatalf("expected exactly one claim to win, got %d", n)
	}
}

func TestMemoryCooldowns(t *testing.T) {
	exerciseCooldowns(t, deposit.NewMemoryCooldowns(time.Hour))
	exerciseConcurrentClaims(t, deposit.NewMemoryCooldowns(time.Hour))
}

func TestStoreCooldowns(t *testing.T) {
	st := memstore.New()
	err := st.CreateReceiveAddress(context.Background(), &deposit.ReceiveAddress{
		UserID: "u1", Chain: "solana", Address: "addr-1", EncryptedKey: "sealed", CreatedAt: t0,
	})
	if err != nil {
		t.Fatalf("CreateReceiveAddress() failed: %v", err)
	}
	err = st.CreateReceiveAddress(context.Background(), &deposit.ReceiveAddress{
		UserID: "u1", Chain: "solana", Address: "addr-race", EncryptedKey: "sealed", CreatedAt: t0,
	})
	if err != nil {
		t.Fatalf("CreateReceiveAddress() failed: %v", err)
	}
	exerciseCooldowns(t, deposit.NewStoreCooldowns(st, time.Hour))
	exerciseConcurrentClaims(t, deposit.NewStoreCooldowns(st, time.Hour))
}

func TestRedisCooldowns(t *testing.T) {
	client := pgutil.SetupTestRedis(t)
	exerciseCooldowns(t, deposit.NewRedisCooldowns(client, "test:", time.Hour))
	exerciseConcurrentClaims(t, deposit.NewRedisCooldowns(client, "race:", time.Hour))
}
