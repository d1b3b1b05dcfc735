package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/pgutil"
)

func exerciseChallenges(t *testing.T, store ChallengeStore, now time.Time) {
	t.Helper()
	ctx := context.Background()

	c := NewChallenge("custody-ledger", Wallet{Chain: "tron", Address: "TWallet"}, now, 5*time.Minute)
	if !strings.Contains(c.Message, "TWallet") || !strings.Contains(c.Message, c.Nonce) {
		t.Fatalf("message does not bind the wallet and nonce: %q", c.Message)
	}
	if err := store.Save(ctx, c); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	got, err := store.Take(ctx, c.ID)
	if err != nil {
		t.Fatalf("Take() failed: %v", err)
	}
	if got.Message != c.Message || got.Address != "TWallet" {
		t.Fatalf("unexpected challenge %+v", got)
	}
	if _, err := store.Take(ctx, c.ID); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected a second Take to fail, got %v", err)
	}
	if _, err := store.Take(ctx, "missing"); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestMemoryChallenges(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryChallenges(func() time.Time { return now })
	exerciseChallenges(t, store, now)

	c := NewChallenge("custody-ledger", Wallet{Chain: "solana", Address: "W"}, now, time.Minute)
	if err := store.Save(context.Background(), c); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := store.Take(context.Background(), c.ID); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("expected an expired challenge to be rejected, got %v", err)
	}
}

func TestRedisChallenges(t *testing.T) {
	client := pgutil.SetupTestRedis(t)
	exerciseChallenges(t, NewRedisChallenges(client, "test:"), time.Now())
}
