package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestSessions_IssueAndParse(t *testing.T) {
	s, err := NewSessions(testSecret, "custody-ledger", time.Hour)
	if err != nil {
		t.Fatalf("NewSessions() failed: %v", err)
	}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	token, expires, err := s.Issue("u1", Wallet{Chain: "solana", Address: "Wallet1"})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if !expires.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected expiry %s, got %s", now.Add(time.Hour), expires)
	}

	claims, err := s.Parse(token)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	info := claims.AuthInfo()
	if info.UserID != "u1" || info.Wallet.Address != "Wallet1" || info.Wallet.Chain != "solana" {
		t.Fatalf("unexpected auth info %+v", info)
	}

	now = now.Add(time.Hour)
	if _, err := s.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestSessions_RejectsForeignTokens(t *testing.T) {
	a, _ := NewSessions(testSecret, "custody-ledger", time.Hour)
	b, _ := NewSessions(testSecret, "someone-else", time.Hour)
	c, _ := NewSessions("ffffffffffffffffffffffffffffffff", "custody-ledger", time.Hour)

	token, _, err := b.Issue("u1", Wallet{})
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	if _, err := a.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected issuer mismatch to fail, got %v", err)
	}

	token, _, _ = c.Issue("u1", Wallet{})
	if _, err := a.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected signature mismatch to fail, got %v", err)
	}
}

func TestNewSessions_RejectsShortSecret(t *testing.T) {
	if _, err := NewSessions("short", "x", time.Hour); err == nil {
		t.Fatal("expected an error for a short secret")
	}
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() failed: %v", err)
	}
	if err := CheckPassword(hash, "correct horse"); err != nil {
		t.Fatalf("CheckPassword() rejected the right password: %v", err)
	}
	if err := CheckPassword(hash, "wrong horse"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := CheckPassword("", "anything"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword for an unset hash, got %v", err)
	}
	if _, err := HashPassword("short"); err == nil {
		t.Fatal("expected an error for a short password")
	}
}
