package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   Kind
		status int
	}{
		{"invalid input", InvalidInputError(nil, "bad amount"), KindInvalidInput, http.StatusBadRequest},
		{"insufficient funds", InsufficientFundsError(nil, "no funds"), KindInsufficientFunds, http.StatusUnprocessableEntity},
		{"insufficient liquidity", InsufficientLiquidityError(nil, "pool"), KindInsufficientLiquidity, http.StatusConflict},
		{"limit exceeded", LimitExceededError(nil, "cap"), KindLimitExceeded, http.StatusTooManyRequests},
		{"cooldown", CooldownError(nil, "wait"), KindCooldown, http.StatusTooManyRequests},
		{"provider transient", ProviderTransientError(nil, "rate limited"), KindProviderTransient, http.StatusServiceUnavailable},
		{"provider permanent", ProviderPermanentError(nil, "rejected"), KindProviderPermanent, http.StatusBadGateway},
		{"conflict", ConflictError(nil, "lost race"), KindConflict, http.StatusConflict},
		{"invariant", InvariantViolationError(nil, "negative"), KindInvariantViolation, http.StatusInternalServerError},
		{"not found", ResourceNotFoundError(nil, "missing"), KindNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var svcErr *ServiceError
			if !errors.As(tt.err, &svcErr) {
				t.Fatalf("expected ServiceError, got %T", tt.err)
			}
			if svcErr.Kind != tt.kind {
				t.Fatalf("expected kind %s, got %s", tt.kind, svcErr.Kind)
			}
			if svcErr.StatusCode() != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, svcErr.StatusCode())
			}
		})
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("submit: %w", CooldownError(nil, "cooldown active"))
	if KindOf(err) != KindCooldown {
		t.Fatalf("expected Cooldown through wrap, got %s", KindOf(err))
	}
	if !IsKind(err, KindCooldown) {
		t.Fatal("expected IsKind to match")
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("expected untagged error to be Internal")
	}
	if IsKind(nil, KindInternal) {
		t.Fatal("nil error must not match any kind")
	}
}

func TestIs_ComparesKindAndMessage(t *testing.T) {
	a := InsufficientFundsError(nil, "insufficient funds")
	b := InsufficientFundsError(errors.New("other cause"), "insufficient funds")
	c := ConflictError(nil, "insufficient funds")

	if !errors.Is(a, b) {
		t.Fatal("expected errors with same kind and message to match")
	}
	if errors.Is(a, c) {
		t.Fatal("expected different kinds not to match")
	}
}

func TestIsInternalError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		internal bool
	}{
		{"untagged", errors.New("boom"), true},
		{"general", GeneralError(nil), true},
		{"provider transient", ProviderTransientError(nil, "rpc down"), true},
		{"invariant", InvariantViolationError(nil, "sum mismatch"), true},
		{"invalid input", InvalidInputError(nil, "bad amount"), false},
		{"insufficient funds", InsufficientFundsError(nil, "short"), false},
		{"cooldown", CooldownError(nil, "wait"), false},
		{"limit", LimitExceededError(nil, "cap"), false},
		{"wrapped not found", fmt.Errorf("get: %w", ResourceNotFoundError(nil, "missing")), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsInternalError(tt.err); got != tt.internal {
				t.Fatalf("expected internal=%v, got %v", tt.internal, got)
			}
		})
	}
}
