package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/currency"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"transient", Transient(currency.ChainSolana, "op", errors.New("x")), KindTransient},
		{"wrapped rejected", errors.Join(errors.New("ctx"), Rejected(currency.ChainTron, "op", errors.New("x"))), KindRejected},
		{"deadline", context.DeadlineExceeded, KindTransient},
		{"plain", errors.New("boom"), KindPermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Fatalf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestToServiceError(t *testing.T) {
	err := ToServiceError(Transient(currency.ChainDogecoin, "balance", errors.New("429")))
	if !apperrors.IsKind(err, apperrors.KindProviderTransient) {
		t.Fatalf("expected ProviderTransient, got %v", err)
	}
	err = ToServiceError(Permanent(currency.ChainDogecoin, "balance", errors.New("bad json")))
	if !apperrors.IsKind(err, apperrors.KindProviderPermanent) {
		t.Fatalf("expected ProviderPermanent, got %v", err)
	}
}

func TestCaller_DeadlineIsTransient(t *testing.T) {
	c := NewCaller(currency.ChainSolana, config.ProviderConfig{CallTimeout: 10 * time.Millisecond})
	err := c.Do(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestCaller_KeepsClassification(t *testing.T) {
	c := NewCaller(currency.ChainTron, config.ProviderConfig{})
	err := c.Do(context.Background(), "broadcast", func(context.Context) error {
		return Rejected(currency.ChainTron, "broadcast", errors.New("sig error"))
	})
	if !IsRejected(err) {
		t.Fatalf("expected rejected error, got %v", err)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get(currency.ChainTron); err == nil {
		t.Fatal("expected error for missing adapter")
	}
}

func TestRESTClient_StatusClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"value": 7}`))
		case "/busy":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/bad":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"bad tx"}`))
		case "/junk":
			_, _ = w.Write([]byte(`not json`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := &RESTClient{Chain: currency.ChainDogecoin, BaseURL: srv.URL}
	ctx := context.Background()

	var out struct {
		Value int `json:"value"`
	}
	if err := c.Get(ctx, "ok", "/ok", &out); err != nil || out.Value != 7 {
		t.Fatalf("Get(/ok) = %v, value %d", err, out.Value)
	}
	if err := c.Get(ctx, "busy", "/busy", nil); !IsTransient(err) {
		t.Fatalf("expected transient for 429, got %v", err)
	}
	if err := c.Get(ctx, "bad", "/bad", nil); !IsRejected(err) {
		t.Fatalf("expected rejected for 400, got %v", err)
	}
	if err := c.Get(ctx, "junk", "/junk", &out); KindOf(err) != KindPermanent {
		t.Fatalf("expected permanent for bad json, got %v", err)
	}
	if err := c.Get(ctx, "missing", "/missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
