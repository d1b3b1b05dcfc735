package api_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/pkg/api"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/events"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
)

type frame struct {
	Type   string              `json:"type"`
	Wallet *api.WalletResponse `json:"wallet"`
}

func TestBalanceStream_PushesAfterCommit(t *testing.T) {
	f := newFixture(t)
	hub := events.NewHub()
	f.ledger.Subscribe(func(userID string, _ []currency.Symbol) { hub.Notify(userID) })

	r := chi.NewRouter()
	r.With(withSession("u1", "")).Handle("/ws/balance", api.NewBalanceStream(f.service(), hub, nil, zap.NewNop()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/balance", nil)
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first frame
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("ReadJSON() failed: %v", err)
	}
	if first.Type != "balance" || balanceOf(t, first.Wallet, "CRT").Deposit != 10_000 {
		t.Fatalf("unexpected initial frame %+v", first)
	}

	if err := f.ledger.Credit(context.Background(), "u1", "CRT", ledger.SubDeposit, 5, ledger.CauseDeposit, "T2"); err != nil {
		t.Fatalf("Credit() failed: %v", err)
	}
	var next frame
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("ReadJSON() failed: %v", err)
	}
	if got := balanceOf(t, next.Wallet, "CRT").Deposit; got != 10_005 {
		t.Fatalf("expected pushed deposit 10005, got %d", got)
	}
}

func TestBalanceStream_RejectsMissingSession(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(api.NewBalanceStream(f.service(), events.NewHub(), nil, zap.NewNop()))
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err == nil {
		t.Fatal("expected the upgrade to be refused")
	}
	if resp == nil || resp.StatusCode != 401 {
		t.Fatalf("expected 401, got %+v", resp)
	}
}
