package dogecoin

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/keys"
	"github.com/chainsafe/custody-ledger/pkg/provider"
)

var doge = currency.Currency{Symbol: "DOGE", Decimals: 8, Chain: currency.ChainDogecoin, AssetID: currency.NativeAsset}

func newTestAdapter(t *testing.T, url string) *Adapter {
	t.Helper()
	cfg := config.DogecoinConfig{APIURL: url, APIToken: "tok", FeePerKB: 1_000_000, DropAfter: time.Hour}
	cfg.FinalityDepth = 6
	return New(cfg, keys.NewResolver(nil), zap.NewNop())
}

func TestValidateAddress(t *testing.T) {
	a := newTestAdapter(t, "")
	key, err := a.NewReceiveKey()
	if err != nil {
		t.Fatalf("NewReceiveKey() failed: %v", err)
	}
	if !strings.HasPrefix(key.Address, "D") {
		t.Fatalf("expected mainnet address to start with D, got %s", key.Address)
	}
	if err := a.ValidateAddress(key.Address); err != nil {
		t.Fatalf("expected generated address to validate: %v", err)
	}

	mutated := []byte(key.Address)
	last := len(mutated) - 1
	if mutated[last] == 'x' {
		mutated[last] = 'y'
	} else {
		mutated[last] = 'x'
	}

	priv, _ := btcec.NewPrivateKey()
	btcAddr, _ := btcutil.NewAddressPubKeyHash(btcutil.Hash160(priv.PubKey().SerializeCompressed()), &chaincfg.MainNetParams)

	for _, bad := range []string{"", string(mutated), btcAddr.EncodeAddress()} {
		if err := a.ValidateAddress(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestSelectInputs(t *testing.T) {
	refs := []utxo{
		{TxHash: "a", Value: 5_00000000, Confirmations: 3},
		{TxHash: "b", Value: 20_00000000, Confirmations: 0},
		{TxHash: "c", Value: 8_00000000, Confirmations: 10},
	}
	picked, change, err := selectInputs(refs, 10_00000000, minFeePerKB)
	if err != nil {
		t.Fatalf("selectInputs() failed: %v", err)
	}
	if len(picked) != 2 || picked[0].TxHash != "c" || picked[1].TxHash != "a" {
		t.Fatalf("expected confirmed outputs largest first, got %+v", picked)
	}
	if want := int64(13_00000000 - 10_00000000 - minFeePerKB); change != want {
		t.Fatalf("change = %d, want %d", change, want)
	}

	if _, _, err := selectInputs(refs, 14_00000000, minFeePerKB); !provider.IsRejected(err) {
		t.Fatalf("expected rejected for insufficient hot wallet funds, got %v", err)
	}
}

func TestSignAndBroadcast(t *testing.T) {
	a := newTestAdapter(t, "")
	hot, err := a.NewReceiveKey()
	if err != nil {
		t.Fatalf("NewReceiveKey() failed: %v", err)
	}
	dest, _ := a.NewReceiveKey()
	t.Setenv("TEST_DOGE_HOT_WALLET", hot.Secret)

	var pushed string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch {
		case r.URL.Path == "/addrs/"+hot.Address:
			fmt.Fprint(w, `{"txrefs":[{"tx_hash":"`+strings.Repeat("ab", 32)+`","tx_output_n":1,"value":5000000000,"confirmations":12}]}`)
		case r.URL.Path == "/txs/push":
			var body pushRequest
			_ = json.NewDecoder(r.Body).Decode(&body)
			pushed = body.Tx
			fmt.Fprint(w, `{"tx":{}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	a = newTestAdapter(t, srv.URL)

	signed, err := a.Sign(context.Background(), provider.SendRequest{
		Currency: doge, From: "env:TEST_DOGE_HOT_WALLET", To: dest.Address, Amount: 10_00000000,
	})
	if err != nil {
		t.Fatalf("Sign() failed: %v", err)
	}

	var tx wire.MsgTx
	if err := tx.Deserialize(bytes.NewReader(signed.Raw)); err != nil {
		t.Fatalf("decode tx: %v", err)
	}
	if tx.TxHash().String() != signed.TxID {
		t.Fatal("txid must match the serialized transaction")
	}
	if len(tx.TxOut) != 2 || tx.TxOut[0].Value != 10_00000000 {
		t.Fatalf("unexpected outputs %+v", tx.TxOut)
	}
	if len(tx.TxIn[0].SignatureScript) == 0 {
		t.Fatal("expected input to be signed")
	}

	txid, err := a.Broadcast(context.Background(), doge, signed)
	if err != nil {
		t.Fatalf("Broadcast() failed: %v", err)
	}
	if txid != signed.TxID || pushed != hex.EncodeToString(signed.Raw) {
		t.Fatal("expected the signed bytes to be pushed and the txid returned")
	}
}

func TestBroadcast_AlreadyKnown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"Error validating transaction: Transaction with hash abc already exists."}`)
	}))
	defer srv.Close()

	txid, err := newTestAdapter(t, srv.URL).Broadcast(context.Background(), doge, &provider.SignedTx{TxID: "abc", Raw: []byte{1}})
	if err != nil || txid != "abc" {
		t.Fatalf("expected duplicate push to succeed, got %q, %v", txid, err)
	}
}

func TestTxStatus(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/txs/final":
			fmt.Fprint(w, `{"hash":"final","confirmations":6}`)
		case "/txs/young":
			fmt.Fprint(w, `{"hash":"young","confirmations":2}`)
		case "/txs/replaced":
			fmt.Fprint(w, `{"hash":"replaced","confirmations":0,"double_spend":true}`)
		case "/txs/busy":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	a := newTestAdapter(t, srv.URL)
	a.now = func() time.Time { return now }

	tests := []struct {
		txid     string
		notAfter time.Time
		want     provider.TxStatus
	}{
		{"final", now, provider.TxStatus{Found: true, Confirmations: 6, Final: true}},
		{"young", now, provider.TxStatus{Found: true, Confirmations: 2}},
		{"replaced", now, provider.TxStatus{Found: true, Dropped: true, Reason: "double spend"}},
		{"missing", now.Add(time.Minute), provider.TxStatus{}},
		{"missing", now.Add(-time.Minute), provider.TxStatus{Dropped: true}},
	}
	for _, tt := range tests {
		got, err := a.TxStatus(context.Background(), provider.StatusQuery{Currency: doge, TxID: tt.txid, NotAfter: tt.notAfter})
		if err != nil {
			t.Fatalf("TxStatus(%s) failed: %v", tt.txid, err)
		}
		if *got != tt.want {
			t.Fatalf("TxStatus(%s) = %+v, want %+v", tt.txid, *got, tt.want)
		}
	}

	if _, err := a.TxStatus(context.Background(), provider.StatusQuery{TxID: "busy"}); !provider.IsTransient(err) {
		t.Fatalf("expected transient error on 429, got %v", err)
	}
}

func TestIncomingTransactions(t *testing.T) {
	const addr = "DTestReceiveAddress"
	var after string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after = r.URL.Query().Get("after")
		fmt.Fprintf(w, `{"txs":[
			{"hash":"pending","block_height":-1,"confirmations":0,"outputs":[{"value":100,"addresses":["%[1]s"]}]},
			{"hash":"t3","block_height":120,"confirmations":3,"outputs":[{"value":1000000000,"addresses":["%[1]s"]}]},
			{"hash":"other","block_height":119,"confirmations":4,"outputs":[{"value":5,"addresses":["DSomeoneElse"]}]},
			{"hash":"t2","block_height":110,"confirmations":13,"outputs":[{"value":700,"addresses":["%[1]s"]},{"value":300,"addresses":["%[1]s"]}]}
		]}`, addr)
	}))
	defer srv.Close()

	got, err := newTestAdapter(t, srv.URL).IncomingTransactions(context.Background(), doge, addr, "110")
	if err != nil {
		t.Fatalf("IncomingTransactions() failed: %v", err)
	}
	if after != "109" {
		t.Fatalf("expected scan to restart at the cursor block, after=%s", after)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 transfers, got %d", len(got))
	}
	if got[0].TxID != "t2" || got[0].Amount != 1000 || got[0].Cursor != "110" {
		t.Fatalf("unexpected first transfer %+v", got[0])
	}
	if got[1].TxID != "t3" || got[1].Cursor != "120" {
		t.Fatalf("unexpected second transfer %+v", got[1])
	}
	if got[2].TxID != "pending" || got[2].Cursor != "110" {
		t.Fatalf("expected unconfirmed transfer last without advancing the cursor, got %+v", got[2])
	}
}
