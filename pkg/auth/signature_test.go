package auth

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fbsobreira/gotron-sdk/pkg/address"
	sol "github.com/gagliardetto/solana-go"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/provider/dogecoin"
)

const message = "custody wants you to sign in with your wallet"

func TestSolanaVerifier(t *testing.T) {
	priv, err := sol.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("NewRandomPrivateKey() failed: %v", err)
	}
	sig, err := priv.Sign([]byte(message))
	if err != nil {
		t.Fatalf("Sign() failed: %v", err)
	}
	addr := priv.PublicKey().String()

	v := SolanaVerifier{}
	if err := v.Verify(addr, message, sig.String()); err != nil {
		t.Fatalf("base58 signature rejected: %v", err)
	}
	if err := v.Verify(addr, message, base64.StdEncoding.EncodeToString(sig[:])); err != nil {
		t.Fatalf("base64 signature rejected: %v", err)
	}
	if err := v.Verify(addr, message+"!", sig.String()); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch for a tampered message, got %v", err)
	}
	if err := v.Verify("not-an-address", message, sig.String()); err == nil {
		t.Fatal("expected an error for a malformed address")
	}
}

func TestTronVerifier(t *testing.T) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() failed: %v", err)
	}
	hash := crypto.Keccak256([]byte(fmt.Sprintf("%s%d%s", tronMessagePrefix, len(message), message)))
	sig, err := crypto.Sign(hash, priv)
	if err != nil {
		t.Fatalf("Sign() failed: %v", err)
	}
	sig[64] += 27
	addr := address.PubkeyToAddress(priv.PublicKey).String()

	v := TronVerifier{}
	if err := v.Verify(addr, message, "0x"+hex.EncodeToString(sig)); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}

	other, _ := crypto.GenerateKey()
	if err := v.Verify(address.PubkeyToAddress(other.PublicKey).String(), message, hex.EncodeToString(sig)); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch for another wallet, got %v", err)
	}
	if err := v.Verify(addr, message, "abcd"); err == nil {
		t.Fatal("expected an error for a short signature")
	}
}

func TestDogecoinVerifier(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey() failed: %v", err)
	}
	sig := btcecdsa.SignCompact(priv, DogecoinMessageHash(message), true)
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(priv.PubKey().SerializeCompressed()), &dogecoin.MainNetParams)
	if err != nil {
		t.Fatalf("NewAddressPubKeyHash() failed: %v", err)
	}
	if addr.EncodeAddress()[0] != 'D' {
		t.Fatalf("expected a mainnet D-address, got %s", addr.EncodeAddress())
	}

	verifiers := NewVerifiers(&dogecoin.MainNetParams)
	encoded := base64.StdEncoding.EncodeToString(sig)
	if err := verifiers.Verify(currency.ChainDogecoin, addr.EncodeAddress(), message, encoded); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
	if err := verifiers.Verify(currency.ChainDogecoin, addr.EncodeAddress(), "other", encoded); !errors.Is(err, ErrSignatureMismatch) {
		t.Fatalf("expected ErrSignatureMismatch, got %v", err)
	}
	if err := verifiers.Verify("bitcoin", addr.EncodeAddress(), message, encoded); err == nil {
		t.Fatal("expected an error for an unsupported chain")
	}
}
