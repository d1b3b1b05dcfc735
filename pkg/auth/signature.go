package auth

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	btcecdsa "github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fbsobreira/gotron-sdk/pkg/address"
	sol "github.com/gagliardetto/solana-go"

	"github.com/chainsafe/custody-ledger/pkg/currency"
)

// ErrSignatureMismatch is returned when a signature is well formed but was
// not produced by the claimed wallet.
var ErrSignatureMismatch = errors.New("signature does not match wallet")

const (
	tronMessagePrefix    = "\x19TRON Signed Message:\n"
	dogecoinMessageMagic = "Dogecoin Signed Message:\n"
)

// Verifier checks that signature over message was produced by address.
type Verifier interface {
	Verify(address, message, signature string) error
}

// Verifiers maps each chain to its wallet signature scheme.
type Verifiers map[currency.Chain]Verifier

// NewVerifiers returns verifiers for every supported chain. dogeParams
// selects the Dogecoin network used to derive addresses.
func NewVerifiers(dogeParams *chaincfg.Params) Verifiers {
	return Verifiers{
		currency.ChainSolana:   SolanaVerifier{},
		currency.ChainTron:     TronVerifier{},
		currency.ChainDogecoin: DogecoinVerifier{Params: dogeParams},
	}
}

// Verify dispatches to the verifier for chain.
func (v Verifiers) Verify(chain currency.Chain, address, message, signature string) error {
	verifier, ok := v[chain]
	if !ok {
		return fmt.Errorf("unsupported chain %q", chain)
	}
	return verifier.Verify(address, message, signature)
}

// SolanaVerifier checks ed25519 signatures over the raw message bytes. The
// signature may be base58 or base64 encoded.
type SolanaVerifier struct{}

func (SolanaVerifier) Verify(addr, message, signature string) error {
	pub, err := sol.PublicKeyFromBase58(addr)
	if err != nil {
		return fmt.Errorf("invalid solana address: %w", err)
	}
	sig, err := sol.SignatureFromBase58(signature)
	if err != nil {
		raw, b64err := base64.StdEncoding.DecodeString(signature)
		if b64err != nil || len(raw) != len(sig) {
			return fmt.Errorf("invalid solana signature: %w", err)
		}
		copy(sig[:], raw)
	}
	if !sig.Verify(pub, []byte(message)) {
		return ErrSignatureMismatch
	}
	return nil
}

// TronVerifier checks TIP-191 signatures as produced by TronWeb signMessageV2.
type TronVerifier struct{}

func (TronVerifier) Verify(addr, message, signature string) error {
	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "0x"))
	if err != nil {
		return fmt.Errorf("invalid signature hex: %w", err)
	}
	if len(sig) != 65 {
		return fmt.Errorf("invalid signature length: expected 65, got %d", len(sig))
	}
	// v can be 0, 1, 27 or 28
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	hash := crypto.Keccak256([]byte(fmt.Sprintf("%s%d%s", tronMessagePrefix, len(message), message)))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return fmt.Errorf("failed to recover public key: %w", err)
	}
	if address.PubkeyToAddress(*pub).String() != addr {
		return ErrSignatureMismatch
	}
	return nil
}

// DogecoinVerifier checks base64 compact signatures as produced by
// signmessage in Dogecoin Core.
type DogecoinVerifier struct {
	Params *chaincfg.Params
}

func (v DogecoinVerifier) Verify(addr, message, signature string) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("invalid signature base64: %w", err)
	}
	if len(sig) != 65 {
		return fmt.Errorf("invalid signature length: expected 65, got %d", len(sig))
	}
	pub, compressed, err := btcecdsa.RecoverCompact(sig, DogecoinMessageHash(message))
	if err != nil {
		return fmt.Errorf("failed to recover public key: %w", err)
	}
	recovered, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(serializePubKey(pub, compressed)), v.Params)
	if err != nil {
		return fmt.Errorf("failed to derive address: %w", err)
	}
	if recovered.EncodeAddress() != addr {
		return ErrSignatureMismatch
	}
	return nil
}

// DogecoinMessageHash is the double SHA-256 digest signed by signmessage.
func DogecoinMessageHash(message string) []byte {
	var buf bytes.Buffer
	_ = wire.WriteVarString(&buf, 0, dogecoinMessageMagic)
	_ = wire.WriteVarString(&buf, 0, message)
	return chainhash.DoubleHashB(buf.Bytes())
}

func serializePubKey(pub *btcec.PublicKey, compressed bool) []byte {
	if compressed {
		return pub.SerializeCompressed()
	}
	return pub.SerializeUncompressed()
}
