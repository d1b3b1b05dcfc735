package dogecoin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/chainsafe/custody-ledger/pkg/provider"
)

type utxo struct {
	TxHash        string `json:"tx_hash"`
	OutputN       uint32 `json:"tx_output_n"`
	Value         int64  `json:"value"`
	Confirmations int64  `json:"confirmations"`
}

type unspentResponse struct {
	TxRefs []utxo `json:"txrefs"`
}

// Sign selects confirmed outputs of the hot wallet, pays req.To and returns
// the change to the hot wallet.
func (a *Adapter) Sign(ctx context.Context, req provider.SendRequest) (*provider.SignedTx, error) {
	if req.Amount <= 0 {
		return nil, provider.Rejected(chain, "sign", errors.New("amount must be positive"))
	}
	if req.Amount < dustLimit {
		return nil, provider.Rejected(chain, "sign", fmt.Errorf("amount %d below dust limit", req.Amount))
	}
	if err := a.ValidateAddress(req.To); err != nil {
		return nil, provider.Rejected(chain, "sign", err)
	}
	secret, err := a.keys.Resolve(req.From)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("resolve hot wallet key: %w", err))
	}
	wif, err := btcutil.DecodeWIF(secret)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("parse hot wallet key: %w", err))
	}
	if !wif.IsForNet(a.params) {
		return nil, provider.Permanent(chain, "sign", errors.New("hot wallet key is for another network"))
	}
	fromAddr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(wif.SerializePubKey()), a.params)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", err)
	}

	var unspent unspentResponse
	q := url.Values{"unspentOnly": {"true"}, "includeScript": {"true"}}
	if err := a.get(ctx, "unspent", a.path("/addrs/"+fromAddr.EncodeAddress(), q), &unspent); err != nil {
		return nil, err
	}

	feePerKB := a.feePerKB
	if req.FeeHint > 0 {
		feePerKB = max(req.FeeHint, minFeePerKB)
	}
	inputs, change, err := selectInputs(unspent.TxRefs, req.Amount, feePerKB)
	if err != nil {
		return nil, err
	}

	tx, err := a.buildTx(inputs, req.To, req.Amount, fromAddr, change)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", err)
	}
	if err := signInputs(tx, fromAddr, wif.PrivKey); err != nil {
		return nil, provider.Permanent(chain, "sign", err)
	}

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("serialize transaction: %w", err))
	}
	return &provider.SignedTx{
		TxID:     tx.TxHash().String(),
		Raw:      buf.Bytes(),
		NotAfter: a.now().Add(a.dropAfter),
	}, nil
}

// selectInputs picks confirmed outputs largest first until amount plus fee is
// covered. Change below the dust limit is left to the fee.
func selectInputs(refs []utxo, amount, feePerKB int64) ([]utxo, int64, error) {
	candidates := make([]utxo, 0, len(refs))
	for _, r := range refs {
		if r.Confirmations > 0 {
			candidates = append(candidates, r)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Value > candidates[j].Value })

	var (
		picked []utxo
		total  int64
	)
	for _, r := range candidates {
		picked = append(picked, r)
		total += r.Value

		fee := feeFor(estimateSize(len(picked), 2), feePerKB)
		if total < amount+fee {
			continue
		}
		change := total - amount - fee
		if change < dustLimit {
			change = 0
		}
		return picked, change, nil
	}
	return nil, 0, provider.Rejected(chain, "sign", fmt.Errorf("hot wallet holds %d, need %d plus fee", total, amount))
}

func (a *Adapter) buildTx(inputs []utxo, to string, amount int64, changeAddr btcutil.Address, change int64) (*wire.MsgTx, error) {
	tx := wire.NewMsgTx(1)
	for _, in := range inputs {
		hash, err := chainhash.NewHashFromStr(in.TxHash)
		if err != nil {
			return nil, fmt.Errorf("invalid utxo hash: %w", err)
		}
		tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, in.OutputN), nil, nil))
	}

	dest, err := btcutil.DecodeAddress(to, a.params)
	if err != nil {
		return nil, err
	}
	destScript, err := txscript.PayToAddrScript(dest)
	if err != nil {
		return nil, err
	}
	tx.AddTxOut(wire.NewTxOut(amount, destScript))

	if change > 0 {
		changeScript, err := txscript.PayToAddrScript(changeAddr)
		if err != nil {
			return nil, err
		}
		tx.AddTxOut(wire.NewTxOut(change, changeScript))
	}
	return tx, nil
}

func signInputs(tx *wire.MsgTx, from btcutil.Address, priv *btcec.PrivateKey) error {
	pkScript, err := txscript.PayToAddrScript(from)
	if err != nil {
		return err
	}
	pub := priv.PubKey().SerializeCompressed()
	for i := range tx.TxIn {
		hash, err := txscript.CalcSignatureHash(pkScript, txscript.SigHashAll, tx, i)
		if err != nil {
			return fmt.Errorf("signature hash for input %d: %w", i, err)
		}
		sig := append(ecdsa.Sign(priv, hash).Serialize(), byte(txscript.SigHashAll))
		script, err := txscript.NewScriptBuilder().AddData(sig).AddData(pub).Script()
		if err != nil {
			return fmt.Errorf("signature script for input %d: %w", i, err)
		}
		tx.TxIn[i].SignatureScript = script
	}
	return nil
}
