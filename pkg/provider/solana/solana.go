// Package solana implements the provider adapter for native SOL and SPL
// tokens on Solana.
package solana

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/keys"
	"github.com/chainsafe/custody-ledger/pkg/provider"
)

const (
	chain = currency.ChainSolana

	// finalizedDepth is reported as the confirmation count of rooted transactions.
	finalizedDepth = 32
	// blockhashValidity approximates how long a recent blockhash stays usable.
	blockhashValidity = 2 * time.Minute
)

// RPC is the subset of the solana-go RPC client used by the adapter.
type RPC interface {
	GetBalance(ctx context.Context, account sol.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalance(ctx context.Context, account sol.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetAccountInfo(ctx context.Context, account sol.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	SendRawTransactionWithOpts(ctx context.Context, rawTx []byte, opts rpc.TransactionOpts) (sol.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...sol.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetSignaturesForAddressWithOpts(ctx context.Context, account sol.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
	GetTransaction(ctx context.Context, txSig sol.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

// Adapter talks to a Solana JSON-RPC node.
type Adapter struct {
	rpc      RPC
	keys     keys.Resolver
	caller   *provider.Caller
	pageSize int
	logger   *zap.Logger
	now      func() time.Time
}

var _ provider.Adapter = (*Adapter)(nil)

// New creates a Solana adapter from configuration.
func New(cfg config.SolanaConfig, resolver keys.Resolver, logger *zap.Logger) *Adapter {
	return NewWithRPC(rpc.New(cfg.RPCURL), cfg.ProviderConfig, resolver, logger)
}

// NewWithRPC creates an adapter over an existing RPC client.
func NewWithRPC(client RPC, cfg config.ProviderConfig, resolver keys.Resolver, logger *zap.Logger) *Adapter {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Adapter{
		rpc:      client,
		keys:     resolver,
		caller:   provider.NewCaller(chain, cfg),
		pageSize: pageSize,
		logger:   logger.With(zap.String("chain", string(chain))),
		now:      time.Now,
	}
}

func (a *Adapter) Chain() currency.Chain { return chain }

// ValidateAddress accepts base58 encoded 32 byte public keys.
func (a *Adapter) ValidateAddress(addr string) error {
	if _, err := sol.PublicKeyFromBase58(addr); err != nil {
		return fmt.Errorf("invalid solana address: %w", err)
	}
	return nil
}

func (a *Adapter) NewReceiveKey() (*provider.ReceiveKey, error) {
	priv, err := sol.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &provider.ReceiveKey{Address: priv.PublicKey().String(), Secret: priv.String()}, nil
}

func (a *Adapter) ConfirmedBalance(ctx context.Context, cur currency.Currency, addr string) (int64, error) {
	owner, err := sol.PublicKeyFromBase58(addr)
	if err != nil {
		return 0, provider.Rejected(chain, "balance", err)
	}

	var balance int64
	err = a.caller.Do(ctx, "balance", func(ctx context.Context) error {
		if cur.IsNative() {
			res, err := a.rpc.GetBalance(ctx, owner, rpc.CommitmentFinalized)
			if err != nil {
				return classify("balance", err)
			}
			balance = int64(res.Value)
			return nil
		}

		ata, err := tokenAccount(owner, cur)
		if err != nil {
			return provider.Permanent(chain, "balance", err)
		}
		res, err := a.rpc.GetTokenAccountBalance(ctx, ata, rpc.CommitmentFinalized)
		if err != nil {
			if isAccountMissing(err) {
				balance = 0
				return nil
			}
			return classify("balance", err)
		}
		if res == nil || res.Value == nil {
			return provider.Permanent(chain, "balance", errors.New("empty token balance"))
		}
		balance, err = strconv.ParseInt(res.Value.Amount, 10, 64)
		if err != nil {
			return provider.Permanent(chain, "balance", fmt.Errorf("parse amount: %w", err))
		}
		return nil
	})
	return balance, err
}

// IncomingTransactions lists finalized transfers into addr after the cursor
// signature. For SPL currencies the owner's associated token account is
// scanned and credited amounts come from the token balance deltas.
func (a *Adapter) IncomingTransactions(ctx context.Context, cur currency.Currency, addr, cursor string) ([]provider.Transfer, error) {
	owner, err := sol.PublicKeyFromBase58(addr)
	if err != nil {
		return nil, provider.Rejected(chain, "incoming", err)
	}
	watched := owner
	if !cur.IsNative() {
		if watched, err = tokenAccount(owner, cur); err != nil {
			return nil, provider.Permanent(chain, "incoming", err)
		}
	}

	var until sol.Signature
	if cursor != "" {
		if until, err = sol.SignatureFromBase58(cursor); err != nil {
			return nil, provider.Permanent(chain, "incoming", fmt.Errorf("bad cursor: %w", err))
		}
	}

	sigs, err := a.signaturesSince(ctx, watched, until)
	if err != nil {
		return nil, err
	}

	out := make([]provider.Transfer, 0, len(sigs))
	// sigs are newest first
	for i := len(sigs) - 1; i >= 0; i-- {
		s := sigs[i]
		t := provider.Transfer{TxID: s.Signature.String(), Confirmations: finalizedDepth, Cursor: s.Signature.String()}
		if s.Err == nil {
			amount, err := a.creditedAmount(ctx, s.Signature, owner, cur)
			if err != nil {
				return out, err
			}
			t.Amount = amount
		}
		out = append(out, t)
	}
	return out, nil
}

func (a *Adapter) signaturesSince(ctx context.Context, account sol.PublicKey, until sol.Signature) ([]*rpc.TransactionSignature, error) {
	var (
		all    []*rpc.TransactionSignature
		before sol.Signature
	)
	for {
		limit := a.pageSize
		opts := &rpc.GetSignaturesForAddressOpts{
			Limit:      &limit,
			Until:      until,
			Before:     before,
			Commitment: rpc.CommitmentFinalized,
		}
		var page []*rpc.TransactionSignature
		err := a.caller.Do(ctx, "signatures", func(ctx context.Context) error {
			var err error
			page, err = a.rpc.GetSignaturesForAddressWithOpts(ctx, account, opts)
			return classify("signatures", err)
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < limit {
			return all, nil
		}
		before = page[len(page)-1].Signature
	}
}

func (a *Adapter) creditedAmount(ctx context.Context, sig sol.Signature, owner sol.PublicKey, cur currency.Currency) (int64, error) {
	version := uint64(0)
	var res *rpc.GetTransactionResult
	err := a.caller.Do(ctx, "transaction", func(ctx context.Context) error {
		var err error
		res, err = a.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Encoding:                       sol.EncodingBase64,
			Commitment:                     rpc.CommitmentFinalized,
			MaxSupportedTransactionVersion: &version,
		})
		return classify("transaction", err)
	})
	if err != nil {
		return 0, err
	}
	if res == nil || res.Meta == nil {
		return 0, provider.Permanent(chain, "transaction", errors.New("missing transaction meta"))
	}

	if !cur.IsNative() {
		mint, err := sol.PublicKeyFromBase58(cur.AssetID)
		if err != nil {
			return 0, provider.Permanent(chain, "transaction", err)
		}
		var delta int64
		for _, b := range res.Meta.PostTokenBalances {
			delta += tokenAmount(b, owner, mint)
		}
		for _, b := range res.Meta.PreTokenBalances {
			delta -= tokenAmount(b, owner, mint)
		}
		return max(delta, 0), nil
	}

	if res.Transaction == nil {
		return 0, provider.Permanent(chain, "transaction", errors.New("missing transaction body"))
	}
	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return 0, provider.Permanent(chain, "transaction", fmt.Errorf("decode transaction: %w", err))
	}
	for i, key := range tx.Message.AccountKeys {
		if !key.Equals(owner) {
			continue
		}
		if i >= len(res.Meta.PreBalances) || i >= len(res.Meta.PostBalances) {
			return 0, provider.Permanent(chain, "transaction", errors.New("balance index out of range"))
		}
		delta := int64(res.Meta.PostBalances[i]) - int64(res.Meta.PreBalances[i])
		return max(delta, 0), nil
	}
	return 0, nil
}

func tokenAmount(b rpc.TokenBalance, owner, mint sol.PublicKey) int64 {
	if b.Owner == nil || !b.Owner.Equals(owner) || !b.Mint.Equals(mint) || b.UiTokenAmount == nil {
		return 0
	}
	v, err := strconv.ParseInt(b.UiTokenAmount.Amount, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Broadcast submits the signed bytes. A node answering that the signature was
// already processed counts as success.
func (a *Adapter) Broadcast(ctx context.Context, _ currency.Currency, tx *provider.SignedTx) (string, error) {
	err := a.caller.Do(ctx, "broadcast", func(ctx context.Context) error {
		sig, err := a.rpc.SendRawTransactionWithOpts(ctx, tx.Raw, rpc.TransactionOpts{
			PreflightCommitment: rpc.CommitmentConfirmed,
		})
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "already been processed") {
				return nil
			}
			return classifyBroadcast(err)
		}
		if sig.String() != tx.TxID {
			return provider.Permanent(chain, "broadcast", fmt.Errorf("node returned signature %s for %s", sig, tx.TxID))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return tx.TxID, nil
}

// TxStatus reports a signature's commitment. A signature the cluster does
// not know is dropped once the block height passes its blockhash validity.
func (a *Adapter) TxStatus(ctx context.Context, q provider.StatusQuery) (*provider.TxStatus, error) {
	sig, err := sol.SignatureFromBase58(q.TxID)
	if err != nil {
		return nil, provider.Permanent(chain, "status", err)
	}

	var res *rpc.GetSignatureStatusesResult
	err = a.caller.Do(ctx, "status", func(ctx context.Context) error {
		var err error
		res, err = a.rpc.GetSignatureStatuses(ctx, true, sig)
		return classify("status", err)
	})
	if err != nil {
		return nil, err
	}

	if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
		st := &provider.TxStatus{}
		if q.LastValidHeight == 0 {
			st.Dropped = !q.NotAfter.IsZero() && a.now().After(q.NotAfter)
			return st, nil
		}
		var height uint64
		err := a.caller.Do(ctx, "block_height", func(ctx context.Context) error {
			var err error
			height, err = a.rpc.GetBlockHeight(ctx, rpc.CommitmentFinalized)
			return classify("block_height", err)
		})
		if err != nil {
			return nil, err
		}
		st.Dropped = height > q.LastValidHeight
		return st, nil
	}

	s := res.Value[0]
	st := &provider.TxStatus{Found: true}
	if s.Err != nil {
		st.Failed = true
		st.Reason = fmt.Sprint(s.Err)
	}
	switch {
	case s.ConfirmationStatus == rpc.ConfirmationStatusFinalized:
		st.Final = true
		st.Confirmations = finalizedDepth
	case s.Confirmations != nil:
		st.Confirmations = int64(*s.Confirmations)
	}
	return st, nil
}

func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		switch {
		case rpcErr.Code == 429, rpcErr.Code == -32005, rpcErr.Code == -32004:
			return provider.Transient(chain, op, err)
		}
		return provider.Permanent(chain, op, err)
	}
	return err
}

func classifyBroadcast(err error) error {
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		msg := strings.ToLower(rpcErr.Message)
		switch {
		case rpcErr.Code == 429, rpcErr.Code == -32005, strings.Contains(msg, "blockhash not found"):
			return provider.Transient(chain, "broadcast", err)
		case rpcErr.Code == -32002, rpcErr.Code == -32003:
			return provider.Rejected(chain, "broadcast", err)
		}
		return provider.Permanent(chain, "broadcast", err)
	}
	return err
}

func isAccountMissing(err error) bool {
	if errors.Is(err, rpc.ErrNotFound) {
		return true
	}
	var rpcErr *jsonrpc.RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == -32602
}
