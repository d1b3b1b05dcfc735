package solana

import (
	"context"
	"errors"
	"fmt"

	sol "github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/provider"
)

// Sign builds and signs a transfer from the hot wallet. SPL transfers create
// the recipient's associated token account when it does not exist yet.
func (a *Adapter) Sign(ctx context.Context, req provider.SendRequest) (*provider.SignedTx, error) {
	if req.Amount <= 0 {
		return nil, provider.Rejected(chain, "sign", errors.New("amount must be positive"))
	}
	secret, err := a.keys.Resolve(req.From)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("resolve hot wallet key: %w", err))
	}
	priv, err := sol.PrivateKeyFromBase58(secret)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("parse hot wallet key: %w", err))
	}
	to, err := sol.PublicKeyFromBase58(req.To)
	if err != nil {
		return nil, provider.Rejected(chain, "sign", fmt.Errorf("invalid destination: %w", err))
	}
	from := priv.PublicKey()

	instructions, err := a.transferInstructions(ctx, req.Currency, from, to, uint64(req.Amount))
	if err != nil {
		return nil, err
	}

	var recent *rpc.GetLatestBlockhashResult
	err = a.caller.Do(ctx, "blockhash", func(ctx context.Context) error {
		var err error
		recent, err = a.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
		return classify("blockhash", err)
	})
	if err != nil {
		return nil, err
	}
	if recent == nil || recent.Value == nil {
		return nil, provider.Permanent(chain, "blockhash", errors.New("empty blockhash result"))
	}

	tx, err := sol.NewTransaction(instructions, recent.Value.Blockhash, sol.TransactionPayer(from))
	if err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("build transaction: %w", err))
	}
	if _, err := tx.Sign(func(key sol.PublicKey) *sol.PrivateKey {
		if key.Equals(from) {
			return &priv
		}
		return nil
	}); err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("sign transaction: %w", err))
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("serialize transaction: %w", err))
	}

	return &provider.SignedTx{
		TxID:            tx.Signatures[0].String(),
		Raw:             raw,
		LastValidHeight: recent.Value.LastValidBlockHeight,
		NotAfter:        a.now().Add(blockhashValidity),
	}, nil
}

func (a *Adapter) transferInstructions(ctx context.Context, cur currency.Currency, from, to sol.PublicKey, amount uint64) ([]sol.Instruction, error) {
	if cur.IsNative() {
		return []sol.Instruction{system.NewTransferInstruction(amount, from, to).Build()}, nil
	}

	mint, err := sol.PublicKeyFromBase58(cur.AssetID)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", fmt.Errorf("invalid mint: %w", err))
	}
	source, _, err := sol.FindAssociatedTokenAddress(from, mint)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", err)
	}
	dest, _, err := sol.FindAssociatedTokenAddress(to, mint)
	if err != nil {
		return nil, provider.Permanent(chain, "sign", err)
	}

	var out []sol.Instruction
	exists := true
	err = a.caller.Do(ctx, "account_info", func(ctx context.Context) error {
		_, err := a.rpc.GetAccountInfo(ctx, dest)
		if errors.Is(err, rpc.ErrNotFound) {
			exists = false
			return nil
		}
		return classify("account_info", err)
	})
	if err != nil {
		return nil, err
	}
	if !exists {
		out = append(out, associatedtokenaccount.NewCreateInstruction(from, to, mint).Build())
	}
	out = append(out, token.NewTransferCheckedInstruction(
		amount,
		uint8(cur.Decimals),
		source,
		mint,
		dest,
		from,
		[]sol.PublicKey{},
	).Build())
	return out, nil
}

func tokenAccount(owner sol.PublicKey, cur currency.Currency) (sol.PublicKey, error) {
	mint, err := sol.PublicKeyFromBase58(cur.AssetID)
	if err != nil {
		return sol.PublicKey{}, fmt.Errorf("invalid mint %q: %w", cur.AssetID, err)
	}
	ata, _, err := sol.FindAssociatedTokenAddress(owner, mint)
	return ata, err
}
