package solana

import (
	"context"

	sol "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

type mockRPC struct {
	GetBalanceFunc                      func(ctx context.Context, account sol.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalanceFunc          func(ctx context.Context, account sol.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetAccountInfoFunc                  func(ctx context.Context, account sol.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhashFunc              func(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetBlockHeightFunc                  func(ctx context.Context, commitment rpc.CommitmentType) (uint64, error)
	SendRawTransactionWithOptsFunc      func(ctx context.Context, rawTx []byte, opts rpc.TransactionOpts) (sol.Signature, error)
	GetSignatureStatusesFunc            func(ctx context.Context, search bool, sigs ...sol.Signature) (*rpc.GetSignatureStatusesResult, error)
	GetSignaturesForAddressWithOptsFunc func(ctx context.Context, account sol.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
	GetTransactionFunc                  func(ctx context.Context, sig sol.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

func (m *mockRPC) GetBalance(ctx context.Context, account sol.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error) {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx, account, commitment)
	}
	return &rpc.GetBalanceResult{}, nil
}

func (m *mockRPC) GetTokenAccountBalance(ctx context.Context, account sol.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error) {
	if m.GetTokenAccountBalanceFunc != nil {
		return m.GetTokenAccountBalanceFunc(ctx, account, commitment)
	}
	return nil, rpc.ErrNotFound
}

func (m *mockRPC) GetAccountInfo(ctx context.Context, account sol.PublicKey) (*rpc.GetAccountInfoResult, error) {
	if m.GetAccountInfoFunc != nil {
		return m.GetAccountInfoFunc(ctx, account)
	}
	return nil, rpc.ErrNotFound
}

func (m *mockRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	if m.GetLatestBlockhashFunc != nil {
		return m.GetLatestBlockhashFunc(ctx, commitment)
	}
	return &rpc.GetLatestBlockhashResult{Value: &rpc.LatestBlockhashResult{Blockhash: sol.Hash{7}, LastValidBlockHeight: 1000}}, nil
}

func (m *mockRPC) GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	if m.GetBlockHeightFunc != nil {
		return m.GetBlockHeightFunc(ctx, commitment)
	}
	return 0, nil
}

func (m *mockRPC) SendRawTransactionWithOpts(ctx context.Context, rawTx []byte, opts rpc.TransactionOpts) (sol.Signature, error) {
	if m.SendRawTransactionWithOptsFunc != nil {
		return m.SendRawTransactionWithOptsFunc(ctx, rawTx, opts)
	}
	return sol.Signature{}, nil
}

func (m *mockRPC) GetSignatureStatuses(ctx context.Context, search bool, sigs ...sol.Signature) (*rpc.GetSignatureStatusesResult, error) {
	if m.GetSignatureStatusesFunc != nil {
		return m.GetSignatureStatusesFunc(ctx, search, sigs...)
	}
	return &rpc.GetSignatureStatusesResult{Value: []*rpc.SignatureStatusesResult{nil}}, nil
}

func (m *mockRPC) GetSignaturesForAddressWithOpts(ctx context.Context, account sol.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
	if m.GetSignaturesForAddressWithOptsFunc != nil {
		return m.GetSignaturesForAddressWithOptsFunc(ctx, account, opts)
	}
	return nil, nil
}

func (m *mockRPC) GetTransaction(ctx context.Context, sig sol.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, sig, opts)
	}
	return nil, rpc.ErrNotFound
}
