package api_test

import (
	"context"

	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/deposit"
	"github.com/chainsafe/custody-ledger/pkg/withdrawal"
)

type fakeWithdrawals struct {
	RequestFn func(ctx context.Context, req withdrawal.Request) (*withdrawal.Withdrawal, error)
	GetFn     func(ctx context.Context, id string) (*withdrawal.Withdrawal, error)
	ListFn    func(ctx context.Context, f withdrawal.Filter) ([]*withdrawal.Withdrawal, error)
	HistoryFn func(ctx context.Context, id string) ([]*withdrawal.Transition, error)
	RetryFn   func(ctx context.Context, id string) (*withdrawal.Withdrawal, error)
}

func (f *fakeWithdrawals) Request(ctx context.Context, req withdrawal.Request) (*withdrawal.Withdrawal, error) {
	return f.RequestFn(ctx, req)
}

func (f *fakeWithdrawals) Get(ctx context.Context, id string) (*withdrawal.Withdrawal, error) {
	return f.GetFn(ctx, id)
}

func (f *fakeWithdrawals) List(ctx context.Context, filter withdrawal.Filter) ([]*withdrawal.Withdrawal, error) {
	return f.ListFn(ctx, filter)
}

func (f *fakeWithdrawals) History(ctx context.Context, id string) ([]*withdrawal.Transition, error) {
	return f.HistoryFn(ctx, id)
}

func (f *fakeWithdrawals) Retry(ctx context.Context, id string) (*withdrawal.Withdrawal, error) {
	return f.RetryFn(ctx, id)
}

type fakeAddresses struct {
	ReceiveAddressFn func(ctx context.Context, userID string, sym currency.Symbol) (*deposit.AddressInfo, error)
}

func (f *fakeAddresses) ReceiveAddress(ctx context.Context, userID string, sym currency.Symbol) (*deposit.AddressInfo, error) {
	return f.ReceiveAddressFn(ctx, userID, sym)
}

type fakeDeposits struct {
	ManualVerifyFn func(ctx context.Context, req deposit.VerifyRequest) ([]*deposit.Deposit, error)
	ListFn         func(ctx context.Context, f deposit.Filter) ([]*deposit.Deposit, error)
}

func (f *fakeDeposits) ManualVerify(ctx context.Context, req deposit.VerifyRequest) ([]*deposit.Deposit, error) {
	return f.ManualVerifyFn(ctx, req)
}

func (f *fakeDeposits) List(ctx context.Context, filter deposit.Filter) ([]*deposit.Deposit, error) {
	return f.ListFn(ctx, filter)
}
