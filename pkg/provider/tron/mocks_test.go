package tron

import (
	"github.com/fbsobreira/gotron-sdk/pkg/proto/api"
	"github.com/fbsobreira/gotron-sdk/pkg/proto/core"
)

type mockNode struct {
	TransferFunc               func(from, to string, amount int64) (*api.TransactionExtention, error)
	BroadcastFunc              func(tx *core.Transaction) (*api.Return, error)
	GetTransactionInfoByIDFunc func(id string) (*core.TransactionInfo, error)
	GetNowBlockFunc            func() (*api.BlockExtention, error)
	GetAccountFunc             func(addr string) (*core.Account, error)
}

func (m *mockNode) Transfer(from, to string, amount int64) (*api.TransactionExtention, error) {
	if m.TransferFunc != nil {
		return m.TransferFunc(from, to, amount)
	}
	return &api.TransactionExtention{
		Transaction: &core.Transaction{RawData: &core.TransactionRaw{RefBlockBytes: []byte{1, 2}, Timestamp: 1}},
		Result:      &api.Return{Result: true, Code: api.Return_SUCCESS},
	}, nil
}

func (m *mockNode) Broadcast(tx *core.Transaction) (*api.Return, error) {
	if m.BroadcastFunc != nil {
		return m.BroadcastFunc(tx)
	}
	return &api.Return{Result: true}, nil
}

func (m *mockNode) GetTransactionInfoByID(id string) (*core.TransactionInfo, error) {
	if m.GetTransactionInfoByIDFunc != nil {
		return m.GetTransactionInfoByIDFunc(id)
	}
	return &core.TransactionInfo{}, nil
}

func (m *mockNode) GetNowBlock() (*api.BlockExtention, error) {
	if m.GetNowBlockFunc != nil {
		return m.GetNowBlockFunc()
	}
	return blockAt(0), nil
}

func (m *mockNode) GetAccount(addr string) (*core.Account, error) {
	if m.GetAccountFunc != nil {
		return m.GetAccountFunc(addr)
	}
	return &core.Account{}, nil
}

func blockAt(n int64) *api.BlockExtention {
	return &api.BlockExtention{BlockHeader: &core.BlockHeader{RawData: &core.BlockHeaderRaw{Number: n}}}
}
