package memstore

import (
	"maps"

	"github.com/chainsafe/custody-ledger/pkg/conversion"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/deposit"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
	"github.com/chainsafe/custody-ledger/pkg/settlement"
	"github.com/chainsafe/custody-ledger/pkg/user"
	"github.com/chainsafe/custody-ledger/pkg/withdrawal"
)

type data struct {
	balances map[balanceKey]*ledger.Balance
	pools    map[currency.Symbol]*ledger.Pool
	journal  []*ledger.Entry

	conversions []*conversion.Record

	addresses     map[string]*deposit.ReceiveAddress
	addressByUser map[addressKey]string
	cursors       map[cursorKey]string
	deposits      map[string]*deposit.Deposit
	depositOrder  []string

	withdrawals     map[string]*withdrawal.Withdrawal
	withdrawalOrder []string
	transitions     []*withdrawal.Transition

	bets     map[string]*settlement.Bet
	betOrder []string

	users       map[string]*user.User
	userOrder   []string
	usernames   map[string]string
	walletOwner map[walletKey]string
}

func newData() *data {
	return &data{
		balances:      make(map[balanceKey]*ledger.Balance),
		pools:         make(map[currency.Symbol]*ledger.Pool),
		addresses:     make(map[string]*deposit.ReceiveAddress),
		addressByUser: make(map[addressKey]string),
		cursors:       make(map[cursorKey]string),
		deposits:      make(map[string]*deposit.Deposit),
		withdrawals:   make(map[string]*withdrawal.Withdrawal),
		bets:          make(map[string]*settlement.Bet),
		users:         make(map[string]*user.User),
		usernames:     make(map[string]string),
		walletOwner:   make(map[walletKey]string),
	}
}

// clone copies every mutable record so a failed transaction can be rolled
// back. Append-only slices share their elements.
func (d *data) clone() *data {
	c := newData()
	for k, v := range d.balances {
		cp := *v
		c.balances[k] = &cp
	}
	for k, v := range d.pools {
		cp := *v
		c.pools[k] = &cp
	}
	c.journal = append(c.journal, d.journal...)
	c.conversions = append(c.conversions, d.conversions...)

	for k, v := range d.addresses {
		c.addresses[k] = cloneAddress(v)
	}
	maps.Copy(c.addressByUser, d.addressByUser)
	maps.Copy(c.cursors, d.cursors)
	for k, v := range d.deposits {
		c.deposits[k] = cloneDeposit(v)
	}
	c.depositOrder = append(c.depositOrder, d.depositOrder...)

	for k, v := range d.withdrawals {
		c.withdrawals[k] = cloneWithdrawal(v)
	}
	c.withdrawalOrder = append(c.withdrawalOrder, d.withdrawalOrder...)
	c.transitions = append(c.transitions, d.transitions...)

	for k, v := range d.bets {
		c.bets[k] = cloneBet(v)
	}
	c.betOrder = append(c.betOrder, d.betOrder...)

	for k, v := range d.users {
		c.users[k] = cloneUser(v)
	}
	c.userOrder = append(c.userOrder, d.userOrder...)
	maps.Copy(c.usernames, d.usernames)
	maps.Copy(c.walletOwner, d.walletOwner)
	return c
}
