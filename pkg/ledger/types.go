package ledger

import (
	"fmt"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/currency"
)

// SubBalance names one of the five buckets a user's funds occupy per currency.
type SubBalance string

const (
	SubDeposit   SubBalance = "deposit"
	SubWinnings  SubBalance = "winnings"
	SubGaming    SubBalance = "gaming"
	SubSavings   SubBalance = "savings"
	SubLiquidity SubBalance = "liquidity"
)

// SubBalances lists every sub-balance in display order.
var SubBalances = []SubBalance{SubDeposit, SubWinnings, SubGaming, SubSavings, SubLiquidity}

// ParseSubBalance validates a sub-balance name from the request boundary.
func ParseSubBalance(s string) (SubBalance, error) {
	for _, sb := range SubBalances {
		if string(sb) == s {
			return sb, nil
		}
	}
	return "", fmt.Errorf("unknown sub-balance %q", s)
}

// Withdrawable reports whether funds may leave the system from this sub-balance.
func (s SubBalance) Withdrawable() bool {
	return s == SubDeposit || s == SubWinnings
}

// Cause tags every journal entry with the reason for the mutation.
type Cause string

const (
	CauseDeposit          Cause = "deposit"
	CauseConversionIn     Cause = "conversion_in"
	CauseConversionOut    Cause = "conversion_out"
	CauseBetStake         Cause = "bet_stake"
	CauseBetWin           Cause = "bet_win"
	CauseBetRelease       Cause = "bet_release"
	CauseBetLossSave      Cause = "bet_loss_save"
	CauseBetLossPool      Cause = "bet_loss_pool"
	CauseWithdrawReserve  Cause = "withdraw_reserve"
	CauseWithdrawFinalize Cause = "withdraw_finalize"
	CauseWithdrawRefund   Cause = "withdraw_refund"
	CauseLiquidityCommit  Cause = "liquidity_commit"
	CauseLiquidityRelease Cause = "liquidity_release"
	CauseSavingsRelease   Cause = "savings_release"
	CauseAdminAdjust      Cause = "admin_adjust"
)

// Balance is one user's holdings of one currency.
type Balance struct {
	UserID    string
	Currency  currency.Symbol
	Deposit   int64
	Winnings  int64
	Gaming    int64
	Savings   int64
	Liquidity int64
	Version   int64
	UpdatedAt time.Time
}

// Get returns the named sub-balance.
func (b *Balance) Get(sub SubBalance) int64 {
	switch sub {
	case SubDeposit:
		return b.Deposit
	case SubWinnings:
		return b.Winnings
	case SubGaming:
		return b.Gaming
	case SubSavings:
		return b.Savings
	case SubLiquidity:
		return b.Liquidity
	}
	return 0
}

func (b *Balance) set(sub SubBalance, v int64) {
	switch sub {
	case SubDeposit:
		b.Deposit = v
	case SubWinnings:
		b.Winnings = v
	case SubGaming:
		b.Gaming = v
	case SubSavings:
		b.Savings = v
	case SubLiquidity:
		b.Liquidity = v
	}
}

// Total sums the five sub-balances.
func (b *Balance) Total() int64 {
	return b.Deposit + b.Winnings + b.Gaming + b.Savings + b.Liquidity
}

// Pool is the process-wide liquidity pool for one currency.
// Balance always equals the sum of every user's liquidity sub-balance.
// Escrow holds amounts earmarked by in-flight withdrawals and PaidOut the
// finalized outflow not yet replenished into the hot wallet.
type Pool struct {
	Currency  currency.Symbol
	Balance   int64
	Escrow    int64
	PaidOut   int64
	Version   int64
	UpdatedAt time.Time
}

// Available is the withdrawal ceiling for the currency.
func (p *Pool) Available() int64 {
	return p.Balance - p.Escrow - p.PaidOut
}

// Entry is an append-only journal record of a single sub-balance change.
type Entry struct {
	ID         string
	UserID     string
	Currency   currency.Symbol
	SubBalance SubBalance
	Amount     int64
	Cause      Cause
	Ref        string
	CreatedAt  time.Time
}
