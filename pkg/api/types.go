package api

import (
	"encoding/json"
	"time"

	"github.com/chainsafe/custody-ledger/pkg/audit"
	"github.com/chainsafe/custody-ledger/pkg/conversion"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/deposit"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
	"github.com/chainsafe/custody-ledger/pkg/settlement"
	"github.com/chainsafe/custody-ledger/pkg/withdrawal"
)

// Requests. Amounts are base units.

type ConvertRequest struct {
	From   string `json:"from" validate:"required"`
	To     string `json:"to" validate:"required"`
	Amount int64  `json:"amount" validate:"gt=0"`
}

type QuoteRequest struct {
	From   string
	To     string
	Amount int64
}

type WithdrawRequest struct {
	Currency           string `json:"currency" validate:"required"`
	Amount             int64  `json:"amount" validate:"gt=0"`
	DestinationAddress string `json:"destination_address" validate:"required"`
	SubBalance         string `json:"sub_balance,omitempty"`
}

type BetRequest struct {
	Game     string          `json:"game" validate:"required,max=64"`
	Currency string          `json:"currency" validate:"required"`
	Stake    int64           `json:"stake" validate:"gt=0"`
	Params   json.RawMessage `json:"params,omitempty"`
}

// ManualVerifyRequest names either a transaction or the receive address.
type ManualVerifyRequest struct {
	Currency string `json:"currency" validate:"required"`
	TxID     string `json:"txid,omitempty"`
	Address  string `json:"address,omitempty"`
}

type SavingsRequest struct {
	Currency string `json:"currency" validate:"required"`
	Amount   int64  `json:"amount" validate:"gt=0"`
}

// Liquidity directions.
const (
	DirectionReserve = "reserve"
	DirectionRelease = "release"
)

type LiquidityRequest struct {
	Currency  string `json:"currency" validate:"required"`
	Amount    int64  `json:"amount" validate:"gt=0"`
	Direction string `json:"direction" validate:"required,oneof=reserve release"`
}

// AdjustRequest is an operator correction. A positive amount credits, a
// negative one debits.
type AdjustRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	Currency   string `json:"currency" validate:"required"`
	SubBalance string `json:"sub_balance" validate:"required"`
	Amount     int64  `json:"amount" validate:"ne=0"`
	Reason     string `json:"reason" validate:"required,max=256"`
}

type ReplenishRequest struct {
	Amount int64 `json:"amount" validate:"gt=0"`
}

// Responses.

type BalanceView struct {
	Currency  string `json:"currency"`
	Decimals  int32  `json:"decimals"`
	Deposit   int64  `json:"deposit"`
	Winnings  int64  `json:"winnings"`
	Gaming    int64  `json:"gaming"`
	Savings   int64  `json:"savings"`
	Liquidity int64  `json:"liquidity"`
	Total     int64  `json:"total"`
	// PoolAvailable is the currency's current withdrawal ceiling.
	PoolAvailable int64 `json:"pool_available"`
}

type WalletResponse struct {
	UserID   string         `json:"user_id"`
	Balances []*BalanceView `json:"balances"`
}

type PoolView struct {
	Currency  string    `json:"currency"`
	Balance   int64     `json:"balance"`
	Escrow    int64     `json:"escrow"`
	PaidOut   int64     `json:"paid_out"`
	Available int64     `json:"available"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ConversionResponse struct {
	ID         string    `json:"id,omitempty"`
	From       string    `json:"from"`
	FromAmount int64     `json:"from_amount"`
	To         string    `json:"to"`
	ToAmount   int64     `json:"to_amount"`
	RateScaled string    `json:"rate_scaled"`
	At         time.Time `json:"at"`
}

type TransitionView struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	Note string    `json:"note,omitempty"`
	At   time.Time `json:"at"`
}

type WithdrawalResponse struct {
	ID            string            `json:"id"`
	Currency      string            `json:"currency"`
	Amount        int64             `json:"amount"`
	SubBalance    string            `json:"sub_balance"`
	Destination   string            `json:"destination_address"`
	State         string            `json:"state"`
	ProviderTxID  string            `json:"provider_txid,omitempty"`
	Broadcast     bool              `json:"broadcast"`
	Confirmations int64             `json:"confirmations"`
	FailureKind   string            `json:"failure_kind,omitempty"`
	FailureReason string            `json:"failure_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Transitions   []*TransitionView `json:"transitions,omitempty"`
}

type BetResponse struct {
	ID             string     `json:"id"`
	Game           string     `json:"game"`
	Currency       string     `json:"currency"`
	Stake          int64      `json:"stake"`
	State          string     `json:"state"`
	Outcome        string     `json:"outcome,omitempty"`
	Payout         int64      `json:"payout"`
	SavingsShare   int64      `json:"savings_share"`
	LiquidityShare int64      `json:"liquidity_share"`
	CreatedAt      time.Time  `json:"created_at"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
}

type AddressResponse struct {
	Currency         string `json:"currency"`
	Chain            string `json:"chain"`
	Address          string `json:"address"`
	MinDeposit       int64  `json:"min_deposit"`
	MinConfirmations int64  `json:"min_confirmations"`
}

type DepositView struct {
	TxID          string     `json:"txid"`
	Currency      string     `json:"currency"`
	Address       string     `json:"address"`
	Amount        int64      `json:"amount"`
	Confirmations int64      `json:"confirmations"`
	State         string     `json:"state"`
	Reason        string     `json:"reason,omitempty"`
	FirstSeen     time.Time  `json:"first_seen"`
	CreditedAt    *time.Time `json:"credited_at,omitempty"`
}

type JournalEntryView struct {
	ID         string    `json:"id"`
	Currency   string    `json:"currency"`
	SubBalance string    `json:"sub_balance"`
	Amount     int64     `json:"amount"`
	Cause      string    `json:"cause"`
	Ref        string    `json:"ref,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type JournalPage struct {
	Entries []*JournalEntryView `json:"entries"`
	// Next is the cursor for the following page, empty on the last one.
	Next string `json:"next,omitempty"`
}

type ViolationView struct {
	Check      string `json:"check"`
	UserID     string `json:"user_id,omitempty"`
	Currency   string `json:"currency"`
	SubBalance string `json:"sub_balance,omitempty"`
	Stored     int64  `json:"stored"`
	Expected   int64  `json:"expected"`
}

type VoidBetsResponse struct {
	Voided int `json:"voided"`
}

type AuditResponse struct {
	OK         bool             `json:"ok"`
	CheckedAt  time.Time        `json:"checked_at"`
	DurationMS int64            `json:"duration_ms"`
	Balances   int              `json:"balances"`
	Pools      int              `json:"pools"`
	Violations []*ViolationView `json:"violations"`
}

func toBalanceView(b *ledger.Balance, cur currency.Currency, available int64) *BalanceView {
	return &BalanceView{
		Currency:      string(b.Currency),
		Decimals:      cur.Decimals,
		Deposit:       b.Deposit,
		Winnings:      b.Winnings,
		Gaming:        b.Gaming,
		Savings:       b.Savings,
		Liquidity:     b.Liquidity,
		Total:         b.Total(),
		PoolAvailable: available,
	}
}

func toPoolView(p *ledger.Pool) *PoolView {
	return &PoolView{
		Currency:  string(p.Currency),
		Balance:   p.Balance,
		Escrow:    p.Escrow,
		PaidOut:   p.PaidOut,
		Available: p.Available(),
		UpdatedAt: p.UpdatedAt,
	}
}

func fromRecord(r *conversion.Record) *ConversionResponse {
	return &ConversionResponse{
		ID:         r.ID,
		From:       string(r.From),
		FromAmount: r.FromAmount,
		To:         string(r.To),
		ToAmount:   r.ToAmount,
		RateScaled: r.RateScaled,
		At:         r.CreatedAt,
	}
}

func fromQuote(q *conversion.Quote) *ConversionResponse {
	return &ConversionResponse{
		From:       string(q.From),
		FromAmount: q.FromAmount,
		To:         string(q.To),
		ToAmount:   q.ToAmount,
		RateScaled: q.RateScaled,
		At:         q.PricedAt,
	}
}

func fromWithdrawal(w *withdrawal.Withdrawal) *WithdrawalResponse {
	return &WithdrawalResponse{
		ID:            w.ID,
		Currency:      string(w.Currency),
		Amount:        w.Amount,
		SubBalance:    string(w.SubBalance),
		Destination:   w.Destination,
		State:         string(w.State),
		ProviderTxID:  w.ProviderTxID,
		Broadcast:     w.Broadcast(),
		Confirmations: w.Confirmations,
		FailureKind:   string(w.FailureKind),
		FailureReason: w.FailureReason,
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
}

func fromTransitions(ts []*withdrawal.Transition) []*TransitionView {
	out := make([]*TransitionView, 0, len(ts))
	for _, t := range ts {
		out = append(out, &TransitionView{From: string(t.From), To: string(t.To), Note: t.Note, At: t.At})
	}
	return out
}

func fromBet(b *settlement.Bet) *BetResponse {
	return &BetResponse{
		ID:             b.ID,
		Game:           b.Game,
		Currency:       string(b.Currency),
		Stake:          b.Stake,
		State:          string(b.State),
		Outcome:        string(b.Outcome),
		Payout:         b.Payout,
		SavingsShare:   b.SavingsShare,
		LiquidityShare: b.LiquidityShare,
		CreatedAt:      b.CreatedAt,
		SettledAt:      b.SettledAt,
	}
}

func fromAddress(a *deposit.AddressInfo) *AddressResponse {
	return &AddressResponse{
		Currency:         string(a.Currency),
		Chain:            string(a.Chain),
		Address:          a.Address,
		MinDeposit:       a.MinDeposit,
		MinConfirmations: a.MinConfirmations,
	}
}

func fromDeposit(d *deposit.Deposit) *DepositView {
	return &DepositView{
		TxID:          d.TxID,
		Currency:      string(d.Currency),
		Address:       d.Address,
		Amount:        d.Amount,
		Confirmations: d.Confirmations,
		State:         string(d.State),
		Reason:        d.Reason,
		FirstSeen:     d.FirstSeen,
		CreditedAt:    d.CreditedAt,
	}
}

func fromEntry(e *ledger.Entry) *JournalEntryView {
	return &JournalEntryView{
		ID:         e.ID,
		Currency:   string(e.Currency),
		SubBalance: string(e.SubBalance),
		Amount:     e.Amount,
		Cause:      string(e.Cause),
		Ref:        e.Ref,
		CreatedAt:  e.CreatedAt,
	}
}

func fromReport(r *audit.Report) *AuditResponse {
	out := &AuditResponse{
		OK:         r.OK(),
		CheckedAt:  r.CheckedAt,
		DurationMS: r.Duration.Milliseconds(),
		Balances:   r.Balances,
		Pools:      r.Pools,
		Violations: make([]*ViolationView, 0, len(r.Violations)),
	}
	for _, v := range r.Violations {
		out.Violations = append(out.Violations, &ViolationView{
			Check:      string(v.Check),
			UserID:     v.UserID,
			Currency:   string(v.Currency),
			SubBalance: string(v.SubBalance),
			Stored:     v.Stored,
			Expected:   v.Expected,
		})
	}
	return out
}
