package store

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"github.com/chainsafe/custody-ledger/pkg/conversion"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/deposit"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
	"github.com/chainsafe/custody-ledger/pkg/settlement"
	"github.com/chainsafe/custody-ledger/pkg/withdrawal"
)

// CurrencyDao pins the decimals of every currency that has ever held a balance.
type CurrencyDao struct {
	bun.BaseModel `bun:"table:currencies,alias:c"`
	Symbol        string    `bun:"symbol,pk,type:varchar(16)"`
	Decimals      int32     `bun:"decimals,notnull,use_zero"`
	Chain         string    `bun:"chain,notnull,type:varchar(16)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// BalanceDao maps to the balances table, one row per (user, currency).
type BalanceDao struct {
	bun.BaseModel `bun:"table:balances,alias:b"`
	UserID        string    `bun:"user_id,pk,type:varchar(36)"`
	Currency      string    `bun:"currency,pk,type:varchar(16)"`
	Deposit       int64     `bun:"deposit,notnull,use_zero"`
	Winnings      int64     `bun:"winnings,notnull,use_zero"`
	Gaming        int64     `bun:"gaming,notnull,use_zero"`
	Savings       int64     `bun:"savings,notnull,use_zero"`
	Liquidity     int64     `bun:"liquidity,notnull,use_zero"`
	Version       int64     `bun:"version,notnull,use_zero"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// PoolDao maps to the pools table.
type PoolDao struct {
	bun.BaseModel `bun:"table:pools,alias:p"`
	Currency      string    `bun:"currency,pk,type:varchar(16)"`
	Balance       int64     `bun:"balance,notnull,use_zero"`
	Escrow        int64     `bun:"escrow,notnull,use_zero"`
	PaidOut       int64     `bun:"paid_out,notnull,use_zero"`
	Version       int64     `bun:"version,notnull,use_zero"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// JournalDao maps to the append-only journal table.
type JournalDao struct {
	bun.BaseModel `bun:"table:journal,alias:j"`
	ID            string    `bun:"id,pk,type:varchar(26)"`
	UserID        string    `bun:"user_id,notnull,type:varchar(36)"`
	Currency      string    `bun:"currency,notnull,type:varchar(16)"`
	SubBalance    string    `bun:"sub_balance,notnull,type:varchar(16)"`
	Amount        int64     `bun:"amount,notnull"`
	Cause         string    `bun:"cause,notnull,type:varchar(32)"`
	Ref           string    `bun:"ref,type:varchar(128)"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// ReceiveAddressDao maps to the receive_addresses table.
type ReceiveAddressDao struct {
	bun.BaseModel       `bun:"table:receive_addresses,alias:ra"`
	UserID              string     `bun:"user_id,pk,type:varchar(36)"`
	Chain               string     `bun:"chain,pk,type:varchar(16)"`
	Address             string     `bun:"address,notnull,unique,type:varchar(128)"`
	EncryptedKey        string     `bun:"encrypted_key,notnull"`
	CreatedAt           time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	LastCreditAttemptAt *time.Time `bun:"last_credit_attempt_at"`
	LastCreditTxID      string     `bun:"last_credit_tx_id,type:varchar(128)"`
}

// ScanCursorDao stores the provider cursor per (address, currency).
type ScanCursorDao struct {
	bun.BaseModel `bun:"table:scan_cursors,alias:sc"`
	Address       string    `bun:"address,pk,type:varchar(128)"`
	Currency      string    `bun:"currency,pk,type:varchar(16)"`
	Cursor        string    `bun:"cursor,notnull"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// DepositDao maps to the deposits table, keyed by chain transaction id.
type DepositDao struct {
	bun.BaseModel `bun:"table:deposits,alias:d"`
	TxID          string     `bun:"tx_id,pk,type:varchar(128)"`
	Currency      string     `bun:"currency,notnull,type:varchar(16)"`
	UserID        string     `bun:"user_id,notnull,type:varchar(36)"`
	Address       string     `bun:"address,notnull,type:varchar(128)"`
	Amount        int64      `bun:"amount,notnull"`
	Confirmations int64      `bun:"confirmations,notnull,use_zero"`
	State         string     `bun:"state,notnull,type:varchar(16)"`
	Reason        string     `bun:"reason"`
	FirstSeen     time.Time  `bun:"first_seen,notnull"`
	CreditedAt    *time.Time `bun:"credited_at"`
}

// WithdrawalDao maps to the withdrawals table.
type WithdrawalDao struct {
	bun.BaseModel   `bun:"table:withdrawals,alias:w"`
	ID              string     `bun:"id,pk,type:varchar(26)"`
	UserID          string     `bun:"user_id,notnull,type:varchar(36)"`
	Currency        string     `bun:"currency,notnull,type:varchar(16)"`
	Amount          int64      `bun:"amount,notnull"`
	SubBalance      string     `bun:"sub_balance,notnull,type:varchar(16)"`
	Destination     string     `bun:"destination,notnull,type:varchar(128)"`
	State           string     `bun:"state,notnull,type:varchar(20)"`
	IdempotencyKey  string     `bun:"idempotency_key,type:varchar(128)"`
	SignedTxID      string     `bun:"signed_tx_id,type:varchar(128)"`
	SignedTx        []byte     `bun:"signed_tx,type:bytea"`
	LastValidHeight uint64     `bun:"last_valid_height,notnull,use_zero"`
	NotAfter        *time.Time `bun:"not_after"`
	ProviderTxID    string     `bun:"provider_tx_id,type:varchar(128)"`
	Confirmations   int64      `bun:"confirmations,notnull,use_zero"`
	FailureKind     string     `bun:"failure_kind,type:varchar(32)"`
	FailureReason   string     `bun:"failure_reason"`
	LastError       string     `bun:"last_error"`
	AttemptCount    int        `bun:"attempt_count,notnull,use_zero"`
	NextAttemptAt   time.Time  `bun:"next_attempt_at,notnull"`
	LeaseUntil      *time.Time `bun:"lease_until"`
	CreatedAt       time.Time  `bun:"created_at,notnull"`
	ReservedAt      *time.Time `bun:"reserved_at"`
	SignedAt        *time.Time `bun:"signed_at"`
	BroadcastAt     *time.Time `bun:"broadcast_at"`
	ConfirmedAt     *time.Time `bun:"confirmed_at"`
	FinalizedAt     *time.Time `bun:"finalized_at"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull"`
}

// TransitionDao records one withdrawal state change.
type TransitionDao struct {
	bun.BaseModel `bun:"table:withdrawal_transitions,alias:wt"`
	ID            int64     `bun:"id,pk,autoincrement"`
	WithdrawalID  string    `bun:"withdrawal_id,notnull,type:varchar(26)"`
	FromState     string    `bun:"from_state,notnull,type:varchar(20)"`
	ToState       string    `bun:"to_state,notnull,type:varchar(20)"`
	Note          string    `bun:"note"`
	At            time.Time `bun:"at,notnull"`
}

// ConversionDao maps to the conversions table.
type ConversionDao struct {
	bun.BaseModel `bun:"table:conversions,alias:cv"`
	ID            string    `bun:"id,pk,type:varchar(26)"`
	UserID        string    `bun:"user_id,notnull,type:varchar(36)"`
	FromCurrency  string    `bun:"from_currency,notnull,type:varchar(16)"`
	FromAmount    int64     `bun:"from_amount,notnull"`
	ToCurrency    string    `bun:"to_currency,notnull,type:varchar(16)"`
	ToAmount      int64     `bun:"to_amount,notnull"`
	RateScaled    string    `bun:"rate_scaled,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull"`
}

// BetDao maps to the bets table.
type BetDao struct {
	bun.BaseModel  `bun:"table:bets,alias:bt"`
	ID             string          `bun:"id,pk,type:varchar(26)"`
	UserID         string          `bun:"user_id,notnull,type:varchar(36)"`
	Game           string          `bun:"game,notnull,type:varchar(64)"`
	Currency       string          `bun:"currency,notnull,type:varchar(16)"`
	Stake          int64           `bun:"stake,notnull"`
	Params         json.RawMessage `bun:"params,type:jsonb"`
	State          string          `bun:"state,notnull,type:varchar(16)"`
	Outcome        string          `bun:"outcome,type:varchar(8)"`
	Payout         int64           `bun:"payout,notnull,use_zero"`
	SavingsShare   int64           `bun:"savings_share,notnull,use_zero"`
	LiquidityShare int64           `bun:"liquidity_share,notnull,use_zero"`
	Note           string          `bun:"note"`
	CreatedAt      time.Time       `bun:"created_at,notnull"`
	SettledAt      *time.Time      `bun:"settled_at"`
}

func toBalanceDao(b *ledger.Balance) *BalanceDao {
	return &BalanceDao{
		UserID:    b.UserID,
		Currency:  string(b.Currency),
		Deposit:   b.Deposit,
		Winnings:  b.Winnings,
		Gaming:    b.Gaming,
		Savings:   b.Savings,
		Liquidity: b.Liquidity,
		Version:   b.Version,
		UpdatedAt: b.UpdatedAt,
	}
}

func fromBalanceDao(d *BalanceDao) *ledger.Balance {
	return &ledger.Balance{
		UserID:    d.UserID,
		Currency:  currency.Symbol(d.Currency),
		Deposit:   d.Deposit,
		Winnings:  d.Winnings,
		Gaming:    d.Gaming,
		Savings:   d.Savings,
		Liquidity: d.Liquidity,
		Version:   d.Version,
		UpdatedAt: d.UpdatedAt,
	}
}

func toPoolDao(p *ledger.Pool) *PoolDao {
	return &PoolDao{
		Currency:  string(p.Currency),
		Balance:   p.Balance,
		Escrow:    p.Escrow,
		PaidOut:   p.PaidOut,
		Version:   p.Version,
		UpdatedAt: p.UpdatedAt,
	}
}

func fromPoolDao(d *PoolDao) *ledger.Pool {
	return &ledger.Pool{
		Currency:  currency.Symbol(d.Currency),
		Balance:   d.Balance,
		Escrow:    d.Escrow,
		PaidOut:   d.PaidOut,
		Version:   d.Version,
		UpdatedAt: d.UpdatedAt,
	}
}

func toJournalDao(e *ledger.Entry) *JournalDao {
	return &JournalDao{
		ID:         e.ID,
		UserID:     e.UserID,
		Currency:   string(e.Currency),
		SubBalance: string(e.SubBalance),
		Amount:     e.Amount,
		Cause:      string(e.Cause),
		Ref:        e.Ref,
		CreatedAt:  e.CreatedAt,
	}
}

func fromJournalDao(d *JournalDao) *ledger.Entry {
	return &ledger.Entry{
		ID:         d.ID,
		UserID:     d.UserID,
		Currency:   currency.Symbol(d.Currency),
		SubBalance: ledger.SubBalance(d.SubBalance),
		Amount:     d.Amount,
		Cause:      ledger.Cause(d.Cause),
		Ref:        d.Ref,
		CreatedAt:  d.CreatedAt,
	}
}

func toReceiveAddressDao(a *deposit.ReceiveAddress) *ReceiveAddressDao {
	return &ReceiveAddressDao{
		UserID:              a.UserID,
		Chain:               string(a.Chain),
		Address:             a.Address,
		EncryptedKey:        a.EncryptedKey,
		CreatedAt:           a.CreatedAt,
		LastCreditAttemptAt: a.LastCreditAttemptAt,
		LastCreditTxID:      a.LastCreditTxID,
	}
}

func fromReceiveAddressDao(d *ReceiveAddressDao) *deposit.ReceiveAddress {
	return &deposit.ReceiveAddress{
		UserID:              d.UserID,
		Chain:               currency.Chain(d.Chain),
		Address:             d.Address,
		EncryptedKey:        d.EncryptedKey,
		CreatedAt:           d.CreatedAt,
		LastCreditAttemptAt: d.LastCreditAttemptAt,
		LastCreditTxID:      d.LastCreditTxID,
	}
}

func toDepositDao(d *deposit.Deposit) *DepositDao {
	return &DepositDao{
		TxID:          d.TxID,
		Currency:      string(d.Currency),
		UserID:        d.UserID,
		Address:       d.Address,
		Amount:        d.Amount,
		Confirmations: d.Confirmations,
		State:         string(d.State),
		Reason:        d.Reason,
		FirstSeen:     d.FirstSeen,
		CreditedAt:    d.CreditedAt,
	}
}

func fromDepositDao(d *DepositDao) *deposit.Deposit {
	return &deposit.Deposit{
		TxID:          d.TxID,
		Currency:      currency.Symbol(d.Currency),
		UserID:        d.UserID,
		Address:       d.Address,
		Amount:        d.Amount,
		Confirmations: d.Confirmations,
		State:         deposit.State(d.State),
		Reason:        d.Reason,
		FirstSeen:     d.FirstSeen,
		CreditedAt:    d.CreditedAt,
	}
}

func toWithdrawalDao(w *withdrawal.Withdrawal) *WithdrawalDao {
	return &WithdrawalDao{
		ID:              w.ID,
		UserID:          w.UserID,
		Currency:        string(w.Currency),
		Amount:          w.Amount,
		SubBalance:      string(w.SubBalance),
		Destination:     w.Destination,
		State:           string(w.State),
		IdempotencyKey:  w.IdempotencyKey,
		SignedTxID:      w.SignedTxID,
		SignedTx:        w.SignedTx,
		LastValidHeight: w.LastValidHeight,
		NotAfter:        w.NotAfter,
		ProviderTxID:    w.ProviderTxID,
		Confirmations:   w.Confirmations,
		FailureKind:     string(w.FailureKind),
		FailureReason:   w.FailureReason,
		LastError:       w.LastError,
		AttemptCount:    w.AttemptCount,
		NextAttemptAt:   w.NextAttemptAt,
		LeaseUntil:      w.LeaseUntil,
		CreatedAt:       w.CreatedAt,
		ReservedAt:      w.ReservedAt,
		SignedAt:        w.SignedAt,
		BroadcastAt:     w.BroadcastAt,
		ConfirmedAt:     w.ConfirmedAt,
		FinalizedAt:     w.FinalizedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

func fromWithdrawalDao(d *WithdrawalDao) *withdrawal.Withdrawal {
	return &withdrawal.Withdrawal{
		ID:              d.ID,
		UserID:          d.UserID,
		Currency:        currency.Symbol(d.Currency),
		Amount:          d.Amount,
		SubBalance:      ledger.SubBalance(d.SubBalance),
		Destination:     d.Destination,
		State:           withdrawal.State(d.State),
		IdempotencyKey:  d.IdempotencyKey,
		SignedTxID:      d.SignedTxID,
		SignedTx:        d.SignedTx,
		LastValidHeight: d.LastValidHeight,
		NotAfter:        d.NotAfter,
		ProviderTxID:    d.ProviderTxID,
		Confirmations:   d.Confirmations,
		FailureKind:     withdrawal.FailureKind(d.FailureKind),
		FailureReason:   d.FailureReason,
		LastError:       d.LastError,
		AttemptCount:    d.AttemptCount,
		NextAttemptAt:   d.NextAttemptAt,
		LeaseUntil:      d.LeaseUntil,
		CreatedAt:       d.CreatedAt,
		ReservedAt:      d.ReservedAt,
		SignedAt:        d.SignedAt,
		BroadcastAt:     d.BroadcastAt,
		ConfirmedAt:     d.ConfirmedAt,
		FinalizedAt:     d.FinalizedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func fromTransitionDao(d *TransitionDao) *withdrawal.Transition {
	return &withdrawal.Transition{
		WithdrawalID: d.WithdrawalID,
		From:         withdrawal.State(d.FromState),
		To:           withdrawal.State(d.ToState),
		Note:         d.Note,
		At:           d.At,
	}
}

func toConversionDao(r *conversion.Record) *ConversionDao {
	return &ConversionDao{
		ID:           r.ID,
		UserID:       r.UserID,
		FromCurrency: string(r.From),
		FromAmount:   r.FromAmount,
		ToCurrency:   string(r.To),
		ToAmount:     r.ToAmount,
		RateScaled:   r.RateScaled,
		CreatedAt:    r.CreatedAt,
	}
}

func fromConversionDao(d *ConversionDao) *conversion.Record {
	return &conversion.Record{
		ID:         d.ID,
		UserID:     d.UserID,
		From:       currency.Symbol(d.FromCurrency),
		FromAmount: d.FromAmount,
		To:         currency.Symbol(d.ToCurrency),
		ToAmount:   d.ToAmount,
		RateScaled: d.RateScaled,
		CreatedAt:  d.CreatedAt,
	}
}

func toBetDao(b *settlement.Bet) *BetDao {
	return &BetDao{
		ID:             b.ID,
		UserID:         b.UserID,
		Game:           b.Game,
		Currency:       string(b.Currency),
		Stake:          b.Stake,
		Params:         b.Params,
		State:          string(b.State),
		Outcome:        string(b.Outcome),
		Payout:         b.Payout,
		SavingsShare:   b.SavingsShare,
		LiquidityShare: b.LiquidityShare,
		Note:           b.Note,
		CreatedAt:      b.CreatedAt,
		SettledAt:      b.SettledAt,
	}
}

func fromBetDao(d *BetDao) *settlement.Bet {
	return &settlement.Bet{
		ID:             d.ID,
		UserID:         d.UserID,
		Game:           d.Game,
		Currency:       currency.Symbol(d.Currency),
		Stake:          d.Stake,
		Params:         d.Params,
		State:          settlement.State(d.State),
		Outcome:        settlement.Outcome(d.Outcome),
		Payout:         d.Payout,
		SavingsShare:   d.SavingsShare,
		LiquidityShare: d.LiquidityShare,
		Note:           d.Note,
		CreatedAt:      d.CreatedAt,
		SettledAt:      d.SettledAt,
	}
}
