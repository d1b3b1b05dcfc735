// Package api is the HTTP/JSON and websocket shell over the custody ledger.
package api

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/pkg/audit"
	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/conversion"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/deposit"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
	"github.com/chainsafe/custody-ledger/pkg/settlement"
	"github.com/chainsafe/custody-ledger/pkg/withdrawal"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Service is the wallet API exposed to signed-in users.
//
//go:generate mockery --name Service --output mocks --outpkg mocks --filename mock_service.go --with-expecter
type Service interface {
	Wallet(ctx context.Context, userID string) (*WalletResponse, error)
	Quote(ctx context.Context, req *QuoteRequest) (*ConversionResponse, error)
	Convert(ctx context.Context, userID string, req *ConvertRequest) (*ConversionResponse, error)
	Conversions(ctx context.Context, userID string, limit int) ([]*ConversionResponse, error)
	Withdraw(ctx context.Context, userID string, req *WithdrawRequest) (*WithdrawalResponse, error)
	Withdrawal(ctx context.Context, userID, id string) (*WithdrawalResponse, error)
	Withdrawals(ctx context.Context, userID string, limit int) ([]*WithdrawalResponse, error)
	PlaceBet(ctx context.Context, userID string, req *BetRequest) (*BetResponse, error)
	Bets(ctx context.Context, userID string, limit int) ([]*BetResponse, error)
	DepositAddress(ctx context.Context, userID, cur string) (*AddressResponse, error)
	ManualVerify(ctx context.Context, userID string, req *ManualVerifyRequest) ([]*DepositView, error)
	Deposits(ctx context.Context, userID string, limit int) ([]*DepositView, error)
	ReleaseSavings(ctx context.Context, userID string, req *SavingsRequest) (*WalletResponse, error)
	Liquidity(ctx context.Context, userID string, req *LiquidityRequest) (*WalletResponse, error)
	Journal(ctx context.Context, userID string, limit int, before string) (*JournalPage, error)
}

// Admin is the operator API.
//
//go:generate mockery --name Admin --output mocks --outpkg mocks --filename mock_admin.go --with-expecter
type Admin interface {
	Adjust(ctx context.Context, req *AdjustRequest) (*BalanceView, error)
	Pools(ctx context.Context) ([]*PoolView, error)
	Replenish(ctx context.Context, cur string, amount int64) (*PoolView, error)
	Audit(ctx context.Context) (*AuditResponse, error)
	RetryWithdrawal(ctx context.Context, id string) (*WithdrawalResponse, error)
	VoidStaleBets(ctx context.Context) (*VoidBetsResponse, error)
}

// Converter prices and executes conversions.
type Converter interface {
	Quote(ctx context.Context, from, to currency.Symbol, amount int64) (*conversion.Quote, error)
	Convert(ctx context.Context, userID string, from, to currency.Symbol, amount int64) (*conversion.Record, error)
	History(ctx context.Context, userID string, limit int) ([]*conversion.Record, error)
}

// Withdrawals drives outbound transfers.
type Withdrawals interface {
	Request(ctx context.Context, req withdrawal.Request) (*withdrawal.Withdrawal, error)
	Get(ctx context.Context, id string) (*withdrawal.Withdrawal, error)
	List(ctx context.Context, f withdrawal.Filter) ([]*withdrawal.Withdrawal, error)
	History(ctx context.Context, id string) ([]*withdrawal.Transition, error)
	Retry(ctx context.Context, id string) (*withdrawal.Withdrawal, error)
}

// Games stakes and settles bets and releases savings.
type Games interface {
	PlaceBet(ctx context.Context, req settlement.BetRequest) (*settlement.Bet, error)
	History(ctx context.Context, userID string, limit int) ([]*settlement.Bet, error)
	ReleaseSavings(ctx context.Context, userID string, cur currency.Symbol, amount int64) error
	VoidStale(ctx context.Context) (int, error)
}

// Addresses hands out receive addresses.
type Addresses interface {
	ReceiveAddress(ctx context.Context, userID string, sym currency.Symbol) (*deposit.AddressInfo, error)
}

// Deposits verifies and lists inbound transfers.
type Deposits interface {
	ManualVerify(ctx context.Context, req deposit.VerifyRequest) ([]*deposit.Deposit, error)
	List(ctx context.Context, f deposit.Filter) ([]*deposit.Deposit, error)
}

// Auditor runs the invariant checks.
type Auditor interface {
	Run(ctx context.Context) (*audit.Report, error)
}

// Deps are the components the API composes.
type Deps struct {
	Ledger      *ledger.Ledger
	Journal     ledger.Reader
	Converter   Converter
	Withdrawals Withdrawals
	Games       Games
	Addresses   Addresses
	Deposits    Deposits
	Auditor     Auditor
}

type custodyService struct {
	deps     Deps
	registry *currency.Registry
	logger   *zap.Logger
}

// NewService creates the user-facing API service.
func NewService(deps Deps, logger *zap.Logger) Service {
	return newCustodyService(deps, logger)
}

// NewAdmin creates the operator API service.
func NewAdmin(deps Deps, logger *zap.Logger) Admin {
	return newCustodyService(deps, logger)
}

func newCustodyService(deps Deps, logger *zap.Logger) *custodyService {
	return &custodyService{deps: deps, registry: deps.Ledger.Registry(), logger: logger}
}

func (s *custodyService) currency(raw string) (currency.Currency, error) {
	cur, err := s.registry.Parse(raw)
	if err != nil {
		return currency.Currency{}, apperrors.InvalidInputError(err, fmt.Sprintf("unknown currency %q", raw))
	}
	return cur, nil
}

func pageSize(limit int) int {
	if limit <= 0 {
		return defaultPageSize
	}
	return min(limit, maxPageSize)
}

func (s *custodyService) Wallet(ctx context.Context, userID string) (*WalletResponse, error) {
	balances, err := s.deps.Ledger.Wallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	pools, err := s.deps.Ledger.Pools(ctx)
	if err != nil {
		return nil, err
	}
	available := make(map[currency.Symbol]int64, len(pools))
	for _, p := range pools {
		available[p.Currency] = p.Available()
	}

	resp := &WalletResponse{UserID: userID, Balances: make([]*BalanceView, 0, len(balances))}
	for _, b := range balances {
		cur, err := s.registry.Get(b.Currency)
		if err != nil {
			continue
		}
		resp.Balances = append(resp.Balances, toBalanceView(b, cur, available[b.Currency]))
	}
	return resp, nil
}

func (s *custodyService) Quote(ctx context.Context, req *QuoteRequest) (*ConversionResponse, error) {
	from, err := s.currency(req.From)
	if err != nil {
		return nil, err
	}
	to, err := s.currency(req.To)
	if err != nil {
		return nil, err
	}
	q, err := s.deps.Converter.Quote(ctx, from.Symbol, to.Symbol, req.Amount)
	if err != nil {
		return nil, err
	}
	return fromQuote(q), nil
}

func (s *custodyService) Convert(ctx context.Context, userID string, req *ConvertRequest) (*ConversionResponse, error) {
	from, err := s.currency(req.From)
	if err != nil {
		return nil, err
	}
	to, err := s.currency(req.To)
	if err != nil {
		return nil, err
	}
	r, err := s.deps.Converter.Convert(ctx, userID, from.Symbol, to.Symbol, req.Amount)
	if err != nil {
		return nil, err
	}
	return fromRecord(r), nil
}

func (s *custodyService) Conversions(ctx context.Context, userID string, limit int) ([]*ConversionResponse, error) {
	records, err := s.deps.Converter.History(ctx, userID, pageSize(limit))
	if err != nil {
		return nil, err
	}
	out := make([]*ConversionResponse, 0, len(records))
	for _, r := range records {
		out = append(out, fromRecord(r))
	}
	return out, nil
}

func (s *custodyService) Withdraw(ctx context.Context, userID string, req *WithdrawRequest) (*WithdrawalResponse, error) {
	cur, err := s.currency(req.Currency)
	if err != nil {
		return nil, err
	}
	sub := ledger.SubDeposit
	if req.SubBalance != "" {
		if sub, err = ledger.ParseSubBalance(req.SubBalance); err != nil {
			return nil, apperrors.InvalidInputError(err, err.Error())
		}
	}
	w, err := s.deps.Withdrawals.Request(ctx, withdrawal.Request{
		UserID:      userID,
		Currency:    cur.Symbol,
		Amount:      req.Amount,
		Destination: strings.TrimSpace(req.DestinationAddress),
		SubBalance:  sub,
	})
	if err != nil {
		return nil, err
	}
	return fromWithdrawal(w), nil
}

func (s *custodyService) Withdrawal(ctx context.Context, userID, id string) (*WithdrawalResponse, error) {
	w, err := s.deps.Withdrawals.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.UserID != userID {
		return nil, apperrors.ResourceNotFoundError(nil, "withdrawal not found")
	}
	history, err := s.deps.Withdrawals.History(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := fromWithdrawal(w)
	resp.Transitions = fromTransitions(history)
	return resp, nil
}

func (s *custodyService) Withdrawals(ctx context.Context, userID string, limit int) ([]*WithdrawalResponse, error) {
	ws, err := s.deps.Withdrawals.List(ctx, withdrawal.Filter{UserID: userID, Limit: pageSize(limit)})
	if err != nil {
		return nil, err
	}
	out := make([]*WithdrawalResponse, 0, len(ws))
	for _, w := range ws {
		out = append(out, fromWithdrawal(w))
	}
	return out, nil
}

func (s *custodyService) PlaceBet(ctx context.Context, userID string, req *BetRequest) (*BetResponse, error) {
	cur, err := s.currency(req.Currency)
	if err != nil {
		return nil, err
	}
	b, err := s.deps.Games.PlaceBet(ctx, settlement.BetRequest{
		UserID:   userID,
		Game:     req.Game,
		Currency: cur.Symbol,
		Stake:    req.Stake,
		Params:   req.Params,
	})
	if err != nil {
		return nil, err
	}
	return fromBet(b), nil
}

func (s *custodyService) Bets(ctx context.Context, userID string, limit int) ([]*BetResponse, error) {
	bets, err := s.deps.Games.History(ctx, userID, pageSize(limit))
	if err != nil {
		return nil, err
	}
	out := make([]*BetResponse, 0, len(bets))
	for _, b := range bets {
		out = append(out, fromBet(b))
	}
	return out, nil
}

func (s *custodyService) DepositAddress(ctx context.Context, userID, raw string) (*AddressResponse, error) {
	cur, err := s.currency(raw)
	if err != nil {
		return nil, err
	}
	info, err := s.deps.Addresses.ReceiveAddress(ctx, userID, cur.Symbol)
	if err != nil {
		return nil, err
	}
	return fromAddress(info), nil
}

// ManualVerify reports the deposits it touched. A cooldown still returns
// them alongside the error.
func (s *custodyService) ManualVerify(ctx context.Context, userID string, req *ManualVerifyRequest) ([]*DepositView, error) {
	cur, err := s.currency(req.Currency)
	if err != nil {
		return nil, err
	}
	ds, err := s.deps.Deposits.ManualVerify(ctx, deposit.VerifyRequest{
		UserID:   userID,
		Currency: cur.Symbol,
		TxID:     strings.TrimSpace(req.TxID),
		Address:  strings.TrimSpace(req.Address),
	})
	out := make([]*DepositView, 0, len(ds))
	for _, d := range ds {
		out = append(out, fromDeposit(d))
	}
	return out, err
}

func (s *custodyService) Deposits(ctx context.Context, userID string, limit int) ([]*DepositView, error) {
	ds, err := s.deps.Deposits.List(ctx, deposit.Filter{UserID: userID, Limit: pageSize(limit)})
	if err != nil {
		return nil, err
	}
	out := make([]*DepositView, 0, len(ds))
	for _, d := range ds {
		out = append(out, fromDeposit(d))
	}
	return out, nil
}

func (s *custodyService) ReleaseSavings(ctx context.Context, userID string, req *SavingsRequest) (*WalletResponse, error) {
	cur, err := s.currency(req.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.deps.Games.ReleaseSavings(ctx, userID, cur.Symbol, req.Amount); err != nil {
		return nil, err
	}
	return s.Wallet(ctx, userID)
}

func (s *custodyService) Liquidity(ctx context.Context, userID string, req *LiquidityRequest) (*WalletResponse, error) {
	cur, err := s.currency(req.Currency)
	if err != nil {
		return nil, err
	}
	switch req.Direction {
	case DirectionReserve:
		err = s.deps.Ledger.ReserveLiquidity(ctx, userID, cur.Symbol, req.Amount)
	case DirectionRelease:
		err = s.deps.Ledger.ReleaseLiquidity(ctx, userID, cur.Symbol, req.Amount)
	default:
		err = apperrors.InvalidInputError(nil, fmt.Sprintf("unknown direction %q", req.Direction))
	}
	if err != nil {
		return nil, err
	}
	return s.Wallet(ctx, userID)
}

func (s *custodyService) Journal(ctx context.Context, userID string, limit int, before string) (*JournalPage, error) {
	limit = pageSize(limit)
	entries, err := s.deps.Journal.ListJournal(ctx, userID, limit, before)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal: %w", err)
	}
	page := &JournalPage{Entries: make([]*JournalEntryView, 0, len(entries))}
	for _, e := range entries {
		page.Entries = append(page.Entries, fromEntry(e))
	}
	if len(entries) == limit {
		page.Next = entries[len(entries)-1].ID
	}
	return page, nil
}

func (s *custodyService) Adjust(ctx context.Context, req *AdjustRequest) (*BalanceView, error) {
	cur, err := s.currency(req.Currency)
	if err != nil {
		return nil, err
	}
	sub, err := ledger.ParseSubBalance(req.SubBalance)
	if err != nil {
		return nil, apperrors.InvalidInputError(err, err.Error())
	}

	var pools []currency.Symbol
	if sub == ledger.SubLiquidity {
		pools = []currency.Symbol{cur.Symbol}
	}
	var after ledger.Balance
	err = s.deps.Ledger.Update(ctx, req.UserID, pools, func(ctx context.Context, mu *ledger.Mutator) error {
		var err error
		if req.Amount > 0 {
			err = mu.Credit(ctx, cur.Symbol, sub, req.Amount, ledger.CauseAdminAdjust, req.Reason)
		} else {
			err = mu.Debit(ctx, cur.Symbol, sub, -req.Amount, ledger.CauseAdminAdjust, req.Reason)
		}
		if err != nil {
			return err
		}
		after, err = mu.Balance(ctx, cur.Symbol)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Warn("Admin balance adjustment",
		zap.String("user_id", req.UserID),
		zap.String("currency", string(cur.Symbol)),
		zap.String("sub_balance", string(sub)),
		zap.Int64("amount", req.Amount),
		zap.String("reason", req.Reason))

	available, err := s.deps.Ledger.PoolAvailable(ctx, cur.Symbol)
	if err != nil {
		return nil, err
	}
	return toBalanceView(&after, cur, available), nil
}

func (s *custodyService) Pools(ctx context.Context) ([]*PoolView, error) {
	pools, err := s.deps.Ledger.Pools(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*PoolView, 0, len(pools))
	for _, p := range pools {
		out = append(out, toPoolView(p))
	}
	return out, nil
}

func (s *custodyService) Replenish(ctx context.Context, raw string, amount int64) (*PoolView, error) {
	cur, err := s.currency(raw)
	if err != nil {
		return nil, err
	}
	p, err := s.deps.Ledger.Replenish(ctx, cur.Symbol, amount)
	if err != nil {
		return nil, err
	}
	return toPoolView(p), nil
}

func (s *custodyService) Audit(ctx context.Context) (*AuditResponse, error) {
	r, err := s.deps.Auditor.Run(ctx)
	if err != nil {
		return nil, err
	}
	return fromReport(r), nil
}

func (s *custodyService) RetryWithdrawal(ctx context.Context, id string) (*WithdrawalResponse, error) {
	w, err := s.deps.Withdrawals.Retry(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromWithdrawal(w), nil
}

func (s *custodyService) VoidStaleBets(ctx context.Context) (*VoidBetsResponse, error) {
	n, err := s.deps.Games.VoidStale(ctx)
	if err != nil {
		return nil, err
	}
	return &VoidBetsResponse{Voided: n}, nil
}
