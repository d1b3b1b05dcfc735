package api

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
)

const serviceName = "WalletService"

// logService wraps Service with logging of every state-changing call.
// Reads are logged only when they fail.
type logService struct {
	svc    Service
	logger *zap.Logger
}

// NewLog creates a logging decorator for the wallet Service.
func NewLog(svc Service, logger *zap.Logger) Service {
	return &logService{svc: svc, logger: logger}
}

func (ls *logService) started(method, userID string, fields ...zap.Field) time.Time {
	ls.logger.Info(method+" started", append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.String("user_id", userID),
	}, fields...)...)
	return time.Now()
}

func (ls *logService) finish(method string, start time.Time, err error, fields ...zap.Field) {
	fields = append([]zap.Field{
		zap.String("service", serviceName),
		zap.String("method", method),
		zap.Duration("duration", time.Since(start)),
	}, fields...)
	if err != nil {
		if apperrors.IsInternalError(err) {
			ls.logger.Error(method+" failed", append(fields, zap.Error(err))...)
		} else {
			ls.logger.Warn(method+" rejected", append(fields, zap.Error(err))...)
		}
		return
	}
	ls.logger.Info(method+" completed", fields...)
}

func (ls *logService) readFailed(method, userID string, err error) {
	if err != nil {
		ls.logger.Warn(method+" failed",
			zap.String("service", serviceName),
			zap.String("method", method),
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func (ls *logService) Wallet(ctx context.Context, userID string) (*WalletResponse, error) {
	resp, err := ls.svc.Wallet(ctx, userID)
	ls.readFailed("Wallet", userID, err)
	return resp, err
}

func (ls *logService) Quote(ctx context.Context, req *QuoteRequest) (*ConversionResponse, error) {
	resp, err := ls.svc.Quote(ctx, req)
	ls.readFailed("Quote", "", err)
	return resp, err
}

func (ls *logService) Convert(ctx context.Context, userID string, req *ConvertRequest) (resp *ConversionResponse, err error) {
	start := ls.started("Convert", userID,
		zap.String("from", req.From),
		zap.String("to", req.To),
		zap.Int64("amount", req.Amount))
	defer func() {
		if err != nil {
			ls.finish("Convert", start, err, zap.String("user_id", userID))
			return
		}
		ls.finish("Convert", start, nil,
			zap.String("conversion_id", resp.ID),
			zap.Int64("to_amount", resp.ToAmount))
	}()
	return ls.svc.Convert(ctx, userID, req)
}

func (ls *logService) Conversions(ctx context.Context, userID string, limit int) ([]*ConversionResponse, error) {
	resp, err := ls.svc.Conversions(ctx, userID, limit)
	ls.readFailed("Conversions", userID, err)
	return resp, err
}

func (ls *logService) Withdraw(ctx context.Context, userID string, req *WithdrawRequest) (resp *WithdrawalResponse, err error) {
	start := ls.started("Withdraw", userID,
		zap.String("currency", req.Currency),
		zap.Int64("amount", req.Amount),
		zap.String("destination", req.DestinationAddress),
		zap.String("sub_balance", req.SubBalance))
	defer func() {
		if err != nil {
			ls.finish("Withdraw", start, err, zap.String("user_id", userID))
			return
		}
		ls.finish("Withdraw", start, nil,
			zap.String("withdrawal_id", resp.ID),
			zap.String("state", resp.State))
	}()
	return ls.svc.Withdraw(ctx, userID, req)
}

func (ls *logService) Withdrawal(ctx context.Context, userID, id string) (*WithdrawalResponse, error) {
	resp, err := ls.svc.Withdrawal(ctx, userID, id)
	ls.readFailed("Withdrawal", userID, err)
	return resp, err
}

func (ls *logService) Withdrawals(ctx context.Context, userID string, limit int) ([]*WithdrawalResponse, error) {
	resp, err := ls.svc.Withdrawals(ctx, userID, limit)
	ls.readFailed("Withdrawals", userID, err)
	return resp, err
}

func (ls *logService) PlaceBet(ctx context.Context, userID string, req *BetRequest) (resp *BetResponse, err error) {
	start := ls.started("PlaceBet", userID,
		zap.String("game", req.Game),
		zap.String("currency", req.Currency),
		zap.Int64("stake", req.Stake))
	defer func() {
		if err != nil {
			ls.finish("PlaceBet", start, err, zap.String("user_id", userID))
			return
		}
		ls.finish("PlaceBet", start, nil,
			zap.String("bet_id", resp.ID),
			zap.String("outcome", resp.Outcome),
			zap.Int64("payout", resp.Payout))
	}()
	return ls.svc.PlaceBet(ctx, userID, req)
}

func (ls *logService) Bets(ctx context.Context, userID string, limit int) ([]*BetResponse, error) {
	resp, err := ls.svc.Bets(ctx, userID, limit)
	ls.readFailed("Bets", userID, err)
	return resp, err
}

func (ls *logService) DepositAddress(ctx context.Context, userID, cur string) (resp *AddressResponse, err error) {
	start := ls.started("DepositAddress", userID, zap.String("currency", cur))
	defer func() {
		if err != nil {
			ls.finish("DepositAddress", start, err, zap.String("user_id", userID))
			return
		}
		ls.finish("DepositAddress", start, nil, zap.String("address", resp.Address))
	}()
	return ls.svc.DepositAddress(ctx, userID, cur)
}

func (ls *logService) ManualVerify(ctx context.Context, userID string, req *ManualVerifyRequest) (resp []*DepositView, err error) {
	start := ls.started("ManualVerify", userID,
		zap.String("currency", req.Currency),
		zap.String("txid", req.TxID),
		zap.String("address", req.Address))
	defer func() {
		ls.finish("ManualVerify", start, err, zap.Int("deposits", len(resp)))
	}()
	return ls.svc.ManualVerify(ctx, userID, req)
}

func (ls *logService) Deposits(ctx context.Context, userID string, limit int) ([]*DepositView, error) {
	resp, err := ls.svc.Deposits(ctx, userID, limit)
	ls.readFailed("Deposits", userID, err)
	return resp, err
}

func (ls *logService) ReleaseSavings(ctx context.Context, userID string, req *SavingsRequest) (resp *WalletResponse, err error) {
	start := ls.started("ReleaseSavings", userID,
		zap.String("currency", req.Currency),
		zap.Int64("amount", req.Amount))
	defer func() {
		ls.finish("ReleaseSavings", start, err, zap.String("user_id", userID))
	}()
	return ls.svc.ReleaseSavings(ctx, userID, req)
}

func (ls *logService) Liquidity(ctx context.Context, userID string, req *LiquidityRequest) (resp *WalletResponse, err error) {
	start := ls.started("Liquidity", userID,
		zap.String("currency", req.Currency),
		zap.Int64("amount", req.Amount),
		zap.String("direction", req.Direction))
	defer func() {
		ls.finish("Liquidity", start, err, zap.String("user_id", userID))
	}()
	return ls.svc.Liquidity(ctx, userID, req)
}

func (ls *logService) Journal(ctx context.Context, userID string, limit int, before string) (*JournalPage, error) {
	resp, err := ls.svc.Journal(ctx, userID, limit, before)
	ls.readFailed("Journal", userID, err)
	return resp, err
}
