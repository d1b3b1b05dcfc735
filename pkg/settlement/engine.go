package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/internal/metrics"
	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/events"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
)

const (
	bpsDenominator = 10000
	maxGameName    = 64
	staleBatch     = 500
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPublisher sets the notification publisher.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// BetRequest is a player's stake on one game round.
type BetRequest struct {
	UserID   string
	Game     string
	Currency currency.Symbol
	Stake    int64
	Params   json.RawMessage
}

// Engine stakes, resolves and settles bets.
type Engine struct {
	cfg       config.SettlementConfig
	store     Store
	ledger    *ledger.Ledger
	resolver  Resolver
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewEngine creates a settlement engine. The loss split must add up to
// 10000 basis points.
func NewEngine(
	cfg config.SettlementConfig,
	store Store,
	l *ledger.Ledger,
	resolver Resolver,
	logger *zap.Logger,
	opts ...Option,
) (*Engine, error) {
	if cfg.SavingsBps < 0 || cfg.LiquidityBps < 0 || cfg.SavingsBps+cfg.LiquidityBps != bpsDenominator {
		return nil, fmt.Errorf("loss split %d/%d does not add up to %d bps", cfg.SavingsBps, cfg.LiquidityBps, bpsDenominator)
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 10 * time.Minute
	}
	e := &Engine{
		cfg:       cfg,
		store:     store,
		ledger:    l,
		resolver:  resolver,
		publisher: events.Nop{},
		logger:    logger.With(zap.String("component", "settlement")),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// PlaceBet moves the stake from deposit to gaming, asks the resolver for the
// outcome and settles the bet. A bet the resolver cannot decide is voided
// and its stake returned.
func (e *Engine) PlaceBet(ctx context.Context, req BetRequest) (*Bet, error) {
	req.Game = strings.TrimSpace(req.Game)
	if req.Game == "" || len(req.Game) > maxGameName {
		return nil, apperrors.InvalidInputError(nil, "game is required")
	}
	if req.Stake <= 0 {
		return nil, apperrors.InvalidInputError(nil, "stake must be positive")
	}
	if _, err := e.ledger.Registry().Get(req.Currency); err != nil {
		return nil, apperrors.InvalidInputError(err, fmt.Sprintf("unknown currency %s", req.Currency))
	}

	b := &Bet{
		ID:        ulid.Make().String(),
		UserID:    req.UserID,
		Game:      req.Game,
		Currency:  req.Currency,
		Stake:     req.Stake,
		Params:    req.Params,
		State:     StateOpen,
		CreatedAt: e.now(),
	}
	err := e.ledger.Update(ctx, req.UserID, nil, func(ctx context.Context, mu *ledger.Mutator) error {
		if err := mu.Move(ctx, req.Currency, ledger.SubDeposit, ledger.SubGaming, req.Stake, ledger.CauseBetStake, b.ID); err != nil {
			return err
		}
		return e.store.CreateBet(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	res, err := e.resolver.Resolve(ctx, b)
	if err == nil {
		err = res.Check(b.Stake)
	}
	if err != nil {
		e.voidQuietly(context.WithoutCancel(ctx), b, err.Error())
		if apperrors.KindOf(err) != apperrors.KindInternal {
			return nil, err
		}
		return nil, apperrors.ProviderTransientError(err, "game resolver unavailable")
	}

	settled, err := e.Settle(context.WithoutCancel(ctx), b.ID, res.Outcome, res.Payout)
	if err != nil && !apperrors.IsKind(err, apperrors.KindConflict) {
		e.voidQuietly(context.WithoutCancel(ctx), b, "settlement failed: "+err.Error())
	}
	return settled, err
}

func (e *Engine) voidQuietly(ctx context.Context, b *Bet, reason string) {
	err := e.void(ctx, b, reason)
	if err == nil {
		e.logger.Warn("Bet voided", zap.String("bet_id", b.ID), zap.String("reason", reason))
		return
	}
	if errors.Is(err, ErrStateConflict) {
		return
	}
	metrics.ErrorsTotal.WithLabelValues("settlement", string(apperrors.KindOf(err))).Inc()
	e.logger.Error("Failed to void bet", zap.String("bet_id", b.ID), zap.Error(err))
}

// VoidStale returns the stake of every bet still open after the configured
// stale period, so a settlement cut short never leaves funds in gaming.
func (e *Engine) VoidStale(ctx context.Context) (int, error) {
	cutoff := e.now().Add(-e.cfg.StaleAfter)
	bets, err := e.store.ListOpenBets(ctx, cutoff, staleBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list open bets: %w", err)
	}
	voided := 0
	for _, b := range bets {
		err := e.void(ctx, b, "stale open bet")
		if errors.Is(err, ErrStateConflict) {
			continue
		}
		if err != nil {
			return voided, fmt.Errorf("failed to void bet %s: %w", b.ID, err)
		}
		voided++
	}
	if voided > 0 {
		e.logger.Warn("Voided stale bets", zap.Int("count", voided), zap.Time("created_before", cutoff))
	}
	return voided, nil
}

// Settle applies outcome to an open bet. payout is the total returned on a
// win, stake included, and is ignored for other outcomes.
func (e *Engine) Settle(ctx context.Context, betID string, outcome Outcome, payout int64) (*Bet, error) {
	b, err := e.get(ctx, betID)
	if err != nil {
		return nil, err
	}
	if b.State != StateOpen {
		return nil, apperrors.ConflictError(nil, fmt.Sprintf("bet is %s", b.State))
	}

	next := *b
	next.State = StateSettled
	next.Outcome = outcome
	switch outcome {
	case OutcomeWin:
		if payout <= b.Stake {
			return nil, apperrors.InvalidInputError(nil, "winning payout must exceed the stake")
		}
		next.Payout = payout
	case OutcomeLoss:
		next.SavingsShare = b.Stake * e.cfg.SavingsBps / bpsDenominator
		next.LiquidityShare = b.Stake - next.SavingsShare
	case OutcomePush:
		next.Payout = b.Stake
	default:
		return nil, apperrors.InvalidInputError(nil, fmt.Sprintf("unknown outcome %q", outcome))
	}

	var pools []currency.Symbol
	if next.LiquidityShare > 0 {
		pools = []currency.Symbol{b.Currency}
	}
	err = e.ledger.Update(ctx, b.UserID, pools, func(ctx context.Context, mu *ledger.Mutator) error {
		now := e.now()
		next.SettledAt = &now
		switch outcome {
		case OutcomeWin:
			if err := mu.Move(ctx, b.Currency, ledger.SubGaming, ledger.SubDeposit, b.Stake, ledger.CauseBetRelease, b.ID); err != nil {
				return err
			}
			if err := mu.Credit(ctx, b.Currency, ledger.SubWinnings, payout-b.Stake, ledger.CauseBetWin, b.ID); err != nil {
				return err
			}
		case OutcomeLoss:
			if next.SavingsShare > 0 {
				if err := mu.Move(ctx, b.Currency, ledger.SubGaming, ledger.SubSavings, next.SavingsShare, ledger.CauseBetLossSave, b.ID); err != nil {
					return err
				}
			}
			if next.LiquidityShare > 0 {
				if err := mu.Move(ctx, b.Currency, ledger.SubGaming, ledger.SubLiquidity, next.LiquidityShare, ledger.CauseBetLossPool, b.ID); err != nil {
					return err
				}
			}
		case OutcomePush:
			if err := mu.Move(ctx, b.Currency, ledger.SubGaming, ledger.SubDeposit, b.Stake, ledger.CauseBetRelease, b.ID); err != nil {
				return err
			}
		}
		return e.store.SaveBet(ctx, &next, StateOpen)
	})
	if errors.Is(err, ErrStateConflict) {
		return nil, apperrors.ConflictError(err, "bet settled concurrently")
	}
	if err != nil {
		return nil, err
	}

	metrics.BetsSettledTotal.WithLabelValues(string(b.Currency), string(outcome)).Inc()
	e.logger.Info("Bet settled",
		zap.String("bet_id", b.ID),
		zap.String("user_id", b.UserID),
		zap.String("game", b.Game),
		zap.String("currency", string(b.Currency)),
		zap.Int64("stake", b.Stake),
		zap.String("outcome", string(outcome)),
		zap.Int64("payout", next.Payout))

	if err := e.publisher.Publish(ctx, events.SubjectBetSettled, events.BetSettled{
		BetID:    b.ID,
		UserID:   b.UserID,
		Game:     b.Game,
		Currency: string(b.Currency),
		Stake:    b.Stake,
		Outcome:  string(outcome),
		Payout:   next.Payout,
		At:       *next.SettledAt,
	}); err != nil {
		e.logger.Warn("Failed to publish bet event", zap.String("bet_id", b.ID), zap.Error(err))
	}
	return &next, nil
}

func (e *Engine) void(ctx context.Context, b *Bet, reason string) error {
	return e.ledger.Update(ctx, b.UserID, nil, func(ctx context.Context, mu *ledger.Mutator) error {
		if err := mu.Move(ctx, b.Currency, ledger.SubGaming, ledger.SubDeposit, b.Stake, ledger.CauseBetRelease, b.ID); err != nil {
			return err
		}
		now := e.now()
		next := *b
		next.State = StateVoid
		next.Note = reason
		next.SettledAt = &now
		return e.store.SaveBet(ctx, &next, StateOpen)
	})
}

// ReleaseSavings moves amount from savings back to deposit once the holding
// period since the user's last loss in cur has passed.
func (e *Engine) ReleaseSavings(ctx context.Context, userID string, cur currency.Symbol, amount int64) error {
	if amount <= 0 {
		return apperrors.InvalidInputError(nil, "amount must be positive")
	}
	last, err := e.store.LastLossAt(ctx, userID, cur)
	if err != nil {
		return fmt.Errorf("failed to read last loss: %w", err)
	}
	if last != nil {
		until := last.Add(e.cfg.SavingsLock)
		if e.now().Before(until) {
			return apperrors.CooldownError(nil,
				fmt.Sprintf("savings are locked until %s", until.UTC().Format(time.RFC3339)))
		}
	}
	return e.ledger.Update(ctx, userID, nil, func(ctx context.Context, mu *ledger.Mutator) error {
		return mu.Move(ctx, cur, ledger.SubSavings, ledger.SubDeposit, amount, ledger.CauseSavingsRelease, "")
	})
}

func (e *Engine) get(ctx context.Context, id string) (*Bet, error) {
	b, err := e.store.GetBet(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.ResourceNotFoundError(err, "bet not found")
	}
	return b, err
}

// History returns the user's bets, newest first.
func (e *Engine) History(ctx context.Context, userID string, limit int) ([]*Bet, error) {
	return e.store.ListBets(ctx, userID, limit)
}
