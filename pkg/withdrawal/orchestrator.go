package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chainsafe/custody-ledger/internal/metrics"
	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/events"
	"github.com/chainsafe/custody-ledger/pkg/keys"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
	"github.com/chainsafe/custody-ledger/pkg/provider"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the orchestrator's time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithPublisher sets the notification publisher.
func WithPublisher(p events.Publisher) Option {
	return func(o *Orchestrator) { o.publisher = p }
}

// Request is a user's withdrawal instruction.
type Request struct {
	UserID      string
	Currency    currency.Symbol
	Amount      int64
	Destination string
	SubBalance  ledger.SubBalance
}

// Orchestrator validates withdrawal requests, reserves funds and drives each
// withdrawal through signing, broadcast and confirmation on a worker pool.
type Orchestrator struct {
	cfg        config.WithdrawalConfig
	store      Store
	ledger     *ledger.Ledger
	registry   *currency.Registry
	adapters   *provider.Registry
	hotWallets map[currency.Chain]keys.Handle
	publisher  events.Publisher
	logger     *zap.Logger
	now        func() time.Time

	queue  chan string
	mu     sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
}

// New creates an orchestrator. hotWallets maps each chain to the key handle
// withdrawals are signed with.
func New(
	cfg config.WithdrawalConfig,
	store Store,
	l *ledger.Ledger,
	adapters *provider.Registry,
	hotWallets map[currency.Chain]keys.Handle,
	logger *zap.Logger,
	opts ...Option,
) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.AttemptCap <= 0 {
		cfg.AttemptCap = 8
	}
	if cfg.Lease <= 0 {
		cfg.Lease = 2 * time.Minute
	}
	if cfg.DispatchTick <= 0 {
		cfg.DispatchTick = 5 * time.Second
	}
	o := &Orchestrator{
		cfg:        cfg,
		store:      store,
		ledger:     l,
		registry:   l.Registry(),
		adapters:   adapters,
		hotWallets: hotWallets,
		publisher:  events.Nop{},
		logger:     logger.With(zap.String("component", "withdrawal_orchestrator")),
		now:        func() time.Time { return time.Now().UTC() },
		queue:      make(chan string, cfg.QueueSize),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start launches the dispatcher and the worker pool.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.group != nil {
		return errors.New("orchestrator already started")
	}

	o.logger.Info("Starting withdrawal orchestrator", zap.Int("workers", o.cfg.Workers))
	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	o.cancel = cancel
	o.group = g

	g.Go(func() error {
		o.dispatch(ctx)
		return nil
	})
	for i := 0; i < o.cfg.Workers; i++ {
		g.Go(func() error {
			o.work(ctx)
			return nil
		})
	}
	return nil
}

// Stop signals the workers and waits for in-flight steps to finish.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel, g := o.cancel, o.group
	o.mu.Unlock()
	if g == nil {
		return
	}
	o.logger.Info("Stopping withdrawal orchestrator")
	cancel()
	_ = g.Wait()
	o.logger.Info("Withdrawal orchestrator stopped")
}

func (o *Orchestrator) dispatch(ctx context.Context) {
	ticker := time.NewTicker(o.cfg.DispatchTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ids, err := o.store.DueWithdrawals(ctx, o.now(), o.cfg.QueueSize)
			if err != nil {
				o.logger.Error("Failed to list due withdrawals", zap.Error(err))
				continue
			}
			metrics.PendingWithdrawals.Set(float64(len(ids)))
			for _, id := range ids {
				if !o.enqueue(id) {
					break
				}
			}
		}
	}
}

func (o *Orchestrator) enqueue(id string) bool {
	select {
	case o.queue <- id:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-o.queue:
			// a step in flight finishes even when the pool is stopping
			if err := o.Process(context.WithoutCancel(ctx), id); err != nil {
				metrics.ErrorsTotal.WithLabelValues("withdrawal_orchestrator", string(apperrors.KindOf(err))).Inc()
				o.logger.Error("Withdrawal step failed", zap.String("withdrawal_id", id), zap.Error(err))
			}
		}
	}
}

// Request validates req, records it and reserves the funds. A request that
// fails validation is recorded as PENDING → FAILED_REFUNDED with no ledger
// change; the record is returned together with the kind-tagged error.
func (o *Orchestrator) Request(ctx context.Context, req Request) (*Withdrawal, error) {
	cur, err := o.registry.Get(req.Currency)
	if err != nil {
		return nil, apperrors.InvalidInputError(err, fmt.Sprintf("unknown currency %s", req.Currency))
	}
	if req.SubBalance == "" {
		req.SubBalance = ledger.SubDeposit
	}
	req.Destination = strings.TrimSpace(req.Destination)
	if _, err := ledger.ParseSubBalance(string(req.SubBalance)); err != nil || !req.SubBalance.Withdrawable() {
		return nil, apperrors.InvalidInputError(err, fmt.Sprintf("cannot withdraw from %q", req.SubBalance))
	}
	if req.Amount <= 0 {
		return nil, apperrors.InvalidInputError(nil, "amount must be positive")
	}
	adapter, err := o.adapters.Get(cur.Chain)
	if err != nil {
		return nil, apperrors.NotSupportedError(err, fmt.Sprintf("withdrawals on %s are not enabled", cur.Chain))
	}

	now := o.now()
	id := ulid.Make().String()
	w := &Withdrawal{
		ID:             id,
		UserID:         req.UserID,
		Currency:       cur.Symbol,
		Amount:         req.Amount,
		SubBalance:     req.SubBalance,
		Destination:    req.Destination,
		State:          StatePending,
		IdempotencyKey: "wd:" + id,
		CreatedAt:      now,
		UpdatedAt:      now,
		// the dispatcher only picks this up if the request path stalls
		NextAttemptAt: now.Add(o.cfg.Lease),
	}
	if err := o.store.CreateWithdrawal(ctx, w); err != nil {
		return nil, fmt.Errorf("failed to create withdrawal: %w", err)
	}
	metrics.WithdrawalsTotal.WithLabelValues(string(cur.Symbol), string(StatePending)).Inc()

	if err := validateStatic(adapter, cur, req); err != nil {
		return o.reject(ctx, w, err)
	}

	reserved, err := o.reserve(ctx, w, cur)
	if err != nil {
		if rejectable(err) {
			return o.reject(ctx, w, err)
		}
		return w, err
	}

	o.enqueue(reserved.ID)
	return reserved, nil
}

func validateStatic(adapter provider.Adapter, cur currency.Currency, req Request) error {
	if err := adapter.ValidateAddress(req.Destination); err != nil {
		return apperrors.InvalidInputError(err, fmt.Sprintf("invalid %s address", cur.Chain))
	}
	if req.Amount < cur.MinWithdrawal {
		return apperrors.InvalidInputError(nil,
			fmt.Sprintf("amount below minimum withdrawal of %s %s", cur.Format(cur.MinWithdrawal), cur.Symbol))
	}
	if cur.PerTxCap > 0 && req.Amount > cur.PerTxCap {
		return apperrors.LimitExceededError(nil,
			fmt.Sprintf("amount exceeds per-transaction cap of %s %s", cur.Format(cur.PerTxCap), cur.Symbol))
	}
	return nil
}

// rejectable lists the errors that end a PENDING withdrawal instead of
// leaving it for a retry.
func rejectable(err error) bool {
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidInput, apperrors.KindInsufficientFunds,
		apperrors.KindInsufficientLiquidity, apperrors.KindLimitExceeded:
		return true
	}
	return false
}

func failureKindOf(err error) FailureKind {
	switch apperrors.KindOf(err) {
	case apperrors.KindInsufficientFunds:
		return FailureInsufficientFunds
	case apperrors.KindInsufficientLiquidity:
		return FailureInsufficientLiquidity
	case apperrors.KindLimitExceeded:
		return FailureLimitExceeded
	}
	return FailureInvalidInput
}

// reserve checks the daily cap and pool ceiling under the user and currency
// locks, earmarks the amount and moves the record to RESERVED in the same
// transaction.
func (o *Orchestrator) reserve(ctx context.Context, w *Withdrawal, cur currency.Currency) (*Withdrawal, error) {
	start := time.Now()
	now := o.now()
	next := *w

	err := o.ledger.Update(ctx, w.UserID, []currency.Symbol{cur.Symbol}, func(ctx context.Context, mu *ledger.Mutator) error {
		if cur.DailyCap > 0 {
			spent, err := o.store.SumWithdrawn(ctx, w.UserID, cur.Symbol, startOfDay(now))
			if err != nil {
				return fmt.Errorf("failed to sum daily withdrawals: %w", err)
			}
			if spent+w.Amount > cur.DailyCap {
				return apperrors.LimitExceededError(nil,
					fmt.Sprintf("daily withdrawal cap of %s %s reached", cur.Format(cur.DailyCap), cur.Symbol))
			}
		}
		if err := mu.EarmarkWithdrawal(ctx, cur.Symbol, w.SubBalance, w.Amount, w.ID); err != nil {
			return err
		}
		next.State = StateReserved
		next.ReservedAt = &now
		next.UpdatedAt = now
		next.NextAttemptAt = now
		return o.store.SaveWithdrawal(ctx, &next, StatePending, "funds reserved")
	})
	if err != nil {
		return nil, err
	}

	metrics.WithdrawalStageDuration.WithLabelValues("reserve").Observe(time.Since(start).Seconds())
	o.changed(ctx, &next, StatePending)
	return &next, nil
}

// reject ends a PENDING withdrawal and returns the record with cause. When
// the record cannot be saved it returns w unchanged with the save error.
func (o *Orchestrator) reject(ctx context.Context, w *Withdrawal, cause error) (*Withdrawal, error) {
	next, err := o.markRejected(ctx, w, cause)
	if err != nil {
		return w, err
	}
	return next, cause
}

func (o *Orchestrator) markRejected(ctx context.Context, w *Withdrawal, cause error) (*Withdrawal, error) {
	now := o.now()
	next := *w
	next.State = StateFailedRefunded
	next.FailureKind = failureKindOf(cause)
	next.FailureReason = cause.Error()
	next.UpdatedAt = now
	next.LeaseUntil = nil
	if err := o.store.SaveWithdrawal(ctx, &next, StatePending, string(next.FailureKind)); err != nil {
		return nil, fmt.Errorf("failed to record rejected withdrawal: %w", err)
	}
	o.changed(ctx, &next, StatePending)
	return &next, nil
}

// Process claims a withdrawal and advances it until it has to wait for the
// chain or reaches a terminal state. Claims held by another worker are left
// alone.
func (o *Orchestrator) Process(ctx context.Context, id string) error {
	now := o.now()
	w, err := o.store.ClaimWithdrawal(ctx, id, now, now.Add(o.cfg.Lease))
	if errors.Is(err, ErrStateConflict) || errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to claim withdrawal: %w", err)
	}

	for !w.State.Terminal() {
		next, wait, err := o.step(ctx, w)
		if err != nil {
			if errors.Is(err, ErrStateConflict) {
				o.logger.Debug("Withdrawal moved concurrently", zap.String("withdrawal_id", id))
				return nil
			}
			return err
		}
		w = next
		if wait {
			break
		}
	}
	return nil
}

func (o *Orchestrator) step(ctx context.Context, w *Withdrawal) (*Withdrawal, bool, error) {
	cur, err := o.registry.Get(w.Currency)
	if err != nil {
		return nil, false, apperrors.InvariantViolationError(err, "withdrawal in unknown currency")
	}
	adapter, err := o.adapters.Get(cur.Chain)
	if err != nil {
		return nil, false, err
	}

	switch w.State {
	case StatePending:
		next, err := o.reserve(ctx, w, cur)
		if err != nil && rejectable(err) {
			rejected, rerr := o.markRejected(ctx, w, err)
			if rerr != nil {
				return nil, false, rerr
			}
			return rejected, false, nil
		}
		return next, false, err
	case StateReserved:
		return o.sign(ctx, w, cur, adapter)
	case StateSigned:
		return o.broadcast(ctx, w, cur, adapter)
	case StateBroadcast, StateConfirming:
		return o.track(ctx, w, cur, adapter)
	}
	return w, true, nil
}

func (o *Orchestrator) sign(ctx context.Context, w *Withdrawal, cur currency.Currency, adapter provider.Adapter) (*Withdrawal, bool, error) {
	start := time.Now()
	handle, ok := o.hotWallets[cur.Chain]
	if !ok || handle == "" {
		return o.refund(ctx, w, FailureSignRejected, fmt.Sprintf("no hot wallet configured for %s", cur.Chain))
	}

	tx, err := adapter.Sign(ctx, provider.SendRequest{
		IdempotencyKey: w.IdempotencyKey,
		Currency:       cur,
		From:           handle,
		To:             w.Destination,
		Amount:         w.Amount,
	})
	if err != nil {
		if provider.IsTransient(err) {
			if w.AttemptCount+1 >= o.cfg.AttemptCap {
				return o.refund(ctx, w, FailureAttemptsExhausted, err.Error())
			}
			return o.retry(ctx, w, err)
		}
		return o.refund(ctx, w, FailureSignRejected, err.Error())
	}

	now := o.now()
	next := *w
	next.State = StateSigned
	next.SignedTxID = tx.TxID
	next.SignedTx = tx.Raw
	next.LastValidHeight = tx.LastValidHeight
	if !tx.NotAfter.IsZero() {
		notAfter := tx.NotAfter
		next.NotAfter = &notAfter
	}
	next.SignedAt = &now
	next.AttemptCount = 0
	next.LastError = ""
	next.UpdatedAt = now
	if err := o.store.SaveWithdrawal(ctx, &next, StateReserved, "signed"); err != nil {
		return nil, false, err
	}
	metrics.WithdrawalStageDuration.WithLabelValues("sign").Observe(time.Since(start).Seconds())
	o.changed(ctx, &next, StateReserved)
	return &next, false, nil
}

func (o *Orchestrator) broadcast(ctx context.Context, w *Withdrawal, cur currency.Currency, adapter provider.Adapter) (*Withdrawal, bool, error) {
	start := time.Now()
	txID, err := adapter.Broadcast(ctx, cur, w.signedTx())
	if err == nil {
		metrics.WithdrawalStageDuration.WithLabelValues("broadcast").Observe(time.Since(start).Seconds())
		return o.markBroadcast(ctx, w, txID, "broadcast accepted")
	}
	if provider.IsRejected(err) {
		return o.refund(ctx, w, FailureBroadcastRejected, err.Error())
	}

	// The outcome is unknown. Look the signed transaction up before deciding.
	o.logger.Warn("Broadcast outcome unknown, reconciling",
		zap.String("withdrawal_id", w.ID),
		zap.String("signed_txid", w.SignedTxID),
		zap.Error(err))
	st, serr := adapter.TxStatus(ctx, w.statusQuery(cur, w.SignedTxID))
	switch {
	case serr == nil && st.Found:
		return o.markBroadcast(ctx, w, w.SignedTxID, "reconciled by txid")
	case serr == nil && st.Dropped:
		return o.refund(ctx, w, FailureDropped, "signed transaction expired without inclusion")
	}

	if w.AttemptCount+1 >= o.cfg.AttemptCap {
		// The transaction may still land; only a proven drop refunds it.
		o.logger.Error("Withdrawal broadcast attempts exhausted, awaiting expiry",
			zap.String("withdrawal_id", w.ID),
			zap.Int("attempts", w.AttemptCount+1),
			zap.Error(err))
	}
	return o.retry(ctx, w, err)
}

func (o *Orchestrator) markBroadcast(ctx context.Context, w *Withdrawal, txID, note string) (*Withdrawal, bool, error) {
	if txID == "" {
		return nil, false, apperrors.ProviderPermanentError(nil, "adapter returned an empty transaction id")
	}
	now := o.now()
	next := *w
	next.State = StateBroadcast
	next.ProviderTxID = txID
	next.BroadcastAt = &now
	next.AttemptCount = 0
	next.LastError = ""
	next.UpdatedAt = now
	// give the chain one poll interval before the first status check
	next.NextAttemptAt = now.Add(o.pollInterval(w.Currency))
	next.LeaseUntil = nil
	if err := o.store.SaveWithdrawal(ctx, &next, StateSigned, note); err != nil {
		return nil, false, err
	}
	o.changed(ctx, &next, StateSigned)
	o.logger.Info("Withdrawal broadcast",
		zap.String("withdrawal_id", w.ID),
		zap.String("provider_txid", txID),
		zap.String("via", note))
	return &next, true, nil
}

func (o *Orchestrator) track(ctx context.Context, w *Withdrawal, cur currency.Currency, adapter provider.Adapter) (*Withdrawal, bool, error) {
	st, err := adapter.TxStatus(ctx, w.statusQuery(cur, w.ProviderTxID))
	if err != nil {
		return o.retry(ctx, w, err)
	}
	now := o.now()

	if st.Dropped || (st.Failed && st.Final) {
		kind, reason := FailureDropped, "transaction dropped"
		if st.Failed {
			kind, reason = FailureReverted, "transaction reverted on chain"
		}
		if st.Reason != "" {
			reason += ": " + st.Reason
		}
		since := w.UpdatedAt
		if w.BroadcastAt != nil {
			since = *w.BroadcastAt
		}
		coolOffEnds := since.Add(o.cfg.CoolOff)
		if now.Before(coolOffEnds) {
			return o.wait(ctx, w, st.Confirmations, coolOffEnds)
		}
		return o.refund(ctx, w, kind, reason)
	}

	threshold := cur.MinConfirmations
	if threshold < 1 {
		threshold = 1
	}
	if w.State == StateBroadcast && st.Found && (st.Final || st.Confirmations >= threshold) {
		next := *w
		next.State = StateConfirming
		next.Confirmations = st.Confirmations
		next.ConfirmedAt = &now
		next.UpdatedAt = now
		if err := o.store.SaveWithdrawal(ctx, &next, StateBroadcast, fmt.Sprintf("%d confirmations", st.Confirmations)); err != nil {
			return nil, false, err
		}
		o.changed(ctx, &next, StateBroadcast)
		w = &next
	}

	if w.State == StateConfirming && st.Final && !st.Failed {
		return o.finalize(ctx, w, st.Confirmations)
	}
	return o.wait(ctx, w, st.Confirmations, now.Add(o.pollInterval(w.Currency)))
}

func (o *Orchestrator) finalize(ctx context.Context, w *Withdrawal, confirmations int64) (*Withdrawal, bool, error) {
	now := o.now()
	next := *w
	next.State = StateFinalized
	next.Confirmations = confirmations
	next.FinalizedAt = &now
	next.UpdatedAt = now
	next.LeaseUntil = nil

	err := o.ledger.Update(ctx, w.UserID, []currency.Symbol{w.Currency}, func(ctx context.Context, mu *ledger.Mutator) error {
		if err := mu.SettleWithdrawal(ctx, w.Currency, w.SubBalance, w.Amount, w.ID); err != nil {
			return err
		}
		return o.store.SaveWithdrawal(ctx, &next, StateConfirming, "final")
	})
	if err != nil {
		return nil, false, err
	}
	if w.BroadcastAt != nil {
		metrics.WithdrawalStageDuration.WithLabelValues("confirm").Observe(now.Sub(*w.BroadcastAt).Seconds())
	}
	o.changed(ctx, &next, StateConfirming)
	o.logger.Info("Withdrawal finalized",
		zap.String("withdrawal_id", w.ID),
		zap.String("provider_txid", w.ProviderTxID),
		zap.Int64("amount", w.Amount))
	return &next, false, nil
}

// refund returns the earmarked amount to the user and releases the pool
// escrow, restoring both to their pre-reservation values.
func (o *Orchestrator) refund(ctx context.Context, w *Withdrawal, kind FailureKind, reason string) (*Withdrawal, bool, error) {
	now := o.now()
	from := w.State
	next := *w
	next.State = StateFailedRefunded
	next.FailureKind = kind
	next.FailureReason = reason
	next.UpdatedAt = now
	next.LeaseUntil = nil

	err := o.ledger.Update(ctx, w.UserID, []currency.Symbol{w.Currency}, func(ctx context.Context, mu *ledger.Mutator) error {
		if err := mu.RefundWithdrawal(ctx, w.Currency, w.SubBalance, w.Amount, w.ID); err != nil {
			return err
		}
		return o.store.SaveWithdrawal(ctx, &next, from, string(kind))
	})
	if err != nil {
		return nil, false, err
	}
	o.changed(ctx, &next, from)
	o.logger.Warn("Withdrawal refunded",
		zap.String("withdrawal_id", w.ID),
		zap.String("from_state", string(from)),
		zap.String("failure_kind", string(kind)),
		zap.String("reason", reason))
	return &next, false, nil
}

// retry schedules the next attempt with exponential backoff and releases the
// lease.
func (o *Orchestrator) retry(ctx context.Context, w *Withdrawal, cause error) (*Withdrawal, bool, error) {
	now := o.now()
	next := *w
	next.AttemptCount++
	next.LastError = cause.Error()
	next.NextAttemptAt = now.Add(o.backoff(next.AttemptCount))
	next.LeaseUntil = nil
	next.UpdatedAt = now
	if err := o.store.SaveWithdrawal(ctx, &next, w.State, ""); err != nil {
		return nil, false, err
	}
	o.logger.Warn("Withdrawal step will be retried",
		zap.String("withdrawal_id", w.ID),
		zap.String("state", string(w.State)),
		zap.Int("attempt", next.AttemptCount),
		zap.Time("next_attempt_at", next.NextAttemptAt),
		zap.Error(cause))
	return &next, true, nil
}

func (o *Orchestrator) wait(ctx context.Context, w *Withdrawal, confirmations int64, until time.Time) (*Withdrawal, bool, error) {
	next := *w
	next.Confirmations = confirmations
	next.NextAttemptAt = until
	next.LeaseUntil = nil
	next.UpdatedAt = o.now()
	if err := o.store.SaveWithdrawal(ctx, &next, w.State, ""); err != nil {
		return nil, false, err
	}
	return &next, true, nil
}

func (o *Orchestrator) backoff(attempt int) time.Duration {
	d := o.cfg.BackoffBase
	if d <= 0 {
		d = 5 * time.Second
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if o.cfg.BackoffMax > 0 && d >= o.cfg.BackoffMax {
			return o.cfg.BackoffMax
		}
	}
	return d
}

func (o *Orchestrator) pollInterval(sym currency.Symbol) time.Duration {
	cur, err := o.registry.Get(sym)
	if err != nil || cur.PollInterval <= 0 {
		return 30 * time.Second
	}
	return cur.PollInterval
}

func (o *Orchestrator) changed(ctx context.Context, w *Withdrawal, from State) {
	metrics.WithdrawalsTotal.WithLabelValues(string(w.Currency), string(w.State)).Inc()
	o.logger.Info("Withdrawal state changed",
		zap.String("withdrawal_id", w.ID),
		zap.String("from", string(from)),
		zap.String("to", string(w.State)))

	err := o.publisher.Publish(ctx, events.SubjectWithdrawal(string(w.State)), events.WithdrawalChanged{
		ID:           w.ID,
		UserID:       w.UserID,
		Currency:     string(w.Currency),
		Amount:       w.Amount,
		State:        string(w.State),
		ProviderTxID: w.ProviderTxID,
		Broadcast:    w.Broadcast(),
		Reason:       w.FailureReason,
		At:           w.UpdatedAt,
	})
	if err != nil {
		o.logger.Warn("Failed to publish withdrawal event", zap.String("withdrawal_id", w.ID), zap.Error(err))
	}
}

func (w *Withdrawal) signedTx() *provider.SignedTx {
	tx := &provider.SignedTx{TxID: w.SignedTxID, Raw: w.SignedTx, LastValidHeight: w.LastValidHeight}
	if w.NotAfter != nil {
		tx.NotAfter = *w.NotAfter
	}
	return tx
}

func (w *Withdrawal) statusQuery(cur currency.Currency, txID string) provider.StatusQuery {
	q := provider.StatusQuery{Currency: cur, TxID: txID, LastValidHeight: w.LastValidHeight}
	if w.NotAfter != nil {
		q.NotAfter = *w.NotAfter
	}
	return q
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Get returns one withdrawal.
func (o *Orchestrator) Get(ctx context.Context, id string) (*Withdrawal, error) {
	w, err := o.store.GetWithdrawal(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.ResourceNotFoundError(err, "withdrawal not found")
	}
	return w, err
}

// List returns withdrawals matching f, newest first.
func (o *Orchestrator) List(ctx context.Context, f Filter) ([]*Withdrawal, error) {
	return o.store.ListWithdrawals(ctx, f)
}

// History returns the recorded transitions of a withdrawal in order.
func (o *Orchestrator) History(ctx context.Context, id string) ([]*Transition, error) {
	return o.store.ListTransitions(ctx, id)
}

// Retry makes a non-terminal withdrawal due immediately with a fresh attempt
// budget.
func (o *Orchestrator) Retry(ctx context.Context, id string) (*Withdrawal, error) {
	w, err := o.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.State.Terminal() {
		return nil, apperrors.ConflictError(nil, fmt.Sprintf("withdrawal is %s", w.State))
	}
	next := *w
	next.AttemptCount = 0
	next.NextAttemptAt = o.now()
	next.LeaseUntil = nil
	next.UpdatedAt = o.now()
	if err := o.store.SaveWithdrawal(ctx, &next, w.State, ""); err != nil {
		if errors.Is(err, ErrStateConflict) {
			return nil, apperrors.ConflictError(err, "withdrawal changed concurrently")
		}
		return nil, err
	}
	o.enqueue(id)
	return &next, nil
}
