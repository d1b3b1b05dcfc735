package deposit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/internal/metrics"
	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
	"github.com/chainsafe/custody-ledger/pkg/config"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/events"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
	"github.com/chainsafe/custody-ledger/pkg/provider"
)

const (
	defaultPollInterval = 30 * time.Second
	creditBatch         = 500

	ReasonBelowMinimum = "below_minimum"
)

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock overrides the monitor's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithPublisher sets the notification publisher.
func WithPublisher(p events.Publisher) Option {
	return func(m *Monitor) { m.publisher = p }
}

// Monitor polls every receive address per currency and credits confirmed
// transfers to the deposit sub-balance.
type Monitor struct {
	store     Store
	cooldowns Cooldowns
	ledger    *ledger.Ledger
	registry  *currency.Registry
	adapters  *provider.Registry
	publisher events.Publisher
	cfg       config.DepositConfig
	logger    *zap.Logger
	now       func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMonitor creates a deposit monitor.
func NewMonitor(
	cfg config.DepositConfig,
	store Store,
	cooldowns Cooldowns,
	l *ledger.Ledger,
	adapters *provider.Registry,
	logger *zap.Logger,
	opts ...Option,
) *Monitor {
	m := &Monitor{
		store:     store,
		cooldowns: cooldowns,
		ledger:    l,
		registry:  l.Registry(),
		adapters:  adapters,
		publisher: events.Nop{},
		cfg:       cfg,
		logger:    logger.With(zap.String("component", "deposit_monitor")),
		now:       func() time.Time { return time.Now().UTC() },
		locks:     make(map[string]*sync.Mutex),
		stopCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start launches one poller per currency whose chain has an adapter.
func (m *Monitor) Start(ctx context.Context) error {
	m.logger.Info("Starting deposit monitor")

	started := 0
	for _, cur := range m.registry.All() {
		if _, err := m.adapters.Get(cur.Chain); err != nil {
			m.logger.Warn("No adapter for currency, deposits disabled",
				zap.String("currency", string(cur.Symbol)),
				zap.String("chain", string(cur.Chain)))
			continue
		}
		m.wg.Add(1)
		go m.run(ctx, cur)
		started++
	}

	m.logger.Info("Deposit monitor started", zap.Int("pollers", started))
	return nil
}

// Stop stops all pollers and waits for them to exit.
func (m *Monitor) Stop() {
	m.logger.Info("Stopping deposit monitor")
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
	m.logger.Info("Deposit monitor stopped")
}

func (m *Monitor) run(ctx context.Context, cur currency.Currency) {
	defer m.wg.Done()

	interval := cur.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	bo := m.newBackOff()
	log := m.logger.With(zap.String("currency", string(cur.Symbol)))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-timer.C:
		}

		next := interval
		if err := m.Poll(ctx, cur.Symbol); err != nil {
			kind := provider.KindOf(err)
			metrics.DepositPollErrors.WithLabelValues(string(cur.Symbol), kind.String()).Inc()
			if kind == provider.KindTransient {
				next = bo.NextBackOff()
				log.Warn("Deposit poll failed, backing off", zap.Duration("retry_in", next), zap.Error(err))
			} else {
				metrics.ErrorsTotal.WithLabelValues("deposit_monitor", kind.String()).Inc()
				log.Error("Deposit poll failed", zap.Error(err))
			}
		} else {
			bo.Reset()
		}
		timer.Reset(next)
	}
}

func (m *Monitor) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	if m.cfg.BackoffBase > 0 {
		bo.InitialInterval = m.cfg.BackoffBase
	}
	if m.cfg.BackoffMax > 0 {
		bo.MaxInterval = m.cfg.BackoffMax
	}
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// Poll runs one cycle for a currency: scan every receive address on its chain,
// then try to credit every deposit still in state seen. A transient provider
// error aborts the cycle; other per-address errors are returned after the
// cycle completes.
func (m *Monitor) Poll(ctx context.Context, sym currency.Symbol) error {
	cur, adapter, err := m.resolve(sym)
	if err != nil {
		return err
	}

	addrs, err := m.store.ListReceiveAddresses(ctx, cur.Chain)
	if err != nil {
		return fmt.Errorf("failed to list receive addresses: %w", err)
	}

	var firstErr error
	for _, ra := range addrs {
		if err := m.scan(ctx, cur, adapter, ra); err != nil {
			if provider.IsTransient(err) {
				return err
			}
			m.logger.Error("Receive address scan failed",
				zap.String("currency", string(cur.Symbol)),
				zap.String("address", ra.Address),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	pending, err := m.store.ListDeposits(ctx, Filter{Currency: cur.Symbol, State: StateSeen, Limit: creditBatch})
	if err != nil {
		return fmt.Errorf("failed to list pending deposits: %w", err)
	}
	for _, d := range pending {
		if err := m.credit(ctx, d); err != nil && !requeued(err) {
			m.logger.Error("Deposit credit failed", zap.String("txid", d.TxID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// requeued reports whether a credit attempt was deferred or already done,
// leaving nothing for the operator.
func requeued(err error) bool {
	return apperrors.IsKind(err, apperrors.KindCooldown) || apperrors.IsKind(err, apperrors.KindConflict)
}

func (m *Monitor) resolve(sym currency.Symbol) (currency.Currency, provider.Adapter, error) {
	cur, err := m.registry.Get(sym)
	if err != nil {
		return currency.Currency{}, nil, apperrors.InvalidInputError(err, fmt.Sprintf("unknown currency %s", sym))
	}
	adapter, err := m.adapters.Get(cur.Chain)
	if err != nil {
		return currency.Currency{}, nil, apperrors.NotSupportedError(err, fmt.Sprintf("deposits on %s are not enabled", cur.Chain))
	}
	return cur, adapter, nil
}

func (m *Monitor) lockScan(address string, sym currency.Symbol) func() {
	return m.lockKey("scan/" + address + "/" + string(sym))
}

// lockCredit serializes credits to one user's receive address.
func (m *Monitor) lockCredit(userID, address string) func() {
	return m.lockKey("credit/" + userID + "/" + address)
}

func (m *Monitor) lockKey(key string) func() {
	m.locksMu.Lock()
	mu, ok := m.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		m.locks[key] = mu
	}
	m.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// scan records transfers to ra since its cursor. The cursor only advances past
// transfers that have reached the currency's confirmation threshold, so an
// under-confirmed transfer is seen again on the next cycle.
func (m *Monitor) scan(ctx context.Context, cur currency.Currency, adapter provider.Adapter, ra *ReceiveAddress) error {
	unlock := m.lockScan(ra.Address, cur.Symbol)
	defer unlock()

	cursor, err := m.store.GetCursor(ctx, ra.Address, cur.Symbol)
	if err != nil {
		return fmt.Errorf("failed to load cursor: %w", err)
	}

	transfers, err := adapter.IncomingTransactions(ctx, cur, ra.Address, cursor)
	if err != nil {
		return err
	}

	next := cursor
	for _, t := range transfers {
		if t.Confirmations < cur.MinConfirmations {
			break
		}
		if t.Amount > 0 {
			if err := m.record(ctx, cur, ra, t); err != nil {
				return err
			}
		}
		next = t.Cursor
	}

	if next != cursor {
		if err := m.store.SaveCursor(ctx, ra.Address, cur.Symbol, next); err != nil {
			return fmt.Errorf("failed to save cursor: %w", err)
		}
	}
	return nil
}

func (m *Monitor) record(ctx context.Context, cur currency.Currency, ra *ReceiveAddress, t provider.Transfer) error {
	d, created, err := m.store.UpsertDeposit(ctx, &Deposit{
		TxID:          t.TxID,
		Currency:      cur.Symbol,
		UserID:        ra.UserID,
		Address:       ra.Address,
		Amount:        t.Amount,
		Confirmations: t.Confirmations,
		State:         StateSeen,
		FirstSeen:     m.now(),
	})
	if err != nil {
		return fmt.Errorf("failed to record deposit %s: %w", t.TxID, err)
	}
	if !created {
		return nil
	}

	metrics.DepositsTotal.WithLabelValues(string(cur.Symbol), string(StateSeen)).Inc()
	m.logger.Info("Deposit seen",
		zap.String("txid", d.TxID),
		zap.String("currency", string(cur.Symbol)),
		zap.String("user_id", d.UserID),
		zap.Int64("amount", d.Amount),
		zap.Int64("confirmations", d.Confirmations))

	if d.State == StateSeen && d.Amount < cur.MinDeposit {
		if err := m.store.MarkRejected(ctx, d.TxID, ReasonBelowMinimum); err != nil {
			return fmt.Errorf("failed to reject deposit %s: %w", d.TxID, err)
		}
		metrics.DepositsTotal.WithLabelValues(string(cur.Symbol), string(StateRejected)).Inc()
		m.logger.Warn("Deposit below minimum rejected",
			zap.String("txid", d.TxID),
			zap.Int64("amount", d.Amount),
			zap.Int64("min_deposit", cur.MinDeposit))
	}
	return nil
}

// credit moves a seen deposit to credited and adds its amount to the user's
// deposit sub-balance in one ledger transaction. It returns a Cooldown error
// when another transaction was attempted on the same address within the
// window, and a Conflict error when the deposit was already credited.
func (m *Monitor) credit(ctx context.Context, d *Deposit) error {
	unlock := m.lockCredit(d.UserID, d.Address)
	defer unlock()

	now := m.now()
	ok, until, err := m.cooldowns.Claim(ctx, d.UserID, d.Address, d.TxID, now)
	if err != nil {
		return fmt.Errorf("failed to claim credit attempt: %w", err)
	}
	if !ok {
		return apperrors.CooldownError(nil,
			fmt.Sprintf("deposit address %s is cooling down until %s", d.Address, until.Format(time.RFC3339)))
	}

	err = m.ledger.Update(ctx, d.UserID, nil, func(ctx context.Context, mu *ledger.Mutator) error {
		if err := m.store.MarkCredited(ctx, d.TxID, now); err != nil {
			if errors.Is(err, ErrConflict) {
				return apperrors.ConflictError(err, fmt.Sprintf("deposit %s already credited", d.TxID))
			}
			return fmt.Errorf("failed to mark deposit credited: %w", err)
		}
		return mu.Credit(ctx, d.Currency, ledger.SubDeposit, d.Amount, ledger.CauseDeposit, d.TxID)
	})
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindConflict) {
			m.logger.Debug("Deposit already credited", zap.String("txid", d.TxID))
		}
		return err
	}

	d.State = StateCredited
	d.CreditedAt = &now
	metrics.DepositsTotal.WithLabelValues(string(d.Currency), string(StateCredited)).Inc()
	m.logger.Info("Deposit credited",
		zap.String("txid", d.TxID),
		zap.String("currency", string(d.Currency)),
		zap.String("user_id", d.UserID),
		zap.Int64("amount", d.Amount))

	if err := m.publisher.Publish(ctx, events.SubjectDepositCredited, events.DepositCredited{
		TxID:       d.TxID,
		UserID:     d.UserID,
		Currency:   string(d.Currency),
		Amount:     d.Amount,
		Address:    d.Address,
		CreditedAt: now,
	}); err != nil {
		m.logger.Warn("Failed to publish deposit event", zap.String("txid", d.TxID), zap.Error(err))
	}
	return nil
}

// VerifyRequest asks for an immediate check of one user's deposits. TxID and
// Address are alternatives; with neither, the user's address for the
// currency is scanned.
type VerifyRequest struct {
	UserID   string
	Currency currency.Symbol
	TxID     string
	Address  string
}

// ManualVerify forces a poll cycle for the user's receive address and tries
// to credit what it finds. Cooldowns are honoured: a blocked credit returns a
// Cooldown error carrying the time it expires.
func (m *Monitor) ManualVerify(ctx context.Context, req VerifyRequest) ([]*Deposit, error) {
	cur, adapter, err := m.resolve(req.Currency)
	if err != nil {
		return nil, err
	}

	ra, err := m.store.GetReceiveAddress(ctx, req.UserID, cur.Chain)
	if errors.Is(err, ErrNotFound) {
		return nil, apperrors.ResourceNotFoundError(err, fmt.Sprintf("no %s receive address for user", cur.Chain))
	}
	if err != nil {
		return nil, err
	}
	if req.Address != "" && req.Address != ra.Address {
		return nil, apperrors.InvalidInputError(nil, "address is not the user's receive address")
	}

	if req.TxID != "" {
		existing, err := m.store.GetDeposit(ctx, req.TxID)
		switch {
		case err == nil && existing.UserID != req.UserID:
			return nil, apperrors.ResourceNotFoundError(nil, "deposit not found")
		case err == nil && existing.State != StateSeen:
			return []*Deposit{existing}, nil
		case err != nil && !errors.Is(err, ErrNotFound):
			return nil, err
		}
	}

	if err := m.scan(ctx, cur, adapter, ra); err != nil {
		return nil, provider.ToServiceError(err)
	}

	filter := Filter{UserID: req.UserID, Currency: cur.Symbol, Address: ra.Address, State: StateSeen, Limit: creditBatch}
	pending, err := m.store.ListDeposits(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending deposits: %w", err)
	}

	var (
		touched []*Deposit
		blocked error
	)
	for _, d := range pending {
		if req.TxID != "" && d.TxID != req.TxID {
			continue
		}
		err := m.credit(ctx, d)
		switch {
		case err == nil:
			touched = append(touched, d)
		case apperrors.IsKind(err, apperrors.KindCooldown):
			blocked = err
			touched = append(touched, d)
		case apperrors.IsKind(err, apperrors.KindConflict):
		default:
			return nil, err
		}
	}

	if req.TxID != "" && len(touched) == 0 {
		d, err := m.store.GetDeposit(ctx, req.TxID)
		if errors.Is(err, ErrNotFound) {
			return nil, apperrors.ResourceNotFoundError(err, "transaction not found or not yet confirmed")
		}
		if err != nil {
			return nil, err
		}
		touched = append(touched, d)
	}
	if blocked != nil {
		return touched, blocked
	}
	return touched, nil
}

// List returns deposit records for a user.
func (m *Monitor) List(ctx context.Context, f Filter) ([]*Deposit, error) {
	return m.store.ListDeposits(ctx, f)
}
