// Package audit periodically checks that stored balances agree with the
// journal and that every liquidity pool equals the sum of its contributors.
package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chainsafe/custody-ledger/internal/metrics"
	"github.com/chainsafe/custody-ledger/pkg/currency"
	"github.com/chainsafe/custody-ledger/pkg/ledger"
)

// Check names a class of inconsistency.
type Check string

const (
	CheckNegativeBalance Check = "negative_balance"
	CheckJournalMismatch Check = "journal_mismatch"
	CheckPoolMismatch    Check = "pool_mismatch"
	CheckPoolNegative    Check = "pool_negative"
)

// Violation is one detected inconsistency.
type Violation struct {
	Check      Check             `json:"check"`
	UserID     string            `json:"user_id,omitempty"`
	Currency   currency.Symbol   `json:"currency"`
	SubBalance ledger.SubBalance `json:"sub_balance,omitempty"`
	Stored     int64             `json:"stored"`
	Expected   int64             `json:"expected"`
}

func (v Violation) String() string {
	if v.UserID == "" {
		return fmt.Sprintf("%s %s: stored=%d expected=%d", v.Check, v.Currency, v.Stored, v.Expected)
	}
	return fmt.Sprintf("%s %s/%s/%s: stored=%d expected=%d", v.Check, v.UserID, v.Currency, v.SubBalance, v.Stored, v.Expected)
}

// Report is the outcome of one audit run.
type Report struct {
	CheckedAt  time.Time     `json:"checked_at"`
	Duration   time.Duration `json:"duration"`
	Balances   int           `json:"balances"`
	Pools      int           `json:"pools"`
	Violations []Violation   `json:"violations"`
}

// OK reports whether the run found nothing wrong.
func (r *Report) OK() bool {
	return len(r.Violations) == 0
}

// Auditor runs the checks on demand and on an interval.
type Auditor struct {
	store  ledger.Reader
	logger *zap.Logger
	now    func() time.Time

	mu   sync.RWMutex
	last *Report

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an Auditor
func New(store ledger.Reader, logger *zap.Logger) *Auditor {
	return &Auditor{
		store:  store,
		logger: logger.With(zap.String("component", "audit")),
		now:    time.Now,
		stopCh: make(chan struct{}),
	}
}

type subKey struct {
	userID   string
	currency currency.Symbol
	sub      ledger.SubBalance
}

// Run audits one consistent snapshot of the ledger.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	start := a.now()
	var (
		balances []*ledger.Balance
		totals   []ledger.JournalTotal
		pools    []*ledger.Pool
	)
	err := a.store.ReadSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if balances, err = a.store.AllBalances(ctx); err != nil {
			return fmt.Errorf("failed to list balances: %w", err)
		}
		if totals, err = a.store.JournalTotals(ctx); err != nil {
			return fmt.Errorf("failed to sum journal: %w", err)
		}
		if pools, err = a.store.ListPools(ctx); err != nil {
			return fmt.Errorf("failed to list pools: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := &Report{CheckedAt: start.UTC(), Balances: len(balances), Pools: len(pools)}

	journal := make(map[subKey]int64, len(totals))
	for _, t := range totals {
		journal[subKey{t.UserID, t.Currency, t.SubBalance}] = t.Amount
	}
	liquidity := make(map[currency.Symbol]int64)
	for _, b := range balances {
		for _, sub := range ledger.SubBalances {
			stored := b.Get(sub)
			key := subKey{b.UserID, b.Currency, sub}
			expected := journal[key]
			delete(journal, key)
			if stored < 0 {
				report.Violations = append(report.Violations, Violation{
					Check: CheckNegativeBalance, UserID: b.UserID, Currency: b.Currency, SubBalance: sub, Stored: stored,
				})
			}
			if stored != expected {
				report.Violations = append(report.Violations, Violation{
					Check: CheckJournalMismatch, UserID: b.UserID, Currency: b.Currency, SubBalance: sub,
					Stored: stored, Expected: expected,
				})
			}
		}
		liquidity[b.Currency] += b.Liquidity
	}
	// journal activity for a balance row that does not exist
	for key, amount := range journal {
		if amount != 0 {
			report.Violations = append(report.Violations, Violation{
				Check: CheckJournalMismatch, UserID: key.userID, Currency: key.currency, SubBalance: key.sub, Expected: amount,
			})
		}
	}

	for _, p := range pools {
		if want := liquidity[p.Currency]; p.Balance != want {
			report.Violations = append(report.Violations, Violation{
				Check: CheckPoolMismatch, Currency: p.Currency, Stored: p.Balance, Expected: want,
			})
		}
		if p.Escrow < 0 || p.PaidOut < 0 || p.Available() < 0 {
			report.Violations = append(report.Violations, Violation{
				Check: CheckPoolNegative, Currency: p.Currency, Stored: p.Available(),
			})
		}
		delete(liquidity, p.Currency)
	}
	for cur, want := range liquidity {
		if want != 0 {
			report.Violations = append(report.Violations, Violation{Check: CheckPoolMismatch, Currency: cur, Expected: want})
		}
	}

	report.Duration = a.now().Sub(start)
	for _, v := range report.Violations {
		metrics.InvariantViolationsTotal.WithLabelValues(string(v.Check), string(v.Currency)).Inc()
		a.logger.Error("Ledger invariant violated",
			zap.String("check", string(v.Check)),
			zap.String("user_id", v.UserID),
			zap.String("currency", string(v.Currency)),
			zap.String("sub_balance", string(v.SubBalance)),
			zap.Int64("stored", v.Stored),
			zap.Int64("expected", v.Expected))
	}
	a.logger.Info("Audit completed",
		zap.Int("balances", report.Balances),
		zap.Int("pools", report.Pools),
		zap.Int("violations", len(report.Violations)),
		zap.Duration("duration", report.Duration))

	a.mu.Lock()
	a.last = report
	a.mu.Unlock()
	return report, nil
}

// Last returns the most recent report, or nil before the first run.
func (a *Auditor) Last() *Report {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last
}

// Start runs the audit every interval until Stop is called.
func (a *Auditor) Start(interval time.Duration) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		a.logger.Info("Started periodic audit", zap.Duration("interval", interval))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				if _, err := a.Run(ctx); err != nil {
					a.logger.Error("Periodic audit failed", zap.Error(err))
				}
				cancel()
			case <-a.stopCh:
				a.logger.Info("Stopping periodic audit")
				return
			}
		}
	}()
}

// Stop stops the periodic audit. It is safe to call more than once.
func (a *Auditor) Stop() {
	a.stopOnce.Do(func() { close(a.stopCh) })
	a.wg.Wait()
}
