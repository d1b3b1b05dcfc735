package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerMutationsTotal counts committed journal entries by cause
	LedgerMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_ledger_mutations_total",
			Help: "Total number of committed ledger journal entries",
		},
		[]string{"currency", "cause"},
	)

	// LedgerRejectionsTotal counts ledger updates rolled back by error kind
	LedgerRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_ledger_rejections_total",
			Help: "Total number of ledger updates rejected before commit",
		},
		[]string{"kind"},
	)

	// InvariantViolationsTotal counts balance or pool invariant breaches
	InvariantViolationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_invariant_violations_total",
			Help: "Total number of detected ledger invariant violations",
		},
		[]string{"check", "currency"},
	)

	// PoolAvailable tracks withdrawable liquidity per currency in base units
	PoolAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "custody_pool_available_base_units",
			Help: "Available liquidity pool per currency",
		},
		[]string{"currency"},
	)

	// DepositsTotal counts deposits by currency and state
	DepositsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_deposits_total",
			Help: "Total number of deposits observed",
		},
		[]string{"currency", "state"},
	)

	// DepositPollErrors counts failed poll cycles by currency and error kind
	DepositPollErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_deposit_poll_errors_total",
			Help: "Total number of failed deposit poll cycles",
		},
		[]string{"currency", "kind"},
	)

	// WithdrawalsTotal counts withdrawal state transitions
	WithdrawalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_withdrawals_total",
			Help: "Total number of withdrawal state transitions",
		},
		[]string{"currency", "state"},
	)

	// WithdrawalStageDuration tracks time spent per orchestrator stage
	WithdrawalStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "custody_withdrawal_stage_duration_seconds",
			Help:    "Withdrawal stage processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// PendingWithdrawals tracks non-terminal withdrawals claimed per dispatch cycle
	PendingWithdrawals = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "custody_pending_withdrawals",
			Help: "Number of withdrawals due in the last dispatch cycle",
		},
	)

	// ProviderCallsTotal counts chain adapter calls by chain, method and result
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_provider_calls_total",
			Help: "Total number of chain provider calls",
		},
		[]string{"chain", "method", "result"},
	)

	// ProviderCallDuration tracks chain adapter latency
	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "custody_provider_call_duration_seconds",
			Help:    "Chain provider call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"chain", "method"},
	)

	// PriceRefreshesTotal counts price table refreshes by result
	PriceRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_price_refreshes_total",
			Help: "Total number of price table refreshes",
		},
		[]string{"result"},
	)

	// PriceSnapshotAge tracks the age of the price snapshot served to conversions
	PriceSnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "custody_price_snapshot_age_seconds",
			Help: "Age of the price snapshot in seconds",
		},
	)

	// BetsSettledTotal counts settled bets by outcome
	BetsSettledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_bets_settled_total",
			Help: "Total number of settled bets",
		},
		[]string{"currency", "outcome"},
	)

	// ErrorsTotal counts errors by type
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custody_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)
