// Package currency holds the registry of supported currencies and base-unit conversions.
package currency

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainsafe/custody-ledger/pkg/config"
)

// Symbol is an enumerated currency symbol such as USDC or DOGE.
type Symbol string

func (s Symbol) String() string { return string(s) }

// Chain identifies the network a currency settles on.
type Chain string

const (
	ChainSolana   Chain = "solana"
	ChainDogecoin Chain = "dogecoin"
	ChainTron     Chain = "tron"
)

// NativeAsset marks a currency that is the chain's own coin rather than a token.
const NativeAsset = "native"

var (
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// Currency describes one supported currency. All amounts are base units.
type Currency struct {
	Symbol           Symbol
	Decimals         int32
	Chain            Chain
	AssetID          string
	MinWithdrawal    int64
	MinDeposit       int64
	PerTxCap         int64
	DailyCap         int64
	MinConfirmations int64
	PollInterval     time.Duration
}

// IsNative reports whether the currency is the chain's native coin.
func (c Currency) IsNative() bool {
	return c.AssetID == "" || c.AssetID == NativeAsset
}

// Format renders base units as a display decimal string.
func (c Currency) Format(amount int64) string {
	return FormatBaseUnits(amount, c.Decimals)
}

// Money is an amount of one currency in base units.
type Money struct {
	Currency Symbol `json:"currency"`
	Amount   int64  `json:"amount"`
}

// Registry is an immutable set of currencies built at start-up.
type Registry struct {
	bySymbol map[Symbol]Currency
	order    []Symbol
}

// NewRegistry converts currency configuration into base-unit currencies.
func NewRegistry(cfgs []config.CurrencyConfig) (*Registry, error) {
	r := &Registry{bySymbol: make(map[Symbol]Currency, len(cfgs))}
	for _, c := range cfgs {
		cur := Currency{
			Symbol:           Symbol(strings.ToUpper(c.Symbol)),
			Decimals:         int32(c.Decimals),
			Chain:            Chain(c.Chain),
			AssetID:          c.AssetID,
			MinConfirmations: c.MinConfirmations,
			PollInterval:     c.PollInterval,
		}
		var err error
		if cur.MinWithdrawal, err = ToBaseUnits(c.MinWithdrawal, cur.Decimals); err != nil {
			return nil, fmt.Errorf("currency %s min_withdrawal: %w", c.Symbol, err)
		}
		if cur.MinDeposit, err = ToBaseUnits(c.MinDeposit, cur.Decimals); err != nil {
			return nil, fmt.Errorf("currency %s min_deposit: %w", c.Symbol, err)
		}
		if cur.PerTxCap, err = ToBaseUnits(c.PerTxCap, cur.Decimals); err != nil {
			return nil, fmt.Errorf("currency %s per_tx_cap: %w", c.Symbol, err)
		}
		if cur.DailyCap, err = ToBaseUnits(c.DailyCap, cur.Decimals); err != nil {
			return nil, fmt.Errorf("currency %s daily_cap: %w", c.Symbol, err)
		}
		if cur.PerTxCap > cur.DailyCap {
			return nil, fmt.Errorf("currency %s per_tx_cap exceeds daily_cap", c.Symbol)
		}
		if _, dup := r.bySymbol[cur.Symbol]; dup {
			return nil, fmt.Errorf("currency %s configured twice", cur.Symbol)
		}
		r.bySymbol[cur.Symbol] = cur
		r.order = append(r.order, cur.Symbol)
	}
	sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })
	return r, nil
}

// NewRegistryFrom builds a registry directly from currencies.
func NewRegistryFrom(curs ...Currency) *Registry {
	r := &Registry{bySymbol: make(map[Symbol]Currency, len(curs))}
	for _, c := range curs {
		r.bySymbol[c.Symbol] = c
		r.order = append(r.order, c.Symbol)
	}
	sort.Slice(r.order, func(i, j int) bool { return r.order[i] < r.order[j] })
	return r
}

// Get returns the currency for symbol.
func (r *Registry) Get(sym Symbol) (Currency, error) {
	c, ok := r.bySymbol[sym]
	if !ok {
		return Currency{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, sym)
	}
	return c, nil
}

// Parse resolves a free-form symbol from the request boundary.
func (r *Registry) Parse(raw string) (Currency, error) {
	return r.Get(Symbol(strings.ToUpper(strings.TrimSpace(raw))))
}

// All returns every currency ordered by symbol.
func (r *Registry) All() []Currency {
	out := make([]Currency, 0, len(r.order))
	for _, s := range r.order {
		out = append(out, r.bySymbol[s])
	}
	return out
}

// Symbols returns every symbol in sorted order.
func (r *Registry) Symbols() []Symbol {
	return append([]Symbol(nil), r.order...)
}

// ByChain returns the currencies that settle on chain.
func (r *Registry) ByChain(chain Chain) []Currency {
	var out []Currency
	for _, s := range r.order {
		if c := r.bySymbol[s]; c.Chain == chain {
			out = append(out, c)
		}
	}
	return out
}

// Chains returns the distinct chains in use.
func (r *Registry) Chains() []Chain {
	seen := make(map[Chain]struct{})
	var out []Chain
	for _, s := range r.order {
		ch := r.bySymbol[s].Chain
		if _, ok := seen[ch]; !ok {
			seen[ch] = struct{}{}
			out = append(out, ch)
		}
	}
	return out
}

// ToBaseUnits parses a display decimal into base units. More fractional digits
// than the currency supports is an error, not a rounding.
func ToBaseUnits(display string, decimals int32) (int64, error) {
	if strings.TrimSpace(display) == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(display))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: negative", ErrInvalidAmount)
	}
	scaled := d.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, decimals)
	}
	if scaled.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, fmt.Errorf("%w: overflows base units", ErrInvalidAmount)
	}
	return scaled.IntPart(), nil
}

// FormatBaseUnits renders base units with exactly decimals fractional digits.
func FormatBaseUnits(amount int64, decimals int32) string {
	return decimal.New(amount, -decimals).StringFixed(decimals)
}
