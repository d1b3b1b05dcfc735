// Package price holds the USD price table used for conversions.
package price

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainsafe/custody-ledger/pkg/currency"
)

// RateScale is the fixed-point scale of recorded conversion rates.
var RateScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var (
	ErrNoPrice    = errors.New("no price for currency")
	ErrZeroOutput = errors.New("conversion output rounds to zero")
	ErrOverflow   = errors.New("conversion output overflows base units")
)

// Price is the USD price of one display unit as an integer ratio.
type Price struct {
	Num *big.Int
	Den *big.Int
}

// FromDecimal converts a positive decimal quote into a reduced ratio.
func FromDecimal(d decimal.Decimal) (Price, error) {
	if !d.IsPositive() {
		return Price{}, fmt.Errorf("price must be positive, got %s", d)
	}
	num := new(big.Int).Set(d.Coefficient())
	den := big.NewInt(1)
	if exp := d.Exponent(); exp >= 0 {
		num.Mul(num, pow10(int64(exp)))
	} else {
		den = pow10(int64(-exp))
	}
	g := new(big.Int).GCD(nil, nil, num, den)
	return Price{Num: num.Quo(num, g), Den: den.Quo(den, g)}, nil
}

// Ratio builds a price from integer numerator and denominator.
func Ratio(num, den int64) Price {
	return Price{Num: big.NewInt(num), Den: big.NewInt(den)}
}

func (p Price) String() string {
	return fmt.Sprintf("%s/%s", p.Num, p.Den)
}

// Snapshot is one consistent view of the price table.
type Snapshot struct {
	Prices    map[currency.Symbol]Price
	FetchedAt time.Time
}

func (s *Snapshot) price(sym currency.Symbol) (Price, error) {
	p, ok := s.Prices[sym]
	if !ok {
		return Price{}, fmt.Errorf("%w: %s", ErrNoPrice, sym)
	}
	return p, nil
}

// Convert computes the destination amount in base units, rounding down:
//
//	to = from * pf.num * pt.den * 10^to.dec / (pf.den * pt.num * 10^from.dec)
//
// Any residue is discarded. A zero result is ErrZeroOutput.
func (s *Snapshot) Convert(amount int64, from, to currency.Currency) (int64, error) {
	if amount <= 0 {
		return 0, errors.New("amount must be positive")
	}
	pf, err := s.price(from.Symbol)
	if err != nil {
		return 0, err
	}
	pt, err := s.price(to.Symbol)
	if err != nil {
		return 0, err
	}

	num := new(big.Int).SetInt64(amount)
	num.Mul(num, pf.Num)
	num.Mul(num, pt.Den)
	num.Mul(num, pow10(int64(to.Decimals)))

	den := new(big.Int).Mul(pf.Den, pt.Num)
	den.Mul(den, pow10(int64(from.Decimals)))

	out := num.Quo(num, den)
	if out.Sign() == 0 {
		return 0, ErrZeroOutput
	}
	if !out.IsInt64() {
		return 0, ErrOverflow
	}
	return out.Int64(), nil
}

// RateScaled returns floor(price[from]/price[to] * 10^18) as a decimal string,
// the display-unit exchange rate recorded with a conversion.
func (s *Snapshot) RateScaled(from, to currency.Symbol) (string, error) {
	pf, err := s.price(from)
	if err != nil {
		return "", err
	}
	pt, err := s.price(to)
	if err != nil {
		return "", err
	}
	num := new(big.Int).Mul(pf.Num, pt.Den)
	num.Mul(num, RateScale)
	den := new(big.Int).Mul(pf.Den, pt.Num)
	return num.Quo(num, den).String(), nil
}

func pow10(n int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(n), nil)
}
