package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainsafe/custody-ledger/pkg/currency"
)

const maxQuoteBody = 1 << 20

// Source supplies USD quotes per display unit.
type Source interface {
	Quotes(ctx context.Context) (map[currency.Symbol]decimal.Decimal, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (map[currency.Symbol]decimal.Decimal, error)

func (f SourceFunc) Quotes(ctx context.Context) (map[currency.Symbol]decimal.Decimal, error) {
	return f(ctx)
}

// StaticSource serves a fixed table, typically from configuration.
type StaticSource map[currency.Symbol]decimal.Decimal

// NewStaticSource parses a symbol to decimal-string table.
func NewStaticSource(raw map[string]string) (StaticSource, error) {
	out := make(StaticSource, len(raw))
	for sym, v := range raw {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid static price for %s: %w", sym, err)
		}
		out[currency.Symbol(strings.ToUpper(sym))] = d
	}
	return out, nil
}

func (s StaticSource) Quotes(context.Context) (map[currency.Symbol]decimal.Decimal, error) {
	out := make(map[currency.Symbol]decimal.Decimal, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

// HTTPSource fetches a JSON object of symbol to price, e.g. {"USDC":"1.0","CRT":0.01}.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates an HTTP quote source.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSource) Quotes(ctx context.Context) (map[currency.Symbol]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("quote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("quote source returned status %d", resp.StatusCode)
	}

	var raw map[string]decimal.Decimal
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxQuoteBody)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode quotes: %w", err)
	}
	out := make(map[currency.Symbol]decimal.Decimal, len(raw))
	for k, v := range raw {
		out[currency.Symbol(strings.ToUpper(k))] = v
	}
	return out, nil
}
