package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/chainsafe/custody-ledger/pkg/currency"
)

// ErrNotFound is returned by REST calls answered with 404.
var ErrNotFound = errors.New("not found")

const maxResponseBytes = 4 << 20

// RESTClient is a small JSON client shared by the REST-backed adapters. It
// classifies HTTP failures: 429 and 5xx are transient, other 4xx are rejected.
type RESTClient struct {
	Chain   currency.Chain
	BaseURL string
	Headers map[string]string
	HTTP    *http.Client
}

// Get fetches path and decodes the JSON response into out.
func (c *RESTClient) Get(ctx context.Context, op, path string, out any) error {
	return c.do(ctx, op, http.MethodGet, path, nil, out)
}

// Post sends body as JSON to path and decodes the JSON response into out.
func (c *RESTClient) Post(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, path, body, out)
}

func (c *RESTClient) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return Permanent(c.Chain, op, fmt.Errorf("encode request: %w", err))
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.BaseURL, "/")+path, reader)
	if err != nil {
		return Permanent(c.Chain, op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Transient(c.Chain, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Transient(c.Chain, op, fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &Error{Kind: KindPermanent, Chain: c.Chain, Op: op, Err: ErrNotFound}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return Transient(c.Chain, op, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(data)))
	case resp.StatusCode >= 400:
		return Rejected(c.Chain, op, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return Permanent(c.Chain, op, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func truncate(b []byte) string {
	const max = 256
	s := strings.TrimSpace(string(b))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
