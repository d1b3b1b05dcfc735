package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math/big"
	"math/rand/v2"
	"net/http"
	"slices"
	"strings"
	"time"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
)

const maxResolverBody = 64 << 10

// Resolution is the game layer's verdict on an open bet.
type Resolution struct {
	Outcome Outcome `json:"outcome"`
	Payout  int64   `json:"payout"`
}

// Check rejects verdicts that cannot be settled against a bet of stake: an
// unknown outcome, or a win that does not pay more than the stake.
func (r *Resolution) Check(stake int64) error {
	if !r.Outcome.Valid() {
		return fmt.Errorf("resolver returned unknown outcome %q", r.Outcome)
	}
	if r.Outcome == OutcomeWin && r.Payout <= stake {
		return fmt.Errorf("resolver returned a win paying %d on a stake of %d", r.Payout, stake)
	}
	return nil
}

// Resolver runs the game round for a staked bet.
//
//go:generate mockery --name Resolver --output mocks --outpkg mocks --filename mock_resolver.go --with-expecter
type Resolver interface {
	Resolve(ctx context.Context, b *Bet) (*Resolution, error)
}

// HTTPResolver asks an external game service to resolve bets.
type HTTPResolver struct {
	url    string
	client *http.Client
}

// NewHTTPResolver creates a resolver posting to url.
func NewHTTPResolver(url string, timeout time.Duration) *HTTPResolver {
	return &HTTPResolver{url: url, client: &http.Client{Timeout: timeout}}
}

type resolveRequest struct {
	BetID    string          `json:"bet_id"`
	UserID   string          `json:"user_id"`
	Game     string          `json:"game"`
	Currency string          `json:"currency"`
	Stake    int64           `json:"stake"`
	Params   json.RawMessage `json:"params,omitempty"`
}

func (r *HTTPResolver) Resolve(ctx context.Context, b *Bet) (*Resolution, error) {
	body, err := json.Marshal(resolveRequest{
		BetID:    b.ID,
		UserID:   b.UserID,
		Game:     b.Game,
		Currency: string(b.Currency),
		Stake:    b.Stake,
		Params:   b.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode resolve request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build resolve request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolver returned status %d", resp.StatusCode)
	}
	var res Resolution
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResolverBody)).Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode resolution: %w", err)
	}
	if err := res.Check(b.Stake); err != nil {
		return nil, err
	}
	return &res, nil
}

// Odds describes a fixed-odds game: the win probability in basis points and
// the payout multipliers, also in basis points, one of which is drawn on a
// win.
type Odds struct {
	WinBps        int
	MultiplierBps []int64
}

// DefaultOdds is the built-in game table.
var DefaultOdds = map[string]Odds{
	"slots":    {WinBps: 1500, MultiplierBps: []int64{20000, 30000, 50000, 100000, 250000}},
	"roulette": {WinBps: 4700, MultiplierBps: []int64{20000}},
	"dice":     {WinBps: 4900, MultiplierBps: []int64{15000, 20000, 30000, 50000, 100000}},
	"plinko":   {WinBps: 2000, MultiplierBps: []int64{15000, 20000, 40000, 90000, 260000, 1300000, 10000000}},
	"keno":     {WinBps: 2500, MultiplierBps: []int64{30000, 120000, 420000, 1080000, 8100000}},
	"mines":    {WinBps: 3000, MultiplierBps: []int64{20000, 50000, 100000, 250000, 500000}},
}

// OddsResolver resolves bets locally from a fixed-odds table.
type OddsResolver struct {
	games map[string]Odds
	intn  func(n int) int
}

// NewOddsResolver creates a resolver over games. Unknown games are rejected.
func NewOddsResolver(games map[string]Odds) *OddsResolver {
	return &OddsResolver{games: games, intn: rand.IntN}
}

func (r *OddsResolver) Resolve(_ context.Context, b *Bet) (*Resolution, error) {
	odds, ok := r.games[strings.ToLower(b.Game)]
	if !ok {
		return nil, apperrors.InvalidInputError(nil, fmt.Sprintf("unknown game %q", b.Game))
	}
	if r.intn(10000) >= odds.WinBps || len(odds.MultiplierBps) == 0 {
		return &Resolution{Outcome: OutcomeLoss}, nil
	}
	m := odds.MultiplierBps[r.intn(len(odds.MultiplierBps))]
	payout, ok := applyBps(b.Stake, m)
	if !ok {
		return nil, apperrors.LimitExceededError(nil, "stake too large for this game's payout table")
	}
	if payout <= b.Stake {
		return &Resolution{Outcome: OutcomePush, Payout: b.Stake}, nil
	}
	return &Resolution{Outcome: OutcomeWin, Payout: payout}, nil
}

// Games lists the game names the resolver knows.
func (r *OddsResolver) Games() []string {
	return slices.Sorted(maps.Keys(r.games))
}

// applyBps returns amount*bps/10000 rounded down, and false when the result
// does not fit in an int64.
func applyBps(amount, bps int64) (int64, bool) {
	v := new(big.Int).Mul(big.NewInt(amount), big.NewInt(bps))
	v.Quo(v, big.NewInt(10000))
	if !v.IsInt64() {
		return 0, false
	}
	return v.Int64(), true
}
