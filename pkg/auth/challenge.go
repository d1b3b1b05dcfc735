package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrChallengeNotFound is returned for unknown, expired or already used
// challenges.
var ErrChallengeNotFound = errors.New("challenge not found")

// Challenge is a one-time sign-in message bound to a wallet.
type Challenge struct {
	ID        string    `json:"id"`
	Chain     string    `json:"chain"`
	Address   string    `json:"address"`
	Nonce     string    `json:"nonce"`
	Message   string    `json:"message"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewChallenge builds the sign-in message for a wallet.
func NewChallenge(domain string, w Wallet, now time.Time, ttl time.Duration) *Challenge {
	c := &Challenge{
		ID:        uuid.NewString(),
		Chain:     w.Chain,
		Address:   w.Address,
		Nonce:     uuid.NewString(),
		IssuedAt:  now.UTC(),
		ExpiresAt: now.Add(ttl).UTC(),
	}
	c.Message = fmt.Sprintf("%s wants you to sign in with your %s account:\n%s\n\nNonce: %s\nIssued At: %s\nExpiration Time: %s",
		domain, w.Chain, w.Address, c.Nonce,
		c.IssuedAt.Format(time.RFC3339), c.ExpiresAt.Format(time.RFC3339))
	return c
}

// Expired reports whether the challenge can no longer be redeemed at now.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// ChallengeStore keeps outstanding challenges. Take removes the challenge so
// each one is redeemed at most once.
//
//go:generate mockery --name ChallengeStore --output mocks --outpkg mocks --filename mock_challenge_store.go --with-expecter
type ChallengeStore interface {
	Save(ctx context.Context, c *Challenge) error
	Take(ctx context.Context, id string) (*Challenge, error)
}

// MemoryChallenges keeps challenges in process memory.
type MemoryChallenges struct {
	mu    sync.Mutex
	items map[string]*Challenge
	now   func() time.Time
}

// NewMemoryChallenges creates an in-memory challenge store.
func NewMemoryChallenges(now func() time.Time) *MemoryChallenges {
	if now == nil {
		now = time.Now
	}
	return &MemoryChallenges{items: make(map[string]*Challenge), now: now}
}

func (m *MemoryChallenges) Save(_ context.Context, c *Challenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, old := range m.items {
		if old.Expired(now) {
			delete(m.items, id)
		}
	}
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *MemoryChallenges) Take(_ context.Context, id string) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, ErrChallengeNotFound
	}
	delete(m.items, id)
	if c.Expired(m.now()) {
		return nil, ErrChallengeNotFound
	}
	return c, nil
}

// RedisChallenges keeps challenges in redis so any server process can
// redeem them.
type RedisChallenges struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisChallenges creates a redis-backed challenge store.
func NewRedisChallenges(client redis.UniversalClient, prefix string) *RedisChallenges {
	return &RedisChallenges{client: client, prefix: prefix}
}

func (r *RedisChallenges) key(id string) string {
	return r.prefix + "challenge:" + id
}

func (r *RedisChallenges) Save(ctx context.Context, c *Challenge) error {
	ttl := time.Until(c.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("challenge %s already expired", c.ID)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode challenge: %w", err)
	}
	return r.client.Set(ctx, r.key(c.ID), raw, ttl).Err()
}

func (r *RedisChallenges) Take(ctx context.Context, id string) (*Challenge, error) {
	raw, err := r.client.GetDel(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read challenge: %w", err)
	}
	var c Challenge
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("failed to decode challenge: %w", err)
	}
	return &c, nil
}
