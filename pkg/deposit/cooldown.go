package deposit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cooldowns tracks the last credit attempt per (user, receive address).
// A cooldown is active for a different transaction while
// now < last attempt + window; exactly at the boundary it has expired.
//
// Claim checks the cooldown and records the attempt in one atomic step. It
// returns false and the time the cooldown ends when txID is blocked.
type Cooldowns interface {
	Claim(ctx context.Context, userID, address, txID string, now time.Time) (bool, time.Time, error)
}

// StoreCooldowns keeps cooldown state on the receive address row.
type StoreCooldowns struct {
	store  Store
	window time.Duration
}

// NewStoreCooldowns creates a cooldown tracker over the deposit store.
func NewStoreCooldowns(store Store, window time.Duration) *StoreCooldowns {
	return &StoreCooldowns{store: store, window: window}
}

func (c *StoreCooldowns) Claim(ctx context.Context, _, address, txID string, now time.Time) (bool, time.Time, error) {
	return c.store.ClaimCreditAttempt(ctx, address, txID, now, c.window)
}

type attempt struct {
	at   time.Time
	txID string
}

// MemoryCooldowns keeps cooldown state in process memory.
type MemoryCooldowns struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]attempt
}

// NewMemoryCooldowns creates an in-memory cooldown tracker.
func NewMemoryCooldowns(window time.Duration) *MemoryCooldowns {
	return &MemoryCooldowns{window: window, last: make(map[string]attempt)}
}

func (c *MemoryCooldowns) Claim(_ context.Context, userID, address, txID string, now time.Time) (bool, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := userID + "|" + address
	if a, ok := c.last[key]; ok && a.txID != txID {
		if until := a.at.Add(c.window); now.Before(until) {
			return false, until, nil
		}
	}
	c.last[key] = attempt{at: now, txID: txID}
	return true, time.Time{}, nil
}

// claimScript returns 0 after recording the attempt, or the end of the
// active cooldown in unix milliseconds.
var claimScript = redis.NewScript(`
local at = redis.call('HGET', KEYS[1], 'at')
local tx = redis.call('HGET', KEYS[1], 'txid')
if at and tx ~= ARGV[1] then
	local ends = tonumber(at) + tonumber(ARGV[3])
	if tonumber(ARGV[2]) < ends then
		return ends
	end
end
redis.call('HSET', KEYS[1], 'at', ARGV[2], 'txid', ARGV[1])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 0
`)

// RedisCooldowns keeps cooldown state in redis hashes that expire with the
// window, so several server processes share it.
type RedisCooldowns struct {
	client redis.UniversalClient
	prefix string
	window time.Duration
}

// NewRedisCooldowns creates a redis-backed cooldown tracker.
func NewRedisCooldowns(client redis.UniversalClient, prefix string, window time.Duration) *RedisCooldowns {
	return &RedisCooldowns{client: client, prefix: prefix, window: window}
}

func (c *RedisCooldowns) key(userID, address string) string {
	return c.prefix + "cooldown:" + userID + ":" + address
}

func (c *RedisCooldowns) Claim(ctx context.Context, userID, address, txID string, now time.Time) (bool, time.Time, error) {
	ends, err := claimScript.Run(ctx, c.client, []string{c.key(userID, address)},
		txID,
		now.UnixMilli(),
		c.window.Milliseconds(),
		(c.window + time.Minute).Milliseconds(),
	).Int64()
	if err != nil {
		return false, time.Time{}, err
	}
	if ends > 0 {
		return false, time.UnixMilli(ends).UTC(), nil
	}
	return true, time.Time{}, nil
}
