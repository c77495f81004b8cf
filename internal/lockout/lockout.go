// Package lockout counts consecutive failed logins per client.
package lockout

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lockout:login:"

// Counter tracks consecutive failures. An attempt is reserved before the
// credentials are checked, so concurrent guesses each see a distinct count.
// A success resets the count; an idle key expires after the configured window.
type Counter interface {
	// Attempt reserves one login attempt and returns the count including it.
	Attempt(ctx context.Context, key string) (int, error)
	// Release hands back an attempt that ended without a credential check.
	Release(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
	Failures(ctx context.Context, key string) (int, error)
}

// RedisCounter keeps counts in Redis so several API processes share them.
type RedisCounter struct {
	client *redis.Client
	window time.Duration
}

// NewRedisCounter builds a Redis-backed counter.
func NewRedisCounter(client *redis.Client, window time.Duration) *RedisCounter {
	return &RedisCounter{client: client, window: window}
}

// Decrements and drops the key once it reaches zero so an expired key is
// never driven negative.
var releaseScript = redis.NewScript(`
local n = redis.call('DECR', KEYS[1])
if n <= 0 then
	redis.call('DEL', KEYS[1])
	return 0
end
return n
`)

func (r *RedisCounter) Attempt(ctx context.Context, key string) (int, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, keyPrefix+key)
	pipe.Expire(ctx, keyPrefix+key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (r *RedisCounter) Release(ctx context.Context, key string) error {
	return releaseScript.Run(ctx, r.client, []string{keyPrefix + key}).Err()
}

func (r *RedisCounter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}

func (r *RedisCounter) Failures(ctx context.Context, key string) (int, error) {
	v, err := r.client.Get(ctx, keyPrefix+key).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("corrupt lockout counter %s: %w", key, err)
	}
	return n, nil
}

type entry struct {
	count     int
	expiresAt time.Time
}

// MemoryCounter is the single-process fallback used when Redis is not configured.
type MemoryCounter struct {
	mu      sync.Mutex
	window  time.Duration
	now     func() time.Time
	entries map[string]entry
}

// NewMemoryCounter builds an in-memory counter.
func NewMemoryCounter(window time.Duration) *MemoryCounter {
	return &MemoryCounter{window: window, now: time.Now, entries: make(map[string]entry)}
}

func (m *MemoryCounter) Attempt(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	e.count++
	e.expiresAt = m.now().Add(m.window)
	m.entries[key] = e
	return e.count, nil
}

func (m *MemoryCounter) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e.count <= 1 {
		delete(m.entries, key)
		return nil
	}
	e.count--
	m.entries[key] = e
	return nil
}

func (m *MemoryCounter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *MemoryCounter) Failures(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live(key).count, nil
}

// live returns the entry for key, dropping it if expired. Caller holds m.mu.
func (m *MemoryCounter) live(key string) entry {
	e, ok := m.entries[key]
	if ok && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		return entry{}
	}
	return e
}
