package lockout

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func exerciseCounter(t *testing.T, c Counter) {
	t.Helper()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		got, err := c.Attempt(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("attempt: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d attempts, got %d", want, got)
		}
	}
	if n, _ := c.Failures(ctx, "10.0.0.2"); n != 0 {
		t.Fatalf("keys must be independent, got %d", n)
	}

	if err := c.Release(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if n, _ := c.Failures(ctx, "10.0.0.1"); n != 2 {
		t.Fatalf("expected 2 after release, got %d", n)
	}

	if err := c.Reset(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, err := c.Failures(ctx, "10.0.0.1"); err != nil || n != 0 {
		t.Fatalf("expected 0 after reset, got %d (%v)", n, err)
	}

	if err := c.Release(ctx, "10.0.0.3"); err != nil {
		t.Fatalf("release unknown key: %v", err)
	}
	if n, _ := c.Failures(ctx, "10.0.0.3"); n != 0 {
		t.Fatalf("release must not go negative, got %d", n)
	}
}

func exerciseConcurrentAttempts(t *testing.T, c Counter) {
	t.Helper()
	const workers = 30
	seen := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := c.Attempt(context.Background(), "guesser")
			if err != nil {
				t.Errorf("attempt: %v", err)
				return
			}
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	counts := make(map[int]bool)
	for n := range seen {
		if counts[n] {
			t.Fatalf("count %d handed out twice", n)
		}
		counts[n] = true
	}
	if len(counts) != workers {
		t.Fatalf("expected %d distinct counts, got %d", workers, len(counts))
	}
}

func newRedisCounter(t *testing.T) (*RedisCounter, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedisCounter(client, time.Minute), mr
}

func TestMemoryCounter(t *testing.T) {
	exerciseCounter(t, NewMemoryCounter(time.Minute))
}

func TestMemoryCounterConcurrentAttempts(t *testing.T) {
	exerciseConcurrentAttempts(t, NewMemoryCounter(time.Minute))
}

func TestMemoryCounterExpires(t *testing.T) {
	c := NewMemoryCounter(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	c.Attempt(ctx, "k")
	c.Attempt(ctx, "k")
	now = now.Add(time.Minute)

	if n, _ := c.Failures(ctx, "k"); n != 0 {
		t.Fatalf("expected expiry, got %d", n)
	}
}

func TestRedisCounter(t *testing.T) {
	c, mr := newRedisCounter(t)
	exerciseCounter(t, c)

	ctx := context.Background()
	if _, err := c.Attempt(ctx, "k"); err != nil {
		t.Fatalf("attempt: %v", err)
	}
	if ttl := mr.TTL(keyPrefix + "k"); ttl != time.Minute {
		t.Fatalf("expected window TTL, got %v", ttl)
	}
	mr.FastForward(2 * time.Minute)
	if n, _ := c.Failures(ctx, "k"); n != 0 {
		t.Fatalf("expected expiry, got %d", n)
	}
}

func TestRedisCounterConcurrentAttempts(t *testing.T) {
	c, _ := newRedisCounter(t)
	exerciseConcurrentAttempts(t, c)
}
