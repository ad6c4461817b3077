package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// GreetingThrottle tracks when each sender was last greeted.
type GreetingThrottle interface {
	// Touch atomically records now as the sender's latest greeting and
	// returns the previous one, if any.
	Touch(ctx context.Context, senderID string, now time.Time) (last time.Time, found bool, err error)
}

// MemoryGreetingThrottle keeps greeting state in process. Entries older than
// the window carry no information and are pruned.
type MemoryGreetingThrottle struct {
	mu        sync.Mutex
	window    time.Duration
	last      map[string]time.Time
	lastPrune time.Time
}

// NewMemoryGreetingThrottle creates a throttle for a single responder instance.
func NewMemoryGreetingThrottle(window time.Duration) *MemoryGreetingThrottle {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &MemoryGreetingThrottle{window: window, last: make(map[string]time.Time)}
}

func (t *MemoryGreetingThrottle) Touch(_ context.Context, senderID string, now time.Time) (time.Time, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastPrune) >= t.window {
		for id, ts := range t.last {
			if now.Sub(ts) >= t.window {
				delete(t.last, id)
			}
		}
		t.lastPrune = now
	}

	prev, ok := t.last[senderID]
	t.last[senderID] = now
	return prev, ok, nil
}

// Len returns the number of tracked senders.
func (t *MemoryGreetingThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.last)
}

const greetingKeyPrefix = "responder:greeting:"

// RedisGreetingThrottle shares greeting state across responder instances using
// SET ... GET so the read and write happen in one command.
type RedisGreetingThrottle struct {
	client *redis.Client
	window time.Duration
}

// NewRedisGreetingThrottle creates a Redis-backed throttle.
func NewRedisGreetingThrottle(client *redis.Client, window time.Duration) *RedisGreetingThrottle {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &RedisGreetingThrottle{client: client, window: window}
}

func (t *RedisGreetingThrottle) Touch(ctx context.Context, senderID string, now time.Time) (time.Time, bool, error) {
	prev, err := t.client.SetArgs(ctx, greetingKeyPrefix+senderID, strconv.FormatInt(now.UnixNano(), 10), redis.SetArgs{
		TTL: t.window,
		Get: true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("conversation: greeting throttle: %w", err)
	}
	nanos, err := strconv.ParseInt(prev, 10, 64)
	if err != nil {
		return time.Time{}, false, nil
	}
	return time.Unix(0, nanos), true, nil
}
