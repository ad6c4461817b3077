package conversation

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

// ProcessedEventStore records message identifiers with check-and-set semantics.
type ProcessedEventStore interface {
	// MarkProcessed records id and reports whether it was new.
	MarkProcessed(ctx context.Context, platform, id string) (bool, error)
}

// IdempotencyGuard decides whether an inbound event should be processed.
type IdempotencyGuard struct {
	store  ProcessedEventStore
	logger *logging.Logger
}

// NewIdempotencyGuard wraps a store. A nil store falls back to an in-memory one.
func NewIdempotencyGuard(store ProcessedEventStore, logger *logging.Logger) *IdempotencyGuard {
	if store == nil {
		store = NewMemoryProcessedStore(0, 0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IdempotencyGuard{store: store, logger: logger}
}

// Admit reports whether event should be processed. Echoes are always
// rejected; events without a message id are always admitted. A store failure
// admits the event so an outage never silences replies.
func (g *IdempotencyGuard) Admit(ctx context.Context, event InboundEvent) bool {
	if event.IsEcho {
		return false
	}
	if event.MessageID == "" {
		return true
	}
	fresh, err := g.store.MarkProcessed(ctx, string(event.Platform), event.MessageID)
	if err != nil {
		g.logger.Warn("idempotency store unavailable, admitting event",
			"message_id", event.MessageID,
			"error", err,
		)
		return true
	}
	return fresh
}

// MemoryProcessedStore remembers ids for a TTL and at most capacity entries,
// evicting the oldest first. Valid for a single responder instance only.
type MemoryProcessedStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	order    *list.List
	entries  map[string]*list.Element
	now      func() time.Time
}

type processedEntry struct {
	key  string
	seen time.Time
}

// NewMemoryProcessedStore creates a bounded store. Zero values pick 48h and 10000.
func NewMemoryProcessedStore(ttl time.Duration, capacity int) *MemoryProcessedStore {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	if capacity <= 0 {
		capacity = 10000
	}
	return &MemoryProcessedStore{
		ttl:      ttl,
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		now:      time.Now,
	}
}

func (s *MemoryProcessedStore) MarkProcessed(_ context.Context, platform, id string) (bool, error) {
	key := platform + ":" + id
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for front := s.order.Front(); front != nil; front = s.order.Front() {
		entry := front.Value.(processedEntry)
		if now.Sub(entry.seen) < s.ttl {
			break
		}
		s.order.Remove(front)
		delete(s.entries, entry.key)
	}

	if _, ok := s.entries[key]; ok {
		return false, nil
	}
	s.entries[key] = s.order.PushBack(processedEntry{key: key, seen: now})
	for s.order.Len() > s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(processedEntry).key)
	}
	return true, nil
}

// Len returns the number of remembered ids.
func (s *MemoryProcessedStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

const processedKeyPrefix = "responder:processed:"

// RedisProcessedStore shares dedupe state across instances with SET NX.
type RedisProcessedStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProcessedStore creates a Redis-backed store.
func NewRedisProcessedStore(client *redis.Client, ttl time.Duration) *RedisProcessedStore {
	if ttl <= 0 {
		ttl = 48 * time.Hour
	}
	return &RedisProcessedStore{client: client, ttl: ttl}
}

func (s *RedisProcessedStore) MarkProcessed(ctx context.Context, platform, id string) (bool, error) {
	ok, err := s.client.SetNX(ctx, processedKeyPrefix+platform+":"+id, time.Now().Unix(), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("conversation: mark processed: %w", err)
	}
	return ok, nil
}
