package events

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/hijama-dm-responder/pkg/logging"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ProcessedStore records webhook message ids that were already handled so a
// redelivered event never produces a second reply.
type ProcessedStore struct {
	pool execer
}

func NewProcessedStore(pool *pgxpool.Pool) *ProcessedStore {
	if pool == nil {
		panic("events: pgx pool required")
	}
	return &ProcessedStore{pool: pool}
}

func newProcessedStoreWithExec(exec execer) *ProcessedStore {
	if exec == nil {
		panic("events: exec required")
	}
	return &ProcessedStore{pool: exec}
}

// MarkProcessed inserts an event id for the provider, returning false if it
// already exists. The insert is the check, so concurrent deliveries of the
// same id admit exactly one caller.
func (s *ProcessedStore) MarkProcessed(ctx context.Context, provider, eventID string) (bool, error) {
	query := `
		INSERT INTO processed_events (provider, event_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	ct, err := s.pool.Exec(ctx, query, provider, eventID)
	if err != nil {
		return false, fmt.Errorf("events: mark processed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// PurgeOlderThan deletes ids recorded before cutoff and returns how many
// rows were removed.
func (s *ProcessedStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	ct, err := s.pool.Exec(ctx, `DELETE FROM processed_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("events: purge processed: %w", err)
	}
	return ct.RowsAffected(), nil
}

// RunPurger deletes ids older than ttl every interval until ctx is done.
func (s *ProcessedStore) RunPurger(ctx context.Context, ttl, interval time.Duration, logger *logging.Logger) {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := s.PurgeOlderThan(ctx, now.Add(-ttl))
			if err != nil {
				logger.Warn("processed event purge failed", "error", err)
				continue
			}
			if removed > 0 {
				logger.Info("purged processed events", "removed", removed)
			}
		}
	}
}
