package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithQuerier(db pgxQuerier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const leadColumns = `id, platform, sender_id, phone, message, capture_count, created_at, updated_at`

// Capture upserts on (platform, sender_id, phone). xmax is zero only for a
// freshly inserted row, which tells a new lead from a repeat capture.
func (r *PostgresRepository) Capture(ctx context.Context, req *CaptureRequest) (*Lead, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	query := `
		INSERT INTO leads (id, platform, sender_id, phone, message)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (platform, sender_id, phone) DO UPDATE
		SET message = EXCLUDED.message,
		    capture_count = leads.capture_count + 1,
		    updated_at = now()
		RETURNING ` + leadColumns + `, (xmax = 0) AS inserted
	`
	var (
		lead    Lead
		created bool
	)
	err := r.db.QueryRow(ctx, query, uuid.New(), req.Platform, req.SenderID, req.Phone, req.Message).Scan(
		&lead.ID,
		&lead.Platform,
		&lead.SenderID,
		&lead.Phone,
		&lead.Message,
		&lead.CaptureCount,
		&lead.CreatedAt,
		&lead.UpdatedAt,
		&created,
	)
	if err != nil {
		return nil, false, fmt.Errorf("leads: capture failed: %w", err)
	}
	return &lead, created, nil
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("leads: get failed: %w", err)
	}
	return lead, nil
}

// ListRecent returns leads by most recent capture first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]*Lead, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	if err := row.Scan(
		&lead.ID,
		&lead.Platform,
		&lead.SenderID,
		&lead.Phone,
		&lead.Message,
		&lead.CaptureCount,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &lead, nil
}
