package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository stores captured contacts. Capturing the same phone from the same
// sender twice updates the existing lead instead of creating a new one.
type Repository interface {
	Capture(ctx context.Context, req *CaptureRequest) (lead *Lead, created bool, err error)
	GetByID(ctx context.Context, id string) (*Lead, error)
	ListRecent(ctx context.Context, limit int) ([]*Lead, error)
}

// InMemoryRepository is an in-process Repository.
type InMemoryRepository struct {
	mu    sync.RWMutex
	leads map[string]*Lead
	byKey map[string]string
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads: make(map[string]*Lead),
		byKey: make(map[string]string),
	}
}

func captureKey(req *CaptureRequest) string {
	return req.Platform + "|" + req.SenderID + "|" + req.Phone
}

func (r *InMemoryRepository) Capture(ctx context.Context, req *CaptureRequest) (*Lead, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}
	now := time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byKey[captureKey(req)]; ok {
		lead := r.leads[id]
		lead.Message = req.Message
		lead.CaptureCount++
		lead.UpdatedAt = now
		copied := *lead
		return &copied, false, nil
	}

	lead := &Lead{
		ID:           uuid.New().String(),
		Platform:     req.Platform,
		SenderID:     req.SenderID,
		Phone:        req.Phone,
		Message:      req.Message,
		CaptureCount: 1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.leads[lead.ID] = lead
	r.byKey[captureKey(req)] = lead.ID
	copied := *lead
	return &copied, true, nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	copied := *lead
	return &copied, nil
}

// ListRecent returns leads by most recent capture first.
func (r *InMemoryRepository) ListRecent(ctx context.Context, limit int) ([]*Lead, error) {
	r.mu.RLock()
	out := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		copied := *lead
		out = append(out, &copied)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
