package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

type OutboxRepository struct {
	db *DB
}

func NewOutboxRepository(db *DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// GetPendingEvents returns up to limit pending events, oldest first.
func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var events []*model.OutboxEvent
	for _, e := range r.db.outbox {
		if e.Status != model.OutboxStatusPending {
			continue
		}
		c := *e
		events = append(events, &c)
		if limit > 0 && len(events) == limit {
			break
		}
	}
	return events, nil
}

func (r *OutboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, e := range r.db.outbox {
		if e.ID != id {
			continue
		}
		now := r.db.now()
		e.Status = status
		e.ProcessedAt = &now
		if errMsg != nil {
			e.ErrorMessage = *errMsg
			e.RetryCount++
		}
		return nil
	}
	return apperrors.NotFound("outbox event", nil)
}

// DeleteFinishedBefore drops processed and failed events settled before
// before and returns how many were removed. Pending events are always kept.
func (r *OutboxRepository) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	kept := r.db.outbox[:0]
	var removed int64
	for _, e := range r.db.outbox {
		if e.Status != model.OutboxStatusPending && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	r.db.outbox = kept
	return removed, nil
}
