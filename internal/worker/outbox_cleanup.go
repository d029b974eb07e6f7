package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/vamsi-krishn/EHR-system/internal/repository"
	"github.com/vamsi-krishn/EHR-system/pkg/logger"
)

// OutboxCleanupWorker drops published and failed events once they are older
// than the retention period.
type OutboxCleanupWorker struct {
	repo            repository.OutboxRepository
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	now             func() time.Time
}

func NewOutboxCleanupWorker(repo repository.OutboxRepository, retention, cleanupInterval time.Duration, log *logger.Logger) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          log.With("outbox-cleanup"),
		now:             time.Now,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Cleanup(ctx); err != nil {
				w.logger.Error(err, "Error cleaning up outbox events")
			}
		}
	}
}

func (w *OutboxCleanupWorker) Cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup outbox events: %w", err)
	}

	if rows > 0 {
		w.logger.Debug("Cleaned up outbox events", "rows", rows, "cutoff", cutoff)
	}
	return rows, nil
}
