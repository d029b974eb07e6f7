package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/vamsi-krishn/EHR-system/internal/repository/memory"
	"github.com/vamsi-krishn/EHR-system/internal/repository/snapshot"
	"github.com/vamsi-krishn/EHR-system/pkg/logger"
	"github.com/vamsi-krishn/EHR-system/pkg/metrics"
)

// SnapshotWorker saves the ledger to a snapshot store every interval and
// once more when it stops.
type SnapshotWorker struct {
	db       *memory.DB
	store    snapshot.Store
	interval time.Duration
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewSnapshotWorker(db *memory.DB, store snapshot.Store, interval time.Duration, log *logger.Logger, m *metrics.Metrics) *SnapshotWorker {
	return &SnapshotWorker{
		db:       db,
		store:    store,
		interval: interval,
		logger:   log.With("snapshot"),
		metrics:  m,
	}
}

// Restore loads the last snapshot into the store. It reports false when
// there was nothing to load.
func (w *SnapshotWorker) Restore(ctx context.Context) (bool, error) {
	snap, err := w.store.Load(ctx)
	w.metrics.SnapshotOperations.WithLabelValues("load", metrics.Status(err)).Inc()
	if err != nil {
		return false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap == nil {
		return false, nil
	}
	w.db.Restore(snap)
	w.logger.Info("Ledger restored from snapshot", "patients", len(snap.Patients), "doctors", len(snap.Doctors))
	return true, nil
}

func (w *SnapshotWorker) Save(ctx context.Context) error {
	start := time.Now()
	err := w.store.Save(ctx, w.db.Snapshot())
	w.metrics.SnapshotOperations.WithLabelValues("save", metrics.Status(err)).Inc()
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	w.metrics.SnapshotLatency.Observe(time.Since(start).Seconds())
	return nil
}

// Start saves on every tick until ctx ends, then saves a final time with a
// fresh context so shutdown does not lose the last writes.
func (w *SnapshotWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := w.Save(final); err != nil {
				w.logger.Error(err, "Final snapshot failed")
			}
			cancel()
			return
		case <-ticker.C:
			if err := w.Save(ctx); err != nil {
				w.logger.Error(err, "Snapshot failed")
			}
		}
	}
}
