package memory

import (
	"context"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

type PermissionRepository struct {
	db *DB
}

func NewPermissionRepository(db *DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

// Apply writes the edge, prepends the log entry and queues the event under one
// lock, so readers never see an edge without its log entry.
func (r *PermissionRepository) Apply(ctx context.Context, change model.PermissionChange) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	entry := change.Entry
	entry.PatientID, entry.DoctorID, entry.Granted = change.PatientID, change.DoctorID, change.Granted
	if entry.Timestamp.IsZero() {
		entry.Timestamp = db.now()
	}

	eventType := model.EventPermissionRevoked
	if change.Granted {
		eventType = model.EventPermissionGranted
	}
	if err := db.appendEvent(eventType, &entry); err != nil {
		return apperrors.Internal(err)
	}

	edges, ok := db.permissions[change.PatientID]
	if !ok {
		edges = make(map[string]bool)
		db.permissions[change.PatientID] = edges
	}
	edges[change.DoctorID] = change.Granted

	logs := db.logs[change.PatientID]
	db.logs[change.PatientID] = append([]model.PermissionLogEntry{entry}, logs...)
	return nil
}

// Check denies by default: a missing edge is false.
func (r *PermissionRepository) Check(ctx context.Context, patientID, doctorID string) (bool, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return r.db.permissions[patientID][doctorID], nil
}

func (r *PermissionRepository) Logs(ctx context.Context, patientID string) ([]model.PermissionLogEntry, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	logs := r.db.logs[patientID]
	out := make([]model.PermissionLogEntry, len(logs))
	copy(out, logs)
	return out, nil
}
