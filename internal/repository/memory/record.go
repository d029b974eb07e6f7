package memory

import (
	"context"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

type MedicalRecordRepository struct {
	db *DB
}

func NewMedicalRecordRepository(db *DB) *MedicalRecordRepository {
	return &MedicalRecordRepository{db: db}
}

// Create assigns the next record id and stamps the record with the store clock.
func (r *MedicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := *record
	stored.ID = nextID(&db.counters.NextRecordID)
	stored.Timestamp = db.now()
	if err := db.appendEvent(model.EventRecordAdded, &stored); err != nil {
		return apperrors.Internal(err)
	}
	db.records = append(db.records, &stored)
	*record = stored
	return nil
}

func (r *MedicalRecordRepository) Get(ctx context.Context, id string) (*model.MedicalRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if rec := r.db.recordByID(id); rec != nil {
		out := *rec
		return &out, nil
	}
	return nil, apperrors.NotFound("medical record", nil)
}

// Update runs fn on a copy of the record and stores the copy only if fn
// succeeds. Id, owner and author cannot be changed through fn.
func (r *MedicalRecordRepository) Update(ctx context.Context, id string, fn func(*model.MedicalRecord) error) (*model.MedicalRecord, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	rec := db.recordByID(id)
	if rec == nil {
		return nil, apperrors.NotFound("medical record", nil)
	}

	updated := *rec
	if err := fn(&updated); err != nil {
		return nil, err
	}
	updated.ID, updated.PatientID, updated.DoctorID = rec.ID, rec.PatientID, rec.DoctorID
	updated.Timestamp = db.now()

	if err := db.appendEvent(model.EventRecordUpdated, &updated); err != nil {
		return nil, apperrors.Internal(err)
	}
	*rec = updated
	out := updated
	return &out, nil
}

func (r *MedicalRecordRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.MedicalRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]*model.MedicalRecord, 0)
	for _, rec := range r.db.records {
		if rec.PatientID == patientID {
			c := *rec
			out = append(out, &c)
		}
	}
	return out, nil
}

func (db *DB) recordByID(id string) *model.MedicalRecord {
	for _, rec := range db.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}
