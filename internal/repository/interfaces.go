package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vamsi-krishn/EHR-system/internal/model"
)

// All repository interfaces in one file
type (
	// IdentityRepository holds patients, doctors and the address directory.
	// Address arguments are matched case-insensitively.
	IdentityRepository interface {
		// CreatePatient assigns the next patient id to p and stores it. With
		// unique set, an address already known in any role is a conflict.
		CreatePatient(ctx context.Context, p *model.Patient, unique bool) error
		CreateDoctor(ctx context.Context, d *model.Doctor, unique bool) error
		GetPatient(ctx context.Context, id string) (*model.Patient, error)
		GetDoctor(ctx context.Context, id string) (*model.Doctor, error)
		GetPatientByAddress(ctx context.Context, address string) (*model.Patient, error)
		GetDoctorByAddress(ctx context.Context, address string) (*model.Doctor, error)
		ListDoctors(ctx context.Context) ([]*model.Doctor, error)
		Resolve(ctx context.Context, address string) (*model.Identity, error)
		PutDirectoryEntry(ctx context.Context, address string, entry model.DirectoryEntry) error
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id string) (*model.MedicalRecord, error)
		// Update applies fn to the stored record under the store lock. The
		// record is left untouched when fn fails.
		Update(ctx context.Context, id string, fn func(*model.MedicalRecord) error) (*model.MedicalRecord, error)
		ListByPatient(ctx context.Context, patientID string) ([]*model.MedicalRecord, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id string) (*model.Appointment, error)
		// UpdateStatus checks the transition and writes it in one step.
		// UpdateStatus runs authorize, when set, against the stored appointment
		// before applying the transition.
		UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, authorize func(*model.Appointment) error) (*model.Appointment, error)
		ListByPatient(ctx context.Context, patientID string) ([]*model.Appointment, error)
		ListByDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error)
	}

	PermissionRepository interface {
		// Apply sets the edge and prepends the log entry together.
		Apply(ctx context.Context, change model.PermissionChange) error
		Check(ctx context.Context, patientID, doctorID string) (bool, error)
		// Logs returns a patient's log entries, newest first.
		Logs(ctx context.Context, patientID string) ([]model.PermissionLogEntry, error)
	}

	OutboxRepository interface {
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
