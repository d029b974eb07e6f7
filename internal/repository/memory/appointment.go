package memory

import (
	"context"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

type AppointmentRepository struct {
	db *DB
}

func NewAppointmentRepository(db *DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// Create assigns the next appointment id. New appointments always start
// Pending, whatever status the caller set.
func (r *AppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	stored := *appointment
	stored.ID = nextID(&db.counters.NextAppointmentID)
	stored.Status = model.AppointmentStatusPending
	if err := db.appendEvent(model.EventAppointmentBooked, &stored); err != nil {
		return apperrors.Internal(err)
	}
	db.appointments = append(db.appointments, &stored)
	*appointment = stored
	return nil
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (*model.Appointment, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if a := r.db.appointmentByID(id); a != nil {
		out := *a
		return &out, nil
	}
	return nil, apperrors.NotFound("appointment", nil)
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, authorize func(*model.Appointment) error) (*model.Appointment, error) {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	a := db.appointmentByID(id)
	if a == nil {
		return nil, apperrors.NotFound("appointment", nil)
	}

	if authorize != nil {
		if err := authorize(a); err != nil {
			return nil, err
		}
	}
	updated := *a
	if err := updated.Transition(status); err != nil {
		return nil, err
	}
	if err := db.appendEvent(model.EventAppointmentStatusChange, &model.AppointmentStatusChanged{
		Appointment: &updated,
		From:        a.Status,
	}); err != nil {
		return nil, apperrors.Internal(err)
	}
	*a = updated
	out := updated
	return &out, nil
}

func (r *AppointmentRepository) ListByPatient(ctx context.Context, patientID string) ([]*model.Appointment, error) {
	return r.filter(func(a *model.Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *AppointmentRepository) ListByDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error) {
	return r.filter(func(a *model.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (r *AppointmentRepository) filter(keep func(*model.Appointment) bool) []*model.Appointment {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]*model.Appointment, 0)
	for _, a := range r.db.appointments {
		if keep(a) {
			c := *a
			out = append(out, &c)
		}
	}
	return out
}

func (db *DB) appointmentByID(id string) *model.Appointment {
	for _, a := range db.appointments {
		if a.ID == id {
			return a
		}
	}
	return nil
}
