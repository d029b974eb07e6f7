package appointment

import (
	"context"
	"fmt"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/internal/repository"
	"github.com/vamsi-krishn/EHR-system/internal/service"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
	"github.com/vamsi-krishn/EHR-system/pkg/latency"
	"github.com/vamsi-krishn/EHR-system/pkg/logger"
)

type Principals interface {
	Patient(ctx context.Context, address string) (*model.Patient, error)
	Doctor(ctx context.Context, address string) (*model.Doctor, error)
}

type Service struct {
	repo       repository.AppointmentRepository
	principals Principals
	runner     service.Runner
	logger     *logger.Logger
}

func NewService(repo repository.AppointmentRepository, principals Principals, runner service.Runner, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		principals: principals,
		runner:     runner,
		logger:     log.With("appointment"),
	}
}

// Book creates a Pending appointment between the patient at patientAddress
// and the doctor named in req.
func (s *Service) Book(ctx context.Context, patientAddress string, req *model.BookAppointmentRequest) (*model.Appointment, error) {
	var apt *model.Appointment
	err := s.runner.Run(ctx, latency.OpBook, func() error {
		if err := req.Validate(); err != nil {
			return err
		}
		patient, err := s.principals.Patient(ctx, patientAddress)
		if err != nil {
			return err
		}
		doctor, err := s.principals.Doctor(ctx, req.DoctorAddress)
		if err != nil {
			return err
		}

		a := &model.Appointment{
			PatientID: patient.ID,
			DoctorID:  doctor.ID,
			Timestamp: req.Timestamp,
			Reason:    req.Reason,
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		apt = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("appointment booked", "appointment_id", apt.ID, "patient_id", apt.PatientID, "doctor_id", apt.DoctorID)
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// SetStatus applies one transition of the appointment state machine.
func (s *Service) SetStatus(ctx context.Context, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	return s.setStatus(ctx, id, status, nil)
}

// SetStatusAs applies the transition on behalf of actor, who must be allowed
// to make that particular move.
func (s *Service) SetStatusAs(ctx context.Context, actor model.Actor, id string, status model.AppointmentStatus) (*model.Appointment, error) {
	return s.setStatus(ctx, id, status, func(a *model.Appointment) error {
		next, _ := model.ParseAppointmentStatus(string(status))
		return a.AuthorizeTransition(actor, next)
	})
}

func (s *Service) setStatus(ctx context.Context, id string, status model.AppointmentStatus, authorize func(*model.Appointment) error) (*model.Appointment, error) {
	var apt *model.Appointment
	err := s.runner.Run(ctx, latency.OpSetStatus, func() error {
		next, ok := model.ParseAppointmentStatus(string(status))
		if !ok {
			return apperrors.Validation(fmt.Sprintf("unknown appointment status %q", status), nil)
		}
		var err error
		apt, err = s.repo.UpdateStatus(ctx, id, next, authorize)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("appointment status changed", "appointment_id", apt.ID, "status", string(apt.Status))
	return apt, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*model.Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID string) ([]*model.Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}
