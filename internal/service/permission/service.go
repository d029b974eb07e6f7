package permission

import (
	"context"

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
	repo       repository.PermissionRepository
	principals Principals
	runner     service.Runner
	logger     *logger.Logger
}

func NewService(repo repository.PermissionRepository, principals Principals, runner service.Runner, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		principals: principals,
		runner:     runner,
		logger:     log.With("permission"),
	}
}

// Grant gives the doctor access to the patient's records. Every call is
// logged, including one that does not change the edge.
func (s *Service) Grant(ctx context.Context, patientAddress, doctorAddress string) error {
	return s.runner.Run(ctx, latency.OpGrant, func() error {
		return s.set(ctx, patientAddress, doctorAddress, true)
	})
}

func (s *Service) Revoke(ctx context.Context, patientAddress, doctorAddress string) error {
	return s.runner.Run(ctx, latency.OpRevoke, func() error {
		return s.set(ctx, patientAddress, doctorAddress, false)
	})
}

func (s *Service) set(ctx context.Context, patientAddress, doctorAddress string, granted bool) error {
	patient, err := s.principals.Patient(ctx, patientAddress)
	if err != nil {
		return err
	}
	doctor, err := s.principals.Doctor(ctx, doctorAddress)
	if err != nil {
		return err
	}

	if err := s.repo.Apply(ctx, model.PermissionChange{
		PatientID: patient.ID,
		DoctorID:  doctor.ID,
		Granted:   granted,
		Entry:     model.PermissionLogEntry{DoctorName: doctor.Name},
	}); err != nil {
		return err
	}
	s.logger.Debug("permission changed", "patient_id", patient.ID, "doctor_id", doctor.ID, "granted", granted)
	return nil
}

// Check reports whether the doctor may access the patient's records. Unknown
// parties and missing edges are a plain false, never an error.
func (s *Service) Check(ctx context.Context, patientAddress, doctorAddress string) (bool, error) {
	var granted bool
	err := s.runner.Run(ctx, latency.OpCheck, func() error {
		var err error
		granted, err = s.check(ctx, patientAddress, doctorAddress)
		return err
	})
	return granted, err
}

// Allowed is Check without simulated latency, for authorization decisions
// made inside another operation.
func (s *Service) Allowed(ctx context.Context, patientAddress, doctorAddress string) (bool, error) {
	return s.check(ctx, patientAddress, doctorAddress)
}

func (s *Service) check(ctx context.Context, patientAddress, doctorAddress string) (bool, error) {
	patient, err := s.principals.Patient(ctx, patientAddress)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	doctor, err := s.principals.Doctor(ctx, doctorAddress)
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.repo.Check(ctx, patient.ID, doctor.ID)
}

// Logs returns the patient's permission history, newest first. An unknown
// patient has an empty history.
func (s *Service) Logs(ctx context.Context, patientAddress string) ([]model.PermissionLogEntry, error) {
	var logs []model.PermissionLogEntry
	err := s.runner.Run(ctx, latency.OpLogs, func() error {
		patient, err := s.principals.Patient(ctx, patientAddress)
		if apperrors.IsNotFound(err) {
			logs = []model.PermissionLogEntry{}
			return nil
		}
		if err != nil {
			return err
		}
		logs, err = s.repo.Logs(ctx, patient.ID)
		return err
	})
	return logs, err
}

func (s *Service) LogsForPatient(ctx context.Context, patientID string) ([]model.PermissionLogEntry, error) {
	var logs []model.PermissionLogEntry
	err := s.runner.Run(ctx, latency.OpLogs, func() error {
		var err error
		logs, err = s.repo.Logs(ctx, patientID)
		return err
	})
	return logs, err
}
