package identity

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

// DuplicatePolicy decides what registering an already known address does.
type DuplicatePolicy string

const (
	// DuplicateReject fails the second registration with a conflict.
	DuplicateReject DuplicatePolicy = "reject"
	// DuplicateShadow stores the second principal; lookups keep returning the first.
	DuplicateShadow DuplicatePolicy = "shadow"
)

func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(s) {
	case DuplicateReject, "":
		return DuplicateReject, nil
	case DuplicateShadow:
		return DuplicateShadow, nil
	}
	return "", fmt.Errorf("unknown duplicate policy %q", s)
}

type Service struct {
	repo         repository.IdentityRepository
	records      repository.MedicalRecordRepository
	appointments repository.AppointmentRepository
	runner       service.Runner
	policy       DuplicatePolicy
	logger       *logger.Logger
}

func NewService(
	repo repository.IdentityRepository,
	records repository.MedicalRecordRepository,
	appointments repository.AppointmentRepository,
	runner service.Runner,
	policy DuplicatePolicy,
	log *logger.Logger,
) *Service {
	if policy == "" {
		policy = DuplicateReject
	}
	return &Service{
		repo:         repo,
		records:      records,
		appointments: appointments,
		runner:       runner,
		policy:       policy,
		logger:       log.With("identity"),
	}
}

func (s *Service) RegisterPatient(ctx context.Context, req *model.RegisterPatientRequest) (*model.Patient, error) {
	var patient *model.Patient
	err := s.runner.Run(ctx, latency.OpRegister, func() error {
		if err := req.Validate(); err != nil {
			return err
		}
		p := &model.Patient{
			Name:          req.Name,
			DateOfBirth:   req.DateOfBirth,
			Gender:        req.Gender,
			ContactInfo:   req.ContactInfo,
			WalletAddress: req.WalletAddress,
		}
		if err := s.repo.CreatePatient(ctx, p, s.policy == DuplicateReject); err != nil {
			return err
		}
		patient = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("patient registered", "patient_id", patient.ID)
	return patient, nil
}

func (s *Service) RegisterDoctor(ctx context.Context, req *model.RegisterDoctorRequest) (*model.Doctor, error) {
	var doctor *model.Doctor
	err := s.runner.Run(ctx, latency.OpRegister, func() error {
		if err := req.Validate(); err != nil {
			return err
		}
		d := &model.Doctor{
			Name:           req.Name,
			Specialization: req.Specialization,
			LicenseNumber:  req.LicenseNumber,
			ContactInfo:    req.ContactInfo,
			WalletAddress:  req.WalletAddress,
		}
		if err := s.repo.CreateDoctor(ctx, d, s.policy == DuplicateReject); err != nil {
			return err
		}
		doctor = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("doctor registered", "doctor_id", doctor.ID)
	return doctor, nil
}

// Resolve never fails for an unknown address; it reports IsRegistered false.
func (s *Service) Resolve(ctx context.Context, address string) (*model.Identity, error) {
	var id *model.Identity
	err := s.runner.Run(ctx, latency.OpResolve, func() error {
		var err error
		id, err = s.repo.Resolve(ctx, address)
		return err
	})
	return id, err
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	var doctors []*model.Doctor
	err := s.runner.Run(ctx, latency.OpListDoctors, func() error {
		var err error
		doctors, err = s.repo.ListDoctors(ctx)
		return err
	})
	return doctors, err
}

// PatientData returns the patient at address with their records and
// appointments.
func (s *Service) PatientData(ctx context.Context, address string) (*model.PatientData, error) {
	var data *model.PatientData
	err := s.runner.Run(ctx, latency.OpPatientData, func() error {
		p, err := s.repo.GetPatientByAddress(ctx, address)
		if err != nil {
			return err
		}
		records, err := s.records.ListByPatient(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to list records: %w", err)
		}
		appointments, err := s.appointments.ListByPatient(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to list appointments: %w", err)
		}
		data = &model.PatientData{Patient: p, Records: records, Appointments: appointments}
		return nil
	})
	return data, err
}

func (s *Service) DoctorData(ctx context.Context, address string) (*model.DoctorData, error) {
	var data *model.DoctorData
	err := s.runner.Run(ctx, latency.OpDoctorData, func() error {
		d, err := s.repo.GetDoctorByAddress(ctx, address)
		if err != nil {
			return err
		}
		appointments, err := s.appointments.ListByDoctor(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("failed to list appointments: %w", err)
		}
		data = &model.DoctorData{Doctor: d, Appointments: appointments}
		return nil
	})
	return data, err
}

// Patient and Doctor look principals up without simulated latency; other
// services use them to resolve parties inside their own operation.
func (s *Service) Patient(ctx context.Context, address string) (*model.Patient, error) {
	p, err := s.repo.GetPatientByAddress(ctx, address)
	if err != nil && apperrors.IsNotFound(err) {
		return nil, apperrors.NotFound(fmt.Sprintf("patient %s", address), nil)
	}
	return p, err
}

func (s *Service) Doctor(ctx context.Context, address string) (*model.Doctor, error) {
	d, err := s.repo.GetDoctorByAddress(ctx, address)
	if err != nil && apperrors.IsNotFound(err) {
		return nil, apperrors.NotFound(fmt.Sprintf("doctor %s", address), nil)
	}
	return d, err
}

func (s *Service) PatientByID(ctx context.Context, id string) (*model.Patient, error) {
	return s.repo.GetPatient(ctx, id)
}

func (s *Service) DoctorByID(ctx context.Context, id string) (*model.Doctor, error) {
	return s.repo.GetDoctor(ctx, id)
}
