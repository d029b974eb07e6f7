package record

import (
	"context"
	"fmt"
	"strings"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/internal/repository"
	"github.com/vamsi-krishn/EHR-system/internal/service"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
	"github.com/vamsi-krishn/EHR-system/pkg/latency"
	"github.com/vamsi-krishn/EHR-system/pkg/logger"
)

// Principals resolves wallet addresses to registered patients and doctors.
type Principals interface {
	Patient(ctx context.Context, address string) (*model.Patient, error)
	Doctor(ctx context.Context, address string) (*model.Doctor, error)
}

type Service struct {
	repo       repository.MedicalRecordRepository
	principals Principals
	runner     service.Runner
	logger     *logger.Logger
}

func NewService(repo repository.MedicalRecordRepository, principals Principals, runner service.Runner, log *logger.Logger) *Service {
	return &Service{
		repo:       repo,
		principals: principals,
		runner:     runner,
		logger:     log.With("record"),
	}
}

// Add stores a record for the owning patient. A patient adds to their own
// history; a doctor names the patient and becomes the record's author.
func (s *Service) Add(ctx context.Context, actor model.Actor, req *model.AddRecordRequest) (*model.MedicalRecord, error) {
	var rec *model.MedicalRecord
	err := s.runner.Run(ctx, latency.OpAddRecord, func() error {
		if err := req.Validate(); err != nil {
			return err
		}

		r := &model.MedicalRecord{
			Title:       req.Title,
			Description: req.Description,
			FileHash:    req.FileHash,
			FileType:    req.FileType,
		}

		switch actor.Role {
		case model.RolePatient:
			owner, err := s.principals.Patient(ctx, actor.Address)
			if err != nil {
				return err
			}
			r.PatientID = owner.ID
			r.DoctorID = model.SelfUploadedDoctorID
		case model.RoleDoctor:
			if strings.TrimSpace(req.PatientAddress) == "" {
				return apperrors.Validation("patientAddress is required when a doctor adds a record", nil)
			}
			author, err := s.principals.Doctor(ctx, actor.Address)
			if err != nil {
				return err
			}
			owner, err := s.principals.Patient(ctx, req.PatientAddress)
			if err != nil {
				return err
			}
			r.PatientID = owner.ID
			r.DoctorID = author.ID
		default:
			return apperrors.Validation(fmt.Sprintf("role %q cannot add medical records", actor.Role), nil)
		}

		if err := s.repo.Create(ctx, r); err != nil {
			return err
		}
		rec = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("medical record added", "record_id", rec.ID, "patient_id", rec.PatientID, "doctor_id", rec.DoctorID)
	return rec, nil
}

func (s *Service) Get(ctx context.Context, id string) (*model.MedicalRecord, error) {
	var rec *model.MedicalRecord
	err := s.runner.Run(ctx, latency.OpGetRecord, func() error {
		var err error
		rec, err = s.repo.Get(ctx, id)
		return err
	})
	return rec, err
}

// Update replaces the editable fields of a record. An unknown id is a
// NotFound error rather than a silent no-op.
func (s *Service) Update(ctx context.Context, id string, req *model.UpdateRecordRequest) (*model.MedicalRecord, error) {
	var rec *model.MedicalRecord
	err := s.runner.Run(ctx, latency.OpUpdateRecord, func() error {
		if err := req.Validate(); err != nil {
			return err
		}
		var err error
		rec, err = s.repo.Update(ctx, id, func(r *model.MedicalRecord) error {
			r.Title = req.Title
			r.Description = req.Description
			r.FileHash = req.FileHash
			r.FileType = req.FileType
			return nil
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("medical record updated", "record_id", rec.ID)
	return rec, nil
}

// ListByPatient returns a patient's records in insertion order.
func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*model.MedicalRecord, error) {
	var records []*model.MedicalRecord
	err := s.runner.Run(ctx, latency.OpPatientRecords, func() error {
		var err error
		records, err = s.repo.ListByPatient(ctx, patientID)
		return err
	})
	return records, err
}

// ListByPatientAddress is ListByPatient by wallet address. An unknown
// address has no records.
func (s *Service) ListByPatientAddress(ctx context.Context, address string) ([]*model.MedicalRecord, error) {
	var records []*model.MedicalRecord
	err := s.runner.Run(ctx, latency.OpPatientRecords, func() error {
		p, err := s.principals.Patient(ctx, address)
		if apperrors.IsNotFound(err) {
			records = []*model.MedicalRecord{}
			return nil
		}
		if err != nil {
			return err
		}
		records, err = s.repo.ListByPatient(ctx, p.ID)
		return err
	})
	return records, err
}
