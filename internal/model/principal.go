package model

import (
	"strings"

	"github.com/hengadev/errsx"

	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

type Patient struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	DateOfBirth   string `json:"dateOfBirth" yaml:"dateOfBirth"`
	Gender        string `json:"gender" yaml:"gender"`
	ContactInfo   string `json:"contactInfo" yaml:"contactInfo"`
	WalletAddress string `json:"walletAddress" yaml:"walletAddress"`
}

type Doctor struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Specialization string `json:"specialization" yaml:"specialization"`
	LicenseNumber  string `json:"licenseNumber" yaml:"licenseNumber"`
	ContactInfo    string `json:"contactInfo,omitempty" yaml:"contactInfo"`
	WalletAddress  string `json:"walletAddress" yaml:"walletAddress"`
}

type RegisterPatientRequest struct {
	Name          string `json:"name" binding:"required"`
	DateOfBirth   string `json:"dateOfBirth"`
	Gender        string `json:"gender"`
	ContactInfo   string `json:"contactInfo"`
	WalletAddress string `json:"walletAddress" binding:"required,wallet"`
}

func (r *RegisterPatientRequest) Validate() error {
	errs := make(errsx.Map)
	if strings.TrimSpace(r.Name) == "" {
		errs.Set("name", "name is required")
	}
	if strings.TrimSpace(r.WalletAddress) == "" {
		errs.Set("walletAddress", "wallet address is required")
	}
	if errs.IsEmpty() {
		return nil
	}
	return apperrors.Validation("invalid patient registration", errs.AsError())
}

type RegisterDoctorRequest struct {
	Name           string `json:"name" binding:"required"`
	Specialization string `json:"specialization"`
	LicenseNumber  string `json:"licenseNumber"`
	ContactInfo    string `json:"contactInfo"`
	WalletAddress  string `json:"walletAddress" binding:"required,wallet"`
}

func (r *RegisterDoctorRequest) Validate() error {
	errs := make(errsx.Map)
	if strings.TrimSpace(r.Name) == "" {
		errs.Set("name", "name is required")
	}
	if strings.TrimSpace(r.WalletAddress) == "" {
		errs.Set("walletAddress", "wallet address is required")
	}
	if errs.IsEmpty() {
		return nil
	}
	return apperrors.Validation("invalid doctor registration", errs.AsError())
}

// PatientData is a patient together with their records and appointments.
type PatientData struct {
	Patient      *Patient         `json:"patient"`
	Records      []*MedicalRecord `json:"records"`
	Appointments []*Appointment   `json:"appointments"`
}

// DoctorData is a doctor together with their appointments.
type DoctorData struct {
	Doctor       *Doctor        `json:"doctor"`
	Appointments []*Appointment `json:"appointments"`
}
