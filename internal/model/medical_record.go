package model

import (
	"strings"
	"time"

	"github.com/hengadev/errsx"

	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

// SelfUploadedDoctorID is the author id of a record a patient uploaded themself.
const SelfUploadedDoctorID = "0"

type FileType string

const (
	FileTypePDF          FileType = "pdf"
	FileTypeImage        FileType = "image"
	FileTypeDICOM        FileType = "dicom"
	FileTypeLab          FileType = "lab"
	FileTypePrescription FileType = "prescription"
	FileTypeOther        FileType = "other"
)

func (t FileType) Valid() bool {
	switch t {
	case FileTypePDF, FileTypeImage, FileTypeDICOM, FileTypeLab, FileTypePrescription, FileTypeOther:
		return true
	}
	return false
}

type MedicalRecord struct {
	ID          string    `json:"id" yaml:"id"`
	PatientID   string    `json:"patientId" yaml:"patientId"`
	DoctorID    string    `json:"doctorId" yaml:"doctorId"`
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	FileHash    string    `json:"fileHash" yaml:"fileHash"`
	FileType    FileType  `json:"fileType" yaml:"fileType"`
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
}

// SelfUploaded reports whether the owning patient authored the record.
func (r *MedicalRecord) SelfUploaded() bool {
	return r.DoctorID == SelfUploadedDoctorID
}

// AddRecordRequest carries a new record. PatientAddress is required when a
// doctor adds the record and ignored when the patient does.
type AddRecordRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description"`
	FileHash       string   `json:"fileHash" binding:"required"`
	FileType       FileType `json:"fileType" binding:"required,oneof=pdf image dicom lab prescription other"`
	PatientAddress string   `json:"patientAddress" binding:"omitempty,wallet"`
}

func (r *AddRecordRequest) Validate() error {
	return validateRecordFields("invalid medical record", r.Title, r.FileType)
}

type UpdateRecordRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	FileHash    string   `json:"fileHash" binding:"required"`
	FileType    FileType `json:"fileType" binding:"required,oneof=pdf image dicom lab prescription other"`
}

func (r *UpdateRecordRequest) Validate() error {
	return validateRecordFields("invalid medical record update", r.Title, r.FileType)
}

func validateRecordFields(msg, title string, fileType FileType) error {
	errs := make(errsx.Map)
	if strings.TrimSpace(title) == "" {
		errs.Set("title", "title is required")
	}
	if !fileType.Valid() {
		errs.Set("fileType", "fileType must be one of pdf, image, dicom, lab, prescription, other")
	}
	if errs.IsEmpty() {
		return nil
	}
	return apperrors.Validation(msg, errs.AsError())
}
