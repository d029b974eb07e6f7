package model

import "time"

// PermissionLogEntry records one grant or revoke call. DoctorName is a
// snapshot taken when the entry was written.
type PermissionLogEntry struct {
	PatientID  string    `json:"patientId" yaml:"patientId"`
	DoctorID   string    `json:"doctorId" yaml:"doctorId"`
	DoctorName string    `json:"doctorName" yaml:"doctorName"`
	Granted    bool      `json:"granted" yaml:"granted"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
}

// PermissionChange is what a grant or revoke applies atomically: the edge
// value and the log entry that records it.
type PermissionChange struct {
	PatientID string
	DoctorID  string
	Granted   bool
	Entry     PermissionLogEntry
}

type PermissionRequest struct {
	DoctorAddress string `json:"doctorAddress" binding:"required,wallet"`
}

type PermissionStatus struct {
	PatientAddress string `json:"patientAddress"`
	DoctorAddress  string `json:"doctorAddress"`
	Granted        bool   `json:"granted"`
}
