package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Ledger event types. Each mutation of the store appends exactly one.
const (
	EventPatientRegistered       = "patient.registered"
	EventDoctorRegistered        = "doctor.registered"
	EventRecordAdded             = "record.added"
	EventRecordUpdated           = "record.updated"
	EventAppointmentBooked       = "appointment.booked"
	EventAppointmentStatusChange = "appointment.status_changed"
	EventPermissionGranted       = "permission.granted"
	EventPermissionRevoked       = "permission.revoked"
)

type OutboxEvent struct {
	ID           uuid.UUID         `json:"id"`
	EventType    string            `json:"eventType"`
	Payload      json.RawMessage   `json:"payload"`
	Headers      map[string]string `json:"headers,omitempty"`
	Status       OutboxStatus      `json:"status"`
	ErrorMessage string            `json:"errorMessage,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	ProcessedAt  *time.Time        `json:"processedAt,omitempty"`
	RetryCount   int               `json:"retryCount"`
}

// NewOutboxEvent marshals payload into a pending event. Payloads are model
// structs, so a marshal failure is a programming error and is returned as is.
func NewOutboxEvent(eventType string, payload interface{}, now time.Time) (*OutboxEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   data,
		Status:    OutboxStatusPending,
		CreatedAt: now,
	}, nil
}

// AppointmentStatusChanged is the payload of appointment.status_changed.
type AppointmentStatusChanged struct {
	Appointment *Appointment      `json:"appointment"`
	From        AppointmentStatus `json:"from"`
}
