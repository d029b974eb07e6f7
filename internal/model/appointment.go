package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/hengadev/errsx"

	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "Pending"
	AppointmentStatusConfirmed AppointmentStatus = "Confirmed"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
)

// appointmentTransitions lists every allowed status change. Completed and
// Cancelled have no outgoing edges.
var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusPending:   {AppointmentStatusConfirmed, AppointmentStatusCancelled},
	AppointmentStatusConfirmed: {AppointmentStatusCompleted, AppointmentStatusCancelled},
}

// ParseAppointmentStatus accepts a status name in any letter case.
func ParseAppointmentStatus(s string) (AppointmentStatus, bool) {
	for _, st := range []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusConfirmed,
		AppointmentStatusCompleted,
		AppointmentStatusCancelled,
	} {
		if strings.EqualFold(string(st), strings.TrimSpace(s)) {
			return st, true
		}
	}
	return "", false
}

func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentStatusCompleted || s == AppointmentStatusCancelled
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID        string            `json:"id" yaml:"id"`
	PatientID string            `json:"patientId" yaml:"patientId"`
	DoctorID  string            `json:"doctorId" yaml:"doctorId"`
	Timestamp time.Time         `json:"timestamp" yaml:"timestamp"`
	Reason    string            `json:"reason" yaml:"reason"`
	Status    AppointmentStatus `json:"status" yaml:"status"`
}

// Transition moves the appointment to next, or fails with an
// InvalidTransition error leaving it untouched.
func (a *Appointment) Transition(next AppointmentStatus) error {
	if !a.Status.CanTransitionTo(next) {
		return apperrors.InvalidTransition(string(a.Status), string(next))
	}
	a.Status = next
	return nil
}

// AuthorizeTransition reports whether actor may move the appointment to next.
// The doctor runs the workflow; the patient may only cancel a confirmed visit.
// Moves outside the transition table are left to Transition to reject.
func (a *Appointment) AuthorizeTransition(actor Actor, next AppointmentStatus) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleDoctor:
		if actor.ID == a.DoctorID {
			return nil
		}
	case RolePatient:
		if actor.ID != a.PatientID {
			break
		}
		if !a.Status.CanTransitionTo(next) {
			return nil
		}
		if a.Status == AppointmentStatusConfirmed && next == AppointmentStatusCancelled {
			return nil
		}
		return apperrors.Forbidden(fmt.Sprintf("patients cannot move an appointment from %s to %s", a.Status, next))
	}
	return apperrors.Forbidden("not a party to this appointment")
}

type BookAppointmentRequest struct {
	DoctorAddress string    `json:"doctorAddress" binding:"required,wallet"`
	Timestamp     time.Time `json:"timestamp" binding:"required"`
	Reason        string    `json:"reason"`
}

func (r *BookAppointmentRequest) Validate() error {
	errs := make(errsx.Map)
	if strings.TrimSpace(r.DoctorAddress) == "" {
		errs.Set("doctorAddress", "doctor address is required")
	}
	if r.Timestamp.IsZero() {
		errs.Set("timestamp", "timestamp is required")
	}
	if errs.IsEmpty() {
		return nil
	}
	return apperrors.Validation("invalid appointment", errs.AsError())
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
