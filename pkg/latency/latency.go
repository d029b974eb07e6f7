// Package latency simulates the round trip to a ledger backend. Services call
// Wait before entering the store's critical section, so the delay never holds
// a lock.
package latency

import (
	"context"
	"time"
)

// Operation names, shared by services and configuration.
const (
	OpRegister       = "register"
	OpResolve        = "resolve"
	OpPatientData    = "patient_data"
	OpDoctorData     = "doctor_data"
	OpListDoctors    = "list_doctors"
	OpBook           = "book_appointment"
	OpSetStatus      = "set_appointment_status"
	OpAddRecord      = "add_record"
	OpUpdateRecord   = "update_record"
	OpGetRecord      = "get_record"
	OpPatientRecords = "patient_records"
	OpGrant          = "grant_permission"
	OpRevoke         = "revoke_permission"
	OpCheck          = "check_permission"
	OpLogs           = "permission_logs"
)

// Simulator injects latency for a named operation.
type Simulator interface {
	Wait(ctx context.Context, op string) error
}

// Defaults are the round-trip delays of the mock ledger this service replaces.
func Defaults() map[string]time.Duration {
	return map[string]time.Duration{
		OpRegister:       1000 * time.Millisecond,
		OpResolve:        500 * time.Millisecond,
		OpPatientData:    800 * time.Millisecond,
		OpDoctorData:     800 * time.Millisecond,
		OpListDoctors:    800 * time.Millisecond,
		OpBook:           1200 * time.Millisecond,
		OpSetStatus:      800 * time.Millisecond,
		OpAddRecord:      1500 * time.Millisecond,
		OpUpdateRecord:   1200 * time.Millisecond,
		OpGetRecord:      600 * time.Millisecond,
		OpPatientRecords: 700 * time.Millisecond,
		OpGrant:          1000 * time.Millisecond,
		OpRevoke:         1000 * time.Millisecond,
		OpCheck:          500 * time.Millisecond,
		OpLogs:           600 * time.Millisecond,
	}
}

type none struct{}

// None returns a Simulator that never waits.
func None() Simulator { return none{} }

func (none) Wait(ctx context.Context, _ string) error { return ctx.Err() }

// Fixed waits a per-operation delay, falling back to Default for unknown operations.
type Fixed struct {
	Delays  map[string]time.Duration
	Default time.Duration
	Scale   float64
}

// NewFixed builds a Fixed simulator. Overrides replace entries of Defaults();
// scale multiplies every delay (1 keeps them as-is).
func NewFixed(overrides map[string]time.Duration, scale float64) *Fixed {
	delays := Defaults()
	for op, d := range overrides {
		delays[op] = d
	}
	if scale <= 0 {
		scale = 1
	}
	return &Fixed{Delays: delays, Scale: scale}
}

func (f *Fixed) delay(op string) time.Duration {
	d, ok := f.Delays[op]
	if !ok {
		d = f.Default
	}
	return time.Duration(float64(d) * f.Scale)
}

// Wait suspends for the operation's delay. It returns ctx.Err() if the context
// ends first; the caller must then skip the operation entirely.
func (f *Fixed) Wait(ctx context.Context, op string) error {
	d := f.delay(op)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
