package appointment_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/internal/repository/memory"
	"github.com/vamsi-krishn/EHR-system/internal/service"
	"github.com/vamsi-krishn/EHR-system/internal/service/appointment"
	"github.com/vamsi-krishn/EHR-system/internal/service/identity"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
	"github.com/vamsi-krishn/EHR-system/pkg/latency"
	"github.com/vamsi-krishn/EHR-system/pkg/logger"
)

const (
	annAddr = "0xaaa0000000000000000000000000000000000001"
	beeAddr = "0xbbb0000000000000000000000000000000000002"
)

func setup(t *testing.T) *appointment.Service {
	t.Helper()
	ctx := context.Background()
	db := memory.NewDB()
	runner := service.NewRunner(latency.None(), nil)

	ids := identity.NewService(
		memory.NewIdentityRepository(db),
		memory.NewMedicalRecordRepository(db),
		memory.NewAppointmentRepository(db),
		runner, identity.DuplicateReject, logger.Nop(),
	)
	_, err := ids.RegisterPatient(ctx, &model.RegisterPatientRequest{Name: "Ann", WalletAddress: annAddr})
	require.NoError(t, err)
	_, err = ids.RegisterDoctor(ctx, &model.RegisterDoctorRequest{Name: "Dr. Bee", WalletAddress: beeAddr})
	require.NoError(t, err)

	return appointment.NewService(memory.NewAppointmentRepository(db), ids, runner, logger.Nop())
}

func book(t *testing.T, svc *appointment.Service) *model.Appointment {
	t.Helper()
	apt, err := svc.Book(context.Background(), annAddr, &model.BookAppointmentRequest{
		DoctorAddress: beeAddr,
		Timestamp:     time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC),
		Reason:        "Follow-up",
	})
	require.NoError(t, err)
	return apt
}

func TestBookThenConfirmComplete(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	apt := book(t, svc)
	assert.Equal(t, model.AppointmentStatusPending, apt.Status)

	_, err := svc.SetStatus(ctx, apt.ID, model.AppointmentStatusConfirmed)
	require.NoError(t, err)
	done, err := svc.SetStatus(ctx, apt.ID, model.AppointmentStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, done.Status)

	_, err = svc.SetStatus(ctx, apt.ID, model.AppointmentStatusCompleted)
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func TestSetStatusAs_ActorRules(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)
	apt := book(t, svc)

	patient := model.Actor{Role: model.RolePatient, ID: apt.PatientID}
	doctor := model.Actor{Role: model.RoleDoctor, ID: apt.DoctorID}

	_, err := svc.SetStatusAs(ctx, patient, apt.ID, model.AppointmentStatusConfirmed)
	assert.True(t, apperrors.IsForbidden(err))

	// a rejected move leaves the appointment untouched
	got, err := svc.Get(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusPending, got.Status)

	_, err = svc.SetStatusAs(ctx, doctor, apt.ID, model.AppointmentStatusConfirmed)
	require.NoError(t, err)
	_, err = svc.SetStatusAs(ctx, patient, apt.ID, model.AppointmentStatusCompleted)
	assert.True(t, apperrors.IsForbidden(err))
	cancelled, err := svc.SetStatusAs(ctx, patient, apt.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	_, err = svc.SetStatusAs(ctx, doctor, "99", model.AppointmentStatusConfirmed)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSetStatus_Table(t *testing.T) {
	tests := []struct {
		name    string
		path    []model.AppointmentStatus
		wantErr bool
	}{
		{"decline", []model.AppointmentStatus{model.AppointmentStatusCancelled}, false},
		{"confirm then cancel", []model.AppointmentStatus{model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled}, false},
		{"complete from pending", []model.AppointmentStatus{model.AppointmentStatusCompleted}, true},
		{"pending to pending", []model.AppointmentStatus{model.AppointmentStatusPending}, true},
		{"reopen cancelled", []model.AppointmentStatus{model.AppointmentStatusCancelled, model.AppointmentStatusConfirmed}, true},
		{"unknown status", []model.AppointmentStatus{"Rescheduled"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := setup(t)
			apt := book(t, svc)

			var err error
			for _, next := range tt.path {
				if _, err = svc.SetStatus(context.Background(), apt.ID, next); err != nil {
					break
				}
			}
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBook_Errors(t *testing.T) {
	ctx := context.Background()
	svc := setup(t)

	_, err := svc.Book(ctx, beeAddr, &model.BookAppointmentRequest{DoctorAddress: beeAddr, Timestamp: time.Now()})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Book(ctx, annAddr, &model.BookAppointmentRequest{DoctorAddress: annAddr, Timestamp: time.Now()})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Book(ctx, annAddr, &model.BookAppointmentRequest{DoctorAddress: beeAddr})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.SetStatus(ctx, "99", model.AppointmentStatusConfirmed)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListings(t *testing.T) {
	svc := setup(t)
	book(t, svc)
	book(t, svc)

	byPatient, err := svc.ListByPatient(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, byPatient, 2)
	assert.Equal(t, "1", byPatient[0].ID)
	assert.Equal(t, "2", byPatient[1].ID)

	byDoctor, err := svc.ListByDoctor(context.Background(), "1")
	require.NoError(t, err)
	assert.Len(t, byDoctor, 2)

	none, err := svc.ListByDoctor(context.Background(), "7")
	require.NoError(t, err)
	assert.Empty(t, none)
}
