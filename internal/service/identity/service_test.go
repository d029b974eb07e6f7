package identity

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/internal/repository/memory"
	"github.com/vamsi-krishn/EHR-system/internal/service"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
	"github.com/vamsi-krishn/EHR-system/pkg/latency"
	"github.com/vamsi-krishn/EHR-system/pkg/logger"
)

const (
	annAddr = "0xaaa0000000000000000000000000000000000001"
	beeAddr = "0xbbb0000000000000000000000000000000000002"
)

func newService(t *testing.T, policy DuplicatePolicy) (*Service, *memory.DB) {
	t.Helper()
	db := memory.NewDB()
	svc := NewService(
		memory.NewIdentityRepository(db),
		memory.NewMedicalRecordRepository(db),
		memory.NewAppointmentRepository(db),
		service.NewRunner(latency.None(), nil),
		policy,
		logger.Nop(),
	)
	return svc, db
}

func TestRegisterAndResolve(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, DuplicateReject)

	p, err := svc.RegisterPatient(ctx, &model.RegisterPatientRequest{
		Name: "Ann", DateOfBirth: "1990-01-01", Gender: "Female", ContactInfo: "ann@example.com", WalletAddress: annAddr,
	})
	require.NoError(t, err)
	assert.Equal(t, "1", p.ID)

	d, err := svc.RegisterDoctor(ctx, &model.RegisterDoctorRequest{
		Name: "Dr. Bee", Specialization: "Cardiology", LicenseNumber: "MED1", WalletAddress: beeAddr,
	})
	require.NoError(t, err)

	id, err := svc.Resolve(ctx, "0xAAA0000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, &model.Identity{IsRegistered: true, Role: model.RolePatient, Name: "Ann", ID: p.ID}, id)

	id, err = svc.Resolve(ctx, beeAddr)
	require.NoError(t, err)
	assert.Equal(t, &model.Identity{IsRegistered: true, Role: model.RoleDoctor, Name: "Dr. Bee", ID: d.ID}, id)

	id, err = svc.Resolve(ctx, "0xccc0000000000000000000000000000000000003")
	require.NoError(t, err)
	assert.False(t, id.IsRegistered)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newService(t, DuplicateReject)

	_, err := svc.RegisterPatient(context.Background(), &model.RegisterPatientRequest{WalletAddress: annAddr})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.RegisterDoctor(context.Background(), &model.RegisterDoctorRequest{Name: "Dr. Bee"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestRegister_DuplicatePolicy(t *testing.T) {
	ctx := context.Background()

	strict, _ := newService(t, DuplicateReject)
	_, err := strict.RegisterPatient(ctx, &model.RegisterPatientRequest{Name: "Ann", WalletAddress: annAddr})
	require.NoError(t, err)
	_, err = strict.RegisterDoctor(ctx, &model.RegisterDoctorRequest{Name: "Dr. Ann", WalletAddress: annAddr})
	assert.True(t, apperrors.IsConflict(err))

	lenient, _ := newService(t, DuplicateShadow)
	_, err = lenient.RegisterPatient(ctx, &model.RegisterPatientRequest{Name: "Ann", WalletAddress: annAddr})
	require.NoError(t, err)
	_, err = lenient.RegisterDoctor(ctx, &model.RegisterDoctorRequest{Name: "Dr. Ann", WalletAddress: annAddr})
	require.NoError(t, err)

	id, err := lenient.Resolve(ctx, annAddr)
	require.NoError(t, err)
	assert.Equal(t, model.RolePatient, id.Role)
}

func TestRegister_ConcurrentIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, DuplicateShadow)

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := svc.RegisterPatient(ctx, &model.RegisterPatientRequest{Name: "P", WalletAddress: annAddr})
			if err == nil {
				ids <- p.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestPatientAndDoctorData(t *testing.T) {
	ctx := context.Background()
	svc, db := newService(t, DuplicateReject)

	p, err := svc.RegisterPatient(ctx, &model.RegisterPatientRequest{Name: "Ann", WalletAddress: annAddr})
	require.NoError(t, err)
	d, err := svc.RegisterDoctor(ctx, &model.RegisterDoctorRequest{Name: "Dr. Bee", WalletAddress: beeAddr})
	require.NoError(t, err)

	require.NoError(t, memory.NewMedicalRecordRepository(db).Create(ctx, &model.MedicalRecord{PatientID: p.ID, DoctorID: d.ID, Title: "Checkup"}))
	require.NoError(t, memory.NewAppointmentRepository(db).Create(ctx, &model.Appointment{PatientID: p.ID, DoctorID: d.ID, Reason: "Follow-up"}))

	pd, err := svc.PatientData(ctx, annAddr)
	require.NoError(t, err)
	assert.Equal(t, "Ann", pd.Patient.Name)
	assert.Len(t, pd.Records, 1)
	assert.Len(t, pd.Appointments, 1)

	dd, err := svc.DoctorData(ctx, beeAddr)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Bee", dd.Doctor.Name)
	assert.Len(t, dd.Appointments, 1)

	_, err = svc.PatientData(ctx, beeAddr)
	assert.True(t, apperrors.IsNotFound(err))

	doctors, err := svc.ListDoctors(ctx)
	require.NoError(t, err)
	assert.Len(t, doctors, 1)
}

func TestParseDuplicatePolicy(t *testing.T) {
	p, err := ParseDuplicatePolicy("")
	require.NoError(t, err)
	assert.Equal(t, DuplicateReject, p)

	p, err = ParseDuplicatePolicy("shadow")
	require.NoError(t, err)
	assert.Equal(t, DuplicateShadow, p)

	_, err = ParseDuplicatePolicy("merge")
	assert.Error(t, err)
}
