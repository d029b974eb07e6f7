package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

const (
	annAddr = "0xAAAA000000000000000000000000000000000001"
	beeAddr = "0xbbbb000000000000000000000000000000000002"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time { return t }
}

func TestIdentityRepository_CreateAndResolve(t *testing.T) {
	ctx := context.Background()
	db := NewDB(WithClock(fixedClock()))
	repo := NewIdentityRepository(db)

	p := &model.Patient{Name: "Ann", WalletAddress: annAddr}
	require.NoError(t, repo.CreatePatient(ctx, p, true))
	assert.Equal(t, "1", p.ID)

	d := &model.Doctor{Name: "Dr. Bee", Specialization: "Cardiology", WalletAddress: beeAddr}
	require.NoError(t, repo.CreateDoctor(ctx, d, true))
	assert.Equal(t, "1", d.ID)

	id, err := repo.Resolve(ctx, "0xaaaa000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, &model.Identity{IsRegistered: true, Role: model.RolePatient, Name: "Ann", ID: "1"}, id)

	id, err = repo.Resolve(ctx, "0xBBBB000000000000000000000000000000000002")
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, id.Role)

	id, err = repo.Resolve(ctx, "0x0000000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.False(t, id.IsRegistered)
	assert.Empty(t, id.Role)

	got, err := repo.GetPatientByAddress(ctx, "0xaaaa000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)

	_, err = repo.GetDoctorByAddress(ctx, annAddr)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestIdentityRepository_DuplicateAddress(t *testing.T) {
	ctx := context.Background()
	repo := NewIdentityRepository(NewDB())

	require.NoError(t, repo.CreatePatient(ctx, &model.Patient{Name: "Ann", WalletAddress: annAddr}, true))

	err := repo.CreateDoctor(ctx, &model.Doctor{Name: "Dr. Ann", WalletAddress: annAddr}, true)
	assert.True(t, apperrors.IsConflict(err))

	// Shadowing keeps the first registration visible to lookups.
	second := &model.Patient{Name: "Ann Two", WalletAddress: annAddr}
	require.NoError(t, repo.CreatePatient(ctx, second, false))
	assert.Equal(t, "2", second.ID)

	id, err := repo.Resolve(ctx, annAddr)
	require.NoError(t, err)
	assert.Equal(t, "1", id.ID)
	assert.Equal(t, "Ann", id.Name)
}

func TestIdentityRepository_DirectoryFallback(t *testing.T) {
	ctx := context.Background()
	repo := NewIdentityRepository(NewDB())

	admin := "0x9876543210fedcba9876543210fedcba98765432"
	require.NoError(t, repo.PutDirectoryEntry(ctx, admin, model.DirectoryEntry{Role: model.RoleAdmin, Name: "Admin User", ID: "1"}))

	id, err := repo.Resolve(ctx, "0x9876543210FEDCBA9876543210FEDCBA98765432")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, id.Role)

	err = repo.PutDirectoryEntry(ctx, admin, model.DirectoryEntry{Role: "nurse"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestMedicalRecordRepository(t *testing.T) {
	ctx := context.Background()
	db := NewDB(WithClock(fixedClock()))
	repo := NewMedicalRecordRepository(db)

	rec := &model.MedicalRecord{PatientID: "1", DoctorID: "2", Title: "Checkup", FileType: model.FileTypePDF}
	require.NoError(t, repo.Create(ctx, rec))
	assert.Equal(t, "1", rec.ID)
	assert.Equal(t, db.Now(), rec.Timestamp)

	require.NoError(t, repo.Create(ctx, &model.MedicalRecord{PatientID: "9", Title: "Other"}))

	list, err := repo.ListByPatient(ctx, "1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Checkup", list[0].Title)

	list[0].Title = "mutated"
	got, err := repo.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Checkup", got.Title)

	updated, err := repo.Update(ctx, "1", func(r *model.MedicalRecord) error {
		r.Title = "Checkup v2"
		r.PatientID = "other"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Checkup v2", updated.Title)
	assert.Equal(t, "1", updated.PatientID)

	_, err = repo.Update(ctx, "99", func(*model.MedicalRecord) error { return nil })
	assert.True(t, apperrors.IsNotFound(err))

	_, err = repo.Get(ctx, "99")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAppointmentRepository_StateMachine(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository(NewDB())

	a := &model.Appointment{PatientID: "1", DoctorID: "1", Status: model.AppointmentStatusCompleted}
	require.NoError(t, repo.Create(ctx, a))
	assert.Equal(t, model.AppointmentStatusPending, a.Status)

	got, err := repo.UpdateStatus(ctx, a.ID, model.AppointmentStatusConfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusConfirmed, got.Status)

	_, err = repo.UpdateStatus(ctx, a.ID, model.AppointmentStatusConfirmed, nil)
	assert.True(t, apperrors.IsInvalidTransition(err))

	_, err = repo.UpdateStatus(ctx, a.ID, model.AppointmentStatusCompleted, nil)
	require.NoError(t, err)

	_, err = repo.UpdateStatus(ctx, a.ID, model.AppointmentStatusCancelled, nil)
	assert.True(t, apperrors.IsInvalidTransition(err))

	stored, err := repo.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, stored.Status)

	_, err = repo.UpdateStatus(ctx, "42", model.AppointmentStatusConfirmed, nil)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAppointmentRepository_ConcurrentTransitions(t *testing.T) {
	ctx := context.Background()
	repo := NewAppointmentRepository(NewDB())

	a := &model.Appointment{PatientID: "1", DoctorID: "1"}
	require.NoError(t, repo.Create(ctx, a))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := model.AppointmentStatusConfirmed
			if i%2 == 0 {
				next = model.AppointmentStatusCancelled
			}
			if _, err := repo.UpdateStatus(ctx, a.ID, next, nil); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	// Out of Pending, exactly one of the racing transitions wins; a Confirmed
	// winner may still be followed by one Cancel.
	assert.GreaterOrEqual(t, successes, 1)
	assert.LessOrEqual(t, successes, 2)
}

func TestPermissionRepository(t *testing.T) {
	ctx := context.Background()
	db := NewDB(WithClock(fixedClock()))
	repo := NewPermissionRepository(db)

	ok, err := repo.Check(ctx, "1", "1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Apply(ctx, model.PermissionChange{
		PatientID: "1", DoctorID: "1", Granted: true,
		Entry: model.PermissionLogEntry{DoctorName: "Dr. Bee"},
	}))
	require.NoError(t, repo.Apply(ctx, model.PermissionChange{
		PatientID: "1", DoctorID: "1", Granted: false,
		Entry: model.PermissionLogEntry{DoctorName: "Dr. Bee"},
	}))

	ok, err = repo.Check(ctx, "1", "1")
	require.NoError(t, err)
	assert.False(t, ok)

	logs, err := repo.Logs(ctx, "1")
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.False(t, logs[0].Granted)
	assert.True(t, logs[1].Granted)
	assert.Equal(t, "Dr. Bee", logs[0].DoctorName)
	assert.Equal(t, db.Now(), logs[0].Timestamp)

	empty, err := repo.Logs(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOutboxRepository(t *testing.T) {
	ctx := context.Background()
	db := NewDB(WithClock(fixedClock()))
	identities := NewIdentityRepository(db)
	outbox := NewOutboxRepository(db)

	require.NoError(t, identities.CreatePatient(ctx, &model.Patient{Name: "Ann", WalletAddress: annAddr}, true))
	require.NoError(t, identities.CreateDoctor(ctx, &model.Doctor{Name: "Dr. Bee", WalletAddress: beeAddr}, true))

	events, err := outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, model.EventPatientRegistered, events[0].EventType)
	assert.Equal(t, model.EventDoctorRegistered, events[1].EventType)

	limited, err := outbox.GetPendingEvents(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, outbox.UpdateStatus(ctx, events[0].ID, model.OutboxStatusProcessed, nil))
	pending, err := outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	removed, err := outbox.DeleteFinishedBefore(ctx, db.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestOutboxRepository_DeletesFailedEvents(t *testing.T) {
	ctx := context.Background()
	db := NewDB(WithClock(fixedClock()))
	identities := NewIdentityRepository(db)
	outbox := NewOutboxRepository(db)

	require.NoError(t, identities.CreatePatient(ctx, &model.Patient{Name: "Ann", WalletAddress: annAddr}, true))
	require.NoError(t, identities.CreateDoctor(ctx, &model.Doctor{Name: "Dr. Bee", WalletAddress: beeAddr}, true))
	events, err := outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	msg := "broker unavailable"
	require.NoError(t, outbox.UpdateStatus(ctx, events[0].ID, model.OutboxStatusFailed, &msg))

	removed, err := outbox.DeleteFinishedBefore(ctx, db.Now().Add(-time.Second))
	require.NoError(t, err)
	assert.Zero(t, removed)

	removed, err = outbox.DeleteFinishedBefore(ctx, db.Now().Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	// the pending event survives any cutoff
	pending, err := outbox.GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, events[1].ID, pending[0].ID)
	assert.Len(t, db.outbox, 1)
}

func TestDB_WithEventsDisabled(t *testing.T) {
	ctx := context.Background()
	db := NewDB(WithEvents(false))
	identities := NewIdentityRepository(db)
	appointments := NewAppointmentRepository(db)
	permissions := NewPermissionRepository(db)

	require.NoError(t, identities.CreatePatient(ctx, &model.Patient{Name: "Ann", WalletAddress: annAddr}, true))
	require.NoError(t, identities.CreateDoctor(ctx, &model.Doctor{Name: "Dr. Bee", WalletAddress: beeAddr}, true))
	a := &model.Appointment{PatientID: "1", DoctorID: "1"}
	require.NoError(t, appointments.Create(ctx, a))
	_, err := appointments.UpdateStatus(ctx, a.ID, model.AppointmentStatusConfirmed, nil)
	require.NoError(t, err)
	require.NoError(t, permissions.Apply(ctx, model.PermissionChange{PatientID: "1", DoctorID: "1", Granted: true}))

	assert.Empty(t, db.outbox)
	events, err := NewOutboxRepository(db).GetPendingEvents(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestRestore_SkipsNilEntries(t *testing.T) {
	db := NewDB()
	db.Restore(&Snapshot{
		Patients:     []*model.Patient{nil, {ID: "4", Name: "Ann", WalletAddress: annAddr}},
		Doctors:      []*model.Doctor{nil},
		Records:      []*model.MedicalRecord{nil},
		Appointments: []*model.Appointment{nil},
	})

	id, err := NewIdentityRepository(db).Resolve(context.Background(), annAddr)
	require.NoError(t, err)
	assert.Equal(t, "4", id.ID)
	assert.Equal(t, 5, db.Snapshot().Counters.NextPatientID)
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	db := NewDB()
	identities := NewIdentityRepository(db)
	permissions := NewPermissionRepository(db)

	require.NoError(t, identities.CreatePatient(ctx, &model.Patient{Name: "Ann", WalletAddress: annAddr}, true))
	require.NoError(t, permissions.Apply(ctx, model.PermissionChange{PatientID: "1", DoctorID: "1", Granted: true}))

	snap := db.Snapshot()
	restored := NewDB()
	restored.Restore(snap)
	assert.False(t, restored.Empty())

	id, err := NewIdentityRepository(restored).Resolve(ctx, annAddr)
	require.NoError(t, err)
	assert.Equal(t, "Ann", id.Name)

	ok, err := NewPermissionRepository(restored).Check(ctx, "1", "1")
	require.NoError(t, err)
	assert.True(t, ok)

	next := &model.Patient{Name: "Cy", WalletAddress: beeAddr}
	require.NoError(t, NewIdentityRepository(restored).CreatePatient(ctx, next, true))
	assert.Equal(t, "2", next.ID)
}

func TestRestore_BumpsCountersPastIDs(t *testing.T) {
	db := NewDB()
	db.Restore(&Snapshot{
		Records: []*model.MedicalRecord{{ID: "3", PatientID: "1"}},
	})

	rec := &model.MedicalRecord{PatientID: "1"}
	require.NoError(t, NewMedicalRecordRepository(db).Create(context.Background(), rec))
	assert.Equal(t, "4", rec.ID)
}
