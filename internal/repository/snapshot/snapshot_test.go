package snapshot

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/internal/repository/memory"
	"github.com/vamsi-krishn/EHR-system/pkg/security"
)

func sampleSnapshot(t *testing.T) *memory.Snapshot {
	t.Helper()
	ctx := context.Background()
	db := memory.NewDB()
	identities := memory.NewIdentityRepository(db)
	records := memory.NewMedicalRecordRepository(db)
	permissions := memory.NewPermissionRepository(db)

	require.NoError(t, identities.CreatePatient(ctx, &model.Patient{Name: "Ann", WalletAddress: "0x1111111111111111111111111111111111111111"}, true))
	require.NoError(t, identities.CreateDoctor(ctx, &model.Doctor{Name: "Dr. Bee", WalletAddress: "0x2222222222222222222222222222222222222222"}, true))
	require.NoError(t, records.Create(ctx, &model.MedicalRecord{PatientID: "1", DoctorID: "1", Title: "Checkup", FileType: model.FileTypePDF}))
	require.NoError(t, permissions.Apply(ctx, model.PermissionChange{
		PatientID: "1", DoctorID: "1", Granted: true,
		Entry: model.PermissionLogEntry{DoctorName: "Dr. Bee", Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}))
	return db.Snapshot()
}

func assertRoundTrip(t *testing.T, store Store) {
	ctx := context.Background()

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)

	want := sampleSnapshot(t)
	require.NoError(t, store.Save(ctx, want))
	// saving twice overwrites rather than duplicating
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, want.Counters, got.Counters)
	require.Len(t, got.Patients, 1)
	assert.Equal(t, "Ann", got.Patients[0].Name)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "Checkup", got.Records[0].Title)
	assert.True(t, got.Permissions["1"]["1"])
	require.Len(t, got.PermissionLogs["1"], 1)
	assert.Equal(t, "Dr. Bee", got.PermissionLogs["1"][0].DoctorName)
	assert.Len(t, got.Directory, 2)

	restored := memory.NewDB()
	restored.Restore(got)
	id, err := memory.NewIdentityRepository(restored).Resolve(ctx, "0x2222222222222222222222222222222222222222")
	require.NoError(t, err)
	assert.Equal(t, model.RoleDoctor, id.Role)
}

func TestSQLStore_SQLite(t *testing.T) {
	store, err := NewSQLStore(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	defer store.Close()

	assertRoundTrip(t, store)
}

func TestLevelStore(t *testing.T) {
	store, err := NewMemLevelStore()
	require.NoError(t, err)
	defer store.Close()

	assertRoundTrip(t, store)
}

func TestLevelStore_Encrypted(t *testing.T) {
	enc, err := security.NewAESEncryptor(bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)
	store, err := NewMemLevelStore(WithEncryptor(enc))
	require.NoError(t, err)
	defer store.Close()

	assertRoundTrip(t, store)

	raw, err := store.db.Get([]byte(levelKeyPrefix+CollectionPatients), nil)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Ann")
}

func TestSQLStore_EncryptedWrongKey(t *testing.T) {
	ctx := context.Background()
	sealer, err := security.NewAESEncryptor(bytes.Repeat([]byte{3}, 32))
	require.NoError(t, err)
	store, err := NewSQLStore(ctx, "sqlite3", ":memory:", WithEncryptor(sealer))
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.Save(ctx, sampleSnapshot(t)))

	other, err := security.NewAESEncryptor(bytes.Repeat([]byte{4}, 32))
	require.NoError(t, err)
	store.codec = newCodec([]Option{WithEncryptor(other)})
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, security.ErrDecryption)
}

func TestLevelStore_RejectsNullEntries(t *testing.T) {
	store, err := NewMemLevelStore()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.db.Put([]byte(levelKeyPrefix+CollectionPatients), []byte(`[null]`), nil))

	_, err = store.Load(context.Background())
	assert.ErrorIs(t, err, ErrCorrupt)
}
