package memory

import (
	"context"
	"fmt"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	apperrors "github.com/vamsi-krishn/EHR-system/pkg/errors"
)

type IdentityRepository struct {
	db *DB
}

func NewIdentityRepository(db *DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

func (r *IdentityRepository) CreatePatient(ctx context.Context, p *model.Patient, unique bool) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if unique && db.addressTaken(p.WalletAddress) {
		return apperrors.Conflict(fmt.Sprintf("address %s is already registered", p.WalletAddress), nil)
	}

	stored := *p
	stored.ID = nextID(&db.counters.NextPatientID)
	if err := db.appendEvent(model.EventPatientRegistered, &stored); err != nil {
		return apperrors.Internal(err)
	}
	db.patients = append(db.patients, &stored)
	db.directory[model.NormalizeAddress(stored.WalletAddress)] = model.DirectoryEntry{
		Role: model.RolePatient,
		Name: stored.Name,
		ID:   stored.ID,
	}
	*p = stored
	return nil
}

func (r *IdentityRepository) CreateDoctor(ctx context.Context, d *model.Doctor, unique bool) error {
	db := r.db
	db.mu.Lock()
	defer db.mu.Unlock()

	if unique && db.addressTaken(d.WalletAddress) {
		return apperrors.Conflict(fmt.Sprintf("address %s is already registered", d.WalletAddress), nil)
	}

	stored := *d
	stored.ID = nextID(&db.counters.NextDoctorID)
	if err := db.appendEvent(model.EventDoctorRegistered, &stored); err != nil {
		return apperrors.Internal(err)
	}
	db.doctors = append(db.doctors, &stored)
	db.directory[model.NormalizeAddress(stored.WalletAddress)] = model.DirectoryEntry{
		Role: model.RoleDoctor,
		Name: stored.Name,
		ID:   stored.ID,
	}
	*d = stored
	return nil
}

func (r *IdentityRepository) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, p := range r.db.patients {
		if p.ID == id {
			out := *p
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("patient", nil)
}

func (r *IdentityRepository) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	for _, d := range r.db.doctors {
		if d.ID == id {
			out := *d
			return &out, nil
		}
	}
	return nil, apperrors.NotFound("doctor", nil)
}

func (r *IdentityRepository) GetPatientByAddress(ctx context.Context, address string) (*model.Patient, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if p := r.db.patientByAddress(address); p != nil {
		out := *p
		return &out, nil
	}
	return nil, apperrors.NotFound("patient", nil)
}

func (r *IdentityRepository) GetDoctorByAddress(ctx context.Context, address string) (*model.Doctor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	if d := r.db.doctorByAddress(address); d != nil {
		out := *d
		return &out, nil
	}
	return nil, apperrors.NotFound("doctor", nil)
}

func (r *IdentityRepository) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]*model.Doctor, 0, len(r.db.doctors))
	for _, d := range r.db.doctors {
		c := *d
		out = append(out, &c)
	}
	return out, nil
}

// Resolve looks an address up in patients, then doctors, then the directory.
// An unknown address resolves to an unregistered identity.
func (r *IdentityRepository) Resolve(ctx context.Context, address string) (*model.Identity, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if p := r.db.patientByAddress(address); p != nil {
		return &model.Identity{IsRegistered: true, Role: model.RolePatient, Name: p.Name, ID: p.ID}, nil
	}
	if d := r.db.doctorByAddress(address); d != nil {
		return &model.Identity{IsRegistered: true, Role: model.RoleDoctor, Name: d.Name, ID: d.ID}, nil
	}
	if entry, ok := r.db.directory[model.NormalizeAddress(address)]; ok {
		return entry.Identity(), nil
	}
	return &model.Identity{IsRegistered: false}, nil
}

func (r *IdentityRepository) PutDirectoryEntry(ctx context.Context, address string, entry model.DirectoryEntry) error {
	if !entry.Role.Valid() {
		return apperrors.Validation(fmt.Sprintf("invalid role %q", entry.Role), nil)
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.directory[model.NormalizeAddress(address)] = entry
	return nil
}

// patientByAddress returns the first patient registered under address.
func (db *DB) patientByAddress(address string) *model.Patient {
	for _, p := range db.patients {
		if model.SameAddress(p.WalletAddress, address) {
			return p
		}
	}
	return nil
}

func (db *DB) doctorByAddress(address string) *model.Doctor {
	for _, d := range db.doctors {
		if model.SameAddress(d.WalletAddress, address) {
			return d
		}
	}
	return nil
}

func (db *DB) addressTaken(address string) bool {
	if _, ok := db.directory[model.NormalizeAddress(address)]; ok {
		return true
	}
	return db.patientByAddress(address) != nil || db.doctorByAddress(address) != nil
}
