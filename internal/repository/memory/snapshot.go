package memory

import (
	"github.com/vamsi-krishn/EHR-system/internal/model"
)

// Snapshot is a point-in-time copy of every collection except the outbox.
type Snapshot struct {
	Patients       []*model.Patient                     `json:"patients"`
	Doctors        []*model.Doctor                      `json:"doctors"`
	Directory      map[string]model.DirectoryEntry      `json:"directory"`
	Records        []*model.MedicalRecord               `json:"records"`
	Appointments   []*model.Appointment                 `json:"appointments"`
	Permissions    map[string]map[string]bool           `json:"permissions"`
	PermissionLogs map[string][]model.PermissionLogEntry `json:"permissionLogs"`
	Counters       Counters                             `json:"counters"`
}

// Snapshot copies the current state under the read lock.
func (db *DB) Snapshot() *Snapshot {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s := &Snapshot{
		Patients:       make([]*model.Patient, 0, len(db.patients)),
		Doctors:        make([]*model.Doctor, 0, len(db.doctors)),
		Directory:      make(map[string]model.DirectoryEntry, len(db.directory)),
		Records:        make([]*model.MedicalRecord, 0, len(db.records)),
		Appointments:   make([]*model.Appointment, 0, len(db.appointments)),
		Permissions:    make(map[string]map[string]bool, len(db.permissions)),
		PermissionLogs: make(map[string][]model.PermissionLogEntry, len(db.logs)),
		Counters:       db.counters,
	}
	for _, p := range db.patients {
		c := *p
		s.Patients = append(s.Patients, &c)
	}
	for _, d := range db.doctors {
		c := *d
		s.Doctors = append(s.Doctors, &c)
	}
	for addr, e := range db.directory {
		s.Directory[addr] = e
	}
	for _, r := range db.records {
		c := *r
		s.Records = append(s.Records, &c)
	}
	for _, a := range db.appointments {
		c := *a
		s.Appointments = append(s.Appointments, &c)
	}
	for pid, edges := range db.permissions {
		m := make(map[string]bool, len(edges))
		for did, v := range edges {
			m[did] = v
		}
		s.Permissions[pid] = m
	}
	for pid, logs := range db.logs {
		s.PermissionLogs[pid] = append([]model.PermissionLogEntry(nil), logs...)
	}
	return s
}

// Restore replaces every collection with the contents of s. Counters end up
// above the highest restored id of each kind. No outbox events are queued.
// Nil entries are skipped.
func (db *DB) Restore(s *Snapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.patients = db.patients[:0]
	db.doctors = db.doctors[:0]
	db.records = db.records[:0]
	db.appointments = db.appointments[:0]
	db.directory = make(map[string]model.DirectoryEntry, len(s.Directory))
	db.permissions = make(map[string]map[string]bool, len(s.Permissions))
	db.logs = make(map[string][]model.PermissionLogEntry, len(s.PermissionLogs))

	counters := s.Counters
	if counters.NextPatientID < 1 {
		counters.NextPatientID = 1
	}
	if counters.NextDoctorID < 1 {
		counters.NextDoctorID = 1
	}
	if counters.NextRecordID < 1 {
		counters.NextRecordID = 1
	}
	if counters.NextAppointmentID < 1 {
		counters.NextAppointmentID = 1
	}

	for _, p := range s.Patients {
		if p == nil {
			continue
		}
		c := *p
		db.patients = append(db.patients, &c)
		bumpCounter(&counters.NextPatientID, c.ID)
	}
	for _, d := range s.Doctors {
		if d == nil {
			continue
		}
		c := *d
		db.doctors = append(db.doctors, &c)
		bumpCounter(&counters.NextDoctorID, c.ID)
	}
	for addr, e := range s.Directory {
		db.directory[model.NormalizeAddress(addr)] = e
	}
	for _, r := range s.Records {
		if r == nil {
			continue
		}
		c := *r
		db.records = append(db.records, &c)
		bumpCounter(&counters.NextRecordID, c.ID)
	}
	for _, a := range s.Appointments {
		if a == nil {
			continue
		}
		c := *a
		db.appointments = append(db.appointments, &c)
		bumpCounter(&counters.NextAppointmentID, c.ID)
	}
	for pid, edges := range s.Permissions {
		m := make(map[string]bool, len(edges))
		for did, v := range edges {
			m[did] = v
		}
		db.permissions[pid] = m
	}
	for pid, logs := range s.PermissionLogs {
		db.logs[pid] = append([]model.PermissionLogEntry(nil), logs...)
	}
	db.counters = counters
}
