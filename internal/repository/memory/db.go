// Package memory is the process-wide ledger store. Every collection lives in
// one DB guarded by one RWMutex: mutations hold the write lock for their whole
// read-check-write, reads hold the read lock and hand out copies.
package memory

import (
	"strconv"
	"sync"
	"time"

	"github.com/vamsi-krishn/EHR-system/internal/model"
)

// Counters holds the next id to hand out per collection. Ids are never reused.
type Counters struct {
	NextPatientID     int `json:"nextPatientId"`
	NextDoctorID      int `json:"nextDoctorId"`
	NextRecordID      int `json:"nextRecordId"`
	NextAppointmentID int `json:"nextAppointmentId"`
}

type DB struct {
	mu sync.RWMutex

	patients     []*model.Patient
	doctors      []*model.Doctor
	directory    map[string]model.DirectoryEntry
	records      []*model.MedicalRecord
	appointments []*model.Appointment
	permissions  map[string]map[string]bool
	logs         map[string][]model.PermissionLogEntry
	outbox       []*model.OutboxEvent
	counters     Counters

	// events off means mutations queue no outbox events.
	events bool

	now func() time.Time
}

type Option func(*DB)

// WithEvents turns outbox event recording on or off. It is on by default;
// turn it off when nothing drains the outbox.
func WithEvents(enabled bool) Option {
	return func(db *DB) { db.events = enabled }
}

// WithClock replaces time.Now for timestamps written by the store.
func WithClock(now func() time.Time) Option {
	return func(db *DB) { db.now = now }
}

func NewDB(opts ...Option) *DB {
	db := &DB{
		directory:   make(map[string]model.DirectoryEntry),
		permissions: make(map[string]map[string]bool),
		logs:        make(map[string][]model.PermissionLogEntry),
		counters: Counters{
			NextPatientID:     1,
			NextDoctorID:      1,
			NextRecordID:      1,
			NextAppointmentID: 1,
		},
		now:    time.Now,
		events: true,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Now is the store clock.
func (db *DB) Now() time.Time {
	return db.now()
}

// Empty reports whether nothing has been registered or recorded yet.
func (db *DB) Empty() bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.patients) == 0 && len(db.doctors) == 0 && len(db.records) == 0 &&
		len(db.appointments) == 0 && len(db.directory) == 0
}

// nextID returns the current value of *counter as a decimal id and advances it.
func nextID(counter *int) string {
	id := strconv.Itoa(*counter)
	*counter++
	return id
}

// bumpCounter keeps *counter above id so restored or seeded ids are not reissued.
func bumpCounter(counter *int, id string) {
	n, err := strconv.Atoi(id)
	if err != nil {
		return
	}
	if n >= *counter {
		*counter = n + 1
	}
}

// appendEvent adds a pending outbox event. Callers hold the write lock.
func (db *DB) appendEvent(eventType string, payload interface{}) error {
	if !db.events {
		return nil
	}
	event, err := model.NewOutboxEvent(eventType, payload, db.now())
	if err != nil {
		return err
	}
	db.outbox = append(db.outbox, event)
	return nil
}
