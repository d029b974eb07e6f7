// Package seed loads the demo ledger contents embedded in fixtures.yaml.
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vamsi-krishn/EHR-system/internal/model"
	"github.com/vamsi-krishn/EHR-system/internal/repository/memory"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type AdminEntry struct {
	Address string `yaml:"address"`
	Name    string `yaml:"name"`
	ID      string `yaml:"id"`
}

// PermissionLogFixture is a log entry whose timestamp is Age before load time.
type PermissionLogFixture struct {
	PatientID  string        `yaml:"patientId"`
	DoctorID   string        `yaml:"doctorId"`
	DoctorName string        `yaml:"doctorName"`
	Granted    bool          `yaml:"granted"`
	Age        time.Duration `yaml:"age"`
}

type Fixtures struct {
	Patients       []model.Patient        `yaml:"patients"`
	Doctors        []model.Doctor         `yaml:"doctors"`
	Admins         []AdminEntry           `yaml:"admins"`
	Records        []model.MedicalRecord  `yaml:"records"`
	Appointments   []model.Appointment    `yaml:"appointments"`
	Permissions    map[string][]string    `yaml:"permissions"`
	PermissionLogs []PermissionLogFixture `yaml:"permissionLogs"`
}

// Default parses the embedded fixtures.
func Default() (*Fixtures, error) {
	return Parse(fixturesYAML)
}

func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &f, nil
}

// Snapshot turns the fixtures into store contents, stamping log entries
// relative to now. Every patient and doctor also gets a directory entry.
func (f *Fixtures) Snapshot(now time.Time) *memory.Snapshot {
	s := &memory.Snapshot{
		Directory:      make(map[string]model.DirectoryEntry),
		Permissions:    make(map[string]map[string]bool),
		PermissionLogs: make(map[string][]model.PermissionLogEntry),
	}

	for i := range f.Patients {
		p := f.Patients[i]
		s.Patients = append(s.Patients, &p)
		s.Directory[model.NormalizeAddress(p.WalletAddress)] = model.DirectoryEntry{Role: model.RolePatient, Name: p.Name, ID: p.ID}
	}
	for i := range f.Doctors {
		d := f.Doctors[i]
		s.Doctors = append(s.Doctors, &d)
		s.Directory[model.NormalizeAddress(d.WalletAddress)] = model.DirectoryEntry{Role: model.RoleDoctor, Name: d.Name, ID: d.ID}
	}
	for _, a := range f.Admins {
		s.Directory[model.NormalizeAddress(a.Address)] = model.DirectoryEntry{Role: model.RoleAdmin, Name: a.Name, ID: a.ID}
	}
	for i := range f.Records {
		r := f.Records[i]
		s.Records = append(s.Records, &r)
	}
	for i := range f.Appointments {
		a := f.Appointments[i]
		s.Appointments = append(s.Appointments, &a)
	}
	for patientID, doctorIDs := range f.Permissions {
		edges := make(map[string]bool, len(doctorIDs))
		for _, id := range doctorIDs {
			edges[id] = true
		}
		s.Permissions[patientID] = edges
	}
	for _, l := range f.PermissionLogs {
		s.PermissionLogs[l.PatientID] = append(s.PermissionLogs[l.PatientID], model.PermissionLogEntry{
			PatientID:  l.PatientID,
			DoctorID:   l.DoctorID,
			DoctorName: l.DoctorName,
			Granted:    l.Granted,
			Timestamp:  now.Add(-l.Age),
		})
	}
	return s
}

// Load replaces the contents of db with the embedded fixtures.
func Load(db *memory.DB) error {
	f, err := Default()
	if err != nil {
		return err
	}
	db.Restore(f.Snapshot(db.Now()))
	return nil
}
