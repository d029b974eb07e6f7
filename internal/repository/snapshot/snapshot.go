// Package snapshot persists memory.DB snapshots as one JSON document per
// collection.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vamsi-krishn/EHR-system/internal/repository/memory"
	"github.com/vamsi-krishn/EHR-system/pkg/security"
)

// Collection names, used as document keys by every Store.
const (
	CollectionPatients       = "patients"
	CollectionDoctors        = "doctors"
	CollectionDirectory      = "directory"
	CollectionRecords        = "records"
	CollectionAppointments   = "appointments"
	CollectionPermissions    = "permissions"
	CollectionPermissionLogs = "permission_logs"
	CollectionCounters       = "counters"
)

// ErrCorrupt marks a stored snapshot that cannot be restored.
var ErrCorrupt = errors.New("corrupt snapshot")

// Store saves and loads snapshots. Load returns nil and no error when nothing
// has been saved yet.
type Store interface {
	Save(ctx context.Context, s *memory.Snapshot) error
	Load(ctx context.Context) (*memory.Snapshot, error)
	Close() error
}

// Option configures a Store.
type Option func(*codec)

// WithEncryptor seals every document before it reaches the backend.
func WithEncryptor(enc security.Encryptor) Option {
	return func(c *codec) { c.enc = enc }
}

// codec turns a snapshot into per-collection documents and back. With an
// encryptor set, documents are stored as base64 AES-GCM text.
type codec struct {
	enc security.Encryptor
}

func newCodec(opts []Option) codec {
	var c codec
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c codec) encode(s *memory.Snapshot) (map[string][]byte, error) {
	parts := map[string]interface{}{
		CollectionPatients:       s.Patients,
		CollectionDoctors:        s.Doctors,
		CollectionDirectory:      s.Directory,
		CollectionRecords:        s.Records,
		CollectionAppointments:   s.Appointments,
		CollectionPermissions:    s.Permissions,
		CollectionPermissionLogs: s.PermissionLogs,
		CollectionCounters:       s.Counters,
	}
	docs := make(map[string][]byte, len(parts))
	for name, v := range parts {
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		if c.enc != nil {
			sealed, err := security.SealString(c.enc, data)
			if err != nil {
				return nil, fmt.Errorf("failed to seal %s: %w", name, err)
			}
			data = []byte(sealed)
		}
		docs[name] = data
	}
	return docs, nil
}

func (c codec) decode(docs map[string][]byte) (*memory.Snapshot, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	s := &memory.Snapshot{}
	targets := map[string]interface{}{
		CollectionPatients:       &s.Patients,
		CollectionDoctors:        &s.Doctors,
		CollectionDirectory:      &s.Directory,
		CollectionRecords:        &s.Records,
		CollectionAppointments:   &s.Appointments,
		CollectionPermissions:    &s.Permissions,
		CollectionPermissionLogs: &s.PermissionLogs,
		CollectionCounters:       &s.Counters,
	}
	for name, target := range targets {
		data, ok := docs[name]
		if !ok {
			continue
		}
		if c.enc != nil {
			opened, err := security.OpenString(c.enc, string(data))
			if err != nil {
				return nil, fmt.Errorf("failed to open %s: %w", name, err)
			}
			data = opened
		}
		if err := json.Unmarshal(data, target); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
	}
	if err := checkEntries(s); err != nil {
		return nil, err
	}
	return s, nil
}

// checkEntries rejects documents holding null entries, which no Save writes.
func checkEntries(s *memory.Snapshot) error {
	for i, p := range s.Patients {
		if p == nil {
			return fmt.Errorf("%w: %s[%d] is null", ErrCorrupt, CollectionPatients, i)
		}
	}
	for i, d := range s.Doctors {
		if d == nil {
			return fmt.Errorf("%w: %s[%d] is null", ErrCorrupt, CollectionDoctors, i)
		}
	}
	for i, r := range s.Records {
		if r == nil {
			return fmt.Errorf("%w: %s[%d] is null", ErrCorrupt, CollectionRecords, i)
		}
	}
	for i, a := range s.Appointments {
		if a == nil {
			return fmt.Errorf("%w: %s[%d] is null", ErrCorrupt, CollectionAppointments, i)
		}
	}
	return nil
}
