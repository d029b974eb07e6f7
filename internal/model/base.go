package model

// Role is the kind of principal behind a wallet address.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// Actor is the caller of an operation as asserted by its session.
type Actor struct {
	Role    Role   `json:"role"`
	Address string `json:"address"`
	ID      string `json:"id"`
	Name    string `json:"name"`
}

// Identity is the result of resolving a wallet address. An unknown address is
// a normal result with IsRegistered false.
type Identity struct {
	IsRegistered bool   `json:"isRegistered"`
	Role         Role   `json:"role,omitempty"`
	Name         string `json:"name,omitempty"`
	ID           string `json:"id,omitempty"`
}

// DirectoryEntry maps a lower-cased wallet address to a principal.
type DirectoryEntry struct {
	Role Role   `json:"role" yaml:"role"`
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id" yaml:"id"`
}

func (e DirectoryEntry) Identity() *Identity {
	return &Identity{IsRegistered: true, Role: e.Role, Name: e.Name, ID: e.ID}
}
