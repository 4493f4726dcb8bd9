package backend

import (
	"splitmint/internal/store"
)

// BackendType represents the type of persistence backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Result contains the opened store and optional cleanup function
type Result struct {
	Store   store.Store
	Cleanup store.CleanupFunc
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return &InvalidTypeError{Type: string(c.Type)}
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return ErrMissingDBPath
	}
	return nil
}
