package backend

import (
	"context"

	"fintrack/internal/ports"
)

// CleanupFunc releases a backend's resources.
type CleanupFunc func() error

// BackendResult is a ready record store plus what the process needs to
// check and release it.
type BackendResult struct {
	Type  BackendType
	Store ports.RecordStore
	// Ping backs readiness checks.
	Ping    func(context.Context) error
	Cleanup CleanupFunc
}

// Close runs Cleanup if there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// SQLite specific
	SQLiteDBPath string
	// Note sealing, both or neither
	NoteEncryptionKey string
	NoteSigningKey    string

	// Memory specific
	SeedFile    string
	DefaultUser string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

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
