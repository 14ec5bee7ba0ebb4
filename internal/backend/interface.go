package backend

import (
	"context"

	"tally/internal/kv"
)

// CleanupFunc releases the resources held by a store.
type CleanupFunc func() error

// BackendResult contains the store and an optional cleanup function
type BackendResult struct {
	Store   kv.Store
	Cleanup CleanupFunc
}

// Close runs the cleanup function when one is set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for store creation
type Config struct {
	Type BackendType

	// SQLite / Postgres
	SQLiteDBPath string
	PostgresDSN  string

	// Redis
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisNamespace string

	// Firestore
	FirestoreProjectID    string
	FirestoreCollection   string
	GoogleCredentialsFile string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend    BackendType = "memory"
	SQLiteBackend    BackendType = "sqlite"
	PostgresBackend  BackendType = "postgres"
	RedisBackend     BackendType = "redis"
	FirestoreBackend BackendType = "firestore"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend, RedisBackend, FirestoreBackend:
		return true
	default:
		return false
	}
}
