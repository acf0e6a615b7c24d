// Package ports defines the interfaces (driven and driving ports)
// for the Kaiz timer following hexagonal architecture principles.
// These interfaces define the contracts between the timer engine and
// external infrastructure.
package ports

import (
	"context"
	"errors"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
)

// Keys used in the key-value store.
const (
	KeySettings = "settings"
	KeySessions = "sessions"
)

// ErrKeyNotFound is returned by KeyValueStore.Get when nothing is stored under a key.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is durable storage for JSON blobs.
// This is a driven port (implemented by adapters).
type KeyValueStore interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set overwrites the value stored under key.
	Set(ctx context.Context, key string, value []byte) error

	// Update replaces the value under key with fn's result, atomically with
	// respect to other writers of the same store. fn receives nil when the
	// key is absent and may be called more than once.
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
}

// TaskRepository defines the interface for the task registry.
// This is a driven port (implemented by adapters).
type TaskRepository interface {
	// Save persists a new task.
	Save(ctx context.Context, task *domain.Task) error

	// FindByID retrieves a task by its unique identifier.
	FindByID(ctx context.Context, id string) (*domain.Task, error)

	// FindAll retrieves all tasks, newest first.
	FindAll(ctx context.Context) ([]*domain.Task, error)

	// AppendNote adds an entry to a task's history.
	AppendNote(ctx context.Context, note *domain.TaskNote) error

	// Notes returns a task's history, oldest first.
	Notes(ctx context.Context, taskID string) ([]*domain.TaskNote, error)
}

// Storage is the combined repository interface.
// This is a driven port (implemented by adapters).
type Storage interface {
	// KV provides access to the key-value store.
	KV() KeyValueStore

	// Tasks provides access to task operations.
	Tasks() TaskRepository

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate() error
}
