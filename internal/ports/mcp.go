package ports

import (
	"context"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
)

// MCPHandler defines the interface for MCP server operations.
// This is a driving port (called by the application layer).
type MCPHandler interface {
	// Start begins serving MCP requests.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the server.
	Stop() error

	// IsRunning returns true if the server is active.
	IsRunning() bool
}

// TimerController is the surface of the timer engine exposed to the MCP,
// HTTP and terminal front ends. Transitions never fail; out-of-order calls
// are no-ops and the resulting state is returned either way.
type TimerController interface {
	State() domain.EngineState
	Settings() domain.EngineConfig
	StartSession(taskID, taskTitle *string, mode domain.Mode) domain.EngineState
	PauseSession() domain.EngineState
	ResumeSession() domain.EngineState
	SkipSession() domain.EngineState
	StopSession() domain.EngineState
	Reset() domain.EngineState
	UpdateSettings(patch domain.SettingsPatch) (domain.EngineConfig, error)
}

// SessionQuerier exposes read access to the session log.
type SessionQuerier interface {
	All() []domain.SessionRecord
	ByTask(taskID string) []domain.SessionRecord
	ByDate(dateISO string) []domain.SessionRecord
	TotalFocusTime(taskID *string, rng *domain.DateRange) time.Duration
	RefreshStats() domain.Stats
}

// TaskDirectory resolves and lists tasks for the front ends.
type TaskDirectory interface {
	ListTasks(ctx context.Context) ([]*domain.Task, error)
	ResolveTask(ctx context.Context, query string) (*domain.Task, error)
	History(ctx context.Context, taskID string) ([]*domain.TaskNote, error)
}
