package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
)

// Snapshot is everything a front end renders in one view.
type Snapshot struct {
	State       domain.EngineState    `json:"state"`
	Settings    domain.EngineConfig   `json:"settings"`
	Stats       domain.Stats          `json:"stats"`
	LastSession *domain.SessionRecord `json:"lastSession,omitempty"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

// TaskReport is a task together with its timer activity.
type TaskReport struct {
	Task       *domain.Task           `json:"task"`
	Notes      []*domain.TaskNote     `json:"notes"`
	Sessions   []domain.SessionRecord `json:"sessions"`
	TotalFocus time.Duration          `json:"totalFocus"`
}

// StateService aggregates the engine, the session log and the task directory
// for read-only views.
type StateService struct {
	timer    ports.TimerController
	sessions ports.SessionQuerier
	tasks    ports.TaskDirectory
	now      func() time.Time
}

// NewStateService creates a new state service. tasks may be nil.
func NewStateService(timer ports.TimerController, sessions ports.SessionQuerier, tasks ports.TaskDirectory) *StateService {
	return &StateService{
		timer:    timer,
		sessions: sessions,
		tasks:    tasks,
		now:      time.Now,
	}
}

// Snapshot returns the current state with freshly computed statistics.
func (s *StateService) Snapshot() Snapshot {
	snap := Snapshot{
		State:       s.timer.State(),
		Settings:    s.timer.Settings(),
		Stats:       s.sessions.RefreshStats(),
		GeneratedAt: s.now().UTC(),
	}
	if records := s.sessions.All(); len(records) > 0 {
		last := records[len(records)-1]
		snap.LastSession = &last
	}
	return snap
}

// TaskReport resolves query to a task and collects its history and sessions.
func (s *StateService) TaskReport(ctx context.Context, query string) (*TaskReport, error) {
	if s.tasks == nil {
		return nil, domain.ErrTaskNotFound
	}
	task, err := s.tasks.ResolveTask(ctx, query)
	if err != nil {
		return nil, err
	}
	notes, err := s.tasks.History(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	id := task.ID
	return &TaskReport{
		Task:       task,
		Notes:      notes,
		Sessions:   s.sessions.ByTask(id),
		TotalFocus: s.sessions.TotalFocusTime(&id, nil),
	}, nil
}
