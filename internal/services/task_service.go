// Package services implements the application layer (use cases)
// following hexagonal architecture principles.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
	"github.com/sahilm/fuzzy"
)

// ErrAmbiguousTask is returned when a query matches several tasks equally well.
var ErrAmbiguousTask = errors.New("task query is ambiguous")

// minIDPrefix is the shortest ID prefix accepted by ResolveTask.
const minIDPrefix = 4

// TaskService handles task-related use cases. It is also the task linkage
// collaborator of the timer engine.
type TaskService struct {
	storage    ports.Storage
	git        ports.GitDetector
	workingDir string
}

// NewTaskService creates a new task service.
func NewTaskService(storage ports.Storage) *TaskService {
	return &TaskService{storage: storage}
}

// SetGitContext makes history notes carry the branch checked out in workingDir.
func (s *TaskService) SetGitContext(detector ports.GitDetector, workingDir string) {
	s.git = detector
	s.workingDir = workingDir
}

// AddTask creates a new task.
func (s *TaskService) AddTask(ctx context.Context, title string) (*domain.Task, error) {
	task, err := domain.NewTask(title)
	if err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	if err := s.storage.Tasks().Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to save task: %w", err)
	}

	return task, nil
}

// ListTasks retrieves all tasks, newest first.
func (s *TaskService) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	return s.storage.Tasks().FindAll(ctx)
}

// GetTask retrieves a single task by ID.
func (s *TaskService) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	return s.storage.Tasks().FindByID(ctx, id)
}

// ResolveTask finds a task by exact ID, unique ID prefix, or title. Titles
// are matched case-insensitively first and fuzzily after that.
func (s *TaskService) ResolveTask(ctx context.Context, query string) (*domain.Task, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrInvalidTaskID
	}

	task, err := s.storage.Tasks().FindByID(ctx, query)
	if err == nil {
		return task, nil
	}
	if !errors.Is(err, domain.ErrTaskNotFound) {
		return nil, err
	}

	tasks, err := s.storage.Tasks().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	if len(query) >= minIDPrefix {
		var prefixed []*domain.Task
		for _, t := range tasks {
			if strings.HasPrefix(t.ID, query) {
				prefixed = append(prefixed, t)
			}
		}
		switch len(prefixed) {
		case 0:
		case 1:
			return prefixed[0], nil
		default:
			return nil, fmt.Errorf("%w: %d tasks share ID prefix %q", ErrAmbiguousTask, len(prefixed), query)
		}
	}

	for _, t := range tasks {
		if strings.EqualFold(t.Title, query) {
			return t, nil
		}
	}

	titles := make([]string, len(tasks))
	for i, t := range tasks {
		titles[i] = t.Title
	}
	matches := fuzzy.Find(query, titles)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %q", domain.ErrTaskNotFound, query)
	}
	if len(matches) > 1 && matches[0].Score == matches[1].Score {
		return nil, fmt.Errorf("%w: %q matches %q and %q", ErrAmbiguousTask, query, matches[0].Str, matches[1].Str)
	}
	return tasks[matches[0].Index], nil
}

// History returns the audit notes of a task, oldest first.
func (s *TaskService) History(ctx context.Context, taskID string) ([]*domain.TaskNote, error) {
	return s.storage.Tasks().Notes(ctx, taskID)
}

// AppendHistory implements ports.TaskLinker.
func (s *TaskService) AppendHistory(ctx context.Context, taskID, action, detail string) error {
	if s.git != nil {
		if info, err := s.git.Detect(ctx, s.workingDir); err == nil && info != nil && info.Branch != "" {
			detail = fmt.Sprintf("%s [%s]", detail, info.Branch)
		}
	}

	note, err := domain.NewTaskNote(taskID, action, detail)
	if err != nil {
		return err
	}
	if err := s.storage.Tasks().AppendNote(ctx, note); err != nil {
		return fmt.Errorf("failed to append history to task %s: %w", taskID, err)
	}
	return nil
}

// Ensure TaskService implements the linkage and directory ports.
var (
	_ ports.TaskLinker    = (*TaskService)(nil)
	_ ports.TaskDirectory = (*TaskService)(nil)
)
