// Package domain contains the core entities of the Kaiz focus timer: session
// modes, the write-once session record, the engine settings and state, the
// minimal task registry used for audit notes, and the statistics calculator.
package domain

import (
	"errors"
	"strings"
	"time"
)

// Common domain errors.
var (
	ErrInvalidTaskID   = errors.New("invalid task ID")
	ErrEmptyTaskTitle  = errors.New("task title cannot be empty")
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidMode     = errors.New("invalid mode")
	ErrInvalidSettings = errors.New("invalid settings")
)

// Task actions recorded in a task's history.
const (
	ActionFocusStarted   = "focus_started"
	ActionFocusCompleted = "focus_completed"
	ActionFocusStopped   = "focus_stopped"
)

// Task is an entry of the external task registry the timer links to.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TaskNote is one audit entry appended to a task's history.
type TaskNote struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewTask creates a new task with the given title.
func NewTask(title string) (*Task, error) {
	title = strings.TrimSpace(title)
	if err := validateTaskTitle(title); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Task{
		ID:        NewID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewTaskNote creates a history note for taskID.
func NewTaskNote(taskID, action, detail string) (*TaskNote, error) {
	if taskID == "" {
		return nil, ErrInvalidTaskID
	}
	return &TaskNote{
		ID:        NewID(),
		TaskID:    taskID,
		Action:    action,
		Detail:    detail,
		CreatedAt: time.Now(),
	}, nil
}

// validateTaskTitle ensures the title is not empty.
func validateTaskTitle(title string) error {
	if title == "" {
		return ErrEmptyTaskTitle
	}
	return nil
}
