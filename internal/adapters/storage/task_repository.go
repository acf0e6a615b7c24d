package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
)

// taskRepository implements ports.TaskRepository using SQLite.
type taskRepository struct {
	db *sql.DB
}

// newTaskRepository creates a new task repository.
func newTaskRepository(db *sql.DB) ports.TaskRepository {
	return &taskRepository{db: db}
}

// Save persists a task to storage.
func (r *taskRepository) Save(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("task %s already exists: %w", task.ID, err)
	}
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	return nil
}

// FindByID retrieves a task by its unique identifier.
func (r *taskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM tasks
		WHERE id = ?
	`

	var task domain.Task
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&task.ID,
		&task.Title,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return &task, nil
}

// FindAll retrieves all tasks, newest first.
func (r *taskRepository) FindAll(ctx context.Context) ([]*domain.Task, error) {
	query := `
		SELECT id, title, created_at, updated_at
		FROM tasks
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(&task.ID, &task.Title, &task.CreatedAt, &task.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// AppendNote adds an entry to a task's history and touches the task.
func (r *taskRepository) AppendNote(ctx context.Context, note *domain.TaskNote) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO task_notes (id, task_id, action, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query, note.ID, note.TaskID, note.Action, note.Detail, note.CreatedAt)
	if isForeignKeyError(err) {
		return domain.ErrTaskNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to append note: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET updated_at = ? WHERE id = ?`, note.CreatedAt, note.TaskID); err != nil {
		return fmt.Errorf("failed to touch task: %w", err)
	}

	return tx.Commit()
}

// Notes returns a task's history, oldest first.
func (r *taskRepository) Notes(ctx context.Context, taskID string) ([]*domain.TaskNote, error) {
	query := `
		SELECT id, task_id, action, detail, created_at
		FROM task_notes
		WHERE task_id = ?
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query task notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var notes []*domain.TaskNote
	for rows.Next() {
		var note domain.TaskNote
		var detail sql.NullString
		if err := rows.Scan(&note.ID, &note.TaskID, &note.Action, &detail, &note.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task note: %w", err)
		}
		note.Detail = detail.String
		notes = append(notes, &note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task notes: %w", err)
	}

	return notes, nil
}
