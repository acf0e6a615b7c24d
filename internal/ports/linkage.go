package ports

import "context"

// TaskLinker receives audit notes about timer activity on a task.
// This is a driven port (implemented by the task service).
type TaskLinker interface {
	// AppendHistory appends a note with an action label and a free-text
	// detail to the history of taskID.
	AppendHistory(ctx context.Context, taskID, action, detail string) error
}

// Notifier alerts the user when an interval runs out.
// This is a driven port (implemented by adapters).
type Notifier interface {
	// SessionFinished is called after an interval counts down to zero.
	SessionFinished(mode string, durationSeconds int) error
}
