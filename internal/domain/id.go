package domain

import "github.com/google/uuid"

// NewID returns a random identifier for records, tasks and notes.
func NewID() string {
	return uuid.NewString()
}
