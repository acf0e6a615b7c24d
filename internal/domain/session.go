package domain

import (
	"encoding/json"
	"time"
)

// SessionRecord is the write-once record of one finished timer run.
// A record is appended on natural completion, skip or manual stop and is
// never mutated afterwards.
type SessionRecord struct {
	ID string `json:"id"`
	// TaskID is a weak reference; the task may be deleted independently.
	TaskID *string `json:"taskId"`
	// TaskTitle is a snapshot taken when the session ran.
	TaskTitle       *string   `json:"taskTitle"`
	Mode            Mode      `json:"mode"`
	DurationSeconds int       `json:"duration"`
	CompletedAt     time.Time `json:"completedAt"`
	Interrupted     bool      `json:"interrupted"`
}

// NewSessionRecord creates a record for an interval of the given mode.
// DurationSeconds is the planned duration of the interval, not the time
// actually elapsed.
func NewSessionRecord(taskID, taskTitle *string, mode Mode, durationSeconds int, completedAt time.Time, interrupted bool) SessionRecord {
	return SessionRecord{
		ID:              NewID(),
		TaskID:          copyString(taskID),
		TaskTitle:       copyString(taskTitle),
		Mode:            mode,
		DurationSeconds: durationSeconds,
		CompletedAt:     completedAt.UTC().Truncate(time.Millisecond),
		Interrupted:     interrupted,
	}
}

// Duration returns the planned duration as a time.Duration.
func (r SessionRecord) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// IsCompletedFocus reports whether the record is a focus interval that ran
// to zero.
func (r SessionRecord) IsCompletedFocus() bool {
	return r.Mode == ModeFocus && !r.Interrupted
}

// HasTask reports whether the record references taskID.
func (r SessionRecord) HasTask(taskID string) bool {
	return r.TaskID != nil && *r.TaskID == taskID
}

// CompletedAtISO returns the stored ISO-8601 representation of CompletedAt.
func (r SessionRecord) CompletedAtISO() string {
	return r.CompletedAt.UTC().Format(isoLayout)
}

// MarshalJSON writes completedAt as a millisecond UTC timestamp.
func (r SessionRecord) MarshalJSON() ([]byte, error) {
	type plain SessionRecord
	return json.Marshal(struct {
		plain
		CompletedAt string `json:"completedAt"`
	}{plain(r), r.CompletedAtISO()})
}

// isoLayout mirrors the millisecond UTC timestamps the mobile client writes.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
