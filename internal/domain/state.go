package domain

// Status is the effective state of the engine derived from its flags.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
)

// EngineState is a snapshot of the in-progress session.
type EngineState struct {
	IsActive               bool    `json:"isActive"`
	IsPaused               bool    `json:"isPaused"`
	Mode                   Mode    `json:"mode"`
	TimeRemainingSeconds   int     `json:"timeRemaining"`
	PlannedSeconds         int     `json:"plannedDuration"`
	CurrentTaskID          *string `json:"currentTaskId"`
	CurrentTaskTitle       *string `json:"currentTaskTitle"`
	SessionsCompletedTotal int     `json:"sessionsCompleted"`
	SessionsUntilLongBreak int     `json:"sessionsUntilLongBreak"`
	// NextMode is the mode the engine would chain into after the current
	// interval. Informational only; the engine never forces it on callers.
	NextMode Mode `json:"nextMode"`
}

// Status returns Idle, Running or Paused.
func (s EngineState) Status() Status {
	switch {
	case !s.IsActive:
		return StatusIdle
	case s.IsPaused:
		return StatusPaused
	default:
		return StatusRunning
	}
}

// Progress returns the completed fraction of the running interval (0.0 to 1.0).
func (s EngineState) Progress() float64 {
	if !s.IsActive || s.PlannedSeconds <= 0 {
		return 0
	}
	p := float64(s.PlannedSeconds-s.TimeRemainingSeconds) / float64(s.PlannedSeconds)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ElapsedSeconds returns how much of the planned interval has been counted down.
func (s EngineState) ElapsedSeconds() int {
	if !s.IsActive {
		return 0
	}
	e := s.PlannedSeconds - s.TimeRemainingSeconds
	if e < 0 {
		return 0
	}
	return e
}

// TaskLabel returns the task title, falling back to the id.
func (s EngineState) TaskLabel() string {
	if s.CurrentTaskTitle != nil && *s.CurrentTaskTitle != "" {
		return *s.CurrentTaskTitle
	}
	if s.CurrentTaskID != nil {
		return *s.CurrentTaskID
	}
	return ""
}

// Clone returns a copy that shares no pointers with s.
func (s EngineState) Clone() EngineState {
	s.CurrentTaskID = copyString(s.CurrentTaskID)
	s.CurrentTaskTitle = copyString(s.CurrentTaskTitle)
	return s
}
