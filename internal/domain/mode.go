package domain

import "fmt"

// Mode identifies the kind of interval the timer is counting down.
type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeFocus      Mode = "focus"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
)

// SessionModes lists the modes a session can be started in.
var SessionModes = []Mode{
	ModeFocus,
	ModeShortBreak,
	ModeLongBreak,
}

// ValidateMode checks that s names a startable session mode.
// The empty string is accepted and means focus.
func ValidateMode(s string) (Mode, error) {
	if s == "" {
		return ModeFocus, nil
	}
	m := Mode(s)
	for _, valid := range SessionModes {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of focus, shortBreak, longBreak", ErrInvalidMode, s)
}

// Label returns a human-readable label.
func (m Mode) Label() string {
	switch m {
	case ModeIdle:
		return "Idle"
	case ModeFocus:
		return "Focus"
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	default:
		return "Unknown"
	}
}

// IsBreak reports whether m is one of the break modes.
func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}
