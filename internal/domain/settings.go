package domain

import (
	"fmt"
	"time"
)

// Default engine settings, in seconds where applicable.
const (
	DefaultFocusDuration      = 1500
	DefaultShortBreakDuration = 300
	DefaultLongBreakDuration  = 900
	DefaultLongBreakInterval  = 4
)

// EngineConfig holds the user-configurable timer settings.
type EngineConfig struct {
	FocusDuration      int  `json:"focusDuration"`
	ShortBreakDuration int  `json:"shortBreakDuration"`
	LongBreakDuration  int  `json:"longBreakDuration"`
	AutoStartBreaks    bool `json:"autoStartBreaks"`
	AutoStartPomodoros bool `json:"autoStartPomodoros"`
	LongBreakInterval  int  `json:"longBreakInterval"`
}

// DefaultEngineConfig returns the documented defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		FocusDuration:      DefaultFocusDuration,
		ShortBreakDuration: DefaultShortBreakDuration,
		LongBreakDuration:  DefaultLongBreakDuration,
		LongBreakInterval:  DefaultLongBreakInterval,
	}
}

// DurationFor returns the configured duration in seconds for mode.
// Idle maps to the focus duration, which is what an idle timer displays.
func (c EngineConfig) DurationFor(mode Mode) int {
	switch mode {
	case ModeShortBreak:
		return c.ShortBreakDuration
	case ModeLongBreak:
		return c.LongBreakDuration
	default:
		return c.FocusDuration
	}
}

// Validate checks that durations are positive and the interval is at least one.
func (c EngineConfig) Validate() error {
	if c.FocusDuration <= 0 {
		return fmt.Errorf("%w: focus duration must be positive", ErrInvalidSettings)
	}
	if c.ShortBreakDuration <= 0 {
		return fmt.Errorf("%w: short break duration must be positive", ErrInvalidSettings)
	}
	if c.LongBreakDuration <= 0 {
		return fmt.Errorf("%w: long break duration must be positive", ErrInvalidSettings)
	}
	if c.LongBreakInterval < 1 {
		return fmt.Errorf("%w: long break interval must be at least 1", ErrInvalidSettings)
	}
	return nil
}

// Normalize replaces invalid fields with their defaults. Used when loading
// settings written by older clients.
func (c EngineConfig) Normalize() EngineConfig {
	d := DefaultEngineConfig()
	if c.FocusDuration <= 0 {
		c.FocusDuration = d.FocusDuration
	}
	if c.ShortBreakDuration <= 0 {
		c.ShortBreakDuration = d.ShortBreakDuration
	}
	if c.LongBreakDuration <= 0 {
		c.LongBreakDuration = d.LongBreakDuration
	}
	if c.LongBreakInterval < 1 {
		c.LongBreakInterval = d.LongBreakInterval
	}
	return c
}

// SettingsPatch is a partial update of EngineConfig. Nil fields are left unchanged.
type SettingsPatch struct {
	FocusDuration      *int  `json:"focusDuration,omitempty"`
	ShortBreakDuration *int  `json:"shortBreakDuration,omitempty"`
	LongBreakDuration  *int  `json:"longBreakDuration,omitempty"`
	AutoStartBreaks    *bool `json:"autoStartBreaks,omitempty"`
	AutoStartPomodoros *bool `json:"autoStartPomodoros,omitempty"`
	LongBreakInterval  *int  `json:"longBreakInterval,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p.FocusDuration == nil && p.ShortBreakDuration == nil && p.LongBreakDuration == nil &&
		p.AutoStartBreaks == nil && p.AutoStartPomodoros == nil && p.LongBreakInterval == nil
}

// Apply returns a copy of c with the patch applied and validated.
func (c EngineConfig) Apply(p SettingsPatch) (EngineConfig, error) {
	if p.FocusDuration != nil {
		c.FocusDuration = *p.FocusDuration
	}
	if p.ShortBreakDuration != nil {
		c.ShortBreakDuration = *p.ShortBreakDuration
	}
	if p.LongBreakDuration != nil {
		c.LongBreakDuration = *p.LongBreakDuration
	}
	if p.AutoStartBreaks != nil {
		c.AutoStartBreaks = *p.AutoStartBreaks
	}
	if p.AutoStartPomodoros != nil {
		c.AutoStartPomodoros = *p.AutoStartPomodoros
	}
	if p.LongBreakInterval != nil {
		c.LongBreakInterval = *p.LongBreakInterval
	}
	if err := c.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return c, nil
}

// Seconds converts a duration to whole seconds, rounding down.
func Seconds(d time.Duration) int {
	return int(d / time.Second)
}
