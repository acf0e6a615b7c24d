package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestDefaultEngineConfig(t *testing.T) {
	cfg := DefaultEngineConfig()

	if cfg.FocusDuration != 1500 {
		t.Errorf("FocusDuration = %d, want 1500", cfg.FocusDuration)
	}
	if cfg.ShortBreakDuration != 300 {
		t.Errorf("ShortBreakDuration = %d, want 300", cfg.ShortBreakDuration)
	}
	if cfg.LongBreakDuration != 900 {
		t.Errorf("LongBreakDuration = %d, want 900", cfg.LongBreakDuration)
	}
	if cfg.AutoStartBreaks || cfg.AutoStartPomodoros {
		t.Error("auto-start flags should default to false")
	}
	if cfg.LongBreakInterval != 4 {
		t.Errorf("LongBreakInterval = %d, want 4", cfg.LongBreakInterval)
	}
}

func TestEngineConfig_DurationFor(t *testing.T) {
	cfg := EngineConfig{FocusDuration: 10, ShortBreakDuration: 2, LongBreakDuration: 5, LongBreakInterval: 4}

	tests := []struct {
		mode Mode
		want int
	}{
		{ModeFocus, 10},
		{ModeShortBreak, 2},
		{ModeLongBreak, 5},
		{ModeIdle, 10},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if got := cfg.DurationFor(tt.mode); got != tt.want {
				t.Errorf("DurationFor(%s) = %d, want %d", tt.mode, got, tt.want)
			}
		})
	}
}

func TestEngineConfig_Apply(t *testing.T) {
	cfg := DefaultEngineConfig()

	t.Run("partial patch", func(t *testing.T) {
		focus := 600
		auto := true
		got, err := cfg.Apply(SettingsPatch{FocusDuration: &focus, AutoStartBreaks: &auto})
		if err != nil {
			t.Fatalf("Apply() error = %v", err)
		}
		if got.FocusDuration != 600 || !got.AutoStartBreaks {
			t.Errorf("Apply() = %+v", got)
		}
		if got.ShortBreakDuration != cfg.ShortBreakDuration {
			t.Error("Apply() changed an unset field")
		}
	})

	t.Run("rejects zero interval", func(t *testing.T) {
		zero := 0
		_, err := cfg.Apply(SettingsPatch{LongBreakInterval: &zero})
		if err == nil {
			t.Fatal("Apply() expected error for zero interval")
		}
	})

	t.Run("rejects negative duration", func(t *testing.T) {
		neg := -5
		_, err := cfg.Apply(SettingsPatch{ShortBreakDuration: &neg})
		if err == nil {
			t.Fatal("Apply() expected error for negative duration")
		}
	})
}

func TestEngineConfig_Normalize(t *testing.T) {
	got := EngineConfig{FocusDuration: 60}.Normalize()
	if got.FocusDuration != 60 {
		t.Errorf("FocusDuration = %d, want 60", got.FocusDuration)
	}
	if got.ShortBreakDuration != DefaultShortBreakDuration || got.LongBreakInterval != DefaultLongBreakInterval {
		t.Errorf("Normalize() did not fill defaults: %+v", got)
	}
}

func TestValidateMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeFocus, false},
		{"focus", ModeFocus, false},
		{"shortBreak", ModeShortBreak, false},
		{"longBreak", ModeLongBreak, false},
		{"idle", "", true},
		{"nap", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ValidateMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ValidateMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewSessionRecord(t *testing.T) {
	taskID := strPtr("task-1")
	title := strPtr("Write report")
	at := time.Date(2026, 10, 19, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	rec := NewSessionRecord(taskID, title, ModeFocus, 1500, at, false)

	if rec.ID == "" {
		t.Error("ID is empty")
	}
	if rec.CompletedAt.Location() != time.UTC {
		t.Errorf("CompletedAt location = %v, want UTC", rec.CompletedAt.Location())
	}
	if got := rec.CompletedAtISO(); got != "2026-10-19T07:30:00.000Z" {
		t.Errorf("CompletedAtISO() = %q", got)
	}

	// the record keeps its own copy of the task snapshot
	*title = "Renamed"
	if *rec.TaskTitle != "Write report" {
		t.Errorf("TaskTitle followed a later edit: %q", *rec.TaskTitle)
	}
}

func TestSessionRecord_JSONFieldNames(t *testing.T) {
	rec := NewSessionRecord(nil, nil, ModeShortBreak, 300, time.Now(), true)
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"id", "taskId", "taskTitle", "mode", "duration", "completedAt", "interrupted"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("missing JSON field %q in %s", key, data)
		}
	}
	if fields["mode"] != "shortBreak" {
		t.Errorf("mode = %v, want shortBreak", fields["mode"])
	}
}

func TestSessionRecord_CompletedAtMilliseconds(t *testing.T) {
	at := time.Date(2026, 10, 19, 9, 30, 15, 123456789, time.FixedZone("CEST", 2*3600))
	rec := NewSessionRecord(nil, nil, ModeFocus, 1500, at, false)

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got, want := fields["completedAt"], "2026-10-19T07:30:15.123Z"; got != want {
		t.Errorf("completedAt = %v, want %v", got, want)
	}

	var decoded SessionRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !decoded.CompletedAt.Equal(rec.CompletedAt) {
		t.Errorf("CompletedAt = %v, want %v", decoded.CompletedAt, rec.CompletedAt)
	}
	if decoded.CompletedAtISO() != "2026-10-19T07:30:15.123Z" {
		t.Errorf("CompletedAtISO() = %q", decoded.CompletedAtISO())
	}
}
