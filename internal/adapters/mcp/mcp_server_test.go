package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
)

// mockTimer is a mock implementation of ports.TimerController for testing.
type mockTimer struct {
	state   domain.EngineState
	cfg     domain.EngineConfig
	calls   []string
	started struct {
		taskID, taskTitle *string
		mode              domain.Mode
	}
}

func newMockTimer() *mockTimer {
	return &mockTimer{
		state: domain.EngineState{Mode: domain.ModeIdle, TimeRemainingSeconds: 1500, PlannedSeconds: 1500, SessionsUntilLongBreak: 4, NextMode: domain.ModeFocus},
		cfg:   domain.DefaultEngineConfig(),
	}
}

func (m *mockTimer) record(name string) domain.EngineState {
	m.calls = append(m.calls, name)
	return m.state
}

func (m *mockTimer) State() domain.EngineState { return m.state }
func (m *mockTimer) Settings() domain.EngineConfig { return m.cfg }
func (m *mockTimer) PauseSession() domain.EngineState { return m.record("pause") }
func (m *mockTimer) ResumeSession() domain.EngineState { return m.record("resume") }
func (m *mockTimer) SkipSession() domain.EngineState { return m.record("skip") }
func (m *mockTimer) StopSession() domain.EngineState { return m.record("stop") }
func (m *mockTimer) Reset() domain.EngineState { return m.record("reset") }

func (m *mockTimer) StartSession(taskID, taskTitle *string, mode domain.Mode) domain.EngineState {
	m.started.taskID, m.started.taskTitle, m.started.mode = taskID, taskTitle, mode
	m.state.IsActive = true
	m.state.Mode = mode
	m.state.CurrentTaskID = taskID
	return m.record("start")
}

func (m *mockTimer) UpdateSettings(patch domain.SettingsPatch) (domain.EngineConfig, error) {
	cfg, err := m.cfg.Apply(patch)
	if err != nil {
		return m.cfg, err
	}
	m.cfg = cfg
	return cfg, nil
}

// mockSessions is a mock implementation of ports.SessionQuerier for testing.
type mockSessions struct {
	records []domain.SessionRecord
}

func (m *mockSessions) All() []domain.SessionRecord { return m.records }
func (m *mockSessions) ByTask(taskID string) []domain.SessionRecord {
	return domain.SessionsByTask(m.records, taskID)
}
func (m *mockSessions) ByDate(dateISO string) []domain.SessionRecord {
	return domain.SessionsByDate(m.records, dateISO)
}
func (m *mockSessions) TotalFocusTime(taskID *string, rng *domain.DateRange) time.Duration {
	return domain.TotalFocusTime(m.records, taskID, rng)
}
func (m *mockSessions) RefreshStats() domain.Stats {
	return domain.ComputeStats(m.records, time.Now())
}

// mockTasks is a mock implementation of ports.TaskDirectory for testing.
type mockTasks struct {
	tasks []*domain.Task
	notes map[string][]*domain.TaskNote
}

func (m *mockTasks) ListTasks(ctx context.Context) ([]*domain.Task, error) { return m.tasks, nil }

func (m *mockTasks) ResolveTask(ctx context.Context, query string) (*domain.Task, error) {
	for _, t := range m.tasks {
		if t.ID == query || strings.EqualFold(t.Title, query) {
			return t, nil
		}
	}
	return nil, domain.ErrTaskNotFound
}

func (m *mockTasks) History(ctx context.Context, taskID string) ([]*domain.TaskNote, error) {
	return m.notes[taskID], nil
}

func strPtr(s string) *string { return &s }

func newTestServer() (*Server, *mockTimer, *mockSessions, *mockTasks) {
	task := &domain.Task{ID: "task-1", Title: "Write report"}
	timer := newMockTimer()
	sessions := &mockSessions{records: []domain.SessionRecord{
		domain.NewSessionRecord(strPtr("task-1"), strPtr("Write report"), domain.ModeFocus, 1500, time.Now(), false),
		domain.NewSessionRecord(nil, nil, domain.ModeShortBreak, 300, time.Now(), false),
		domain.NewSessionRecord(strPtr("task-1"), strPtr("Write report"), domain.ModeFocus, 1500, time.Now(), true),
	}}
	tasks := &mockTasks{
		tasks: []*domain.Task{task},
		notes: map[string][]*domain.TaskNote{
			"task-1": {{ID: "n1", TaskID: "task-1", Action: domain.ActionFocusStarted, Detail: "Started 25 min focus session"}},
		},
	}
	return NewServer(timer, sessions, tasks, nil), timer, sessions, tasks
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("expected content in result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func decode(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("result is not a JSON object: %v", err)
	}
	return out
}

func TestNewServer(t *testing.T) {
	server, _, _, _ := newTestServer()
	if server.server == nil {
		t.Error("NewServer() did not create MCP server")
	}
	if server.IsRunning() {
		t.Error("IsRunning() should return false before Start()")
	}
	if err := server.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}

func TestServer_handleGetTimerState(t *testing.T) {
	server, _, _, _ := newTestServer()

	result, err := server.handleGetTimerState(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleGetTimerState() error = %v", err)
	}

	state := decode(t, result)
	if state["mode"] != "idle" || state["status"] != "idle" {
		t.Errorf("unexpected mode/status: %v / %v", state["mode"], state["status"])
	}
	if state["timeRemaining"] != float64(1500) {
		t.Errorf("timeRemaining = %v", state["timeRemaining"])
	}
	stats, ok := state["stats"].(map[string]any)
	if !ok || stats["todaySessions"] != float64(1) {
		t.Errorf("unexpected stats: %v", state["stats"])
	}
}

func TestServer_handleStartSession(t *testing.T) {
	t.Run("resolves task", func(t *testing.T) {
		server, timer, _, _ := newTestServer()
		result, err := server.handleStartSession(context.Background(), callRequest(map[string]any{
			"task": "write REPORT",
		}))
		if err != nil {
			t.Fatalf("handleStartSession() error = %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected error result: %s", resultText(t, result))
		}
		if timer.started.mode != domain.ModeFocus {
			t.Errorf("mode = %v, want focus", timer.started.mode)
		}
		if timer.started.taskID == nil || *timer.started.taskID != "task-1" {
			t.Error("expected task-1 to be linked")
		}
		if timer.started.taskTitle == nil || *timer.started.taskTitle != "Write report" {
			t.Error("expected task title to be passed")
		}
	})

	t.Run("break mode", func(t *testing.T) {
		server, timer, _, _ := newTestServer()
		if _, err := server.handleStartSession(context.Background(), callRequest(map[string]any{"mode": "longBreak"})); err != nil {
			t.Fatalf("handleStartSession() error = %v", err)
		}
		if timer.started.mode != domain.ModeLongBreak {
			t.Errorf("mode = %v, want longBreak", timer.started.mode)
		}
	})

	t.Run("invalid mode", func(t *testing.T) {
		server, timer, _, _ := newTestServer()
		result, _ := server.handleStartSession(context.Background(), callRequest(map[string]any{"mode": "nap"}))
		if !result.IsError {
			t.Error("expected error result for invalid mode")
		}
		if len(timer.calls) != 0 {
			t.Error("timer must not be touched on invalid input")
		}
	})

	t.Run("unknown task", func(t *testing.T) {
		server, _, _, _ := newTestServer()
		result, _ := server.handleStartSession(context.Background(), callRequest(map[string]any{"task": "nothing"}))
		if !result.IsError {
			t.Error("expected error result for unknown task")
		}
	})
}

func TestServer_Transitions(t *testing.T) {
	server, timer, _, _ := newTestServer()
	ctx := context.Background()

	for _, name := range []string{"pause", "resume", "skip", "stop"} {
		var fn func() domain.EngineState
		switch name {
		case "pause":
			fn = timer.PauseSession
		case "resume":
			fn = timer.ResumeSession
		case "skip":
			fn = timer.SkipSession
		case "stop":
			fn = timer.StopSession
		}
		result, err := server.transition(fn)(ctx, callRequest(nil))
		if err != nil {
			t.Fatalf("%s error = %v", name, err)
		}
		if result.IsError {
			t.Errorf("%s returned error result", name)
		}
	}

	want := []string{"pause", "resume", "skip", "stop"}
	if strings.Join(timer.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", timer.calls, want)
	}
}

func TestServer_handleGetStats(t *testing.T) {
	server, _, _, _ := newTestServer()
	ctx := context.Background()

	result, err := server.handleGetStats(ctx, callRequest(map[string]any{"task_id": "task-1"}))
	if err != nil {
		t.Fatalf("handleGetStats() error = %v", err)
	}
	stats := decode(t, result)
	if stats["totalFocusSeconds"] != float64(1500) {
		t.Errorf("totalFocusSeconds = %v, want 1500", stats["totalFocusSeconds"])
	}

	result, _ = server.handleGetStats(ctx, callRequest(map[string]any{"from": "yesterday"}))
	if !result.IsError {
		t.Error("expected error result for malformed date")
	}
}

func TestServer_handleListSessions(t *testing.T) {
	server, _, sessions, _ := newTestServer()

	result, err := server.handleListSessions(context.Background(), callRequest(map[string]any{"limit": float64(2)}))
	if err != nil {
		t.Fatalf("handleListSessions() error = %v", err)
	}
	out := decode(t, result)
	if out["total"] != float64(3) {
		t.Errorf("total = %v, want 3", out["total"])
	}
	list := out["sessions"].([]any)
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	newest := list[0].(map[string]any)
	if newest["id"] != sessions.records[2].ID {
		t.Error("expected newest session first")
	}
}

func TestServer_handleUpdateSettings(t *testing.T) {
	server, timer, _, _ := newTestServer()
	ctx := context.Background()

	result, err := server.handleUpdateSettings(ctx, callRequest(map[string]any{
		"focus_duration":    float64(3000),
		"auto_start_breaks": true,
	}))
	if err != nil {
		t.Fatalf("handleUpdateSettings() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", resultText(t, result))
	}
	if timer.cfg.FocusDuration != 3000 || !timer.cfg.AutoStartBreaks {
		t.Errorf("settings not applied: %+v", timer.cfg)
	}
	if timer.cfg.ShortBreakDuration != 300 {
		t.Error("omitted fields must keep their value")
	}

	result, _ = server.handleUpdateSettings(ctx, callRequest(map[string]any{"long_break_interval": float64(0)}))
	if !result.IsError {
		t.Error("expected error result for invalid interval")
	}

	result, _ = server.handleUpdateSettings(ctx, callRequest(map[string]any{}))
	if !result.IsError {
		t.Error("expected error result for empty patch")
	}
}

func TestServer_handleGetTaskHistory(t *testing.T) {
	server, _, _, _ := newTestServer()
	ctx := context.Background()

	result, err := server.handleGetTaskHistory(ctx, callRequest(map[string]any{"task": "task-1"}))
	if err != nil {
		t.Fatalf("handleGetTaskHistory() error = %v", err)
	}
	out := decode(t, result)
	if len(out["notes"].([]any)) != 1 {
		t.Errorf("expected 1 note, got %v", out["notes"])
	}
	if len(out["sessions"].([]any)) != 2 {
		t.Errorf("expected 2 sessions, got %v", out["sessions"])
	}
	if out["totalFocusSeconds"] != float64(1500) {
		t.Errorf("totalFocusSeconds = %v", out["totalFocusSeconds"])
	}

	result, _ = server.handleGetTaskHistory(ctx, callRequest(map[string]any{}))
	if !result.IsError {
		t.Error("expected error result for missing task")
	}
}

func TestServer_handleListTasks_NoRegistry(t *testing.T) {
	server := NewServer(newMockTimer(), &mockSessions{}, nil, nil)
	result, err := server.handleListTasks(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatalf("handleListTasks() error = %v", err)
	}
	if !result.IsError {
		t.Error("expected error result without a task registry")
	}
}
