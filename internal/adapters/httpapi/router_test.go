package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kaiz-lifeos/kaiz/internal/adapters/httpapi"
	"github.com/kaiz-lifeos/kaiz/internal/adapters/storage"
	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
	"github.com/kaiz-lifeos/kaiz/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepScheduler only fires when the test says so.
type stepScheduler struct {
	mu   sync.Mutex
	tick func()
}

func (s *stepScheduler) Every(_ time.Duration, fn func()) ports.Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick = fn
	return func() {}
}

func (s *stepScheduler) After(time.Duration, func()) ports.Cancel {
	return func() {}
}

func (s *stepScheduler) Step(n int) {
	s.mu.Lock()
	fn := s.tick
	s.mu.Unlock()
	for i := 0; i < n && fn != nil; i++ {
		fn()
	}
}

type stateEnvelope struct {
	State struct {
		IsActive      bool    `json:"isActive"`
		IsPaused      bool    `json:"isPaused"`
		Mode          string  `json:"mode"`
		TimeRemaining int     `json:"timeRemaining"`
		CurrentTaskID *string `json:"currentTaskId"`
		Status        string  `json:"status"`
		NextMode      string  `json:"nextMode"`
	} `json:"state"`
}

type apiErrorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type fixture struct {
	router http.Handler
	sched  *stepScheduler
	engine *services.Engine
}

func setupTestRouter(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sched := &stepScheduler{}
	logger := log.New(io.Discard, "", 0)
	engine := services.NewEngine(store.KV(), sched, logger)
	engine.Load(context.Background())
	t.Cleanup(func() { engine.Close(context.Background()) })

	handler := httpapi.NewHandler(engine, engine.Sessions())
	return &fixture{
		router: httpapi.NewRouter(handler, logger),
		sched:  sched,
		engine: engine,
	}
}

func (f *fixture) request(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec.Code, rec.Body.Bytes()
}

func (f *fixture) state(t *testing.T, method, path string, body any) stateEnvelope {
	t.Helper()
	status, raw := f.request(t, method, path, body)
	require.Equal(t, http.StatusOK, status, string(raw))
	var env stateEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func decodeError(t *testing.T, raw []byte) apiErrorEnvelope {
	t.Helper()
	var env apiErrorEnvelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestHealth(t *testing.T) {
	f := setupTestRouter(t)
	status, raw := f.request(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))
}

func TestTimerTransitions(t *testing.T) {
	f := setupTestRouter(t)

	env := f.state(t, http.MethodGet, "/api/timer/state", nil)
	assert.False(t, env.State.IsActive)
	assert.Equal(t, "idle", env.State.Status)
	assert.Equal(t, 1500, env.State.TimeRemaining)

	taskID := "abcd-0001"
	env = f.state(t, http.MethodPost, "/api/timer/start", map[string]any{
		"taskId":    taskID,
		"taskTitle": "Write report",
		"mode":      "focus",
	})
	assert.True(t, env.State.IsActive)
	assert.Equal(t, "focus", env.State.Mode)
	require.NotNil(t, env.State.CurrentTaskID)
	assert.Equal(t, taskID, *env.State.CurrentTaskID)

	f.sched.Step(10)

	env = f.state(t, http.MethodPost, "/api/timer/pause", nil)
	assert.Equal(t, "paused", env.State.Status)
	assert.Equal(t, 1490, env.State.TimeRemaining)

	f.sched.Step(10)
	env = f.state(t, http.MethodGet, "/api/timer/state", nil)
	assert.Equal(t, 1490, env.State.TimeRemaining, "paused timer must not count down")

	env = f.state(t, http.MethodPost, "/api/timer/resume", nil)
	assert.Equal(t, "running", env.State.Status)

	env = f.state(t, http.MethodPost, "/api/timer/skip", nil)
	assert.True(t, env.State.IsActive, "skip starts the next interval")
	assert.Equal(t, "shortBreak", env.State.Mode)
	require.NotNil(t, env.State.CurrentTaskID)

	env = f.state(t, http.MethodPost, "/api/timer/stop", nil)
	assert.False(t, env.State.IsActive)
	assert.Nil(t, env.State.CurrentTaskID)
	assert.Equal(t, "focus", env.State.NextMode)

	// no-ops still answer 200 with the state
	env = f.state(t, http.MethodPost, "/api/timer/pause", nil)
	assert.Equal(t, "idle", env.State.Status)

	env = f.state(t, http.MethodPost, "/api/timer/reset", nil)
	assert.Equal(t, "idle", env.State.Status)
}

func TestStart(t *testing.T) {
	t.Run("empty body starts focus", func(t *testing.T) {
		f := setupTestRouter(t)
		env := f.state(t, http.MethodPost, "/api/timer/start", nil)
		assert.Equal(t, "focus", env.State.Mode)
	})

	t.Run("break mode", func(t *testing.T) {
		f := setupTestRouter(t)
		env := f.state(t, http.MethodPost, "/api/timer/start", map[string]string{"mode": "longBreak"})
		assert.Equal(t, "longBreak", env.State.Mode)
		assert.Equal(t, 900, env.State.TimeRemaining)
	})

	t.Run("invalid mode", func(t *testing.T) {
		f := setupTestRouter(t)
		status, raw := f.request(t, http.MethodPost, "/api/timer/start", map[string]string{"mode": "nap"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "invalid_mode", decodeError(t, raw).Error.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		f := setupTestRouter(t)
		req := httptest.NewRequest(http.MethodPost, "/api/timer/start", bytes.NewBufferString("{"))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_json", decodeError(t, rec.Body.Bytes()).Error.Code)
	})
}

func TestSettings(t *testing.T) {
	f := setupTestRouter(t)

	status, raw := f.request(t, http.MethodGet, "/api/timer/settings", nil)
	require.Equal(t, http.StatusOK, status)
	var env struct {
		Settings domain.EngineConfig `json:"settings"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, domain.DefaultEngineConfig(), env.Settings)

	status, raw = f.request(t, http.MethodPut, "/api/timer/settings", map[string]any{
		"focusDuration":   600,
		"autoStartBreaks": true,
	})
	require.Equal(t, http.StatusOK, status, string(raw))
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, 600, env.Settings.FocusDuration)
	assert.True(t, env.Settings.AutoStartBreaks)
	assert.Equal(t, 600, f.engine.Settings().FocusDuration)

	status, raw = f.request(t, http.MethodPut, "/api/timer/settings", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "empty_patch", decodeError(t, raw).Error.Code)

	status, raw = f.request(t, http.MethodPut, "/api/timer/settings", map[string]any{"longBreakInterval": 0})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_settings", decodeError(t, raw).Error.Code)
	assert.Equal(t, 4, f.engine.Settings().LongBreakInterval, "rejected patch must not apply")
}

func TestSessionsAndStats(t *testing.T) {
	f := setupTestRouter(t)

	status, raw := f.request(t, http.MethodGet, "/api/sessions/last", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "no_sessions", decodeError(t, raw).Error.Code)

	f.request(t, http.MethodPut, "/api/timer/settings", map[string]int{"focusDuration": 3})

	// One completed focus on a task, one interrupted focus without.
	f.state(t, http.MethodPost, "/api/timer/start", map[string]string{"taskId": "abcd-0001"})
	f.sched.Step(3)
	f.state(t, http.MethodPost, "/api/timer/reset", nil)
	f.state(t, http.MethodPost, "/api/timer/start", nil)
	f.state(t, http.MethodPost, "/api/timer/stop", nil)

	var sessions struct {
		Sessions []domain.SessionRecord `json:"sessions"`
		Count    int                    `json:"count"`
	}
	status, raw = f.request(t, http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &sessions))
	require.Equal(t, 2, sessions.Count)
	assert.True(t, sessions.Sessions[0].Interrupted, "newest first")

	status, raw = f.request(t, http.MethodGet, "/api/sessions?taskId=abcd-0001", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &sessions))
	assert.Equal(t, 1, sessions.Count)

	today := time.Now().UTC().Format(domain.DateLayout)
	status, raw = f.request(t, http.MethodGet, "/api/sessions?date="+today, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &sessions))
	assert.Equal(t, 2, sessions.Count)

	status, raw = f.request(t, http.MethodGet, "/api/sessions?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_date", decodeError(t, raw).Error.Code)

	status, _ = f.request(t, http.MethodGet, "/api/sessions/last", nil)
	assert.Equal(t, http.StatusOK, status)

	var stats struct {
		Stats struct {
			TodaySessions     int `json:"todaySessions"`
			WeekSessions      int `json:"weekSessions"`
			TotalFocusSeconds int `json:"totalFocusSeconds"`
		} `json:"stats"`
	}
	status, raw = f.request(t, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &stats))
	assert.Equal(t, 1, stats.Stats.TodaySessions)
	assert.Equal(t, 1, stats.Stats.WeekSessions)
	assert.Equal(t, 3, stats.Stats.TotalFocusSeconds)

	status, raw = f.request(t, http.MethodGet, "/api/stats?taskId=other", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &stats))
	assert.Equal(t, 0, stats.Stats.TodaySessions, "counts follow the task filter")
	assert.Equal(t, 0, stats.Stats.WeekSessions)
	assert.Equal(t, 0, stats.Stats.TotalFocusSeconds)

	status, raw = f.request(t, http.MethodGet, "/api/stats?taskId=abcd-0001", nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(raw, &stats))
	assert.Equal(t, 1, stats.Stats.TodaySessions)
	assert.Equal(t, 1, stats.Stats.WeekSessions)
	assert.Equal(t, 3, stats.Stats.TotalFocusSeconds)

	status, raw = f.request(t, http.MethodGet, "/api/stats?from=2026-10-05&to=2026-10-01", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_range", decodeError(t, raw).Error.Code)
}

func TestServer_ShutsDownOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := log.New(io.Discard, "", 0)
	srv := httpapi.NewServer("127.0.0.1:0", http.NotFoundHandler(), time.Second, logger)
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
