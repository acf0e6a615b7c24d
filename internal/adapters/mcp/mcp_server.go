// Package mcp provides the MCP (Model Context Protocol) server implementation.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the timer engine as MCP tools over stdio.
type Server struct {
	server   *server.MCPServer
	timer    ports.TimerController
	sessions ports.SessionQuerier
	tasks    ports.TaskDirectory
	logger   *log.Logger
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewServer creates a new MCP server instance. tasks may be nil, in which
// case task arguments are taken as raw IDs.
func NewServer(timer ports.TimerController, sessions ports.SessionQuerier, tasks ports.TaskDirectory, logger *log.Logger) *Server {
	s := &Server{
		timer:    timer,
		sessions: sessions,
		tasks:    tasks,
		logger:   logger,
		now:      time.Now,
	}

	s.server = server.NewMCPServer(
		"kaiz-timer",
		"1.0.0",
		server.WithLogging(),
	)

	s.registerTools()

	return s
}

// registerTools registers all available MCP tools.
func (s *Server) registerTools() {
	s.server.AddTool(
		mcp.NewTool(
			"get_timer_state",
			mcp.WithDescription("Get the focus timer state: mode, remaining seconds, task, counters and today's stats"),
		),
		s.handleGetTimerState,
	)

	startTool := mcp.NewTool(
		"start_session",
		mcp.WithDescription("Start a focus session or a break, replacing any running one"),
		mcp.WithString(
			"mode",
			mcp.Description("Session mode (default: focus)"),
			mcp.Enum("focus", "shortBreak", "longBreak"),
		),
		mcp.WithString(
			"task",
			mcp.Description("Optional task ID, ID prefix or title to link the session to"),
		),
	)
	s.server.AddTool(startTool, s.handleStartSession)

	s.server.AddTool(
		mcp.NewTool("pause_session", mcp.WithDescription("Pause the running session")),
		s.transition(s.timer.PauseSession),
	)
	s.server.AddTool(
		mcp.NewTool("resume_session", mcp.WithDescription("Resume a paused session")),
		s.transition(s.timer.ResumeSession),
	)
	s.server.AddTool(
		mcp.NewTool("skip_session", mcp.WithDescription("End the current session early and start the next one")),
		s.transition(s.timer.SkipSession),
	)
	s.server.AddTool(
		mcp.NewTool("stop_session", mcp.WithDescription("Stop the current session without starting another")),
		s.transition(s.timer.StopSession),
	)

	statsTool := mcp.NewTool(
		"get_stats",
		mcp.WithDescription("Get focus statistics, optionally for one task and a date range"),
		mcp.WithString("task_id", mcp.Description("Only count sessions linked to this task")),
		mcp.WithString("from", mcp.Description("Start date, YYYY-MM-DD (inclusive)")),
		mcp.WithString("to", mcp.Description("End date, YYYY-MM-DD (inclusive)")),
	)
	s.server.AddTool(statsTool, s.handleGetStats)

	sessionsTool := mcp.NewTool(
		"list_sessions",
		mcp.WithDescription("List recorded sessions, newest first"),
		mcp.WithString("task_id", mcp.Description("Only sessions linked to this task")),
		mcp.WithString("date", mcp.Description("Only sessions whose UTC timestamp starts with this ISO date")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of sessions (default: 20)"), mcp.Min(1)),
	)
	s.server.AddTool(sessionsTool, s.handleListSessions)

	settingsTool := mcp.NewTool(
		"update_settings",
		mcp.WithDescription("Change timer settings; omitted fields keep their value"),
		mcp.WithNumber("focus_duration", mcp.Description("Focus length in seconds"), mcp.Min(1)),
		mcp.WithNumber("short_break_duration", mcp.Description("Short break length in seconds"), mcp.Min(1)),
		mcp.WithNumber("long_break_duration", mcp.Description("Long break length in seconds"), mcp.Min(1)),
		mcp.WithNumber("long_break_interval", mcp.Description("Focus sessions per long break"), mcp.Min(1)),
		mcp.WithBoolean("auto_start_breaks", mcp.Description("Start breaks automatically")),
		mcp.WithBoolean("auto_start_pomodoros", mcp.Description("Start focus sessions automatically after breaks")),
	)
	s.server.AddTool(settingsTool, s.handleUpdateSettings)

	s.server.AddTool(
		mcp.NewTool("list_tasks", mcp.WithDescription("List tasks that sessions can be linked to")),
		s.handleListTasks,
	)

	historyTool := mcp.NewTool(
		"get_task_history",
		mcp.WithDescription("Get the timer notes and sessions of a task"),
		mcp.WithString("task", mcp.Required(), mcp.Description("Task ID, ID prefix or title")),
	)
	s.server.AddTool(historyTool, s.handleGetTaskHistory)
}

// Start serves MCP requests on stdin/stdout until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	stdio := server.NewStdioServer(s.server)
	if s.logger != nil {
		stdio.SetErrorLogger(s.logger)
	}
	return stdio.Listen(s.ctx, os.Stdin, os.Stdout)
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsRunning returns true if the server is active.
func (s *Server) IsRunning() bool {
	if s.ctx == nil {
		return false
	}
	return s.ctx.Err() == nil
}

// Ensure Server implements ports.MCPHandler.
var _ ports.MCPHandler = (*Server)(nil)

type stateView struct {
	domain.EngineState
	Status   domain.Status `json:"status"`
	Progress float64       `json:"progress"`
	Stats    domain.Stats  `json:"stats"`
}

func (s *Server) view(state domain.EngineState) stateView {
	return stateView{
		EngineState: state,
		Status:      state.Status(),
		Progress:    state.Progress(),
		Stats:       s.sessions.RefreshStats(),
	}
}

func (s *Server) handleGetTimerState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.view(s.timer.State()))
}

// transition adapts an argument-less timer transition to a tool handler.
func (s *Server) transition(fn func() domain.EngineState) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(s.view(fn()))
	}
}

func (s *Server) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := domain.ValidateMode(request.GetString("mode", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var taskID, taskTitle *string
	if query := request.GetString("task", ""); query != "" {
		if s.tasks == nil {
			taskID = &query
		} else {
			task, err := s.tasks.ResolveTask(ctx, query)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("task %q: %v", query, err)), nil
			}
			taskID, taskTitle = &task.ID, &task.Title
		}
	}

	return jsonResult(s.view(s.timer.StartSession(taskID, taskTitle, mode)))
}

func (s *Server) handleGetStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var taskID *string
	if id := request.GetString("task_id", ""); id != "" {
		taskID = &id
	}

	rng, err := domain.ParseDateRange(request.GetString("from", ""), request.GetString("to", ""), s.now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	stats := s.sessions.RefreshStats()
	total := s.sessions.TotalFocusTime(taskID, rng)
	result := map[string]any{
		"todaySessions":     stats.TodaySessions,
		"weekSessions":      stats.WeekSessions,
		"totalFocusSeconds": int(total / time.Second),
		"totalFocus":        total.String(),
	}
	if taskID != nil {
		result["taskId"] = *taskID
	}
	if rng != nil {
		result["from"] = rng.Start.Format(time.RFC3339)
		result["to"] = rng.End.Format(time.RFC3339)
	}
	return jsonResult(result)
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var records []domain.SessionRecord
	if taskID := request.GetString("task_id", ""); taskID != "" {
		records = s.sessions.ByTask(taskID)
	} else {
		records = s.sessions.All()
	}
	if date := request.GetString("date", ""); date != "" {
		records = domain.SessionsByDate(records, date)
	}

	limit := request.GetInt("limit", 20)
	if limit < 1 {
		limit = 20
	}

	newest := make([]domain.SessionRecord, 0, min(limit, len(records)))
	for i := len(records) - 1; i >= 0 && len(newest) < limit; i-- {
		newest = append(newest, records[i])
	}
	return jsonResult(map[string]any{
		"total":    len(records),
		"sessions": newest,
	})
}

func (s *Server) handleUpdateSettings(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	var patch domain.SettingsPatch

	intArg := func(key string) *int {
		if _, ok := args[key]; !ok {
			return nil
		}
		v := request.GetInt(key, 0)
		return &v
	}
	boolArg := func(key string) *bool {
		if _, ok := args[key]; !ok {
			return nil
		}
		v := request.GetBool(key, false)
		return &v
	}

	patch.FocusDuration = intArg("focus_duration")
	patch.ShortBreakDuration = intArg("short_break_duration")
	patch.LongBreakDuration = intArg("long_break_duration")
	patch.LongBreakInterval = intArg("long_break_interval")
	patch.AutoStartBreaks = boolArg("auto_start_breaks")
	patch.AutoStartPomodoros = boolArg("auto_start_pomodoros")

	if patch.IsEmpty() {
		return mcp.NewToolResultError("no settings given"), nil
	}

	cfg, err := s.timer.UpdateSettings(patch)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(cfg)
}

func (s *Server) handleListTasks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.tasks == nil {
		return mcp.NewToolResultError("task registry is not available"), nil
	}
	tasks, err := s.tasks.ListTasks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	return jsonResult(tasks)
}

func (s *Server) handleGetTaskHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("task")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.tasks == nil {
		return mcp.NewToolResultError("task registry is not available"), nil
	}

	task, err := s.tasks.ResolveTask(ctx, query)
	if errors.Is(err, domain.ErrTaskNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("task %q not found", query)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	notes, err := s.tasks.History(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load task history: %w", err)
	}

	id := task.ID
	return jsonResult(map[string]any{
		"task":              task,
		"notes":             notes,
		"sessions":          s.sessions.ByTask(id),
		"totalFocusSeconds": int(s.sessions.TotalFocusTime(&id, nil) / time.Second),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
