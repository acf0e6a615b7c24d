package httpapi

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
)

// Handler serves the timer engine and the session log over HTTP.
type Handler struct {
	timer    ports.TimerController
	sessions ports.SessionQuerier
	now      func() time.Time
}

type startRequest struct {
	TaskID    *string `json:"taskId"`
	TaskTitle *string `json:"taskTitle"`
	Mode      string  `json:"mode"`
}

// timerView is the engine state plus the derived fields clients render.
type timerView struct {
	domain.EngineState
	Status   domain.Status `json:"status"`
	Progress float64       `json:"progress"`
}

type statsResponse struct {
	TodaySessions     int     `json:"todaySessions"`
	WeekSessions      int     `json:"weekSessions"`
	TotalFocusSeconds int     `json:"totalFocusSeconds"`
	TaskID            *string `json:"taskId,omitempty"`
	From              string  `json:"from,omitempty"`
	To                string  `json:"to,omitempty"`
}

// NewHandler creates a handler over a live engine.
func NewHandler(timer ports.TimerController, sessions ports.SessionQuerier) *Handler {
	return &Handler{timer: timer, sessions: sessions, now: time.Now}
}

func view(state domain.EngineState) timerView {
	return timerView{EngineState: state, Status: state.Status(), Progress: state.Progress()}
}

// GetState returns the current engine state.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": view(h.timer.State())})
}

// Start begins an interval of the requested mode, focus by default.
func (h *Handler) Start(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, badRequest("invalid_json", "invalid request body"))
		return
	}

	mode, err := domain.ValidateMode(req.Mode)
	if err != nil {
		writeError(c, badRequest("invalid_mode", err.Error()))
		return
	}

	state := h.timer.StartSession(req.TaskID, req.TaskTitle, mode)
	c.JSON(http.StatusOK, gin.H{"state": view(state)})
}

// transition wraps a no-argument engine call. Out-of-order calls are no-ops
// in the engine, so these never fail.
func (h *Handler) transition(fn func() domain.EngineState) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"state": view(fn())})
	}
}

// GetSettings returns the timer settings.
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": h.timer.Settings()})
}

// UpdateSettings applies a partial settings patch.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var patch domain.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, badRequest("invalid_json", "invalid request body"))
		return
	}
	if patch.IsEmpty() {
		writeError(c, badRequest("empty_patch", "no settings to update"))
		return
	}

	cfg, err := h.timer.UpdateSettings(patch)
	if err != nil {
		writeError(c, badRequest("invalid_settings", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": cfg})
}

// ListSessions returns the session log newest first, optionally filtered by
// task and by UTC date.
func (h *Handler) ListSessions(c *gin.Context) {
	records := h.sessions.All()

	if taskID := c.Query("taskId"); taskID != "" {
		records = domain.SessionsByTask(records, taskID)
	}
	if date := c.Query("date"); date != "" {
		if _, err := time.Parse(domain.DateLayout, date); err != nil {
			writeError(c, badRequest("invalid_date", "date must be YYYY-MM-DD"))
			return
		}
		records = domain.SessionsByDate(records, date)
	}

	// The log is append-only, so reverse order is newest first.
	newest := make([]domain.SessionRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		newest = append(newest, records[i])
	}

	c.JSON(http.StatusOK, gin.H{"sessions": newest, "count": len(newest)})
}

// GetStats returns session counts and focus time. taskId narrows every
// figure to one task; from and to bound the focus total.
func (h *Handler) GetStats(c *gin.Context) {
	now := h.now()
	rng, err := domain.ParseDateRange(c.Query("from"), c.Query("to"), now)
	if err != nil {
		writeError(c, badRequest("invalid_range", err.Error()))
		return
	}

	stats := h.sessions.RefreshStats()
	resp := statsResponse{
		TodaySessions: stats.TodaySessions,
		WeekSessions:  stats.WeekSessions,
	}

	var taskID *string
	if id := c.Query("taskId"); id != "" {
		taskID = &id
		records := domain.SessionsByTask(h.sessions.All(), id)
		resp.TodaySessions = domain.TodaySessionsCount(records, now)
		resp.WeekSessions = domain.WeekSessionsCount(records, now)
		resp.TaskID = taskID
	}
	resp.TotalFocusSeconds = domain.Seconds(h.sessions.TotalFocusTime(taskID, rng))
	if rng != nil {
		resp.From = rng.Start.Format(time.RFC3339)
		resp.To = rng.End.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, gin.H{"stats": resp})
}

// GetLastSession returns the most recent record of the log.
func (h *Handler) GetLastSession(c *gin.Context) {
	records := h.sessions.All()
	if len(records) == 0 {
		writeError(c, notFound("no_sessions", "no sessions recorded yet"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": records[len(records)-1]})
}
