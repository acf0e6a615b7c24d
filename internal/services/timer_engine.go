package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
)

const (
	tickInterval = time.Second
	// autoChainDelay separates a finished interval from the auto-started next one.
	autoChainDelay = 2 * time.Second
)

// Engine is the session timer: a countdown state machine over the modes
// idle, focus, shortBreak and longBreak.
//
// One Engine is constructed at startup and shared by handle. All transitions
// run under a single mutex; scheduler callbacks re-enter through the same
// mutex, so tick, pause and stop never interleave. Transitions never return
// errors. Out-of-order calls are no-ops and side effects are handed to a
// bounded background worker that logs and swallows failures; a full queue
// drops effects instead of blocking a transition.
type Engine struct {
	mu    sync.Mutex
	cfg   domain.EngineConfig
	state domain.EngineState

	kv       ports.KeyValueStore
	sched    ports.Scheduler
	linker   ports.TaskLinker
	notifier ports.Notifier
	now      func() time.Time
	logger   *log.Logger

	sessions *SessionLog
	effects  *effectWorker

	tickCancel  ports.Cancel
	chainCancel ports.Cancel
	// generation invalidates callbacks of cancelled schedules that were
	// already waiting on the mutex.
	generation uint64
	// settingsQueued is set while a settings write waits in the queue.
	settingsQueued bool
}

// NewEngine creates an idle engine with default settings. Call Load to read
// persisted settings and history. kv may be nil for a purely in-memory engine.
func NewEngine(kv ports.KeyValueStore, sched ports.Scheduler, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	e := &Engine{
		cfg:    domain.DefaultEngineConfig(),
		kv:     kv,
		sched:  sched,
		now:    time.Now,
		logger: logger,
	}
	e.effects = newEffectWorker(logger)
	e.sessions = newSessionLog(kv, e.effects, logger, func() time.Time { return e.now() })
	e.state = e.freshState()
	return e
}

// SetTaskLinker sets the collaborator that receives task audit notes.
func (e *Engine) SetTaskLinker(linker ports.TaskLinker) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.linker = linker
}

// SetNotifier sets the desktop notifier used when an interval runs out.
func (e *Engine) SetNotifier(notifier ports.Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notifier = notifier
}

// SetClock replaces the wall clock used for record timestamps.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Load reads settings and session history from the store. Absent or
// malformed data falls back to defaults without error.
func (e *Engine) Load(ctx context.Context) {
	cfg := readSettings(ctx, e.kv, e.logger)
	e.sessions.load(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimersLocked()
	e.cfg = cfg
	e.state = e.freshState()
}

// readSettings returns the persisted settings or the defaults.
func readSettings(ctx context.Context, kv ports.KeyValueStore, logger *log.Logger) domain.EngineConfig {
	cfg := domain.DefaultEngineConfig()
	if kv == nil {
		return cfg
	}
	data, err := kv.Get(ctx, ports.KeySettings)
	if errors.Is(err, ports.ErrKeyNotFound) {
		return cfg
	}
	if err != nil {
		logger.Printf("failed to load settings: %v", err)
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		logger.Printf("ignoring malformed settings payload: %v", err)
		return domain.DefaultEngineConfig()
	}
	return cfg.Normalize()
}

// Sessions returns the session log.
func (e *Engine) Sessions() *SessionLog {
	return e.sessions
}

// State returns a snapshot of the engine state.
func (e *Engine) State() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Settings returns the current settings.
func (e *Engine) Settings() domain.EngineConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// StartSession starts a countdown in mode, replacing any running one.
// An empty or idle mode starts a focus session.
func (e *Engine) StartSession(taskID, taskTitle *string, mode domain.Mode) domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.startLocked(taskID, taskTitle, mode)
	return e.state.Clone()
}

// PauseSession freezes a running countdown.
func (e *Engine) PauseSession() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.IsActive || e.state.IsPaused {
		return e.state.Clone()
	}
	e.cancelTimersLocked()
	e.state.IsPaused = true
	return e.state.Clone()
}

// ResumeSession continues a paused countdown from the frozen remaining time.
func (e *Engine) ResumeSession() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.IsActive || !e.state.IsPaused {
		return e.state.Clone()
	}
	e.state.IsPaused = false
	e.scheduleTickLocked()
	return e.state.Clone()
}

// SkipSession ends the current interval as interrupted and immediately
// starts the next one, regardless of the auto-start settings. Completion
// counters are left untouched.
func (e *Engine) SkipSession() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.state.IsActive {
		return e.state.Clone()
	}

	mode := e.state.Mode
	taskID, taskTitle := e.state.CurrentTaskID, e.state.CurrentTaskTitle
	e.appendRecordLocked(mode, true)

	next := domain.ModeFocus
	if mode == domain.ModeFocus {
		// Skip triggers the long break one session earlier than completion.
		next = domain.ModeShortBreak
		if e.state.SessionsUntilLongBreak <= 1 {
			next = domain.ModeLongBreak
		}
	}

	e.goIdleLocked(next)
	e.startLocked(taskID, taskTitle, next)
	return e.state.Clone()
}

// StopSession ends the current interval without chaining and clears the
// task context. A task note with the elapsed minutes is written when a
// focus session with a task was active.
func (e *Engine) StopSession() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.IsActive {
		mode := e.state.Mode
		elapsed := e.state.ElapsedSeconds()
		e.appendRecordLocked(mode, true)

		if mode == domain.ModeFocus && e.state.CurrentTaskID != nil {
			detail := fmt.Sprintf("Stopped focus session after %d min (planned %s)",
				elapsed/60, describeSeconds(e.cfg.DurationFor(mode)))
			e.linkLocked(*e.state.CurrentTaskID, domain.ActionFocusStopped, detail)
		}
	}

	e.goIdleLocked(domain.ModeFocus)
	e.state.CurrentTaskID = nil
	e.state.CurrentTaskTitle = nil
	return e.state.Clone()
}

// Reset returns the engine to idle with zeroed counters.
func (e *Engine) Reset() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelTimersLocked()
	e.state = e.freshState()
	return e.state.Clone()
}

// UpdateSettings applies patch, persists the result and returns it. While
// idle the displayed countdown follows the new focus duration.
func (e *Engine) UpdateSettings(patch domain.SettingsPatch) (domain.EngineConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.cfg.Apply(patch)
	if err != nil {
		return e.cfg, err
	}
	e.cfg = cfg

	if !e.state.IsActive {
		e.state.TimeRemainingSeconds = cfg.FocusDuration
		e.state.PlannedSeconds = cfg.FocusDuration
	}
	if e.state.SessionsUntilLongBreak > cfg.LongBreakInterval {
		e.state.SessionsUntilLongBreak = cfg.LongBreakInterval
	}

	if e.kv != nil && !e.settingsQueued {
		e.settingsQueued = true
		if !e.effects.Submit("persist settings", e.persistSettings) {
			e.settingsQueued = false
		}
	}
	return cfg, nil
}

// persistSettings writes the settings current when the effect runs.
func (e *Engine) persistSettings(ctx context.Context) error {
	e.mu.Lock()
	e.settingsQueued = false
	cfg := e.cfg
	e.mu.Unlock()

	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return e.kv.Set(ctx, ports.KeySettings, data)
}

// Flush waits until all side effects queued so far have run.
func (e *Engine) Flush(ctx context.Context) error {
	return e.effects.Flush(ctx)
}

// Close cancels any schedule, drains pending side effects and writes any
// session an effect could not queue.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	e.cancelTimersLocked()
	e.mu.Unlock()
	if err := e.effects.Close(ctx); err != nil {
		return err
	}
	return e.sessions.flushPending(ctx)
}

// tick is invoked once per second while running.
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation || !e.state.IsActive || e.state.IsPaused {
		return
	}

	e.state.TimeRemainingSeconds--
	if e.state.TimeRemainingSeconds <= 0 {
		e.state.TimeRemainingSeconds = 0
		e.completeLocked()
	}
}

// chain starts the next interval after the auto-start delay.
func (e *Engine) chain(gen uint64, taskID, taskTitle *string, next domain.Mode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation || e.state.IsActive {
		return
	}
	e.startLocked(taskID, taskTitle, next)
}

// completeLocked handles a countdown that reached zero.
func (e *Engine) completeLocked() {
	mode := e.state.Mode
	planned := e.cfg.DurationFor(mode)
	taskID, taskTitle := e.state.CurrentTaskID, e.state.CurrentTaskTitle
	e.appendRecordLocked(mode, false)

	next := domain.ModeFocus
	if mode == domain.ModeFocus {
		e.state.SessionsCompletedTotal++
		e.state.SessionsUntilLongBreak--
		if taskID != nil {
			e.linkLocked(*taskID, domain.ActionFocusCompleted,
				fmt.Sprintf("Completed %s focus session", describeSeconds(planned)))
		}

		next = domain.ModeShortBreak
		if e.state.SessionsUntilLongBreak <= 0 {
			next = domain.ModeLongBreak
			e.state.SessionsUntilLongBreak = e.cfg.LongBreakInterval
		}
	}

	if e.notifier != nil {
		notifier := e.notifier
		e.effects.Submit("notify", func(context.Context) error {
			return notifier.SessionFinished(string(mode), planned)
		})
	}

	e.goIdleLocked(next)

	auto := e.cfg.AutoStartPomodoros
	if next.IsBreak() {
		auto = e.cfg.AutoStartBreaks
	}
	if auto {
		gen := e.generation
		e.chainCancel = e.sched.After(autoChainDelay, func() {
			e.chain(gen, taskID, taskTitle, next)
		})
	}
}

func (e *Engine) startLocked(taskID, taskTitle *string, mode domain.Mode) {
	if mode == "" || mode == domain.ModeIdle {
		mode = domain.ModeFocus
	}
	e.cancelTimersLocked()

	duration := e.cfg.DurationFor(mode)
	e.state.IsActive = true
	e.state.IsPaused = false
	e.state.Mode = mode
	e.state.TimeRemainingSeconds = duration
	e.state.PlannedSeconds = duration
	e.state.CurrentTaskID = copyString(taskID)
	e.state.CurrentTaskTitle = copyString(taskTitle)
	e.state.NextMode = e.predictNextLocked(mode)

	if mode == domain.ModeFocus && taskID != nil {
		e.linkLocked(*taskID, domain.ActionFocusStarted,
			fmt.Sprintf("Started %s focus session", describeSeconds(duration)))
	}

	e.scheduleTickLocked()
}

// goIdleLocked stops all schedules and shows the focus duration again.
func (e *Engine) goIdleLocked(next domain.Mode) {
	e.cancelTimersLocked()
	e.state.IsActive = false
	e.state.IsPaused = false
	e.state.Mode = domain.ModeIdle
	e.state.TimeRemainingSeconds = e.cfg.FocusDuration
	e.state.PlannedSeconds = e.cfg.FocusDuration
	e.state.NextMode = next
}

// predictNextLocked returns the mode natural completion of mode leads to.
func (e *Engine) predictNextLocked(mode domain.Mode) domain.Mode {
	if mode != domain.ModeFocus {
		return domain.ModeFocus
	}
	if e.state.SessionsUntilLongBreak-1 <= 0 {
		return domain.ModeLongBreak
	}
	return domain.ModeShortBreak
}

// appendRecordLocked records the current interval with its planned duration.
func (e *Engine) appendRecordLocked(mode domain.Mode, interrupted bool) {
	record := domain.NewSessionRecord(
		e.state.CurrentTaskID,
		e.state.CurrentTaskTitle,
		mode,
		e.cfg.DurationFor(mode),
		e.now(),
		interrupted,
	)
	e.sessions.Append(record)
}

func (e *Engine) linkLocked(taskID, action, detail string) {
	if e.linker == nil {
		return
	}
	linker := e.linker
	e.effects.Submit("task note "+action, func(ctx context.Context) error {
		return linker.AppendHistory(ctx, taskID, action, detail)
	})
}

func (e *Engine) scheduleTickLocked() {
	e.cancelTimersLocked()
	gen := e.generation
	e.tickCancel = e.sched.Every(tickInterval, func() {
		e.tick(gen)
	})
}

func (e *Engine) cancelTimersLocked() {
	if e.tickCancel != nil {
		e.tickCancel()
		e.tickCancel = nil
	}
	if e.chainCancel != nil {
		e.chainCancel()
		e.chainCancel = nil
	}
	e.generation++
}

func (e *Engine) freshState() domain.EngineState {
	return domain.EngineState{
		Mode:                   domain.ModeIdle,
		TimeRemainingSeconds:   e.cfg.FocusDuration,
		PlannedSeconds:         e.cfg.FocusDuration,
		SessionsUntilLongBreak: e.cfg.LongBreakInterval,
		NextMode:               domain.ModeFocus,
	}
}

// describeSeconds formats a planned duration for task notes.
func describeSeconds(seconds int) string {
	switch {
	case seconds%60 == 0:
		return fmt.Sprintf("%d min", seconds/60)
	case seconds < 60:
		return fmt.Sprintf("%d sec", seconds)
	default:
		return fmt.Sprintf("%d min %d sec", seconds/60, seconds%60)
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Ensure Engine implements ports.TimerController.
var _ ports.TimerController = (*Engine)(nil)
