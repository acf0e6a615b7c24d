// Package tui provides the terminal user interface implementation
// using the Bubbletea framework.
package tui

import (
	"fmt"
	"reflect"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kaiz-lifeos/kaiz/internal/config"
	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
)

// resolveTheme fills any empty string fields in the given ThemeConfig with defaults.
// If theme is nil, returns the full default theme.
func resolveTheme(theme *config.ThemeConfig) config.ThemeConfig {
	defaults := config.DefaultThemeConfig()
	if theme == nil {
		return defaults
	}
	resolved := *theme
	rv := reflect.ValueOf(&resolved).Elem()
	dv := reflect.ValueOf(defaults)
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if f.Kind() == reflect.String && f.String() == "" {
			f.SetString(dv.Field(i).String())
		}
	}
	return resolved
}

// tickMsg is sent on every timer tick.
type tickMsg time.Time

// Model represents the TUI state. It never counts time itself: every tick
// re-reads the engine, which owns the countdown.
type Model struct {
	timer    ports.TimerController
	sessions ports.SessionQuerier
	theme    config.ThemeConfig

	state  domain.EngineState
	stats  domain.Stats
	width  int
	height int

	// seen is the session log length at the last refresh; growth means an
	// interval just ended.
	seen   int
	banner string

	// Daily summary on quit
	showingSummary bool
	summaryTicks   int
}

// NewModel creates a model bound to a running engine.
func NewModel(timer ports.TimerController, sessions ports.SessionQuerier, theme *config.ThemeConfig) Model {
	m := Model{
		timer:    timer,
		sessions: sessions,
		theme:    resolveTheme(theme),
	}
	m.seen = len(sessions.All())
	m.refresh()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func (m *Model) refresh() {
	m.state = m.timer.State()
	m.stats = m.sessions.RefreshStats()

	records := m.sessions.All()
	if len(records) > m.seen {
		m.banner = describeRecord(records[len(records)-1])
	}
	m.seen = len(records)
}

func describeRecord(r domain.SessionRecord) string {
	if r.Interrupted {
		return fmt.Sprintf("%s stopped", r.Mode.Label())
	}
	return fmt.Sprintf("%s complete", r.Mode.Label())
}

// modeColor returns the color for the current mode, accounting for pause state.
func (m Model) modeColor() lipgloss.Color {
	if m.state.IsPaused {
		return lipgloss.Color(m.theme.ColorPaused)
	}
	if m.state.Mode.IsBreak() || (!m.state.IsActive && m.state.NextMode.IsBreak()) {
		return lipgloss.Color(m.theme.ColorBreak)
	}
	return lipgloss.Color(m.theme.ColorFocus)
}

func (m Model) showDailySummaryOrQuit() (tea.Model, tea.Cmd) {
	if m.stats.TodaySessions > 0 {
		m.showingSummary = true
		m.summaryTicks = 3
		return m, tickCmd()
	}
	return m, tea.Quit
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Daily summary dismiss
	if m.showingSummary {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			return m, tea.Quit
		case tickMsg:
			m.summaryTicks--
			if m.summaryTicks <= 0 {
				return m, tea.Quit
			}
			return m, tickCmd()
		case tea.WindowSizeMsg:
			m.width = msg.Width
			m.height = msg.Height
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tickCmd()
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		return m.showDailySummaryOrQuit()
	case " ", "p":
		if m.state.IsPaused {
			m.timer.ResumeSession()
		} else {
			m.timer.PauseSession()
		}
	case "s":
		m.timer.SkipSession()
	case "x":
		m.timer.StopSession()
	case "n", "enter":
		if m.state.IsActive {
			return m, nil
		}
		m.banner = ""
		m.timer.StartSession(m.state.CurrentTaskID, m.state.CurrentTaskTitle, m.state.NextMode)
	case "f":
		m.banner = ""
		m.timer.StartSession(m.state.CurrentTaskID, m.state.CurrentTaskTitle, domain.ModeFocus)
	case "b":
		m.banner = ""
		m.timer.StartSession(m.state.CurrentTaskID, m.state.CurrentTaskTitle, domain.ModeShortBreak)
	case "l":
		m.banner = ""
		m.timer.StartSession(m.state.CurrentTaskID, m.state.CurrentTaskTitle, domain.ModeLongBreak)
	case "r":
		m.banner = ""
		m.timer.Reset()
	default:
		return m, nil
	}
	m.refresh()
	return m, nil
}

// View renders the model.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	if m.showingSummary {
		return m.viewFullscreenSummary()
	}

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle)).MarginBottom(1)
	sections = append(sections, titleStyle.Render("Kaiz"))

	if label := m.state.TaskLabel(); label != "" {
		taskStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorTitle))
		sections = append(sections, taskStyle.Render("Task: "+label))
	}

	if m.state.IsActive {
		sections = m.viewActiveSession(sections)
	} else {
		sections = m.viewIdle(sections)
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) viewActiveSession(sections []string) []string {
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorPaused))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	sections = append(sections, statusStyle.Render(fmt.Sprintf("%s (%s)", m.state.Mode.Label(), m.state.Status())))

	sections = append(sections, "")
	sections = append(sections, renderBigTime(formatSeconds(m.state.TimeRemainingSeconds), m.modeColor(), m.width))

	if m.state.IsPaused {
		pauseBadge := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color(m.theme.ColorPaused)).
			Padding(0, 1).
			Render("PAUSED")
		sections = append(sections, "")
		sections = append(sections, pauseBadge)
	}

	sections = append(sections, "")
	var pbar progress.Model
	if m.state.Mode.IsBreak() {
		pbar = progress.New(progress.WithGradient(m.theme.BreakGradientStart, m.theme.BreakGradientEnd))
	} else {
		pbar = progress.New(progress.WithGradient(m.theme.FocusGradientStart, m.theme.FocusGradientEnd))
	}
	pbar.Width = m.width - 4
	sections = append(sections, pbar.ViewAs(m.state.Progress()))

	sections = append(sections, helpStyle.Render(m.cadenceLine()))

	pauseAction := "[space] pause"
	if m.state.IsPaused {
		pauseAction = "[space] resume"
	}
	sections = append(sections, "")
	sections = append(sections, helpStyle.Render(pauseAction+"  [s]kip  [x] stop  [r]eset  [q]uit"))
	return sections
}

func (m Model) viewIdle(sections []string) []string {
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorPaused))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	if m.banner != "" {
		bannerStyle := lipgloss.NewStyle().Bold(true).Foreground(m.modeColor())
		sections = append(sections, bannerStyle.Render(m.banner))
	} else {
		sections = append(sections, statusStyle.Render("No active session"))
	}

	sections = append(sections, "")
	sections = append(sections, statusStyle.Render("Next: "+m.state.NextMode.Label()))
	sections = append(sections, helpStyle.Render(m.cadenceLine()))
	sections = append(sections, helpStyle.Render(fmt.Sprintf("Today: %d sessions · Week: %d", m.stats.TodaySessions, m.stats.WeekSessions)))

	sections = append(sections, "")
	sections = append(sections, helpStyle.Render("[n]ext  [f]ocus  [b]reak  [l]ong break  [r]eset  [q]uit"))
	return sections
}

func (m Model) cadenceLine() string {
	return fmt.Sprintf("%d completed · long break in %d", m.state.SessionsCompletedTotal, m.state.SessionsUntilLongBreak)
}

func (m Model) viewFullscreenSummary() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.ColorTitle)).MarginBottom(1)
	statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorFocus))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ColorHelp))

	sections = append(sections, titleStyle.Render("Today's Summary"))
	sections = append(sections, statusStyle.Render(fmt.Sprintf("%d focus sessions today, %d this week",
		m.stats.TodaySessions, m.stats.WeekSessions)))
	sections = append(sections, helpStyle.Render(fmt.Sprintf("%s focused in total", formatSeconds(domain.Seconds(m.stats.TotalFocus)))))

	sections = append(sections, "")
	sections = append(sections, helpStyle.Render("Press any key to exit"))

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

// tickCmd creates a command that sends a tick message.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// formatSeconds formats a second count as MM:SS. Minutes are not wrapped
// into hours.
func formatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
