package cmd

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/spf13/cobra"
)

var (
	statsTask string
	statsFrom string
	statsTo   string
	statsDays int
)

// statsReport is the data behind the dashboard and its JSON form.
type statsReport struct {
	TodaySessions     int                   `json:"todaySessions"`
	WeekSessions      int                   `json:"weekSessions"`
	TotalFocusSeconds int                   `json:"totalFocusSeconds"`
	Task              *domain.Task          `json:"task,omitempty"`
	From              *time.Time            `json:"from,omitempty"`
	To                *time.Time            `json:"to,omitempty"`
	Days              []dayReport           `json:"days"`
	Hours             []hourEntry           `json:"productiveHours"`
	LastSession       *domain.SessionRecord `json:"lastSession,omitempty"`
}

type dayReport struct {
	Date         string `json:"date"`
	Sessions     int    `json:"sessions"`
	FocusSeconds int    `json:"focusSeconds"`
}

// hourEntry pairs an hour of the day with its completed focus time.
type hourEntry struct {
	Hour         int `json:"hour"`
	FocusSeconds int `json:"focusSeconds"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a dashboard of focus statistics",
	Long: `Display session counts, focus time per day and your most productive hours.

--from and --to accept calendar dates or phrases like "yesterday" or
"last monday". --task limits every figure to one task.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := buildStatsReport(cmd, time.Now())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), report)
		}
		renderDashboard(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVarP(&statsTask, "task", "t", "", "Only count sessions of this task")
	statsCmd.Flags().StringVar(&statsFrom, "from", "", "Start of the range for the focus total")
	statsCmd.Flags().StringVar(&statsTo, "to", "", "End of the range for the focus total")
	statsCmd.Flags().IntVarP(&statsDays, "days", "d", 7, "Number of days in the daily chart")
}

func buildStatsReport(cmd *cobra.Command, now time.Time) (*statsReport, error) {
	rng, err := parseRangeFlags(statsFrom, statsTo, now)
	if err != nil {
		return nil, err
	}

	sessions := app.engine.Sessions()
	records := sessions.All()
	stats := sessions.RefreshStats()

	report := &statsReport{
		TodaySessions: stats.TodaySessions,
		WeekSessions:  stats.WeekSessions,
	}

	var taskID *string
	if statsTask != "" {
		task, err := app.tasks.ResolveTask(cmd.Context(), statsTask)
		if err != nil {
			return nil, fmt.Errorf("failed to find task %q: %w", statsTask, err)
		}
		report.Task = task
		taskID = &task.ID
		records = domain.SessionsByTask(records, task.ID)
		report.TodaySessions = domain.TodaySessionsCount(records, now)
		report.WeekSessions = domain.WeekSessionsCount(records, now)
	}

	report.TotalFocusSeconds = domain.Seconds(sessions.TotalFocusTime(taskID, rng))
	if rng != nil {
		report.From, report.To = &rng.Start, &rng.End
	}

	for _, day := range domain.DailyFocus(records, now, statsDays) {
		report.Days = append(report.Days, dayReport{
			Date:         day.Date.Format(domain.DateLayout),
			Sessions:     day.Sessions,
			FocusSeconds: domain.Seconds(day.Focus),
		})
	}
	report.Hours = productiveHours(records, now.AddDate(0, 0, -30), 3)

	if len(records) > 0 {
		last := records[len(records)-1]
		report.LastSession = &last
	}
	return report, nil
}

// productiveHours returns the top hours of the day by completed focus time
// since the given instant.
func productiveHours(records []domain.SessionRecord, since time.Time, top int) []hourEntry {
	byHour := make(map[int]time.Duration)
	for _, r := range records {
		if !r.IsCompletedFocus() || r.CompletedAt.Before(since) {
			continue
		}
		byHour[r.CompletedAt.Local().Hour()] += r.Duration()
	}

	entries := make([]hourEntry, 0, len(byHour))
	for h, d := range byHour {
		entries = append(entries, hourEntry{Hour: h, FocusSeconds: domain.Seconds(d)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].FocusSeconds != entries[j].FocusSeconds {
			return entries[i].FocusSeconds > entries[j].FocusSeconds
		}
		return entries[i].Hour < entries[j].Hour
	})
	if len(entries) > top {
		entries = entries[:top]
	}
	return entries
}

func renderDashboard(w io.Writer, report *statsReport) {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E05D5D"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F6A04D"))
	barColor := lipgloss.NewStyle().Foreground(lipgloss.Color("#E05D5D"))

	title := "Focus statistics"
	if report.Task != nil {
		title += " · " + report.Task.Title
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", titleStyle.Render(title))
	fmt.Fprintf(w, "  %s\n\n", dimStyle.Render(strings.Repeat("─", 40)))

	fmt.Fprintf(w, "  Today: %s sessions · Last 7 days: %s sessions\n",
		valueStyle.Render(fmt.Sprintf("%d", report.TodaySessions)),
		valueStyle.Render(fmt.Sprintf("%d", report.WeekSessions)),
	)

	focusLabel := "Total focus"
	if report.From != nil {
		focusLabel = fmt.Sprintf("Focus %s to %s", report.From.Format("Jan 2"), report.To.Format("Jan 2"))
	}
	fmt.Fprintf(w, "  %s: %s\n", focusLabel, valueStyle.Render(formatHours(float64(report.TotalFocusSeconds)/3600)))

	if report.LastSession != nil {
		fmt.Fprintf(w, "  %s\n", dimStyle.Render("Last session "+humanize.Time(report.LastSession.CompletedAt)))
	}
	fmt.Fprintln(w)

	renderDailyChart(w, report.Days, dimStyle, barColor)
	renderHourlyProductivity(w, report.Hours, dimStyle, valueStyle)
}

func renderDailyChart(w io.Writer, days []dayReport, dimStyle, barColor lipgloss.Style) {
	if len(days) == 0 {
		return
	}

	maxFocus := 0
	for _, d := range days {
		if d.FocusSeconds > maxFocus {
			maxFocus = d.FocusSeconds
		}
	}
	if maxFocus == 0 {
		fmt.Fprintf(w, "  %s\n\n", dimStyle.Render("No completed focus sessions in this period."))
		return
	}

	fmt.Fprintf(w, "  %s\n", dimStyle.Render("Focus per day"))
	const maxBarWidth = 30
	for _, d := range days {
		barWidth := int(math.Round(float64(d.FocusSeconds) / float64(maxFocus) * maxBarWidth))
		if barWidth < 1 && d.FocusSeconds > 0 {
			barWidth = 1
		}
		day, _ := time.Parse(domain.DateLayout, d.Date)
		fmt.Fprintf(w, "  %s %s %d (%s)\n",
			dimStyle.Render(day.Format("Mon Jan 02")),
			barColor.Render(buildBar(barWidth)),
			d.Sessions,
			formatHours(float64(d.FocusSeconds)/3600),
		)
	}
	fmt.Fprintln(w)
}

func renderHourlyProductivity(w io.Writer, hours []hourEntry, dimStyle, valueStyle lipgloss.Style) {
	if len(hours) == 0 {
		return
	}

	fmt.Fprintf(w, "  %s\n", dimStyle.Render("Your most productive hours (last 30 days)"))
	for _, e := range hours {
		hourLabel := fmt.Sprintf("%2d:00-%d:00", e.Hour, e.Hour+1)
		fmt.Fprintf(w, "  %s  %s\n",
			dimStyle.Render(hourLabel),
			valueStyle.Render(formatHours(float64(e.FocusSeconds)/3600)),
		)
	}
	fmt.Fprintln(w)
}

// buildBar creates a horizontal bar using block characters.
func buildBar(width int) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat("█", width)
}

// formatHours formats a float hours value as "Xh Ym".
func formatHours(h float64) string {
	if h < 0.01 {
		return "0m"
	}
	hours := int(h)
	minutes := int(math.Round((h - float64(hours)) * 60))
	if minutes == 60 {
		hours++
		minutes = 0
	}
	if hours > 0 && minutes > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", minutes)
}
