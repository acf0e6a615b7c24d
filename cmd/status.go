package cmd

import (
	"fmt"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/dustin/go-humanize"
	"github.com/kaiz-lifeos/kaiz/internal/services"
	"github.com/spf13/cobra"
)

var statusTemplate string

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the timer state and today's progress",
	Long: `Print a one-line status rendered from a mustache template.

Template variables: mode, status, remaining, paused, task, next, completed,
untilLongBreak, today, week, focus, last. The default template comes from
status.template in the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap := app.state.Snapshot()

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), snap)
		}

		tmpl := statusTemplate
		if tmpl == "" {
			tmpl = app.config.Status.Template
		}
		line, err := renderStatus(tmpl, snap)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusTemplate, "template", "", "Mustache template overriding status.template")
}

// statusData flattens a snapshot into template variables.
func statusData(snap services.Snapshot) map[string]any {
	state := snap.State
	remaining := state.TimeRemainingSeconds
	data := map[string]any{
		"mode":           state.Mode.Label(),
		"status":         string(state.Status()),
		"remaining":      fmt.Sprintf("%02d:%02d", remaining/60, remaining%60),
		"paused":         state.IsPaused,
		"task":           state.TaskLabel(),
		"next":           state.NextMode.Label(),
		"completed":      state.SessionsCompletedTotal,
		"untilLongBreak": state.SessionsUntilLongBreak,
		"today":          snap.Stats.TodaySessions,
		"week":           snap.Stats.WeekSessions,
		"focus":          formatSeconds(int(snap.Stats.TotalFocus / time.Second)),
		"last":           "",
	}
	if snap.LastSession != nil {
		data["last"] = humanize.Time(snap.LastSession.CompletedAt)
	}
	return data
}

func renderStatus(tmpl string, snap services.Snapshot) (string, error) {
	// Terminal output, so no HTML escaping.
	line, err := mustache.RenderRaw(tmpl, true, statusData(snap))
	if err != nil {
		return "", fmt.Errorf("failed to render status template: %w", err)
	}
	return line, nil
}
