package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/spf13/cobra"
)

var (
	sessionsTask  string
	sessionsDate  string
	sessionsLimit int
	sessionsCopy  bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions, newest first",
	Long: `List the session log. Every finished focus session and break is recorded,
including the ones that were skipped or stopped early.

--date matches the UTC calendar day the session ended on and accepts
phrases like "today" or "yesterday".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := filterSessions(cmd, time.Now())
		if err != nil {
			return err
		}

		if jsonOutput {
			if records == nil {
				records = []domain.SessionRecord{}
			}
			return printJSON(cmd.OutOrStdout(), records)
		}

		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
			return nil
		}

		var b strings.Builder
		for _, r := range records {
			b.WriteString(describeRecord(r))
			b.WriteByte('\n')
		}
		return emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), b.String(), sessionsCopy)
	},
}

func init() {
	sessionsCmd.Flags().StringVarP(&sessionsTask, "task", "t", "", "Only sessions of this task (id, prefix or title)")
	sessionsCmd.Flags().StringVar(&sessionsDate, "date", "", "Only sessions that ended on this day")
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Maximum number of sessions to show (0 for all)")
	sessionsCmd.Flags().BoolVar(&sessionsCopy, "copy", false, "Copy the list to the clipboard instead of printing it")
}

// filterSessions applies the command's flags to the log and returns the
// matches newest first.
func filterSessions(cmd *cobra.Command, now time.Time) ([]domain.SessionRecord, error) {
	records := app.engine.Sessions().All()

	if sessionsTask != "" {
		task, err := app.tasks.ResolveTask(cmd.Context(), sessionsTask)
		if err != nil {
			return nil, fmt.Errorf("failed to find task %q: %w", sessionsTask, err)
		}
		records = domain.SessionsByTask(records, task.ID)
	}

	if sessionsDate != "" {
		day, err := parseDateFlag(sessionsDate, now.UTC())
		if err != nil {
			return nil, err
		}
		records = domain.SessionsByDate(records, day)
	}

	// The log is in append order; walk it backwards.
	result := make([]domain.SessionRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		result = append(result, records[i])
		if sessionsLimit > 0 && len(result) == sessionsLimit {
			break
		}
	}
	return result, nil
}
