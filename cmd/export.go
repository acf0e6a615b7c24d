package cmd

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportPeriod string
	exportCopy   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export session history",
	Long:  "Export your session history in markdown or CSV format.",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		since, err := exportSince(exportPeriod, now)
		if err != nil {
			return err
		}

		var records []domain.SessionRecord
		for _, r := range app.engine.Sessions().All() {
			if !r.CompletedAt.Before(since) {
				records = append(records, r)
			}
		}

		var text string
		switch exportFormat {
		case "csv":
			text, err = exportCSV(records)
		case "md", "markdown":
			text = exportMarkdown(records, now)
		default:
			return fmt.Errorf("unknown format %q: use md or csv", exportFormat)
		}
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), text, exportCopy)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "md", "Output format: md or csv")
	exportCmd.Flags().StringVar(&exportPeriod, "period", "week", "Time period: week, month, or all")
	exportCmd.Flags().BoolVar(&exportCopy, "copy", false, "Copy the export to the clipboard instead of printing it")
}

func exportSince(period string, now time.Time) (time.Time, error) {
	switch period {
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return now.AddDate(0, -1, 0), nil
	case "all":
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unknown period %q: use week, month or all", period)
	}
}

// exportMarkdown groups records by local day and lists each interval.
func exportMarkdown(records []domain.SessionRecord, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Kaiz Session Export\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02 15:04"))

	if len(records) == 0 {
		b.WriteString("No sessions in this period.\n")
		return b.String()
	}

	currentDay := ""
	var dayFocus time.Duration
	flushDay := func() {
		if currentDay != "" {
			fmt.Fprintf(&b, "\nFocus: %s\n\n", formatSeconds(domain.Seconds(dayFocus)))
		}
	}

	for _, r := range records {
		day := r.CompletedAt.Local().Format(domain.DateLayout)
		if day != currentDay {
			flushDay()
			currentDay = day
			dayFocus = 0
			fmt.Fprintf(&b, "## %s\n\n", day)
		}
		if r.IsCompletedFocus() {
			dayFocus += r.Duration()
		}

		fmt.Fprintf(&b, "- %s %s, %s", r.CompletedAt.Local().Format("15:04"), r.Mode.Label(), formatSeconds(r.DurationSeconds))
		if r.Interrupted {
			b.WriteString(" (interrupted)")
		}
		if r.TaskTitle != nil && *r.TaskTitle != "" {
			fmt.Fprintf(&b, ": %s", *r.TaskTitle)
		}
		b.WriteByte('\n')
	}
	flushDay()
	return b.String()
}

func exportCSV(records []domain.SessionRecord) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	rows := [][]string{{"id", "completed_at", "mode", "duration_sec", "interrupted", "task_id", "task_title"}}
	for _, r := range records {
		rows = append(rows, []string{
			r.ID,
			r.CompletedAtISO(),
			string(r.Mode),
			strconv.Itoa(r.DurationSeconds),
			strconv.FormatBool(r.Interrupted),
			deref(r.TaskID),
			deref(r.TaskTitle),
		})
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	return b.String(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
