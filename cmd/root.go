// Package cmd provides the CLI commands for the Kaiz timer.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/adapters/tui"
	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/spf13/cobra"
)

var (
	// Version info (set at build time via ldflags)
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"

	// Global flags
	dbPath     string
	jsonOutput bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kaiz",
	Short: "Kaiz - a Pomodoro focus timer with task tracking",
	Long: `Kaiz is a Pomodoro focus timer. It alternates focus sessions with short
and long breaks, keeps a log of every interval and links sessions to tasks.

Run "kaiz" with no arguments to open the timer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Annotations:   map[string]string{annotationLogFile: "true"},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[annotationSkipInit] == "true" {
			return nil
		}
		return initializeServices(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return cleanupServices()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTimerHost(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	// Post-run hooks are skipped when a command fails.
	if cerr := cleanupServices(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (default: ~/.kaiz/kaiz.db)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format")

	// cobra handles --version automatically
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("Kaiz\nVersion: {{.Version}}\nBuilt: %s (%s)\n", BuildDate, GitCommit))

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(resetCmd)
}

// runTimerHost keeps the engine alive for as long as the user watches it:
// the full-screen timer on a terminal, otherwise a plain progress log until
// the interval ends.
func runTimerHost(cmd *cobra.Command) error {
	ctx, cancel := setupSignalHandler(cmd.Context())
	defer cancel()

	model := tui.NewModel(app.engine, app.engine.Sessions(), &app.config.Theme)
	err := tui.Run(ctx, model)
	if errors.Is(err, tui.ErrNotTerminal) {
		return watchHeadless(ctx, cmd.OutOrStdout(), time.Second)
	}
	return err
}

// watchHeadless prints each finished interval until the engine has been idle
// for settle polls in a row, which lets a pending auto-start chain fire first.
func watchHeadless(ctx context.Context, out io.Writer, poll time.Duration) error {
	const settle = 3

	seen := len(app.engine.Sessions().All())
	idle := 0
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		state := app.engine.State()
		if records := app.engine.Sessions().All(); len(records) > seen {
			for _, r := range records[seen:] {
				fmt.Fprintln(out, describeRecord(r))
			}
			seen = len(records)
		}

		if state.IsActive {
			idle = 0
		} else if idle++; idle >= settle {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// describeRecord renders one log entry as a single line.
func describeRecord(r domain.SessionRecord) string {
	var b strings.Builder
	b.WriteString(r.CompletedAt.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "  %-11s  %s", r.Mode.Label(), formatSeconds(r.DurationSeconds))
	if r.Interrupted {
		b.WriteString("  (interrupted)")
	}
	if r.TaskTitle != nil && *r.TaskTitle != "" {
		b.WriteString("  " + *r.TaskTitle)
	} else if r.TaskID != nil {
		b.WriteString("  " + *r.TaskID)
	}
	return b.String()
}

// formatSeconds formats a duration in seconds like "25m" or "1h30m" or "45s".
func formatSeconds(seconds int) string {
	d := time.Duration(seconds) * time.Second
	switch {
	case d >= time.Hour:
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh%dm", h, m)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < time.Minute:
		return fmt.Sprintf("%ds", seconds)
	default:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), seconds%60)
	}
}
