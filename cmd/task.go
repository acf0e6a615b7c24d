package cmd

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/spf13/cobra"
)

// taskCmd groups the task directory commands.
var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage the tasks sessions are linked to",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := app.tasks.AddTask(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("failed to add task: %w", err)
		}

		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), task)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task added: %s (ID: %s)\n", task.Title, shortID(task.ID))
		return nil
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks with their focus time",
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := app.tasks.ListTasks(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		sessions := app.engine.Sessions()
		if jsonOutput {
			type taskEntry struct {
				*domain.Task
				FocusSeconds int `json:"focusSeconds"`
			}
			entries := make([]taskEntry, 0, len(tasks))
			for _, t := range tasks {
				id := t.ID
				entries = append(entries, taskEntry{Task: t, FocusSeconds: domain.Seconds(sessions.TotalFocusTime(&id, nil))})
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"tasks": entries,
				"count": len(entries),
			})
		}

		out := cmd.OutOrStdout()
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
			return nil
		}

		fmt.Fprintf(out, "Tasks (%d):\n\n", len(tasks))
		for _, t := range tasks {
			id := t.ID
			focus := sessions.TotalFocusTime(&id, nil)
			fmt.Fprintf(out, "  %s  %-40s %s\n", shortID(t.ID), t.Title, formatSeconds(domain.Seconds(focus)))
		}
		return nil
	},
}

var taskHistoryCmd = &cobra.Command{
	Use:   "history [task]",
	Short: "Show the timer activity recorded against a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := app.state.TaskReport(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), report)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (ID: %s)\n", report.Task.Title, shortID(report.Task.ID))
		fmt.Fprintf(out, "Created %s · %d sessions · %s focused\n\n",
			humanize.Time(report.Task.CreatedAt), len(report.Sessions),
			formatSeconds(domain.Seconds(report.TotalFocus)))

		if len(report.Notes) == 0 {
			fmt.Fprintln(out, "No history yet.")
			return nil
		}
		for _, n := range report.Notes {
			fmt.Fprintf(out, "  %s  %-16s %s\n", n.CreatedAt.Local().Format("2006-01-02 15:04"), n.Action, n.Detail)
		}
		return nil
	},
}

func init() {
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskHistoryCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
