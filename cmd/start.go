package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/spf13/cobra"
)

var (
	startTask string
	startMode string
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start [task title]",
	Short: "Start a focus session or a break",
	Long: `Start a new interval and keep the timer open until it ends.

The optional task is matched against existing tasks by id, id prefix, title
or fuzzy title. A title that matches nothing creates a new task. Use --task
to require an existing task.`,
	Annotations: map[string]string{annotationLogFile: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := domain.ValidateMode(startMode)
		if err != nil {
			return err
		}

		task, err := resolveStartTask(cmd.Context(), startTask, strings.Join(args, " "))
		if err != nil {
			return err
		}

		var taskID, taskTitle *string
		if task != nil {
			taskID, taskTitle = &task.ID, &task.Title
		}
		state := app.engine.StartSession(taskID, taskTitle, mode)

		label := state.Mode.Label()
		if task != nil {
			label += " on \"" + task.Title + "\""
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Started %s (%s)\n", label, formatSeconds(state.PlannedSeconds))

		return runTimerHost(cmd)
	},
}

func init() {
	startCmd.Flags().StringVarP(&startTask, "task", "t", "", "Existing task id, id prefix or title")
	startCmd.Flags().StringVarP(&startMode, "mode", "m", "focus", "Interval to start: focus, shortBreak or longBreak")
}

// resolveStartTask picks the task a session is linked to. query comes from
// --task and must match; title comes from the arguments and is created when
// nothing matches. Both empty means no task.
func resolveStartTask(ctx context.Context, query, title string) (*domain.Task, error) {
	if query != "" {
		task, err := app.tasks.ResolveTask(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to find task %q: %w", query, err)
		}
		return task, nil
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	task, err := app.tasks.ResolveTask(ctx, title)
	if errors.Is(err, domain.ErrTaskNotFound) {
		return app.tasks.AddTask(ctx, title)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task %q: %w", title, err)
	}
	return task, nil
}
