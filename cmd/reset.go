package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/kaiz-lifeos/kaiz/internal/config"
	"github.com/spf13/cobra"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all sessions, settings and tasks (wipes the database)",
	Long: `Permanently deletes the Kaiz database, removing the session log, timer
settings, tasks and their history. This cannot be undone. Use --force to skip
the confirmation prompt.`,
	Annotations: map[string]string{annotationSkipInit: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			cfg = config.DefaultConfig()
			if cfg.Storage.DataDir, err = defaultDataDir(); err != nil {
				return err
			}
		}
		app.config = cfg
		path := resolveDBPath()
		out := cmd.OutOrStdout()

		if !resetForce {
			fmt.Fprintf(out, "This will permanently delete: %s\n", path)
			fmt.Fprint(out, "Are you sure? Type 'yes' to confirm: ")
			input, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if strings.TrimSpace(strings.ToLower(input)) != "yes" {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}

		if err := os.Remove(path); err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(out, "Nothing to reset, the database does not exist.")
				return nil
			}
			return fmt.Errorf("failed to delete database: %w", err)
		}
		// SQLite side files from WAL mode.
		for _, suffix := range []string{"-wal", "-shm"} {
			_ = os.Remove(path + suffix)
		}

		fmt.Fprintln(out, "Database deleted. Fresh start.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "Skip confirmation prompt")
}
