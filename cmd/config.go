package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/kaiz-lifeos/kaiz/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and edit application configuration",
	Long: `Show where Kaiz keeps its files and how notifications, the MCP server and
the HTTP API are configured. Timer durations are edited with "kaiz settings".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"configFile":    path,
				"database":      resolveDBPath(),
				"logFile":       config.GetLogPath(app.config),
				"notifications": app.config.Notifications,
				"mcp":           app.config.MCP,
				"serverAddr":    app.config.Server.Addr,
				"statusFormat":  app.config.Status.Template,
			})
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out)
		fmt.Fprintln(out, "  Current configuration:")
		fmt.Fprintln(out)
		fmt.Fprintf(out, "    Config file:     %s\n", path)
		fmt.Fprintf(out, "    Database:        %s\n", resolveDBPath())
		fmt.Fprintf(out, "    Log file:        %s\n", config.GetLogPath(app.config))
		fmt.Fprintf(out, "    Notifications:   %s\n", notificationLabel(app.config.Notifications))
		fmt.Fprintf(out, "    MCP server:      %s\n", onOff(app.config.MCP.Enabled))
		fmt.Fprintf(out, "    HTTP address:    %s\n", app.config.Server.Addr)
		fmt.Fprintf(out, "    Status template: %s\n", app.config.Status.Template)
		fmt.Fprintln(out)
		return nil
	},
}

var configNotificationsCmd = &cobra.Command{
	Use:   "notifications [off|on|sound]",
	Short: "Choose how finished sessions are announced",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		choice := ""
		if len(args) == 1 {
			choice = args[0]
		} else {
			choice = promptNotifications(cmd.InOrStdin(), cmd.OutOrStdout(), app.config.Notifications)
		}

		cfg := app.config
		switch strings.ToLower(strings.TrimSpace(choice)) {
		case "1", "off":
			cfg.Notifications.Enabled = false
			cfg.Notifications.Sound = false
		case "2", "on":
			cfg.Notifications.Enabled = true
			cfg.Notifications.Sound = false
		case "3", "sound":
			cfg.Notifications.Enabled = true
			cfg.Notifications.Sound = true
		case "":
			fmt.Fprintln(cmd.OutOrStdout(), "  No changes made.")
			return nil
		default:
			return fmt.Errorf("invalid choice %q: use off, on or sound", choice)
		}

		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		if err := config.Save(cfg, path); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "  Saved: notifications %s\n", notificationLabel(cfg.Notifications))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configNotificationsCmd)
}

func promptNotifications(in io.Reader, out io.Writer, current config.NotificationConfig) string {
	fmt.Fprintf(out, "\n  Current notifications: %s\n\n", notificationLabel(current))
	fmt.Fprintln(out, "    [1] Off")
	fmt.Fprintln(out, "    [2] On (visual only)")
	fmt.Fprintln(out, "    [3] On (with sound)")
	fmt.Fprint(out, "  Choose: ")

	choice, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(choice)
}

func notificationLabel(n config.NotificationConfig) string {
	switch {
	case !n.Enabled:
		return "off"
	case n.Sound:
		return "on (with sound)"
	default:
		return "on"
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
