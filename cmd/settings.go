package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/spf13/cobra"
)

var (
	settingsFocus         time.Duration
	settingsShortBreak    time.Duration
	settingsLongBreak     time.Duration
	settingsInterval      int
	settingsAutoBreaks    bool
	settingsAutoPomodoros bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the timer durations and auto-start behavior",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printSettings(cmd.OutOrStdout(), app.engine.Settings())
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change timer settings",
	Long: `Change one or more timer settings. Only the flags you pass are updated.

  kaiz settings set --focus 50m --short-break 10m
  kaiz settings set --interval 3 --auto-breaks=true`,
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := settingsPatchFromFlags(cmd)
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to change; pass at least one flag (see --help)")
		}

		cfg, err := app.engine.UpdateSettings(patch)
		if err != nil {
			return err
		}
		if !jsonOutput {
			fmt.Fprintln(cmd.OutOrStdout(), "Settings updated.")
		}
		return printSettings(cmd.OutOrStdout(), cfg)
	},
}

func init() {
	f := settingsSetCmd.Flags()
	f.DurationVar(&settingsFocus, "focus", 0, "Focus duration, e.g. 25m")
	f.DurationVar(&settingsShortBreak, "short-break", 0, "Short break duration, e.g. 5m")
	f.DurationVar(&settingsLongBreak, "long-break", 0, "Long break duration, e.g. 15m")
	f.IntVar(&settingsInterval, "interval", 0, "Focus sessions before a long break")
	f.BoolVar(&settingsAutoBreaks, "auto-breaks", false, "Start breaks automatically after focus")
	f.BoolVar(&settingsAutoPomodoros, "auto-pomodoros", false, "Start focus automatically after breaks")

	settingsCmd.AddCommand(settingsSetCmd)
}

// settingsPatchFromFlags builds a patch from the flags the user actually set.
func settingsPatchFromFlags(cmd *cobra.Command) domain.SettingsPatch {
	var patch domain.SettingsPatch
	changed := cmd.Flags().Changed

	seconds := func(d time.Duration) *int {
		s := domain.Seconds(d)
		return &s
	}
	if changed("focus") {
		patch.FocusDuration = seconds(settingsFocus)
	}
	if changed("short-break") {
		patch.ShortBreakDuration = seconds(settingsShortBreak)
	}
	if changed("long-break") {
		patch.LongBreakDuration = seconds(settingsLongBreak)
	}
	if changed("interval") {
		n := settingsInterval
		patch.LongBreakInterval = &n
	}
	if changed("auto-breaks") {
		b := settingsAutoBreaks
		patch.AutoStartBreaks = &b
	}
	if changed("auto-pomodoros") {
		b := settingsAutoPomodoros
		patch.AutoStartPomodoros = &b
	}
	return patch
}

func printSettings(w io.Writer, cfg domain.EngineConfig) error {
	if jsonOutput {
		return printJSON(w, cfg)
	}
	fmt.Fprintf(w, "  Focus:                %s\n", formatSeconds(cfg.FocusDuration))
	fmt.Fprintf(w, "  Short break:          %s\n", formatSeconds(cfg.ShortBreakDuration))
	fmt.Fprintf(w, "  Long break:           %s\n", formatSeconds(cfg.LongBreakDuration))
	fmt.Fprintf(w, "  Long break every:     %d sessions\n", cfg.LongBreakInterval)
	fmt.Fprintf(w, "  Auto-start breaks:    %s\n", onOff(cfg.AutoStartBreaks))
	fmt.Fprintf(w, "  Auto-start focus:     %s\n", onOff(cfg.AutoStartPomodoros))
	return nil
}
