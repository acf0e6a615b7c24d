// Package config provides configuration management for Kaiz.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultDataDir = "~/.kaiz"
	// DefaultServerAddr is where `kaiz serve` listens unless configured.
	DefaultServerAddr = "127.0.0.1:7420"
	// DefaultStatusTemplate renders the one-line status.
	DefaultStatusTemplate = "{{mode}} {{remaining}}{{#paused}} (paused){{/paused}}{{#task}} · {{task}}{{/task}}"
)

// Config holds all configuration for the Kaiz application. Timer durations
// are not part of it; they live in the persistent store next to the
// session log and are edited with `kaiz settings`.
type Config struct {
	Storage       StorageConfig      `mapstructure:"storage"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	MCP           MCPConfig          `mapstructure:"mcp"`
	Server        ServerConfig       `mapstructure:"server"`
	Log           LogConfig          `mapstructure:"log"`
	Status        StatusConfig       `mapstructure:"status"`
	Theme         ThemeConfig        `mapstructure:"theme"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Sound   bool `mapstructure:"sound"`
}

// MCPConfig holds MCP server settings.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr            string   `mapstructure:"addr"`
	ShutdownTimeout Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds log output settings. An empty File means
// <data_dir>/kaiz.log.
type LogConfig struct {
	File string `mapstructure:"file"`
}

// StatusConfig holds the mustache template used by `kaiz status`.
type StatusConfig struct {
	Template string `mapstructure:"template"`
}

// ThemeConfig holds the terminal UI colors.
type ThemeConfig struct {
	ColorFocus         string `mapstructure:"color_focus"`
	ColorBreak         string `mapstructure:"color_break"`
	ColorPaused        string `mapstructure:"color_paused"`
	ColorTitle         string `mapstructure:"color_title"`
	ColorHelp          string `mapstructure:"color_help"`
	FocusGradientStart string `mapstructure:"focus_gradient_start"`
	FocusGradientEnd   string `mapstructure:"focus_gradient_end"`
	BreakGradientStart string `mapstructure:"break_gradient_start"`
	BreakGradientEnd   string `mapstructure:"break_gradient_end"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorFocus:         "#E05D5D",
		ColorBreak:         "#4ECDC4",
		ColorPaused:        "#6B7280",
		ColorTitle:         "#A0AEC0",
		ColorHelp:          "#95A5A6",
		FocusGradientStart: "#E05D5D",
		FocusGradientEnd:   "#F6A04D",
		BreakGradientStart: "#4ECDC4",
		BreakGradientEnd:   "#2ECC71",
	}
}

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir: defaultDataDir,
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Sound:   true,
		},
		MCP: MCPConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Addr:            DefaultServerAddr,
			ShutdownTimeout: Duration(5 * time.Second),
		},
		Status: StatusConfig{
			Template: DefaultStatusTemplate,
		},
		Theme: DefaultThemeConfig(),
	}
}

// Load loads the configuration from ~/.kaiz/config.toml, creating the file
// with defaults on first use.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath. KAIZ_* environment
// variables override file values, e.g. KAIZ_SERVER_ADDR.
func LoadFrom(configPath string) (*Config, error) {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper(configPath)

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := v.WriteConfigAs(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dataDir, err := expandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dataDir

	return &cfg, nil
}

// Save writes cfg to configPath.
func Save(cfg *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := newViper(configPath)
	v.Set("storage.data_dir", cfg.Storage.DataDir)
	v.Set("notifications.enabled", cfg.Notifications.Enabled)
	v.Set("notifications.sound", cfg.Notifications.Sound)
	v.Set("mcp.enabled", cfg.MCP.Enabled)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("server.shutdown_timeout", cfg.Server.ShutdownTimeout.String())
	v.Set("log.file", cfg.Log.File)
	v.Set("status.template", cfg.Status.Template)

	v.Set("theme.color_focus", cfg.Theme.ColorFocus)
	v.Set("theme.color_break", cfg.Theme.ColorBreak)
	v.Set("theme.color_paused", cfg.Theme.ColorPaused)
	v.Set("theme.color_title", cfg.Theme.ColorTitle)
	v.Set("theme.color_help", cfg.Theme.ColorHelp)
	v.Set("theme.focus_gradient_start", cfg.Theme.FocusGradientStart)
	v.Set("theme.focus_gradient_end", cfg.Theme.FocusGradientEnd)
	v.Set("theme.break_gradient_start", cfg.Theme.BreakGradientStart)
	v.Set("theme.break_gradient_end", cfg.Theme.BreakGradientEnd)

	return v.WriteConfigAs(configPath)
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".kaiz", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "kaiz.db")
}

// GetLogPath returns the path of the log file used by long-running modes.
func GetLogPath(cfg *Config) string {
	if cfg.Log.File != "" {
		return cfg.Log.File
	}
	return filepath.Join(cfg.Storage.DataDir, "kaiz.log")
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	v.SetEnvPrefix("KAIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults sets default values for viper.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("notifications.enabled", d.Notifications.Enabled)
	v.SetDefault("notifications.sound", d.Notifications.Sound)
	v.SetDefault("mcp.enabled", d.MCP.Enabled)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout.String())
	v.SetDefault("log.file", "")
	v.SetDefault("status.template", d.Status.Template)

	v.SetDefault("theme.color_focus", d.Theme.ColorFocus)
	v.SetDefault("theme.color_break", d.Theme.ColorBreak)
	v.SetDefault("theme.color_paused", d.Theme.ColorPaused)
	v.SetDefault("theme.color_title", d.Theme.ColorTitle)
	v.SetDefault("theme.color_help", d.Theme.ColorHelp)
	v.SetDefault("theme.focus_gradient_start", d.Theme.FocusGradientStart)
	v.SetDefault("theme.focus_gradient_end", d.Theme.FocusGradientEnd)
	v.SetDefault("theme.break_gradient_start", d.Theme.BreakGradientStart)
	v.SetDefault("theme.break_gradient_end", d.Theme.BreakGradientEnd)
}

func expandHome(path string) (string, error) {
	if path == "" {
		path = defaultDataDir
	}
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}
