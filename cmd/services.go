package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/adapters/clock"
	"github.com/kaiz-lifeos/kaiz/internal/adapters/git"
	"github.com/kaiz-lifeos/kaiz/internal/adapters/notification"
	"github.com/kaiz-lifeos/kaiz/internal/adapters/storage"
	"github.com/kaiz-lifeos/kaiz/internal/config"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
	"github.com/kaiz-lifeos/kaiz/internal/services"
	"github.com/spf13/cobra"
)

// Command annotations read by the root pre-run hook.
const (
	// annotationSkipInit marks commands that manage the database file
	// themselves and must not open it.
	annotationSkipInit = "kaiz/skip-init"
	// annotationLogFile marks long-running commands that own the terminal or
	// stdio; their logs go to the log file instead of stderr.
	annotationLogFile = "kaiz/log-file"
)

const shutdownTimeout = 5 * time.Second

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	config   *config.Config
	storage  ports.Storage
	engine   *services.Engine
	tasks    *services.TaskService
	state    *services.StateService
	notifier *notification.Notifier
	git      ports.GitDetector
	logOut   io.Writer
	logFile  *os.File
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// logger returns a component logger on the command's log output.
func (d *appDeps) logger(component string) *log.Logger {
	out := d.logOut
	if out == nil {
		out = os.Stderr
	}
	return log.New(out, "["+component+"] ", log.LstdFlags)
}

// initializeServices sets up all the required services and adapters.
func initializeServices(cmd *cobra.Command) error {
	var err error
	app.config, err = config.Load()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v; using default configuration\n", err)
		app.config = config.DefaultConfig()
		if app.config.Storage.DataDir, err = defaultDataDir(); err != nil {
			return err
		}
	}

	app.logOut = cmd.ErrOrStderr()
	if cmd.Annotations[annotationLogFile] == "true" {
		if err := openLogFile(); err != nil {
			return err
		}
	}

	path := resolveDBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	app.storage, err = storage.New(path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.notifier = notification.New(&app.config.Notifications)
	app.git = git.NewDetector()

	app.tasks = services.NewTaskService(app.storage)
	if workingDir, err := os.Getwd(); err == nil {
		app.tasks.SetGitContext(app.git, workingDir)
	}

	app.engine = services.NewEngine(app.storage.KV(), clock.New(), app.logger("engine"))
	app.engine.SetTaskLinker(app.tasks)
	app.engine.SetNotifier(app.notifier)
	app.engine.Load(cmd.Context())

	app.state = services.NewStateService(app.engine, app.engine.Sessions(), app.tasks)
	return nil
}

// resolveDBPath returns the --db flag or the configured default.
func resolveDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	return config.GetDBPath(app.config)
}

func openLogFile() error {
	path := config.GetLogPath(app.config)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	app.logFile = f
	app.logOut = f
	return nil
}

func defaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".kaiz"), nil
}

// cleanupServices drains pending writes and closes all resources.
func cleanupServices() error {
	var firstErr error
	if app.engine != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.engine.Close(ctx); err != nil {
			firstErr = fmt.Errorf("failed to flush engine: %w", err)
		}
	}
	if app.storage != nil {
		if err := app.storage.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if app.logFile != nil {
		app.logFile.Close()
	}
	app = appDeps{}
	return firstErr
}

// setupSignalHandler returns a context that is cancelled on interrupt signals.
func setupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
