package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"
)

// ErrNotTerminal is returned by Run when stdout is not an interactive terminal.
var ErrNotTerminal = errors.New("stdout is not a terminal")

// Run starts the full-screen timer and blocks until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, model Model) error {
	if !term.IsTerminal(os.Stdout.Fd()) {
		return ErrNotTerminal
	}

	// Seed the size so the first frame renders before the resize event arrives.
	if w, h, err := term.GetSize(os.Stdout.Fd()); err == nil {
		model.width = w
		model.height = h
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}
