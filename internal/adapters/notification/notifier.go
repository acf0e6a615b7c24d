// Package notification provides desktop notifications for finished intervals.
package notification

import (
	"fmt"

	"github.com/gen2brain/beeep"
	"github.com/kaiz-lifeos/kaiz/internal/config"
	"github.com/kaiz-lifeos/kaiz/internal/domain"
	"github.com/kaiz-lifeos/kaiz/internal/ports"
)

// Notifier handles desktop notifications.
type Notifier struct {
	cfg  *config.NotificationConfig
	send func(title, message string, sound bool) error
}

// New creates a new notifier with the given configuration.
func New(cfg *config.NotificationConfig) *Notifier {
	return &Notifier{cfg: cfg, send: desktop}
}

func desktop(title, message string, sound bool) error {
	if sound {
		return beeep.Alert(title, message, "")
	}
	return beeep.Notify(title, message, "")
}

// IsEnabled returns true if notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.cfg != nil && n.cfg.Enabled
}

// SessionFinished implements ports.Notifier.
func (n *Notifier) SessionFinished(mode string, durationSeconds int) error {
	if !n.IsEnabled() {
		return nil
	}
	title, message := Message(domain.Mode(mode), durationSeconds)
	return n.send(title, message, n.cfg.Sound)
}

// Message returns the notification text for a finished interval.
func Message(mode domain.Mode, durationSeconds int) (title, message string) {
	minutes := durationSeconds / 60
	if mode == domain.ModeFocus {
		return "Focus session complete",
			fmt.Sprintf("Nice work! %d min of focus logged. Time for a break.", minutes)
	}
	return mode.Label() + " over", "Break is over. Ready to focus?"
}

// Ensure Notifier implements ports.Notifier.
var _ ports.Notifier = (*Notifier)(nil)
