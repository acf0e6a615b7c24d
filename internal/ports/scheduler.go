package ports

import "time"

// Cancel stops a scheduled callback. Calling it more than once is safe.
type Cancel func()

// Scheduler runs callbacks on a wall-clock schedule.
// This is a driven port (implemented by adapters).
type Scheduler interface {
	// Every calls fn once per interval until cancelled.
	Every(interval time.Duration, fn func()) Cancel

	// After calls fn once after delay unless cancelled first.
	After(delay time.Duration, fn func()) Cancel
}
