// Package clock provides the wall-clock scheduler driving the timer engine.
package clock

import (
	"sync"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/ports"
)

// Scheduler implements ports.Scheduler on top of time.Ticker and time.AfterFunc.
type Scheduler struct{}

// New creates a wall-clock scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Every calls fn once per interval on a dedicated goroutine until cancelled.
func (s *Scheduler) Every(interval time.Duration, fn func()) ports.Cancel {
	ticker := time.NewTicker(interval)
	stop := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-stop:
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(stop) })
	}
}

// After calls fn once after delay unless cancelled first.
func (s *Scheduler) After(delay time.Duration, fn func()) ports.Cancel {
	t := time.AfterFunc(delay, fn)
	return func() { t.Stop() }
}

// Ensure Scheduler implements ports.Scheduler.
var _ ports.Scheduler = (*Scheduler)(nil)
