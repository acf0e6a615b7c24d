package services

import (
	"sync"
	"time"

	"github.com/kaiz-lifeos/kaiz/internal/ports"
)

// manualScheduler is a virtual-time scheduler driven by Advance.
type manualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*manualTask
}

type manualTask struct {
	next      time.Duration
	interval  time.Duration
	fn        func()
	cancelled bool
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{}
}

func (s *manualScheduler) Every(interval time.Duration, fn func()) ports.Cancel {
	return s.add(&manualTask{interval: interval, fn: fn}, interval)
}

func (s *manualScheduler) After(delay time.Duration, fn func()) ports.Cancel {
	return s.add(&manualTask{fn: fn}, delay)
}

func (s *manualScheduler) add(task *manualTask, delay time.Duration) ports.Cancel {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.next = s.now + delay
	s.tasks = append(s.tasks, task)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		task.cancelled = true
	}
}

// Advance moves virtual time forward, firing due callbacks in order.
// Callbacks run without the scheduler lock held.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		var due *manualTask
		for _, t := range s.tasks {
			if t.cancelled || t.next > target {
				continue
			}
			if due == nil || t.next < due.next {
				due = t
			}
		}
		if due == nil {
			s.now = target
			s.mu.Unlock()
			return
		}
		s.now = due.next
		if due.interval > 0 {
			due.next += due.interval
		} else {
			due.cancelled = true
		}
		fn := due.fn
		s.mu.Unlock()

		fn()
	}
}

// Tick advances by n seconds.
func (s *manualScheduler) Tick(n int) {
	s.Advance(time.Duration(n) * time.Second)
}

// Active returns the number of live schedules.
func (s *manualScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}
