// Package autoadvance implements the delayed jump to the next question
// after a correct answer: a single-shot, cancelable timer gated by the
// global and per-mode settings.
package autoadvance

import (
	"sync"
	"time"

	"github.com/deepv/driving-backend/internal/model"
	"github.com/deepv/driving-backend/internal/settings"
)

// Scheduler arms one pending advance at a time for one owning session.
type Scheduler struct {
	mu       sync.Mutex
	settings *settings.Store
	mode     model.PracticeMode
	next     func()
	timer    *time.Timer
	stopped  bool
}

// New creates a Scheduler that calls next when the delay elapses.
func New(st *settings.Store, mode model.PracticeMode, next func()) *Scheduler {
	return &Scheduler{settings: st, mode: mode, next: next}
}

// Trigger arms the advance timer. It is a no-op unless auto-advance is
// enabled for the scheduler's mode and the answer was correct. A pending
// timer is always superseded, never queued.
func (s *Scheduler) Trigger(correct bool) {
	if !correct {
		return
	}
	if !s.settings.ModeEnabled(s.mode) {
		return
	}

	delay := s.settings.Delay()
	if delay <= 0 {
		delay = 500
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(time.Duration(delay)*time.Millisecond, s.next)
}

// Cancel drops any pending advance without stopping the scheduler.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Stop cancels any pending advance and refuses further triggers. Must be
// called on the owning session's teardown so no navigation fires against a
// torn-down view.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
