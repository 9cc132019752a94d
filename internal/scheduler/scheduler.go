package scheduler

import (
	"sync"
	"time"
)

// Scheduler runs delayed and repeating tasks on a Clock.
type Scheduler struct {
	clock Clock
}

// New creates a Scheduler. A nil clock means RealClock.
func New(clock Clock) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Scheduler{clock: clock}
}

// Clock returns the clock the scheduler runs on.
func (s *Scheduler) Clock() Clock {
	return s.clock
}

// Handle controls a scheduled task.
type Handle struct {
	mu       sync.Mutex
	timer    Timer
	disposed bool
	done     bool // one-shot task already ran
}

// Dispose cancels the task. It is safe to call more than once and from inside
// the task itself. A tick that is already due but has not started yet will not
// run fn.
func (h *Handle) Dispose() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.disposed {
		return
	}
	h.disposed = true
	if h.timer != nil {
		h.timer.Stop()
	}
}

// Active reports whether the task may still run.
func (h *Handle) Active() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.disposed && !h.done
}

// After runs fn once after d.
func (s *Scheduler) After(d time.Duration, fn func()) *Handle {
	h := &Handle{}
	h.mu.Lock()
	h.timer = s.clock.AfterFunc(d, func() {
		h.mu.Lock()
		if h.disposed || h.done {
			h.mu.Unlock()
			return
		}
		h.done = true
		h.mu.Unlock()
		fn()
	})
	h.mu.Unlock()
	return h
}

// Every runs fn every interval until the handle is disposed. The next tick is
// scheduled only after fn returns, so ticks never overlap.
func (s *Scheduler) Every(interval time.Duration, fn func()) *Handle {
	h := &Handle{}
	var tick func()
	tick = func() {
		h.mu.Lock()
		if h.disposed {
			h.mu.Unlock()
			return
		}
		h.mu.Unlock()

		fn()

		h.mu.Lock()
		defer h.mu.Unlock()
		if h.disposed {
			return
		}
		h.timer = s.clock.AfterFunc(interval, tick)
	}

	h.mu.Lock()
	h.timer = s.clock.AfterFunc(interval, tick)
	h.mu.Unlock()
	return h
}
