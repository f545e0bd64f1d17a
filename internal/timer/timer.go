// Package timer provides cancellable countdowns whose deadline can be pulled
// forward and whose remaining time can be read for reconnection snapshots.
package timer

import (
	"sync"
	"time"
)

// Stopper stops a pending callback; it reports whether the call prevented it from firing
type Stopper interface {
	Stop() bool
}

// Clock abstracts the time source so countdowns can be driven deterministically
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Stopper
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// System is the wall clock
var System Clock = systemClock{}

// Scheduler creates countdowns on a clock
type Scheduler struct {
	clock Clock
}

// NewScheduler creates a scheduler; a nil clock means the wall clock
func NewScheduler(clock Clock) *Scheduler {
	if clock == nil {
		clock = System
	}
	return &Scheduler{clock: clock}
}

// Now returns the scheduler's current time
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Schedule starts a countdown that calls onFire once after d, unless cancelled first
func (s *Scheduler) Schedule(d time.Duration, onFire func()) *Handle {
	if d < 0 {
		d = 0
	}
	h := &Handle{
		clock:    s.clock,
		onFire:   onFire,
		deadline: s.clock.Now().Add(d),
	}
	h.arm(d)
	return h
}

// Handle is one running countdown. All methods are safe on a nil Handle.
type Handle struct {
	mu       sync.Mutex
	clock    Clock
	onFire   func()
	deadline time.Time
	stopper  Stopper
	gen      uint64
	done     bool
}

// arm must be called with mu held or before the handle is shared
func (h *Handle) arm(d time.Duration) {
	h.gen++
	gen := h.gen
	h.stopper = h.clock.AfterFunc(d, func() { h.fire(gen) })
}

func (h *Handle) fire(gen uint64) {
	h.mu.Lock()
	if h.done || gen != h.gen {
		// superseded by Shorten or already cancelled
		h.mu.Unlock()
		return
	}
	h.done = true
	fn := h.onFire
	h.mu.Unlock()
	fn()
}

// Cancel stops the countdown. It reports whether the countdown was still pending.
func (h *Handle) Cancel() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return false
	}
	h.done = true
	h.stopper.Stop()
	return true
}

// Shorten moves the deadline to d from now if that is earlier than the current
// deadline. The deadline is never extended. It reports whether the deadline moved.
func (h *Handle) Shorten(d time.Duration) bool {
	if h == nil {
		return false
	}
	if d < 0 {
		d = 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return false
	}
	next := h.clock.Now().Add(d)
	if !next.Before(h.deadline) {
		return false
	}
	h.stopper.Stop()
	h.deadline = next
	h.arm(d)
	return true
}

// Remaining is the time left before the countdown fires, zero once fired or cancelled
func (h *Handle) Remaining() time.Duration {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return 0
	}
	left := h.deadline.Sub(h.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// Deadline returns when the countdown is due
func (h *Handle) Deadline() time.Time {
	if h == nil {
		return time.Time{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.deadline
}

// Active reports whether the countdown is still pending
func (h *Handle) Active() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.done
}

// Seconds rounds a duration up to whole seconds for clients
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}
