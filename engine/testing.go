package engine

import (
	"sync"
	"time"
)

// ManualClock is a controllable Clock for tests and replays
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock creates a clock stopped at start
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to t
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d and returns the new time
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// ManualFrames is a FrameSource that only ticks when Fire is called
type ManualFrames struct {
	mu       sync.Mutex
	live     *manualRegistration
	acquired int
	released int
}

type manualRegistration struct {
	fn       func(time.Time)
	released bool
}

func (m *ManualFrames) Acquire(fn func(now time.Time)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	reg := &manualRegistration{fn: fn}
	m.live = reg
	m.acquired++

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if reg.released {
			return
		}
		reg.released = true
		m.released++
		if m.live == reg {
			m.live = nil
		}
	}
}

// Fire delivers one tick to the live registration, if any. It reports
// whether a callback ran.
func (m *ManualFrames) Fire(now time.Time) bool {
	m.mu.Lock()
	reg := m.live
	m.mu.Unlock()
	if reg == nil {
		return false
	}
	reg.fn(now)
	return true
}

// Active reports whether a registration is live
func (m *ManualFrames) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live != nil
}

// Acquired returns how many registrations were ever made
func (m *ManualFrames) Acquired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired
}

// Released returns how many registrations were released
func (m *ManualFrames) Released() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}
