package ui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type frameMsg time.Time

func animate(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// teaFrames is an engine.FrameSource fed by frameMsg. The scheduler's
// callback runs inside Update, on the program's event loop.
type teaFrames struct {
	mu  sync.Mutex
	fn  func(time.Time)
	gen int
}

func (f *teaFrames) Acquire(fn func(now time.Time)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	gen := f.gen
	f.fn = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.gen == gen {
			f.fn = nil
		}
	}
}

func (f *teaFrames) fire(now time.Time) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn(now)
	}
}

func (f *teaFrames) active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fn != nil
}
