package engine

import (
	"sync"
	"time"
)

// FrameSource delivers a periodic tick to a single registered callback.
//
// Acquire registers fn and returns the function that ends the registration.
// Release must be idempotent and safe to call from inside fn. Acquire must
// not invoke fn synchronously.
type FrameSource interface {
	Acquire(fn func(now time.Time)) (release func())
}

// DefaultFrameInterval is one frame at 60 FPS
const DefaultFrameInterval = time.Second / 60

// TickerFrames drives the callback from a time.Ticker on its own goroutine
type TickerFrames struct {
	Interval time.Duration
}

func (f TickerFrames) Acquire(fn func(now time.Time)) func() {
	interval := f.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case now := <-ticker.C:
				// release may race the ticker; done wins
				select {
				case <-done:
					return
				default:
				}
				fn(now)
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
	}
}
