package engine

import "time"

// Clock supplies the current time to the scheduler
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock, including its monotonic reading
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
