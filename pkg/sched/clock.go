package sched

import "time"

// Timer is a pending one-shot callback that can be stopped.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

// Clock provides time-related operations.
// Implementations must invoke f on their own goroutine, never inline.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Time
}

// SystemClock is the Clock backed by the time package.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Executor runs functions on the single execution context.
type Executor interface {
	// Post enqueues fn. It returns false if fn will never run.
	Post(fn func()) bool
}
