package session

import "time"

// Clock abstracts time so countdowns can be driven deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

type realClock struct{}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// countdown is the handle of a running per-question countdown. The token ties
// scheduled ticks to the question they were started for, so a tick that was
// already in flight when the countdown got cancelled is dropped.
type countdown struct {
	token     uint64
	remaining int
	timer     Timer
}

func (c *countdown) stop() {
	if c != nil && c.timer != nil {
		c.timer.Stop()
	}
}
