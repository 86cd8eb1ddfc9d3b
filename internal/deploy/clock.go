package deploy

import "time"

// Clock abstracts time so debounce behavior is testable without real sleeps.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancelable scheduled call.
type Timer interface {
	Stop() bool
}

type realClock struct{}

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
