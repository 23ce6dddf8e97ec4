// Package clock abstracts wall-clock time so the kitchen coordinator can be
// driven by a fake clock in tests instead of real timers.
package clock

import "time"

// Clock is the time source the kitchen coordinator uses for "now" and for
// scheduling delayed callbacks. A real clock uses time.Now and time.AfterFunc;
// tests substitute a fake that advances deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer cancels a scheduled callback. It mirrors the subset of *time.Timer
// the coordinator needs.
type Timer interface {
	Stop() bool
}

// Real is the production Clock backed by the standard library.
type Real struct{}

// Now returns the current wall-clock time.
func (Real) Now() time.Time { return time.Now() }

// AfterFunc schedules f to run after d using time.AfterFunc.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
