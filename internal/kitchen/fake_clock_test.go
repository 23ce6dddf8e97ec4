package kitchen

import (
	"sort"
	"sync"
	"time"

	"github.com/tquinto/foodkitchen/internal/clock"
)

// fakeClock is a manually-advanced clock.Clock for deterministic kitchen
// tests: Advance fires every pending timer whose deadline has passed, in
// deadline order.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
	pending []*fakeTimer
}

type fakeTimer struct {
	deadline time.Time
	fn       func()
	stopped  bool
}

func (t *fakeTimer) Stop() bool {
	wasRunning := !t.stopped
	t.stopped = true
	return wasRunning
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{deadline: c.now.Add(d), fn: f}
	c.pending = append(c.pending, t)
	return t
}

// Advance moves the clock forward by d, firing any timers whose deadlines
// fall at or before the new time, earliest first.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	target := c.now

	sort.Slice(c.pending, func(i, j int) bool {
		return c.pending[i].deadline.Before(c.pending[j].deadline)
	})

	var due []*fakeTimer
	var remaining []*fakeTimer
	for _, t := range c.pending {
		if !t.stopped && !t.deadline.After(target) {
			due = append(due, t)
		} else if !t.stopped {
			remaining = append(remaining, t)
		}
	}
	c.pending = remaining
	c.mu.Unlock()

	for _, t := range due {
		if t.stopped {
			continue
		}
		t.fn()
	}
}
