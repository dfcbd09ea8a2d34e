package types

import (
	"sync"
	"time"
)

// Clock yields the current time in seconds since the Unix epoch.
type Clock interface {
	Now() int64
}

// ClockFunc is an adapter to use a plain function as a Clock.
type ClockFunc func() int64

// Now implements Clock.
func (f ClockFunc) Now() int64 { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(func() int64 { return time.Now().Unix() })

// MonotonicClock wraps a Clock so that successive readings never decrease,
// even if the underlying source is stepped backwards.
type MonotonicClock struct {
	mu     sync.Mutex
	source Clock
	last   int64
}

// NewMonotonicClock wraps source. A nil source means SystemClock.
func NewMonotonicClock(source Clock) *MonotonicClock {
	if source == nil {
		source = SystemClock
	}
	return &MonotonicClock{source: source}
}

// Now implements Clock.
func (c *MonotonicClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t := c.source.Now(); t > c.last {
		c.last = t
	}
	return c.last
}

// ManualClock is a Clock driven by hand, for tests and replays.
type ManualClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualClock creates a ManualClock reading start.
func NewManualClock(start int64) *ManualClock {
	return &ManualClock{now: start}
}

// Now implements Clock.
func (c *ManualClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t, in either direction.
func (c *ManualClock) Set(t int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}
