package testutil

import (
	"sync"
	"time"
)

// Clock is a thread-safe manual time source for tests.
//
// The engine and its collaborators take `now func() time.Time`; handing
// them clock.Now freezes time between explicit Advance calls, so every
// tick-paced behavior (retry backoff, heartbeat spacing, build elapsed
// seconds) becomes fully deterministic and scenario runs replay
// byte-identically.
//
// Thread-safety: render workers read Now concurrently with the test
// goroutine advancing, so access is mutex-guarded.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at the given instant.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current instant. The method value clock.Now satisfies
// the engine's time-source parameter.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
