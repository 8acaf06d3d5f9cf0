package testutil

import (
	"sync"
	"time"
)

// DefaultEpoch is the first instant a DeterministicClock reports unless
// another start is given.
var DefaultEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock provides a thread-safe stepping wall clock for tests.
//
// Every call to Now returns the previous instant plus Step, starting at
// the configured start time. The same sequence of calls therefore yields
// identical timestamps on every run, which keeps created_at/updated_at tags
// reproducible in golden output.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int64
}

// NewDeterministicClock creates a clock starting at DefaultEpoch that
// advances one second per call.
//
// The first call to Now() returns DefaultEpoch.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultEpoch, time.Second)
}

// NewDeterministicClockAt creates a clock starting at start and advancing
// by step per call.
func NewDeterministicClockAt(start time.Time, step time.Duration) *DeterministicClock {
	return &DeterministicClock{start: start.UTC(), step: step}
}

// Now returns the next instant.
//
// Monotonic: never decreases for a non-negative step.
func (c *DeterministicClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Calls returns how many times Now has been called.
func (c *DeterministicClock) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Reset rewinds the clock so the next call to Now() returns the start time.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
