// Package clock is the time source for boot records and parse metrics.
//
// Guests frequently boot before NTP has run, so a boot stamped by the
// agent may carry a guest clock that is years behind. IsReasonableTime
// lets history output flag those rows.
package clock

import (
	"sync"
	"time"
)

// MinReasonableYear is the earliest year a boot timestamp is trusted.
const MinReasonableYear = 2023

// Clock stamps boots and parse runs.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// RealClock reads the guest's wall clock.
type RealClock struct{}

// Now returns time.Now.
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// Since returns time.Since(t).
func (c *RealClock) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// MockClock holds a fixed time until Set or Advance moves it. Store
// and metrics tests use it to pin first-seen and last-parse stamps.
type MockClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewMockClock returns a MockClock stopped at t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the pinned time.
func (c *MockClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Since measures from the pinned time.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// Set moves the clock to t, backwards included.
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// Advance moves the clock forward by d, as between two boots.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Default stamps records when no Clock is injected.
var Default Clock = &RealClock{}

// Now reads Default.
func Now() time.Time {
	return Default.Now()
}

// IsReasonableTime reports whether t could have come from a synced clock.
func IsReasonableTime(t time.Time) bool {
	return t.Year() >= MinReasonableYear
}
