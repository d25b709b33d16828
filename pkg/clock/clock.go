// Package clock abstracts wall-clock time so that award cycles can be
// exercised with simulated time.
package clock

import (
	"sync"
	"time"

	"go.uber.org/fx"
)

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return System{} }),
)

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// System is the wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Simulated is a clock pinned to a base time that only moves when advanced.
type Simulated struct {
	mu  sync.RWMutex
	now time.Time
}

// NewSimulated creates a simulated clock starting at base.
func NewSimulated(base time.Time) *Simulated {
	return &Simulated{now: base.UTC()}
}

// Now returns the current simulated time.
func (c *Simulated) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the simulated clock forward by d.
func (c *Simulated) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// AdvanceDays moves the simulated clock forward by n days.
func (c *Simulated) AdvanceDays(n int) {
	c.Advance(time.Duration(n) * 24 * time.Hour)
}

// Set pins the simulated clock to t.
func (c *Simulated) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}
