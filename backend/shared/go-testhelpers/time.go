package testhelpers

import (
	"sync"
	"time"
)

// Clock is a manually advanced time source for deterministic timestamps.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Every read moves forward a tick so ordering by created_at is strict.
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

// Advance jumps the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
