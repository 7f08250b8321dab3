// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mockable

import (
	"sync"
	"time"
)

// Clock reports wall-clock time unless it has been pinned with Set, in which
// case it reports the pinned time until Sync is called. It is safe for
// concurrent use.
type Clock struct {
	mu    sync.RWMutex
	faked bool
	time  time.Time
}

// Set pins the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faked = true
	c.time = t
}

// SetUnix pins the clock to the given unix second.
func (c *Clock) SetUnix(sec uint64) {
	c.Set(time.Unix(int64(sec), 0))
}

// Advance moves a pinned clock forward by d. An unpinned clock is pinned to
// now+d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.faked {
		c.faked = true
		c.time = time.Now()
	}
	c.time = c.time.Add(d)
}

// Sync releases a pinned clock back to wall-clock time.
func (c *Clock) Sync() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.faked = false
}

func (c *Clock) Time() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.faked {
		return c.time
	}
	return time.Now()
}

// Unix returns the clock's time in whole unix seconds. Times before the epoch
// report 0.
func (c *Clock) Unix() uint64 {
	return uint64(max(c.Time().Unix(), 0))
}
