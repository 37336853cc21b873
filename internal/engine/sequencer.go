package engine

import (
	"sync"
	"time"
)

// coalescer bounds the pointer-move send rate. Moves arriving faster than
// the minimum interval collapse into the most recent coordinate, which a
// trailing timer flushes once the interval elapses, so the last position of
// a burst is never dropped. Discrete commands bypass the coalescer entirely.
type coalescer struct {
	interval time.Duration
	send     func(x, y float64)

	mu      sync.Mutex
	last    time.Time
	pending bool
	px, py  float64
	timer   *time.Timer
}

func newCoalescer(interval time.Duration, send func(x, y float64)) *coalescer {
	return &coalescer{interval: interval, send: send}
}

// offer submits a pointer position. It sends immediately when the interval
// has elapsed since the previous send, otherwise it parks the position for
// the trailing flush.
func (c *coalescer) offer(x, y float64) {
	c.mu.Lock()
	now := time.Now()
	if c.timer == nil && now.Sub(c.last) >= c.interval {
		c.last = now
		c.mu.Unlock()
		c.send(x, y)
		return
	}

	c.px, c.py = x, y
	c.pending = true
	if c.timer == nil {
		wait := c.interval - now.Sub(c.last)
		if wait < 0 {
			wait = 0
		}
		c.timer = time.AfterFunc(wait, c.flush)
	}
	c.mu.Unlock()
}

func (c *coalescer) flush() {
	c.mu.Lock()
	c.timer = nil
	if !c.pending {
		c.mu.Unlock()
		return
	}
	x, y := c.px, c.py
	c.pending = false
	c.last = time.Now()
	c.mu.Unlock()
	c.send(x, y)
}

// reset drops any parked position and cancels the trailing flush, used when
// the link goes down or pointer mode ends.
func (c *coalescer) reset() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = false
	c.last = time.Time{}
	c.mu.Unlock()
}
