package session

import (
	"sync"
	"time"
)

// Countdown is the quiz timer: Running(n) -> Running(n-1) -> ... -> Expired.
// Each tick decrements by exactly one, floored at zero; reaching zero fires
// the expire hook exactly once and stops the loop. The tick hook runs on every
// decrement so callers can mirror remaining time and apply their snapshot
// policy.
type Countdown struct {
	mu      sync.Mutex
	left    int
	expired bool
	stopped bool

	interval time.Duration
	stopC    chan struct{}

	onTick   func(left int)
	onExpire func()
}

// NewCountdown builds a countdown starting at the given number of seconds.
// interval controls wall-clock tick spacing (1s in production, shorter in
// tests); hooks may be nil.
func NewCountdown(seconds int, interval time.Duration, onTick func(int), onExpire func()) *Countdown {
	if interval <= 0 {
		interval = time.Second
	}
	return &Countdown{
		left:     seconds,
		interval: interval,
		stopC:    make(chan struct{}),
		onTick:   onTick,
		onExpire: onExpire,
	}
}

// Left returns the remaining seconds.
func (c *Countdown) Left() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.left
}

// Tick advances the countdown by one second and returns the new remaining
// value. Hooks run outside the internal lock so they may call back into the
// owner.
func (c *Countdown) Tick() int {
	c.mu.Lock()
	if c.stopped || c.expired {
		left := c.left
		c.mu.Unlock()
		return left
	}
	c.left--
	if c.left <= 0 {
		c.left = 0
		c.expired = true
	}
	left := c.left
	expired := c.expired
	c.mu.Unlock()

	if c.onTick != nil {
		c.onTick(left)
	}
	if expired {
		c.Stop()
		if c.onExpire != nil {
			c.onExpire()
		}
	}
	return left
}

// Run ticks once per interval until expiry or Stop.
func (c *Countdown) Run() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopC:
			return
		case <-ticker.C:
			c.Tick()
			c.mu.Lock()
			done := c.expired || c.stopped
			c.mu.Unlock()
			if done {
				return
			}
		}
	}
}

// Stop halts the loop. Safe to call more than once.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	close(c.stopC)
}
