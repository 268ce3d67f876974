package logic

import "time"

// Channel debounces one button. A press is emitted on the inactive→active
// transition of the configured edge, and only if Interval has passed since
// the previous accepted press; anything inside the window is dropped.
type Channel struct {
	ID       ChannelID
	Edge     Edge
	Interval time.Duration

	level        bool // last observed raw level
	accepted     bool // whether lastAccepted is set
	lastAccepted time.Time
	presses      uint64
	suppressed   uint64
}

// NewChannel creates a channel whose line starts at its inactive level.
func NewChannel(id ChannelID, edge Edge, interval time.Duration) *Channel {
	c := &Channel{ID: id, Edge: edge, Interval: interval}
	c.level = c.inactiveLevel()

	return c
}

// Baseline records the current raw level without emitting, so a button
// held during startup is not reported as a press.
func (c *Channel) Baseline(raw bool) {
	c.level = raw
}

// Observe records a raw level sample and reports whether it completes a press.
func (c *Channel) Observe(raw bool, now time.Time) (Press, bool) {
	prev := c.level
	c.level = raw

	if !c.isActive(raw) || c.isActive(prev) {
		return Press{}, false
	}

	if c.accepted && now.Sub(c.lastAccepted) < c.Interval {
		c.suppressed++
		return Press{}, false
	}

	c.accepted = true
	c.lastAccepted = now
	c.presses++

	return Press{Channel: c.ID, Time: now}, true
}

// ObserveFault treats a failed read as the inactive level.
func (c *Channel) ObserveFault(now time.Time) {
	c.Observe(c.inactiveLevel(), now)
}

// Active reports whether the last observed level is the pressed level.
func (c *Channel) Active() bool {
	return c.isActive(c.level)
}

// LastPress returns the time of the last accepted press.
func (c *Channel) LastPress() (time.Time, bool) {
	return c.lastAccepted, c.accepted
}

// Presses returns the number of accepted presses.
func (c *Channel) Presses() uint64 { return c.presses }

// Suppressed returns the number of edges dropped by the debounce window.
func (c *Channel) Suppressed() uint64 { return c.suppressed }

func (c *Channel) isActive(raw bool) bool {
	return raw == (c.Edge == EdgeRising)
}

func (c *Channel) inactiveLevel() bool {
	return c.Edge == EdgeFalling
}
