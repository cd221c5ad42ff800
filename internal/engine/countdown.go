package engine

import "fmt"

// Countdown converts elapsed ticks into remaining whole seconds.
// It never goes below zero; the session loop owns the tick cadence and
// the exactly-once terminal transition.
type Countdown struct {
	remaining int
}

// NewCountdown starts a countdown from the given number of seconds.
func NewCountdown(seconds int) *Countdown {
	if seconds < 0 {
		seconds = 0
	}
	return &Countdown{remaining: seconds}
}

// Tick consumes one second and reports whether the countdown reached zero.
func (c *Countdown) Tick() bool {
	if c.remaining > 0 {
		c.remaining--
	}
	return c.remaining == 0
}

// Remaining returns the remaining whole seconds.
func (c *Countdown) Remaining() int {
	return c.remaining
}

// Restore overwrites the remaining time from a recovered snapshot,
// clamped to [0, max].
func (c *Countdown) Restore(seconds, max int) {
	if seconds < 0 {
		seconds = 0
	}
	if seconds > max {
		seconds = max
	}
	c.remaining = seconds
}

// Clock formats seconds as a zero-padded HH:MM:SS display string.
func Clock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
