package room

import "time"

// RoundClock is a pure computation over two timestamps: it reports elapsed
// round time and expiry relative to a caller-supplied now. A zero Duration
// means the round is untimed and never expires.
type RoundClock struct {
	// StartedAt is the instant the round began.
	StartedAt time.Time
	// Duration is the round length; 0 disables the timer.
	Duration time.Duration
}

// Elapsed returns the time since the round started, never negative.
func (c RoundClock) Elapsed(now time.Time) time.Duration {
	if d := now.Sub(c.StartedAt); d > 0 {
		return d
	}
	return 0
}

// Remaining returns the time left before expiry, never negative. For an
// untimed clock it returns 0.
func (c RoundClock) Remaining(now time.Time) time.Duration {
	if c.Duration <= 0 {
		return 0
	}
	if left := c.Duration - c.Elapsed(now); left > 0 {
		return left
	}
	return 0
}

// Expired reports whether elapsed time has reached the duration. An untimed
// clock never expires.
func (c RoundClock) Expired(now time.Time) bool {
	if c.Duration <= 0 {
		return false
	}
	return c.Elapsed(now) >= c.Duration
}
