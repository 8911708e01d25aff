package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestRoundClockExpiry(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := RoundClock{StartedAt: start, Duration: 8 * time.Minute}

	assert.False(t, c.Expired(start))
	assert.False(t, c.Expired(start.Add(8*time.Minute-time.Second)))
	assert.True(t, c.Expired(start.Add(8*time.Minute)))
	assert.True(t, c.Expired(start.Add(time.Hour)))
}

func TestRoundClockUntimedNeverExpires(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := RoundClock{StartedAt: start, Duration: 0}

	assert.False(t, c.Expired(start.Add(100*time.Hour)))
	assert.Zero(t, c.Remaining(start.Add(time.Hour)))
}

func TestRoundClockElapsedNeverNegative(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := RoundClock{StartedAt: start, Duration: time.Minute}

	assert.Zero(t, c.Elapsed(start.Add(-time.Minute)))
	assert.Equal(t, c.Duration, c.Remaining(start.Add(-time.Hour)))
}

func TestRoundClockRemainingProperties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		duration := time.Duration(rapid.Int64Range(1, int64(time.Hour)).Draw(rt, "duration"))
		offset := time.Duration(rapid.Int64Range(0, int64(2*time.Hour)).Draw(rt, "offset"))

		c := RoundClock{StartedAt: start, Duration: duration}
		now := start.Add(offset)

		remaining := c.Remaining(now)
		assert.GreaterOrEqual(rt, remaining, time.Duration(0))
		assert.LessOrEqual(rt, remaining, duration)
		assert.Equal(rt, remaining == 0 && offset >= duration, c.Expired(now))
	})
}
