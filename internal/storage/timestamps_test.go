package storage

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockFormatKnownValues(t *testing.T) {
	cases := []struct {
		name  string
		clock Clock
		raw   any
		want  string
	}{
		{"chrome unix epoch", webkitClock, int64(11644473600000000), "1970-01-01T00:00:00Z"},
		{"chrome own epoch", webkitClock, int64(0), "1601-01-01T00:00:00Z"},
		{"firefox", prTimeClock, int64(1700000000000000), "2023-11-14T22:13:20Z"},
		{"firefox fraction", prTimeClock, int64(1700000000123456), "2023-11-14T22:13:20.123456Z"},
		{"safari real", cocoaClock, float64(0), "2001-01-01T00:00:00Z"},
		{"safari text", cocoaClock, "86400", "2001-01-02T00:00:00Z"},
		{"null", webkitClock, nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.clock.Format(tc.raw))
		})
	}
}

func TestClockFormatFallsBackOnOverflow(t *testing.T) {
	assert.Equal(t, "microseconds=9223372036854775807", webkitClock.Format(int64(math.MaxInt64)))
	assert.Equal(t, "microseconds=-9223372036854775808", prTimeClock.Format(int64(math.MinInt64)))
	assert.Equal(t, "seconds=100000000000000000000", cocoaClock.Format(float64(1e20)))
	assert.Equal(t, "microseconds=garbage", webkitClock.Format("garbage"))
}

func TestClockNativeRoundTrips(t *testing.T) {
	instant := time.Date(2024, 3, 9, 17, 45, 12, 345678000, time.UTC)
	for _, c := range []Clock{webkitClock, prTimeClock} {
		got, ok := c.Time(c.Native(instant))
		assert.True(t, ok)
		assert.True(t, instant.Equal(got), "%s: %v != %v", c.Epoch, instant, got)
	}
	got, ok := cocoaClock.Time(cocoaClock.Native(instant))
	assert.True(t, ok)
	assert.Equal(t, instant.Truncate(time.Second), got)
}

func TestParseDate(t *testing.T) {
	for _, in := range []string{"2024-01-15", "2024-01-15T00:00:00", "2024-01-15 00:00:00", "2024-01-15T00:00:00Z", "2024-01-15T01:00:00+01:00"} {
		got, err := ParseDate(in)
		assert.NoError(t, err, in)
		assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), got, in)
	}
	_, err := ParseDate("15/01/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestScoreProperties(t *testing.T) {
	pairs := [][2]string{
		{"golang", "golang"},
		{"golang", "GoLang"},
		{"kitten", "sitting"},
		{"chronicle", "chronicel"},
		{"a", "completely different"},
		{"héllo", "hello"},
	}
	for _, p := range pairs {
		a, b := p[0], p[1]
		s := Score(a, b)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
		assert.InDelta(t, s, Score(b, a), 1e-9, "%q vs %q", a, b)
		assert.Equal(t, 1.0, Score(a, a))
		assert.Zero(t, Score("", b))
		assert.Zero(t, Score(a, ""))
	}
	assert.InDelta(t, 1-3.0/7.0, Score("kitten", "sitting"), 1e-9)
	assert.InDelta(t, 0.8, Score("héllo", "hello"), 1e-9)
}
