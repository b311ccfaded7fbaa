package storage

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// TimeLayout is the ISO-8601 rendering used for every timestamp.
const TimeLayout = "2006-01-02T15:04:05.999999Z07:00"

// Clock describes how a browser stores instants: a count of Unit since Epoch.
type Clock struct {
	Epoch time.Time
	Unit  time.Duration
	Label string
}

var (
	// webkitClock is Chrome's microseconds since 1601-01-01 UTC.
	webkitClock = Clock{Epoch: time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC), Unit: time.Microsecond, Label: "microseconds"}
	// prTimeClock is Firefox's microseconds since the Unix epoch.
	prTimeClock = Clock{Epoch: time.Unix(0, 0).UTC(), Unit: time.Microsecond, Label: "microseconds"}
	// cocoaClock is Safari's seconds since 2001-01-01 UTC, stored as REAL.
	cocoaClock = Clock{Epoch: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), Unit: time.Second, Label: "seconds"}
)

// Time converts a raw stored value to an instant. ok is false for NULL,
// non-numeric and out-of-range values (year outside 1..9999).
func (c Clock) Time(raw any) (time.Time, bool) {
	perSecond := int64(time.Second / c.Unit)
	epoch := c.Epoch.Unix()

	var secs, nanos int64
	switch v := raw.(type) {
	case int64:
		secs, nanos = v/perSecond, (v%perSecond)*int64(c.Unit)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return time.Time{}, false
		}
		s := v / float64(perSecond)
		if math.Abs(s) > 1e13 {
			return time.Time{}, false
		}
		whole := math.Floor(s)
		secs, nanos = int64(whole), int64((s-whole)*1e9)
	case []byte:
		return c.Time(parseNumber(string(v)))
	case string:
		return c.Time(parseNumber(v))
	default:
		return time.Time{}, false
	}

	if (secs > 0 && epoch > math.MaxInt64-secs) || (secs < 0 && epoch < math.MinInt64-secs) {
		return time.Time{}, false
	}
	t := time.Unix(epoch+secs, nanos).UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return time.Time{}, false
	}
	return t, true
}

// Format renders raw as ISO-8601, falling back to "<unit>=<raw>" when the
// value cannot be represented. NULL renders as "".
func (c Clock) Format(raw any) string {
	if raw == nil {
		return ""
	}
	if t, ok := c.Time(raw); ok {
		return t.Format(TimeLayout)
	}
	return fmt.Sprintf("%s=%s", c.Label, rawString(raw))
}

// Native converts t to the stored representation.
func (c Clock) Native(t time.Time) int64 {
	d := t.Sub(c.Epoch)
	if d == math.MaxInt64 || d == math.MinInt64 {
		// Beyond ~292 years Sub saturates, so compute from seconds.
		secs := t.Unix() - c.Epoch.Unix()
		return secs*int64(time.Second/c.Unit) + int64(t.Nanosecond())/int64(c.Unit)
	}
	return int64(d / c.Unit)
}

func parseNumber(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return nil
}

func rawString(raw any) string {
	switch v := raw.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}
