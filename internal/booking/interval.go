package booking

import "time"

// Interval is a half-open time range [Start, End).  Two intervals that
// only touch at an endpoint do not overlap, so back-to-back bookings are
// allowed.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval normalizes both bounds to UTC and truncates them to the
// microsecond, the precision of the reservations table.
func NewInterval(start, end time.Time) Interval {
	return Interval{
		Start: start.UTC().Truncate(time.Microsecond),
		End:   end.UTC().Truncate(time.Microsecond),
	}
}

// Valid reports whether End is strictly after Start.
func (i Interval) Valid() bool { return i.End.After(i.Start) }

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration { return i.End.Sub(i.Start) }

// Seconds returns the length of the interval in whole seconds.  Unlike
// Duration it does not saturate for intervals longer than ~292 years.
func (i Interval) Seconds() int64 {
	secs := i.End.Unix() - i.Start.Unix()
	if i.End.Nanosecond() < i.Start.Nanosecond() {
		secs--
	}
	return secs
}

// Overlaps reports whether i and other share at least one instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}
