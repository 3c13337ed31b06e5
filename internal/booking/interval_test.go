package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalOverlaps(t *testing.T) {
	base := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	h := func(n float64) time.Time { return base.Add(time.Duration(n * float64(time.Hour))) }

	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", Interval{h(0), h(1)}, Interval{h(0), h(1)}, true},
		{"partial", Interval{h(0), h(2)}, Interval{h(1), h(3)}, true},
		{"contained", Interval{h(0), h(3)}, Interval{h(1), h(2)}, true},
		{"touching end", Interval{h(0), h(1)}, Interval{h(1), h(2)}, false},
		{"disjoint", Interval{h(0), h(1)}, Interval{h(2), h(3)}, false},
		{"one nanosecond", Interval{h(0), h(1)}, Interval{h(1).Add(-time.Nanosecond), h(2)}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "overlap must be symmetric")
		})
	}
}

func TestIntervalValid(t *testing.T) {
	now := time.Now()
	assert.True(t, NewInterval(now, now.Add(time.Second)).Valid())
	assert.False(t, NewInterval(now, now).Valid())
	assert.False(t, NewInterval(now, now.Add(-time.Second)).Valid())
	assert.Equal(t, time.UTC, NewInterval(now, now).Start.Location())
}

func TestNewIntervalTruncatesToMicrosecond(t *testing.T) {
	base := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	iv := NewInterval(base.Add(1500*time.Nanosecond), base.Add(time.Hour+999*time.Nanosecond))
	assert.Equal(t, base.Add(time.Microsecond), iv.Start)
	assert.Equal(t, base.Add(time.Hour), iv.End)
}

func TestIntervalSeconds(t *testing.T) {
	base := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		iv   Interval
		want int64
	}{
		{"one hour", Interval{base, base.Add(time.Hour)}, 3600},
		{"partial second", Interval{base.Add(900 * time.Millisecond), base.Add(2*time.Second + 100*time.Millisecond)}, 1},
		{"beyond duration range", Interval{base, time.Date(9999, 1, 1, 10, 0, 0, 0, time.UTC)}, 251_477_308_800},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.iv.Seconds(), tc.name)
	}
}

func TestRejectionMatching(t *testing.T) {
	err := error(&Rejection{Kind: KindSlotConflict})
	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "slot_conflict", KindSlotConflict.String())
	assert.True(t, CountsAsSuccess(err))

	f := fault("op", assert.AnError)
	assert.ErrorIs(t, f, ErrStoreUnavailable)
	assert.ErrorIs(t, f, assert.AnError)
	assert.False(t, CountsAsSuccess(f))
	assert.Same(t, f, fault("outer", f))
}
