package clock

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestSecondsRemaining(t *testing.T) {
	start := time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		clock   int
		elapsed time.Duration
		want    int
	}{
		{name: "fresh", clock: 60, elapsed: 0, want: 60},
		{name: "floors partial seconds", clock: 60, elapsed: 1999 * time.Millisecond, want: 59},
		{name: "exactly expired", clock: 60, elapsed: 60 * time.Second, want: 0},
		{name: "long expired", clock: 60, elapsed: 10 * time.Minute, want: 0},
		{name: "cosmetic clock", clock: 0, elapsed: 5 * time.Second, want: 0},
		{name: "skewed start", clock: 30, elapsed: -3 * time.Second, want: 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SecondsRemaining(tt.clock, start, start.Add(tt.elapsed)))
		})
	}
}

func TestTracker_FakeClock(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC))
	tr := NewTracker(fc)
	started := tr.Now()

	assert.Equal(t, 90, tr.SecondsRemaining(90, started))
	assert.False(t, tr.Expired(90, started))

	fc.Advance(45 * time.Second)
	assert.Equal(t, 45, tr.SecondsRemaining(90, started))

	fc.Advance(45 * time.Second)
	assert.True(t, tr.Expired(90, started))

	deadline, ok := tr.Deadline(90, started)
	assert.True(t, ok)
	assert.Equal(t, started.Add(90*time.Second), deadline)

	_, ok = tr.Deadline(0, started)
	assert.False(t, ok)
	assert.False(t, tr.Expired(0, started))
}
