package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Tracker computes time left on the current pick. The start of the turn is
// owned by the draft row; the tracker only reads it.
type Tracker struct {
	clock clockwork.Clock
}

// NewTracker returns a tracker backed by c. A nil clock uses wall time.
func NewTracker(c clockwork.Clock) *Tracker {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	return &Tracker{clock: c}
}

// Now is the instant a commit or undo resets the clock to.
func (t *Tracker) Now() time.Time {
	return t.clock.Now().UTC()
}

// Clock exposes the underlying clock for timers.
func (t *Tracker) Clock() clockwork.Clock {
	return t.clock
}

// SecondsRemaining returns the whole seconds left on a pick that started at
// startedAt.
func (t *Tracker) SecondsRemaining(clockSeconds int, startedAt time.Time) int {
	return SecondsRemaining(clockSeconds, startedAt, t.clock.Now())
}

// Deadline returns when the pick expires. ok is false for a cosmetic clock.
func (t *Tracker) Deadline(clockSeconds int, startedAt time.Time) (deadline time.Time, ok bool) {
	if clockSeconds <= 0 {
		return time.Time{}, false
	}
	return startedAt.Add(time.Duration(clockSeconds) * time.Second), true
}

// Expired reports whether an enforced clock has run out.
func (t *Tracker) Expired(clockSeconds int, startedAt time.Time) bool {
	return clockSeconds > 0 && t.SecondsRemaining(clockSeconds, startedAt) == 0
}

// SecondsRemaining is max(0, clockSeconds - floor(elapsed)). Elapsed time
// before startedAt (clock skew) counts as zero.
func SecondsRemaining(clockSeconds int, startedAt, now time.Time) int {
	elapsed := now.Sub(startedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	left := clockSeconds - int(elapsed/time.Second)
	if left < 0 {
		return 0
	}
	return left
}
