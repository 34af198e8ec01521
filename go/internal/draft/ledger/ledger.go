package ledger

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

var (
	// ErrPlayerAlreadyDrafted is returned when a player is appended twice.
	ErrPlayerAlreadyDrafted = errors.New("player already drafted")
	// ErrOutOfSequence is returned when an entry's overall is not the next
	// number in the ledger.
	ErrOutOfSequence = errors.New("pick out of sequence")
)

// Ledger is the ordered sequence of committed picks for one draft. The Nth
// entry always has overall N.
type Ledger struct {
	picks []models.Pick
	taken map[string]int // player id -> overall
}

// New builds a ledger from picks loaded in overall order.
func New(picks []models.Pick) (*Ledger, error) {
	l := &Ledger{
		picks: make([]models.Pick, 0, len(picks)),
		taken: make(map[string]int, len(picks)),
	}
	for _, p := range picks {
		if err := l.Append(p); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Len is the number of committed picks.
func (l *Ledger) Len() int {
	return len(l.picks)
}

// Next is the overall number the next appended pick must carry.
func (l *Ledger) Next() int {
	return len(l.picks) + 1
}

// Last returns the most recent pick.
func (l *Ledger) Last() (models.Pick, bool) {
	if len(l.picks) == 0 {
		return models.Pick{}, false
	}
	return l.picks[len(l.picks)-1], true
}

// IsTaken reports whether the player has been drafted.
func (l *Ledger) IsTaken(playerID string) bool {
	_, ok := l.taken[playerID]
	return ok
}

// Append adds a pick to the end of the ledger.
func (l *Ledger) Append(p models.Pick) error {
	if p.Overall != l.Next() {
		return fmt.Errorf("%w: got overall %d, want %d", ErrOutOfSequence, p.Overall, l.Next())
	}
	if at, ok := l.taken[p.PlayerID]; ok {
		return fmt.Errorf("%w: player %s went at pick %d", ErrPlayerAlreadyDrafted, p.PlayerID, at)
	}
	l.picks = append(l.picks, p)
	l.taken[p.PlayerID] = p.Overall
	return nil
}

// RemoveLast drops and returns the most recent pick.
func (l *Ledger) RemoveLast() (models.Pick, bool) {
	last, ok := l.Last()
	if !ok {
		return models.Pick{}, false
	}
	l.picks = l.picks[:len(l.picks)-1]
	delete(l.taken, last.PlayerID)
	return last, true
}

// Picks returns a copy of the ledger in overall order.
func (l *Ledger) Picks() []models.Pick {
	out := make([]models.Pick, len(l.picks))
	copy(out, l.picks)
	return out
}

// ByTeam returns one team's picks in overall order.
func (l *Ledger) ByTeam(teamID uuid.UUID) []models.Pick {
	var out []models.Pick
	for _, p := range l.picks {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out
}

// Available filters candidates down to players not yet drafted, keeping
// their order.
func (l *Ledger) Available(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if !l.IsTaken(id) {
			out = append(out, id)
		}
	}
	return out
}
