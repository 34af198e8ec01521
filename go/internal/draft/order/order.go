// Package order maps a draft's global pick counter to the team on the clock.
//
// Every consumer (clock display, pick validation, the auto-pick scheduler,
// survivability) derives the turn from the overall pick number through this
// package. There is no stored "current team" field to drift out of sync.
package order

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

var (
	// ErrConfiguration is returned for team or round setups that cannot
	// produce a pick order.
	ErrConfiguration = errors.New("invalid draft configuration")
	// ErrDraftComplete is returned once the overall pick is past the last
	// pick of the final round.
	ErrDraftComplete = errors.New("draft complete")
)

// Config is the immutable input to the order calculation.
type Config struct {
	Slots              []int // team slots, ascending
	Rounds             int
	Format             models.DraftFormat
	ThirdRoundReversal bool
}

// Turn describes who is on the clock for one overall pick.
type Turn struct {
	Overall               int `json:"overall"`
	Round                 int `json:"round"`
	PickInRound           int `json:"pick_in_round"` // 1-based
	Slot                  int `json:"slot"`
	PicksRemainingInRound int `json:"picks_remaining_in_round"` // after this pick
}

// NewConfig builds a Config from a draft and its teams.
func NewConfig(d models.Draft, teams []models.Team) Config {
	slots := make([]int, 0, len(teams))
	for _, t := range teams {
		slots = append(slots, t.Slot)
	}
	sort.Ints(slots)
	return Config{
		Slots:              slots,
		Rounds:             d.Settings.Rounds,
		Format:             d.Settings.Format,
		ThirdRoundReversal: d.Settings.ThirdRoundReversal,
	}
}

// TeamCount is the number of slots in each round.
func (c Config) TeamCount() int {
	return len(c.Slots)
}

// TotalPicks is the number of picks in the whole draft.
func (c Config) TotalPicks() int {
	return len(c.Slots) * c.Rounds
}

// Validate checks that the configuration can produce an order.
func (c Config) Validate() error {
	if len(c.Slots) == 0 {
		return fmt.Errorf("%w: team count must be at least 1", ErrConfiguration)
	}
	if c.Rounds < 1 {
		return fmt.Errorf("%w: rounds must be at least 1", ErrConfiguration)
	}
	switch c.Format {
	case models.DraftFormatSnake, models.DraftFormatLinear, "":
	case models.DraftFormatAuction:
		return fmt.Errorf("%w: auction drafts have no pick order", ErrConfiguration)
	default:
		return fmt.Errorf("%w: unknown format %q", ErrConfiguration, c.Format)
	}
	return nil
}

// Reversed reports whether the slot order of round runs descending.
func (c Config) Reversed(round int) bool {
	if c.Format == models.DraftFormatLinear {
		return false
	}
	even := round%2 == 0
	if c.ThirdRoundReversal && round >= 3 {
		return !even
	}
	return even
}

// RoundOrder returns the slots in picking order for round.
func (c Config) RoundOrder(round int) []int {
	out := make([]int, len(c.Slots))
	copy(out, c.Slots)
	if c.Reversed(round) {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// IndexInRound returns the 0-based position of slot within round, or -1 if
// the slot is not part of the draft.
func (c Config) IndexInRound(round, slot int) int {
	for i, s := range c.RoundOrder(round) {
		if s == slot {
			return i
		}
	}
	return -1
}

// OnClock resolves the turn for an overall pick number.
func (c Config) OnClock(overall int) (Turn, error) {
	if err := c.Validate(); err != nil {
		return Turn{}, err
	}
	if overall < 1 {
		return Turn{}, fmt.Errorf("%w: overall pick %d is before the first pick", ErrConfiguration, overall)
	}
	if overall > c.TotalPicks() {
		return Turn{}, fmt.Errorf("%w: overall pick %d exceeds %d picks", ErrDraftComplete, overall, c.TotalPicks())
	}

	n := len(c.Slots)
	round := (overall + n - 1) / n
	idx := (overall - 1) % n
	return Turn{
		Overall:               overall,
		Round:                 round,
		PickInRound:           idx + 1,
		Slot:                  c.RoundOrder(round)[idx],
		PicksRemainingInRound: n - idx - 1,
	}, nil
}

// Sequence returns the on-clock slot for every pick of the draft.
func (c Config) Sequence() ([]int, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make([]int, 0, c.TotalPicks())
	for r := 1; r <= c.Rounds; r++ {
		out = append(out, c.RoundOrder(r)...)
	}
	return out, nil
}
