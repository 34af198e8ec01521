package models

import (
	"github.com/google/uuid"
	"time"
)

// DraftFormat defines how the pick order moves between rounds.
type DraftFormat string

const (
	DraftFormatSnake   DraftFormat = "snake"
	DraftFormatLinear  DraftFormat = "linear"
	DraftFormatAuction DraftFormat = "auction"
)

// RosterRequirements holds the per-position starter minimums plus the
// flexible slot count and bench size.
type RosterRequirements struct {
	QB    int `json:"qb" yaml:"qb"`
	RB    int `json:"rb" yaml:"rb"`
	WR    int `json:"wr" yaml:"wr"`
	TE    int `json:"te" yaml:"te"`
	Flex  int `json:"flex" yaml:"flex"`
	Bench int `json:"bench" yaml:"bench"`
}

// Starters returns the starter minimum for a native position.
func (r RosterRequirements) Starters(pos Position) int {
	switch pos {
	case PositionQB:
		return r.QB
	case PositionRB:
		return r.RB
	case PositionWR:
		return r.WR
	case PositionTE:
		return r.TE
	}
	return 0
}

// Total is the number of roster spots, bench included.
func (r RosterRequirements) Total() int {
	return r.QB + r.RB + r.WR + r.TE + r.Flex + r.Bench
}

// DefaultRosterRequirements mirrors a standard one-QB PPR league.
func DefaultRosterRequirements() RosterRequirements {
	return RosterRequirements{QB: 1, RB: 2, WR: 2, TE: 1, Flex: 1, Bench: 6}
}

// DraftSettings holds JSONB configuration for drafts.
type DraftSettings struct {
	Format             DraftFormat        `json:"format" yaml:"format"`
	Rounds             int                `json:"rounds" yaml:"rounds"`
	ClockSeconds       int                `json:"clock_seconds" yaml:"clock_seconds"`
	ThirdRoundReversal bool               `json:"third_round_reversal,omitempty" yaml:"third_round_reversal,omitempty"`
	RequireClaim       bool               `json:"require_claim" yaml:"require_claim"`
	Roster             RosterRequirements `json:"roster" yaml:"roster"`
}

// Draft is the aggregate root of a draft session.
type Draft struct {
	ID                 uuid.UUID     `json:"id"`
	TeamCount          int           `json:"team_count"`
	Settings           DraftSettings `json:"settings"`
	CurrentPickOverall int           `json:"current_pick_overall"`
	PickStartedAt      time.Time     `json:"pick_started_at"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// TotalPicks is the number of picks in a completed draft.
func (d Draft) TotalPicks() int {
	return d.TeamCount * d.Settings.Rounds
}

// Complete reports whether the pointer has moved past the final pick.
func (d Draft) Complete() bool {
	return d.CurrentPickOverall > d.TotalPicks()
}
