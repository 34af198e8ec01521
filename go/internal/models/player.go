package models

// Position is a fantasy-relevant player position.
type Position string

const (
	PositionQB Position = "QB"
	PositionRB Position = "RB"
	PositionWR Position = "WR"
	PositionTE Position = "TE"
)

// Positions lists every position in display order.
var Positions = []Position{PositionQB, PositionRB, PositionWR, PositionTE}

// FlexEligible reports whether the position may fill the flexible slot.
func (p Position) FlexEligible() bool {
	return p == PositionRB || p == PositionWR || p == PositionTE
}

// Valid reports whether p is a known position.
func (p Position) Valid() bool {
	switch p {
	case PositionQB, PositionRB, PositionWR, PositionTE:
		return true
	}
	return false
}

// Player is an external, immutable reference supplied by the player catalog.
type Player struct {
	ID       string   `json:"id" yaml:"id"`
	FullName string   `json:"full_name" yaml:"full_name"`
	Position Position `json:"position" yaml:"position"`
	NFLTeam  string   `json:"nfl_team" yaml:"nfl_team"`
	ByeWeek  int      `json:"bye_week,omitempty" yaml:"bye_week,omitempty"`
	ADP      *float64 `json:"adp,omitempty" yaml:"adp,omitempty"` // nil when the feed has no rank
}
