package models

import (
	"github.com/google/uuid"
)

// RosterSlot is where a drafted player lands in the derived roster view.
type RosterSlot string

const (
	RosterSlotStarter RosterSlot = "STARTER"
	RosterSlotFlex    RosterSlot = "FLEX"
	RosterSlotBench   RosterSlot = "BENCH"
)

// RosterEntry places one drafted player.
type RosterEntry struct {
	PlayerID string     `json:"player_id"`
	Position Position   `json:"position,omitempty"`
	Slot     RosterSlot `json:"slot"`
	Overall  int        `json:"overall"`
}

// Roster is the projection of a team's picks onto its lineup. It is derived
// from the ledger on demand and never persisted.
type Roster struct {
	TeamID   uuid.UUID             `json:"team_id"`
	Starters map[Position][]string `json:"starters"`
	Flex     []string              `json:"flex"`
	Bench    []string              `json:"bench"`
	Entries  []RosterEntry         `json:"entries"`
}
