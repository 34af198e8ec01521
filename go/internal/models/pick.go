package models

import (
	"github.com/google/uuid"
	"time"
)

// MadeBy records which kind of actor committed a pick.
type MadeBy string

const (
	MadeByHuman        MadeBy = "human"
	MadeByBot          MadeBy = "bot"
	MadeByCommissioner MadeBy = "commissioner"
)

// Pick is a single committed entry in a draft's pick ledger.
type Pick struct {
	DraftID  uuid.UUID `json:"draft_id"`
	Round    int       `json:"round"`
	Overall  int       `json:"overall"` // 1-based, unique per draft
	TeamID   uuid.UUID `json:"team_id"`
	PlayerID string    `json:"player_id"`
	MadeBy   MadeBy    `json:"made_by"`
	PickedAt time.Time `json:"picked_at"`
}
