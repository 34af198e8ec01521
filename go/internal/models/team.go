package models

import (
	"github.com/google/uuid"
)

// Team is a draft participant occupying one slot of the draft order.
type Team struct {
	ID         uuid.UUID `json:"id"`
	DraftID    uuid.UUID `json:"draft_id"`
	Name       string    `json:"name"`
	Slot       int       `json:"slot"`
	IsBot      bool      `json:"is_bot"`
	ClaimOwner *string   `json:"-"` // bearer token, never serialized
	Strategy   string    `json:"strategy"`
}

// Claimed reports whether a human has claimed the team.
func (t Team) Claimed() bool {
	return t.ClaimOwner != nil
}

// ClaimedBy reports whether token matches the team's claim.
func (t Team) ClaimedBy(token string) bool {
	return t.ClaimOwner != nil && *t.ClaimOwner == token
}
