package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names a draft domain event. It doubles as the JetStream subject suffix.
type Type string

const (
	TypeDraftCreated   Type = "DraftCreated"
	TypeTeamClaimed    Type = "TeamClaimed"
	TypePickCommitted  Type = "PickCommitted"
	TypePickRetracted  Type = "PickRetracted"
	TypePointerUpdated Type = "PointerUpdated"
	TypeDraftCompleted Type = "DraftCompleted"
)

// Envelope is the wire shape shared by the outbox, the bus and the gateway.
type Envelope struct {
	EventID   uuid.UUID       `json:"eventId"`
	EventType Type            `json:"eventType"`
	DraftID   uuid.UUID       `json:"draftId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// New marshals payload into a fresh envelope.
func New(draftID uuid.UUID, t Type, at time.Time, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Envelope{
		EventID:   uuid.New(),
		EventType: t,
		DraftID:   draftID,
		Timestamp: at.UTC(),
		Payload:   data,
	}, nil
}

// Decode unmarshals the payload into v.
func (e Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", e.EventType, err)
	}
	return nil
}

// DraftCreatedPayload is the payload for a DraftCreated event
type DraftCreatedPayload struct {
	DraftID      string    `json:"draft_id"`
	Format       string    `json:"format"`
	TeamCount    int       `json:"team_count"`
	Rounds       int       `json:"rounds"`
	ClockSeconds int       `json:"clock_seconds"`
	CreatedAt    time.Time `json:"created_at"`
}

// TeamClaimedPayload is the payload for a TeamClaimed event. The claim
// token itself is never published.
type TeamClaimedPayload struct {
	TeamID    string    `json:"team_id"`
	Slot      int       `json:"slot"`
	ClaimedAt time.Time `json:"claimed_at"`
}

// PickCommittedPayload is the payload for a PickCommitted event
type PickCommittedPayload struct {
	TeamID   string    `json:"team_id"`
	PlayerID string    `json:"player_id"`
	Round    int       `json:"round"`
	Overall  int       `json:"overall"`
	MadeBy   string    `json:"made_by"`
	PickedAt time.Time `json:"picked_at"`
}

// PickRetractedPayload is the payload for a PickRetracted event
type PickRetractedPayload struct {
	TeamID      string    `json:"team_id"`
	PlayerID    string    `json:"player_id"`
	Round       int       `json:"round"`
	Overall     int       `json:"overall"`
	RetractedAt time.Time `json:"retracted_at"`
}

// PointerUpdatedPayload is the payload for a PointerUpdated event
type PointerUpdatedPayload struct {
	CurrentPickOverall int        `json:"current_pick_overall"`
	Round              int        `json:"round,omitempty"`
	Slot               int        `json:"slot,omitempty"`
	TeamID             string     `json:"team_id,omitempty"`
	PickStartedAt      time.Time  `json:"pick_started_at"`
	ClockSeconds       int        `json:"clock_seconds"`
	DeadlineAt         *time.Time `json:"deadline_at,omitempty"`
	Complete           bool       `json:"complete"`
}

// DraftCompletedPayload is the payload for a DraftCompleted event
type DraftCompletedPayload struct {
	TotalPicks  int       `json:"total_picks"`
	CompletedAt time.Time `json:"completed_at"`
}
