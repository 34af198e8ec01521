package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/snakedraft/go/internal/draft/events"
)

// DraftEvent is the frame written to spectator sockets.
type DraftEvent struct {
	ID        string          `json:"id"`
	DraftID   string          `json:"draft_id"`
	Type      events.Type     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// EventTypeBoardSnapshot is sent once per connection, before any event.
const EventTypeBoardSnapshot events.Type = "BoardSnapshot"

// FromEnvelope converts a domain event into a socket frame.
func FromEnvelope(env events.Envelope) *DraftEvent {
	return &DraftEvent{
		ID:        env.EventID.String(),
		DraftID:   env.DraftID.String(),
		Type:      env.EventType,
		Timestamp: env.Timestamp,
		Data:      env.Payload,
	}
}

// ParseEventPayload decodes the frame data into its payload struct. Unknown
// types return an error.
func ParseEventPayload(event *DraftEvent) (any, error) {
	var payload any
	switch event.Type {
	case events.TypeDraftCreated:
		payload = &events.DraftCreatedPayload{}
	case events.TypeTeamClaimed:
		payload = &events.TeamClaimedPayload{}
	case events.TypePickCommitted:
		payload = &events.PickCommittedPayload{}
	case events.TypePickRetracted:
		payload = &events.PickRetractedPayload{}
	case events.TypePointerUpdated:
		payload = &events.PointerUpdatedPayload{}
	case events.TypeDraftCompleted:
		payload = &events.DraftCompletedPayload{}
	default:
		return nil, fmt.Errorf("unknown event type: %s", event.Type)
	}
	if err := json.Unmarshal(event.Data, payload); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", event.Type, err)
	}
	return payload, nil
}
