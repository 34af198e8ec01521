package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/snakedraft/go/internal/draft/events"
)

// OutboxEvent is one row of draft_outbox.
type OutboxEvent struct {
	ID        uuid.UUID       `json:"id"`
	DraftID   uuid.UUID       `json:"draft_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}

// Envelope converts the row into the message published on the bus.
func (e OutboxEvent) Envelope() events.Envelope {
	return events.Envelope{
		EventID:   e.ID,
		EventType: events.Type(e.EventType),
		DraftID:   e.DraftID,
		Timestamp: e.CreatedAt.UTC(),
		Payload:   e.Payload,
	}
}
