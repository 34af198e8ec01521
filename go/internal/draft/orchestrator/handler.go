package orchestrator

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/snakedraft/go/internal/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/events"
)

// Notify implements draft.Notifier. Any event that can move the pointer,
// restart the clock or change who is on the clock reschedules the draft.
// It never blocks, so it is safe to call from inside an auto-pick.
func (o *Orchestrator) Notify(_ context.Context, evs []events.Envelope) error {
	for _, ev := range evs {
		o.HandleDomainEvent(ev)
	}
	return nil
}

var _ draft.Notifier = (*Orchestrator)(nil)

// HandleDomainEvent routes one event.
func (o *Orchestrator) HandleDomainEvent(ev events.Envelope) {
	switch ev.EventType {
	case events.TypeDraftCreated, events.TypePointerUpdated, events.TypeTeamClaimed:
		o.markDirty(ev.DraftID)

	case events.TypeDraftCompleted:
		log.Info().
			Str("draft_id", ev.DraftID.String()).
			Msg("draft completed - cancelling timer")
		o.cancelTimer(ev.DraftID)

	case events.TypePickCommitted, events.TypePickRetracted:
		// followed by a PointerUpdated in the same batch

	default:
		log.Warn().
			Str("event_type", string(ev.EventType)).
			Str("draft_id", ev.DraftID.String()).
			Msg("unknown event type - ignoring")
	}
}
