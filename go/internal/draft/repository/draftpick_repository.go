package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

func (q *queries) LoadPicks(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT draft_id, round, overall, team_id, player_id, made_by, picked_at
		FROM draft_picks WHERE draft_id = $1 ORDER BY overall`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft picks: %w", err)
	}
	defer rows.Close()

	var picks []models.Pick
	for rows.Next() {
		var p models.Pick
		if err := rows.Scan(&p.DraftID, &p.Round, &p.Overall, &p.TeamID, &p.PlayerID, &p.MadeBy, &p.PickedAt); err != nil {
			return nil, fmt.Errorf("failed to scan draft pick: %w", err)
		}
		p.PickedAt = p.PickedAt.UTC()
		picks = append(picks, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate draft picks: %w", err)
	}
	return picks, nil
}

func (q *queries) AppendPick(ctx context.Context, pick models.Pick) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO draft_picks (draft_id, round, overall, team_id, player_id, made_by, picked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		pick.DraftID, pick.Round, pick.Overall, pick.TeamID, pick.PlayerID, string(pick.MadeBy), pick.PickedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create draft pick: %w", mapError(err))
	}
	return nil
}

func (q *queries) DeletePick(ctx context.Context, draftID uuid.UUID, overall int) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM draft_picks WHERE draft_id = $1 AND overall = $2`, draftID, overall)
	if err != nil {
		return fmt.Errorf("failed to delete draft pick: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: pick %d", ErrNotFound, overall)
	}
	return nil
}

// RecordEvents writes to draft_outbox; the insert trigger wakes the relay.
func (q *queries) RecordEvents(ctx context.Context, evs []events.Envelope) error {
	for _, ev := range evs {
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO draft_outbox (id, draft_id, event_type, payload, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			ev.EventID, ev.DraftID, string(ev.EventType),
			pqtype.NullRawMessage{RawMessage: ev.Payload, Valid: len(ev.Payload) > 0},
			ev.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("failed to insert outbox event %s: %w", ev.EventType, mapError(err))
		}
	}
	return nil
}
