package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// ErrNotPending is returned when an outbox row is missing or already sent.
var ErrNotPending = errors.New("outbox event not pending")

// Repository reads and acknowledges draft_outbox rows.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const outboxColumns = `id, draft_id, event_type, payload, created_at, sent_at`

// FetchByID returns the unsent row with the given id.
func (r *Repository) FetchByID(ctx context.Context, id uuid.UUID) (*OutboxEvent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+outboxColumns+`
		FROM draft_outbox
		WHERE id = $1 AND sent_at IS NULL`, id)

	ev, err := scanOutboxEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch outbox event %s: %w", id, err)
	}
	return ev, nil
}

// FetchUnsent returns up to limit unsent rows, oldest first.
func (r *Repository) FetchUnsent(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+outboxColumns+`
		FROM draft_outbox
		WHERE sent_at IS NULL
		ORDER BY created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}
	defer rows.Close()

	var out []OutboxEvent
	for rows.Next() {
		ev, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		out = append(out, *ev)
	}
	return out, rows.Err()
}

// MarkSent stamps sent_at. Rows already sent are left alone.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE draft_outbox SET sent_at = now()
		WHERE id = $1 AND sent_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event %s sent: %w", id, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOutboxEvent(s scanner) (*OutboxEvent, error) {
	var (
		ev      OutboxEvent
		payload pqtype.NullRawMessage
		sentAt  sql.NullTime
	)
	if err := s.Scan(&ev.ID, &ev.DraftID, &ev.EventType, &payload, &ev.CreatedAt, &sentAt); err != nil {
		return nil, err
	}
	if payload.Valid {
		ev.Payload = payload.RawMessage
	}
	ev.CreatedAt = ev.CreatedAt.UTC()
	if sentAt.Valid {
		t := sentAt.Time.UTC()
		ev.SentAt = &t
	}
	return &ev, nil
}

var _ Source = (*Repository)(nil)
