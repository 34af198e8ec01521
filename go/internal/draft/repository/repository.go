package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/mcdev12/snakedraft/go/internal/sqlutil"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements Store against one connection or transaction.
type queries struct {
	db DBTX
	// lockDraft makes LoadDraft take the draft row lock.
	lockDraft bool
}

// Postgres is the database/sql implementation of Repository.
type Postgres struct {
	*queries
	db *sql.DB
}

// NewPostgres wraps an open lib/pq database handle.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{
		queries: &queries{db: db},
		db:      db,
	}
}

// InTx implements Repository. LoadDraft locks the draft row first, so the
// teams and picks read after it in read committed belong to the same state.
func (r *Postgres) InTx(ctx context.Context, fn func(tx Store) error) error {
	return sqlutil.Run(ctx, r.db,
		func(tx *sql.Tx) *queries { return &queries{db: tx, lockDraft: true} },
		func(q *queries) error { return fn(q) },
	)
}

// CreateDraft inserts the draft and its teams in one transaction.
func (r *Postgres) CreateDraft(ctx context.Context, draft models.Draft, teams []models.Team) error {
	return r.InTx(ctx, func(tx Store) error {
		return tx.CreateDraft(ctx, draft, teams)
	})
}

func (q *queries) CreateDraft(ctx context.Context, draft models.Draft, teams []models.Team) error {
	settings, err := json.Marshal(draft.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal draft settings: %w", err)
	}

	_, err = q.db.ExecContext(ctx, `
		INSERT INTO drafts (id, team_count, settings, current_pick_overall, pick_started_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		draft.ID, draft.TeamCount,
		pqtype.NullRawMessage{RawMessage: settings, Valid: true},
		draft.CurrentPickOverall, draft.PickStartedAt, draft.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create draft: %w", mapError(err))
	}
	for _, t := range teams {
		_, err := q.db.ExecContext(ctx, `
			INSERT INTO draft_teams (id, draft_id, name, slot, is_bot, claim_owner, strategy)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			t.ID, draft.ID, t.Name, t.Slot, t.IsBot, sqlutil.ToSqlString(t.ClaimOwner), t.Strategy,
		)
		if err != nil {
			return fmt.Errorf("failed to create team %d: %w", t.Slot, mapError(err))
		}
	}
	return nil
}

// ListActiveDrafts returns drafts whose pointer has not passed the last pick.
func (r *Postgres) ListActiveDrafts(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id FROM drafts
		WHERE current_pick_overall <= team_count * COALESCE((settings->>'rounds')::int, 0)
		ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active drafts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan draft id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *queries) LoadDraft(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	var (
		d        models.Draft
		settings pqtype.NullRawMessage
	)
	query := `
		SELECT id, team_count, settings, current_pick_overall, pick_started_at, created_at, updated_at
		FROM drafts WHERE id = $1`
	if q.lockDraft {
		query += " FOR UPDATE"
	}
	err := q.db.QueryRowContext(ctx, query, draftID).Scan(&d.ID, &d.TeamCount, &settings, &d.CurrentPickOverall, &d.PickStartedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: draft %s", ErrNotFound, draftID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}
	if settings.Valid {
		if err := json.Unmarshal(settings.RawMessage, &d.Settings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal draft settings: %w", err)
		}
	}
	d.PickStartedAt = d.PickStartedAt.UTC()
	return &d, nil
}

func (q *queries) LoadTeams(ctx context.Context, draftID uuid.UUID) ([]models.Team, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, draft_id, name, slot, is_bot, claim_owner, strategy
		FROM draft_teams WHERE draft_id = $1 ORDER BY slot`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var (
			t     models.Team
			claim sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.DraftID, &t.Name, &t.Slot, &t.IsBot, &claim, &t.Strategy); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		t.ClaimOwner = sqlutil.FromSqlStringPtr(claim)
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate teams: %w", err)
	}
	if len(teams) == 0 {
		if _, err := q.LoadDraft(ctx, draftID); err != nil {
			return nil, err
		}
	}
	return teams, nil
}

func (q *queries) UpdateDraftPointer(ctx context.Context, draftID uuid.UUID, expectedOverall, overall int, pickStartedAt time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE drafts
		SET current_pick_overall = $3, pick_started_at = $4, updated_at = $4
		WHERE id = $1 AND current_pick_overall = $2`,
		draftID, expectedOverall, overall, pickStartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update draft pointer: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: draft %s pointer moved from %d", ErrConflict, draftID, expectedOverall)
	}
	return nil
}

func (q *queries) SetTeamClaim(ctx context.Context, teamID uuid.UUID, token string, expectedPriorClaim *string) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE draft_teams SET claim_owner = $2
		WHERE id = $1 AND claim_owner IS NOT DISTINCT FROM $3`,
		teamID, token, sqlutil.ToSqlString(expectedPriorClaim),
	)
	if err != nil {
		return fmt.Errorf("failed to set team claim: %w", mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		var exists bool
		if err := q.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM draft_teams WHERE id = $1)`, teamID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check team: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: team %s", ErrNotFound, teamID)
		}
		return fmt.Errorf("%w: claim on team %s changed", ErrConflict, teamID)
	}
	return nil
}

const uniqueViolation = "23505"

// mapError turns Postgres constraint violations into ErrConflict. It
// understands both lib/pq and pgx driver errors.
func mapError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}
