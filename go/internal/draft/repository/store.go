package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

var (
	// ErrNotFound is returned when a draft or team does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a conditional write loses to a concurrent
	// writer: a moved pointer, a taken overall or player, or a changed claim.
	ErrConflict = errors.New("conflict")
)

// Store is the storage contract the turn controller runs against. Inside
// Repository.InTx every call observes one transactional snapshot.
type Store interface {
	// CreateDraft inserts a draft on its first pick together with its teams.
	CreateDraft(ctx context.Context, draft models.Draft, teams []models.Team) error
	LoadDraft(ctx context.Context, draftID uuid.UUID) (*models.Draft, error)
	LoadTeams(ctx context.Context, draftID uuid.UUID) ([]models.Team, error)
	// LoadPicks returns the ledger in overall order.
	LoadPicks(ctx context.Context, draftID uuid.UUID) ([]models.Pick, error)
	// AppendPick fails with ErrConflict when (draft, overall) or
	// (draft, player) already exists.
	AppendPick(ctx context.Context, pick models.Pick) error
	// UpdateDraftPointer moves the pointer only if it still equals
	// expectedOverall, otherwise ErrConflict.
	UpdateDraftPointer(ctx context.Context, draftID uuid.UUID, expectedOverall, overall int, pickStartedAt time.Time) error
	DeletePick(ctx context.Context, draftID uuid.UUID, overall int) error
	// SetTeamClaim sets the claim only if the current claim equals
	// expectedPriorClaim (nil meaning unclaimed), otherwise ErrConflict.
	SetTeamClaim(ctx context.Context, teamID uuid.UUID, token string, expectedPriorClaim *string) error
	// RecordEvents stores events for relay alongside the state change.
	RecordEvents(ctx context.Context, evs []events.Envelope) error
}

// Repository adds listing and transactional scope to Store.
type Repository interface {
	Store
	ListActiveDrafts(ctx context.Context) ([]uuid.UUID, error)
	// InTx runs fn atomically: every write inside fn commits or none do.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

var (
	_ Repository = (*Postgres)(nil)
	_ Repository = (*Memory)(nil)
)
