package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

type draftState struct {
	draft  models.Draft
	teams  []models.Team
	picks  []models.Pick
	events []events.Envelope
}

func (s *draftState) clone() *draftState {
	c := &draftState{
		draft:  s.draft,
		teams:  make([]models.Team, len(s.teams)),
		picks:  make([]models.Pick, len(s.picks)),
		events: make([]events.Envelope, len(s.events)),
	}
	copy(c.teams, s.teams)
	copy(c.picks, s.picks)
	copy(c.events, s.events)
	return c
}

// Memory is an in-process Repository. Transactions hold a single lock and
// stage copies of the drafts they touch, so a failed fn leaves no trace.
type Memory struct {
	mu        sync.Mutex
	drafts    map[uuid.UUID]*draftState
	teamDraft map[uuid.UUID]uuid.UUID
}

// NewMemory returns an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		drafts:    make(map[uuid.UUID]*draftState),
		teamDraft: make(map[uuid.UUID]uuid.UUID),
	}
}

// InTx implements Repository.
func (m *Memory) InTx(ctx context.Context, fn func(tx Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{
		m:         m,
		staged:    make(map[uuid.UUID]*draftState),
		teamDraft: make(map[uuid.UUID]uuid.UUID),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, s := range tx.staged {
		m.drafts[id] = s
	}
	for teamID, draftID := range tx.teamDraft {
		m.teamDraft[teamID] = draftID
	}
	return nil
}

// CreateDraft implements Repository.
func (m *Memory) CreateDraft(ctx context.Context, draft models.Draft, teams []models.Team) error {
	return m.InTx(ctx, func(tx Store) error { return tx.CreateDraft(ctx, draft, teams) })
}

// ListActiveDrafts implements Repository.
func (m *Memory) ListActiveDrafts(ctx context.Context) ([]uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var states []*draftState
	for _, s := range m.drafts {
		if !s.draft.Complete() {
			states = append(states, s)
		}
	}
	sort.Slice(states, func(i, j int) bool {
		return states[i].draft.CreatedAt.Before(states[j].draft.CreatedAt)
	})
	ids := make([]uuid.UUID, 0, len(states))
	for _, s := range states {
		ids = append(ids, s.draft.ID)
	}
	return ids, nil
}

// Events returns the events recorded for a draft, oldest first.
func (m *Memory) Events(draftID uuid.UUID) []events.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.drafts[draftID]
	if !ok {
		return nil
	}
	out := make([]events.Envelope, len(s.events))
	copy(out, s.events)
	return out
}

func (m *Memory) LoadDraft(ctx context.Context, draftID uuid.UUID) (d *models.Draft, err error) {
	err = m.InTx(ctx, func(tx Store) error {
		d, err = tx.LoadDraft(ctx, draftID)
		return err
	})
	return d, err
}

func (m *Memory) LoadTeams(ctx context.Context, draftID uuid.UUID) (teams []models.Team, err error) {
	err = m.InTx(ctx, func(tx Store) error {
		teams, err = tx.LoadTeams(ctx, draftID)
		return err
	})
	return teams, err
}

func (m *Memory) LoadPicks(ctx context.Context, draftID uuid.UUID) (picks []models.Pick, err error) {
	err = m.InTx(ctx, func(tx Store) error {
		picks, err = tx.LoadPicks(ctx, draftID)
		return err
	})
	return picks, err
}

func (m *Memory) AppendPick(ctx context.Context, pick models.Pick) error {
	return m.InTx(ctx, func(tx Store) error { return tx.AppendPick(ctx, pick) })
}

func (m *Memory) UpdateDraftPointer(ctx context.Context, draftID uuid.UUID, expectedOverall, overall int, pickStartedAt time.Time) error {
	return m.InTx(ctx, func(tx Store) error {
		return tx.UpdateDraftPointer(ctx, draftID, expectedOverall, overall, pickStartedAt)
	})
}

func (m *Memory) DeletePick(ctx context.Context, draftID uuid.UUID, overall int) error {
	return m.InTx(ctx, func(tx Store) error { return tx.DeletePick(ctx, draftID, overall) })
}

func (m *Memory) SetTeamClaim(ctx context.Context, teamID uuid.UUID, token string, expectedPriorClaim *string) error {
	return m.InTx(ctx, func(tx Store) error { return tx.SetTeamClaim(ctx, teamID, token, expectedPriorClaim) })
}

func (m *Memory) RecordEvents(ctx context.Context, evs []events.Envelope) error {
	return m.InTx(ctx, func(tx Store) error { return tx.RecordEvents(ctx, evs) })
}

// memTx runs with Memory.mu held. Drafts created inside it live only in
// staged and teamDraft until commit.
type memTx struct {
	m         *Memory
	staged    map[uuid.UUID]*draftState
	teamDraft map[uuid.UUID]uuid.UUID
}

func (t *memTx) draftOf(teamID uuid.UUID) (uuid.UUID, bool) {
	if id, ok := t.teamDraft[teamID]; ok {
		return id, true
	}
	id, ok := t.m.teamDraft[teamID]
	return id, ok
}

func (t *memTx) CreateDraft(_ context.Context, draft models.Draft, teams []models.Team) error {
	if _, err := t.read(draft.ID); err == nil {
		return fmt.Errorf("%w: draft %s already exists", ErrConflict, draft.ID)
	}
	for _, team := range teams {
		if _, exists := t.draftOf(team.ID); exists {
			return fmt.Errorf("%w: team %s already exists", ErrConflict, team.ID)
		}
	}
	s := &draftState{draft: draft, teams: make([]models.Team, len(teams))}
	copy(s.teams, teams)
	sort.Slice(s.teams, func(i, j int) bool { return s.teams[i].Slot < s.teams[j].Slot })
	t.staged[draft.ID] = s
	for _, team := range teams {
		t.teamDraft[team.ID] = draft.ID
	}
	return nil
}

func (t *memTx) read(draftID uuid.UUID) (*draftState, error) {
	if s, ok := t.staged[draftID]; ok {
		return s, nil
	}
	s, ok := t.m.drafts[draftID]
	if !ok {
		return nil, fmt.Errorf("%w: draft %s", ErrNotFound, draftID)
	}
	return s, nil
}

func (t *memTx) write(draftID uuid.UUID) (*draftState, error) {
	if s, ok := t.staged[draftID]; ok {
		return s, nil
	}
	s, err := t.read(draftID)
	if err != nil {
		return nil, err
	}
	c := s.clone()
	t.staged[draftID] = c
	return c, nil
}

func (t *memTx) LoadDraft(_ context.Context, draftID uuid.UUID) (*models.Draft, error) {
	s, err := t.read(draftID)
	if err != nil {
		return nil, err
	}
	d := s.draft
	return &d, nil
}

func (t *memTx) LoadTeams(_ context.Context, draftID uuid.UUID) ([]models.Team, error) {
	s, err := t.read(draftID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Team, len(s.teams))
	copy(out, s.teams)
	return out, nil
}

func (t *memTx) LoadPicks(_ context.Context, draftID uuid.UUID) ([]models.Pick, error) {
	s, err := t.read(draftID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Pick, len(s.picks))
	copy(out, s.picks)
	return out, nil
}

func (t *memTx) AppendPick(_ context.Context, pick models.Pick) error {
	s, err := t.write(pick.DraftID)
	if err != nil {
		return err
	}
	for _, p := range s.picks {
		if p.Overall == pick.Overall {
			return fmt.Errorf("%w: overall %d already picked", ErrConflict, pick.Overall)
		}
		if p.PlayerID == pick.PlayerID {
			return fmt.Errorf("%w: player %s already picked", ErrConflict, pick.PlayerID)
		}
	}
	s.picks = append(s.picks, pick)
	sort.Slice(s.picks, func(i, j int) bool { return s.picks[i].Overall < s.picks[j].Overall })
	return nil
}

func (t *memTx) UpdateDraftPointer(_ context.Context, draftID uuid.UUID, expectedOverall, overall int, pickStartedAt time.Time) error {
	s, err := t.write(draftID)
	if err != nil {
		return err
	}
	if s.draft.CurrentPickOverall != expectedOverall {
		return fmt.Errorf("%w: pointer is %d, expected %d", ErrConflict, s.draft.CurrentPickOverall, expectedOverall)
	}
	s.draft.CurrentPickOverall = overall
	s.draft.PickStartedAt = pickStartedAt
	s.draft.UpdatedAt = pickStartedAt
	return nil
}

func (t *memTx) DeletePick(_ context.Context, draftID uuid.UUID, overall int) error {
	s, err := t.write(draftID)
	if err != nil {
		return err
	}
	for i, p := range s.picks {
		if p.Overall == overall {
			s.picks = append(s.picks[:i], s.picks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: pick %d", ErrNotFound, overall)
}

func (t *memTx) SetTeamClaim(_ context.Context, teamID uuid.UUID, token string, expectedPriorClaim *string) error {
	draftID, ok := t.draftOf(teamID)
	if !ok {
		return fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}
	s, err := t.write(draftID)
	if err != nil {
		return err
	}
	for i := range s.teams {
		if s.teams[i].ID != teamID {
			continue
		}
		cur := s.teams[i].ClaimOwner
		if (cur == nil) != (expectedPriorClaim == nil) || (cur != nil && *cur != *expectedPriorClaim) {
			return fmt.Errorf("%w: claim on team %s changed", ErrConflict, teamID)
		}
		tok := token
		s.teams[i].ClaimOwner = &tok
		return nil
	}
	return fmt.Errorf("%w: team %s", ErrNotFound, teamID)
}

func (t *memTx) RecordEvents(_ context.Context, evs []events.Envelope) error {
	for _, ev := range evs {
		s, err := t.write(ev.DraftID)
		if err != nil {
			return err
		}
		s.events = append(s.events, ev)
	}
	return nil
}
