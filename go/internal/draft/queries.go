package draft

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcdev12/snakedraft/go/internal/draft/repository"
	"github.com/mcdev12/snakedraft/go/internal/draft/survival"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/mcdev12/snakedraft/go/internal/roster"
)

// snapshot loads the draft, its teams and its ledger in one transaction.
func (a *App) snapshot(ctx context.Context, draftID uuid.UUID) (*state, error) {
	var st *state
	err := a.repo.InTx(ctx, func(tx repository.Store) error {
		var err error
		st, err = loadState(ctx, tx, draftID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// GetOnClock returns the team on the clock. A finished draft returns
// ErrDraftComplete.
func (a *App) GetOnClock(ctx context.Context, draftID uuid.UUID) (*OnClock, error) {
	st, err := a.snapshot(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get on-clock team: %w", err)
	}
	oc, err := a.onClockView(st)
	if err != nil {
		return nil, fmt.Errorf("failed to get on-clock team: %w", err)
	}
	return oc, nil
}

// GetSecondsRemaining reads the pointer and the turn start from the same row.
func (a *App) GetSecondsRemaining(ctx context.Context, draftID uuid.UUID) (*ClockState, error) {
	d, err := a.repo.LoadDraft(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get draft clock: %w", err)
	}
	cs := &ClockState{
		CurrentPickOverall: d.CurrentPickOverall,
		ClockSeconds:       d.Settings.ClockSeconds,
		PickStartedAt:      d.PickStartedAt,
		Complete:           d.Complete(),
	}
	if !cs.Complete {
		cs.SecondsRemaining = a.clock.SecondsRemaining(d.Settings.ClockSeconds, d.PickStartedAt)
		if deadline, ok := a.clock.Deadline(d.Settings.ClockSeconds, d.PickStartedAt); ok {
			cs.DeadlineAt = &deadline
		}
	}
	return cs, nil
}

// GetRoster projects one team's picks onto its roster slots.
func (a *App) GetRoster(ctx context.Context, draftID, teamID uuid.UUID) (*models.Roster, error) {
	st, err := a.snapshot(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}
	if _, ok := findTeam(st.teams, teamID); !ok {
		return nil, fmt.Errorf("failed to get roster: %w: team %s", repository.ErrNotFound, teamID)
	}
	r := roster.Project(teamID, st.ledger.Picks(), a.players, st.draft.Settings.Roster)
	return &r, nil
}

// GetSurvivability estimates, for each player, the chance it is still
// available when the viewer next picks. Already drafted players get 0.
func (a *App) GetSurvivability(ctx context.Context, draftID, viewerTeamID uuid.UUID, playerIDs []string) ([]Survivability, error) {
	st, err := a.snapshot(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get survivability: %w", err)
	}
	viewer, ok := findTeam(st.teams, viewerTeamID)
	if !ok {
		return nil, fmt.Errorf("failed to get survivability: %w: team %s", repository.ErrNotFound, viewerTeamID)
	}
	if st.draft.Complete() {
		return nil, fmt.Errorf("failed to get survivability: %w", ErrDraftComplete)
	}

	out := make([]Survivability, 0, len(playerIDs))
	for _, id := range playerIDs {
		s := Survivability{PlayerID: id}
		if p, ok := a.players.Player(id); ok {
			s.ADP = p.ADP
		}
		s.Result = survival.Estimate(survival.Input{
			Order:          st.order,
			CurrentOverall: st.draft.CurrentPickOverall,
			ViewerSlot:     viewer.Slot,
			ADP:            s.ADP,
		})
		if st.ledger.IsTaken(id) {
			s.Probability = 0
		}
		out = append(out, s)
	}
	return out, nil
}

// GetBoard returns the draft, its teams, the ledger and the turn.
func (a *App) GetBoard(ctx context.Context, draftID uuid.UUID) (*Board, error) {
	st, err := a.snapshot(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return a.board(st), nil
}

func (a *App) board(st *state) *Board {
	b := &Board{
		Draft: *st.draft,
		Teams: st.teams,
		Picks: st.ledger.Picks(),
	}
	if !st.draft.Complete() {
		// Only a broken order config fails here, and CreateDraft rejects those.
		b.OnClock, _ = a.onClockView(st)
	}
	return b
}

func (a *App) onClockView(st *state) (*OnClock, error) {
	turn, team, err := st.onClock(0)
	if err != nil {
		return nil, err
	}
	d := st.draft
	oc := &OnClock{
		Turn:             turn,
		Team:             team,
		SecondsRemaining: a.clock.SecondsRemaining(d.Settings.ClockSeconds, d.PickStartedAt),
		ClockSeconds:     d.Settings.ClockSeconds,
		PickStartedAt:    d.PickStartedAt,
	}
	if deadline, ok := a.clock.Deadline(d.Settings.ClockSeconds, d.PickStartedAt); ok {
		oc.DeadlineAt = &deadline
	}
	return oc, nil
}
