package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

var testNow = time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)

func newDraft(teamCount int) (models.Draft, []models.Team) {
	d := models.Draft{
		ID:        uuid.New(),
		TeamCount: teamCount,
		Settings: models.DraftSettings{
			Format:       models.DraftFormatSnake,
			Rounds:       2,
			ClockSeconds: 60,
			Roster:       models.DefaultRosterRequirements(),
		},
		CurrentPickOverall: 1,
		PickStartedAt:      testNow,
		CreatedAt:          testNow,
		UpdatedAt:          testNow,
	}
	teams := make([]models.Team, teamCount)
	for i := range teams {
		teams[i] = models.Team{
			ID:       uuid.New(),
			DraftID:  d.ID,
			Name:     "Team",
			Slot:     i + 1,
			Strategy: "need-aware",
		}
	}
	return d, teams
}

func seedDraft(t *testing.T, repo Repository, teamCount int) (models.Draft, []models.Team) {
	t.Helper()
	d, teams := newDraft(teamCount)
	require.NoError(t, repo.CreateDraft(context.Background(), d, teams))
	return d, teams
}

func pickFor(d models.Draft, team models.Team, overall int, player string) models.Pick {
	return models.Pick{
		DraftID:  d.ID,
		Round:    1,
		Overall:  overall,
		TeamID:   team.ID,
		PlayerID: player,
		MadeBy:   models.MadeByHuman,
		PickedAt: testNow,
	}
}

// runContract exercises the Repository contract shared by every backend.
func runContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("load created draft", func(t *testing.T) {
		repo := newRepo(t)
		d, teams := seedDraft(t, repo, 3)

		got, err := repo.LoadDraft(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, d.TeamCount, got.TeamCount)
		assert.Equal(t, d.Settings, got.Settings)
		assert.Equal(t, 1, got.CurrentPickOverall)
		assert.True(t, got.PickStartedAt.Equal(testNow))

		gotTeams, err := repo.LoadTeams(ctx, d.ID)
		require.NoError(t, err)
		require.Len(t, gotTeams, 3)
		for i, team := range gotTeams {
			assert.Equal(t, teams[i].ID, team.ID)
			assert.Equal(t, i+1, team.Slot)
			assert.Nil(t, team.ClaimOwner)
		}
	})

	t.Run("missing draft", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.LoadDraft(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.LoadTeams(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("append rejects duplicate overall and player", func(t *testing.T) {
		repo := newRepo(t)
		d, teams := seedDraft(t, repo, 2)

		require.NoError(t, repo.AppendPick(ctx, pickFor(d, teams[0], 1, "p1")))
		assert.ErrorIs(t, repo.AppendPick(ctx, pickFor(d, teams[1], 1, "p2")), ErrConflict)
		assert.ErrorIs(t, repo.AppendPick(ctx, pickFor(d, teams[1], 2, "p1")), ErrConflict)

		picks, err := repo.LoadPicks(ctx, d.ID)
		require.NoError(t, err)
		require.Len(t, picks, 1)
		assert.Equal(t, "p1", picks[0].PlayerID)
	})

	t.Run("pointer update is conditional", func(t *testing.T) {
		repo := newRepo(t)
		d, _ := seedDraft(t, repo, 2)
		later := testNow.Add(time.Minute)

		require.NoError(t, repo.UpdateDraftPointer(ctx, d.ID, 1, 2, later))
		assert.ErrorIs(t, repo.UpdateDraftPointer(ctx, d.ID, 1, 2, later), ErrConflict)

		got, err := repo.LoadDraft(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.CurrentPickOverall)
		assert.True(t, got.PickStartedAt.Equal(later))
	})

	t.Run("delete pick", func(t *testing.T) {
		repo := newRepo(t)
		d, teams := seedDraft(t, repo, 2)
		require.NoError(t, repo.AppendPick(ctx, pickFor(d, teams[0], 1, "p1")))

		require.NoError(t, repo.DeletePick(ctx, d.ID, 1))
		assert.ErrorIs(t, repo.DeletePick(ctx, d.ID, 1), ErrNotFound)

		picks, err := repo.LoadPicks(ctx, d.ID)
		require.NoError(t, err)
		assert.Empty(t, picks)
	})

	t.Run("claim compare and set", func(t *testing.T) {
		repo := newRepo(t)
		d, teams := seedDraft(t, repo, 2)

		require.NoError(t, repo.SetTeamClaim(ctx, teams[0].ID, "alice", nil))
		assert.ErrorIs(t, repo.SetTeamClaim(ctx, teams[0].ID, "bob", nil), ErrConflict)
		assert.ErrorIs(t, repo.SetTeamClaim(ctx, uuid.New(), "bob", nil), ErrNotFound)

		gotTeams, err := repo.LoadTeams(ctx, d.ID)
		require.NoError(t, err)
		require.NotNil(t, gotTeams[0].ClaimOwner)
		assert.Equal(t, "alice", *gotTeams[0].ClaimOwner)
	})

	t.Run("failed transaction leaves no trace", func(t *testing.T) {
		repo := newRepo(t)
		d, teams := seedDraft(t, repo, 2)

		err := repo.InTx(ctx, func(tx Store) error {
			if err := tx.AppendPick(ctx, pickFor(d, teams[0], 1, "p1")); err != nil {
				return err
			}
			return tx.UpdateDraftPointer(ctx, d.ID, 5, 2, testNow)
		})
		require.ErrorIs(t, err, ErrConflict)

		picks, err := repo.LoadPicks(ctx, d.ID)
		require.NoError(t, err)
		assert.Empty(t, picks)
	})

	t.Run("create rolls back with its transaction", func(t *testing.T) {
		repo := newRepo(t)
		d, teams := newDraft(2)

		err := repo.InTx(ctx, func(tx Store) error {
			if err := tx.CreateDraft(ctx, d, teams); err != nil {
				return err
			}
			if err := tx.SetTeamClaim(ctx, teams[0].ID, "alice", nil); err != nil {
				return err
			}
			got, err := tx.LoadTeams(ctx, d.ID)
			require.NoError(t, err)
			require.Len(t, got, 2)
			return errors.New("outbox unavailable")
		})
		require.EqualError(t, err, "outbox unavailable")

		_, err = repo.LoadDraft(ctx, d.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.SetTeamClaim(ctx, teams[0].ID, "alice", nil), ErrNotFound)

		require.NoError(t, repo.CreateDraft(ctx, d, teams), "ids are free again after rollback")
	})

	t.Run("record events inside transaction", func(t *testing.T) {
		repo := newRepo(t)
		d, _ := seedDraft(t, repo, 2)

		ev, err := events.New(d.ID, events.TypeDraftCreated, testNow, events.DraftCreatedPayload{DraftID: d.ID.String()})
		require.NoError(t, err)
		require.NoError(t, repo.InTx(ctx, func(tx Store) error {
			return tx.RecordEvents(ctx, []events.Envelope{ev})
		}))
	})

	t.Run("active drafts exclude completed", func(t *testing.T) {
		repo := newRepo(t)
		active, _ := seedDraft(t, repo, 1)
		done, _ := seedDraft(t, repo, 1)
		require.NoError(t, repo.UpdateDraftPointer(ctx, done.ID, 1, done.TotalPicks()+1, testNow))

		ids, err := repo.ListActiveDrafts(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, active.ID)
		assert.NotContains(t, ids, done.ID)
	})
}
