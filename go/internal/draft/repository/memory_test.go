package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/snakedraft/go/internal/draft/events"
)

func TestMemory_Contract(t *testing.T) {
	runContract(t, func(t *testing.T) Repository { return NewMemory() })
}

func TestMemory_EventsCommitWithTransaction(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	d, teams := seedDraft(t, repo, 2)

	ev, err := events.New(d.ID, events.TypePickCommitted, testNow, events.PickCommittedPayload{PlayerID: "p1"})
	require.NoError(t, err)

	err = repo.InTx(ctx, func(tx Store) error {
		require.NoError(t, tx.RecordEvents(ctx, []events.Envelope{ev}))
		return tx.AppendPick(ctx, pickFor(d, teams[0], 1, "p1"))
	})
	require.NoError(t, err)
	require.Len(t, repo.Events(d.ID), 1)
	assert.Equal(t, ev.EventID, repo.Events(d.ID)[0].EventID)

	err = repo.InTx(ctx, func(tx Store) error {
		require.NoError(t, tx.RecordEvents(ctx, []events.Envelope{ev}))
		return tx.AppendPick(ctx, pickFor(d, teams[1], 1, "p2"))
	})
	require.ErrorIs(t, err, ErrConflict)
	assert.Len(t, repo.Events(d.ID), 1)
}

func TestMemory_LoadsAreCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	d, _ := seedDraft(t, repo, 2)

	teams, err := repo.LoadTeams(ctx, d.ID)
	require.NoError(t, err)
	teams[0].Name = "mutated"

	again, err := repo.LoadTeams(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Team", again[0].Name)
}

func TestMemory_CanceledContext(t *testing.T) {
	repo := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.InTx(ctx, func(tx Store) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
