package ledger

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

func pick(overall int, team uuid.UUID, player string) models.Pick {
	return models.Pick{Overall: overall, Round: 1, TeamID: team, PlayerID: player, MadeBy: models.MadeByHuman}
}

func TestLedger_AppendAndTaken(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	l, err := New(nil)
	require.NoError(t, err)

	require.NoError(t, l.Append(pick(1, a, "P1")))
	require.NoError(t, l.Append(pick(2, b, "P2")))

	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 3, l.Next())
	assert.True(t, l.IsTaken("P1"))
	assert.False(t, l.IsTaken("P3"))
	assert.Equal(t, []string{"P3", "P4"}, l.Available([]string{"P1", "P3", "P2", "P4"}))
	assert.Len(t, l.ByTeam(a), 1)
}

func TestLedger_DuplicatePlayerAnyTeam(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	l, err := New([]models.Pick{pick(1, a, "P1")})
	require.NoError(t, err)

	for _, team := range []uuid.UUID{a, b} {
		err := l.Append(pick(2, team, "P1"))
		require.ErrorIs(t, err, ErrPlayerAlreadyDrafted)
	}
	assert.Equal(t, 1, l.Len())
}

func TestLedger_OutOfSequence(t *testing.T) {
	l, err := New(nil)
	require.NoError(t, err)

	require.ErrorIs(t, l.Append(pick(2, uuid.New(), "P1")), ErrOutOfSequence)

	_, err = New([]models.Pick{pick(1, uuid.New(), "P1"), pick(3, uuid.New(), "P2")})
	require.ErrorIs(t, err, ErrOutOfSequence)
}

func TestLedger_RemoveLastFreesPlayer(t *testing.T) {
	team := uuid.New()
	l, err := New([]models.Pick{pick(1, team, "P1"), pick(2, team, "P2")})
	require.NoError(t, err)

	last, ok := l.RemoveLast()
	require.True(t, ok)
	assert.Equal(t, 2, last.Overall)
	assert.False(t, l.IsTaken("P2"))
	assert.Equal(t, 2, l.Next())

	_, ok = l.RemoveLast()
	require.True(t, ok)
	_, ok = l.RemoveLast()
	assert.False(t, ok)
}
