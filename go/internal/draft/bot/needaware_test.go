package bot

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

type lookup map[string]models.Player

func (l lookup) Player(id string) (models.Player, bool) {
	p, ok := l[id]
	return p, ok
}

// pool builds players named after their position, e.g. "RB1", "QB2".
func pool(ids ...string) lookup {
	out := lookup{}
	for _, id := range ids {
		out[id] = models.Player{ID: id, Position: models.Position(id[:2])}
	}
	return out
}

func picks(ids ...string) []models.Pick {
	out := make([]models.Pick, 0, len(ids))
	for i, id := range ids {
		out = append(out, models.Pick{Overall: i + 1, PlayerID: id})
	}
	return out
}

func TestDesiredPosition(t *testing.T) {
	req := models.DefaultRosterRequirements()
	players := pool("QB1", "QB2", "RB1", "RB2", "RB3", "RB4", "WR1", "WR2", "WR3", "TE1", "TE2")

	tests := []struct {
		name string
		have []string
		want models.Position
	}{
		{name: "empty roster wants RB", have: nil, want: models.PositionRB},
		{name: "RBs filled wants WR", have: []string{"RB1", "RB2"}, want: models.PositionWR},
		{name: "RB WR filled wants QB", have: []string{"RB1", "RB2", "WR1", "WR2"}, want: models.PositionQB},
		{name: "QB filled wants TE", have: []string{"RB1", "RB2", "WR1", "WR2", "QB1"}, want: models.PositionTE},
		{name: "starters done flex goes to thinnest, RB wins ties", have: []string{"RB1", "RB2", "WR1", "WR2", "QB1", "TE1"}, want: models.PositionRB},
		{name: "surplus elsewhere still needs TE", have: []string{"RB1", "RB2", "RB3", "WR1", "WR2", "WR3", "QB1"}, want: models.PositionTE},
		{name: "flex filled falls back to RB", have: []string{"RB1", "RB2", "WR1", "WR2", "QB1", "TE1", "WR3"}, want: models.PositionRB},
		{name: "unknown players ignored", have: []string{"XX9"}, want: models.PositionRB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DesiredPosition(picks(tt.have...), players, req))
		})
	}
}

func TestDesiredPosition_FlexLowestFillRatio(t *testing.T) {
	req := models.RosterRequirements{QB: 1, RB: 1, WR: 2, TE: 1, Flex: 2, Bench: 4}
	players := pool("QB1", "RB1", "RB2", "WR1", "WR2", "TE1")

	got := DesiredPosition(picks("QB1", "RB1", "RB2", "WR1", "WR2", "TE1"), players, req)
	assert.Equal(t, models.PositionWR, got)
}

func TestNeedAware_SelectFallbacks(t *testing.T) {
	req := models.DefaultRosterRequirements()
	players := pool("QB1", "QB2", "WR1", "TE1", "RB1")

	t.Run("desired position present", func(t *testing.T) {
		got, err := NeedAware{}.Select(Input{
			Candidates: []string{"QB1", "WR1", "RB1"},
			Players:    players,
			Roster:     req,
		})
		require.NoError(t, err)
		assert.Equal(t, "RB1", got)
	})

	t.Run("falls back to first flex eligible", func(t *testing.T) {
		got, err := NeedAware{}.Select(Input{
			Candidates: []string{"QB1", "TE1", "WR1"},
			Players:    players,
			Roster:     req,
		})
		require.NoError(t, err)
		assert.Equal(t, "TE1", got)
	})

	t.Run("falls back to best ranked", func(t *testing.T) {
		got, err := NeedAware{}.Select(Input{
			Candidates: []string{"QB2", "QB1"},
			Players:    players,
			Roster:     req,
		})
		require.NoError(t, err)
		assert.Equal(t, "QB2", got)
	})

	t.Run("empty pool", func(t *testing.T) {
		_, err := NeedAware{}.Select(Input{Players: players, Roster: req})
		require.ErrorIs(t, err, ErrNoAvailableCandidates)
	})
}

func TestNeedAware_BenchFillDefaultsToRB(t *testing.T) {
	req := models.DefaultRosterRequirements()
	players := pool("QB1", "RB1", "RB2", "WR1", "WR2", "TE1", "WR3", "QB2", "WR4", "RB9")
	have := picks("QB1", "RB1", "RB2", "WR1", "WR2", "TE1", "WR3")

	got, err := NeedAware{}.Select(Input{
		Candidates: []string{"QB2", "WR4", "RB9"},
		TeamPicks:  have,
		Players:    players,
		Roster:     req,
	})
	require.NoError(t, err)
	assert.Equal(t, "RB9", got)
}

func TestNeedAware_Deterministic(t *testing.T) {
	req := models.DefaultRosterRequirements()
	players := lookup{}
	var candidates []string
	for i := 0; i < 40; i++ {
		pos := models.Positions[i%len(models.Positions)]
		id := fmt.Sprintf("%s%d", pos, i)
		players[id] = models.Player{ID: id, Position: pos}
		candidates = append(candidates, id)
	}
	in := Input{Candidates: candidates, TeamPicks: picks("RB1", "WR2"), Players: players, Roster: req}

	first, err := NeedAware{}.Select(in)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := NeedAware{}.Select(in)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestForTag(t *testing.T) {
	assert.IsType(t, NeedAware{}, ForTag("need-aware"))
	assert.IsType(t, NeedAware{}, ForTag("needAware"))
	assert.IsType(t, NeedAware{}, ForTag("something-else"))
	assert.IsType(t, BestAvailable{}, ForTag("best-available"))

	got, err := BestAvailable{}.Select(Input{Candidates: []string{"WR1", "RB1"}})
	require.NoError(t, err)
	assert.Equal(t, "WR1", got)
}
