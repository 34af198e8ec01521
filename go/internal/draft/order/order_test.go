package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

func slots(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestOnClock_SnakeSequenceFourTeams(t *testing.T) {
	cfg := Config{Slots: slots(4), Rounds: 2, Format: models.DraftFormatSnake}

	var got []int
	for overall := 1; overall <= 8; overall++ {
		turn, err := cfg.OnClock(overall)
		require.NoError(t, err)
		got = append(got, turn.Slot)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 4, 3, 2, 1}, got)
}

func TestOnClock_Deterministic(t *testing.T) {
	cfg := Config{Slots: slots(12), Rounds: 15, Format: models.DraftFormatSnake}
	for overall := 1; overall <= cfg.TotalPicks(); overall++ {
		a, err := cfg.OnClock(overall)
		require.NoError(t, err)
		b, err := cfg.OnClock(overall)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestOnClock_RoundBoundaries(t *testing.T) {
	cfg := Config{Slots: slots(10), Rounds: 15, Format: models.DraftFormatSnake}

	tests := []struct {
		overall       int
		wantRound     int
		wantSlot      int
		wantRemaining int
	}{
		{overall: 1, wantRound: 1, wantSlot: 1, wantRemaining: 9},
		{overall: 10, wantRound: 1, wantSlot: 10, wantRemaining: 0},
		{overall: 11, wantRound: 2, wantSlot: 10, wantRemaining: 9},
		{overall: 20, wantRound: 2, wantSlot: 1, wantRemaining: 0},
		{overall: 21, wantRound: 3, wantSlot: 1, wantRemaining: 9},
		{overall: 150, wantRound: 15, wantSlot: 10, wantRemaining: 0},
	}
	for _, tt := range tests {
		turn, err := cfg.OnClock(tt.overall)
		require.NoError(t, err)
		assert.Equal(t, tt.wantRound, turn.Round, "overall %d", tt.overall)
		assert.Equal(t, tt.wantSlot, turn.Slot, "overall %d", tt.overall)
		assert.Equal(t, tt.wantRemaining, turn.PicksRemainingInRound, "overall %d", tt.overall)
	}
}

func TestOnClock_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		overall int
		wantErr error
	}{
		{name: "no teams", cfg: Config{Rounds: 3}, overall: 1, wantErr: ErrConfiguration},
		{name: "no rounds", cfg: Config{Slots: slots(4)}, overall: 1, wantErr: ErrConfiguration},
		{name: "auction", cfg: Config{Slots: slots(4), Rounds: 2, Format: models.DraftFormatAuction}, overall: 1, wantErr: ErrConfiguration},
		{name: "before first pick", cfg: Config{Slots: slots(4), Rounds: 2}, overall: 0, wantErr: ErrConfiguration},
		{name: "past last pick", cfg: Config{Slots: slots(4), Rounds: 2}, overall: 9, wantErr: ErrDraftComplete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.OnClock(tt.overall)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSequence_Formats(t *testing.T) {
	linear := Config{Slots: slots(3), Rounds: 2, Format: models.DraftFormatLinear}
	seq, err := linear.Sequence()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 1, 2, 3}, seq)

	trr := Config{Slots: slots(3), Rounds: 4, Format: models.DraftFormatSnake, ThirdRoundReversal: true}
	seq, err = trr.Sequence()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 3, 2, 1, 3, 2, 1, 1, 2, 3}, seq)
}

func TestNewConfig_SortsSlots(t *testing.T) {
	d := models.Draft{Settings: models.DraftSettings{Rounds: 2, Format: models.DraftFormatSnake}}
	teams := []models.Team{{Slot: 3}, {Slot: 1}, {Slot: 2}}

	cfg := NewConfig(d, teams)
	assert.Equal(t, []int{1, 2, 3}, cfg.Slots)
	assert.Equal(t, 2, cfg.IndexInRound(1, 3))
	assert.Equal(t, 0, cfg.IndexInRound(2, 3))
	assert.Equal(t, -1, cfg.IndexInRound(1, 7))
}
