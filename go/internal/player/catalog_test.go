package player

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

func TestLoadCatalog_YAML(t *testing.T) {
	c, err := LoadCatalog(filepath.Join("testdata", "players.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 5, c.Len())
	assert.Equal(t, []string{"9509", "6794", "8150", "4984", "4217"}, c.Ranked())

	p, ok := c.Player("9509")
	require.True(t, ok)
	assert.Equal(t, models.PositionRB, p.Position)

	_, ok = c.ADP("4217")
	assert.False(t, ok)

	_, err = c.Get("missing")
	require.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestLoadCatalog_JSONRejectsBadPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "players.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"players":[{"id":"1","position":"K"}]}`), 0o600))

	_, err := LoadCatalog(path)
	require.Error(t, err)
}

func TestNewCatalog_IgnoresDuplicates(t *testing.T) {
	one := 1.0
	c := NewCatalog([]models.Player{
		{ID: "a", Position: models.PositionQB, ADP: &one},
		{ID: "a", Position: models.PositionRB},
	})
	assert.Equal(t, 1, c.Len())
	p, _ := c.Player("a")
	assert.Equal(t, models.PositionQB, p.Position)
}
