package player

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

// Catalog is the immutable player lookup table with its ADP ranking.
type Catalog struct {
	byID   map[string]models.Player
	ranked []string
}

// snapshot is the on-disk layout of a catalog file.
type snapshot struct {
	AsOf    string          `json:"as_of" yaml:"as_of"`
	Players []models.Player `json:"players" yaml:"players"`
}

// NewCatalog indexes players. Later duplicates of an id are ignored.
func NewCatalog(players []models.Player) *Catalog {
	c := &Catalog{byID: make(map[string]models.Player, len(players))}
	for _, p := range players {
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.byID[p.ID] = p
		c.ranked = append(c.ranked, p.ID)
	}
	sort.SliceStable(c.ranked, func(i, j int) bool {
		a, b := c.byID[c.ranked[i]], c.byID[c.ranked[j]]
		switch {
		case a.ADP != nil && b.ADP != nil && *a.ADP != *b.ADP:
			return *a.ADP < *b.ADP
		case a.ADP != nil && b.ADP == nil:
			return true
		case a.ADP == nil && b.ADP != nil:
			return false
		}
		return a.ID < b.ID
	})
	return c
}

// LoadCatalog reads a JSON or YAML snapshot file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read player snapshot: %w", err)
	}
	return parseCatalog(data, strings.ToLower(filepath.Ext(path)) == ".json")
}

func parseCatalog(data []byte, isJSON bool) (*Catalog, error) {
	var snap snapshot
	var err error
	if isJSON {
		err = json.Unmarshal(data, &snap)
	} else {
		err = yaml.Unmarshal(data, &snap)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse player snapshot: %w", err)
	}

	for i, p := range snap.Players {
		if p.ID == "" {
			return nil, fmt.Errorf("player %d has no id", i)
		}
		snap.Players[i].Position = models.Position(strings.ToUpper(string(p.Position)))
		if !snap.Players[i].Position.Valid() {
			return nil, fmt.Errorf("player %s has unsupported position %q", p.ID, p.Position)
		}
	}
	return NewCatalog(snap.Players), nil
}

// Player returns the player with id.
func (c *Catalog) Player(id string) (models.Player, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Get is Player with an error for unknown ids.
func (c *Catalog) Get(id string) (models.Player, error) {
	p, ok := c.byID[id]
	if !ok {
		return models.Player{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	return p, nil
}

// ADP returns the player's rank, if known.
func (c *Catalog) ADP(id string) (*float64, bool) {
	p, ok := c.byID[id]
	if !ok || p.ADP == nil {
		return nil, false
	}
	v := *p.ADP
	return &v, true
}

// Ranked returns every player id by ascending ADP. Unranked players follow
// in id order.
func (c *Catalog) Ranked() []string {
	out := make([]string, len(c.ranked))
	copy(out, c.ranked)
	return out
}

// Len is the number of players in the catalog.
func (c *Catalog) Len() int {
	return len(c.byID)
}
