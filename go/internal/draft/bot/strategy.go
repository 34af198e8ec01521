package bot

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

// ErrNoAvailableCandidates is returned when the candidate pool is empty.
var ErrNoAvailableCandidates = errors.New("no available candidates")

// Strategy tags stored on a team.
const (
	TagNeedAware     = "need-aware"
	TagBestAvailable = "best-available"
)

// PlayerLookup resolves player ids to immutable player records.
type PlayerLookup interface {
	Player(id string) (models.Player, bool)
}

// Input is everything a strategy may look at. Candidates are ordered by
// preference (ascending ADP) and contain only undrafted players.
type Input struct {
	Candidates []string
	TeamPicks  []models.Pick
	Players    PlayerLookup
	Roster     models.RosterRequirements
}

// Strategy chooses one player for the team on the clock. Implementations
// must be pure: the same input always yields the same player.
type Strategy interface {
	Select(in Input) (string, error)
}

// BestAvailable takes the top-ranked candidate regardless of need.
type BestAvailable struct{}

// Select implements Strategy.
func (BestAvailable) Select(in Input) (string, error) {
	if len(in.Candidates) == 0 {
		return "", ErrNoAvailableCandidates
	}
	return in.Candidates[0], nil
}

// ForTag returns the strategy registered under a team's strategy tag.
// Unknown tags fall back to the need-aware policy.
func ForTag(tag string) Strategy {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case TagNeedAware, "needaware", "":
		return NeedAware{}
	case TagBestAvailable, "bestavailable", "bpa":
		return BestAvailable{}
	default:
		log.Warn().Str("strategy", tag).Msg("unknown bot strategy, using need-aware")
		return NeedAware{}
	}
}
