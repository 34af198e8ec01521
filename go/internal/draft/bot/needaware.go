package bot

import (
	"github.com/mcdev12/snakedraft/go/internal/models"
)

// starterPriority is the order unmet starter needs are filled in.
var starterPriority = []models.Position{
	models.PositionRB,
	models.PositionWR,
	models.PositionQB,
	models.PositionTE,
}

// flexPriority breaks fill-ratio ties when topping up the flex slot.
var flexPriority = []models.Position{
	models.PositionRB,
	models.PositionWR,
	models.PositionTE,
}

// NeedAware fills starters first, then the flex slot, then the bench.
type NeedAware struct{}

// Select implements Strategy.
func (NeedAware) Select(in Input) (string, error) {
	if len(in.Candidates) == 0 {
		return "", ErrNoAvailableCandidates
	}
	want := DesiredPosition(in.TeamPicks, in.Players, in.Roster)
	return pickByNeed(want, in.Candidates, in.Players), nil
}

// DesiredPosition returns the position the team should target next.
func DesiredPosition(teamPicks []models.Pick, players PlayerLookup, req models.RosterRequirements) models.Position {
	have := make(map[models.Position]int, len(models.Positions))
	for _, p := range teamPicks {
		pl, ok := players.Player(p.PlayerID)
		if !ok {
			continue
		}
		have[pl.Position]++
	}

	for _, pos := range starterPriority {
		if req.Starters(pos)-have[pos] > 0 {
			return pos
		}
	}

	if req.Flex > 0 {
		surplus := 0
		for _, pos := range flexPriority {
			if extra := have[pos] - req.Starters(pos); extra > 0 {
				surplus += extra
			}
		}
		if surplus < req.Flex {
			best := flexPriority[0]
			bestRatio := fillRatio(have[best], req.Starters(best))
			for _, pos := range flexPriority[1:] {
				// strict less keeps the earlier position on ties
				if r := fillRatio(have[pos], req.Starters(pos)); r < bestRatio {
					best, bestRatio = pos, r
				}
			}
			return best
		}
	}

	return models.PositionRB
}

func fillRatio(have, required int) float64 {
	if required < 1 {
		required = 1
	}
	return float64(have) / float64(required)
}

// pickByNeed falls back to any flex-eligible player, then the best ranked.
func pickByNeed(want models.Position, candidates []string, players PlayerLookup) string {
	for _, id := range candidates {
		if pl, ok := players.Player(id); ok && pl.Position == want {
			return id
		}
	}
	for _, id := range candidates {
		if pl, ok := players.Player(id); ok && pl.Position.FlexEligible() {
			return id
		}
	}
	return candidates[0]
}
