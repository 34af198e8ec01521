package roster

import (
	"github.com/google/uuid"

	"github.com/mcdev12/snakedraft/go/internal/models"
)

// PlayerLookup resolves drafted player ids.
type PlayerLookup interface {
	Player(id string) (models.Player, bool)
}

// Project assigns a team's picks, in draft order, to starter, flex and bench
// slots. A player fills its native starter slot while it is under its
// minimum, then the flex slot if eligible, otherwise the bench. Players the
// lookup does not know land on the bench.
func Project(teamID uuid.UUID, picks []models.Pick, players PlayerLookup, req models.RosterRequirements) models.Roster {
	out := models.Roster{
		TeamID:   teamID,
		Starters: make(map[models.Position][]string, len(models.Positions)),
		Flex:     []string{},
		Bench:    []string{},
		Entries:  make([]models.RosterEntry, 0, len(picks)),
	}
	for _, pos := range models.Positions {
		out.Starters[pos] = []string{}
	}

	for _, p := range picks {
		if p.TeamID != teamID {
			continue
		}
		entry := models.RosterEntry{PlayerID: p.PlayerID, Overall: p.Overall, Slot: models.RosterSlotBench}

		pl, ok := players.Player(p.PlayerID)
		if ok {
			entry.Position = pl.Position
			switch {
			case len(out.Starters[pl.Position]) < req.Starters(pl.Position):
				entry.Slot = models.RosterSlotStarter
				out.Starters[pl.Position] = append(out.Starters[pl.Position], p.PlayerID)
			case pl.Position.FlexEligible() && len(out.Flex) < req.Flex:
				entry.Slot = models.RosterSlotFlex
				out.Flex = append(out.Flex, p.PlayerID)
			}
		}
		if entry.Slot == models.RosterSlotBench {
			out.Bench = append(out.Bench, p.PlayerID)
		}
		out.Entries = append(out.Entries, entry)
	}
	return out
}
