package draft

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/snakedraft/go/internal/draft/bot"
	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/draft/repository"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

// AutoPick lets the on-clock team's strategy choose from the candidates that
// are still available and commits the choice as a bot pick. Selection and
// commit share one transaction, so the choice never races the ledger.
func (a *App) AutoPick(ctx context.Context, req AutoPickRequest) (*CommitResult, error) {
	var (
		result *CommitResult
		evs    []events.Envelope
	)
	err := a.repo.InTx(ctx, func(tx repository.Store) error {
		st, err := loadState(ctx, tx, req.DraftID)
		if err != nil {
			return err
		}
		turn, team, err := st.onClock(req.ExpectedOverall)
		if err != nil {
			return err
		}

		candidates := req.Candidates
		if candidates == nil {
			candidates = a.players.Ranked()
		}
		known := make([]string, 0, len(candidates))
		for _, id := range candidates {
			if _, ok := a.players.Player(id); ok {
				known = append(known, id)
			}
		}

		playerID, err := bot.ForTag(team.Strategy).Select(bot.Input{
			Candidates: st.ledger.Available(known),
			TeamPicks:  st.ledger.ByTeam(team.ID),
			Players:    a.players,
			Roster:     st.draft.Settings.Roster,
		})
		if err != nil {
			return fmt.Errorf("slot %d: %w", team.Slot, err)
		}

		log.Debug().
			Str("draft_id", req.DraftID.String()).
			Int("overall", turn.Overall).
			Str("strategy", team.Strategy).
			Str("player_id", playerID).
			Msg("auto-pick selected player")

		result, evs, err = a.commit(ctx, tx, st, turn, team, playerID, models.MadeByBot)
		if err != nil {
			return err
		}
		return tx.RecordEvents(ctx, evs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to auto-pick: %w", mapConflict(err))
	}

	a.notify(ctx, evs)
	return result, nil
}
