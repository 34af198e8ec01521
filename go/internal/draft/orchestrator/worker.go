package orchestrator

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/snakedraft/go/internal/draft"
)

// worker processes expiries from the work channel.
func (o *Orchestrator) worker(ctx context.Context, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()

	log.Debug().
		Str("instance", o.instanceID).
		Int("worker_id", workerID).
		Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Debug().
				Str("instance", o.instanceID).
				Int("worker_id", workerID).
				Msg("worker shutting down")
			return
		case j := <-o.workCh:
			if !o.claim(j) {
				log.Debug().
					Str("draft_id", j.draftID.String()).
					Int("overall", j.overall).
					Msg("draft already in flight; rechecking after it finishes")
				continue
			}
			o.handleTimeout(ctx, j)
			o.release(j)
		}
	}
}

func (o *Orchestrator) claim(j job) bool {
	o.inFlightMu.Lock()
	defer o.inFlightMu.Unlock()
	if _, busy := o.inFlight[j.draftID]; busy {
		o.inFlight[j.draftID] = true
		return false
	}
	o.inFlight[j.draftID] = false
	return true
}

// release frees the draft and marks it dirty if a job was skipped while it
// was in flight, so that job's turn gets a fresh timer.
func (o *Orchestrator) release(j job) {
	o.inFlightMu.Lock()
	recheck := o.inFlight[j.draftID]
	delete(o.inFlight, j.draftID)
	o.inFlightMu.Unlock()

	if recheck {
		o.markDirty(j.draftID)
	}
}

// handleTimeout auto-picks for the expired turn. The expected overall pins
// the pick to that turn, so a manual pick that landed first wins cleanly.
func (o *Orchestrator) handleTimeout(ctx context.Context, j job) {
	logger := log.With().
		Str("draft_id", j.draftID.String()).
		Int("overall", j.overall).
		Str("instance", o.instanceID).
		Logger()

	res, err := o.driver.AutoPick(ctx, draft.AutoPickRequest{
		DraftID:         j.draftID,
		ExpectedOverall: j.overall,
	})
	switch {
	case err == nil:
		logger.Info().
			Str("team_id", res.Pick.TeamID.String()).
			Str("player_id", res.Pick.PlayerID).
			Bool("complete", res.Complete).
			Msg("auto-pick committed")
	case errors.Is(err, draft.ErrNotOnClock), errors.Is(err, draft.ErrDraftComplete):
		logger.Debug().Err(err).Msg("turn moved on before auto-pick")
	case errors.Is(err, draft.ErrNoAvailableCandidates):
		logger.Warn().Err(err).Msg("no candidates left to auto-pick; waiting for a manual pick")
	case ctx.Err() != nil:
	default:
		logger.Error().Err(err).Dur("retry_in", o.cfg.RetryDelay).Msg("auto-pick failed")
		o.recheckLater(ctx, j.draftID)
	}
}
