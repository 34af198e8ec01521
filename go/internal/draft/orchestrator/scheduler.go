package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/snakedraft/go/internal/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/repository"
)

// pendingPick is an armed timer for one turn.
type pendingPick struct {
	job    job
	fireAt time.Time
	timer  clockwork.Timer
	stop   chan struct{}
}

// scheduleNextPick arms draftID's timer for the team now on the clock,
// replacing any timer for an earlier turn.
func (o *Orchestrator) scheduleNextPick(ctx context.Context, draftID uuid.UUID) error {
	oc, err := o.driver.GetOnClock(ctx, draftID)
	if err != nil {
		if errors.Is(err, draft.ErrDraftComplete) || errors.Is(err, repository.ErrNotFound) {
			o.cancelTimer(draftID)
			return nil
		}
		o.recheckLater(ctx, draftID)
		return fmt.Errorf("failed to read on-clock team: %w", err)
	}

	fireAt, ok := o.fireAt(oc)
	if !ok {
		o.cancelTimer(draftID)
		log.Debug().
			Str("draft_id", draftID.String()).
			Int("overall", oc.Turn.Overall).
			Msg("untimed turn; waiting for a manual pick")
		return nil
	}

	o.arm(ctx, job{draftID: draftID, overall: oc.Turn.Overall}, fireAt)
	return nil
}

// fireAt applies the expiry policy. Bots pick after BotPickDelay whatever
// the clock. Humans are picked for once the clock runs out, claimed teams
// after an extra grace. An untimed turn never fires for a human.
func (o *Orchestrator) fireAt(oc *draft.OnClock) (time.Time, bool) {
	if oc.Team.IsBot {
		return oc.PickStartedAt.Add(o.cfg.BotPickDelay), true
	}
	if oc.ClockSeconds <= 0 {
		return time.Time{}, false
	}
	deadline := oc.PickStartedAt.Add(time.Duration(oc.ClockSeconds) * time.Second)
	if oc.Team.Claimed() {
		deadline = deadline.Add(o.cfg.ClaimedGrace)
	}
	return deadline, true
}

func (o *Orchestrator) arm(ctx context.Context, j job, fireAt time.Time) {
	o.activeTimersMu.Lock()
	defer o.activeTimersMu.Unlock()

	if existing, ok := o.activeTimers[j.draftID]; ok {
		if existing.job == j && existing.fireAt.Equal(fireAt) {
			return
		}
		existing.cancel()
		delete(o.activeTimers, j.draftID)
	}

	wait := fireAt.Sub(o.clock.Now())
	if wait <= 0 {
		log.Debug().
			Str("draft_id", j.draftID.String()).
			Int("overall", j.overall).
			Msg("turn already expired; firing now")
		go o.enqueue(ctx, j)
		return
	}

	p := &pendingPick{
		job:    j,
		fireAt: fireAt,
		timer:  o.clock.NewTimer(wait),
		stop:   make(chan struct{}),
	}
	o.activeTimers[j.draftID] = p
	go o.await(ctx, p)

	log.Debug().
		Str("draft_id", j.draftID.String()).
		Int("overall", j.overall).
		Time("fire_at", fireAt).
		Dur("wait", wait).
		Msg("scheduled one-shot timer")
}

func (o *Orchestrator) await(ctx context.Context, p *pendingPick) {
	select {
	case <-p.timer.Chan():
		o.removeTimer(p)
		o.enqueue(ctx, p.job)
	case <-p.stop:
	case <-ctx.Done():
		stopAndDrainTimer(p.timer)
	}
}

func (o *Orchestrator) enqueue(ctx context.Context, j job) {
	select {
	case o.workCh <- j:
		log.Debug().Str("draft_id", j.draftID.String()).Int("overall", j.overall).Msg("timer fired - enqueued for processing")
	case <-ctx.Done():
	}
}

// recheckLater marks draftID dirty again after RetryDelay.
func (o *Orchestrator) recheckLater(ctx context.Context, draftID uuid.UUID) {
	go func() {
		select {
		case <-o.clock.After(o.cfg.RetryDelay):
			o.markDirty(draftID)
		case <-ctx.Done():
		}
	}()
}

func (p *pendingPick) cancel() {
	close(p.stop)
	stopAndDrainTimer(p.timer)
}

// stopAndDrainTimer stops a timer and drains a fire that raced the stop.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

func (o *Orchestrator) cancelTimer(draftID uuid.UUID) {
	o.activeTimersMu.Lock()
	defer o.activeTimersMu.Unlock()

	if p, ok := o.activeTimers[draftID]; ok {
		p.cancel()
		delete(o.activeTimers, draftID)
		log.Debug().Str("draft_id", draftID.String()).Msg("cancelled existing timer")
	}
}

// removeTimer forgets p once it has fired, unless it was already replaced.
func (o *Orchestrator) removeTimer(p *pendingPick) {
	o.activeTimersMu.Lock()
	defer o.activeTimersMu.Unlock()
	if o.activeTimers[p.job.draftID] == p {
		delete(o.activeTimers, p.job.draftID)
	}
}

func (o *Orchestrator) cancelAll() {
	o.activeTimersMu.Lock()
	defer o.activeTimersMu.Unlock()
	for id, p := range o.activeTimers {
		p.cancel()
		delete(o.activeTimers, id)
	}
}

// Pending reports the turn draftID's timer is armed for, if any.
func (o *Orchestrator) Pending(draftID uuid.UUID) (overall int, fireAt time.Time, ok bool) {
	o.activeTimersMu.Lock()
	defer o.activeTimersMu.Unlock()
	p, ok := o.activeTimers[draftID]
	if !ok {
		return 0, time.Time{}, false
	}
	return p.job.overall, p.fireAt, true
}
