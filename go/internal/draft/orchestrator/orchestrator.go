package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/snakedraft/go/internal/draft"
)

// Driver is the slice of the turn controller the orchestrator acts through.
type Driver interface {
	GetOnClock(ctx context.Context, draftID uuid.UUID) (*draft.OnClock, error)
	AutoPick(ctx context.Context, req draft.AutoPickRequest) (*draft.CommitResult, error)
}

// DraftLister finds drafts to recover timers for on start.
type DraftLister interface {
	ListActiveDrafts(ctx context.Context) ([]uuid.UUID, error)
}

type Config struct {
	Workers int
	// BotPickDelay is how long a bot team sits on the clock before picking.
	BotPickDelay time.Duration
	// ClaimedGrace is extra time a claimed team gets past its deadline.
	ClaimedGrace time.Duration
	// RetryDelay spaces retries after an auto-pick fails for a reason other
	// than the turn having moved on.
	RetryDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:      10,
		BotPickDelay: time.Second,
		ClaimedGrace: 0,
		RetryDelay:   2 * time.Second,
	}
}

// Orchestrator fires auto-picks when a turn's time runs out. It keeps one
// timer per draft, rescheduled from the events the turn controller emits,
// and hands expiries to a worker pool.
type Orchestrator struct {
	driver     Driver
	lister     DraftLister
	clock      clockwork.Clock
	cfg        Config
	instanceID string

	wakeCh  chan struct{}
	dirtyMu sync.Mutex
	dirty   map[uuid.UUID]struct{}

	activeTimers   map[uuid.UUID]*pendingPick
	activeTimersMu sync.Mutex

	workCh     chan job
	// inFlight holds drafts a worker is on. The value is set when a job for
	// that draft was skipped meanwhile and the draft needs a recheck.
	inFlight   map[uuid.UUID]bool
	inFlightMu sync.Mutex
}

// job is one expiry: auto-pick draftID if it is still on overall.
type job struct {
	draftID uuid.UUID
	overall int
}

// New creates an orchestrator. A nil clock uses wall time.
func New(driver Driver, lister DraftLister, clk clockwork.Clock, cfg Config) *Orchestrator {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Orchestrator{
		driver:       driver,
		lister:       lister,
		clock:        clk,
		cfg:          cfg,
		instanceID:   uuid.New().String()[:8],
		wakeCh:       make(chan struct{}, 1),
		dirty:        make(map[uuid.UUID]struct{}),
		activeTimers: make(map[uuid.UUID]*pendingPick),
		workCh:       make(chan job, cfg.Workers*2),
		inFlight:     make(map[uuid.UUID]bool),
	}
}

// Start recovers timers for active drafts and runs until ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) error {
	log.Info().
		Str("instance", o.instanceID).
		Int("workers", o.cfg.Workers).
		Dur("bot_pick_delay", o.cfg.BotPickDelay).
		Dur("claimed_grace", o.cfg.ClaimedGrace).
		Msg("orchestrator started")

	var wg sync.WaitGroup
	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go o.worker(ctx, &wg, i)
	}

	if o.lister != nil {
		ids, err := o.lister.ListActiveDrafts(ctx)
		if err != nil {
			log.Error().Err(err).Str("instance", o.instanceID).Msg("failed to list active drafts for recovery")
		}
		for _, id := range ids {
			o.markDirty(id)
		}
		log.Info().Int("drafts", len(ids)).Str("instance", o.instanceID).Msg("recovering draft timers")
	}

	o.runScheduler(ctx)

	o.cancelAll()
	wg.Wait()
	log.Info().Str("instance", o.instanceID).Msg("orchestrator stopped")
	return nil
}

// Reschedule asks for draftID's timer to be recomputed. It never blocks.
func (o *Orchestrator) Reschedule(draftID uuid.UUID) {
	o.markDirty(draftID)
}

func (o *Orchestrator) markDirty(draftID uuid.UUID) {
	o.dirtyMu.Lock()
	o.dirty[draftID] = struct{}{}
	o.dirtyMu.Unlock()

	select {
	case o.wakeCh <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) takeDirty() []uuid.UUID {
	o.dirtyMu.Lock()
	defer o.dirtyMu.Unlock()
	ids := make([]uuid.UUID, 0, len(o.dirty))
	for id := range o.dirty {
		ids = append(ids, id)
	}
	clear(o.dirty)
	return ids
}

// runScheduler recomputes timers for drafts marked dirty.
func (o *Orchestrator) runScheduler(ctx context.Context) {
	for {
		for _, id := range o.takeDirty() {
			if err := o.scheduleNextPick(ctx, id); err != nil {
				log.Error().Err(err).Str("draft_id", id.String()).Msg("failed to schedule next pick")
			}
		}

		select {
		case <-ctx.Done():
			log.Info().Str("instance", o.instanceID).Msg("scheduler shutting down")
			return
		case <-o.wakeCh:
		}
	}
}
