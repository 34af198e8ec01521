package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/snakedraft/go/internal/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/bot"
	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/draft/order"
	"github.com/mcdev12/snakedraft/go/internal/draft/repository"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/mcdev12/snakedraft/go/internal/player"
)

var startTime = time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)

type fakeDriver struct {
	mu      sync.Mutex
	onClock map[uuid.UUID]*draft.OnClock
	reads   int
	picks   chan draft.AutoPickRequest
	pickErr error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		onClock: map[uuid.UUID]*draft.OnClock{},
		picks:   make(chan draft.AutoPickRequest, 10),
	}
}

func (d *fakeDriver) set(id uuid.UUID, oc *draft.OnClock) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onClock[id] = oc
}

func (d *fakeDriver) readCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reads
}

func (d *fakeDriver) GetOnClock(_ context.Context, id uuid.UUID) (*draft.OnClock, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	oc, ok := d.onClock[id]
	if !ok {
		return nil, fmt.Errorf("failed to get on-clock team: %w", draft.ErrDraftComplete)
	}
	cp := *oc
	return &cp, nil
}

func (d *fakeDriver) AutoPick(_ context.Context, req draft.AutoPickRequest) (*draft.CommitResult, error) {
	d.mu.Lock()
	err := d.pickErr
	d.mu.Unlock()
	d.picks <- req
	if err != nil {
		return nil, err
	}
	return &draft.CommitResult{Pick: models.Pick{DraftID: req.DraftID, Overall: req.ExpectedOverall}}, nil
}

type staticLister []uuid.UUID

func (l staticLister) ListActiveDrafts(context.Context) ([]uuid.UUID, error) {
	return l, nil
}

func humanTurn(overall, clockSeconds int, startedAt time.Time) *draft.OnClock {
	return &draft.OnClock{
		Turn:          order.Turn{Overall: overall, Round: 1, Slot: 1},
		Team:          models.Team{ID: uuid.New(), Slot: 1},
		ClockSeconds:  clockSeconds,
		PickStartedAt: startedAt,
	}
}

func startOrchestrator(t *testing.T, drv Driver, lister DraftLister, fc *clockwork.FakeClock, cfg Config) (*Orchestrator, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	o := New(drv, lister, fc, cfg)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = o.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return o, ctx
}

func waitForTimers(t *testing.T, ctx context.Context, fc *clockwork.FakeClock, n int) {
	t.Helper()
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(waitCtx, n))
}

func expectPick(t *testing.T, drv *fakeDriver) draft.AutoPickRequest {
	t.Helper()
	select {
	case req := <-drv.picks:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("auto-pick did not fire")
		return draft.AutoPickRequest{}
	}
}

func TestOrchestrator_FiresAtDeadlineForUnclaimedHuman(t *testing.T) {
	fc := clockwork.NewFakeClockAt(startTime)
	drv := newFakeDriver()
	id := uuid.New()
	drv.set(id, humanTurn(3, 60, startTime))

	o, ctx := startOrchestrator(t, drv, nil, fc, DefaultConfig())
	o.Reschedule(id)
	waitForTimers(t, ctx, fc, 1)

	overall, fireAt, ok := o.Pending(id)
	require.True(t, ok)
	assert.Equal(t, 3, overall)
	assert.Equal(t, startTime.Add(60*time.Second), fireAt)

	fc.Advance(60 * time.Second)
	req := expectPick(t, drv)
	assert.Equal(t, id, req.DraftID)
	assert.Equal(t, 3, req.ExpectedOverall)
	assert.Nil(t, req.Candidates)
}

func TestOrchestrator_BotPicksAfterDelay(t *testing.T) {
	fc := clockwork.NewFakeClockAt(startTime)
	drv := newFakeDriver()
	id := uuid.New()
	oc := humanTurn(1, 0, startTime)
	oc.Team.IsBot = true
	drv.set(id, oc)

	cfg := DefaultConfig()
	cfg.BotPickDelay = 2 * time.Second
	o, ctx := startOrchestrator(t, drv, nil, fc, cfg)
	o.Reschedule(id)
	waitForTimers(t, ctx, fc, 1)

	_, fireAt, ok := o.Pending(id)
	require.True(t, ok)
	assert.Equal(t, startTime.Add(2*time.Second), fireAt)

	fc.Advance(2 * time.Second)
	assert.Equal(t, 1, expectPick(t, drv).ExpectedOverall)
}

func TestOrchestrator_ClaimedTeamGetsGrace(t *testing.T) {
	fc := clockwork.NewFakeClockAt(startTime)
	drv := newFakeDriver()
	id := uuid.New()
	oc := humanTurn(2, 30, startTime)
	token := "alice"
	oc.Team.ClaimOwner = &token
	drv.set(id, oc)

	cfg := DefaultConfig()
	cfg.ClaimedGrace = 10 * time.Second
	o, ctx := startOrchestrator(t, drv, nil, fc, cfg)
	o.Reschedule(id)
	waitForTimers(t, ctx, fc, 1)

	_, fireAt, ok := o.Pending(id)
	require.True(t, ok)
	assert.Equal(t, startTime.Add(40*time.Second), fireAt)
}

func TestOrchestrator_UntimedHumanNeverFires(t *testing.T) {
	fc := clockwork.NewFakeClockAt(startTime)
	drv := newFakeDriver()
	id := uuid.New()
	drv.set(id, humanTurn(1, 0, startTime))

	o, _ := startOrchestrator(t, drv, nil, fc, DefaultConfig())
	o.Reschedule(id)

	require.Eventually(t, func() bool { return drv.readCount() >= 1 }, 2*time.Second, 5*time.Millisecond)
	_, _, ok := o.Pending(id)
	assert.False(t, ok)
	fc.Advance(time.Hour)
	select {
	case <-drv.picks:
		t.Fatal("untimed human turn must not auto-pick")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestOrchestrator_CompletedDraftCancelsTimer(t *testing.T) {
	fc := clockwork.NewFakeClockAt(startTime)
	drv := newFakeDriver()
	id := uuid.New()
	drv.set(id, humanTurn(5, 60, startTime))

	o, ctx := startOrchestrator(t, drv, nil, fc, DefaultConfig())
	o.Reschedule(id)
	waitForTimers(t, ctx, fc, 1)

	require.NoError(t, o.Notify(ctx, []events.Envelope{{DraftID: id, EventType: events.TypeDraftCompleted}}))
	_, _, ok := o.Pending(id)
	assert.False(t, ok)
}

func TestOrchestrator_RecoversExpiredTurnsOnStart(t *testing.T) {
	fc := clockwork.NewFakeClockAt(startTime)
	drv := newFakeDriver()
	id := uuid.New()
	drv.set(id, humanTurn(7, 60, startTime.Add(-2*time.Minute)))

	startOrchestrator(t, drv, staticLister{id}, fc, DefaultConfig())
	assert.Equal(t, 7, expectPick(t, drv).ExpectedOverall)
}

func TestOrchestrator_StaleTurnIsBenign(t *testing.T) {
	fc := clockwork.NewFakeClockAt(startTime)
	drv := newFakeDriver()
	drv.pickErr = fmt.Errorf("failed to auto-pick: %w", draft.ErrNotOnClock)
	id := uuid.New()
	drv.set(id, humanTurn(4, 60, startTime.Add(-time.Hour)))

	o, _ := startOrchestrator(t, drv, staticLister{id}, fc, DefaultConfig())
	expectPick(t, drv)

	// a benign failure schedules no retry
	fc.Advance(DefaultConfig().RetryDelay * 2)
	select {
	case <-drv.picks:
		t.Fatal("unexpected retry after a stale turn")
	case <-time.After(50 * time.Millisecond):
	}
	_, _, ok := o.Pending(id)
	assert.False(t, ok)
}

func TestOrchestrator_DrivesBotDraftToCompletion(t *testing.T) {
	fc := clockwork.NewFakeClockAt(startTime)
	var players []models.Player
	for i, pos := range []models.Position{"RB", "WR", "QB", "TE", "RB", "WR", "RB", "WR"} {
		adp := float64(i + 1)
		players = append(players, models.Player{ID: fmt.Sprintf("P%d", i+1), Position: pos, ADP: &adp})
	}
	repo := repository.NewMemory()
	app := draft.NewApp(repo, player.NewCatalog(players), fc)

	cfg := DefaultConfig()
	cfg.BotPickDelay = time.Second
	o, ctx := startOrchestrator(t, app, repo, fc, cfg)
	app.AddNotifier(o)

	board, err := app.CreateDraft(ctx, draft.CreateDraftRequest{
		Settings: models.DraftSettings{
			Format:       models.DraftFormatSnake,
			Rounds:       2,
			ClockSeconds: 60,
			Roster:       models.DefaultRosterRequirements(),
		},
		Teams: []draft.TeamConfig{
			{Name: "A", Slot: 1, IsBot: true, Strategy: bot.TagNeedAware},
			{Name: "B", Slot: 2, IsBot: true, Strategy: bot.TagNeedAware},
		},
	})
	require.NoError(t, err)

	for i := 1; i <= 4; i++ {
		waitForTimers(t, ctx, fc, 1)
		fc.Advance(time.Second)
		require.Eventually(t, func() bool {
			b, err := app.GetBoard(ctx, board.Draft.ID)
			return err == nil && len(b.Picks) == i
		}, 2*time.Second, 5*time.Millisecond, "pick %d", i)
	}

	final, err := app.GetBoard(ctx, board.Draft.ID)
	require.NoError(t, err)
	assert.True(t, final.Draft.Complete())
	for _, p := range final.Picks {
		assert.Equal(t, models.MadeByBot, p.MadeBy)
	}
	require.Eventually(t, func() bool {
		_, _, ok := o.Pending(board.Draft.ID)
		return !ok
	}, time.Second, 5*time.Millisecond)
}
