package draft

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/snakedraft/go/internal/draft/bot"
	"github.com/mcdev12/snakedraft/go/internal/draft/clock"
	"github.com/mcdev12/snakedraft/go/internal/draft/events"
	"github.com/mcdev12/snakedraft/go/internal/draft/ledger"
	"github.com/mcdev12/snakedraft/go/internal/draft/order"
	"github.com/mcdev12/snakedraft/go/internal/draft/repository"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/mcdev12/snakedraft/go/internal/player"
)

// PlayerCatalog is the immutable player table the draft reads from.
type PlayerCatalog interface {
	Player(id string) (models.Player, bool)
	// Ranked returns every player id by ascending ADP.
	Ranked() []string
}

// App is the turn controller. Every state change runs through
// repository.InTx and records its events in the same transaction.
type App struct {
	repo    repository.Repository
	players PlayerCatalog
	clock   *clock.Tracker

	mu        sync.RWMutex
	notifiers Notifiers
}

// NewApp creates a new draft App. A nil clock uses wall time.
func NewApp(repo repository.Repository, players PlayerCatalog, clk clockwork.Clock) *App {
	return &App{
		repo:    repo,
		players: players,
		clock:   clock.NewTracker(clk),
	}
}

// AddNotifier registers n for events from future commits.
func (a *App) AddNotifier(n Notifier) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notifiers = append(a.notifiers, n)
}

// Clock returns the clock turns are measured against.
func (a *App) Clock() clockwork.Clock {
	return a.clock.Clock()
}

// Players returns the player catalog.
func (a *App) Players() PlayerCatalog {
	return a.players
}

func (a *App) notify(ctx context.Context, evs []events.Envelope) {
	if len(evs) == 0 {
		return
	}
	a.mu.RLock()
	ns := a.notifiers
	a.mu.RUnlock()

	if err := ns.Notify(ctx, evs); err != nil {
		log.Error().Err(err).
			Str("draft_id", evs[0].DraftID.String()).
			Int("events", len(evs)).
			Msg("failed to notify observers")
	}
}

// CreateDraft validates the seat configuration and stores a draft on pick 1.
func (a *App) CreateDraft(ctx context.Context, req CreateDraftRequest) (*Board, error) {
	if err := validateCreateDraftRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	now := a.clock.Now()
	settings := req.Settings
	if settings.Format == "" {
		settings.Format = models.DraftFormatSnake
	}
	d := models.Draft{
		ID:                 uuid.New(),
		TeamCount:          len(req.Teams),
		Settings:           settings,
		CurrentPickOverall: 1,
		PickStartedAt:      now,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	teams := make([]models.Team, len(req.Teams))
	for i, tc := range req.Teams {
		strategy := tc.Strategy
		if strategy == "" {
			strategy = bot.TagNeedAware
		}
		name := tc.Name
		if name == "" {
			name = fmt.Sprintf("Team %d", tc.Slot)
		}
		teams[i] = models.Team{
			ID:       uuid.New(),
			DraftID:  d.ID,
			Name:     name,
			Slot:     tc.Slot,
			IsBot:    tc.IsBot,
			Strategy: strategy,
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Slot < teams[j].Slot })

	ev, err := events.New(d.ID, events.TypeDraftCreated, now, events.DraftCreatedPayload{
		DraftID:      d.ID.String(),
		Format:       string(settings.Format),
		TeamCount:    d.TeamCount,
		Rounds:       settings.Rounds,
		ClockSeconds: settings.ClockSeconds,
		CreatedAt:    now,
	})
	if err != nil {
		return nil, err
	}
	evs := []events.Envelope{ev}
	err = a.repo.InTx(ctx, func(tx repository.Store) error {
		if err := tx.CreateDraft(ctx, d, teams); err != nil {
			return err
		}
		return tx.RecordEvents(ctx, evs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	log.Info().
		Str("draft_id", d.ID.String()).
		Int("teams", d.TeamCount).
		Int("rounds", settings.Rounds).
		Str("format", string(settings.Format)).
		Msg("created draft")

	a.notify(ctx, evs)

	st := &state{draft: &d, teams: teams, order: order.NewConfig(d, teams)}
	st.ledger, _ = ledger.New(nil)
	return a.board(st), nil
}

func validateCreateDraftRequest(req CreateDraftRequest) error {
	if len(req.Teams) == 0 {
		return fmt.Errorf("%w: at least one team is required", ErrConfiguration)
	}
	s := req.Settings
	if s.ClockSeconds < 0 {
		return fmt.Errorf("%w: clock seconds must not be negative", ErrConfiguration)
	}
	r := s.Roster
	if r.QB < 0 || r.RB < 0 || r.WR < 0 || r.TE < 0 || r.Flex < 0 || r.Bench < 0 {
		return fmt.Errorf("%w: roster requirements must not be negative", ErrConfiguration)
	}

	slots := make([]int, len(req.Teams))
	for i, t := range req.Teams {
		slots[i] = t.Slot
	}
	sort.Ints(slots)
	for i, slot := range slots {
		if slot != i+1 {
			return fmt.Errorf("%w: team slots must be exactly 1..%d", ErrConfiguration, len(slots))
		}
	}

	format := s.Format
	if format == "" {
		format = models.DraftFormatSnake
	}
	cfg := order.Config{Slots: slots, Rounds: s.Rounds, Format: format, ThirdRoundReversal: s.ThirdRoundReversal}
	return cfg.Validate()
}

// Claim binds token to a team. A team claimed by a different token is
// rejected; claiming again with the same token is a no-op.
func (a *App) Claim(ctx context.Context, draftID, teamID uuid.UUID, token string) (*models.Team, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty claim token", ErrClaimRequired)
	}

	var (
		claimed models.Team
		evs     []events.Envelope
	)
	err := a.repo.InTx(ctx, func(tx repository.Store) error {
		evs = nil
		teams, err := tx.LoadTeams(ctx, draftID)
		if err != nil {
			return err
		}
		team, ok := findTeam(teams, teamID)
		if !ok {
			return fmt.Errorf("%w: team %s in draft %s", repository.ErrNotFound, teamID, draftID)
		}
		switch {
		case team.ClaimedBy(token):
			claimed = team
			return nil
		case team.Claimed():
			return fmt.Errorf("%w: team %d", ErrAlreadyClaimedByOther, team.Slot)
		}

		if err := tx.SetTeamClaim(ctx, teamID, token, nil); err != nil {
			if !errors.Is(err, repository.ErrConflict) {
				return err
			}
			// Lost a race: same token means the claim already holds.
			teams, err := tx.LoadTeams(ctx, draftID)
			if err != nil {
				return err
			}
			if current, ok := findTeam(teams, teamID); ok && current.ClaimedBy(token) {
				claimed = current
				return nil
			}
			return fmt.Errorf("%w: team %d", ErrAlreadyClaimedByOther, team.Slot)
		}
		team.ClaimOwner = &token
		claimed = team

		now := a.clock.Now()
		ev, err := events.New(draftID, events.TypeTeamClaimed, now, events.TeamClaimedPayload{
			TeamID:    teamID.String(),
			Slot:      team.Slot,
			ClaimedAt: now,
		})
		if err != nil {
			return err
		}
		evs = []events.Envelope{ev}
		return tx.RecordEvents(ctx, evs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to claim team: %w", err)
	}

	if len(evs) > 0 {
		log.Info().Str("draft_id", draftID.String()).Int("slot", claimed.Slot).Msg("team claimed")
	}
	a.notify(ctx, evs)
	return &claimed, nil
}

// CommitPick validates and records one pick for the team on the clock, then
// advances the pointer and restarts the clock, all in one transaction.
func (a *App) CommitPick(ctx context.Context, req CommitPickRequest) (*CommitResult, error) {
	if req.MadeBy == "" {
		req.MadeBy = models.MadeByHuman
	}

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
		if team.ID != req.TeamID {
			return fmt.Errorf("%w: pick %d belongs to slot %d", ErrUnauthorized, turn.Overall, turn.Slot)
		}

		claimEvs, err := a.authorize(ctx, tx, st, &team, req)
		if err != nil {
			return err
		}

		result, evs, err = a.commit(ctx, tx, st, turn, team, req.PlayerID, req.MadeBy)
		if err != nil {
			return err
		}
		evs = append(claimEvs, evs...)
		return tx.RecordEvents(ctx, evs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to commit pick: %w", mapConflict(err))
	}

	a.notify(ctx, evs)
	return result, nil
}

// authorize applies the claim policy for req.MadeBy. A claimed team only
// takes human picks from its owner's token. A commissioner token on an
// unclaimed team becomes that team's claim.
func (a *App) authorize(ctx context.Context, tx repository.Store, st *state, team *models.Team, req CommitPickRequest) ([]events.Envelope, error) {
	switch req.MadeBy {
	case models.MadeByBot:
		return nil, nil
	case models.MadeByCommissioner:
		if req.Token == "" || team.Claimed() {
			return nil, nil
		}
		if err := tx.SetTeamClaim(ctx, team.ID, req.Token, nil); err != nil {
			return nil, err
		}
		tok := req.Token
		team.ClaimOwner = &tok
		now := a.clock.Now()
		ev, err := events.New(st.draft.ID, events.TypeTeamClaimed, now, events.TeamClaimedPayload{
			TeamID:    team.ID.String(),
			Slot:      team.Slot,
			ClaimedAt: now,
		})
		if err != nil {
			return nil, err
		}
		return []events.Envelope{ev}, nil
	case models.MadeByHuman:
		if team.Claimed() && !team.ClaimedBy(req.Token) {
			return nil, fmt.Errorf("%w: slot %d is claimed by another token", ErrClaimRequired, team.Slot)
		}
		if st.draft.Settings.RequireClaim && !team.Claimed() {
			return nil, fmt.Errorf("%w: slot %d", ErrClaimRequired, team.Slot)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown pick origin %q", ErrUnauthorized, req.MadeBy)
	}
}

// commit appends the pick and moves the pointer. The caller owns the
// transaction and records the returned events.
func (a *App) commit(ctx context.Context, tx repository.Store, st *state, turn order.Turn, team models.Team, playerID string, madeBy models.MadeBy) (*CommitResult, []events.Envelope, error) {
	if _, ok := a.players.Player(playerID); !ok {
		return nil, nil, fmt.Errorf("%w: %s", player.ErrPlayerNotFound, playerID)
	}

	now := a.clock.Now()
	pick := models.Pick{
		DraftID:  st.draft.ID,
		Round:    turn.Round,
		Overall:  turn.Overall,
		TeamID:   team.ID,
		PlayerID: playerID,
		MadeBy:   madeBy,
		PickedAt: now,
	}
	if err := st.ledger.Append(pick); err != nil {
		return nil, nil, err
	}
	if err := tx.AppendPick(ctx, pick); err != nil {
		return nil, nil, err
	}
	if err := tx.UpdateDraftPointer(ctx, st.draft.ID, turn.Overall, turn.Overall+1, now); err != nil {
		return nil, nil, err
	}
	st.draft.CurrentPickOverall = turn.Overall + 1
	st.draft.PickStartedAt = now

	committed, err := events.New(st.draft.ID, events.TypePickCommitted, now, events.PickCommittedPayload{
		TeamID:   team.ID.String(),
		PlayerID: playerID,
		Round:    turn.Round,
		Overall:  turn.Overall,
		MadeBy:   string(madeBy),
		PickedAt: now,
	})
	if err != nil {
		return nil, nil, err
	}
	pointer, err := a.pointerEvent(st, now)
	if err != nil {
		return nil, nil, err
	}
	evs := []events.Envelope{committed, pointer}

	result := &CommitResult{Pick: pick, Complete: st.draft.Complete()}
	if result.Complete {
		done, err := events.New(st.draft.ID, events.TypeDraftCompleted, now, events.DraftCompletedPayload{
			TotalPicks:  st.draft.TotalPicks(),
			CompletedAt: now,
		})
		if err != nil {
			return nil, nil, err
		}
		evs = append(evs, done)
	} else {
		result.Next, err = a.onClockView(st)
		if err != nil {
			return nil, nil, err
		}
	}

	log.Info().
		Str("draft_id", st.draft.ID.String()).
		Int("overall", turn.Overall).
		Int("slot", team.Slot).
		Str("player_id", playerID).
		Str("made_by", string(madeBy)).
		Msg("pick committed")
	return result, evs, nil
}

// UndoLastPick retracts the most recent pick and puts its team back on the
// clock. With an empty ledger it only restarts the clock.
func (a *App) UndoLastPick(ctx context.Context, draftID uuid.UUID) (*UndoResult, error) {
	var (
		result *UndoResult
		evs    []events.Envelope
	)
	err := a.repo.InTx(ctx, func(tx repository.Store) error {
		st, err := loadState(ctx, tx, draftID)
		if err != nil {
			return err
		}
		now := a.clock.Now()
		cur := st.draft.CurrentPickOverall
		result = &UndoResult{}
		evs = nil

		last, ok := st.ledger.RemoveLast()
		if !ok {
			if err := tx.UpdateDraftPointer(ctx, draftID, cur, cur, now); err != nil {
				return err
			}
		} else {
			if err := tx.DeletePick(ctx, draftID, last.Overall); err != nil {
				return err
			}
			if err := tx.UpdateDraftPointer(ctx, draftID, cur, last.Overall, now); err != nil {
				return err
			}
			result.Retracted = &last
			ev, err := events.New(draftID, events.TypePickRetracted, now, events.PickRetractedPayload{
				TeamID:      last.TeamID.String(),
				PlayerID:    last.PlayerID,
				Round:       last.Round,
				Overall:     last.Overall,
				RetractedAt: now,
			})
			if err != nil {
				return err
			}
			evs = append(evs, ev)
			st.draft.CurrentPickOverall = last.Overall
		}
		st.draft.PickStartedAt = now

		pointer, err := a.pointerEvent(st, now)
		if err != nil {
			return err
		}
		evs = append(evs, pointer)
		if !st.draft.Complete() {
			if result.Current, err = a.onClockView(st); err != nil {
				return err
			}
		}
		return tx.RecordEvents(ctx, evs)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to undo pick: %w", mapConflict(err))
	}

	ev := log.Info().Str("draft_id", draftID.String())
	if result.Retracted != nil {
		ev = ev.Int("overall", result.Retracted.Overall).Str("player_id", result.Retracted.PlayerID)
	}
	ev.Msg("undo last pick")

	a.notify(ctx, evs)
	return result, nil
}

func (a *App) pointerEvent(st *state, now time.Time) (events.Envelope, error) {
	d := st.draft
	payload := events.PointerUpdatedPayload{
		CurrentPickOverall: d.CurrentPickOverall,
		PickStartedAt:      d.PickStartedAt,
		ClockSeconds:       d.Settings.ClockSeconds,
		Complete:           d.Complete(),
	}
	if !payload.Complete {
		turn, team, err := st.onClock(0)
		if err != nil {
			return events.Envelope{}, err
		}
		payload.Round = turn.Round
		payload.Slot = turn.Slot
		payload.TeamID = team.ID.String()
		if deadline, ok := a.clock.Deadline(d.Settings.ClockSeconds, d.PickStartedAt); ok {
			payload.DeadlineAt = &deadline
		}
	}
	return events.New(d.ID, events.TypePointerUpdated, now, payload)
}

// mapConflict reports storage-level write conflicts and a ledger read
// mid-change as a lost turn.
func mapConflict(err error) error {
	if errors.Is(err, repository.ErrConflict) || errors.Is(err, ledger.ErrOutOfSequence) {
		return fmt.Errorf("%w: %w", ErrNotOnClock, err)
	}
	return err
}

// state is one transactional snapshot of a draft.
type state struct {
	draft  *models.Draft
	teams  []models.Team
	ledger *ledger.Ledger
	order  order.Config
}

func loadState(ctx context.Context, tx repository.Store, draftID uuid.UUID) (*state, error) {
	d, err := tx.LoadDraft(ctx, draftID)
	if err != nil {
		return nil, err
	}
	teams, err := tx.LoadTeams(ctx, draftID)
	if err != nil {
		return nil, err
	}
	picks, err := tx.LoadPicks(ctx, draftID)
	if err != nil {
		return nil, err
	}
	l, err := ledger.New(picks)
	if err != nil {
		return nil, fmt.Errorf("corrupt ledger for draft %s: %w", draftID, err)
	}
	return &state{draft: d, teams: teams, ledger: l, order: order.NewConfig(*d, teams)}, nil
}

// onClock resolves the current turn. A non-zero expected overall that no
// longer matches the pointer means the caller's turn has passed.
func (s *state) onClock(expected int) (order.Turn, models.Team, error) {
	cur := s.draft.CurrentPickOverall
	if expected != 0 && expected != cur {
		return order.Turn{}, models.Team{}, fmt.Errorf("%w: expected pick %d, draft is on pick %d", ErrNotOnClock, expected, cur)
	}
	turn, err := s.order.OnClock(cur)
	if err != nil {
		return order.Turn{}, models.Team{}, err
	}
	for _, t := range s.teams {
		if t.Slot == turn.Slot {
			return turn, t, nil
		}
	}
	return order.Turn{}, models.Team{}, fmt.Errorf("%w: no team in slot %d", ErrConfiguration, turn.Slot)
}

func findTeam(teams []models.Team, id uuid.UUID) (models.Team, bool) {
	for _, t := range teams {
		if t.ID == id {
			return t, true
		}
	}
	return models.Team{}, false
}
