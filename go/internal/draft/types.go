package draft

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcdev12/snakedraft/go/internal/draft/bot"
	"github.com/mcdev12/snakedraft/go/internal/draft/order"
	"github.com/mcdev12/snakedraft/go/internal/draft/survival"
	"github.com/mcdev12/snakedraft/go/internal/models"
)

// TeamConfig describes one seat when a draft is created.
type TeamConfig struct {
	Name     string `json:"name" yaml:"name"`
	Slot     int    `json:"slot" yaml:"slot"`
	IsBot    bool   `json:"is_bot" yaml:"is_bot"`
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// CreateDraftRequest is the input to App.CreateDraft.
type CreateDraftRequest struct {
	Settings models.DraftSettings `json:"settings" yaml:"settings"`
	Teams    []TeamConfig         `json:"teams" yaml:"teams"`
}

// DefaultCreateDraftRequest is a ten-team, fifteen-round snake with a
// minute per pick. Slot 1 is the human seat; the rest are bots.
func DefaultCreateDraftRequest() CreateDraftRequest {
	teams := make([]TeamConfig, 10)
	for i := range teams {
		teams[i] = TeamConfig{
			Name:     fmt.Sprintf("Team %d", i+1),
			Slot:     i + 1,
			IsBot:    i > 0,
			Strategy: bot.TagNeedAware,
		}
	}
	teams[0].Name = "You"
	return CreateDraftRequest{
		Settings: models.DraftSettings{
			Format:       models.DraftFormatSnake,
			Rounds:       15,
			ClockSeconds: 60,
			Roster:       models.DefaultRosterRequirements(),
		},
		Teams: teams,
	}
}

// CommitPickRequest is the input to App.CommitPick.
type CommitPickRequest struct {
	DraftID  uuid.UUID     `json:"draft_id"`
	TeamID   uuid.UUID     `json:"team_id"`
	PlayerID string        `json:"player_id"`
	Token    string        `json:"token,omitempty"`
	MadeBy   models.MadeBy `json:"made_by"`
	// ExpectedOverall pins the action to one turn. Zero accepts whatever
	// pick is current.
	ExpectedOverall int `json:"expected_overall,omitempty"`
}

// AutoPickRequest is the input to App.AutoPick.
type AutoPickRequest struct {
	DraftID uuid.UUID `json:"draft_id"`
	// Candidates in preference order. Nil means the whole catalog by ADP.
	Candidates      []string `json:"candidates,omitempty"`
	ExpectedOverall int      `json:"expected_overall,omitempty"`
}

// CommitResult describes the state after a successful commit.
type CommitResult struct {
	Pick models.Pick `json:"pick"`
	// Next is nil once the draft is complete.
	Next     *OnClock `json:"next,omitempty"`
	Complete bool     `json:"complete"`
}

// UndoResult describes the state after an undo.
type UndoResult struct {
	// Retracted is nil when the ledger was empty.
	Retracted *models.Pick `json:"retracted,omitempty"`
	Current   *OnClock     `json:"current,omitempty"`
}

// OnClock is the team on the clock and the time it has left.
type OnClock struct {
	Turn             order.Turn  `json:"turn"`
	Team             models.Team `json:"team"`
	SecondsRemaining int         `json:"seconds_remaining"`
	ClockSeconds     int         `json:"clock_seconds"`
	PickStartedAt    time.Time   `json:"pick_started_at"`
	DeadlineAt       *time.Time  `json:"deadline_at,omitempty"`
}

// ClockState is read from a single draft row so the pointer and the turn
// start always belong together.
type ClockState struct {
	CurrentPickOverall int        `json:"current_pick_overall"`
	ClockSeconds       int        `json:"clock_seconds"`
	PickStartedAt      time.Time  `json:"pick_started_at"`
	SecondsRemaining   int        `json:"seconds_remaining"`
	DeadlineAt         *time.Time `json:"deadline_at,omitempty"`
	Complete           bool       `json:"complete"`
}

// Survivability is one candidate's estimate.
type Survivability struct {
	PlayerID string   `json:"player_id"`
	ADP      *float64 `json:"adp,omitempty"`
	survival.Result
}

// Board is a full read of one draft.
type Board struct {
	Draft   models.Draft  `json:"draft"`
	Teams   []models.Team `json:"teams"`
	Picks   []models.Pick `json:"picks"`
	OnClock *OnClock      `json:"on_clock,omitempty"`
}
