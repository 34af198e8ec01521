package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pterm/pterm"

	"github.com/mcdev12/snakedraft/go/internal/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/repository"
	"github.com/mcdev12/snakedraft/go/internal/player"
)

// draftsim runs a bot-only draft offline and prints the result. It is a
// private instance of the draft engine; nothing is shared with a server.
func main() {
	ctx := context.Background()

	catalog, err := player.Load(ctx, getEnv("PLAYERS_PATH", "data/players.yaml"))
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	req := draft.DefaultCreateDraftRequest()
	req.Settings.Rounds = getEnvAsInt("DRAFTSIM_ROUNDS", req.Settings.Rounds)
	if third, _ := strconv.ParseBool(os.Getenv("DRAFTSIM_THIRD_ROUND_REVERSAL")); third {
		req.Settings.ThirdRoundReversal = true
	}
	teams := getEnvAsInt("DRAFTSIM_TEAMS", len(req.Teams))
	strategy := os.Getenv("DRAFTSIM_STRATEGY")
	req.Teams = make([]draft.TeamConfig, teams)
	for i := range req.Teams {
		req.Teams[i] = draft.TeamConfig{
			Name:     fmt.Sprintf("Bot %d", i+1),
			Slot:     i + 1,
			IsBot:    true,
			Strategy: strategy,
		}
	}

	// A fake clock stamps picks a bot delay apart without waiting.
	fc := clockwork.NewFakeClock()
	app := draft.NewApp(repository.NewMemory(), catalog, fc)

	board, err := app.CreateDraft(ctx, req)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	pterm.Info.Printfln("Simulating %d teams x %d rounds from %d players",
		teams, req.Settings.Rounds, catalog.Len())

	if err := run(ctx, app, fc, board.Draft.ID); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	board, err = app.GetBoard(ctx, board.Draft.ID)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	printBoard(board, catalog)
	if err := printRosters(ctx, app, board, catalog); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func run(ctx context.Context, app *draft.App, fc *clockwork.FakeClock, draftID uuid.UUID) error {
	board, err := app.GetBoard(ctx, draftID)
	if err != nil {
		return err
	}
	bar, _ := pterm.DefaultProgressbar.
		WithTotal(board.Draft.TotalPicks()).
		WithTitle("Drafting").
		WithRemoveWhenDone(true).
		Start()

	for board.OnClock != nil {
		fc.Advance(time.Second)
		res, err := app.AutoPick(ctx, draft.AutoPickRequest{
			DraftID:         board.Draft.ID,
			ExpectedOverall: board.OnClock.Turn.Overall,
		})
		if err != nil {
			return fmt.Errorf("pick %d: %w", board.OnClock.Turn.Overall, err)
		}
		bar.Increment()
		board.OnClock = res.Next
	}
	return nil
}
