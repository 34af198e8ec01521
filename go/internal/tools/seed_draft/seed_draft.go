package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/snakedraft/go/internal/dbconfig"
	"github.com/mcdev12/snakedraft/go/internal/draft"
	"github.com/mcdev12/snakedraft/go/internal/draft/repository"
	"github.com/mcdev12/snakedraft/go/internal/player"
)

// seedFile lists the drafts to create. An empty file seeds one default
// draft.
type seedFile struct {
	Drafts []draft.CreateDraftRequest `yaml:"drafts"`
}

func main() {
	ctx := context.Background()

	// 1) Load the seed file, if any
	seeds := seedFile{}
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "read %s: %v\n", os.Args[1], err)
			os.Exit(1)
		}
		if err := yaml.Unmarshal(data, &seeds); err != nil {
			fmt.Fprintf(os.Stderr, "unmarshal seed file: %v\n", err)
			os.Exit(1)
		}
	}
	if len(seeds.Drafts) == 0 {
		seeds.Drafts = []draft.CreateDraftRequest{draft.DefaultCreateDraftRequest()}
	}

	// 2) Build each draft in memory so it goes through the same validation
	// and produces the same DraftCreated event as the server.
	mem := repository.NewMemory()
	app := draft.NewApp(mem, player.NewCatalog(nil), nil)

	// 3) Connect to DB
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = dbconfig.NewConfigFromEnv().DSN()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 4) Seed drafts
	total, inserted, errs := len(seeds.Drafts), 0, 0
	for i, req := range seeds.Drafts {
		board, err := app.CreateDraft(ctx, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "draft %d: %v\n", i, err)
			errs++
			continue
		}
		if err := insertDraft(ctx, pool, board, mem); err != nil {
			fmt.Fprintf(os.Stderr, "draft %d: %v\n", i, err)
			errs++
			continue
		}
		inserted++
		fmt.Printf("seeded draft %s (%d teams, %d rounds)\n",
			board.Draft.ID, board.Draft.TeamCount, board.Draft.Settings.Rounds)
	}
	fmt.Printf("Drafts seed: total=%d inserted=%d errors=%d\n", total, inserted, errs)
	if errs > 0 {
		os.Exit(1)
	}
}

// insertDraft copies a draft, its teams and its outbox events in one
// transaction, so the relay announces it once the rows are visible.
func insertDraft(ctx context.Context, pool *pgxpool.Pool, board *draft.Board, mem *repository.Memory) error {
	settings, err := json.Marshal(board.Draft.Settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		d := board.Draft
		if _, err := tx.Exec(ctx, `
            INSERT INTO drafts (
              id, team_count, settings, current_pick_overall,
              pick_started_at, created_at, updated_at
            ) VALUES ($1,$2,$3,$4,$5,$6,$6)
        `, d.ID, d.TeamCount, settings, d.CurrentPickOverall, d.PickStartedAt, d.CreatedAt); err != nil {
			return fmt.Errorf("insert draft: %w", err)
		}

		for _, t := range board.Teams {
			if _, err := tx.Exec(ctx, `
                INSERT INTO draft_teams (id, draft_id, name, slot, is_bot, strategy)
                VALUES ($1,$2,$3,$4,$5,$6)
            `, t.ID, d.ID, t.Name, t.Slot, t.IsBot, t.Strategy); err != nil {
				return fmt.Errorf("insert team %d: %w", t.Slot, err)
			}
		}

		for _, ev := range mem.Events(d.ID) {
			if _, err := tx.Exec(ctx, `
                INSERT INTO draft_outbox (id, draft_id, event_type, payload, created_at)
                VALUES ($1,$2,$3,$4,$5)
            `, ev.EventID, ev.DraftID, string(ev.EventType), []byte(ev.Payload), ev.Timestamp); err != nil {
				return fmt.Errorf("insert outbox event %s: %w", ev.EventType, err)
			}
		}
		return nil
	})
}
