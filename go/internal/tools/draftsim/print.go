package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/mcdev12/snakedraft/go/internal/draft"
	"github.com/mcdev12/snakedraft/go/internal/models"
	"github.com/mcdev12/snakedraft/go/internal/player"
)

// printBoard renders one row per round and one column per slot.
func printBoard(board *draft.Board, catalog *player.Catalog) {
	slotOf := make(map[string]int, len(board.Teams))
	header := []string{"Rd"}
	for _, t := range board.Teams {
		slotOf[t.ID.String()] = t.Slot
		header = append(header, t.Name)
	}

	rounds := board.Draft.Settings.Rounds
	rows := make([][]string, rounds)
	for r := range rows {
		rows[r] = make([]string, len(board.Teams)+1)
		rows[r][0] = strconv.Itoa(r + 1)
	}
	for _, p := range board.Picks {
		rows[p.Round-1][slotOf[p.TeamID.String()]] = fmt.Sprintf("%d. %s", p.Overall, playerLabel(catalog, p.PlayerID))
	}

	data := pterm.TableData{header}
	data = append(data, rows...)
	pterm.DefaultSection.Println("Board")
	_ = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render()
}

func printRosters(ctx context.Context, app *draft.App, board *draft.Board, catalog *player.Catalog) error {
	pterm.DefaultSection.Println("Rosters")
	var panels []pterm.Panel
	for _, t := range board.Teams {
		r, err := app.GetRoster(ctx, board.Draft.ID, t.ID)
		if err != nil {
			return err
		}
		var lines []string
		for _, pos := range models.Positions {
			for _, id := range r.Starters[pos] {
				lines = append(lines, fmt.Sprintf("%-5s %s", pos, playerLabel(catalog, id)))
			}
		}
		for _, id := range r.Flex {
			lines = append(lines, fmt.Sprintf("%-5s %s", "FLEX", playerLabel(catalog, id)))
		}
		for _, id := range r.Bench {
			lines = append(lines, pterm.Gray(fmt.Sprintf("%-5s %s", "BN", playerLabel(catalog, id))))
		}
		box := pterm.DefaultBox.WithTitle(pterm.LightCyan(t.Name)).WithTitleTopLeft().Sprint(strings.Join(lines, "\n"))
		panels = append(panels, pterm.Panel{Data: box})
	}

	// three rosters per row
	var grid [][]pterm.Panel
	for len(panels) > 0 {
		n := min(3, len(panels))
		grid = append(grid, panels[:n])
		panels = panels[n:]
	}
	return pterm.DefaultPanel.WithPanels(grid).Render()
}

func playerLabel(catalog *player.Catalog, id string) string {
	p, ok := catalog.Player(id)
	if !ok {
		return id
	}
	name := p.FullName
	if name == "" {
		name = p.ID
	}
	return fmt.Sprintf("%s %s", name, p.Position)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
