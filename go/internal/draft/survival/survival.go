// Package survival estimates whether a player will still be on the board at
// a viewer's next turn. Estimates are advisory and never gate a pick.
package survival

import (
	"math"

	"github.com/mcdev12/snakedraft/go/internal/draft/order"
)

const (
	// Spread is the softness, in picks, of the logistic curve around ADP.
	Spread = 8.0
	// Steepness is the logistic k.
	Steepness = 0.7
)

// Input describes one survivability query.
type Input struct {
	Order          order.Config
	CurrentOverall int
	ViewerSlot     int
	ADP            *float64
}

// Result is the answer to one query.
type Result struct {
	PicksUntil      int     `json:"picks_until"`
	NextPickOverall int     `json:"next_pick_overall"`
	Probability     float64 `json:"probability"`
}

// Estimate computes the survival probability for in.
func Estimate(in Input) Result {
	teams := in.Order.TeamCount()
	until := PicksUntil(in.Order, in.CurrentOverall, in.ViewerSlot)
	next := in.CurrentOverall + until

	var p float64
	if in.ADP == nil || math.IsNaN(*in.ADP) || math.IsInf(*in.ADP, 0) {
		p = 1 - float64(until)/float64(2*max(teams, 1))
	} else {
		// adp - next: an ADP later than our next pick pushes p toward 1.
		x := (*in.ADP - float64(next)) / Spread
		p = 1 / (1 + math.Exp(-Steepness*x))
	}
	return Result{
		PicksUntil:      until,
		NextPickOverall: next,
		Probability:     clamp01(p),
	}
}

// PicksUntil counts the picks between the current one and the viewer's next
// turn: the rest of this round plus the viewer's position in the next round.
// When the draft ends with this round only the remainder is counted.
func PicksUntil(cfg order.Config, currentOverall, viewerSlot int) int {
	teams := cfg.TeamCount()
	if teams <= 1 {
		return 0
	}
	if currentOverall < 1 {
		currentOverall = 1
	}
	round := (currentOverall + teams - 1) / teams
	idx := (currentOverall - 1) % teams
	forward := teams - idx - 1

	next := round + 1
	if next > cfg.Rounds {
		return forward
	}
	mine := cfg.IndexInRound(next, viewerSlot)
	if mine < 0 {
		return forward
	}
	return forward + mine + 1
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
