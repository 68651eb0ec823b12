// Package selection maps solver output back onto candidate identities,
// re-validates every constraint with exact integer arithmetic, and picks the
// captain from the final squad.
package selection

import (
	"fmt"
	"sort"

	"github.com/fplopt/squad-optimizer/internal/model"
	"github.com/fplopt/squad-optimizer/pkg/constants"
	"github.com/fplopt/squad-optimizer/pkg/money"
)

// Selection is the chosen squad. Totals are recomputed from candidate data,
// never taken from the solver's floating sums.
type Selection struct {
	Members        []model.Candidate `json:"squad"`
	TotalCost      money.Tenths      `json:"totalCost"`
	TotalPredicted float64           `json:"totalPredicted"`
}

// Captain is the designated leader of a selection. EffectivePoints is the
// doubled predicted figure; the doubling is a reporting transform only.
type Captain struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Club            string  `json:"club"`
	Predicted       float64 `json:"predicted"`
	EffectivePoints float64 `json:"effectivePoints"`
}

// InconsistencyError means the solver claimed feasibility but the defensive
// re-validation disagreed. It signals a solver or modeling bug, never a
// normal user-facing condition, and must abort the run loudly.
type InconsistencyError struct {
	Reason string
}

func (e *InconsistencyError) Error() string {
	return "internal inconsistency: " + e.Reason
}

func inconsistencyf(format string, args ...interface{}) error {
	return &InconsistencyError{Reason: fmt.Sprintf(format, args...)}
}

// positionRank orders squad listings the way team sheets read.
var positionRank = map[string]int{
	constants.PositionGoalkeeper: 0,
	constants.PositionDefender:   1,
	constants.PositionMidfielder: 2,
	constants.PositionForward:    3,
}

// Extract collects the candidates the solver marked selected, recomputes the
// aggregate cost and predicted totals exactly, and re-validates the full
// constraint set.
func Extract(pool model.Pool, cons model.Constraints, selected []bool) (*Selection, error) {
	if len(selected) != len(pool) {
		return nil, inconsistencyf("solver returned %d assignments for a pool of %d", len(selected), len(pool))
	}

	sel := &Selection{}
	positionCounts := make(map[string]int)
	clubCounts := make(map[string]int)
	var costs []money.Tenths
	for j, cand := range pool {
		if !selected[j] {
			continue
		}
		sel.Members = append(sel.Members, cand)
		costs = append(costs, cand.Cost)
		sel.TotalPredicted += cand.Predicted
		positionCounts[cand.Position]++
		clubCounts[cand.Club]++
	}
	sel.TotalCost = money.Sum(costs)

	if len(sel.Members) != cons.SquadSize {
		return nil, inconsistencyf("selection has %d members, squad size is %d", len(sel.Members), cons.SquadSize)
	}
	if sel.TotalCost > cons.Budget {
		return nil, inconsistencyf("selection costs %d, budget is %d", sel.TotalCost, cons.Budget)
	}
	for pos, required := range cons.PositionCounts {
		if positionCounts[pos] != required {
			return nil, inconsistencyf("position %s has %d members, required exactly %d", pos, positionCounts[pos], required)
		}
	}
	for pos := range positionCounts {
		if _, ok := cons.PositionCounts[pos]; !ok {
			return nil, inconsistencyf("selection contains unconstrained position %q", pos)
		}
	}
	for club, count := range clubCounts {
		if count > cons.MaxPerClub {
			return nil, inconsistencyf("club %s has %d members, cap is %d", club, count, cons.MaxPerClub)
		}
	}

	// Team-sheet ordering: goalkeepers first, then by predicted points
	// within a position, ID as the final key for stable output.
	sort.Slice(sel.Members, func(i, k int) bool {
		a, b := sel.Members[i], sel.Members[k]
		if positionRank[a.Position] != positionRank[b.Position] {
			return positionRank[a.Position] < positionRank[b.Position]
		}
		if a.Predicted != b.Predicted {
			return a.Predicted > b.Predicted
		}
		return a.ID < b.ID
	})

	return sel, nil
}

// PickCaptain returns the member with the highest predicted points. Equal
// predictions are broken by lowest ID so repeated runs agree.
func PickCaptain(sel *Selection) (Captain, error) {
	if sel == nil || len(sel.Members) == 0 {
		return Captain{}, fmt.Errorf("cannot pick a captain from an empty selection")
	}

	best := sel.Members[0]
	for _, cand := range sel.Members[1:] {
		if cand.Predicted > best.Predicted ||
			(cand.Predicted == best.Predicted && cand.ID < best.ID) {
			best = cand
		}
	}

	return Captain{
		ID:              best.ID,
		Name:            best.Name,
		Club:            best.Club,
		Predicted:       best.Predicted,
		EffectivePoints: 2 * best.Predicted,
	}, nil
}
