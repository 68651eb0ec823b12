// Package model defines the candidate pool data model and translates a pool
// plus squad constraints into the integer program solved by internal/solver.
package model

import (
	"fmt"
	"math"
	"sort"

	"github.com/fplopt/squad-optimizer/internal/solver"
	"github.com/fplopt/squad-optimizer/pkg/money"
)

// Candidate is one selectable player with everything the optimizer needs:
// a stable identifier, the club quota label, the position category, an exact
// integer cost, and a precomputed predicted points figure. The optimizer is
// agnostic to how Predicted was derived.
type Candidate struct {
	ID        int          `yaml:"id" json:"id"`
	Name      string       `yaml:"name" json:"name"`
	Club      string       `yaml:"club" json:"club"`
	Position  string       `yaml:"position" json:"position"`
	Cost      money.Tenths `yaml:"cost" json:"cost"`
	Predicted float64      `yaml:"predicted" json:"predicted"`
}

// Pool is the ordered candidate pool. The optimizer reads it and never
// mutates it.
type Pool []Candidate

// Constraints is the squad composition ruleset. PositionCounts is exact per
// position; MaxPerClub caps every club appearing in the pool.
type Constraints struct {
	Budget         money.Tenths   `yaml:"budget" json:"budget"`
	SquadSize      int            `yaml:"size" json:"size"`
	PositionCounts map[string]int `yaml:"positions" json:"positions"`
	MaxPerClub     int            `yaml:"maxPerClub" json:"maxPerClub"`
}

// ConfigurationError marks malformed constraints or a pool the constraints
// can never be satisfied against. It is fatal and never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the ruleset in isolation from any pool.
func (c Constraints) Validate() error {
	if c.SquadSize <= 0 {
		return configErrorf("squad size must be positive, got %d", c.SquadSize)
	}
	if c.Budget < 0 {
		return configErrorf("budget must be non-negative, got %d", c.Budget)
	}
	if c.MaxPerClub < 1 {
		return configErrorf("max per club must be at least 1, got %d", c.MaxPerClub)
	}
	if len(c.PositionCounts) == 0 {
		return configErrorf("position counts must not be empty")
	}
	total := 0
	for pos, count := range c.PositionCounts {
		if count < 0 {
			return configErrorf("position %s has negative required count %d", pos, count)
		}
		total += count
	}
	if total != c.SquadSize {
		return configErrorf("position counts sum to %d but squad size is %d", total, c.SquadSize)
	}
	return nil
}

// positions returns the constrained position labels in sorted order so the
// generated rows are deterministic.
func (c Constraints) positions() []string {
	out := make([]string, 0, len(c.PositionCounts))
	for pos := range c.PositionCounts {
		out = append(out, pos)
	}
	sort.Strings(out)
	return out
}

// Build translates the pool and constraints into a 0/1 integer program: one
// binary variable per candidate, a maximization objective over predicted
// points, and rows for the budget ceiling, total squad size, exact
// per-position counts, and the per-club cap.
func Build(pool Pool, cons Constraints) (*solver.Problem, error) {
	if err := cons.Validate(); err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, configErrorf("candidate pool is empty")
	}

	seen := make(map[int]bool, len(pool))
	positionTotals := make(map[string]int)
	for _, cand := range pool {
		if seen[cand.ID] {
			return nil, configErrorf("duplicate candidate ID %d in pool", cand.ID)
		}
		seen[cand.ID] = true
		if cand.Cost < 0 {
			return nil, configErrorf("candidate %d (%s) has negative cost %d", cand.ID, cand.Name, cand.Cost)
		}
		if _, ok := cons.PositionCounts[cand.Position]; !ok {
			return nil, configErrorf("candidate %d (%s) has unknown position %q", cand.ID, cand.Name, cand.Position)
		}
		positionTotals[cand.Position]++
	}

	for _, pos := range cons.positions() {
		required := cons.PositionCounts[pos]
		if positionTotals[pos] < required {
			return nil, configErrorf("position %s requires %d candidates but the pool only has %d",
				pos, required, positionTotals[pos])
		}
	}

	n := len(pool)
	p := &solver.Problem{
		Objective: make([]int64, n),
	}
	for j, cand := range pool {
		p.Objective[j] = int64(math.Round(cand.Predicted * solver.ObjectiveScale))
	}

	budget := solver.Constraint{
		Name:   "budget",
		Coeffs: make([]int64, n),
		Sense:  solver.LE,
		RHS:    int64(cons.Budget),
	}
	for j, cand := range pool {
		budget.Coeffs[j] = int64(cand.Cost)
	}
	p.Constraints = append(p.Constraints, budget)

	size := solver.Constraint{
		Name:   "size",
		Coeffs: make([]int64, n),
		Sense:  solver.EQ,
		RHS:    int64(cons.SquadSize),
	}
	for j := range pool {
		size.Coeffs[j] = 1
	}
	p.Constraints = append(p.Constraints, size)

	for _, pos := range cons.positions() {
		row := solver.Constraint{
			Name:   "position:" + pos,
			Coeffs: make([]int64, n),
			Sense:  solver.EQ,
			RHS:    int64(cons.PositionCounts[pos]),
		}
		for j, cand := range pool {
			if cand.Position == pos {
				row.Coeffs[j] = 1
			}
		}
		p.Constraints = append(p.Constraints, row)
	}

	clubs := make([]string, 0)
	clubSeen := make(map[string]bool)
	for _, cand := range pool {
		if !clubSeen[cand.Club] {
			clubSeen[cand.Club] = true
			clubs = append(clubs, cand.Club)
		}
	}
	sort.Strings(clubs)
	for _, club := range clubs {
		row := solver.Constraint{
			Name:   "club:" + club,
			Coeffs: make([]int64, n),
			Sense:  solver.LE,
			RHS:    int64(cons.MaxPerClub),
		}
		for j, cand := range pool {
			if cand.Club == club {
				row.Coeffs[j] = 1
			}
		}
		p.Constraints = append(p.Constraints, row)
	}

	return p, nil
}
