package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"
)

// ErrInfeasible is the valid "no squad exists" outcome: the search tree was
// exhausted without finding any assignment that satisfies every constraint.
var ErrInfeasible = errors.New("no feasible selection satisfies the constraints")

// ErrNoIncumbent means the node or time budget ran out before any feasible
// assignment was found, which is distinct from proven infeasibility.
var ErrNoIncumbent = errors.New("no feasible selection found within the solver budget")

// Status describes how a solve terminated.
type Status int

const (
	// StatusOptimal means the search tree was exhausted and the result is
	// proven optimal.
	StatusOptimal Status = iota
	// StatusBudgetExhausted means the node or time budget expired; the
	// result carries the best incumbent and its optimality gap.
	StatusBudgetExhausted
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusBudgetExhausted:
		return "budget-exhausted"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Options bounds the branch-and-bound search. Zero values mean unlimited.
type Options struct {
	MaxNodes  int
	TimeLimit time.Duration
}

// Result is the outcome of a solve. Objective is in the same scaled
// fixed-point units as Problem.Objective; Bound is the best upper bound
// still standing when the search stopped, so Gap == Bound - Objective is
// zero exactly when optimality was proven.
type Result struct {
	Status    Status
	Selected  []bool
	Objective int64
	Bound     float64
	Gap       float64
	Nodes     int
}

// node is one open subproblem: a partial assignment plus the relaxation
// bound of the parent that spawned it.
type node struct {
	assign []int8 // -1 free, 0 fixed out, 1 fixed in
	bound  float64
}

// Solve runs depth-first branch-and-bound over LP relaxations. The x=1
// branch of the most-fractional variable is explored first, ties broken by
// lowest variable index, so repeated runs are deterministic.
func Solve(ctx context.Context, logger *zap.Logger, p *Problem, opts Options) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := p.validate(); err != nil {
		return nil, err
	}

	if opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeLimit)
		defer cancel()
	}

	n := p.NumVars()
	objective := make([]float64, n)
	for j, v := range p.Objective {
		objective[j] = float64(v)
	}

	root := node{assign: make([]int8, n), bound: math.Inf(1)}
	for j := range root.assign {
		root.assign[j] = -1
	}

	var (
		incumbent    []bool
		incumbentObj int64
		haveInc      bool
		nodes        int
		stack        = []node{root}
	)

	for len(stack) > 0 {
		if ctx.Err() != nil || (opts.MaxNodes > 0 && nodes >= opts.MaxNodes) {
			return budgetExhausted(stack, incumbent, incumbentObj, haveInc, nodes, logger)
		}

		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		// A deeper node can never beat the incumbent by more than its
		// parent's relaxation bound.
		if haveInc && cur.bound <= float64(incumbentObj)+boundEpsilon {
			continue
		}

		x, bound, feasible, err := relaxNode(p, objective, cur.assign)
		if err != nil {
			return nil, err
		}
		if !feasible {
			continue
		}
		if haveInc && bound <= float64(incumbentObj)+boundEpsilon {
			continue
		}

		branch := fractionalVariable(cur.assign, x)
		if branch < 0 {
			// Integral relaxation: a candidate solution, re-checked with
			// exact integer arithmetic before it may become the incumbent.
			selected := roundAssignment(cur.assign, x)
			if p.feasible(selected) {
				obj := p.objectiveOf(selected)
				if !haveInc || obj > incumbentObj {
					incumbent = selected
					incumbentObj = obj
					haveInc = true
					logger.Debug("new incumbent",
						zap.String("op", "solver.Solve"),
						zap.Int64("objective", obj),
						zap.Int("nodes", nodes),
					)
				}
				continue
			}
			// The relaxation rounded onto an infeasible lattice point;
			// branch on the first free variable to keep making progress.
			branch = firstFree(cur.assign)
			if branch < 0 {
				continue
			}
		}

		// Push the 0-child first so the 1-child is explored first.
		zero := node{assign: append([]int8(nil), cur.assign...), bound: bound}
		zero.assign[branch] = 0
		one := node{assign: append([]int8(nil), cur.assign...), bound: bound}
		one.assign[branch] = 1
		stack = append(stack, zero, one)
	}

	if !haveInc {
		return nil, ErrInfeasible
	}

	logger.Debug("search tree exhausted",
		zap.String("op", "solver.Solve"),
		zap.Int64("objective", incumbentObj),
		zap.Int("nodes", nodes),
	)

	return &Result{
		Status:    StatusOptimal,
		Selected:  incumbent,
		Objective: incumbentObj,
		Bound:     float64(incumbentObj),
		Gap:       0,
		Nodes:     nodes,
	}, nil
}

// boundEpsilon absorbs relaxation round-off when comparing bounds against
// the integer incumbent objective.
const boundEpsilon = 1e-6

func budgetExhausted(stack []node, incumbent []bool, incumbentObj int64, haveInc bool, nodes int, logger *zap.Logger) (*Result, error) {
	if !haveInc {
		return nil, ErrNoIncumbent
	}
	bound := float64(incumbentObj)
	for _, open := range stack {
		if open.bound > bound && !math.IsInf(open.bound, 1) {
			bound = open.bound
		}
	}
	res := &Result{
		Status:    StatusBudgetExhausted,
		Selected:  incumbent,
		Objective: incumbentObj,
		Bound:     bound,
		Gap:       bound - float64(incumbentObj),
		Nodes:     nodes,
	}
	logger.Debug("solver budget exhausted",
		zap.String("op", "solver.Solve"),
		zap.Int64("objective", incumbentObj),
		zap.Float64("bound", bound),
		zap.Int("nodes", nodes),
	)
	return res, nil
}

// relaxNode substitutes the fixed variables out of the problem, solves the
// continuous relaxation over the free ones, and reassembles a full-length
// fractional point plus its objective bound.
func relaxNode(p *Problem, objective []float64, assign []int8) (x []float64, bound float64, feasible bool, err error) {
	n := len(assign)
	free := make([]int, 0, n)
	for j, a := range assign {
		if a < 0 {
			free = append(free, j)
		}
	}

	var fixedObj float64
	for j, a := range assign {
		if a == 1 {
			fixedObj += objective[j]
		}
	}

	if len(free) == 0 {
		selected := make([]bool, n)
		for j, a := range assign {
			selected[j] = a == 1
		}
		if !p.feasible(selected) {
			return nil, 0, false, nil
		}
		x = make([]float64, n)
		for j, a := range assign {
			if a == 1 {
				x[j] = 1
			}
		}
		return x, fixedObj, true, nil
	}

	c := make([]float64, len(free))
	for k, j := range free {
		c[k] = objective[j]
	}

	rows := make([]lpRow, 0, len(p.Constraints))
	for _, row := range p.Constraints {
		coeffs := make([]float64, len(free))
		rhs := float64(row.RHS)
		for j, coeff := range row.Coeffs {
			switch assign[j] {
			case 1:
				rhs -= float64(coeff)
			case -1:
				coeffs[indexOf(free, j)] = float64(coeff)
			}
		}
		rows = append(rows, lpRow{coeffs: coeffs, sense: row.Sense, rhs: rhs})
	}

	xf, obj, status, err := solveRelaxation(c, rows)
	if err != nil {
		return nil, 0, false, err
	}
	if status == lpInfeasible {
		return nil, 0, false, nil
	}

	x = make([]float64, n)
	for j, a := range assign {
		if a == 1 {
			x[j] = 1
		}
	}
	for k, j := range free {
		x[j] = xf[k]
	}
	return x, fixedObj + obj, true, nil
}

func indexOf(sorted []int, v int) int {
	return sort.SearchInts(sorted, v)
}

// fractionalVariable picks the free variable whose relaxed value is closest
// to one half, lowest index on ties. Returns -1 when the point is integral.
func fractionalVariable(assign []int8, x []float64) int {
	best := -1
	bestDist := math.Inf(1)
	for j, a := range assign {
		if a >= 0 {
			continue
		}
		frac := x[j]
		if frac <= lpIntegralTolerance || frac >= 1-lpIntegralTolerance {
			continue
		}
		dist := math.Abs(frac - 0.5)
		if dist < bestDist-lpEpsilon {
			best = j
			bestDist = dist
		}
	}
	return best
}

func firstFree(assign []int8) int {
	for j, a := range assign {
		if a < 0 {
			return j
		}
	}
	return -1
}

func roundAssignment(assign []int8, x []float64) []bool {
	selected := make([]bool, len(assign))
	for j, a := range assign {
		switch a {
		case 1:
			selected[j] = true
		case 0:
		default:
			selected[j] = x[j] >= 0.5
		}
	}
	return selected
}
