// Package solver implements an exact 0/1 integer-program solver: a dense
// two-phase simplex for the continuous relaxation wrapped in depth-first
// branch-and-bound with incumbent pruning.
package solver

import "fmt"

// Sense is the comparison direction of a constraint row.
type Sense byte

const (
	// LE means the row sum must be less than or equal to the right-hand side.
	LE Sense = iota
	// EQ means the row sum must equal the right-hand side exactly.
	EQ
)

// Constraint is one linear row over the binary decision variables.
// Coefficients and right-hand sides are integers so feasibility of an
// integral assignment can be checked exactly, with no floating round-off.
type Constraint struct {
	Name   string
	Coeffs []int64
	Sense  Sense
	RHS    int64
}

// Problem is a 0/1 integer program: maximize Objective·x subject to the
// constraint rows, with every decision variable binary.
type Problem struct {
	Objective   []int64 // scaled fixed-point values, see ObjectiveScale
	Constraints []Constraint
}

// ObjectiveScale converts between the float predicted values supplied by
// callers and the fixed-point objective coefficients carried in a Problem.
// Four decimal places comfortably exceed the precision of any predicted
// points figure while keeping sums exact in int64.
const ObjectiveScale = 10000

// NumVars returns the number of decision variables.
func (p *Problem) NumVars() int {
	return len(p.Objective)
}

// validate reports structural defects that would make the search meaningless.
func (p *Problem) validate() error {
	n := len(p.Objective)
	if n == 0 {
		return fmt.Errorf("problem has no decision variables")
	}
	for _, row := range p.Constraints {
		if len(row.Coeffs) != n {
			return fmt.Errorf("constraint %q has %d coefficients, expected %d", row.Name, len(row.Coeffs), n)
		}
	}
	return nil
}

// feasible checks an integral assignment against every row using exact
// integer arithmetic.
func (p *Problem) feasible(selected []bool) bool {
	return p.violatedRow(selected) == ""
}

// violatedRow returns the name of the first constraint an assignment
// violates, or "" when the assignment is feasible.
func (p *Problem) violatedRow(selected []bool) string {
	for _, row := range p.Constraints {
		var sum int64
		for j, coeff := range row.Coeffs {
			if selected[j] {
				sum += coeff
			}
		}
		switch row.Sense {
		case LE:
			if sum > row.RHS {
				return row.Name
			}
		case EQ:
			if sum != row.RHS {
				return row.Name
			}
		}
	}
	return ""
}

// objectiveOf sums the scaled objective over the selected variables exactly.
func (p *Problem) objectiveOf(selected []bool) int64 {
	var sum int64
	for j, v := range p.Objective {
		if selected[j] {
			sum += v
		}
	}
	return sum
}
