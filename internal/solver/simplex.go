package solver

import (
	"fmt"
	"math"
)

// The relaxation solver: a dense two-phase primal simplex over
//
//	maximize c·x  subject to  A x {<=,=} b,  0 <= x <= 1
//
// Upper bounds are expressed as explicit rows, equality rows get artificial
// variables, and Bland's rule is used throughout so the search cannot cycle.
// Relaxations are tiny (a few hundred variables, pool-sized plus a handful
// of structural rows), so the full-tableau form is plenty fast.

const (
	lpEpsilon = 1e-9

	// lpIntegralTolerance decides when a relaxed variable counts as 0 or 1.
	lpIntegralTolerance = 1e-6
)

type lpStatus int

const (
	lpOptimal lpStatus = iota
	lpInfeasible
)

type lpRow struct {
	coeffs []float64
	sense  Sense
	rhs    float64
}

// solveRelaxation maximizes c·x over the rows with every variable bounded to
// [0,1]. It returns the optimal point and objective, or lpInfeasible when no
// point satisfies the rows.
func solveRelaxation(c []float64, rows []lpRow) ([]float64, float64, lpStatus, error) {
	n := len(c)

	// Bound rows x_j <= 1 keep the tableau in plain standard form.
	all := make([]lpRow, 0, len(rows)+n)
	all = append(all, rows...)
	for j := 0; j < n; j++ {
		bound := make([]float64, n)
		bound[j] = 1
		all = append(all, lpRow{coeffs: bound, sense: LE, rhs: 1})
	}

	t, err := newTableau(c, all)
	if err != nil {
		return nil, 0, lpInfeasible, err
	}

	feasible, err := t.phaseOne()
	if err != nil {
		return nil, 0, lpInfeasible, err
	}
	if !feasible {
		return nil, 0, lpInfeasible, nil
	}

	if err := t.phaseTwo(); err != nil {
		return nil, 0, lpInfeasible, err
	}

	x := t.solution(n)
	var obj float64
	for j := 0; j < n; j++ {
		obj += c[j] * x[j]
	}
	return x, obj, lpOptimal, nil
}

// rowKind records what auxiliary columns a row received.
type rowKind byte

const (
	rowSlack rowKind = iota // <= with nonnegative rhs: slack column, slack basic
	rowSurplus              // >= with nonnegative rhs: surplus + artificial, artificial basic
	rowArtificial           // =: artificial column, artificial basic
)

type tableau struct {
	rows     [][]float64 // m x (cols+1), last column is the rhs
	basis    []int       // basic column per row
	cost     []float64   // phase-two objective per column
	artStart int         // first artificial column
	cols     int
}

func newTableau(c []float64, in []lpRow) (*tableau, error) {
	n := len(c)
	m := len(in)

	// Normalize to nonnegative right-hand sides; negating a <= row turns
	// it into a >= row.
	kinds := make([]rowKind, m)
	norm := make([]lpRow, m)
	for i, row := range in {
		if len(row.coeffs) != n {
			return nil, fmt.Errorf("relaxation row has %d coefficients, expected %d", len(row.coeffs), n)
		}
		coeffs := append([]float64(nil), row.coeffs...)
		rhs := row.rhs
		sense := row.sense
		flipped := false
		if rhs < 0 {
			for j := range coeffs {
				coeffs[j] = -coeffs[j]
			}
			rhs = -rhs
			flipped = true
		}
		norm[i] = lpRow{coeffs: coeffs, sense: sense, rhs: rhs}
		switch {
		case sense == EQ:
			kinds[i] = rowArtificial
		case !flipped:
			kinds[i] = rowSlack
		default:
			kinds[i] = rowSurplus
		}
	}

	slackCount := 0
	artCount := 0
	for _, k := range kinds {
		switch k {
		case rowSlack, rowSurplus:
			slackCount++
		}
		if k != rowSlack {
			artCount++
		}
	}

	artStart := n + slackCount
	cols := artStart + artCount

	t := &tableau{
		rows:     make([][]float64, m),
		basis:    make([]int, m),
		cost:     make([]float64, cols),
		artStart: artStart,
		cols:     cols,
	}
	copy(t.cost, c)

	slackCol := n
	artCol := artStart
	for i := range norm {
		row := make([]float64, cols+1)
		copy(row, norm[i].coeffs)
		row[cols] = norm[i].rhs
		switch kinds[i] {
		case rowSlack:
			row[slackCol] = 1
			t.basis[i] = slackCol
			slackCol++
		case rowSurplus:
			row[slackCol] = -1
			slackCol++
			row[artCol] = 1
			t.basis[i] = artCol
			artCol++
		case rowArtificial:
			row[artCol] = 1
			t.basis[i] = artCol
			artCol++
		}
		t.rows[i] = row
	}

	return t, nil
}

// phaseOne drives the artificial variables to zero; it reports false when the
// rows admit no feasible point.
func (t *tableau) phaseOne() (bool, error) {
	if t.artStart == t.cols {
		return true, nil // no artificials, initial slack basis is feasible
	}
	phase1 := make([]float64, t.cols)
	for j := t.artStart; j < t.cols; j++ {
		phase1[j] = -1
	}
	if err := t.iterate(phase1, t.cols); err != nil {
		return false, err
	}
	var artSum float64
	for i, b := range t.basis {
		if b >= t.artStart {
			artSum += t.rows[i][t.cols]
		}
	}
	if artSum > lpEpsilon {
		return false, nil
	}

	// Pivot out any artificial still basic at zero so phase two cannot
	// re-inflate it. A row with no nonzero real column is redundant and
	// stays inert through later pivots.
	for i, b := range t.basis {
		if b < t.artStart {
			continue
		}
		for j := 0; j < t.artStart; j++ {
			if math.Abs(t.rows[i][j]) > lpEpsilon {
				t.pivot(i, j)
				break
			}
		}
	}
	return true, nil
}

// phaseTwo optimizes the real objective; artificial columns are barred from
// re-entering the basis.
func (t *tableau) phaseTwo() error {
	return t.iterate(t.cost, t.artStart)
}

// iterate runs primal simplex pivots until no entering column improves the
// objective. enterLimit excludes columns at or beyond it from entering.
// Bland's rule (lowest eligible index for both entering and leaving choices)
// guarantees termination; the iteration cap is a defensive backstop.
func (t *tableau) iterate(cost []float64, enterLimit int) error {
	m := len(t.rows)
	maxIter := 200 * (m + t.cols)

	for iter := 0; iter < maxIter; iter++ {
		enter := -1
		for j := 0; j < enterLimit; j++ {
			if t.reducedCost(cost, j) > lpEpsilon {
				enter = j
				break
			}
		}
		if enter < 0 {
			return nil
		}

		leave := -1
		bestRatio := 0.0
		for i := 0; i < m; i++ {
			a := t.rows[i][enter]
			if a <= lpEpsilon {
				continue
			}
			ratio := t.rows[i][t.cols] / a
			if leave < 0 || ratio < bestRatio-lpEpsilon ||
				(ratio <= bestRatio+lpEpsilon && t.basis[i] < t.basis[leave]) {
				leave = i
				bestRatio = ratio
			}
		}
		if leave < 0 {
			// Cannot happen with x <= 1 bound rows present, so treat it
			// as a solver defect rather than "unbounded".
			return fmt.Errorf("relaxation reported unbounded despite variable bounds")
		}

		t.pivot(leave, enter)
	}
	return fmt.Errorf("simplex exceeded %d iterations", maxIter)
}

// reducedCost computes cost[j] - costBasis·column(j) against the current basis.
func (t *tableau) reducedCost(cost []float64, j int) float64 {
	r := cost[j]
	for i, b := range t.basis {
		cb := cost[b]
		if cb != 0 {
			r -= cb * t.rows[i][j]
		}
	}
	return r
}

func (t *tableau) pivot(leave, enter int) {
	lr := t.rows[leave]
	p := lr[enter]
	for j := range lr {
		lr[j] /= p
	}
	for i, row := range t.rows {
		if i == leave {
			continue
		}
		f := row[enter]
		if f == 0 {
			continue
		}
		for j := range row {
			row[j] -= f * lr[j]
		}
	}
	t.basis[leave] = enter
}

// solution extracts the first n structural variables, clamped into [0,1].
func (t *tableau) solution(n int) []float64 {
	x := make([]float64, n)
	for i, b := range t.basis {
		if b < n {
			v := t.rows[i][t.cols]
			if v < 0 {
				v = 0
			} else if v > 1 {
				v = 1
			}
			x[b] = v
		}
	}
	return x
}
