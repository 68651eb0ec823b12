// Package money handles squad cost arithmetic. Costs are integers in
// tenths of a million, the league's native unit, so constraint sums stay
// exact and never pick up floating round-off.
package money

import "fmt"

// Tenths is a cost in tenths of a million.
type Tenths int64

// Millions returns the cost as a floating figure in millions, for display only.
func (t Tenths) Millions() float64 {
	return float64(t) / 10
}

// String renders the cost the way the league displays it, e.g. "£12.5m".
func (t Tenths) String() string {
	if t < 0 {
		return fmt.Sprintf("-£%.1fm", float64(-t)/10)
	}
	return fmt.Sprintf("£%.1fm", float64(t)/10)
}

// Sum adds a slice of costs exactly.
func Sum(costs []Tenths) Tenths {
	var total Tenths
	for _, c := range costs {
		total += c
	}
	return total
}
