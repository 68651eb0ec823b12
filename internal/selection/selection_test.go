package selection

import (
	"errors"
	"math"
	"testing"

	"github.com/fplopt/squad-optimizer/internal/model"
)

func testPool() model.Pool {
	return model.Pool{
		{ID: 1, Name: "Keeper", Club: "Alpha", Position: "GK", Cost: 45, Predicted: 3.5},
		{ID: 2, Name: "Back One", Club: "Alpha", Position: "DEF", Cost: 55, Predicted: 4.2},
		{ID: 3, Name: "Back Two", Club: "Beta", Position: "DEF", Cost: 50, Predicted: 3.8},
		{ID: 4, Name: "Wide", Club: "Gamma", Position: "MID", Cost: 75, Predicted: 6.1},
		{ID: 5, Name: "Striker", Club: "Beta", Position: "FWD", Cost: 90, Predicted: 7.3},
		{ID: 6, Name: "Bench", Club: "Gamma", Position: "FWD", Cost: 40, Predicted: 1.1},
	}
}

func testConstraints() model.Constraints {
	return model.Constraints{
		Budget:    320,
		SquadSize: 5,
		PositionCounts: map[string]int{
			"GK":  1,
			"DEF": 2,
			"MID": 1,
			"FWD": 1,
		},
		MaxPerClub: 2,
	}
}

func TestExtract(t *testing.T) {
	selected := []bool{true, true, true, true, true, false}

	sel, err := Extract(testPool(), testConstraints(), selected)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}

	if len(sel.Members) != 5 {
		t.Fatalf("expected 5 members, got %d", len(sel.Members))
	}
	if sel.TotalCost != 45+55+50+75+90 {
		t.Errorf("total cost = %d, expected %d", sel.TotalCost, 45+55+50+75+90)
	}
	expectedPredicted := 3.5 + 4.2 + 3.8 + 6.1 + 7.3
	if math.Abs(sel.TotalPredicted-expectedPredicted) > 1e-9 {
		t.Errorf("total predicted = %v, expected %v", sel.TotalPredicted, expectedPredicted)
	}

	// Team-sheet order: GK, then DEF by predicted descending, then MID, FWD.
	expectedOrder := []int{1, 2, 3, 4, 5}
	for i, id := range expectedOrder {
		if sel.Members[i].ID != id {
			t.Errorf("member %d has ID %d, expected %d", i, sel.Members[i].ID, id)
		}
	}
}

func TestExtractInconsistencies(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(pool *model.Pool, cons *model.Constraints, selected []bool)
	}{
		{
			name: "Assignment length mismatch",
			mutate: func(pool *model.Pool, cons *model.Constraints, selected []bool) {
				*pool = (*pool)[:4]
			},
		},
		{
			name: "Undersized selection",
			mutate: func(pool *model.Pool, cons *model.Constraints, selected []bool) {
				selected[4] = false
			},
		},
		{
			name: "Budget exceeded",
			mutate: func(pool *model.Pool, cons *model.Constraints, selected []bool) {
				cons.Budget = 100
			},
		},
		{
			name: "Position count off",
			mutate: func(pool *model.Pool, cons *model.Constraints, selected []bool) {
				selected[1] = false
				selected[5] = true // swaps a DEF for a FWD
			},
		},
		{
			name: "Club cap violated",
			mutate: func(pool *model.Pool, cons *model.Constraints, selected []bool) {
				cons.MaxPerClub = 1
			},
		},
		{
			name: "Unconstrained position selected",
			mutate: func(pool *model.Pool, cons *model.Constraints, selected []bool) {
				delete(cons.PositionCounts, "MID")
				cons.PositionCounts["GK"] = 2
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := testPool()
			cons := testConstraints()
			selected := []bool{true, true, true, true, true, false}
			tt.mutate(&pool, &cons, selected)

			_, err := Extract(pool, cons, selected)
			if err == nil {
				t.Fatalf("expected an inconsistency error, got nil")
			}
			var incErr *InconsistencyError
			if !errors.As(err, &incErr) {
				t.Errorf("expected InconsistencyError, got %T: %v", err, err)
			}
		})
	}
}

func TestPickCaptain(t *testing.T) {
	tests := []struct {
		name       string
		members    []model.Candidate
		expectedID int
	}{
		{
			name: "Highest predicted wins",
			members: []model.Candidate{
				{ID: 1, Predicted: 3.5},
				{ID: 2, Predicted: 7.3},
				{ID: 3, Predicted: 6.1},
			},
			expectedID: 2,
		},
		{
			name: "Tie broken by lowest ID",
			members: []model.Candidate{
				{ID: 9, Predicted: 6.0},
				{ID: 4, Predicted: 6.0},
				{ID: 7, Predicted: 6.0},
			},
			expectedID: 4,
		},
		{
			name: "All negative still picks the maximum",
			members: []model.Candidate{
				{ID: 1, Predicted: -2.0},
				{ID: 2, Predicted: -0.5},
			},
			expectedID: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := &Selection{Members: tt.members}
			captain, err := PickCaptain(sel)
			if err != nil {
				t.Fatalf("PickCaptain returned error: %v", err)
			}
			if captain.ID != tt.expectedID {
				t.Errorf("captain ID = %d, expected %d", captain.ID, tt.expectedID)
			}

			var best float64
			for i, m := range tt.members {
				if i == 0 || m.Predicted > best {
					best = m.Predicted
				}
			}
			if captain.Predicted != best {
				t.Errorf("captain predicted %v is not the maximum %v", captain.Predicted, best)
			}
			if captain.EffectivePoints != 2*captain.Predicted {
				t.Errorf("effective points %v != 2 x %v", captain.EffectivePoints, captain.Predicted)
			}
		})
	}
}

func TestPickCaptainEmptySelection(t *testing.T) {
	if _, err := PickCaptain(&Selection{}); err == nil {
		t.Errorf("expected error for empty selection, got nil")
	}
	if _, err := PickCaptain(nil); err == nil {
		t.Errorf("expected error for nil selection, got nil")
	}
}
