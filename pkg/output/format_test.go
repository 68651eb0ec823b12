package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fplopt/squad-optimizer/internal/model"
	"github.com/fplopt/squad-optimizer/internal/selection"
)

func testSelection() (*selection.Selection, selection.Captain) {
	sel := &selection.Selection{
		Members: []model.Candidate{
			{ID: 1, Name: "Keeper", Club: "Alpha", Position: "GK", Cost: 45, Predicted: 3.5},
			{ID: 2, Name: "Back", Club: "Beta", Position: "DEF", Cost: 55, Predicted: 4.2},
			{ID: 3, Name: "Striker", Club: "Gamma", Position: "FWD", Cost: 90, Predicted: 7.3},
		},
		TotalCost:      190,
		TotalPredicted: 15.0,
	}
	captain := selection.Captain{
		ID: 3, Name: "Striker", Club: "Gamma", Predicted: 7.3, EffectivePoints: 14.6,
	}
	return sel, captain
}

func TestFprettyFormat(t *testing.T) {
	sel, captain := testSelection()
	var buf bytes.Buffer
	FprettyFormat(&buf, sel, captain)
	got := buf.String()

	for _, want := range []string{
		"Optimal squad",
		"Keeper",
		"£4.5m",
		"Total cost: £19.0m",
		"Captain: Striker (Gamma)",
		"14.60",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("pretty output missing %q:\n%s", want, got)
		}
	}
}

func TestFcsvFormat(t *testing.T) {
	sel, captain := testSelection()
	var buf bytes.Buffer
	FcsvFormat(&buf, sel, captain)
	got := buf.String()

	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines:\n%s", len(lines), got)
	}
	if lines[0] != `"id","name","club","position","cost","predicted","captain"` {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"4.5"`) {
		t.Errorf("cost should be rendered in millions: %s", lines[1])
	}
	if !strings.Contains(lines[3], `"yes"`) {
		t.Errorf("captain row should be flagged: %s", lines[3])
	}
	if strings.Contains(lines[1], `"yes"`) {
		t.Errorf("non-captain row should not be flagged: %s", lines[1])
	}
}
