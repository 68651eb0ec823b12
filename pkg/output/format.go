// Package output provides utilities for formatting and displaying the chosen
// squad and captain.
package output

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/fplopt/squad-optimizer/internal/selection"
)

// PrettyFormat outputs a human-readable squad table with the captain line.
func PrettyFormat(sel *selection.Selection, captain selection.Captain) {
	FprettyFormat(os.Stdout, sel, captain)
}

// FprettyFormat writes the human-readable table to w.
func FprettyFormat(w io.Writer, sel *selection.Selection, captain selection.Captain) {
	p := message.NewPrinter(language.English)
	fmt.Fprintf(w, "--- Optimal squad for next gameweek ---\n")
	fmt.Fprintf(w, "%-20s | %-16s | %-3s | %8s | %9s\n", "Name", "Club", "Pos", "Cost", "Predicted")
	fmt.Fprintf(w, "%-20s | %-16s | %-3s | %8s | %9s\n", "____", "____", "___", "____", "_________")
	for _, cand := range sel.Members {
		_, _ = p.Fprintf(w, "%-20s | %-16s | %-3s | %8s | %9.2f\n",
			cand.Name, cand.Club, cand.Position, cand.Cost.String(), cand.Predicted)
	}
	_, _ = p.Fprintf(w, "\nTotal cost: %s | Total predicted points: %.2f\n",
		sel.TotalCost.String(), sel.TotalPredicted)
	_, _ = p.Fprintf(w, "Captain: %s (%s) - Predicted points doubled to %.2f\n",
		captain.Name, captain.Club, captain.EffectivePoints)
}

// CsvFormat outputs the squad in comma-separated value format.
func CsvFormat(sel *selection.Selection, captain selection.Captain) {
	FcsvFormat(os.Stdout, sel, captain)
}

// FcsvFormat writes the CSV rendering to w. Costs are in millions.
func FcsvFormat(w io.Writer, sel *selection.Selection, captain selection.Captain) {
	fmt.Fprintf(w, `"id","name","club","position","cost","predicted","captain"`)
	fmt.Fprintf(w, "\n")
	for _, cand := range sel.Members {
		isCaptain := ""
		if cand.ID == captain.ID {
			isCaptain = "yes"
		}
		fmt.Fprintf(w, `"%d","%s","%s","%s","%.1f","%.4f","%s"`,
			cand.ID, cand.Name, cand.Club, cand.Position, cand.Cost.Millions(), cand.Predicted, isCaptain)
		fmt.Fprintf(w, "\n")
	}
}
