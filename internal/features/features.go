// Package features converts raw league data into the scored candidate pool
// the optimizer consumes: per-game scoring rates, recent form, fixture
// difficulty, and the predicted points figure built from them.
package features

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/fplopt/squad-optimizer/internal/fplclient"
	"github.com/fplopt/squad-optimizer/internal/model"
	"github.com/fplopt/squad-optimizer/pkg/constants"
	"github.com/fplopt/squad-optimizer/pkg/money"
)

// Options tunes the pipeline.
type Options struct {
	// MinMinutes drops players below this many minutes played; their
	// per-game averages are too noisy to predict from.
	MinMinutes int

	// HistoryWeeks is how many recent gameweeks feed the form average.
	HistoryWeeks int
}

// positionNames maps the league's element type codes onto position labels.
var positionNames = map[int]string{
	1: constants.PositionGoalkeeper,
	2: constants.PositionDefender,
	3: constants.PositionMidfielder,
	4: constants.PositionForward,
}

// BuildPool turns bootstrap data, fixtures, and per-player histories into a
// scored candidate pool. Predicted points are the form average scaled down
// by the club's next fixture difficulty; a player whose club has no rated
// fixture predicts zero.
func BuildPool(logger *zap.Logger, boot *fplclient.Bootstrap, fixtures []fplclient.Fixture, histories map[int][]fplclient.GameweekPoints, opts Options) (model.Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if boot == nil || len(boot.Elements) == 0 {
		return nil, fmt.Errorf("bootstrap data has no players")
	}
	if opts.MinMinutes <= 0 {
		opts.MinMinutes = constants.DefaultMinMinutes
	}
	if opts.HistoryWeeks <= 0 {
		opts.HistoryWeeks = constants.DefaultHistoryWeeks
	}

	clubNames := make(map[int]string, len(boot.Teams))
	for _, team := range boot.Teams {
		clubNames[team.ID] = team.Name
	}

	difficulty := clubDifficulty(fixtures, clubNames)

	var pool model.Pool
	skipped := 0
	for _, el := range boot.Elements {
		if el.Minutes < opts.MinMinutes {
			skipped++
			continue
		}
		club, ok := clubNames[el.Team]
		if !ok {
			return nil, fmt.Errorf("player %d (%s) references unknown club %d", el.ID, el.WebName, el.Team)
		}
		position, ok := positionNames[el.ElementType]
		if !ok {
			return nil, fmt.Errorf("player %d (%s) has unknown element type %d", el.ID, el.WebName, el.ElementType)
		}

		// Form scaled down by fixture difficulty; a club with no rated
		// fixture falls back to the career per-game rate.
		form := recentForm(histories[el.ID], opts.HistoryWeeks)
		predicted := PointsPerGame(el.TotalPoints, el.Minutes)
		if fdr, ok := difficulty[club]; ok && fdr > 0 {
			predicted = form / float64(fdr)
		}

		pool = append(pool, model.Candidate{
			ID:        el.ID,
			Name:      el.WebName,
			Club:      club,
			Position:  position,
			Cost:      money.Tenths(el.NowCost),
			Predicted: predicted,
		})
	}

	if len(pool) == 0 {
		return nil, fmt.Errorf("no players meet the %d minute eligibility floor", opts.MinMinutes)
	}

	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })

	logger.Debug("built candidate pool",
		zap.String("op", "features.BuildPool"),
		zap.Int("candidates", len(pool)),
		zap.Int("belowMinutesFloor", skipped),
	)

	return pool, nil
}

// PointsPerGame is the career scoring rate over full-match equivalents.
// Zero minutes yields zero rather than a division blowup.
func PointsPerGame(totalPoints, minutes int) float64 {
	if minutes <= 0 {
		return 0
	}
	return float64(totalPoints) / (float64(minutes) / constants.MinutesPerMatch)
}

// recentForm averages a player's points over the last n recorded gameweeks.
func recentForm(history []fplclient.GameweekPoints, n int) float64 {
	if len(history) == 0 {
		return 0
	}
	start := len(history) - n
	if start < 0 {
		start = 0
	}
	recent := history[start:]
	total := 0
	for _, gw := range recent {
		total += gw.TotalPoints
	}
	return float64(total) / float64(len(recent))
}

// clubDifficulty maps each club to its opponent-assigned difficulty rating.
// Fixtures are scanned in order and later entries win, matching how the
// league publishes the upcoming round last.
func clubDifficulty(fixtures []fplclient.Fixture, clubNames map[int]string) map[string]int {
	out := make(map[string]int)
	for _, f := range fixtures {
		if away, ok := clubNames[f.TeamA]; ok {
			out[away] = f.TeamHDifficulty
		}
		if home, ok := clubNames[f.TeamH]; ok {
			out[home] = f.TeamADifficulty
		}
	}
	return out
}
