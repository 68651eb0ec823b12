package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/fplopt/squad-optimizer/pkg/constants"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfiguration(t *testing.T) {
	path := writeConfig(t, `
pool:
  source: file
  path: pool.yaml
squad:
  budget: 900
  size: 11
  positions:
    GK: 1
    DEF: 4
    MID: 4
    FWD: 2
  maxPerClub: 2
solver:
  maxNodes: 5000
  timeLimit: 10s
logging:
  level: debug
  format: console
output:
  format: csv
`)

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration returned error: %v", err)
	}

	if conf.Pool.Source != constants.PoolSourceFile || conf.Pool.Path != "pool.yaml" {
		t.Errorf("unexpected pool config: %+v", conf.Pool)
	}
	if conf.Squad.Budget != 900 || conf.Squad.Size != 11 || conf.Squad.MaxPerClub != 2 {
		t.Errorf("unexpected squad config: %+v", conf.Squad)
	}
	expectedPositions := map[string]int{"GK": 1, "DEF": 4, "MID": 4, "FWD": 2}
	if diff := cmp.Diff(expectedPositions, conf.Squad.Positions); diff != "" {
		t.Errorf("positions mismatch (-expected +got):\n%s", diff)
	}
	if conf.Solver.MaxNodes != 5000 {
		t.Errorf("maxNodes = %d, expected 5000", conf.Solver.MaxNodes)
	}
	if conf.Logging.Level != "debug" || conf.Logging.Format != "console" {
		t.Errorf("unexpected logging config: %+v", conf.Logging)
	}
	if conf.Output.Format != constants.OutputFormatCSV {
		t.Errorf("output format = %q, expected csv", conf.Output.Format)
	}
}

func TestLoadConfigurationNormalizesPositionKeys(t *testing.T) {
	// viper lowercases nested map keys, so the documented upper-case
	// position labels must survive a round trip through the config file.
	path := writeConfig(t, `
pool:
  source: file
  path: pool.yaml
squad:
  budget: 900
  size: 11
  positions: {gk: 1, def: 4, Mid: 4, FWD: 2}
  maxPerClub: 2
`)

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration returned error: %v", err)
	}

	expected := map[string]int{
		constants.PositionGoalkeeper: 1,
		constants.PositionDefender:   4,
		constants.PositionMidfielder: 4,
		constants.PositionForward:    2,
	}
	if diff := cmp.Diff(expected, conf.Squad.Positions); diff != "" {
		t.Errorf("position keys not normalized (-expected +got):\n%s", diff)
	}
}

func TestLoadConfigurationDefaults(t *testing.T) {
	path := writeConfig(t, `
pool:
  source: file
  path: pool.yaml
`)

	conf, err := LoadConfiguration(path)
	if err != nil {
		t.Fatalf("LoadConfiguration returned error: %v", err)
	}

	if conf.Squad.Budget != constants.DefaultBudget {
		t.Errorf("default budget = %d, expected %d", conf.Squad.Budget, constants.DefaultBudget)
	}
	if conf.Squad.Size != constants.DefaultSquadSize {
		t.Errorf("default size = %d, expected %d", conf.Squad.Size, constants.DefaultSquadSize)
	}
	expectedPositions := map[string]int{
		constants.PositionGoalkeeper: 2,
		constants.PositionDefender:   5,
		constants.PositionMidfielder: 5,
		constants.PositionForward:    3,
	}
	if diff := cmp.Diff(expectedPositions, conf.Squad.Positions); diff != "" {
		t.Errorf("default positions mismatch (-expected +got):\n%s", diff)
	}
	if conf.Solver.MaxNodes != constants.DefaultMaxNodes {
		t.Errorf("default maxNodes = %d, expected %d", conf.Solver.MaxNodes, constants.DefaultMaxNodes)
	}
	if conf.Pool.MinMinutes != constants.DefaultMinMinutes {
		t.Errorf("default minMinutes = %d, expected %d", conf.Pool.MinMinutes, constants.DefaultMinMinutes)
	}
	if conf.Server.Address != constants.DefaultServerAddress {
		t.Errorf("default server address = %q, expected %q", conf.Server.Address, constants.DefaultServerAddress)
	}
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	if _, err := LoadConfiguration("/nonexistent/config.yaml"); err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
}

func TestConstraintsConversion(t *testing.T) {
	conf := &Configuration{
		Squad: SquadConfig{
			Budget:     800,
			Size:       11,
			Positions:  map[string]int{"GK": 1, "DEF": 4, "MID": 4, "FWD": 2},
			MaxPerClub: 3,
		},
	}

	cons := conf.Constraints()
	if int64(cons.Budget) != 800 || cons.SquadSize != 11 || cons.MaxPerClub != 3 {
		t.Errorf("unexpected constraints: %+v", cons)
	}
}

func TestSolverOptions(t *testing.T) {
	tests := []struct {
		name        string
		solver      SolverConfig
		expectError bool
		expected    time.Duration
	}{
		{"No time limit", SolverConfig{MaxNodes: 100}, false, 0},
		{"Valid time limit", SolverConfig{TimeLimit: "30s"}, false, 30 * time.Second},
		{"Invalid time limit", SolverConfig{TimeLimit: "forever"}, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := &Configuration{Solver: tt.solver}
			opts, err := conf.SolverOptions()
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("SolverOptions returned error: %v", err)
			}
			if opts.TimeLimit != tt.expected {
				t.Errorf("time limit = %v, expected %v", opts.TimeLimit, tt.expected)
			}
			if opts.MaxNodes != tt.solver.MaxNodes {
				t.Errorf("maxNodes = %d, expected %d", opts.MaxNodes, tt.solver.MaxNodes)
			}
		})
	}
}

func TestValidateConfigurationWarnings(t *testing.T) {
	tests := []struct {
		name             string
		conf             Configuration
		expectedWarnings int
	}{
		{
			name: "Clean configuration",
			conf: Configuration{
				Pool:  PoolConfig{Source: constants.PoolSourceFile, Path: "pool.yaml"},
				Squad: SquadConfig{Budget: 1000, Size: 15},
			},
			expectedWarnings: 0,
		},
		{
			name: "File source without path",
			conf: Configuration{
				Pool:  PoolConfig{Source: constants.PoolSourceFile},
				Squad: SquadConfig{Budget: 1000, Size: 15},
			},
			expectedWarnings: 1,
		},
		{
			name: "Budget below squad size",
			conf: Configuration{
				Pool:  PoolConfig{Source: constants.PoolSourceAPI},
				Squad: SquadConfig{Budget: 10, Size: 15},
			},
			expectedWarnings: 1,
		},
		{
			name: "Configured squad with no budget",
			conf: Configuration{
				Pool: PoolConfig{Source: constants.PoolSourceAPI},
				Squad: SquadConfig{
					Size:      15,
					Positions: map[string]int{"GK": 2, "DEF": 5, "MID": 5, "FWD": 3},
				},
			},
			expectedWarnings: 1,
		},
		{
			name: "History beyond a season",
			conf: Configuration{
				Pool:  PoolConfig{Source: constants.PoolSourceAPI, HistoryWeeks: 50},
				Squad: SquadConfig{Budget: 1000, Size: 15},
			},
			expectedWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings := tt.conf.ValidateConfiguration()
			if len(warnings) != tt.expectedWarnings {
				t.Errorf("got %d warnings %v, expected %d", len(warnings), warnings, tt.expectedWarnings)
			}
		})
	}
}
