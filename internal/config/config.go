// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fplopt/squad-optimizer/internal/model"
	"github.com/fplopt/squad-optimizer/internal/solver"
	"github.com/fplopt/squad-optimizer/pkg/constants"
	"github.com/fplopt/squad-optimizer/pkg/money"
)

// Configuration holds all configuration for squad-optimizer.
type Configuration struct {
	Pool    PoolConfig    `yaml:"pool"`
	Squad   SquadConfig   `yaml:"squad"`
	Solver  SolverConfig  `yaml:"solver,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
}

// PoolConfig describes where the candidate pool comes from.
type PoolConfig struct {
	Source       string `yaml:"source"`                 // file, api
	Path         string `yaml:"path,omitempty"`         // pool file when source is file
	BaseURL      string `yaml:"baseUrl,omitempty"`      // API root override
	MinMinutes   int    `yaml:"minMinutes,omitempty"`   // eligibility floor
	HistoryWeeks int    `yaml:"historyWeeks,omitempty"` // gameweeks in the form average
	Concurrency  int    `yaml:"concurrency,omitempty"`  // history fan-out workers
	Retries      int    `yaml:"retries,omitempty"`      // attempts per API request
}

// SquadConfig is the squad composition ruleset.
type SquadConfig struct {
	Budget     int64          `yaml:"budget"`
	Size       int            `yaml:"size"`
	Positions  map[string]int `yaml:"positions"`
	MaxPerClub int            `yaml:"maxPerClub"`
}

// SolverConfig bounds the branch-and-bound search.
type SolverConfig struct {
	MaxNodes  int    `yaml:"maxNodes,omitempty"`
	TimeLimit string `yaml:"timeLimit,omitempty"` // e.g. 30s
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// ServerConfig holds HTTP API configuration options.
type ServerConfig struct {
	Address       string `yaml:"address,omitempty"`
	MaxUploadSize int64  `yaml:"maxUploadSize,omitempty"` // bytes
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := v.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.applyDefaults()
	return &configuration, nil
}

// applyDefaults fills unset fields with league defaults. Position keys are
// folded to upper case first: viper lowercases nested map keys, and pool
// candidates carry the canonical upper-case labels.
func (c *Configuration) applyDefaults() {
	if len(c.Squad.Positions) > 0 {
		positions := make(map[string]int, len(c.Squad.Positions))
		for pos, count := range c.Squad.Positions {
			positions[strings.ToUpper(pos)] = count
		}
		c.Squad.Positions = positions
	}
	if c.Pool.Source == "" {
		c.Pool.Source = constants.PoolSourceFile
	}
	if c.Pool.BaseURL == "" {
		c.Pool.BaseURL = constants.DefaultAPIBaseURL
	}
	if c.Pool.MinMinutes == 0 {
		c.Pool.MinMinutes = constants.DefaultMinMinutes
	}
	if c.Pool.HistoryWeeks == 0 {
		c.Pool.HistoryWeeks = constants.DefaultHistoryWeeks
	}
	if c.Pool.Concurrency == 0 {
		c.Pool.Concurrency = constants.DefaultAPIConcurrency
	}
	if c.Pool.Retries == 0 {
		c.Pool.Retries = constants.DefaultAPIRetries
	}
	if c.Squad.Size == 0 && len(c.Squad.Positions) == 0 {
		c.Squad.Budget = constants.DefaultBudget
		c.Squad.Size = constants.DefaultSquadSize
		c.Squad.MaxPerClub = constants.DefaultMaxPerClub
		c.Squad.Positions = map[string]int{
			constants.PositionGoalkeeper: 2,
			constants.PositionDefender:   5,
			constants.PositionMidfielder: 5,
			constants.PositionForward:    3,
		}
	}
	if c.Solver.MaxNodes == 0 {
		c.Solver.MaxNodes = constants.DefaultMaxNodes
	}
	if c.Server.Address == "" {
		c.Server.Address = constants.DefaultServerAddress
	}
	if c.Server.MaxUploadSize == 0 {
		c.Server.MaxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
}

// Constraints converts the squad section into the model's ruleset.
func (c *Configuration) Constraints() model.Constraints {
	return model.Constraints{
		Budget:         money.Tenths(c.Squad.Budget),
		SquadSize:      c.Squad.Size,
		PositionCounts: c.Squad.Positions,
		MaxPerClub:     c.Squad.MaxPerClub,
	}
}

// SolverOptions converts the solver section into search bounds.
func (c *Configuration) SolverOptions() (solver.Options, error) {
	opts := solver.Options{MaxNodes: c.Solver.MaxNodes}
	if c.Solver.TimeLimit != "" {
		limit, err := time.ParseDuration(c.Solver.TimeLimit)
		if err != nil {
			return solver.Options{}, fmt.Errorf("invalid solver time limit %q: %w", c.Solver.TimeLimit, err)
		}
		opts.TimeLimit = limit
	}
	return opts, nil
}

// ValidateConfiguration performs general validation of the configuration and
// returns warnings for suspicious but workable settings.
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if c.Pool.Source == constants.PoolSourceFile && c.Pool.Path == "" {
		warnings = append(warnings, "pool source is file but no path is set")
	}
	if c.Solver.MaxNodes < 0 {
		warnings = append(warnings, "solver maxNodes is negative and will be treated as unlimited")
	}
	if c.Squad.Budget <= 0 {
		warnings = append(warnings, "squad budget is not set; any candidate with a positive cost will be unaffordable")
	} else if c.Squad.Budget < int64(c.Squad.Size) {
		warnings = append(warnings, fmt.Sprintf(
			"budget %d is below the squad size %d; even free-floor candidates may not fit", c.Squad.Budget, c.Squad.Size))
	}
	if c.Pool.HistoryWeeks > 38 {
		warnings = append(warnings, "historyWeeks exceeds a full season; form will equal the season average")
	}

	return warnings
}
