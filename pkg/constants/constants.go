// Package constants provides shared constants for the squad-optimizer application.
package constants

// Position labels used by the fantasy league. Every candidate in a pool
// carries exactly one of these.
const (
	PositionGoalkeeper = "GK"
	PositionDefender   = "DEF"
	PositionMidfielder = "MID"
	PositionForward    = "FWD"
)

// Squad composition defaults matching the standard fantasy ruleset.
const (
	// DefaultSquadSize is the number of players in a full squad
	DefaultSquadSize = 15

	// DefaultBudget is the budget ceiling in tenths of a million
	DefaultBudget = 1000

	// DefaultMaxPerClub is the maximum number of players from one club
	DefaultMaxPerClub = 3
)

// Feature pipeline defaults
const (
	// DefaultMinMinutes filters out players with too little playing time
	// for their per-game averages to mean anything (5 full games).
	DefaultMinMinutes = 450

	// DefaultHistoryWeeks is the number of recent gameweeks averaged into
	// the form figure.
	DefaultHistoryWeeks = 7

	// MinutesPerMatch is the length of one match, used for per-game rates.
	MinutesPerMatch = 90
)

// Solver defaults
const (
	// DefaultMaxNodes caps the branch-and-bound search tree size.
	DefaultMaxNodes = 200000
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"
)

// Pool source constants
const (
	// PoolSourceFile loads the candidate pool from a local YAML file
	PoolSourceFile = "file"

	// PoolSourceAPI fetches the candidate pool from the fantasy league API
	PoolSourceAPI = "api"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the API
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for YAML pools (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// API defaults for the fantasy league client
const (
	// DefaultAPIBaseURL is the public fantasy league API root
	DefaultAPIBaseURL = "https://fantasy.premierleague.com/api"

	// DefaultAPIConcurrency bounds the parallel per-player history fetches
	DefaultAPIConcurrency = 8

	// DefaultAPIRetries is the number of attempts per request
	DefaultAPIRetries = 3
)
