package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fplopt/squad-optimizer/internal/config"
	"github.com/fplopt/squad-optimizer/internal/features"
	"github.com/fplopt/squad-optimizer/internal/fplclient"
	"github.com/fplopt/squad-optimizer/internal/model"
	"github.com/fplopt/squad-optimizer/internal/selection"
	"github.com/fplopt/squad-optimizer/internal/server"
	"github.com/fplopt/squad-optimizer/internal/solver"
	"github.com/fplopt/squad-optimizer/pkg/constants"
	"github.com/fplopt/squad-optimizer/pkg/output"
	"github.com/fplopt/squad-optimizer/pkg/validation"
)

var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// buildPool produces the scored candidate pool from the configured source.
func buildPool(ctx context.Context, logger *zap.Logger, conf *config.Configuration) (model.Pool, error) {
	switch conf.Pool.Source {
	case constants.PoolSourceFile:
		return model.LoadPool(conf.Pool.Path)
	case constants.PoolSourceAPI:
		client := fplclient.New(logger,
			fplclient.WithBaseURL(conf.Pool.BaseURL),
			fplclient.WithConcurrency(conf.Pool.Concurrency),
			fplclient.WithRetries(conf.Pool.Retries),
		)

		logger.Info("fetching league data",
			zap.String("op", "main.buildPool"),
			zap.String("baseUrl", conf.Pool.BaseURL),
		)

		boot, err := client.Bootstrap(ctx)
		if err != nil {
			return nil, err
		}
		fixtures, err := client.Fixtures(ctx)
		if err != nil {
			return nil, err
		}

		// Only eligible players need the per-player history round trips.
		var ids []int
		for _, el := range boot.Elements {
			if el.Minutes >= conf.Pool.MinMinutes {
				ids = append(ids, el.ID)
			}
		}
		histories, err := client.Histories(ctx, ids)
		if err != nil {
			return nil, err
		}

		return features.BuildPool(logger, boot, fixtures, histories, features.Options{
			MinMinutes:   conf.Pool.MinMinutes,
			HistoryWeeks: conf.Pool.HistoryWeeks,
		})
	default:
		return nil, fmt.Errorf("unknown pool source %q", conf.Pool.Source)
	}
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	serve := flag.Bool("serve", false, "run the HTTP API instead of a one-shot optimization")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	if *serve {
		handler := server.NewHandler(logger, conf.Server.MaxUploadSize, version)
		logger.Info("starting HTTP API",
			zap.String("op", "main"),
			zap.String("address", conf.Server.Address),
		)
		if err := http.ListenAndServe(conf.Server.Address, handler); err != nil {
			logger.Fatal("HTTP server failed",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty // Default to pretty format
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if err := validation.ValidatePoolSource(conf.Pool.Source); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	ctx := context.Background()

	// Build the scored candidate pool from the configured source.
	pool, err := buildPool(ctx, logger, conf)
	if err != nil {
		logger.Fatal("failed to build candidate pool",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Translate the pool and squad rules into the integer program.
	cons := conf.Constraints()
	problem, err := model.Build(pool, cons)
	if err != nil {
		logger.Fatal("failed to build optimization model",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	opts, err := conf.SolverOptions()
	if err != nil {
		logger.Fatal("invalid solver options",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Solve and map the assignment back onto player identities.
	result, err := solver.Solve(ctx, logger, problem, opts)
	if err != nil {
		if errors.Is(err, solver.ErrInfeasible) || errors.Is(err, solver.ErrNoIncumbent) {
			logger.Error(err.Error(),
				zap.String("op", "main"),
			)
			os.Exit(1)
		}
		logger.Fatal("solver failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if result.Status == solver.StatusBudgetExhausted {
		logger.Warn("solver budget exhausted; reporting best squad found",
			zap.String("op", "main"),
			zap.Float64("gap", result.Gap/solver.ObjectiveScale),
			zap.Int("nodes", result.Nodes),
		)
	}

	sel, err := selection.Extract(pool, cons, result.Selected)
	if err != nil {
		logger.Fatal("selection failed re-validation",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	captain, err := selection.PickCaptain(sel)
	if err != nil {
		logger.Fatal("failed to pick captain",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(sel, captain)
	case constants.OutputFormatCSV:
		output.CsvFormat(sel, captain)
	}
}
