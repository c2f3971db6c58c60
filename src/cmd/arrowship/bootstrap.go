// FILE: src/cmd/arrowship/bootstrap.go
package main

import (
	"context"
	"fmt"
	"strings"

	"arrowship/src/internal/auth"
	"arrowship/src/internal/config"
	"arrowship/src/internal/exporter"
	"arrowship/src/internal/source"
	"arrowship/src/internal/uploader"
	"arrowship/src/internal/version"

	"github.com/lixenwraith/log"
)

// App ties the input source to the exporter for one run.
type App struct {
	config   *config.Config
	source   source.Source
	exporter *exporter.Exporter
	logger   *log.Logger
}

// bootstrapApp wires source, exporter and upload pipeline from config
func bootstrapApp(cfg *config.Config) (*App, error) {
	var transport uploader.Transport

	switch cfg.Upload.Transport {
	case "http":
		tokens, err := auth.NewTokenSource(cfg.Upload.Auth, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create token source: %w", err)
		}
		transport, err = uploader.NewHTTPTransport(&cfg.Upload, tokens, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create http transport: %w", err)
		}

	case "file":
		t, err := uploader.NewFileTransport(&cfg.Upload, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create file transport: %w", err)
		}
		transport = t

	default:
		return nil, fmt.Errorf("unknown upload transport: %q", cfg.Upload.Transport)
	}

	up := uploader.New(&cfg.Upload, transport, logger)

	exp, err := exporter.New(&cfg.Export, cfg.Source.DefaultEvent, up, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	src, err := source.New(&cfg.Source, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}

	logger.Info("msg", "Arrowship started",
		"version", version.Short(),
		"source", cfg.Source.Type,
		"transport", cfg.Upload.Transport)

	return &App{
		config:   cfg,
		source:   src,
		exporter: exp,
		logger:   logger,
	}, nil
}

// Run drives batches from the source through the exporter until the
// input is exhausted or the context ends.
func (a *App) Run(ctx context.Context) error {
	if err := a.exporter.Start(ctx); err != nil {
		return fmt.Errorf("failed to start exporter: %w", err)
	}
	if err := a.source.Start(); err != nil {
		a.exporter.Stop()
		return fmt.Errorf("failed to start source: %w", err)
	}

	for {
		select {
		case set, ok := <-a.source.Batches():
			if !ok {
				// Input exhausted
				return nil
			}
			err := a.exporter.ProcessBatch(ctx, set)
			set.Release()
			if err != nil {
				// Batch-level failures never end the run
				a.logger.Warn("msg", "Input batch rejected",
					"component", "app",
					"error", err)
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Shutdown stops the source, flushes partial batches and waits for the
// upload pipeline to settle.
func (a *App) Shutdown() {
	a.source.Stop()
	for set := range a.source.Batches() {
		set.Release()
	}
	a.exporter.Stop()
}

// Report logs the cumulative run counters.
func (a *App) Report() {
	stats := a.exporter.GetStats()
	srcStats := a.source.GetStats()

	a.logger.Info("msg", "Run report",
		"component", "app",
		"source_type", srcStats.Type,
		"source_batches", srcStats.TotalBatches,
		"source_rows", srcStats.TotalRows,
		"rows_encoded", stats["rows_encoded"],
		"rows_skipped", stats["rows_skipped"],
		"rows_filtered", stats["rows_filtered"],
		"attrs_dropped", stats["attrs_dropped"],
		"type_conflicts", stats["type_conflicts"],
		"batches_built", stats["batches_built"],
		"batches_dropped", stats["batches_dropped"],
		"uploaded", stats["uploaded"],
		"upload_failed", stats["upload_failed"])
}

// initializeLogger sets up the logger based on configuration
func initializeLogger(cfg *config.Config) error {
	logger = log.NewLogger()

	var configArgs []string

	if cfg.Quiet {
		// In quiet mode, disable ALL logging output
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=false",
			"level=255")

		return logger.InitWithDefaults(configArgs...)
	}

	// Determine log level
	levelValue, err := parseLogLevel(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if cfg.Verbose {
		// Per-row diagnostics need debug visibility
		levelValue = int(log.LevelDebug)
	}
	configArgs = append(configArgs, fmt.Sprintf("level=%d", levelValue))

	// Configure based on output mode
	switch cfg.Logging.Output {
	case "none":
		configArgs = append(configArgs, "disable_file=true", "enable_stdout=false")

	case "stdout":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stdout")

	case "stderr":
		configArgs = append(configArgs,
			"disable_file=true",
			"enable_stdout=true",
			"stdout_target=stderr")

	case "file":
		configArgs = append(configArgs, "enable_stdout=false")
		configureFileLogging(&configArgs, cfg)

	case "both":
		configArgs = append(configArgs, "enable_stdout=true")
		configureFileLogging(&configArgs, cfg)
		configureConsoleTarget(&configArgs, cfg)

	default:
		return fmt.Errorf("invalid log output mode: %s", cfg.Logging.Output)
	}

	// Apply format if specified
	if cfg.Logging.Console != nil && cfg.Logging.Console.Format != "" {
		configArgs = append(configArgs, fmt.Sprintf("format=%s", cfg.Logging.Console.Format))
	}

	return logger.InitWithDefaults(configArgs...)
}

// configureFileLogging sets up file-based logging parameters
func configureFileLogging(configArgs *[]string, cfg *config.Config) {
	if cfg.Logging.File != nil {
		*configArgs = append(*configArgs,
			fmt.Sprintf("directory=%s", cfg.Logging.File.Directory),
			fmt.Sprintf("name=%s", cfg.Logging.File.Name),
			fmt.Sprintf("max_size_mb=%d", cfg.Logging.File.MaxSizeMB),
			fmt.Sprintf("max_total_size_mb=%d", cfg.Logging.File.MaxTotalSizeMB))

		if cfg.Logging.File.RetentionHours > 0 {
			*configArgs = append(*configArgs,
				fmt.Sprintf("retention_period_hrs=%.1f", cfg.Logging.File.RetentionHours))
		}
	}
}

// configureConsoleTarget sets up console output parameters
func configureConsoleTarget(configArgs *[]string, cfg *config.Config) {
	target := "stderr" // default

	if cfg.Logging.Console != nil && cfg.Logging.Console.Target != "" {
		target = cfg.Logging.Console.Target
	}

	// Split mode by configuring log package with level-based routing
	if target == "split" {
		*configArgs = append(*configArgs, "stdout_split_mode=true")
		*configArgs = append(*configArgs, "stdout_target=split")
	} else {
		*configArgs = append(*configArgs, fmt.Sprintf("stdout_target=%s", target))
	}
}

func parseLogLevel(level string) (int, error) {
	switch strings.ToLower(level) {
	case "debug":
		return int(log.LevelDebug), nil
	case "info":
		return int(log.LevelInfo), nil
	case "warn", "warning":
		return int(log.LevelWarn), nil
	case "error":
		return int(log.LevelError), nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", level)
	}
}
