// FILE: src/cmd/arrowship/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"arrowship/src/internal/config"
	"arrowship/src/internal/version"

	"github.com/lixenwraith/log"
)

var logger *log.Logger

func main() {
	// Subcommands exit before the main flow starts
	NewCommandRouter().Route(os.Args)

	// Parse flags first to get quiet mode early
	flagCfg, configArgs, err := ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Initialize output handler with quiet mode
	InitOutputHandler(flagCfg.Quiet)

	// Handle version flag
	if flagCfg.ShowVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Set config file environment if specified
	if flagCfg.ConfigFile != "" {
		if _, err := os.Stat(flagCfg.ConfigFile); err != nil {
			FatalError(2, "Config file not found: %s\n", flagCfg.ConfigFile)
		}
		os.Setenv("ARROWSHIP_CONFIG_FILE", flagCfg.ConfigFile)
	}

	// Load configuration, dotted CLI overrides included
	cfg, err := config.LoadWithCLI(configArgs)
	if err != nil {
		FatalError(1, "Failed to load config: %v\n", err)
	}

	// Named flags outrank the loaded configuration
	applyFlagOverrides(cfg, flagCfg)

	// Initialize logger with quiet mode awareness
	if err := initializeLogger(cfg); err != nil {
		FatalError(1, "Failed to initialize logger: %v\n", err)
	}
	defer shutdownLogger()

	logger.Info("msg", "Arrowship starting",
		"version", version.String(),
		"config_file", config.GetConfigPath(),
		"log_output", cfg.Logging.Output)

	// Create context for shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrapApp(cfg)
	if err != nil {
		logger.Error("msg", "Failed to bootstrap", "error", err)
		shutdownLogger()
		os.Exit(1)
	}

	displayRunConfiguration(cfg)

	// Setup signal handling
	sigHandler := NewSignalHandler(app, logger)
	defer sigHandler.Stop()

	sigDone := make(chan os.Signal, 1)
	go func() {
		sigDone <- sigHandler.Handle(ctx)
	}()

	// Start status reporter if enabled
	if cfg.StatusIntervalSeconds > 0 {
		go statusReporter(ctx, app, time.Duration(cfg.StatusIntervalSeconds)*time.Second)
	}

	// Drive batches until the input ends or a signal arrives
	runDone := make(chan error, 1)
	go func() {
		runDone <- app.Run(ctx)
	}()

	var runErr error
	select {
	case sig := <-sigDone:
		if sig != nil {
			logger.Info("msg", "Shutdown signal received, starting graceful shutdown...",
				"signal", sig.String())
		}
		cancel()
		select {
		case runErr = <-runDone:
		case <-time.After(10 * time.Second):
			logger.Error("msg", "Run did not stop in time - forcing exit")
			os.Exit(1)
		}
	case runErr = <-runDone:
	}

	// Flush partial batches and settle the upload pipeline with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		app.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		app.Report()
		logger.Info("msg", "Shutdown complete")
	case <-shutdownCtx.Done():
		logger.Error("msg", "Shutdown timeout exceeded - forcing exit")
		os.Exit(1)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		logger.Error("msg", "Run failed", "error", runErr)
		shutdownLogger()
		os.Exit(1)
	}
}

func shutdownLogger() {
	if logger != nil {
		if err := logger.Shutdown(2 * time.Second); err != nil {
			// Best effort - can't log the shutdown error
			Error("Logger shutdown error: %v\n", err)
		}
	}
}
