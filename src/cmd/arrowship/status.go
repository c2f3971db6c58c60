// FILE: src/cmd/arrowship/status.go
package main

import (
	"context"
	"time"

	"arrowship/src/internal/config"
)

// Periodically logs run status
func statusReporter(ctx context.Context, app *App, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Clean shutdown
			return
		case <-ticker.C:
			if app == nil {
				logger.Warn("msg", "Status reporter: app is nil",
					"component", "status_reporter")
				return
			}

			// Safely get stats with recovery
			func() {
				defer func() {
					if r := recover(); r != nil {
						logger.Error("msg", "Panic in status reporter",
							"component", "status_reporter",
							"panic", r)
					}
				}()

				logRunStatus(app)
			}()
		}
	}
}

// Logs the current counters of the running pipeline
func logRunStatus(app *App) {
	stats := app.exporter.GetStats()
	srcStats := app.source.GetStats()

	statusFields := []any{
		"msg", "Status report",
		"component", "status_reporter",
		"source_batches", srcStats.TotalBatches,
		"source_rows", srcStats.TotalRows,
	}

	if encoded, ok := stats["rows_encoded"].(uint64); ok {
		statusFields = append(statusFields, "rows_encoded", encoded)
	}
	if skipped, ok := stats["rows_skipped"].(uint64); ok && skipped > 0 {
		statusFields = append(statusFields, "rows_skipped", skipped)
	}
	if filtered, ok := stats["rows_filtered"].(uint64); ok && filtered > 0 {
		statusFields = append(statusFields, "rows_filtered", filtered)
	}
	if built, ok := stats["batches_built"].(uint64); ok {
		statusFields = append(statusFields, "batches_built", built)
	}

	if up, ok := stats["uploader"].(map[string]any); ok {
		if succeeded, ok := up["succeeded"].(uint64); ok {
			statusFields = append(statusFields, "uploaded", succeeded)
		}
		if failed, ok := up["failed"].(uint64); ok && failed > 0 {
			statusFields = append(statusFields, "upload_failed", failed)
		}
		if inFlight, ok := up["in_flight"].(int64); ok && inFlight > 0 {
			statusFields = append(statusFields, "in_flight", inFlight)
		}
		if pending, ok := up["pending"].(int); ok && pending > 0 {
			statusFields = append(statusFields, "pending", pending)
		}
	}

	logger.Debug(statusFields...)
}

// Logs the configured endpoints and bounds at startup
func displayRunConfiguration(cfg *config.Config) {
	switch cfg.Source.Type {
	case "ipc":
		if cfg.Source.IPC != nil {
			logger.Info("msg", "IPC source configured",
				"component", "app",
				"logs_file", cfg.Source.IPC.LogsFile,
				"log_attrs_file", cfg.Source.IPC.LogAttrsFile,
				"resource_attrs_file", cfg.Source.IPC.ResourceAttrsFile)
		}
	case "gen":
		if cfg.Source.Gen != nil {
			logger.Info("msg", "Generator source configured",
				"component", "app",
				"batches", cfg.Source.Gen.Batches,
				"rows_per_batch", cfg.Source.Gen.RowsPerBatch,
				"seed", cfg.Source.Gen.Seed)
		}
	}

	switch cfg.Upload.Transport {
	case "http":
		logger.Info("msg", "HTTP upload configured",
			"component", "app",
			"url", cfg.Upload.URL,
			"tenant", cfg.Upload.Tenant,
			"max_concurrent", cfg.Upload.MaxConcurrent,
			"max_retries", cfg.Upload.MaxRetries)
	case "file":
		logger.Info("msg", "File upload configured",
			"component", "app",
			"directory", cfg.Upload.Directory)
	}

	// Display authentication information
	if cfg.Upload.Auth != nil && cfg.Upload.Auth.Type != "" && cfg.Upload.Auth.Type != "none" {
		logger.Info("msg", "Authentication enabled",
			"component", "app",
			"auth_type", cfg.Upload.Auth.Type)
	}

	// Display filter information
	if len(cfg.Export.Filters) > 0 {
		logger.Info("msg", "Filters configured",
			"component", "app",
			"filter_count", len(cfg.Export.Filters))
	}

	logger.Info("msg", "Batch bounds configured",
		"component", "app",
		"max_batch_bytes", cfg.Export.MaxBatchBytes,
		"max_batch_rows", cfg.Export.MaxBatchRows,
		"compression", cfg.Export.Compression)
}
