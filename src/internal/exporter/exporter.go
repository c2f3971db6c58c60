// FILE: src/internal/exporter/exporter.go
// Package exporter drives columnar input batches through schema
// derivation, row encoding and batch assembly, then hands finalized
// batches to the upload pipeline.
package exporter

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"arrowship/src/internal/batch"
	"arrowship/src/internal/columns"
	"arrowship/src/internal/compress"
	"arrowship/src/internal/config"
	"arrowship/src/internal/core"
	"arrowship/src/internal/filter"
	"arrowship/src/internal/schema"
	"arrowship/src/internal/uploader"
	"arrowship/src/internal/wire"

	"github.com/lixenwraith/log"
)

// Exporter is the encode side of the pipeline. ProcessBatch and Flush
// are single-threaded; uploads run concurrently behind the uploader's
// own queue.
type Exporter struct {
	// Configuration
	config       *config.ExportConfig
	defaultEvent string

	// Encoding
	deriver   *schema.Deriver
	encoder   *wire.Encoder
	assembler *batch.Assembler
	scratch   []wire.AttrSource

	// Filtering
	filterChain *filter.Chain

	// Upload
	uploader *uploader.Uploader

	// Runtime
	logger    *log.Logger
	wg        sync.WaitGroup
	startTime time.Time

	// Statistics
	totalBatchesIn  atomic.Uint64
	totalRows       atomic.Uint64
	rowsEncoded     atomic.Uint64
	rowsSkipped     atomic.Uint64
	rowsFiltered    atomic.Uint64
	attrsDropped    atomic.Uint64
	typeConflicts   atomic.Uint64
	orphanAttrs     atomic.Uint64
	batchesDropped  atomic.Uint64
	batchesUploaded atomic.Uint64
	batchesFailed   atomic.Uint64
}

// group collects one event's row positions and observed attribute
// fields during the first pass over a batch.
type group struct {
	rows      []int
	collector *schema.Collector
}

// New assembles the export side of the pipeline. The uploader is
// owned from Start to Stop.
func New(cfg *config.ExportConfig, defaultEvent string, up *uploader.Uploader, logger *log.Logger) (*Exporter, error) {
	e := &Exporter{
		config:       cfg,
		defaultEvent: defaultEvent,
		deriver:      schema.NewDeriver(),
		encoder:      wire.NewEncoder(),
		assembler:    batch.New(int(cfg.MaxBatchBytes), int(cfg.MaxBatchRows), compress.New(cfg.Compression)),
		uploader:     up,
		logger:       logger,
		startTime:    time.Now(),
	}

	if len(cfg.Filters) > 0 {
		chain, err := filter.NewChain(cfg.Filters, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create filter chain: %w", err)
		}
		e.filterChain = chain
	}
	return e, nil
}

// Start launches the upload pipeline and the outcome reader.
func (e *Exporter) Start(ctx context.Context) error {
	if err := e.uploader.Start(ctx); err != nil {
		return err
	}

	e.wg.Add(1)
	go e.drainOutcomes()

	e.logger.Info("msg", "Exporter started",
		"component", "exporter",
		"default_event", e.defaultEvent,
		"max_batch_bytes", e.config.MaxBatchBytes,
		"max_batch_rows", e.config.MaxBatchRows,
		"compression", e.config.Compression)
	return nil
}

// Stop flushes open accumulations, shuts the upload pipeline down and
// waits for the last outcomes. No ProcessBatch or Flush call may run
// concurrently with or after Stop.
func (e *Exporter) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e.Flush(ctx)

	e.uploader.Stop()
	e.wg.Wait()

	e.logger.Info("msg", "Exporter stopped",
		"component", "exporter",
		"rows_encoded", e.rowsEncoded.Load(),
		"rows_skipped", e.rowsSkipped.Load(),
		"uploaded", e.batchesUploaded.Load(),
		"upload_failed", e.batchesFailed.Load())
}

// ProcessBatch encodes one input batch. A malformed table fails the
// whole batch; individual bad rows are skipped and counted. The set
// must stay retained until ProcessBatch returns.
func (e *Exporter) ProcessBatch(ctx context.Context, set *columns.BatchSet) error {
	e.totalBatchesIn.Add(1)

	logs, err := columns.NewLogs(set.Logs)
	if err != nil {
		return err
	}

	var logAttrs, resAttrs *columns.Attrs
	if set.LogAttrs != nil {
		if logAttrs, err = columns.NewAttrs(set.LogAttrs, "log_attrs"); err != nil {
			return err
		}
	}
	if set.ResourceAttrs != nil {
		if resAttrs, err = columns.NewAttrs(set.ResourceAttrs, "resource_attrs"); err != nil {
			return err
		}
	}

	logIdx, err := columns.BuildIndex(logAttrs)
	if err != nil {
		return err
	}
	resIdx, err := columns.BuildIndex(resAttrs)
	if err != nil {
		return err
	}
	e.orphanAttrs.Add(uint64(logIdx.Orphans() + resIdx.Orphans()))

	rows := logs.NumRows()
	e.totalRows.Add(uint64(rows))

	// First pass: group rows by event name and observe each group's
	// attribute keys, so the derived schema covers every row it will
	// encode.
	groups := make(map[string]*group)
	var order []string
	for row := 0; row < rows; row++ {
		event := logs.EventName(row, e.defaultEvent)
		if e.filterChain != nil && !e.filterChain.Apply(event) {
			e.rowsFiltered.Add(1)
			continue
		}
		g := groups[event]
		if g == nil {
			g = &group{collector: schema.NewCollector()}
			groups[event] = g
			order = append(order, event)
		}
		g.rows = append(g.rows, row)
		collect(g.collector, logAttrs, logIdx.Rows(logs.ParentID(row)))
		if resID, ok := logs.ResourceID(row); ok {
			collect(g.collector, resAttrs, resIdx.Rows(resID))
		}
	}

	// Second pass: encode each group against its schema.
	for _, event := range order {
		g := groups[event]
		sch := e.deriver.DeriveOrReuse(event, g.collector.Fields())
		e.typeConflicts.Add(g.collector.Conflicts())

		for _, row := range g.rows {
			sources := e.sources(logs, row, logAttrs, logIdx, resAttrs, resIdx)
			frag, dropped, err := e.encoder.EncodeRow(sch, logs, row, sources)
			if err != nil {
				e.rowsSkipped.Add(1)
				e.logger.Warn("msg", "Row skipped",
					"component", "exporter",
					"event", event,
					"row", row,
					"error", err)
				continue
			}
			e.rowsEncoded.Add(1)
			e.attrsDropped.Add(uint64(dropped))

			finalized, err := e.assembler.Push(sch, frag)
			if err != nil {
				e.dropBatch(err)
			}
			e.submitAll(ctx, finalized)
		}
	}
	return nil
}

// Flush finalizes every open accumulation and submits the results.
// The first compression failure is returned after all batches have
// been handled.
func (e *Exporter) Flush(ctx context.Context) error {
	finalized, errs := e.assembler.FlushAll()
	for _, err := range errs {
		e.dropBatch(err)
	}
	e.submitAll(ctx, finalized)
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// GetStats returns exporter statistics with nested uploader and
// filter stats.
func (e *Exporter) GetStats() map[string]any {
	derived, reused := e.deriver.Stats()
	built, rawBytes, framedBytes := e.assembler.Stats()

	var filterStats map[string]any
	if e.filterChain != nil {
		filterStats = e.filterChain.GetStats()
	}

	up := e.uploader.GetStats()
	return map[string]any{
		"uptime_seconds":  int(time.Since(e.startTime).Seconds()),
		"batches_in":      e.totalBatchesIn.Load(),
		"rows":            e.totalRows.Load(),
		"rows_encoded":    e.rowsEncoded.Load(),
		"rows_skipped":    e.rowsSkipped.Load(),
		"rows_filtered":   e.rowsFiltered.Load(),
		"attrs_dropped":   e.attrsDropped.Load(),
		"type_conflicts":  e.typeConflicts.Load(),
		"orphan_attrs":    e.orphanAttrs.Load(),
		"schemas_derived": derived,
		"schemas_reused":  reused,
		"batches_built":   built,
		"raw_bytes":       rawBytes,
		"framed_bytes":    framedBytes,
		"batches_dropped": e.batchesDropped.Load(),
		"uploaded":        e.batchesUploaded.Load(),
		"upload_failed":   e.batchesFailed.Load(),
		"filters":         filterStats,
		"uploader": map[string]any{
			"submitted": up.Submitted,
			"succeeded": up.Succeeded,
			"failed":    up.Failed,
			"cancelled": up.Cancelled,
			"retries":   up.Retries,
			"in_flight": up.InFlight,
			"pending":   up.Pending,
			"details":   up.Details,
		},
	}
}

// collect records the supported attribute fields at positions into c.
// Unsupported discriminants never become schema fields; the owning
// row is rejected at encode time instead.
func collect(c *schema.Collector, view *columns.Attrs, positions []int32) {
	for _, pos := range positions {
		ft, err := view.FieldType(int(pos))
		if err != nil {
			continue
		}
		c.Add(view.Key(int(pos)), ft)
	}
}

// sources lists the row's attribute origins, record level before
// resource level so record attributes win key collisions. The slice
// is reused across rows.
func (e *Exporter) sources(logs *columns.Logs, row int, logAttrs *columns.Attrs, logIdx *columns.Index, resAttrs *columns.Attrs, resIdx *columns.Index) []wire.AttrSource {
	e.scratch = e.scratch[:0]
	if positions := logIdx.Rows(logs.ParentID(row)); len(positions) > 0 {
		e.scratch = append(e.scratch, wire.AttrSource{View: logAttrs, Rows: positions})
	}
	if resID, ok := logs.ResourceID(row); ok {
		if positions := resIdx.Rows(resID); len(positions) > 0 {
			e.scratch = append(e.scratch, wire.AttrSource{View: resAttrs, Rows: positions})
		}
	}
	return e.scratch
}

func (e *Exporter) submitAll(ctx context.Context, batches []*core.EncodedBatch) {
	for _, b := range batches {
		if err := e.uploader.Submit(ctx, b); err != nil {
			e.batchesDropped.Add(1)
			e.logger.Warn("msg", "Batch not submitted",
				"component", "exporter",
				"event", b.EventName,
				"rows", b.Rows,
				"error", err)
		}
	}
}

func (e *Exporter) dropBatch(err error) {
	e.batchesDropped.Add(1)
	e.logger.Error("msg", "Batch dropped",
		"component", "exporter",
		"error", err)
}

// drainOutcomes consumes the pipeline's outcome stream until the
// uploader closes it during Stop.
func (e *Exporter) drainOutcomes() {
	defer e.wg.Done()

	for o := range e.uploader.Outcomes() {
		if o.State == core.StateSucceeded {
			e.batchesUploaded.Add(1)
			continue
		}
		e.batchesFailed.Add(1)
		e.logger.Warn("msg", "Batch upload failed",
			"component", "exporter",
			"event", o.EventName,
			"schema_id", fmt.Sprintf("%016x", o.SchemaID),
			"rows", o.Rows,
			"attempts", o.Attempts,
			"error", o.Err)
	}
}
