// FILE: src/internal/source/ipc.go
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"arrowship/src/internal/columns"
	"arrowship/src/internal/config"

	"github.com/apache/arrow/go/v11/arrow"
	"github.com/apache/arrow/go/v11/arrow/ipc"
	"github.com/lixenwraith/log"
)

// Reads batch-aligned record streams from Arrow IPC files: the log
// stream plus optional attribute sidecar streams, one record from
// each per batch.
type IPCSource struct {
	// Configuration
	config *config.IPCSourceConfig

	// Streams
	logs     *stream
	logAttrs *stream
	resAttrs *stream

	// Runtime
	out      chan *columns.BatchSet
	done     chan struct{}
	stopOnce sync.Once
	logger   *log.Logger

	// Statistics
	totalBatches  atomic.Uint64
	totalRows     atomic.Uint64
	startTime     time.Time
	lastBatchTime atomic.Value // time.Time
}

// stream is one open IPC stream file.
type stream struct {
	name string
	file *os.File
	rdr  *ipc.Reader
}

func openStream(path, name string) (*stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s stream: %w", name, err)
	}
	rdr, err := ipc.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read %s stream: %w", name, err)
	}
	return &stream{name: name, file: f, rdr: rdr}, nil
}

// next returns the stream's next record, retained for the consumer,
// or nil at end of stream. A nil stream always reports end.
func (s *stream) next() (arrow.Record, error) {
	if s == nil {
		return nil, nil
	}
	rec, err := s.rdr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s stream: %w", s.name, err)
	}
	rec.Retain()
	return rec, nil
}

func (s *stream) close() {
	if s == nil {
		return
	}
	s.rdr.Release()
	s.file.Close()
}

func NewIPCSource(cfg *config.IPCSourceConfig, logger *log.Logger) (*IPCSource, error) {
	src := &IPCSource{
		config:    cfg,
		out:       make(chan *columns.BatchSet, 1),
		done:      make(chan struct{}),
		logger:    logger,
		startTime: time.Now(),
	}
	src.lastBatchTime.Store(time.Time{})

	var err error
	if src.logs, err = openStream(cfg.LogsFile, "logs"); err != nil {
		return nil, err
	}
	if cfg.LogAttrsFile != "" {
		if src.logAttrs, err = openStream(cfg.LogAttrsFile, "log_attrs"); err != nil {
			src.logs.close()
			return nil, err
		}
	}
	if cfg.ResourceAttrsFile != "" {
		if src.resAttrs, err = openStream(cfg.ResourceAttrsFile, "resource_attrs"); err != nil {
			src.logs.close()
			src.logAttrs.close()
			return nil, err
		}
	}
	return src, nil
}

func (s *IPCSource) Batches() <-chan *columns.BatchSet {
	return s.out
}

func (s *IPCSource) Start() error {
	go s.readLoop()
	s.logger.Info("msg", "IPC source started",
		"component", "ipc_source",
		"logs_file", s.config.LogsFile,
		"log_attrs_file", s.config.LogAttrsFile,
		"resource_attrs_file", s.config.ResourceAttrsFile)
	return nil
}

func (s *IPCSource) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		s.logger.Info("msg", "IPC source stopped",
			"component", "ipc_source",
			"batches", s.totalBatches.Load(),
			"rows", s.totalRows.Load())
	})
}

func (s *IPCSource) GetStats() SourceStats {
	lastBatch, _ := s.lastBatchTime.Load().(time.Time)

	return SourceStats{
		Type:          "ipc",
		TotalBatches:  s.totalBatches.Load(),
		TotalRows:     s.totalRows.Load(),
		StartTime:     s.startTime,
		LastBatchTime: lastBatch,
		Details: map[string]any{
			"logs_file":           s.config.LogsFile,
			"log_attrs_file":      s.config.LogAttrsFile,
			"resource_attrs_file": s.config.ResourceAttrsFile,
		},
	}
}

func (s *IPCSource) readLoop() {
	defer close(s.out)
	defer s.logs.close()
	defer s.logAttrs.close()
	defer s.resAttrs.close()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		logs, err := s.logs.next()
		if err != nil {
			s.logger.Error("msg", "Stream read failed",
				"component", "ipc_source",
				"error", err)
			return
		}
		if logs == nil {
			s.logger.Info("msg", "End of input stream",
				"component", "ipc_source",
				"batches", s.totalBatches.Load())
			return
		}

		// A sidecar that ends before the log stream yields nil
		// sidecars for the remaining batches.
		set := &columns.BatchSet{Logs: logs}
		if set.LogAttrs, err = s.logAttrs.next(); err != nil {
			s.logger.Error("msg", "Stream read failed",
				"component", "ipc_source",
				"error", err)
			set.Release()
			return
		}
		if set.ResourceAttrs, err = s.resAttrs.next(); err != nil {
			s.logger.Error("msg", "Stream read failed",
				"component", "ipc_source",
				"error", err)
			set.Release()
			return
		}

		s.totalBatches.Add(1)
		s.totalRows.Add(uint64(logs.NumRows()))
		s.lastBatchTime.Store(time.Now())

		select {
		case s.out <- set:
		case <-s.done:
			set.Release()
			return
		}
	}
}
