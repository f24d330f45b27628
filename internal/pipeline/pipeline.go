package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/nxny-map-etl/internal/domain"
	"github.com/couchcryptid/nxny-map-etl/internal/observability"
)

// RowExtractor reads every data row of the source sheet.
type RowExtractor interface {
	ExtractRows(ctx context.Context) ([]domain.Row, error)
}

// MapWriter persists the finished map and returns the bytes it wrote.
type MapWriter interface {
	WriteMap(ctx context.Context, m *domain.RegionMap) ([]byte, error)
}

// Publisher pushes a finished map to a downstream sink.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, snap domain.Snapshot) error
}

// Result describes a successful run.
type Result struct {
	RunID      string
	Entries    int
	Rows       int
	Skipped    int
	Duplicates int
	StartedAt  time.Time
	Duration   time.Duration
}

// Pipeline runs extract, build, write and publish once, in that order. Any
// stage error ends the run.
type Pipeline struct {
	extractor  RowExtractor
	writer     MapWriter
	publishers []Publisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
}

// New creates a Pipeline with the given stages and observability. Publishers
// run in the order given after the output file is written.
func New(e RowExtractor, w MapWriter, publishers []Publisher, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	return &Pipeline{
		extractor:  e,
		writer:     w,
		publishers: publishers,
		logger:     logger,
		metrics:    metrics,
		clock:      clock,
	}
}

// Run executes one extraction.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := p.clock.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("run started", "publishers", len(p.publishers))

	rows, err := p.extractor.ExtractRows(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("extract: %w", err)
	}
	p.metrics.RowsRead.Add(float64(len(rows)))

	m, stats, err := p.build(rows, logger)
	if err != nil {
		return Result{}, fmt.Errorf("build: %w", err)
	}

	doc, err := p.writer.WriteMap(ctx, m)
	if err != nil {
		return Result{}, fmt.Errorf("write: %w", err)
	}
	p.metrics.EntriesWritten.Set(float64(m.Len()))

	snap := domain.Snapshot{RunID: runID, ExtractedAt: start, Map: m, Document: doc}
	for _, pub := range p.publishers {
		if err := p.publish(ctx, pub, snap, logger); err != nil {
			return Result{}, err
		}
	}

	elapsed := p.clock.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))

	res := Result{
		RunID:      runID,
		Entries:    m.Len(),
		Rows:       stats.Rows,
		Skipped:    stats.Skipped,
		Duplicates: len(stats.Duplicates),
		StartedAt:  start,
		Duration:   elapsed,
	}
	logger.Info("run complete",
		"entries", res.Entries,
		"rows", res.Rows,
		"skipped", res.Skipped,
		"duplicates", res.Duplicates,
		"duration", res.Duration,
	)
	return res, nil
}

func (p *Pipeline) publish(ctx context.Context, pub Publisher, snap domain.Snapshot, logger *slog.Logger) error {
	start := p.clock.Now()
	err := pub.Publish(ctx, snap)
	p.metrics.PublishDuration.WithLabelValues(pub.Name()).Observe(p.clock.Since(start).Seconds())
	if err != nil {
		p.metrics.PublishErrors.WithLabelValues(pub.Name()).Inc()
		return fmt.Errorf("publish %s: %w", pub.Name(), err)
	}
	logger.Info("published", "sink", pub.Name(), "entries", snap.Map.Len())
	return nil
}
