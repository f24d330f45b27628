package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/nxny-map-etl/internal/domain"
	"github.com/couchcryptid/nxny-map-etl/internal/observability"
	"github.com/couchcryptid/nxny-map-etl/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	rows  []domain.Row
	err   error
	clock *clockwork.FakeClock
}

func (m *mockExtractor) ExtractRows(_ context.Context) ([]domain.Row, error) {
	if m.clock != nil {
		m.clock.Advance(2 * time.Second)
	}
	return m.rows, m.err
}

type mockWriter struct {
	written *domain.RegionMap
	err     error
}

func (m *mockWriter) WriteMap(_ context.Context, rm *domain.RegionMap) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.written = rm
	return []byte("doc"), nil
}

type mockPublisher struct {
	name  string
	err   error
	snaps []domain.Snapshot
	calls *[]string
}

func (m *mockPublisher) Name() string { return m.name }

func (m *mockPublisher) Publish(_ context.Context, snap domain.Snapshot) error {
	if m.calls != nil {
		*m.calls = append(*m.calls, m.name)
	}
	m.snaps = append(m.snaps, snap)
	return m.err
}

func row(line int, l1, l2, l3, x, y string) domain.Row {
	return domain.Row{
		Line:   line,
		Levels: [3]domain.Cell{domain.TextCell(l1), domain.TextCell(l2), domain.TextCell(l3)},
		GridX:  domain.TextCell(x),
		GridY:  domain.TextCell(y),
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

var epoch = time.Date(2024, time.November, 1, 9, 0, 0, 0, time.UTC)

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	clock := clockwork.NewFakeClockAt(epoch)
	ext := &mockExtractor{clock: clock, rows: []domain.Row{
		row(2, "서울특별시", "", "", "60", "127"),
		row(3, "", "", "", "", ""),
		row(4, "부산광역시", "", "", "98", "76"),
	}}
	w := &mockWriter{}
	pub := &mockPublisher{name: "kafka"}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, w, []pipeline.Publisher{pub}, discard(), metrics, clock)

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Entries)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 1, res.Skipped)
	assert.Zero(t, res.Duplicates)
	assert.Equal(t, epoch, res.StartedAt)
	assert.Equal(t, 2*time.Second, res.Duration)
	assert.NotEmpty(t, res.RunID)

	require.NotNil(t, w.written)
	if diff := cmp.Diff([]string{"서울특별시", "부산광역시"}, w.written.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, pub.snaps, 1)
	assert.Equal(t, res.RunID, pub.snaps[0].RunID)
	assert.Equal(t, epoch, pub.snaps[0].ExtractedAt)
	assert.Equal(t, []byte("doc"), pub.snaps[0].Document)
	assert.Same(t, w.written, pub.snaps[0].Map)

	assert.InDelta(t, 3, testutil.ToFloat64(metrics.RowsRead), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RowsSkipped), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.EntriesWritten), 0)
	assert.InDelta(t, float64(epoch.Add(2*time.Second).Unix()), testutil.ToFloat64(metrics.LastSuccess), 0)
}

func TestPipeline_Run_DuplicatesLogged(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	ext := &mockExtractor{rows: []domain.Row{
		row(2, "대구광역시", "중구", "", "89", "90"),
		row(3, "대구광역시", "중구", "", "90", "91"),
	}}
	w := &mockWriter{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, w, nil, logger, metrics, clockwork.NewFakeClockAt(epoch))

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Entries)
	assert.Equal(t, 1, res.Duplicates)
	coord, ok := w.written.Get("대구광역시 중구")
	require.True(t, ok)
	assert.Equal(t, domain.GridCoordinate{NX: 90, NY: 91}, coord)
	assert.Contains(t, logs.String(), "duplicate region key")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DuplicateKeys), 0)
}

func TestPipeline_Run_ExtractError(t *testing.T) {
	ext := &mockExtractor{err: domain.ErrSchema}
	w := &mockWriter{}

	p := pipeline.New(ext, w, nil, discard(), observability.NewMetricsForTesting(), clockwork.NewFakeClockAt(epoch))

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrSchema)
	assert.Nil(t, w.written)
}

func TestPipeline_Run_ConversionErrorWritesNothing(t *testing.T) {
	ext := &mockExtractor{rows: []domain.Row{
		row(2, "서울특별시", "", "", "60", "127"),
		row(3, "부산광역시", "", "", "abc", "76"),
	}}
	w := &mockWriter{}
	pub := &mockPublisher{name: "postgres"}

	p := pipeline.New(ext, w, []pipeline.Publisher{pub}, discard(), observability.NewMetricsForTesting(), clockwork.NewFakeClockAt(epoch))

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrTypeConversion)
	assert.Contains(t, err.Error(), "line 3")
	assert.Nil(t, w.written)
	assert.Empty(t, pub.snaps)
}

func TestPipeline_Run_WriteError(t *testing.T) {
	ext := &mockExtractor{rows: []domain.Row{row(2, "서울특별시", "", "", "60", "127")}}
	w := &mockWriter{err: domain.ErrFileAccess}
	pub := &mockPublisher{name: "kafka"}

	p := pipeline.New(ext, w, []pipeline.Publisher{pub}, discard(), observability.NewMetricsForTesting(), clockwork.NewFakeClockAt(epoch))

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrFileAccess)
	assert.Empty(t, pub.snaps)
}

func TestPipeline_Run_PublisherErrorStopsRun(t *testing.T) {
	var calls []string
	failing := &mockPublisher{name: "objectstore", err: errors.New("bucket gone"), calls: &calls}
	after := &mockPublisher{name: "postgres", calls: &calls}
	ext := &mockExtractor{rows: []domain.Row{row(2, "서울특별시", "", "", "60", "127")}}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockWriter{}, []pipeline.Publisher{failing, after}, discard(), metrics, clockwork.NewFakeClockAt(epoch))

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish objectstore")
	assert.Equal(t, []string{"objectstore"}, calls)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PublishErrors.WithLabelValues("objectstore")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.LastSuccess), 0)
}

func TestPipeline_Run_PublishersInOrder(t *testing.T) {
	var calls []string
	pubs := []pipeline.Publisher{
		&mockPublisher{name: "kafka", calls: &calls},
		&mockPublisher{name: "objectstore", calls: &calls},
		&mockPublisher{name: "postgres", calls: &calls},
	}
	ext := &mockExtractor{rows: []domain.Row{row(2, "서울특별시", "", "", "60", "127")}}

	p := pipeline.New(ext, &mockWriter{}, pubs, discard(), observability.NewMetricsForTesting(), clockwork.NewFakeClockAt(epoch))

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka", "objectstore", "postgres"}, calls)
}

func TestPipeline_Run_UniqueRunIDs(t *testing.T) {
	ext := &mockExtractor{rows: []domain.Row{row(2, "서울특별시", "", "", "60", "127")}}
	p := pipeline.New(ext, &mockWriter{}, nil, discard(), observability.NewMetricsForTesting(), clockwork.NewFakeClockAt(epoch))

	a, err := p.Run(context.Background())
	require.NoError(t, err)
	b, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
}
