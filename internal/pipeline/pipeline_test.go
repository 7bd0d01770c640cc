package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
	"github.com/couchcryptid/notam-airspace-etl/internal/observability"
	"github.com/couchcryptid/notam-airspace-etl/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawNotice
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawNotice, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockLoader struct {
	failures int
	calls    int
	loaded   []domain.AirspaceRestriction
	seen     map[string]bool
	nextID   int64
}

func (m *mockLoader) LoadBatch(_ context.Context, records []domain.AirspaceRestriction) ([]domain.AirspaceRestriction, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, errors.New("database is locked")
	}
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	var stored []domain.AirspaceRestriction
	for _, r := range records {
		if r.NoticeID != "" && m.seen[r.NoticeID] {
			continue
		}
		m.seen[r.NoticeID] = true
		m.nextID++
		r.ID = m.nextID
		stored = append(stored, r)
	}
	m.loaded = append(m.loaded, stored...)
	return stored, nil
}

type mockPublisher struct {
	failures  int
	calls     int
	published []domain.AirspaceRestriction
}

func (m *mockPublisher) PublishBatch(_ context.Context, records []domain.AirspaceRestriction) error {
	m.calls++
	if m.calls <= m.failures {
		return errors.New("leader not available")
	}
	m.published = append(m.published, records...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func newTestTransformer() *pipeline.NoticeTransformer {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 1, 13, 12, 0, 0, 0, time.UTC))
	return pipeline.NewTransformer(domain.NewParser(domain.WithClock(clock)))
}

const validNotice = `A0123/25 NOTAMN
Q) OIIX/QRTCA/IV/NBO/W/000/120/3541N05124E025
A) OIII
B) 2501120000
C) 2501140000
E) TEMPORARY RESTRICTED AREA ACTIVATED DUE TO VIP MOVEMENT.`

const secondNotice = `A0125/25 NOTAMN
Q) OIIX/QFALC/IV/NBO/A/000/999/3239N05240E005
A) OIFM
B) 2501120000
C) 2501132359
E) AERODROME CLOSED.`

const noCoordinatesNotice = `A0128/25 NOTAMN
A) OIKB
E) VOR KIS UNSERVICEABLE.`

func rawNotice(text string, offset int64, commits *atomic.Int64) domain.RawNotice {
	return domain.RawNotice{
		Text:   text,
		Topic:  "raw-notams",
		Offset: offset,
		Commit: func(_ context.Context) error {
			commits.Add(1)
			return nil
		},
	}
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawNotice{{
		rawNotice(validNotice, 1, &commits),
		rawNotice(noCoordinatesNotice, 2, &commits),
		rawNotice(secondNotice, 3, &commits),
	}}}
	ldr := &mockLoader{}
	pub := &mockPublisher{}
	metrics := newTestMetrics()

	p := pipeline.New(ext, newTestTransformer(), ldr, pub, slog.Default(), metrics, 10)
	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, "A0123/25", ldr.loaded[0].NoticeID)
	assert.Equal(t, "A0125/25", ldr.loaded[1].NoticeID)
	assert.Len(t, pub.published, 2)
	assert.Equal(t, int64(3), commits.Load())
	assert.True(t, p.Ready())
	require.NoError(t, p.CheckReadiness(context.Background()))

	assert.InDelta(t, 3, testutil.ToFloat64(metrics.MessagesConsumed), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.MessagesProduced), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.NoticesSkipped.WithLabelValues(observability.SkipMissingCoordinates)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	ldr := &mockLoader{}

	p := pipeline.New(ext, newTestTransformer(), ldr, nil, slog.Default(), newTestMetrics(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_AllNoticesRejected(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawNotice{{
		rawNotice(noCoordinatesNotice, 1, &commits),
		rawNotice("", 2, &commits),
	}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, newTestTransformer(), ldr, nil, slog.Default(), newTestMetrics(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Zero(t, ldr.calls)
	// Rejected notices are data, not failures: their offsets are committed.
	assert.Equal(t, int64(2), commits.Load())
	assert.False(t, p.Ready())
}

func TestPipeline_Run_StoreFailureSkipsCommit(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawNotice{{
		rawNotice(validNotice, 1, &commits),
		rawNotice(noCoordinatesNotice, 2, &commits),
	}}}
	ldr := &mockLoader{failures: 100}

	p := pipeline.New(ext, newTestTransformer(), ldr, nil, slog.Default(), newTestMetrics(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.GreaterOrEqual(t, ldr.calls, 2)
	// The rejected notice at offset 2 is held back with the unstored one.
	assert.Zero(t, commits.Load())
	assert.False(t, p.Ready())
}

func TestPipeline_Run_StoreFailureRetriesBatch(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawNotice{
		{rawNotice(validNotice, 1, &commits), rawNotice(noCoordinatesNotice, 2, &commits)},
		{rawNotice(secondNotice, 3, &commits)},
	}}
	ldr := &mockLoader{failures: 1}
	pub := &mockPublisher{}

	p := pipeline.New(ext, newTestTransformer(), ldr, pub, slog.Default(), newTestMetrics(), 10)
	runFor(t, p, time.Second)

	assert.Equal(t, 3, ldr.calls)
	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, "A0123/25", ldr.loaded[0].NoticeID)
	assert.Equal(t, "A0125/25", ldr.loaded[1].NoticeID)
	assert.Len(t, pub.published, 2)
	assert.Equal(t, int64(3), commits.Load())
	assert.True(t, p.Ready())
}

func TestPipeline_Run_DuplicateBatchIsNotRepublished(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawNotice{
		{rawNotice(validNotice, 1, &commits)},
		{rawNotice(validNotice, 2, &commits)},
	}}
	ldr := &mockLoader{}
	pub := &mockPublisher{}

	p := pipeline.New(ext, newTestTransformer(), ldr, pub, slog.Default(), newTestMetrics(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Len(t, ldr.loaded, 1)
	assert.Len(t, pub.published, 1)
	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, int64(2), commits.Load())
}

func TestPipeline_Run_PublishRetriesBeforeCommit(t *testing.T) {
	var commits atomic.Int64
	ext := &mockExtractor{batches: [][]domain.RawNotice{{rawNotice(validNotice, 1, &commits)}}}
	ldr := &mockLoader{}
	pub := &mockPublisher{failures: 1}

	p := pipeline.New(ext, newTestTransformer(), ldr, pub, slog.Default(), newTestMetrics(), 10)
	runFor(t, p, time.Second)

	assert.Equal(t, 2, pub.calls)
	assert.Len(t, pub.published, 1)
	assert.Equal(t, int64(1), commits.Load())
	assert.True(t, p.Ready())
}

func TestNoticeTransformer_SourceOverride(t *testing.T) {
	tfm := newTestTransformer()

	rec, err := tfm.Transform(context.Background(), domain.RawNotice{Text: validNotice})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSourceName, rec.Provenance.SourceName)

	rec, err = tfm.Transform(context.Background(), domain.RawNotice{Text: validNotice, Source: "faa"})
	require.NoError(t, err)
	assert.Equal(t, "faa", rec.Provenance.SourceName)
}

func TestNoticeTransformer_Rejects(t *testing.T) {
	_, err := newTestTransformer().Transform(context.Background(), domain.RawNotice{Text: noCoordinatesNotice, Offset: 42})
	require.ErrorIs(t, err, domain.ErrMissingCoordinates)
	assert.Contains(t, err.Error(), "offset 42")
}
