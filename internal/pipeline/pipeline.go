package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
	"github.com/couchcryptid/notam-airspace-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw notices from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawNotice, error)
}

// Transformer parses a raw notice into a restriction record.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawNotice) (domain.AirspaceRestriction, error)
}

// BatchLoader persists records and returns the ones that were newly stored.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.AirspaceRestriction) ([]domain.AirspaceRestriction, error)
}

// Publisher announces newly stored records downstream.
type Publisher interface {
	PublishBatch(ctx context.Context, records []domain.AirspaceRestriction) error
}

// Pipeline orchestrates the extract-parse-store-publish loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	publisher   Publisher
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability. publisher
// may be nil, in which case stored records are not republished.
func New(e BatchExtractor, t Transformer, l BatchLoader, pub Publisher, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		publisher:   pub,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has stored at least one batch,
// or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any messages yet")
	}
	return nil
}

// Ready reports whether the pipeline has stored at least one batch.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := initialBackoff
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

const initialBackoff = 200 * time.Millisecond

// processBatch runs one extract-parse-store cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(rawBatch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
	p.metrics.BatchSize.Observe(float64(len(rawBatch)))
	*backoff = initialBackoff

	loaded, ok := p.transformAndLoad(ctx, rawBatch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// transformAndLoad parses each message in the batch, stores the successes,
// publishes the newly stored records and commits offsets. Offsets, including
// those of rejected notices, are committed only once the batch is stored and
// published, so a committed offset never passes an unstored notice. Returns
// whether a store write happened and false if the pipeline should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, rawBatch []domain.RawNotice, backoff *time.Duration, maxBackoff time.Duration) (bool, bool) {
	records := make([]domain.AirspaceRestriction, 0, len(rawBatch))

	for _, raw := range rawBatch {
		rec, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			reason := skipReason(err)
			p.logger.Warn("notice skipped",
				"reason", reason,
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.NoticesSkipped.WithLabelValues(reason).Inc()
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		p.commitBatch(ctx, rawBatch)
		return false, true
	}

	stored, ok := p.load(ctx, records, backoff, maxBackoff)
	if !ok {
		return false, false
	}
	p.logger.Info("notice batch stored",
		"stored", len(stored),
		"skipped", len(rawBatch)-len(records),
		"duplicates", len(records)-len(stored),
	)

	if !p.publish(ctx, stored, backoff, maxBackoff) {
		return false, false
	}

	p.commitBatch(ctx, rawBatch)
	return true, true
}

// load stores records, retrying the whole batch with backoff until it
// succeeds. Returns false if the pipeline should stop.
func (p *Pipeline) load(ctx context.Context, records []domain.AirspaceRestriction, backoff *time.Duration, maxBackoff time.Duration) ([]domain.AirspaceRestriction, bool) {
	for {
		stored, err := p.loader.LoadBatch(ctx, records)
		if err == nil {
			return stored, true
		}
		p.logger.Error("store batch failed", "error", err, "batch_size", len(records))
		if !p.backoffOrStop(ctx, backoff, maxBackoff) {
			return nil, false
		}
	}
}

// publish sends stored records downstream, retrying with backoff until it
// succeeds. Returns false if the pipeline should stop.
func (p *Pipeline) publish(ctx context.Context, stored []domain.AirspaceRestriction, backoff *time.Duration, maxBackoff time.Duration) bool {
	if p.publisher == nil || len(stored) == 0 {
		return true
	}
	for {
		err := p.publisher.PublishBatch(ctx, stored)
		if err == nil {
			p.metrics.MessagesProduced.Add(float64(len(stored)))
			return true
		}
		p.logger.Error("publish batch failed", "error", err, "batch_size", len(stored))
		if !p.backoffOrStop(ctx, backoff, maxBackoff) {
			return false
		}
	}
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitBatch commits every message offset in the batch that has a commit
// function, in fetch order.
func (p *Pipeline) commitBatch(ctx context.Context, rawBatch []domain.RawNotice) {
	for _, raw := range rawBatch {
		if raw.Commit == nil {
			continue
		}
		if err := raw.Commit(ctx); err != nil {
			p.logger.Warn("commit offset failed", "error", err,
				"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
		}
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
