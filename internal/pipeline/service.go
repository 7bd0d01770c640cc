package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
	"github.com/couchcryptid/notam-airspace-etl/internal/observability"
	"github.com/couchcryptid/notam-airspace-etl/internal/projector"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb/geojson"
)

// BatchResult summarizes one ingestion batch.
type BatchResult struct {
	Stored     int
	Skipped    int
	Duplicates int

	// Records holds the newly stored records with their store IDs.
	Records []domain.AirspaceRestriction
}

// Service is the ingestion and query surface over the airspace store.
type Service struct {
	parser     *domain.Parser
	store      domain.AirspaceStore
	projector  *projector.Projector
	clock      clockwork.Clock
	defaultFIR string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceClock sets the time source for active-window queries and cleanup.
func WithServiceClock(c clockwork.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

// WithDefaultFIR sets the FIR used by Active and ActiveGeoJSON when the
// caller passes none.
func WithDefaultFIR(fir string) ServiceOption {
	return func(s *Service) { s.defaultFIR = strings.ToUpper(fir) }
}

// NewService creates a Service. metrics may be nil.
func NewService(parser *domain.Parser, store domain.AirspaceStore, proj *projector.Projector, logger *slog.Logger, metrics *observability.Metrics, opts ...ServiceOption) *Service {
	s := &Service{
		parser:    parser,
		store:     store,
		projector: proj,
		clock:     clockwork.NewRealClock(),
		logger:    logger,
		metrics:   metrics,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseAndStore parses every text block and stores the results as one batch.
// Malformed notices are skipped and counted; only a store failure is
// returned as an error.
func (s *Service) ParseAndStore(ctx context.Context, texts []string) (BatchResult, error) {
	records := make([]domain.AirspaceRestriction, 0, len(texts))
	skipped := 0
	for _, text := range texts {
		r, err := s.parser.Parse(text)
		if err != nil {
			s.recordSkip(err)
			skipped++
			continue
		}
		records = append(records, r)
	}

	stored, err := s.LoadBatch(ctx, records)
	if err != nil {
		return BatchResult{Skipped: skipped}, err
	}

	res := BatchResult{
		Stored:     len(stored),
		Skipped:    skipped,
		Duplicates: len(records) - len(stored),
		Records:    stored,
	}
	s.logger.Info("notice batch stored",
		"stored", res.Stored, "skipped", res.Skipped, "duplicates", res.Duplicates)
	return res, nil
}

// LoadBatch inserts parsed records and returns those that were new.
// Records whose notice ID is already stored are dropped.
func (s *Service) LoadBatch(ctx context.Context, records []domain.AirspaceRestriction) ([]domain.AirspaceRestriction, error) {
	if len(records) == 0 {
		return nil, nil
	}

	n, err := s.store.InsertBatch(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("store batch: %w", err)
	}

	stored := make([]domain.AirspaceRestriction, 0, n)
	for _, r := range records {
		if r.ID != 0 {
			stored = append(stored, r)
			continue
		}
		s.logger.Debug("duplicate notice ignored", "notice_id", r.NoticeID)
	}

	if s.metrics != nil {
		s.metrics.RestrictionsStored.Add(float64(n))
		s.metrics.DuplicateNotices.Add(float64(len(records) - n))
	}
	return stored, nil
}

// Active returns the restrictions in effect now. An empty fir falls back to
// the configured default FIR; if that is empty too, all FIRs are returned.
func (s *Service) Active(ctx context.Context, fir string) ([]domain.AirspaceRestriction, error) {
	if fir == "" {
		fir = s.defaultFIR
	}
	records, err := s.store.Active(ctx, s.clock.Now().UTC(), strings.ToUpper(fir))
	if err != nil {
		return nil, fmt.Errorf("query active restrictions: %w", err)
	}
	return records, nil
}

// ActiveGeoJSON returns the active restrictions as a FeatureCollection.
func (s *Service) ActiveGeoJSON(ctx context.Context, fir string) (*geojson.FeatureCollection, error) {
	records, err := s.Active(ctx, fir)
	if err != nil {
		return nil, err
	}
	return s.projector.FeatureCollection(records), nil
}

// GeoJSON renders records as a FeatureCollection.
func (s *Service) GeoJSON(records []domain.AirspaceRestriction) *geojson.FeatureCollection {
	return s.projector.FeatureCollection(records)
}

// CleanupExpired removes restrictions that have ended and are not permanent.
func (s *Service) CleanupExpired(ctx context.Context) (int, error) {
	n, err := s.store.CleanupExpired(ctx, s.clock.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired restrictions: %w", err)
	}
	if s.metrics != nil {
		s.metrics.CleanupRemoved.Add(float64(n))
	}
	if n > 0 {
		s.logger.Info("expired restrictions removed", "removed", n)
	}
	return n, nil
}

func (s *Service) recordSkip(err error) {
	reason := skipReason(err)
	s.logger.Warn("notice skipped", "reason", reason, "error", err)
	if s.metrics != nil {
		s.metrics.NoticesSkipped.WithLabelValues(reason).Inc()
	}
}

func skipReason(err error) string {
	if errors.Is(err, domain.ErrMissingCoordinates) {
		return observability.SkipMissingCoordinates
	}
	return observability.SkipInvalid
}
