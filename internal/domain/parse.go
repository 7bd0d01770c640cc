package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultSourceName tags records whose origin is not otherwise known.
const DefaultSourceName = "notam"

const (
	maxDescriptionLen  = 1000
	maxRawTextLen      = 2000
	fallbackBodyLength = 500
	unknownLocation    = "Unknown"
)

// Parser turns raw notice text into AirspaceRestriction records. It is safe
// for concurrent use: parsing touches no shared mutable state.
type Parser struct {
	classifier *Classifier
	now        func() time.Time
	sourceName string
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithClassifier replaces the default classification table.
func WithClassifier(c *Classifier) ParserOption {
	return func(p *Parser) { p.classifier = c }
}

// WithClock sets the time source used for the ingestion timestamp.
func WithClock(c clockwork.Clock) ParserOption {
	return func(p *Parser) { p.now = c.Now }
}

// WithIngestionTime pins the ingestion timestamp to t, for batch runs that
// evaluate a fixed set of notices at one instant.
func WithIngestionTime(t time.Time) ParserOption {
	return func(p *Parser) { p.now = func() time.Time { return t } }
}

// WithSourceName sets the provenance source tag.
func WithSourceName(name string) ParserOption {
	return func(p *Parser) { p.sourceName = name }
}

// NewParser creates a Parser with the default classification table, the real
// clock and DefaultSourceName unless overridden.
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		classifier: NewClassifier(DefaultClassificationRules()),
		now:        clockwork.NewRealClock().Now,
		sourceName: DefaultSourceName,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds a restriction from one raw notice block. Every decoding
// failure degrades to a default except a missing center point, which rejects
// the notice with ErrMissingCoordinates.
func (p *Parser) Parse(text string) (AirspaceRestriction, error) {
	if strings.TrimSpace(text) == "" {
		return AirspaceRestriction{}, fmt.Errorf("empty notice: %w", ErrMissingCoordinates)
	}

	f := ExtractFields(text)

	q, _ := ParseQLine(f.Qualifier)
	lat, lon, radius := q.CenterLat, q.CenterLon, q.RadiusNM
	if !q.HasCenter {
		scan := f.Body
		if scan == "" {
			scan = text
		}
		var ok bool
		lat, lon, ok = FindICAOPoint(scan)
		if !ok {
			return AirspaceRestriction{}, fmt.Errorf("notice %q: %w", f.NoticeID, ErrMissingCoordinates)
		}
		radius = DefaultRadiusNM
	}

	now := p.now().UTC()
	window := Window{Start: now}
	if t, perm, err := ParseNoticeTime(f.Start); f.Start != "" && err == nil && !perm {
		window.Start = t
	}
	if f.End != "" {
		t, perm, err := ParseNoticeTime(f.End)
		switch {
		case perm:
			window.IsPermanent = true
		case err == nil:
			window.End = &t
		}
	}

	category := p.classifier.Classify(q.Codes)

	location := f.Location
	if location == "" {
		location = unknownLocation
	}
	description := f.Body
	if description == "" {
		description = strings.TrimSpace(truncate(text, fallbackBodyLength))
	}

	rec := AirspaceRestriction{
		NoticeID: f.NoticeID,
		Window:   window,
		Limits:   q.Limits,
		Geometry: Geometry{
			CenterLat: lat,
			CenterLon: lon,
		},
		Category: category,
		Provenance: Provenance{
			SourceName:     p.sourceName,
			RawText:        truncate(text, maxRawTextLen),
			FIR:            q.FIR,
			QualifierCodes: q.Codes,
		},
		Title:       fmt.Sprintf("NOTAM: %s - %s", location, category.Title()),
		Description: truncate(description, maxDescriptionLen),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if radius > 0 {
		rec.Geometry.RadiusNM = &radius
	}
	if f.Qualifier != "" {
		rec.Provenance.QualifierLine = "Q) " + f.Qualifier
	}
	return rec, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
