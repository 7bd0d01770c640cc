package domain

import (
	"context"
	"time"

	"github.com/paulmach/orb"
)

// Category is the semantic kind of an airspace restriction.
type Category string

const (
	CategoryRestriction          Category = "restriction"
	CategoryClosure              Category = "closure"
	CategoryHazardNotice         Category = "hazard_notice"
	CategoryTemporaryRestriction Category = "temporary_restriction"
	CategoryWarningArea          Category = "warning_area"
)

// Title renders the category for human-readable labels,
// e.g. "temporary_restriction" -> "Temporary Restriction".
func (c Category) Title() string {
	switch c {
	case CategoryClosure:
		return "Closure"
	case CategoryHazardNotice:
		return "Hazard Notice"
	case CategoryTemporaryRestriction:
		return "Temporary Restriction"
	case CategoryWarningArea:
		return "Warning Area"
	default:
		return "Restriction"
	}
}

// Default vertical limits: surface to unlimited, in flight levels.
const (
	DefaultLowerLimit = 0
	DefaultUpperLimit = 999
)

// RawNotice is an unprocessed notice text block from the source topic.
type RawNotice struct {
	Key       []byte
	Text      string
	Source    string
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Window is the validity period of a restriction. End is nil when the notice
// is permanent or its C field was missing or unparseable.
type Window struct {
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end,omitempty"`
	IsPermanent bool       `json:"is_permanent"`
}

// ActiveAt reports whether the window covers now. A nil End without the
// permanent flag is never active.
func (w Window) ActiveAt(now time.Time) bool {
	if w.Start.After(now) {
		return false
	}
	if w.IsPermanent {
		return true
	}
	return w.End != nil && !w.End.Before(now)
}

// ExpiredAt reports whether the cleanup sweep may remove the window at now.
func (w Window) ExpiredAt(now time.Time) bool {
	return !w.IsPermanent && w.End != nil && w.End.Before(now)
}

// VerticalLimits holds lower and upper flight levels (0–999).
type VerticalLimits struct {
	Lower int `json:"lower"`
	Upper int `json:"upper"`
}

// Geometry is the circular coverage of a restriction. RadiusNM is nil when
// no positive radius is known; the record then renders as a point.
type Geometry struct {
	CenterLat float64  `json:"center_lat"`
	CenterLon float64  `json:"center_lon"`
	RadiusNM  *float64 `json:"radius_nm,omitempty"`
}

// Polygon derives the closed ring approximating the coverage circle.
func (g Geometry) Polygon() (orb.Ring, error) {
	if g.RadiusNM == nil {
		return nil, ErrInvalidGeometry
	}
	return CirclePolygon(g.CenterLat, g.CenterLon, *g.RadiusNM)
}

// Provenance records where a restriction came from. It is never modified
// after the record is stored.
type Provenance struct {
	SourceName     string `json:"source_name"`
	RawText        string `json:"raw_text"`
	QualifierLine  string `json:"qualifier_line,omitempty"`
	FIR            string `json:"fir,omitempty"`
	QualifierCodes string `json:"qualifier_codes,omitempty"`
}

// AirspaceRestriction is a parsed, time-bounded airspace record.
// NoticeID is empty when the notice carried no identifier; otherwise it is
// the deduplication key at the store boundary.
type AirspaceRestriction struct {
	ID          int64          `json:"id"`
	NoticeID    string         `json:"notice_id,omitempty"`
	Window      Window         `json:"window"`
	Limits      VerticalLimits `json:"vertical_limits"`
	Geometry    Geometry       `json:"geometry"`
	Category    Category       `json:"category"`
	Provenance  Provenance     `json:"provenance"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
