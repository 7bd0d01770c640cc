// Package projector renders airspace restrictions as GeoJSON features for
// map clients.
package projector

import (
	"time"

	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
	"github.com/couchcryptid/notam-airspace-etl/internal/observability"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultCacheSize is the ring cache capacity used when none is given.
const DefaultCacheSize = 1000

// circleKey identifies a coverage circle. Rings depend only on these three
// values, so records sharing a circle share one ring.
type circleKey struct {
	lat, lon, radius float64
}

// Projector converts restrictions into GeoJSON. Circle rings are derived
// once per distinct circle and kept in an LRU cache. Cached rings are shared
// between features and must not be modified.
type Projector struct {
	rings   *lru.Cache[circleKey, orb.Ring]
	metrics *observability.Metrics
}

// New creates a Projector with a ring cache of the given size. A
// non-positive size uses DefaultCacheSize. metrics may be nil.
func New(cacheSize int, metrics *observability.Metrics) *Projector {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	// lru.New only fails on a non-positive size.
	rings, _ := lru.New[circleKey, orb.Ring](cacheSize)
	return &Projector{rings: rings, metrics: metrics}
}

// Feature renders one restriction: a Polygon when the record has a positive
// radius, otherwise a Point at the center.
func (p *Projector) Feature(r domain.AirspaceRestriction) *geojson.Feature {
	var geom orb.Geometry = orb.Point{r.Geometry.CenterLon, r.Geometry.CenterLat}
	if ring, ok := p.ring(r.Geometry); ok {
		geom = orb.Polygon{ring}
	}

	f := geojson.NewFeature(geom)
	f.Properties = properties(r)
	return f
}

// FeatureCollection renders records in order. The collection carries a
// "count" member equal to the number of features.
func (p *Projector) FeatureCollection(records []domain.AirspaceRestriction) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range records {
		fc.Append(p.Feature(r))
	}
	fc.ExtraMembers = geojson.Properties{"count": len(fc.Features)}
	return fc
}

func (p *Projector) ring(g domain.Geometry) (orb.Ring, bool) {
	if g.RadiusNM == nil {
		return nil, false
	}
	key := circleKey{lat: g.CenterLat, lon: g.CenterLon, radius: *g.RadiusNM}
	if ring, ok := p.rings.Get(key); ok {
		p.observeCache("hit")
		return ring, true
	}
	p.observeCache("miss")

	ring, err := g.Polygon()
	if err != nil {
		return nil, false
	}
	p.rings.Add(key, ring)
	return ring, true
}

func (p *Projector) observeCache(result string) {
	if p.metrics != nil {
		p.metrics.GeometryCache.WithLabelValues(result).Inc()
	}
}

func properties(r domain.AirspaceRestriction) geojson.Properties {
	props := geojson.Properties{
		"id":           r.ID,
		"notice_id":    nullable(r.NoticeID),
		"title":        r.Title,
		"description":  r.Description,
		"category":     string(r.Category),
		"start":        r.Window.Start.UTC().Format(time.RFC3339),
		"end":          nil,
		"is_permanent": r.Window.IsPermanent,
		"lower_limit":  r.Limits.Lower,
		"upper_limit":  r.Limits.Upper,
		"radius_nm":    nil,
		"fir":          nullable(r.Provenance.FIR),
		"source":       r.Provenance.SourceName,
	}
	if r.Window.End != nil {
		props["end"] = r.Window.End.UTC().Format(time.RFC3339)
	}
	if r.Geometry.RadiusNM != nil {
		props["radius_nm"] = *r.Geometry.RadiusNM
	}
	return props
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
