// Command validate checks a NOTAM fixture offline: every notice is parsed with
// the domain parser, then the resulting restrictions are checked for
// classification, geometry and validity-window integrity and projected to
// GeoJSON. It prints per-category counts and skip reasons and exits non-zero
// when a check fails or nothing parsed.
//
// Usage:
//
//	go run ./cmd/validate -fixture data/mock/notams.json
//	go run ./cmd/validate -fixture data/mock/notams.json -at 2025-01-13T12:00:00Z -geojson /tmp/active.geojson
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/notam-airspace-etl/internal/domain"
	"github.com/couchcryptid/notam-airspace-etl/internal/projector"
)

// mockNotice is one fixture entry, as written by genmock.
type mockNotice struct {
	Key    string `json:"key"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// parsed pairs a fixture entry with its parse outcome.
type parsed struct {
	notice mockNotice
	record domain.AirspaceRestriction
	err    error
}

func main() {
	fixture := flag.String("fixture", "data/mock/notams.json", "path to the NOTAM JSON fixture")
	at := flag.String("at", "", "evaluation time for the active set (RFC3339, default now)")
	geojsonOut := flag.String("geojson", "", "optional output path for the active restrictions GeoJSON")
	flag.Parse()

	now := time.Now().UTC()
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -at: %v\n", err)
			os.Exit(1)
		}
		now = t.UTC()
	}

	if code := run(os.Stdout, *fixture, now, *geojsonOut); code != 0 {
		os.Exit(code)
	}
}

func run(out io.Writer, fixturePath string, now time.Time, geojsonOut string) int {
	notices, err := loadNotices(fixturePath)
	if err != nil {
		fmt.Fprintf(out, "FATAL: load fixture: %v\n", err)
		return 1
	}

	fmt.Fprintln(out, "=== NOTAM Fixture Validation ===")
	fmt.Fprintln(out)

	// Ingestion time is pinned to the evaluation time so defaulted start
	// times are reproducible.
	parser := domain.NewParser(domain.WithIngestionTime(now))
	results := make([]parsed, 0, len(notices))
	for _, n := range notices {
		rec, err := parser.Parse(n.Text)
		results = append(results, parsed{notice: n, record: rec, err: err})
	}

	records := accepted(results)
	proj := projector.New(len(records), nil)

	phases := []*phase{
		validateParsing(results),
		validateClassification(records),
		validateGeometry(records),
		validateWindows(records),
		validateProjection(proj, records),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Notices: %d total, %d parsed, %d skipped\n", len(results), len(records), len(results)-len(records))
	printCounts(out, "By category", categoryCounts(records))
	printCounts(out, "Skip reasons", skipReasons(results))

	active := activeAt(records, now)
	fmt.Fprintf(out, "Active at %s: %d\n", now.Format(time.RFC3339), len(active))

	if geojsonOut != "" {
		if err := writeGeoJSON(geojsonOut, proj, active); err != nil {
			fmt.Fprintf(out, "FATAL: write geojson: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "Wrote active GeoJSON: %s\n", geojsonOut)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed && len(records) > 0 {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func loadNotices(path string) ([]mockNotice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var notices []mockNotice
	if err := json.Unmarshal(data, &notices); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return notices, nil
}

func accepted(results []parsed) []domain.AirspaceRestriction {
	var records []domain.AirspaceRestriction
	for _, r := range results {
		if r.err == nil {
			records = append(records, r.record)
		}
	}
	return records
}

// ── Validation phases ──

func validateParsing(results []parsed) *phase {
	p := &phase{name: "Parsing"}
	if len(results) == 0 {
		p.errorf("fixture is empty")
	}
	for _, r := range results {
		switch {
		case errors.Is(r.err, domain.ErrMissingCoordinates):
			// Expected rejection.
		case r.err != nil:
			p.errorf("%s: unexpected error: %v", r.notice.Key, r.err)
		case r.record.NoticeID != r.notice.Key:
			p.errorf("%s: parsed notice id %q", r.notice.Key, r.record.NoticeID)
		}
	}
	return p
}

func validateClassification(records []domain.AirspaceRestriction) *phase {
	p := &phase{name: "Classification"}
	known := map[domain.Category]bool{
		domain.CategoryRestriction:          true,
		domain.CategoryClosure:              true,
		domain.CategoryHazardNotice:         true,
		domain.CategoryTemporaryRestriction: true,
		domain.CategoryWarningArea:          true,
	}
	for _, r := range records {
		if !known[r.Category] {
			p.errorf("%s: unknown category %q", r.NoticeID, r.Category)
		}
		if r.Provenance.QualifierCodes == "" && r.Category != domain.CategoryRestriction {
			p.errorf("%s: category %q without qualifier codes", r.NoticeID, r.Category)
		}
	}
	return p
}

func validateGeometry(records []domain.AirspaceRestriction) *phase {
	p := &phase{name: "Geometry"}
	for _, r := range records {
		g := r.Geometry
		if g.CenterLat < -90 || g.CenterLat > 90 || g.CenterLon < -180 || g.CenterLon > 180 {
			p.errorf("%s: center (%g, %g) out of range", r.NoticeID, g.CenterLat, g.CenterLon)
			continue
		}
		if g.RadiusNM == nil {
			continue
		}
		ring, err := g.Polygon()
		if err != nil {
			p.errorf("%s: polygon: %v", r.NoticeID, err)
			continue
		}
		if len(ring) != domain.CircleVertices+1 {
			p.errorf("%s: ring has %d points, want %d", r.NoticeID, len(ring), domain.CircleVertices+1)
		}
		if !ring.Closed() {
			p.errorf("%s: ring is not closed", r.NoticeID)
		}
	}
	return p
}

func validateWindows(records []domain.AirspaceRestriction) *phase {
	p := &phase{name: "Validity windows"}
	for _, r := range records {
		w := r.Window
		if w.IsPermanent && w.End != nil {
			p.errorf("%s: permanent window has an end", r.NoticeID)
		}
		if w.End != nil && w.End.Before(w.Start) {
			p.errorf("%s: end %s before start %s", r.NoticeID, w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
		}
		if r.Limits.Lower > r.Limits.Upper {
			p.errorf("%s: lower limit %d above upper %d", r.NoticeID, r.Limits.Lower, r.Limits.Upper)
		}
	}
	return p
}

func validateProjection(proj *projector.Projector, records []domain.AirspaceRestriction) *phase {
	p := &phase{name: "GeoJSON projection"}
	fc := proj.FeatureCollection(records)
	if len(fc.Features) != len(records) {
		p.errorf("collection has %d features, want %d", len(fc.Features), len(records))
	}
	for i, f := range fc.Features {
		want := "Point"
		if records[i].Geometry.RadiusNM != nil {
			want = "Polygon"
		}
		if got := f.Geometry.GeoJSONType(); got != want {
			p.errorf("%s: geometry %s, want %s", records[i].NoticeID, got, want)
		}
	}
	if _, err := json.Marshal(fc); err != nil {
		p.errorf("marshal collection: %v", err)
	}
	return p
}

// ── Reporting ──

func categoryCounts(records []domain.AirspaceRestriction) map[string]int {
	counts := map[string]int{}
	for _, r := range records {
		counts[string(r.Category)]++
	}
	return counts
}

func skipReasons(results []parsed) map[string]int {
	counts := map[string]int{}
	for _, r := range results {
		switch {
		case r.err == nil:
		case errors.Is(r.err, domain.ErrMissingCoordinates):
			counts["missing_coordinates"]++
		default:
			counts["invalid"]++
		}
	}
	return counts
}

func printCounts(out io.Writer, label string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(out, "%s:", label)
	if len(keys) == 0 {
		fmt.Fprint(out, " none")
	}
	for _, k := range keys {
		fmt.Fprintf(out, " %s=%d", k, counts[k])
	}
	fmt.Fprintln(out)
}

func activeAt(records []domain.AirspaceRestriction, now time.Time) []domain.AirspaceRestriction {
	var active []domain.AirspaceRestriction
	for _, r := range records {
		if r.Window.ActiveAt(now) {
			active = append(active, r)
		}
	}
	return active
}

func writeGeoJSON(path string, proj *projector.Projector, records []domain.AirspaceRestriction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(proj.FeatureCollection(records), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
