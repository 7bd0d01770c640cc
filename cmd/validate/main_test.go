package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	fixturePath = filepath.Join("..", "..", "data", "mock", "notams.json")
	evalTime    = time.Date(2025, time.January, 13, 12, 0, 0, 0, time.UTC)
)

func TestRun_Fixture(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, fixturePath, evalTime, "")

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "Notices: 6 total, 5 parsed, 1 skipped")
	assert.Contains(t, out.String(), "closure=1 hazard_notice=1 temporary_restriction=2 warning_area=1")
	assert.Contains(t, out.String(), "Skip reasons: missing_coordinates=1")
	assert.Contains(t, out.String(), "Active at 2025-01-13T12:00:00Z: 5")
}

func TestRun_ActiveSetShrinksOverTime(t *testing.T) {
	var out bytes.Buffer
	code := run(&out, fixturePath, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), "")

	assert.Equal(t, 0, code)
	// A0124 (ends 01-15 23:59) and the permanent A0127 remain.
	assert.Contains(t, out.String(), "Active at 2025-01-15T00:00:00Z: 2")
}

func TestRun_WritesGeoJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "active.geojson")
	var out bytes.Buffer
	require.Equal(t, 0, run(&out, fixturePath, evalTime, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var fc struct {
		Type     string            `json:"type"`
		Count    int               `json:"count"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Equal(t, 5, fc.Count)
	assert.Len(t, fc.Features, 5)
}

func TestRun_NothingParsedFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	notices := []mockNotice{{Key: "A0001/25", Source: "notam", Text: "A0001/25 NOTAMN\nA) OIII\nE) NO POSITION."}}
	data, err := json.Marshal(notices)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	var out bytes.Buffer
	assert.Equal(t, 1, run(&out, path, evalTime, ""))
	assert.Contains(t, out.String(), "Validation FAILED.")
}

func TestRun_MissingStartDefaultsToEvaluationTime(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nostart.json")
	notices := []mockNotice{{
		Key:    "A0002/25",
		Source: "notam",
		Text:   "A0002/25 NOTAMN\nQ) OIIX/QRTCA/IV/NBO/W/000/120/3541N05124E025\nA) OIII\nC) PERM\nE) RESTRICTED AREA ACTIVATED.",
	}}
	data, err := json.Marshal(notices)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	var out bytes.Buffer
	assert.Equal(t, 0, run(&out, path, evalTime, ""), out.String())
	assert.Contains(t, out.String(), "Active at 2025-01-13T12:00:00Z: 1")
}

func TestRun_MissingFixture(t *testing.T) {
	var out bytes.Buffer
	assert.Equal(t, 1, run(&out, filepath.Join(t.TempDir(), "missing.json"), evalTime, ""))
	assert.Contains(t, out.String(), "FATAL: load fixture")
}
