package domain

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseICAOPoint(t *testing.T) {
	tests := []struct {
		name string
		in   string
		lat  float64
		lon  float64
	}{
		{"tehran compact", "3541N05124E", 35.0 + 41.0/60, 51.4},
		{"whole degrees", "3200N05300E", 32.0, 53.0},
		{"south west", "5129S00028W", -(51.0 + 29.0/60), -(28.0 / 60)},
		{"split layout", "3541N 05124E", 35.0 + 41.0/60, 51.4},
		{"lowercase hemispheres", "3541n05124e", 35.0 + 41.0/60, 51.4},
		{"surrounding whitespace", "  3629N04611E\t", 36.0 + 29.0/60, 46.0 + 11.0/60},
		{"pole", "9000N00000E", 90, 0},
		{"antimeridian", "0000N18000W", 0, -180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, err := ParseICAOPoint(tt.in)
			require.NoError(t, err)
			assert.InDelta(t, tt.lat, lat, 1e-9)
			assert.InDelta(t, tt.lon, lon, 1e-9)
		})
	}
}

func TestParseICAOPoint_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"too short", "3541N0512E"},
		{"trailing radius", "3541N05124E025"},
		{"bad latitude hemisphere", "3541E05124E"},
		{"bad longitude hemisphere", "3541N05124N"},
		{"minutes out of range", "3561N05124E"},
		{"latitude over 90", "9100N05124E"},
		{"latitude 90 with minutes", "9001N05124E"},
		{"longitude over 180", "3541N18100E"},
		{"letters in digits", "35A1N05124E"},
		{"split with wrong widths", "35411N 0512E"},
		{"three parts", "3541N 0512 4E"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseICAOPoint(tt.in)
			require.ErrorIs(t, err, ErrInvalidCoordinate)
		})
	}
}

func TestFindICAOPoint(t *testing.T) {
	lat, lon, ok := FindICAOPoint("AREA: 25NM RADIUS CENTERED ON 3541N05124E (TEHRAN MEHRABAD).")
	require.True(t, ok)
	assert.InDelta(t, 35.6833, lat, 0.0001)
	assert.InDelta(t, 51.4, lon, 0.0001)

	// The first match is malformed (99 minutes); the scan moves on.
	lat, lon, ok = FindICAOPoint("BETWEEN 3599N05124E AND 2958N05234E")
	require.True(t, ok)
	assert.InDelta(t, 29.9667, lat, 0.0001)
	assert.InDelta(t, 52.5667, lon, 0.0001)

	_, _, ok = FindICAOPoint("RUNWAY 11L/29R CLOSED")
	assert.False(t, ok)
}

func TestFormatICAOPoint(t *testing.T) {
	assert.Equal(t, "3541N05124E", FormatICAOPoint(35.0+41.0/60, 51.4))
	assert.Equal(t, "5129S00028W", FormatICAOPoint(-(51.0 + 29.0/60), -(28.0 / 60)))
	assert.Equal(t, "0000N00000E", FormatICAOPoint(0, 0))
	// 59.7 minutes rounds up into the next degree.
	assert.Equal(t, "3600N05100E", FormatICAOPoint(35.995, 51.0))
}

func TestICAOPoint_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 2000; i++ {
		lat := float64(rng.IntN(89*60+59)) / 60 // under 90 degrees, minute precision
		lon := float64(rng.IntN(179*60+59)) / 60
		if rng.IntN(2) == 0 {
			lat = -lat
		}
		if rng.IntN(2) == 0 {
			lon = -lon
		}

		encoded := FormatICAOPoint(lat, lon)
		gotLat, gotLon, err := ParseICAOPoint(encoded)
		require.NoError(t, err, encoded)
		assert.InDelta(t, lat, gotLat, 1.0/60, encoded)
		assert.InDelta(t, lon, gotLon, 1.0/60, encoded)
	}
}
