package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNoticeTime(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected time.Time
	}{
		{"reference example", "2501120800", time.Date(2025, time.January, 12, 8, 0, 0, 0, time.UTC)},
		{"midnight", "2501140000", time.Date(2025, time.January, 14, 0, 0, 0, 0, time.UTC)},
		{"end of day", "2512312359", time.Date(2025, time.December, 31, 23, 59, 0, 0, time.UTC)},
		{"leap day", "2402291200", time.Date(2024, time.February, 29, 12, 0, 0, 0, time.UTC)},
		{"estimated suffix", "2501140000EST", time.Date(2025, time.January, 14, 0, 0, 0, 0, time.UTC)},
		{"padded", "  2501120800 ", time.Date(2025, time.January, 12, 8, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, perm, err := ParseNoticeTime(tt.in)
			require.NoError(t, err)
			assert.False(t, perm)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseNoticeTime_Permanent(t *testing.T) {
	for _, in := range []string{"PERM", "perm", "Perm", " PERM "} {
		t.Run(in, func(t *testing.T) {
			got, perm, err := ParseNoticeTime(in)
			require.NoError(t, err)
			assert.True(t, perm)
			assert.True(t, got.IsZero())
		})
	}
}

func TestParseNoticeTime_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"too short", "25011208"},
		{"too long", "250112080000"},
		{"letters", "25O1120800"},
		{"month 13", "2513120800"},
		{"month 0", "2500120800"},
		{"day 32", "2501320800"},
		{"feb 30", "2502300800"},
		{"non leap feb 29", "2502291200"},
		{"hour 24", "2501122400"},
		{"minute 60", "2501120860"},
		{"signed", "25+1120800"},
		{"other word", "UFN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, perm, err := ParseNoticeTime(tt.in)
			require.ErrorIs(t, err, ErrInvalidDateTime)
			assert.False(t, perm)
		})
	}
}

func TestFormatNoticeTime(t *testing.T) {
	ts := time.Date(2025, time.January, 12, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, "2501120800", FormatNoticeTime(ts))

	tehran := time.FixedZone("IRST", 3*3600+1800)
	assert.Equal(t, "2501120800", FormatNoticeTime(ts.In(tehran)))
}
