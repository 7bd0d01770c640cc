package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PermanentToken replaces the end date of a notice with no planned end.
const PermanentToken = "PERM"

// estimatedSuffix marks an estimated end time, e.g. "2501140000EST".
const estimatedSuffix = "EST"

// ParseNoticeTime decodes a YYMMDDHHMM field into a UTC timestamp with the
// century fixed at 2000. The PERM token (any case) decodes to permanent=true
// and a zero time. Any other shape is ErrInvalidDateTime.
func ParseNoticeTime(s string) (t time.Time, permanent bool, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == PermanentToken {
		return time.Time{}, true, nil
	}

	s = strings.TrimSuffix(s, estimatedSuffix)
	if len(s) != 10 || !isDigits(s) {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDateTime, s)
	}

	var f [5]int
	for i := range f {
		f[i], _ = strconv.Atoi(s[i*2 : i*2+2])
	}

	year, month, day, hour, minute := 2000+f[0], time.Month(f[1]), f[2], f[3], f[4]
	t = time.Date(year, month, day, hour, minute, 0, 0, time.UTC)

	// time.Date normalizes overflow (e.g. month 13); reject anything it moved.
	if t.Year() != year || t.Month() != month || t.Day() != day || t.Hour() != hour || t.Minute() != minute {
		return time.Time{}, false, fmt.Errorf("%w: %q out of range", ErrInvalidDateTime, s)
	}
	return t, false, nil
}

// FormatNoticeTime encodes t as a YYMMDDHHMM field in UTC.
func FormatNoticeTime(t time.Time) string {
	return t.UTC().Format("0601021504")
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
