package domain

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// bareICAOPointRe finds an ICAO point embedded in free text, e.g. the
// "3541N05124E" in "25NM RADIUS CENTERED ON 3541N05124E".
var bareICAOPointRe = regexp.MustCompile(`\d{4}[NS]\d{5}[EW]`)

// ParseICAOPoint decodes ICAO point notation DDMM[NS]DDDMM[EW] into decimal
// degrees. Two layouts are accepted: the compact 11-character form
// ("3541N05124E") and the split form with whitespace between the latitude
// and longitude halves ("3541N 05124E"). Anything else is ErrInvalidCoordinate.
func ParseICAOPoint(s string) (lat, lon float64, err error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var latPart, lonPart string
	switch parts := strings.Fields(s); {
	case len(parts) == 1 && len(s) == 11:
		latPart, lonPart = s[:5], s[5:]
	case len(parts) == 2 && len(parts[0]) == 5 && len(parts[1]) == 6:
		latPart, lonPart = parts[0], parts[1]
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidCoordinate, s)
	}

	lat, err = parseICAOHalf(latPart, 2, 90, 'N', 'S')
	if err != nil {
		return 0, 0, fmt.Errorf("%w: latitude %q", ErrInvalidCoordinate, latPart)
	}
	lon, err = parseICAOHalf(lonPart, 3, 180, 'E', 'W')
	if err != nil {
		return 0, 0, fmt.Errorf("%w: longitude %q", ErrInvalidCoordinate, lonPart)
	}
	return lat, lon, nil
}

// parseICAOHalf decodes one degrees+minutes+hemisphere half of a point.
func parseICAOHalf(part string, degDigits int, maxDeg int, pos, neg byte) (float64, error) {
	if len(part) != degDigits+3 {
		return 0, ErrInvalidCoordinate
	}
	hemi := part[len(part)-1]
	if hemi != pos && hemi != neg {
		return 0, ErrInvalidCoordinate
	}
	digits := part[:len(part)-1]
	if !isDigits(digits) {
		return 0, ErrInvalidCoordinate
	}

	deg, _ := strconv.Atoi(digits[:degDigits])
	mins, _ := strconv.Atoi(digits[degDigits:])
	if mins >= 60 || deg > maxDeg || (deg == maxDeg && mins > 0) {
		return 0, ErrInvalidCoordinate
	}

	v := float64(deg) + float64(mins)/60.0
	if hemi == neg {
		v = -v
	}
	return v, nil
}

// FindICAOPoint scans free text for the first bare ICAO point that decodes.
func FindICAOPoint(text string) (lat, lon float64, ok bool) {
	for _, m := range bareICAOPointRe.FindAllString(text, -1) {
		lat, lon, err := ParseICAOPoint(m)
		if err == nil {
			return lat, lon, true
		}
	}
	return 0, 0, false
}

// FormatICAOPoint encodes decimal degrees as a compact ICAO point, rounded to
// the nearest minute.
func FormatICAOPoint(lat, lon float64) string {
	latDeg, latMin := toDegreesMinutes(lat)
	lonDeg, lonMin := toDegreesMinutes(lon)

	latHemi, lonHemi := 'N', 'E'
	if lat < 0 {
		latHemi = 'S'
	}
	if lon < 0 {
		lonHemi = 'W'
	}
	return fmt.Sprintf("%02d%02d%c%03d%02d%c", latDeg, latMin, latHemi, lonDeg, lonMin, lonHemi)
}

func toDegreesMinutes(v float64) (deg, mins int) {
	total := int(math.Round(math.Abs(v) * 60))
	return total / 60, total % 60
}
