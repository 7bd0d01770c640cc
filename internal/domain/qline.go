package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultRadiusNM applies when a point is known but no radius digits are.
const DefaultRadiusNM = 5.0

// Qualifier line positions, zero-based.
const (
	qFIR = iota
	qCodes
	qTraffic
	qPurpose
	qScope
	qLower
	qUpper
	qArea
)

// QLine is the decoded qualifier line. Only FIR, Codes, Limits and the area
// feed the restriction record; Traffic, Purpose and Scope are kept for
// reference.
type QLine struct {
	FIR     string
	Codes   string
	Traffic string
	Purpose string
	Scope   string
	Limits  VerticalLimits

	HasCenter bool
	CenterLat float64
	CenterLon float64
	RadiusNM  float64
}

// ParseQLine decodes a qualifier line such as
// "Q) OIIX/QRTCA/IV/NBO/W/000/120/3541N05124E025". The leading "Q)" is
// optional. Missing positions keep their defaults. A present but malformed
// area position returns ErrInvalidCoordinate alongside the otherwise decoded
// line, so callers can still use FIR, codes and limits.
func ParseQLine(line string) (QLine, error) {
	q := QLine{Limits: VerticalLimits{Lower: DefaultLowerLimit, Upper: DefaultUpperLimit}}

	line = strings.TrimSpace(line)
	line = strings.TrimSpace(strings.TrimPrefix(line, "Q)"))
	if line == "" {
		return q, nil
	}

	parts := strings.Split(line, "/")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	at := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}

	q.FIR = strings.ToUpper(at(qFIR))
	q.Codes = strings.ToUpper(at(qCodes))
	q.Traffic = at(qTraffic)
	q.Purpose = at(qPurpose)
	q.Scope = at(qScope)
	if v, ok := parseFlightLevel(at(qLower)); ok {
		q.Limits.Lower = v
	}
	if v, ok := parseFlightLevel(at(qUpper)); ok {
		q.Limits.Upper = v
	}

	area := strings.ToUpper(at(qArea))
	if area == "" {
		return q, nil
	}
	if len(area) < 11 {
		return q, fmt.Errorf("%w: area %q too short", ErrInvalidCoordinate, area)
	}
	lat, lon, err := ParseICAOPoint(area[:11])
	if err != nil {
		return q, err
	}

	q.HasCenter = true
	q.CenterLat = lat
	q.CenterLon = lon
	q.RadiusNM = parseRadius(area[11:])
	return q, nil
}

// parseFlightLevel accepts an integer flight level within 0–999.
func parseFlightLevel(s string) (int, bool) {
	if len(s) > 3 || !isDigits(s) {
		return 0, false
	}
	v, _ := strconv.Atoi(s)
	return v, true
}

// parseRadius reads up to three leading digits as nautical miles, falling
// back to DefaultRadiusNM when none are present.
func parseRadius(s string) float64 {
	n := 0
	for n < len(s) && n < 3 && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	if n == 0 {
		return DefaultRadiusNM
	}
	v, _ := strconv.Atoi(s[:n])
	return float64(v)
}
