package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	// CircleVertices is the number of distinct vertices in a circle ring.
	// The ring carries one more point to close it.
	CircleVertices = 32

	kmPerNauticalMile = 1.852
	kmPerDegree       = 111.0
)

// CirclePolygon approximates a circle of radiusNM nautical miles around the
// center with a closed ring of CircleVertices+1 (lon, lat) points. Longitude
// extent is widened by 1/cos(lat) so the shape stays round at high latitude.
// A non-positive radius or a polar center is ErrInvalidGeometry.
func CirclePolygon(centerLat, centerLon, radiusNM float64) (orb.Ring, error) {
	if !(radiusNM > 0) || math.IsInf(radiusNM, 0) {
		return nil, fmt.Errorf("%w: radius %v", ErrInvalidGeometry, radiusNM)
	}
	if math.Abs(centerLat) >= 90 {
		return nil, fmt.Errorf("%w: latitude %v", ErrInvalidGeometry, centerLat)
	}

	km := radiusNM * kmPerNauticalMile
	dLat := km / kmPerDegree
	dLon := km / (kmPerDegree * math.Cos(centerLat*math.Pi/180))

	ring := make(orb.Ring, 0, CircleVertices+1)
	for i := 0; i < CircleVertices; i++ {
		angle := 2 * math.Pi * float64(i) / CircleVertices
		ring = append(ring, orb.Point{
			centerLon + dLon*math.Cos(angle),
			centerLat + dLat*math.Sin(angle),
		})
	}
	return append(ring, ring[0]), nil
}
