// Package geo holds small coordinate helpers shared by the resolver and
// the provider adapters.
package geo

import (
	"fmt"
	"math"

	"guest_concierge/internal/domain"
)

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points,
// rounded to two decimals (haversine).
func DistanceKm(a, b domain.Coords) float64 {
	la1 := a.Lat * math.Pi / 180
	la2 := b.Lat * math.Pi / 180
	dla := (b.Lat - a.Lat) * math.Pi / 180
	dlo := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dla/2)*math.Sin(dla/2) +
		math.Cos(la1)*math.Cos(la2)*math.Sin(dlo/2)*math.Sin(dlo/2)
	d := 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return math.Round(d*100) / 100
}

// LocationKey fingerprints coordinates at 3 decimal degrees (~110 m).
// Nearby resolutions for the same hotel collapse onto one cache
// partition; the precision loss is deliberate.
func LocationKey(c domain.Coords) string {
	return fmt.Sprintf("%.3f,%.3f", c.Lat, c.Lon)
}
