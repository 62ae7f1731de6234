// Package geo orders hospitals by how far they are from the patient, using
// Google's Distance Matrix when available and straight-line estimates
// otherwise.
package geo

import (
	"math"

	"github.com/wolfman30/kims-booking/internal/catalog"
)

const earthRadiusKm = 6371

// Haversine returns the great-circle distance in kilometres, rounded to two
// decimals.
func Haversine(a, b catalog.Coordinates) float64 {
	dLat := (b.Lat - a.Lat) * (math.Pi / 180)
	dLng := (b.Lng - a.Lng) * (math.Pi / 180)
	lat1 := a.Lat * (math.Pi / 180)
	lat2 := b.Lat * (math.Pi / 180)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return math.Round(earthRadiusKm*c*100) / 100
}

// ValidCoordinates reports whether c is a plausible WGS84 position.
func ValidCoordinates(c catalog.Coordinates) bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180 &&
		!math.IsNaN(c.Lat) && !math.IsNaN(c.Lng)
}
