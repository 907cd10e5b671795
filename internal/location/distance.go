package location

import (
	"math"

	"github.com/randytsao24/ctaglass/internal/models"
)

const earthRadiusMeters = 6371000

// Haversine calculates the great-circle distance in meters between two points
func Haversine(a, b models.Coordinate) float64 {
	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)

	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// MetersToMiles converts meters to miles
func MetersToMiles(meters float64) float64 {
	return meters / 1609.344
}
