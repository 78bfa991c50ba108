// Package geo implements the geodesic core of the pipeline: great-circle
// distance and nearest-city matching over a set of named candidates.
package geo

import (
	"math"

	"github.com/UnknownOlympus/periplus/internal/models"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Distance returns the great-circle distance between two points in
// kilometers, computed with the haversine formula on a sphere of radius
// EarthRadiusKm. It is symmetric and returns exactly zero for numerically
// identical points. Coordinates are taken as-is: out-of-range or NaN values
// propagate through the math instead of failing.
func Distance(a, b models.Coordinates) float64 {
	latA := radians(a.Latitude)
	latB := radians(b.Latitude)
	dLat := radians(b.Latitude - a.Latitude)
	dLon := radians(b.Longitude - a.Longitude)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	h := sinLat*sinLat + math.Cos(latA)*math.Cos(latB)*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
