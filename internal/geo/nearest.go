package geo

import (
	"errors"

	"github.com/UnknownOlympus/periplus/internal/models"
)

// ErrNoCandidates is returned when a nearest-city lookup runs against an
// empty candidate set.
var ErrNoCandidates = errors.New("no candidate cities")

// Nearest returns the candidate city closest to query by great-circle
// distance, together with that distance. Candidates are scanned in order and
// a later candidate replaces the current winner only when it is strictly
// closer, so among equidistant candidates the first one wins and repeated
// calls with the same inputs always select the same city.
func Nearest(query models.Coordinates, cities []models.NamedCity) (models.NamedCity, float64, error) {
	if len(cities) == 0 {
		return models.NamedCity{}, 0, ErrNoCandidates
	}

	best := cities[0]
	bestDist := Distance(query, cities[0].Location)
	for _, city := range cities[1:] {
		if dist := Distance(query, city.Location); dist < bestDist {
			best = city
			bestDist = dist
		}
	}

	return best, bestDist, nil
}

// MatchAll computes the nearest city for every query in order: result i
// belongs to query i. An empty candidate set fails the whole batch.
func MatchAll(queries []models.Coordinates, cities []models.NamedCity) ([]models.MatchResult, error) {
	results := make([]models.MatchResult, 0, len(queries))
	for _, query := range queries {
		city, dist, err := Nearest(query, cities)
		if err != nil {
			return nil, err
		}

		results = append(results, models.MatchResult{Query: query, Closest: city, DistanceKm: dist})
	}

	return results, nil
}
