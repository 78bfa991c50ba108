package models

// MatchResult links a query coordinate to the nearest known city.
type MatchResult struct {
	Query      Coordinates // Query is the coordinate the match was computed for.
	Closest    NamedCity   // Closest is the winning candidate city.
	DistanceKm float64     // DistanceKm is the great-circle distance between them.
}
