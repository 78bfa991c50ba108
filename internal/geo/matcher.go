package geo

import (
	"fmt"

	"github.com/UnknownOlympus/periplus/internal/models"
)

// MatcherKind selects a nearest-city matcher implementation.
type MatcherKind string

const (
	// MatcherLinear scans every candidate on every lookup.
	MatcherLinear MatcherKind = "linear"
	// MatcherRTree answers lookups from an R-tree spatial index.
	MatcherRTree MatcherKind = "rtree"
)

// Matcher finds the nearest known city for a query coordinate.
type Matcher interface {
	Nearest(query models.Coordinates) (models.NamedCity, float64, error)
}

// linearMatcher is the reference implementation, a plain scan over the
// candidate slice.
type linearMatcher struct {
	cities []models.NamedCity
}

func (m *linearMatcher) Nearest(query models.Coordinates) (models.NamedCity, float64, error) {
	return Nearest(query, m.cities)
}

// NewMatcher builds a matcher of the requested kind over the candidate
// cities. An empty kind falls back to the linear matcher. Both kinds return
// the same city for the same inputs, tie-breaking included; the rtree kind
// trades build time for faster lookups on large candidate sets.
func NewMatcher(kind MatcherKind, cities []models.NamedCity) (Matcher, error) {
	switch kind {
	case MatcherLinear, "":
		return &linearMatcher{cities: cities}, nil
	case MatcherRTree:
		return NewIndex(cities), nil
	default:
		return nil, fmt.Errorf("unsupported matcher kind: %s", kind)
	}
}
