package geo

import (
	"math"
	"sort"

	"github.com/UnknownOlympus/periplus/internal/models"
	"github.com/dhconnelly/rtreego"
)

const (
	indexDimensions  = 3
	indexMinChildren = 25
	indexMaxChildren = 50
	indexTolerance   = 1e-9
	indexNeighbors   = 8
)

// indexItem wraps one candidate for R-tree storage. The payload is the
// candidate's position in the original slice, which the tie-break needs.
type indexItem struct {
	pos  int
	rect *rtreego.Rect
}

func (it *indexItem) Bounds() *rtreego.Rect { return it.rect }

// Index answers nearest-city lookups from an R-tree instead of a full scan.
//
// Candidates are stored as points on the unit sphere. Chord distance between
// two such points grows strictly with the great-circle distance between
// them, so the k tree entries nearest by chord always contain every city
// tied for the smallest great-circle distance. Retrieved candidates are
// re-scored with Distance and scanned in candidate order with the same
// strict less-than rule as Nearest, which keeps Index and the linear scan in
// agreement on every lookup, including which of several equidistant cities
// wins.
type Index struct {
	tree   *rtreego.Rtree
	cities []models.NamedCity
}

// NewIndex builds an R-tree over the candidate cities. The slice is captured
// as-is; candidate order defines tie-breaking.
func NewIndex(cities []models.NamedCity) *Index {
	tree := rtreego.NewTree(indexDimensions, indexMinChildren, indexMaxChildren)
	for i, city := range cities {
		point := unitSpherePoint(city.Location)
		tree.Insert(&indexItem{pos: i, rect: point.ToRect(indexTolerance)})
	}

	return &Index{tree: tree, cities: cities}
}

// Nearest returns the same city, distance and error as Nearest over the full
// candidate slice.
func (ix *Index) Nearest(query models.Coordinates) (models.NamedCity, float64, error) {
	if len(ix.cities) == 0 {
		return models.NamedCity{}, 0, ErrNoCandidates
	}

	queryPoint := unitSpherePoint(query)
	for k := indexNeighbors; ; k *= 2 {
		if k > len(ix.cities) {
			k = len(ix.cities)
		}

		positions := make([]int, 0, k)
		for _, neighbor := range ix.tree.NearestNeighbors(k, queryPoint) {
			if item, ok := neighbor.(*indexItem); ok {
				positions = append(positions, item.pos)
			}
		}
		sort.Ints(positions)

		best := -1
		bestDist := 0.0
		farther := false
		for _, pos := range positions {
			dist := Distance(query, ix.cities[pos].Location)
			switch {
			case best < 0:
				best, bestDist = pos, dist
			case dist < bestDist:
				best, bestDist = pos, dist
				farther = true
			case dist > bestDist:
				farther = true
			}
		}

		// When every retrieved candidate ties for the minimum, an equally
		// distant city with a smaller position may still sit outside the
		// retrieved set. Widen until a strictly farther candidate shows up
		// or the whole candidate set has been scanned.
		if farther || k == len(ix.cities) {
			return ix.cities[best], bestDist, nil
		}
	}
}

// unitSpherePoint projects latitude and longitude onto the unit sphere.
func unitSpherePoint(c models.Coordinates) rtreego.Point {
	lat := radians(c.Latitude)
	lon := radians(c.Longitude)

	return rtreego.Point{
		math.Cos(lat) * math.Cos(lon),
		math.Cos(lat) * math.Sin(lon),
		math.Sin(lat),
	}
}
