package report

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/UnknownOlympus/periplus/internal/models"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// WriteMatchesGeoJSON writes nearest-city matches as a GeoJSON
// FeatureCollection. Each query coordinate becomes one Point feature with
// "city" and "distance_km" properties.
func WriteMatchesGeoJSON(path string, results []models.MatchResult) error {
	features := make([]*geojson.Feature, 0, len(results))
	for _, result := range results {
		point := geom.NewPointFlat(geom.XY, []float64{result.Query.Longitude, result.Query.Latitude})
		features = append(features, &geojson.Feature{
			Geometry: point,
			Properties: map[string]any{
				"city":        result.Closest.Name,
				"distance_km": result.DistanceKm,
			},
		})
	}

	collection := geojson.FeatureCollection{Features: features}

	data, err := json.Marshal(&collection)
	if err != nil {
		return fmt.Errorf("failed to encode geojson report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write geojson report: %w", err)
	}

	return nil
}
