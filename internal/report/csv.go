// Package report writes pipeline results to CSV and GeoJSON files.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/UnknownOlympus/periplus/internal/models"
)

// WriteAnnotated writes reverse-geocoded coordinates with the header
// "latitude,longitude,country,city,address".
func WriteAnnotated(path string, rows []models.AnnotatedCoordinate) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, []string{"latitude", "longitude", "country", "city", "address"})
	for _, row := range rows {
		records = append(records, []string{
			formatFloat(row.Location.Latitude),
			formatFloat(row.Location.Longitude),
			row.Address.Country,
			row.Address.City,
			row.Address.Formatted,
		})
	}

	return writeCSV(path, records)
}

// WriteMatches writes nearest-city matches with the header
// "latitude,longitude,city". Rows keep the query order.
func WriteMatches(path string, results []models.MatchResult) error {
	records := make([][]string, 0, len(results)+1)
	records = append(records, []string{"latitude", "longitude", "city"})
	for _, result := range results {
		records = append(records, []string{
			formatFloat(result.Query.Latitude),
			formatFloat(result.Query.Longitude),
			result.Closest.Name,
		})
	}

	return writeCSV(path, records)
}

// WriteResolved writes geocoded cities with the header
// "name,latitude,longitude".
func WriteResolved(path string, cities []models.NamedCity) error {
	records := make([][]string, 0, len(cities)+1)
	records = append(records, []string{"name", "latitude", "longitude"})
	for _, city := range cities {
		records = append(records, []string{
			city.Name,
			formatFloat(city.Location.Latitude),
			formatFloat(city.Location.Longitude),
		})
	}

	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	if err := csv.NewWriter(file).WriteAll(records); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}

	return nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
