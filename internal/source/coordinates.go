// Package source reads the coordinate and place-name input files.
package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/periplus/internal/models"
)

// ErrMissingValueColumn is returned when the coordinates file header does not
// name a "value" column.
var ErrMissingValueColumn = errors.New("coordinates file has no value column")

// ErrDanglingLatitude is returned when the coordinates file ends with an
// unpaired latitude row.
var ErrDanglingLatitude = errors.New("coordinates file ends with an unpaired latitude row")

// ReadCoordinates parses a coordinates CSV file. The header row must name a
// "value" column; every data row carries one value in that column, and rows
// are consumed in pairs, latitude first, longitude second. Other columns are
// ignored.
func ReadCoordinates(path string) ([]models.Coordinates, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open coordinates file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read coordinates file: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrMissingValueColumn
	}

	valueIdx := -1
	for i, name := range records[0] {
		if strings.ToLower(strings.TrimSpace(name)) == "value" {
			valueIdx = i
			break
		}
	}
	if valueIdx == -1 {
		return nil, ErrMissingValueColumn
	}

	rows := records[1:]
	if len(rows)%2 != 0 {
		return nil, ErrDanglingLatitude
	}

	coordinates := make([]models.Coordinates, 0, len(rows)/2)
	for i := 0; i < len(rows); i += 2 {
		latitude, err := parseValue(rows[i], valueIdx)
		if err != nil {
			return nil, fmt.Errorf("failed to parse latitude on line %d: %w", i+2, err)
		}
		longitude, err := parseValue(rows[i+1], valueIdx)
		if err != nil {
			return nil, fmt.Errorf("failed to parse longitude on line %d: %w", i+3, err)
		}
		coordinates = append(coordinates, models.Coordinates{Latitude: latitude, Longitude: longitude})
	}

	return coordinates, nil
}

func parseValue(row []string, idx int) (float64, error) {
	if idx >= len(row) {
		return 0, fmt.Errorf("row has %d fields, value column is %d", len(row), idx+1)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", row[idx], err)
	}

	return value, nil
}
