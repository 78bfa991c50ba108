package source

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadPlaceNames reads a place-name file. The first line is a header and is
// skipped; every following non-empty line is one geocoding query. Lines are
// trimmed but otherwise passed through whole, commas included.
func ReadPlaceNames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open places file: %w", err)
	}
	defer file.Close()

	var names []string

	scanner := bufio.NewScanner(file)
	first := true
	for scanner.Scan() {
		if first {
			first = false
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read places file: %w", err)
	}

	return names, nil
}
