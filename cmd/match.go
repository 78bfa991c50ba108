package main

import (
	"fmt"

	"github.com/UnknownOlympus/periplus/internal/report"
	"github.com/UnknownOlympus/periplus/internal/source"
	"github.com/spf13/cobra"
)

var (
	matchCoordsPath  string
	matchPlacesPath  string
	matchOutPath     string
	matchGeoJSONPath string
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match each coordinate to the nearest of the given cities",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		cache, err := initCache(ctx)
		if err != nil {
			return err
		}
		defer cache.Close()

		pipeline, reg, err := initPipeline(ctx, cache)
		if err != nil {
			return err
		}
		startMonitoring(ctx, reg, cache)

		coordinates, err := source.ReadCoordinates(matchCoordsPath)
		if err != nil {
			return err
		}
		names, err := source.ReadPlaceNames(matchPlacesPath)
		if err != nil {
			return err
		}

		cities, err := pipeline.ResolveCities(ctx, names)
		if err != nil {
			return err
		}

		matches, err := pipeline.MatchNearest(ctx, coordinates, cities)
		if err != nil {
			return fmt.Errorf("failed to match coordinates to cities: %w", err)
		}
		if err := report.WriteMatches(matchOutPath, matches); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Matches written", "path", matchOutPath, "rows", len(matches))

		if matchGeoJSONPath != "" {
			if err := report.WriteMatchesGeoJSON(matchGeoJSONPath, matches); err != nil {
				return err
			}
			logger.InfoContext(ctx, "GeoJSON matches written", "path", matchGeoJSONPath)
		}

		return nil
	},
}

func init() {
	matchCmd.Flags().StringVar(&matchCoordsPath, "coordinates", "coordinates.csv", "coordinates input CSV")
	matchCmd.Flags().StringVar(&matchPlacesPath, "places", "places.csv", "place names input file")
	matchCmd.Flags().StringVar(&matchOutPath, "out", "matches.csv", "nearest-city matches output CSV")
	matchCmd.Flags().StringVar(&matchGeoJSONPath, "geojson-out", "", "optional GeoJSON matches output")
	rootCmd.AddCommand(matchCmd)
}
