package main

import (
	"fmt"

	"github.com/UnknownOlympus/periplus/internal/report"
	"github.com/UnknownOlympus/periplus/internal/source"
	"github.com/spf13/cobra"
)

var (
	runCoordsPath    string
	runPlacesPath    string
	runAnnotatedPath string
	runMatchesPath   string
	runGeoJSONPath   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: annotate coordinates and match them to cities",
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

		coordinates, err := source.ReadCoordinates(runCoordsPath)
		if err != nil {
			return err
		}
		names, err := source.ReadPlaceNames(runPlacesPath)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Inputs loaded", "coordinates", len(coordinates), "places", len(names))

		cities, err := pipeline.ResolveCities(ctx, names)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "Places resolved", "cities", len(cities), "skipped", len(names)-len(cities))

		annotated, err := pipeline.AnnotateCoordinates(ctx, coordinates)
		if err != nil {
			return err
		}
		if err := report.WriteAnnotated(runAnnotatedPath, annotated); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Annotated coordinates written", "path", runAnnotatedPath, "rows", len(annotated))

		matches, err := pipeline.MatchNearest(ctx, coordinates, cities)
		if err != nil {
			return fmt.Errorf("failed to match coordinates to cities: %w", err)
		}
		if err := report.WriteMatches(runMatchesPath, matches); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Matches written", "path", runMatchesPath, "rows", len(matches))

		if runGeoJSONPath != "" {
			if err := report.WriteMatchesGeoJSON(runGeoJSONPath, matches); err != nil {
				return err
			}
			logger.InfoContext(ctx, "GeoJSON matches written", "path", runGeoJSONPath)
		}

		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runCoordsPath, "coordinates", "coordinates.csv", "coordinates input CSV")
	runCmd.Flags().StringVar(&runPlacesPath, "places", "places.csv", "place names input file")
	runCmd.Flags().StringVar(&runAnnotatedPath, "annotated-out", "annotated.csv", "annotated coordinates output CSV")
	runCmd.Flags().StringVar(&runMatchesPath, "matches-out", "matches.csv", "nearest-city matches output CSV")
	runCmd.Flags().StringVar(&runGeoJSONPath, "geojson-out", "", "optional GeoJSON matches output")
	rootCmd.AddCommand(runCmd)
}
