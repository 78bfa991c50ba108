package main

import (
	"github.com/UnknownOlympus/periplus/internal/report"
	"github.com/UnknownOlympus/periplus/internal/source"
	"github.com/spf13/cobra"
)

var (
	resolvePlacesPath string
	resolveOutPath    string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Geocode place names into coordinates",
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

		names, err := source.ReadPlaceNames(resolvePlacesPath)
		if err != nil {
			return err
		}

		cities, err := pipeline.ResolveCities(ctx, names)
		if err != nil {
			return err
		}
		if err := report.WriteResolved(resolveOutPath, cities); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Resolved cities written",
			"path", resolveOutPath, "rows", len(cities), "skipped", len(names)-len(cities))

		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolvePlacesPath, "places", "places.csv", "place names input file")
	resolveCmd.Flags().StringVar(&resolveOutPath, "out", "cities.csv", "resolved cities output CSV")
	rootCmd.AddCommand(resolveCmd)
}
