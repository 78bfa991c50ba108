package main

import (
	"github.com/UnknownOlympus/periplus/internal/report"
	"github.com/UnknownOlympus/periplus/internal/source"
	"github.com/spf13/cobra"
)

var (
	annotateCoordsPath string
	annotateOutPath    string
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Reverse-geocode coordinates into country, city and address",
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

		coordinates, err := source.ReadCoordinates(annotateCoordsPath)
		if err != nil {
			return err
		}

		annotated, err := pipeline.AnnotateCoordinates(ctx, coordinates)
		if err != nil {
			return err
		}
		if err := report.WriteAnnotated(annotateOutPath, annotated); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Annotated coordinates written",
			"path", annotateOutPath, "rows", len(annotated), "skipped", len(coordinates)-len(annotated))

		return nil
	},
}

func init() {
	annotateCmd.Flags().StringVar(&annotateCoordsPath, "coordinates", "coordinates.csv", "coordinates input CSV")
	annotateCmd.Flags().StringVar(&annotateOutPath, "out", "annotated.csv", "annotated coordinates output CSV")
	rootCmd.AddCommand(annotateCmd)
}
