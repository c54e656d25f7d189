package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/boxoffice-cli/internal/ingest"
	"github.com/sells-group/boxoffice-cli/internal/rank"
	"github.com/sells-group/boxoffice-cli/internal/warehouse"
)

var runTop int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: ingest, rank, enrich, load, validate",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		// Ingest once into memory; the observation set feeds both the
		// aggregator and the warehouse load.
		observations, quality, err := ingest.ReadAll(ctx, cfg.Ingest.CSVPath, ingestOptions())
		if err != nil {
			return err
		}
		zap.L().Info("parsed revenue csv",
			zap.Int("rows", len(observations)),
			zap.Int64("skipped", quality.Skipped.Load()),
			zap.Int64("zero_revenue", quality.ZeroRevenue.Load()),
			zap.Int64("empty_theaters", quality.EmptyTheaters.Load()),
			zap.Int64("missing_distributor", quality.MissingDistributor.Load()),
		)

		var agg rank.Aggregator
		for _, obs := range observations {
			agg.Add(obs)
		}

		top := runTop
		if top == 0 {
			top = cfg.Enrich.TopN
		}
		ranked := agg.Ranked(top)
		if len(ranked) > 0 {
			zap.L().Info("top movie",
				zap.String("title", ranked[0].Title),
				zap.String("total_revenue", ranked[0].TotalRevenue.String()),
			)
		}

		lookupCache, enricher, err := newEnricher()
		if err != nil {
			return err
		}
		defer lookupCache.Close()

		enriched, stats, err := enricher.EnrichAll(ctx, ranked)
		if err != nil {
			return err
		}

		loader, err := warehouse.New(ctx, cfg.Warehouse.Driver, cfg.Warehouse.DatabaseURL)
		if err != nil {
			return err
		}
		defer loader.Close()

		if err := loader.Migrate(ctx); err != nil {
			return err
		}

		// The two staging tables are independent full replaces.
		g, loadCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			_, err := loader.LoadRevenues(loadCtx, observations)
			return err
		})
		g.Go(func() error {
			_, err := loader.LoadMovies(loadCtx, enriched)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		validation, err := loader.Validate(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("warehouse validated",
			zap.Int64("revenue_rows", validation.Revenues.Rows),
			zap.Int64("revenue_titles", validation.Revenues.DistinctTitles),
			zap.Int64("movie_rows", validation.Movies.Rows),
			zap.Int64("movie_titles", validation.Movies.DistinctTitles),
		)

		fmt.Println(statsTable(stats))
		return nil
	},
}

func init() {
	runCmd.Flags().IntVar(&runTop, "top", 0, "number of titles to enrich (0 = configured enrich.top_n)")
	rootCmd.AddCommand(runCmd)
}
