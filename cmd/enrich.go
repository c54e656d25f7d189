package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/boxoffice-cli/internal/enrich"
)

var (
	enrichTop    int
	enrichOutput string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich top-ranked movies with OMDb metadata",
	Long: `Ranks movies by cumulative revenue, then resolves metadata for the top N
through the durable lookup cache and the OMDb API. Cached outcomes (matches,
not-found, and errors alike) never trigger another network call.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		top := enrichTop
		if top == 0 {
			top = cfg.Enrich.TopN
		}

		ranked, _, err := aggregateFile(ctx, top)
		if err != nil {
			return err
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

		if enrichOutput != "" {
			data, err := json.MarshalIndent(enriched, "", "  ")
			if err != nil {
				return eris.Wrap(err, "enrich: marshal output")
			}
			if err := os.WriteFile(enrichOutput, data, 0o644); err != nil {
				return eris.Wrapf(err, "enrich: write %s", enrichOutput)
			}
		}

		fmt.Println(statsTable(stats))
		return nil
	},
}

func statsTable(stats enrich.Stats) string {
	rows := [][]string{
		{"processed", fmt.Sprintf("%d", stats.Processed)},
		{"matched", fmt.Sprintf("%d", stats.Matched)},
		{"not found", fmt.Sprintf("%d", stats.NotFound)},
		{"errored", fmt.Sprintf("%d", stats.Errored)},
		{"skipped (budget)", fmt.Sprintf("%d", stats.Skipped)},
		{"cache hits", fmt.Sprintf("%d", stats.CacheHits)},
		{"total cached", fmt.Sprintf("%d", stats.TotalCached)},
		{"api calls made", fmt.Sprintf("%d", stats.CallsMade)},
		{"api calls remaining", fmt.Sprintf("%d", stats.CallsRemaining)},
	}
	return renderTable(
		[]string{"Metric", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	)
}

func init() {
	enrichCmd.Flags().IntVar(&enrichTop, "top", 0, "number of titles to enrich (0 = configured enrich.top_n)")
	enrichCmd.Flags().StringVar(&enrichOutput, "output", "", "write enriched metadata JSON to this file")
	rootCmd.AddCommand(enrichCmd)
}
