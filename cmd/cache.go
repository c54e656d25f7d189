package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/boxoffice-cli/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the metadata lookup cache",
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show cached lookup outcome counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return err
		}
		defer c.Close()

		stats := c.Stats()
		rows := [][]string{
			{"total entries", fmt.Sprintf("%d", stats.Total)},
			{"matched", fmt.Sprintf("%d", stats.Matched)},
			{"not found", fmt.Sprintf("%d", stats.NotFound)},
			{"errored", fmt.Sprintf("%d", stats.Errored)},
		}
		fmt.Println(renderTable(
			[]string{"Metric", "Value"},
			rows,
			[]columnAlignment{alignLeft, alignRight},
		))
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatusCmd)
	rootCmd.AddCommand(cacheCmd)
}
