package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

var (
	rankTop  int
	rankJSON bool
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank movies by cumulative revenue",
	Long:  "Streams the revenue CSV once, aggregates per-title totals and date ranges, and prints the top titles.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ranked, quality, err := aggregateFile(cmd.Context(), rankTop)
		if err != nil {
			return err
		}

		if rankJSON {
			return json.NewEncoder(os.Stdout).Encode(ranked)
		}

		fmt.Println(rankedTable(ranked))
		fmt.Printf("rows=%d skipped=%d zero_revenue=%d\n",
			quality.Rows.Load(), quality.Skipped.Load(), quality.ZeroRevenue.Load())
		return nil
	},
}

func rankedTable(ranked []model.RankedMovie) string {
	rows := make([][]string, 0, len(ranked))
	for i, m := range ranked {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			m.Title,
			"$" + m.TotalRevenue.StringFixed(0),
			m.FirstDate.Format("2006-01-02"),
			m.LastDate.Format("2006-01-02"),
		})
	}
	return renderTable(
		[]string{"#", "Title", "Total Revenue", "First Seen", "Last Seen"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	)
}

func init() {
	rankCmd.Flags().IntVar(&rankTop, "top", 25, "number of titles to display (0 = all)")
	rankCmd.Flags().BoolVar(&rankJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(rankCmd)
}
