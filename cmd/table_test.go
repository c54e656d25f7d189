package main

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/sells-group/boxoffice-cli/internal/enrich"
	"github.com/sells-group/boxoffice-cli/internal/model"
)

func TestRenderTable(t *testing.T) {
	t.Parallel()

	out := renderTable(
		[]string{"Name", "Count"},
		[][]string{{"alpha", "1"}, {"beta", "22"}},
		[]columnAlignment{alignLeft, alignRight},
	)

	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "22")
}

func TestRankedTable(t *testing.T) {
	t.Parallel()

	date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	out := rankedTable([]model.RankedMovie{
		{
			Title:        "Parasite",
			TotalRevenue: decimal.NewFromInt(850000),
			FirstDate:    date,
			LastDate:     date.AddDate(0, 1, 0),
		},
	})

	assert.Contains(t, out, "Parasite")
	assert.Contains(t, out, "$850000")
	assert.Contains(t, out, "2020-01-01")
	assert.Contains(t, out, "2020-02-01")
}

func TestStatsTable(t *testing.T) {
	t.Parallel()

	out := statsTable(enrich.Stats{Processed: 10, Matched: 7, Skipped: 2})

	assert.Contains(t, out, "processed")
	assert.Contains(t, out, "10")
	assert.Contains(t, out, "skipped (budget)")
}
