package warehouse

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

func newTestLoader(t *testing.T) *SQLiteLoader {
	t.Helper()

	loader, err := NewSQLite(filepath.Join(t.TempDir(), "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { loader.Close() })

	require.NoError(t, loader.Migrate(context.Background()))
	return loader
}

func sampleObservations() []model.RevenueObservation {
	date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.RevenueObservation{
		{
			ID:             "1",
			Date:           date,
			Title:          "Ad Astra",
			Revenue:        decimal.RequireFromString("1204921.50"),
			Theaters:       3450,
			HasTheaters:    true,
			Distributor:    "Fox",
			HasDistributor: true,
		},
		{
			ID:      "2",
			Date:    date.AddDate(0, 0, 1),
			Title:   "Ad Astra",
			Revenue: decimal.NewFromInt(98000),
		},
		{
			ID:      "3",
			Date:    date,
			Title:   "Parasite",
			Revenue: decimal.NewFromInt(850000),
		},
	}
}

func sampleMovies() []model.MovieMetadata {
	year := "2019"
	votes := 570372
	return []model.MovieMetadata{
		{
			Title:      "Parasite",
			Year:       &year,
			IMDBVotes:  &votes,
			EnrichedAt: time.Now().UTC(),
			ResultKind: model.ResultMatch,
		},
		{
			Title:      "Ad Astra",
			EnrichedAt: time.Now().UTC(),
			ResultKind: model.ResultMatch,
		},
	}
}

func TestSQLite_LoadAndValidate(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t)
	ctx := context.Background()

	n, err := loader.LoadRevenues(ctx, sampleObservations())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = loader.LoadMovies(ctx, sampleMovies())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	validation, err := loader.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), validation.Revenues.Rows)
	assert.Equal(t, int64(2), validation.Revenues.DistinctTitles)
	assert.Equal(t, int64(2), validation.Movies.Rows)
	assert.Equal(t, int64(2), validation.Movies.DistinctTitles)
}

func TestSQLite_FullReplaceSemantics(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t)
	ctx := context.Background()

	_, err := loader.LoadRevenues(ctx, sampleObservations())
	require.NoError(t, err)

	// Reloading replaces, never appends.
	_, err = loader.LoadRevenues(ctx, sampleObservations()[:1])
	require.NoError(t, err)

	validation, err := loader.Validate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), validation.Revenues.Rows)
}

func TestSQLite_NullableColumns(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t)
	ctx := context.Background()

	_, err := loader.LoadRevenues(ctx, sampleObservations())
	require.NoError(t, err)

	var theaters, distributor any
	row := loader.db.QueryRowContext(ctx,
		"SELECT theaters, distributor FROM stg_revenues_raw WHERE id = '2'")
	require.NoError(t, row.Scan(&theaters, &distributor))
	assert.Nil(t, theaters)
	assert.Nil(t, distributor)

	var revenue string
	row = loader.db.QueryRowContext(ctx,
		"SELECT revenue FROM stg_revenues_raw WHERE id = '1'")
	require.NoError(t, row.Scan(&revenue))
	assert.Equal(t, "1204921.5", revenue)
}

func TestSQLite_MovieOptionalFields(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t)
	ctx := context.Background()

	_, err := loader.LoadMovies(ctx, sampleMovies())
	require.NoError(t, err)

	var year any
	var kind string
	row := loader.db.QueryRowContext(ctx,
		"SELECT year, result_kind FROM stg_movies_enriched WHERE title = 'Ad Astra'")
	require.NoError(t, row.Scan(&year, &kind))
	assert.Nil(t, year)
	assert.Equal(t, "match", kind)
}

func TestSQLite_EmptyLoads(t *testing.T) {
	t.Parallel()

	loader := newTestLoader(t)
	ctx := context.Background()

	n, err := loader.LoadRevenues(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = loader.LoadMovies(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
