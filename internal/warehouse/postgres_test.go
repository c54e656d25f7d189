package warehouse

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLoader(t *testing.T) (*PostgresLoader, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return NewPostgresFromPool(mock), mock
}

func TestPostgres_Migrate(t *testing.T) {
	t.Parallel()

	loader, mock := newMockLoader(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS stg_revenues_raw").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, loader.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadRevenues(t *testing.T) {
	t.Parallel()

	loader, mock := newMockLoader(t)

	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE "stg_revenues_raw"`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"stg_revenues_raw"}, revenueColumns).
		WillReturnResult(3)
	mock.ExpectCommit()

	n, err := loader.LoadRevenues(context.Background(), sampleObservations())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadMovies(t *testing.T) {
	t.Parallel()

	loader, mock := newMockLoader(t)

	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE "stg_movies_enriched"`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"stg_movies_enriched"}, movieColumns).
		WillReturnResult(2)
	mock.ExpectCommit()

	n, err := loader.LoadMovies(context.Background(), sampleMovies())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LoadRollsBackOnCopyFailure(t *testing.T) {
	t.Parallel()

	loader, mock := newMockLoader(t)

	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE "stg_revenues_raw"`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"stg_revenues_raw"}, revenueColumns).
		WillReturnError(errors.New("copy failed"))
	mock.ExpectRollback()

	_, err := loader.LoadRevenues(context.Background(), sampleObservations())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO stg_revenues_raw")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Validate(t *testing.T) {
	t.Parallel()

	loader, mock := newMockLoader(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(DISTINCT title\) FROM stg_revenues_raw`).
		WillReturnRows(pgxmock.NewRows([]string{"count", "distinct"}).AddRow(int64(3), int64(2)))
	mock.ExpectQuery(`SELECT COUNT\(\*\), COUNT\(DISTINCT title\) FROM stg_movies_enriched`).
		WillReturnRows(pgxmock.NewRows([]string{"count", "distinct"}).AddRow(int64(2), int64(2)))

	validation, err := loader.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), validation.Revenues.Rows)
	assert.Equal(t, int64(2), validation.Revenues.DistinctTitles)
	assert.Equal(t, int64(2), validation.Movies.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNew_UnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "oracle", "dsn")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
