package warehouse

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the loader needs; pgxmock satisfies it
// for testing.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresLoader implements Loader using pgx with COPY-based bulk inserts.
type PostgresLoader struct {
	pool Pool
}

// NewPostgres creates a PostgresLoader with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresLoader, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresLoader{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests).
func NewPostgresFromPool(pool Pool) *PostgresLoader {
	return &PostgresLoader{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS stg_revenues_raw (
	id              TEXT PRIMARY KEY,
	date            DATE NOT NULL,
	title           TEXT NOT NULL,
	revenue         NUMERIC(18,2) NOT NULL,
	theaters        INTEGER,
	distributor     TEXT,
	load_id         UUID NOT NULL,
	loaded_at       TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS stg_movies_enriched (
	title        TEXT NOT NULL,
	year         TEXT,
	rated        TEXT,
	released     TEXT,
	runtime      TEXT,
	genre        TEXT,
	director     TEXT,
	actors       TEXT,
	plot         TEXT,
	language     TEXT,
	country      TEXT,
	awards       TEXT,
	poster_url   TEXT,
	metascore    INTEGER,
	imdb_rating  DOUBLE PRECISION,
	imdb_votes   INTEGER,
	imdb_id      TEXT,
	box_office   TEXT,
	enriched_at  TIMESTAMPTZ NOT NULL,
	result_kind  TEXT NOT NULL,
	load_id      UUID NOT NULL,
	loaded_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stg_revenues_title ON stg_revenues_raw(title);
CREATE INDEX IF NOT EXISTS idx_stg_movies_title ON stg_movies_enriched(title);
`

var revenueColumns = []string{
	"id", "date", "title", "revenue", "theaters", "distributor", "load_id", "loaded_at",
}

var movieColumns = []string{
	"title", "year", "rated", "released", "runtime", "genre", "director",
	"actors", "plot", "language", "country", "awards", "poster_url",
	"metascore", "imdb_rating", "imdb_votes", "imdb_id", "box_office",
	"enriched_at", "result_kind", "load_id", "loaded_at",
}

func (l *PostgresLoader) Migrate(ctx context.Context) error {
	_, err := l.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (l *PostgresLoader) Close() error {
	l.pool.Close()
	return nil
}

// LoadRevenues replaces stg_revenues_raw with the given observations using
// the COPY protocol inside a single transaction.
func (l *PostgresLoader) LoadRevenues(ctx context.Context, observations []model.RevenueObservation) (int64, error) {
	loadID := uuid.New().String()
	loadedAt := time.Now().UTC()

	rows := make([][]any, 0, len(observations))
	for _, obs := range observations {
		var theaters any
		if obs.HasTheaters {
			theaters = obs.Theaters
		}
		var distributor any
		if obs.HasDistributor {
			distributor = obs.Distributor
		}
		rows = append(rows, []any{
			obs.ID, obs.Date, obs.Title, obs.Revenue.String(),
			theaters, distributor, loadID, loadedAt,
		})
	}

	n, err := l.replace(ctx, "stg_revenues_raw", revenueColumns, rows)
	if err != nil {
		return 0, err
	}

	zap.L().Info("loaded revenues",
		zap.Int64("rows", n),
		zap.String("load_id", loadID),
	)
	return n, nil
}

// LoadMovies replaces stg_movies_enriched with the given metadata set.
func (l *PostgresLoader) LoadMovies(ctx context.Context, movies []model.MovieMetadata) (int64, error) {
	loadID := uuid.New().String()
	loadedAt := time.Now().UTC()

	rows := make([][]any, 0, len(movies))
	for _, m := range movies {
		rows = append(rows, []any{
			m.Title,
			nilable(m.Year), nilable(m.Rated), nilable(m.Released),
			nilable(m.Runtime), nilable(m.Genre), nilable(m.Director),
			nilable(m.Actors), nilable(m.Plot), nilable(m.Language),
			nilable(m.Country), nilable(m.Awards), nilable(m.PosterURL),
			nilable(m.Metascore), nilable(m.IMDBRating), nilable(m.IMDBVotes),
			nilable(m.IMDBID), nilable(m.BoxOffice),
			m.EnrichedAt, string(m.ResultKind), loadID, loadedAt,
		})
	}

	n, err := l.replace(ctx, "stg_movies_enriched", movieColumns, rows)
	if err != nil {
		return 0, err
	}

	zap.L().Info("loaded movies",
		zap.Int64("rows", n),
		zap.String("load_id", loadID),
	)
	return n, nil
}

// replace truncates the table and bulk-inserts rows via COPY, all inside one
// transaction so the swap is all-or-nothing.
func (l *PostgresLoader) replace(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: begin tx for %s", table)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "TRUNCATE "+pgx.Identifier{table}.Sanitize()); err != nil {
		return 0, eris.Wrapf(err, "postgres: truncate %s", table)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: COPY INTO %s", table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "postgres: commit %s", table)
	}

	return n, nil
}

// Validate reports row and distinct-title counts for both staging tables.
func (l *PostgresLoader) Validate(ctx context.Context) (*Validation, error) {
	var v Validation

	row := l.pool.QueryRow(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT title) FROM stg_revenues_raw")
	if err := row.Scan(&v.Revenues.Rows, &v.Revenues.DistinctTitles); err != nil {
		return nil, eris.Wrap(err, "postgres: validate revenues")
	}

	row = l.pool.QueryRow(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT title) FROM stg_movies_enriched")
	if err := row.Scan(&v.Movies.Rows, &v.Movies.DistinctTitles); err != nil {
		return nil, eris.Wrap(err, "postgres: validate movies")
	}

	return &v, nil
}
