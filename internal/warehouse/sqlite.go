package warehouse

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// SQLiteLoader implements Loader using modernc.org/sqlite.
type SQLiteLoader struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteLoader, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteLoader{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS stg_revenues_raw (
	id              TEXT PRIMARY KEY,
	date            TEXT NOT NULL,
	title           TEXT NOT NULL,
	revenue         TEXT NOT NULL,
	theaters        INTEGER,
	distributor     TEXT,
	load_id         TEXT NOT NULL,
	loaded_at       DATETIME NOT NULL
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
	imdb_rating  REAL,
	imdb_votes   INTEGER,
	imdb_id      TEXT,
	box_office   TEXT,
	enriched_at  DATETIME NOT NULL,
	result_kind  TEXT NOT NULL,
	load_id      TEXT NOT NULL,
	loaded_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_stg_revenues_title ON stg_revenues_raw(title);
CREATE INDEX IF NOT EXISTS idx_stg_movies_title ON stg_movies_enriched(title);
`

func (l *SQLiteLoader) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (l *SQLiteLoader) Close() error {
	return l.db.Close()
}

// LoadRevenues replaces stg_revenues_raw with the given observations.
func (l *SQLiteLoader) LoadRevenues(ctx context.Context, observations []model.RevenueObservation) (int64, error) {
	loadID := uuid.New().String()
	loadedAt := time.Now().UTC()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin revenues tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM stg_revenues_raw"); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear stg_revenues_raw")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stg_revenues_raw (id, date, title, revenue, theaters, distributor, load_id, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare revenues insert")
	}
	defer stmt.Close()

	for _, obs := range observations {
		var theaters any
		if obs.HasTheaters {
			theaters = obs.Theaters
		}
		var distributor any
		if obs.HasDistributor {
			distributor = obs.Distributor
		}

		if _, err := stmt.ExecContext(ctx,
			obs.ID,
			obs.Date.Format("2006-01-02"),
			obs.Title,
			obs.Revenue.String(),
			theaters,
			distributor,
			loadID,
			loadedAt,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert revenue row %s", obs.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit revenues")
	}

	zap.L().Info("loaded revenues",
		zap.Int("rows", len(observations)),
		zap.String("load_id", loadID),
	)
	return int64(len(observations)), nil
}

// LoadMovies replaces stg_movies_enriched with the given metadata set.
func (l *SQLiteLoader) LoadMovies(ctx context.Context, movies []model.MovieMetadata) (int64, error) {
	loadID := uuid.New().String()
	loadedAt := time.Now().UTC()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin movies tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM stg_movies_enriched"); err != nil {
		return 0, eris.Wrap(err, "sqlite: clear stg_movies_enriched")
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stg_movies_enriched (
			title, year, rated, released, runtime, genre, director, actors,
			plot, language, country, awards, poster_url, metascore,
			imdb_rating, imdb_votes, imdb_id, box_office, enriched_at,
			result_kind, load_id, loaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare movies insert")
	}
	defer stmt.Close()

	for _, m := range movies {
		if _, err := stmt.ExecContext(ctx,
			m.Title,
			nilable(m.Year),
			nilable(m.Rated),
			nilable(m.Released),
			nilable(m.Runtime),
			nilable(m.Genre),
			nilable(m.Director),
			nilable(m.Actors),
			nilable(m.Plot),
			nilable(m.Language),
			nilable(m.Country),
			nilable(m.Awards),
			nilable(m.PosterURL),
			nilable(m.Metascore),
			nilable(m.IMDBRating),
			nilable(m.IMDBVotes),
			nilable(m.IMDBID),
			nilable(m.BoxOffice),
			m.EnrichedAt,
			string(m.ResultKind),
			loadID,
			loadedAt,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert movie %s", m.Title)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit movies")
	}

	zap.L().Info("loaded movies",
		zap.Int("rows", len(movies)),
		zap.String("load_id", loadID),
	)
	return int64(len(movies)), nil
}

// Validate reports row and distinct-title counts for both staging tables.
func (l *SQLiteLoader) Validate(ctx context.Context) (*Validation, error) {
	var v Validation

	row := l.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT title) FROM stg_revenues_raw")
	if err := row.Scan(&v.Revenues.Rows, &v.Revenues.DistinctTitles); err != nil {
		return nil, eris.Wrap(err, "sqlite: validate revenues")
	}

	row = l.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT title) FROM stg_movies_enriched")
	if err := row.Scan(&v.Movies.Rows, &v.Movies.DistinctTitles); err != nil {
		return nil, eris.Wrap(err, "sqlite: validate movies")
	}

	return &v, nil
}

// nilable converts a pointer-optional field to a driver value, mapping nil
// pointers to SQL NULL.
func nilable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
