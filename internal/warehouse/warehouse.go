// Package warehouse bulk-loads ranked revenue observations and enriched movie
// metadata into the analytical staging tables, with full-replace semantics.
package warehouse

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// TableCount reports the post-load state of one staging table.
type TableCount struct {
	Rows           int64 `json:"rows"`
	DistinctTitles int64 `json:"distinct_titles"`
}

// Validation holds per-table counts gathered after a load.
type Validation struct {
	Revenues TableCount `json:"revenues"`
	Movies   TableCount `json:"movies"`
}

// Loader defines the warehouse interface. Each Load* call replaces the whole
// target table inside one transaction: either every row lands or none do.
type Loader interface {
	Migrate(ctx context.Context) error
	LoadRevenues(ctx context.Context, observations []model.RevenueObservation) (int64, error)
	LoadMovies(ctx context.Context, movies []model.MovieMetadata) (int64, error)
	Validate(ctx context.Context) (*Validation, error)
	Close() error
}

// New creates a Loader for the configured driver.
func New(ctx context.Context, driver, dsn string) (Loader, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn)
	default:
		return nil, eris.Errorf("warehouse: unknown driver %q", driver)
	}
}
