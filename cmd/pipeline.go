package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/cache"
	"github.com/sells-group/boxoffice-cli/internal/enrich"
	"github.com/sells-group/boxoffice-cli/internal/ingest"
	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/internal/rank"
	"github.com/sells-group/boxoffice-cli/internal/resilience"
	"github.com/sells-group/boxoffice-cli/pkg/omdb"
)

func ingestOptions() ingest.Options {
	return ingest.Options{
		Encoding:        cfg.Ingest.Encoding,
		SkipZeroRevenue: cfg.Ingest.SkipZeroRevenue,
	}
}

// aggregateFile streams the configured CSV through the aggregator and
// returns the ranked list without keeping observations in memory.
func aggregateFile(ctx context.Context, topN int) ([]model.RankedMovie, *ingest.Quality, error) {
	obsCh, errCh, quality, err := ingest.StreamFile(ctx, cfg.Ingest.CSVPath, ingestOptions())
	if err != nil {
		return nil, nil, err
	}

	var agg rank.Aggregator
	agg.AddAll(obsCh)
	if err := <-errCh; err != nil {
		return nil, quality, err
	}

	ranked := agg.Ranked(topN)
	zap.L().Info("aggregation complete",
		zap.Int64("observations", quality.Rows.Load()),
		zap.Int("distinct_titles", agg.Distinct()),
		zap.Int("ranked", len(ranked)),
	)
	return ranked, quality, nil
}

// newEnricher wires the lookup cache and OMDb client into an Enricher. The
// returned cache must be closed by the caller.
func newEnricher() (*cache.FileCache, *enrich.Enricher, error) {
	if cfg.OMDB.Key == "" {
		return nil, nil, eris.New("omdb.key is not set (BOXOFFICE_OMDB_KEY)")
	}

	c, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		return nil, nil, err
	}

	client := omdb.NewClient(cfg.OMDB.Key,
		omdb.WithBaseURL(cfg.OMDB.BaseURL),
		omdb.WithDailyLimit(cfg.OMDB.DailyLimit),
		omdb.WithRateLimit(cfg.OMDB.RateLimitRPS),
		omdb.WithTimeout(time.Duration(cfg.OMDB.TimeoutSecs)*time.Second),
		omdb.WithRetry(resilience.RetryConfig{
			MaxAttempts: cfg.OMDB.RetryAttempts,
			BaseDelay:   time.Duration(cfg.OMDB.RetryDelaySec * float64(time.Second)),
			OnRetry:     resilience.RetryLogger("omdb", "lookup"),
		}),
	)

	return c, enrich.New(c, client, cfg.Enrich.ProgressEvery), nil
}
