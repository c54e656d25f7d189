// Package enrich orchestrates metadata enrichment of ranked movies, composing
// the OMDb client with the durable lookup cache.
package enrich

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/boxoffice-cli/internal/cache"
	"github.com/sells-group/boxoffice-cli/internal/model"
	"github.com/sells-group/boxoffice-cli/pkg/omdb"
)

// Stats summarizes an enrichment pass.
type Stats struct {
	Processed      int `json:"processed"`
	Matched        int `json:"matched"`
	NotFound       int `json:"not_found"`
	Errored        int `json:"errored"`
	Skipped        int `json:"skipped"` // daily budget reached, no cache entry written
	CacheHits      int `json:"cache_hits"`
	TotalCached    int `json:"total_cached"`
	CallsMade      int `json:"calls_made"`
	CallsRemaining int `json:"calls_remaining"`
}

// Enricher walks a ranked movie list in order, resolving each title through
// the cache first and the OMDb client on a miss, and persisting every
// obtained outcome before moving on.
type Enricher struct {
	cache         *cache.FileCache
	client        omdb.Client
	progressEvery int
}

// New creates an Enricher. progressEvery controls how often progress is
// logged (entities between log lines); zero or negative uses 100.
func New(c *cache.FileCache, client omdb.Client, progressEvery int) *Enricher {
	if progressEvery <= 0 {
		progressEvery = 100
	}
	return &Enricher{cache: c, client: client, progressEvery: progressEvery}
}

// EnrichAll resolves metadata for every ranked movie and returns the matched
// set in rank order. Lookup failures and not-found results are absorbed into
// Stats; only cache persistence failures and context cancellation abort.
func (e *Enricher) EnrichAll(ctx context.Context, ranked []model.RankedMovie) ([]model.MovieMetadata, Stats, error) {
	var stats Stats
	var enriched []model.MovieMetadata

	for i, movie := range ranked {
		if err := ctx.Err(); err != nil {
			return enriched, e.finalize(stats), eris.Wrap(err, "enrich: cancelled")
		}

		year := YearHint(movie.Title)
		key := cache.Key(movie.Title, year)
		stats.Processed++

		if entry, ok := e.cache.Get(key); ok {
			stats.CacheHits++
			switch entry.ResultKind {
			case model.ResultMatch:
				stats.Matched++
				if entry.Metadata != nil {
					enriched = append(enriched, *entry.Metadata)
				}
			case model.ResultNotFound:
				stats.NotFound++
			case model.ResultError:
				stats.Errored++
			}
			e.progress(i+1, len(ranked), stats)
			continue
		}

		result, lookupErr := e.client.Lookup(ctx, movie.Title, year)
		if result == nil {
			result = &omdb.Result{Outcome: omdb.OutcomeError}
		}

		var entry cache.Entry
		switch result.Outcome {
		case omdb.OutcomeBudgetExhausted:
			// Soft stop: skipped, not errored, and deliberately not cached
			// so a later run with fresh budget retries the title.
			stats.Skipped++
			e.progress(i+1, len(ranked), stats)
			continue

		case omdb.OutcomeMatch:
			stats.Matched++
			enriched = append(enriched, *result.Metadata)
			entry = cache.Entry{
				Title:      movie.Title,
				ResultKind: model.ResultMatch,
				EnrichedAt: result.Metadata.EnrichedAt,
				Metadata:   result.Metadata,
			}

		case omdb.OutcomeNotFound:
			stats.NotFound++
			entry = cache.Entry{
				Title:      movie.Title,
				ResultKind: model.ResultNotFound,
				EnrichedAt: now(),
			}

		case omdb.OutcomeError:
			stats.Errored++
			zap.L().Warn("lookup failed, caching terminal error",
				zap.String("title", movie.Title),
				zap.Error(lookupErr),
			)
			entry = cache.Entry{
				Title:      movie.Title,
				ResultKind: model.ResultError,
				EnrichedAt: now(),
			}
		}

		if err := e.cache.Put(key, entry); err != nil {
			// Losing a cache write silently would cost a duplicate network
			// call in a future run; fail loudly instead.
			return enriched, e.finalize(stats), eris.Wrap(err, "enrich: persist cache")
		}

		e.progress(i+1, len(ranked), stats)
	}

	zap.L().Info("enrichment complete",
		zap.Int("processed", stats.Processed),
		zap.Int("matched", stats.Matched),
		zap.Int("not_found", stats.NotFound),
		zap.Int("errored", stats.Errored),
		zap.Int("skipped", stats.Skipped),
	)
	return enriched, e.finalize(stats), nil
}

func (e *Enricher) progress(done, total int, stats Stats) {
	if done%e.progressEvery != 0 {
		return
	}
	usage := e.client.Usage()
	zap.L().Info("enrichment progress",
		zap.Int("done", done),
		zap.Int("total", total),
		zap.Int("matched", stats.Matched),
		zap.Int("calls_remaining", usage.CallsRemaining),
	)
}

func (e *Enricher) finalize(stats Stats) Stats {
	usage := e.client.Usage()
	stats.CallsMade = usage.CallsMade
	stats.CallsRemaining = usage.CallsRemaining
	stats.TotalCached = e.cache.Len()
	return stats
}

func now() time.Time {
	return time.Now().UTC()
}

// yearPattern matches a 4-digit token in 1900-2029.
var yearPattern = regexp.MustCompile(`(19\d{2}|20[0-2]\d)`)

// YearHint extracts a plausible release year from raw title text, e.g.
// "The Polar Express2017 IMAX Release" yields 2017. The leftmost in-range
// 4-digit token wins; titles with unrelated 4-digit numbers will produce a
// wrong hint, which is accepted. Returns 0 when no token is found.
func YearHint(title string) int {
	match := yearPattern.FindString(title)
	if match == "" {
		return 0
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0
	}
	return year
}
