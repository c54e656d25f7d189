// Package rank aggregates revenue observations into a ranked movie list.
package rank

import (
	"sort"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// Aggregator accumulates per-title revenue totals and date ranges over a
// single pass of observations. The zero value is ready to use.
type Aggregator struct {
	index  map[string]int
	movies []model.RankedMovie
}

// Add folds one observation into the running totals.
func (a *Aggregator) Add(obs model.RevenueObservation) {
	if a.index == nil {
		a.index = make(map[string]int)
	}

	i, ok := a.index[obs.Title]
	if !ok {
		i = len(a.movies)
		a.index[obs.Title] = i
		a.movies = append(a.movies, model.RankedMovie{
			Title:        obs.Title,
			TotalRevenue: obs.Revenue,
			FirstDate:    obs.Date,
			LastDate:     obs.Date,
		})
		return
	}

	m := &a.movies[i]
	m.TotalRevenue = m.TotalRevenue.Add(obs.Revenue)
	if obs.Date.Before(m.FirstDate) {
		m.FirstDate = obs.Date
	}
	if obs.Date.After(m.LastDate) {
		m.LastDate = obs.Date
	}
}

// AddAll folds every observation from the channel into the running totals.
func (a *Aggregator) AddAll(observations <-chan model.RevenueObservation) {
	for obs := range observations {
		a.Add(obs)
	}
}

// Ranked returns distinct titles sorted by total revenue descending. The sort
// is stable, so titles with equal totals keep first-encountered order. A
// positive topN truncates the result.
func (a *Aggregator) Ranked(topN int) []model.RankedMovie {
	ranked := make([]model.RankedMovie, len(a.movies))
	copy(ranked, a.movies)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalRevenue.GreaterThan(ranked[j].TotalRevenue)
	})

	if topN > 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}
	return ranked
}

// Distinct returns the number of distinct titles seen so far.
func (a *Aggregator) Distinct() int {
	return len(a.movies)
}
