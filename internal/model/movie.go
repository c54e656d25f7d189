package model

import "time"

// ResultKind classifies the outcome of a metadata lookup as stored in the cache.
type ResultKind string

const (
	ResultMatch    ResultKind = "match"
	ResultNotFound ResultKind = "not_found"
	ResultError    ResultKind = "error"
)

// MovieMetadata is the enriched payload for a matched movie. Optional fields
// are pointers; values the upstream service reports as "N/A" are normalized
// to nil at the parse boundary and never stored as the literal sentinel.
type MovieMetadata struct {
	Title     string  `json:"title"`
	Year      *string `json:"year,omitempty"`
	Rated     *string `json:"rated,omitempty"`
	Released  *string `json:"released,omitempty"`
	Runtime   *string `json:"runtime,omitempty"`
	Genre     *string `json:"genre,omitempty"`
	Director  *string `json:"director,omitempty"`
	Actors    *string `json:"actors,omitempty"`
	Plot      *string `json:"plot,omitempty"`
	Language  *string `json:"language,omitempty"`
	Country   *string `json:"country,omitempty"`
	Awards    *string `json:"awards,omitempty"`
	PosterURL *string `json:"poster_url,omitempty"`

	Metascore  *int     `json:"metascore,omitempty"`
	IMDBRating *float64 `json:"imdb_rating,omitempty"`
	IMDBVotes  *int     `json:"imdb_votes,omitempty"`
	IMDBID     *string  `json:"imdb_id,omitempty"`
	BoxOffice  *string  `json:"box_office,omitempty"`

	EnrichedAt time.Time  `json:"enriched_at"`
	ResultKind ResultKind `json:"result_kind"`
}
