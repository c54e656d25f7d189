package omdb

import (
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/boxoffice-cli/internal/model"
)

// notApplicable is the sentinel OMDb uses for absent field values.
const notApplicable = "N/A"

// payload is the raw OMDb response shape. Every field arrives as a string;
// normalization into typed, optional values happens in toMetadata.
type payload struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Actors     string `json:"Actors"`
	Plot       string `json:"Plot"`
	Language   string `json:"Language"`
	Country    string `json:"Country"`
	Awards     string `json:"Awards"`
	Poster     string `json:"Poster"`
	Metascore  string `json:"Metascore"`
	IMDBRating string `json:"imdbRating"`
	IMDBVotes  string `json:"imdbVotes"`
	IMDBID     string `json:"imdbID"`
	BoxOffice  string `json:"BoxOffice"`
	Response   string `json:"Response"`
	Error      string `json:"Error"`
}

// NotFound reports whether the response is a well-formed "no such movie"
// answer rather than a match.
func (p *payload) NotFound() bool {
	return p.Response == "False"
}

// toMetadata normalizes the raw payload: "N/A" fields become nil, numeric
// fields are safe-parsed (unparseable input yields nil, never an error), and
// the votes field is stripped of thousands separators before parsing.
func (p *payload) toMetadata() *model.MovieMetadata {
	return &model.MovieMetadata{
		Title:      p.Title,
		Year:       optional(p.Year),
		Rated:      optional(p.Rated),
		Released:   optional(p.Released),
		Runtime:    optional(p.Runtime),
		Genre:      optional(p.Genre),
		Director:   optional(p.Director),
		Actors:     optional(p.Actors),
		Plot:       optional(p.Plot),
		Language:   optional(p.Language),
		Country:    optional(p.Country),
		Awards:     optional(p.Awards),
		PosterURL:  optional(p.Poster),
		Metascore:  safeInt(p.Metascore),
		IMDBRating: safeFloat(p.IMDBRating),
		IMDBVotes:  safeInt(strings.ReplaceAll(p.IMDBVotes, ",", "")),
		IMDBID:     optional(p.IMDBID),
		BoxOffice:  optional(p.BoxOffice),
		EnrichedAt: time.Now().UTC(),
		ResultKind: model.ResultMatch,
	}
}

func optional(s string) *string {
	if s == "" || s == notApplicable {
		return nil
	}
	return &s
}

func safeInt(s string) *int {
	if s == "" || s == notApplicable {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func safeFloat(s string) *float64 {
	if s == "" || s == notApplicable {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
