package models

import "time"

// Movie is one row of the catalog. Index is its row in the similarity matrix.
type Movie struct {
	Index      int    `json:"index"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
}

// Neighbor is a ranked candidate for a query movie.
type Neighbor struct {
	Index int
	Score float64
}

// Enrichment holds best-effort metadata fetched from TMDb. The zero value
// means nothing was found.
type Enrichment struct {
	TrailerURL  string
	PublishedAt *time.Time
}

func (e Enrichment) Available() bool {
	return e.TrailerURL != ""
}

type Recommendation struct {
	Movie      Movie
	PosterURL  string
	Enrichment Enrichment
}
