package catalog

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/kdimtricp/movierec/internal/logging"
	"github.com/kdimtricp/movierec/internal/models"
	"github.com/kdimtricp/movierec/internal/storage"
)

// Files names the dataset files inside a data directory. Posters is optional.
type Files struct {
	Movies     string
	Similarity string
	Posters    string
}

func DefaultFiles() Files {
	return Files{
		Movies:     "movies.json",
		Similarity: "similarity.json",
		Posters:    "posters.json",
	}
}

type movieRecord struct {
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
}

// ReadFiles decodes the dataset files without building a catalog.
func ReadFiles(store storage.Storage, files Files) ([]models.Movie, [][]float64, error) {
	var records []movieRecord
	if err := decodeFile(store, files.Movies, &records); err != nil {
		return nil, nil, err
	}

	var matrix [][]float64
	if err := decodeFile(store, files.Similarity, &matrix); err != nil {
		return nil, nil, err
	}

	movies := make([]models.Movie, len(records))
	for i, r := range records {
		movies[i] = models.Movie{Index: i, Title: r.Title, PosterPath: r.PosterPath}
	}

	if files.Posters != "" && store.Exists(files.Posters) {
		var posters []movieRecord
		if err := decodeFile(store, files.Posters, &posters); err != nil {
			return nil, nil, err
		}
		if err := applyPosters(movies, posters); err != nil {
			return nil, nil, err
		}
	}

	return movies, matrix, nil
}

// applyPosters merges the display lookup table into movies. Both tables must
// come from the same row ordering.
func applyPosters(movies []models.Movie, posters []movieRecord) error {
	if len(posters) != len(movies) {
		return configErrorf("posters", "poster table has %d rows, expected %d", len(posters), len(movies))
	}
	for i, p := range posters {
		if p.Title != movies[i].Title {
			return configErrorf("posters", "row %d title %q does not match movie %q", i, p.Title, movies[i].Title)
		}
		if p.PosterPath != "" {
			movies[i].PosterPath = p.PosterPath
		}
	}
	return nil
}

func decodeFile(store storage.Storage, name string, v interface{}) error {
	f, err := store.OpenFile(name)
	if err != nil {
		return &ConfigurationError{Source: name, Err: err}
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return &ConfigurationError{Source: name, Err: fmt.Errorf("decoding: %w", err)}
	}
	return nil
}

// LoadFiles reads the dataset files from store and builds a catalog.
func LoadFiles(store storage.Storage, files Files) (*Catalog, error) {
	movies, matrix, err := ReadFiles(store, files)
	if err != nil {
		return nil, err
	}
	return build("files", movies, matrix)
}

// Source is a stored catalog, such as database.MovieRepository.
type Source interface {
	ListMovies(ctx context.Context) ([]models.Movie, error)
	ListRows(ctx context.Context) ([][]float64, error)
}

func LoadDatabase(ctx context.Context, src Source) (*Catalog, error) {
	movies, err := src.ListMovies(ctx)
	if err != nil {
		return nil, &ConfigurationError{Source: "database", Err: err}
	}
	matrix, err := src.ListRows(ctx)
	if err != nil {
		return nil, &ConfigurationError{Source: "database", Err: err}
	}
	return build("database", movies, matrix)
}

func build(source string, movies []models.Movie, matrix [][]float64) (*Catalog, error) {
	c, err := New(movies, matrix)
	if err != nil {
		return nil, err
	}

	logger := logging.With("catalog")
	for title, rows := range c.Duplicates() {
		logger.Warn().Str("title", title).Ints("rows", rows).Msg("Duplicate title, lookups resolve to the first row")
	}
	logger.Info().Str("source", source).Int("movies", c.Len()).Msg("Catalog loaded")

	return c, nil
}
