package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kdimtricp/movierec/internal/models"
	"github.com/kdimtricp/movierec/internal/storage"
)

func writeDataset(t *testing.T, files map[string]string) *storage.LocalStorage {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	store, err := storage.NewLocalStorage(dir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return store
}

const moviesJSON = `[
	{"title": "Avatar", "poster_path": "/avatar.jpg"},
	{"title": "Titanic", "poster_path": ""},
	{"title": "Aliens"}
]`

const similarityJSON = `[[1.0, 0.2, 0.9], [0.2, 1.0, 0.1], [0.9, 0.1, 1.0]]`

func TestLoadFiles(t *testing.T) {
	store := writeDataset(t, map[string]string{
		"movies.json":     moviesJSON,
		"similarity.json": similarityJSON,
	})

	c, err := LoadFiles(store, DefaultFiles())
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}

	if c.Len() != 3 {
		t.Fatalf("expected 3 movies, got %d", c.Len())
	}

	idx, err := c.Resolve("Aliens")
	if err != nil || idx != 2 {
		t.Errorf("Resolve(Aliens) = %d, %v", idx, err)
	}

	m, _ := c.Movie(0)
	if m.PosterPath != "/avatar.jpg" {
		t.Errorf("unexpected poster path %q", m.PosterPath)
	}
}

func TestLoadFiles_PosterTable(t *testing.T) {
	store := writeDataset(t, map[string]string{
		"movies.json":     moviesJSON,
		"similarity.json": similarityJSON,
		"posters.json":    `[{"title":"Avatar","poster_path":"/a2.jpg"},{"title":"Titanic","poster_path":"/t.jpg"},{"title":"Aliens","poster_path":""}]`,
	})

	c, err := LoadFiles(store, DefaultFiles())
	if err != nil {
		t.Fatalf("LoadFiles failed: %v", err)
	}

	expected := []string{"/a2.jpg", "/t.jpg", ""}
	for i, want := range expected {
		m, _ := c.Movie(i)
		if m.PosterPath != want {
			t.Errorf("row %d: expected poster %q, got %q", i, want, m.PosterPath)
		}
	}
}

func TestLoadFiles_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{
			name:  "missing movies",
			files: map[string]string{"similarity.json": similarityJSON},
		},
		{
			name:  "missing similarity",
			files: map[string]string{"movies.json": moviesJSON},
		},
		{
			name: "malformed similarity",
			files: map[string]string{
				"movies.json":     moviesJSON,
				"similarity.json": `[[1.0, 0.2`,
			},
		},
		{
			name: "matrix size mismatch",
			files: map[string]string{
				"movies.json":     moviesJSON,
				"similarity.json": `[[1.0, 0.2], [0.2, 1.0]]`,
			},
		},
		{
			name: "poster table out of order",
			files: map[string]string{
				"movies.json":     moviesJSON,
				"similarity.json": similarityJSON,
				"posters.json":    `[{"title":"Titanic"},{"title":"Avatar"},{"title":"Aliens"}]`,
			},
		},
		{
			name: "poster table short",
			files: map[string]string{
				"movies.json":     moviesJSON,
				"similarity.json": similarityJSON,
				"posters.json":    `[{"title":"Avatar"}]`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := writeDataset(t, tt.files)

			_, err := LoadFiles(store, DefaultFiles())
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

type fakeSource struct {
	movies []models.Movie
	matrix [][]float64
	err    error
}

func (f *fakeSource) ListMovies(ctx context.Context) ([]models.Movie, error) {
	return f.movies, f.err
}

func (f *fakeSource) ListRows(ctx context.Context) ([][]float64, error) {
	return f.matrix, f.err
}

func TestLoadDatabase(t *testing.T) {
	src := &fakeSource{movies: testMovies("a", "b"), matrix: identity(2)}

	c, err := LoadDatabase(context.Background(), src)
	if err != nil {
		t.Fatalf("LoadDatabase failed: %v", err)
	}
	if c.Len() != 2 {
		t.Errorf("expected 2 movies, got %d", c.Len())
	}
}

func TestLoadDatabase_Error(t *testing.T) {
	src := &fakeSource{err: errors.New("connection refused")}

	_, err := LoadDatabase(context.Background(), src)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestLoadDatabase_Empty(t *testing.T) {
	_, err := LoadDatabase(context.Background(), &fakeSource{})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError for empty store, got %v", err)
	}
}
