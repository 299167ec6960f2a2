package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/kdimtricp/movierec/internal/models"
)

type MovieRepository struct {
	db *DB
}

func NewMovieRepository(db *DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// ReplaceAll swaps the stored catalog for movies and matrix in a single
// transaction and returns the id of the import.
func (r *MovieRepository) ReplaceAll(ctx context.Context, movies []models.Movie, matrix [][]float64) (string, error) {
	if len(movies) != len(matrix) {
		return "", fmt.Errorf("movie count %d does not match matrix rows %d", len(movies), len(matrix))
	}

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM similarity_rows"); err != nil {
		return "", fmt.Errorf("failed to clear similarity rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM movies"); err != nil {
		return "", fmt.Errorf("failed to clear movies: %w", err)
	}

	movieStmt, err := tx.PrepareContext(ctx, r.db.rebind("INSERT INTO movies (idx, title, poster_path) VALUES (?, ?, ?)"))
	if err != nil {
		return "", fmt.Errorf("failed to prepare movie insert: %w", err)
	}
	defer movieStmt.Close()

	rowStmt, err := tx.PrepareContext(ctx, r.db.rebind("INSERT INTO similarity_rows (idx, scores) VALUES (?, ?)"))
	if err != nil {
		return "", fmt.Errorf("failed to prepare similarity insert: %w", err)
	}
	defer rowStmt.Close()

	for i, m := range movies {
		if _, err := movieStmt.ExecContext(ctx, i, m.Title, m.PosterPath); err != nil {
			return "", fmt.Errorf("failed to insert movie %d: %w", i, err)
		}

		scores, err := json.Marshal(matrix[i])
		if err != nil {
			return "", fmt.Errorf("failed to marshal similarity row %d: %w", i, err)
		}
		if _, err := rowStmt.ExecContext(ctx, i, string(scores)); err != nil {
			return "", fmt.Errorf("failed to insert similarity row %d: %w", i, err)
		}
	}

	importID := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		r.db.rebind("INSERT INTO dataset_imports (id, movie_count, imported_at) VALUES (?, ?, ?)"),
		importID, len(movies), time.Now().UTC(),
	); err != nil {
		return "", fmt.Errorf("failed to record import: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit import: %w", err)
	}

	return importID, nil
}

// ListMovies returns every movie ordered by row index.
func (r *MovieRepository) ListMovies(ctx context.Context) ([]models.Movie, error) {
	rows, err := r.db.conn.QueryContext(ctx, "SELECT idx, title, poster_path FROM movies ORDER BY idx")
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	var movies []models.Movie
	for rows.Next() {
		var m models.Movie
		if err := rows.Scan(&m.Index, &m.Title, &m.PosterPath); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return movies, nil
}

// ListRows returns the similarity matrix ordered by row index.
func (r *MovieRepository) ListRows(ctx context.Context) ([][]float64, error) {
	rows, err := r.db.conn.QueryContext(ctx, "SELECT idx, scores FROM similarity_rows ORDER BY idx")
	if err != nil {
		return nil, fmt.Errorf("failed to list similarity rows: %w", err)
	}
	defer rows.Close()

	var matrix [][]float64
	for rows.Next() {
		var idx int
		var raw string
		if err := rows.Scan(&idx, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan similarity row: %w", err)
		}
		if idx != len(matrix) {
			return nil, fmt.Errorf("similarity rows are not contiguous: expected %d, got %d", len(matrix), idx)
		}

		var row []float64
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, fmt.Errorf("failed to decode similarity row %d: %w", idx, err)
		}
		matrix = append(matrix, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return matrix, nil
}

func (r *MovieRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return count, nil
}

// LastImport returns the id and time of the most recent import, or an empty
// id if nothing was imported yet.
func (r *MovieRepository) LastImport(ctx context.Context) (string, time.Time, error) {
	var id string
	var at time.Time
	err := r.db.conn.QueryRowContext(ctx,
		"SELECT id, imported_at FROM dataset_imports ORDER BY imported_at DESC LIMIT 1",
	).Scan(&id, &at)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get last import: %w", err)
	}
	return id, at, nil
}
