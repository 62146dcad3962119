package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"movies-api/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const movieColumns = `id, title, year, director, duration, rate, poster, genre`

// seq keeps insertion order; id is the public key.
const moviesSchema = `
CREATE TABLE IF NOT EXISTS movies (
    seq      BIGSERIAL        NOT NULL UNIQUE,
    id       TEXT             PRIMARY KEY,
    title    TEXT             NOT NULL,
    year     INTEGER          NOT NULL,
    director TEXT             NOT NULL,
    duration INTEGER          NOT NULL,
    rate     DOUBLE PRECISION NOT NULL DEFAULT 0,
    poster   TEXT             NOT NULL,
    genre    TEXT[]           NOT NULL
)`

// PostgresMovieStore implements MovieStore on PostgreSQL.
type PostgresMovieStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresMovieStore creates a new PostgresMovieStore.
func NewPostgresMovieStore(db *sqlx.DB, logger *slog.Logger) (*PostgresMovieStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil")
	}
	return &PostgresMovieStore{db: db, logger: logger}, nil
}

// EnsureSchema creates the movies table if it does not exist yet.
func (s *PostgresMovieStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, moviesSchema); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create movies table", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create movies table: %w", err)
	}
	return nil
}

// SeedIfEmpty inserts seed in one transaction when the table holds no rows.
// It reports whether the seed was applied.
func (s *PostgresMovieStore) SeedIfEmpty(ctx context.Context, seed []domain.Movie) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Serialises concurrent seeders so only one of them sees an empty table.
	if _, err := tx.ExecContext(ctx, `LOCK TABLE movies IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return false, fmt.Errorf("failed to lock movies table: %w", err)
	}
	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM movies`); err != nil {
		return false, fmt.Errorf("failed to count movies: %w", err)
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "Movies table already populated, skipping seed", slog.Int("count", count))
		return false, nil
	}
	for i := range seed {
		if err := insertMovie(ctx, tx, &seed[i]); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	s.logger.InfoContext(ctx, "Movies table seeded", slog.Int("count", len(seed)))
	return true, nil
}

func insertMovie(ctx context.Context, ex sqlx.ExecerContext, movie *domain.Movie) error {
	query := `INSERT INTO movies (` + movieColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := ex.ExecContext(ctx, query,
		movie.ID, movie.Title, movie.Year, movie.Director, movie.Duration,
		movie.Rate, movie.Poster, pq.Array([]string(movie.Genre)),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return ErrMovieAlreadyExists
		}
		return fmt.Errorf("failed to insert movie: %w", err)
	}
	return nil
}

// List returns movies in insertion order, optionally filtered by genre ignoring case.
func (s *PostgresMovieStore) List(ctx context.Context, params MovieListParams) ([]*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies`
	var args []interface{}
	if params.Genre != "" {
		query += ` WHERE EXISTS (SELECT 1 FROM unnest(genre) AS g WHERE lower(g) = lower($1))`
		args = append(args, params.Genre)
	}
	query += ` ORDER BY seq`

	s.logger.DebugContext(ctx, "Executing List movies query", slog.String("query", query), slog.Any("args", args))
	movies := []*domain.Movie{}
	if err := s.db.SelectContext(ctx, &movies, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list movies from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

// GetByID finds a movie by its ID.
func (s *PostgresMovieStore) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	query := `SELECT ` + movieColumns + ` FROM movies WHERE id = $1`
	var movie domain.Movie

	s.logger.DebugContext(ctx, "Executing GetMovieByID query", slog.String("movieID", id))
	if err := s.db.GetContext(ctx, &movie, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get movie by ID from DB", slog.String("movieID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get movie by ID: %w", err)
	}
	return &movie, nil
}

// Create inserts a new movie.
func (s *PostgresMovieStore) Create(ctx context.Context, movie *domain.Movie) error {
	s.logger.DebugContext(ctx, "Executing Create movie query", slog.String("movieID", movie.ID), slog.String("title", movie.Title))
	if err := insertMovie(ctx, s.db, movie); err != nil {
		if errors.Is(err, ErrMovieAlreadyExists) {
			s.logger.WarnContext(ctx, "Movie already exists (unique constraint violation in DB)", slog.String("movieID", movie.ID))
		} else {
			s.logger.ErrorContext(ctx, "Failed to create movie in DB", slog.String("error", err.Error()))
		}
		return err
	}
	s.logger.InfoContext(ctx, "Movie created successfully in DB", slog.String("movieID", movie.ID))
	return nil
}

// Update locks the row, merges patch over it and writes it back in one transaction.
func (s *PostgresMovieStore) Update(ctx context.Context, id string, patch domain.MoviePatch) (*domain.Movie, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin update transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var current domain.Movie
	selectQuery := `SELECT ` + movieColumns + ` FROM movies WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &current, selectQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to load movie for update: %w", err)
	}

	updated := patch.Apply(current)
	updateQuery := `UPDATE movies SET title = $1, year = $2, director = $3, duration = $4, rate = $5, poster = $6, genre = $7 WHERE id = $8`
	s.logger.DebugContext(ctx, "Executing Update movie query", slog.String("movieID", id))
	if _, err := tx.ExecContext(ctx, updateQuery,
		updated.Title, updated.Year, updated.Director, updated.Duration,
		updated.Rate, updated.Poster, pq.Array([]string(updated.Genre)), id,
	); err != nil {
		s.logger.ErrorContext(ctx, "Failed to update movie in DB", slog.String("movieID", id), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update movie: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit movie update: %w", err)
	}
	s.logger.InfoContext(ctx, "Movie updated successfully in DB", slog.String("movieID", id))
	return &updated, nil
}

// Delete removes a movie by its ID.
func (s *PostgresMovieStore) Delete(ctx context.Context, id string) error {
	s.logger.DebugContext(ctx, "Executing Delete movie query", slog.String("movieID", id))
	result, err := s.db.ExecContext(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete movie in DB", slog.String("movieID", id), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read deleted rows: %w", err)
	}
	if rowsAffected == 0 {
		return ErrMovieNotFound
	}
	s.logger.InfoContext(ctx, "Movie deleted successfully in DB", slog.String("movieID", id))
	return nil
}

// Count returns the number of stored movies.
func (s *PostgresMovieStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM movies`); err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return count, nil
}
