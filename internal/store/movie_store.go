package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"movies-api/internal/domain"
)

var (
	ErrMovieNotFound      = errors.New("movie not found")
	ErrMovieAlreadyExists = errors.New("movie with this id already exists")
)

// MovieListParams filters List. An empty Genre returns every movie.
type MovieListParams struct {
	Genre string
}

// MovieStore is the record store behind the HTTP and gRPC handlers.
// Every implementation keeps insertion order and never holds a partially valid record:
// callers validate before Create and Update.
type MovieStore interface {
	List(ctx context.Context, params MovieListParams) ([]*domain.Movie, error)
	GetByID(ctx context.Context, id string) (*domain.Movie, error)
	Create(ctx context.Context, movie *domain.Movie) error
	// Update locates the movie by id, merges patch over it and replaces it in place.
	Update(ctx context.Context, id string, patch domain.MoviePatch) (*domain.Movie, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// MemoryMovieStore keeps movies in a slice in insertion order.
//
// Lookups are linear scans, which is fine for a catalog of a few thousand records
// and no more. The mutex covers each read-modify-write sequence, so concurrent
// requests never see a half applied update or a shifted index.
type MemoryMovieStore struct {
	mu     sync.RWMutex
	movies []domain.Movie
	logger *slog.Logger
}

// NewMemoryMovieStore creates a store holding copies of seed.
func NewMemoryMovieStore(seed []domain.Movie, logger *slog.Logger) *MemoryMovieStore {
	movies := make([]domain.Movie, 0, len(seed))
	for _, m := range seed {
		movies = append(movies, m.Clone())
	}
	return &MemoryMovieStore{movies: movies, logger: logger}
}

// indexOf must be called with mu held.
func (s *MemoryMovieStore) indexOf(id string) int {
	for i := range s.movies {
		if s.movies[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *MemoryMovieStore) List(ctx context.Context, params MovieListParams) ([]*domain.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.logger.DebugContext(ctx, "Listing movies in memory", slog.String("genre", params.Genre))

	result := make([]*domain.Movie, 0, len(s.movies))
	for _, m := range s.movies {
		if params.Genre != "" && !m.HasGenre(params.Genre) {
			continue
		}
		movieCopy := m.Clone()
		result = append(result, &movieCopy)
	}
	return result, nil
}

func (s *MemoryMovieStore) GetByID(ctx context.Context, id string) (*domain.Movie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.logger.DebugContext(ctx, "Getting movie by ID in memory", slog.String("movieID", id))

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrMovieNotFound
	}
	movieCopy := s.movies[i].Clone()
	return &movieCopy, nil
}

func (s *MemoryMovieStore) Create(ctx context.Context, movie *domain.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.DebugContext(ctx, "Creating movie in memory", slog.String("movieID", movie.ID), slog.String("title", movie.Title))

	if s.indexOf(movie.ID) >= 0 {
		return ErrMovieAlreadyExists
	}
	s.movies = append(s.movies, movie.Clone())
	return nil
}

func (s *MemoryMovieStore) Update(ctx context.Context, id string, patch domain.MoviePatch) (*domain.Movie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.DebugContext(ctx, "Updating movie in memory", slog.String("movieID", id))

	i := s.indexOf(id)
	if i < 0 {
		return nil, ErrMovieNotFound
	}
	s.movies[i] = patch.Apply(s.movies[i])
	updated := s.movies[i].Clone()
	return &updated, nil
}

func (s *MemoryMovieStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger.DebugContext(ctx, "Deleting movie in memory", slog.String("movieID", id))

	i := s.indexOf(id)
	if i < 0 {
		return ErrMovieNotFound
	}
	s.movies = slices.Delete(s.movies, i, i+1)
	return nil
}

func (s *MemoryMovieStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.movies), nil
}
