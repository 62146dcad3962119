package grpc

import (
	"context"
	"errors"
	"log/slog"

	"movies-api/internal/domain"
	"movies-api/internal/store"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Server implements MovieInterServiceServer on top of a MovieStore.
type Server struct {
	store  store.MovieStore
	logger *slog.Logger
}

// NewServer creates a new gRPC server for the movie store.
func NewServer(movieStore store.MovieStore, logger *slog.Logger) *Server {
	return &Server{
		store:  movieStore,
		logger: logger,
	}
}

// movieToMap mirrors the HTTP JSON representation of a movie.
func movieToMap(movie *domain.Movie) map[string]interface{} {
	genres := make([]interface{}, 0, len(movie.Genre))
	for _, g := range movie.Genre {
		genres = append(genres, g)
	}
	return map[string]interface{}{
		"id":       movie.ID,
		"title":    movie.Title,
		"year":     movie.Year,
		"director": movie.Director,
		"duration": movie.Duration,
		"rate":     movie.Rate,
		"poster":   movie.Poster,
		"genre":    genres,
	}
}

// GetMovieInfo returns a movie by id.
func (s *Server) GetMovieInfo(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	movieID := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC GetMovieInfo called", slog.String("movie_id", movieID))

	if movieID == "" {
		return nil, status.Errorf(codes.InvalidArgument, "movie_id cannot be empty")
	}

	movie, err := s.store.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			return nil, status.Errorf(codes.NotFound, "movie not found with ID %s", movieID)
		}
		s.logger.ErrorContext(ctx, "Failed to get movie by ID from store for GetMovieInfo", slog.String("movie_id", movieID), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to retrieve movie details: %v", err)
	}

	info, err := structpb.NewStruct(movieToMap(movie))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode movie: %v", err)
	}
	return info, nil
}

// CheckMovieExists reports whether a movie with the given id is stored.
func (s *Server) CheckMovieExists(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	movieID := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC CheckMovieExists called", slog.String("movie_id", movieID))

	if movieID == "" {
		return nil, status.Errorf(codes.InvalidArgument, "movie_id cannot be empty")
	}

	if _, err := s.store.GetByID(ctx, movieID); err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			return wrapperspb.Bool(false), nil
		}
		s.logger.ErrorContext(ctx, "Failed to check movie existence from store", slog.String("movie_id", movieID), slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to check movie existence: %v", err)
	}
	return wrapperspb.Bool(true), nil
}

// ListMovies lists movies in store order, filtered by genre when one is given.
func (s *Server) ListMovies(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error) {
	genre := req.GetValue()
	s.logger.InfoContext(ctx, "gRPC ListMovies called", slog.String("genre", genre))

	movies, err := s.store.List(ctx, store.MovieListParams{Genre: genre})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list movies from store", slog.String("error", err.Error()))
		return nil, status.Errorf(codes.Internal, "failed to list movies: %v", err)
	}

	items := make([]interface{}, 0, len(movies))
	for _, m := range movies {
		items = append(items, movieToMap(m))
	}
	list, err := structpb.NewList(items)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode movies: %v", err)
	}
	return list, nil
}
