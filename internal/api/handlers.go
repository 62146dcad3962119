package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"movies-api/internal/store"
	"movies-api/internal/validation"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// maxBodyBytes caps POST and PATCH bodies.
const maxBodyBytes = 1 << 20

const (
	msgMovieNotFound = "Movie not found"
	msgMovieDeleted  = "Movie deleted"
)

// MovieHandler holds the dependencies of the movie HTTP handlers.
type MovieHandler struct {
	store     store.MovieStore
	logger    *slog.Logger
	validator *validation.Validator
	newID     func() string
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(s store.MovieStore, l *slog.Logger, v *validation.Validator) *MovieHandler {
	return &MovieHandler{
		store:     s,
		logger:    l,
		validator: v,
		newID:     uuid.NewString,
	}
}

// --- helpers ---

func (h *MovieHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *MovieHandler) respondMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"message": message})
}

// respondInvalid renders a validation failure as 400 {"error": [...]}.
func (h *MovieHandler) respondInvalid(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		verr = &validation.Error{Issues: []validation.Issue{{Rule: "body", Message: "Invalid request payload"}}}
	}
	h.respondJSON(w, r, http.StatusBadRequest, map[string][]validation.Issue{"error": verr.Issues})
}

// --- handlers ---

// GetMovies lists movies, optionally filtered by ?genre= (case-insensitive).
func (h *MovieHandler) GetMovies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	genre := r.URL.Query().Get("genre")
	h.logger.InfoContext(ctx, "GetMovies endpoint hit", slog.String("genre", genre))

	movies, err := h.store.List(ctx, store.MovieListParams{Genre: genre})
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to list movies from store", slog.String("error", err.Error()))
		h.respondMessage(w, r, http.StatusInternalServerError, "Failed to retrieve movies")
		return
	}

	h.logger.InfoContext(ctx, "Movies list retrieved successfully", slog.Int("count_returned", len(movies)))
	h.respondJSON(w, r, http.StatusOK, movies)
}

// GetMovieByID returns a single movie.
func (h *MovieHandler) GetMovieByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["id"]
	h.logger.InfoContext(ctx, "GetMovieByID endpoint hit", slog.String("movieID", movieID))

	movie, err := h.store.GetByID(ctx, movieID)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.respondMessage(w, r, http.StatusNotFound, msgMovieNotFound)
		} else {
			h.logger.ErrorContext(ctx, "Error finding movie by ID", slog.String("movieID", movieID), slog.String("error", err.Error()))
			h.respondMessage(w, r, http.StatusInternalServerError, "Error finding movie")
		}
		return
	}
	h.respondJSON(w, r, http.StatusOK, movie)
}

// CreateMovie validates the body, assigns a fresh id and stores the movie.
func (h *MovieHandler) CreateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP CreateMovie request received", slog.String("path", r.URL.Path))

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	movie, err := h.validator.ValidateFull(ctx, body)
	if err != nil {
		h.logger.WarnContext(ctx, "Movie creation request validation failed", slog.String("error", err.Error()))
		h.respondInvalid(w, r, err)
		return
	}
	movie.ID = h.newID()

	if err := h.store.Create(ctx, &movie); err != nil {
		if errors.Is(err, store.ErrMovieAlreadyExists) {
			h.logger.WarnContext(ctx, "Generated movie id already exists in store", slog.String("movieID", movie.ID))
			h.respondMessage(w, r, http.StatusConflict, "Movie with this id already exists")
		} else {
			h.logger.ErrorContext(ctx, "Failed to create movie in store", slog.String("movieID", movie.ID), slog.String("error", err.Error()))
			h.respondMessage(w, r, http.StatusInternalServerError, "Failed to create movie")
		}
		return
	}

	h.logger.InfoContext(ctx, "Movie created successfully", slog.String("movieID", movie.ID), slog.String("title", movie.Title))
	h.respondJSON(w, r, http.StatusCreated, movie)
}

// UpdateMovie applies a partial update. Validation runs before the lookup, so an
// invalid body is a 400 even for an unknown id.
func (h *MovieHandler) UpdateMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["id"]
	h.logger.InfoContext(ctx, "UpdateMovie endpoint hit", slog.String("movieID", movieID))

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	patch, err := h.validator.ValidatePartial(ctx, body)
	if err != nil {
		h.logger.WarnContext(ctx, "Movie update request validation failed", slog.String("movieID", movieID), slog.String("error", err.Error()))
		h.respondInvalid(w, r, err)
		return
	}

	movie, err := h.store.Update(ctx, movieID, patch)
	if err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.respondMessage(w, r, http.StatusNotFound, msgMovieNotFound)
		} else {
			h.logger.ErrorContext(ctx, "Failed to update movie in store", slog.String("movieID", movieID), slog.String("error", err.Error()))
			h.respondMessage(w, r, http.StatusInternalServerError, "Failed to update movie")
		}
		return
	}

	h.logger.InfoContext(ctx, "Movie updated successfully", slog.String("movieID", movieID))
	h.respondJSON(w, r, http.StatusOK, movie)
}

// DeleteMovie removes a movie.
func (h *MovieHandler) DeleteMovie(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	movieID := mux.Vars(r)["id"]
	h.logger.InfoContext(ctx, "DeleteMovie endpoint hit", slog.String("movieID", movieID))

	if err := h.store.Delete(ctx, movieID); err != nil {
		if errors.Is(err, store.ErrMovieNotFound) {
			h.respondMessage(w, r, http.StatusNotFound, msgMovieNotFound)
		} else {
			h.logger.ErrorContext(ctx, "Failed to delete movie from store", slog.String("movieID", movieID), slog.String("error", err.Error()))
			h.respondMessage(w, r, http.StatusInternalServerError, "Failed to delete movie")
		}
		return
	}

	h.logger.InfoContext(ctx, "Movie deleted successfully", slog.String("movieID", movieID))
	h.respondMessage(w, r, http.StatusOK, msgMovieDeleted)
}
