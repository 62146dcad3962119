package api

import (
	"net/http"

	"movies-api/internal/cors"

	"github.com/gorilla/mux"
)

// NewRouter wires the movie handlers. The CORS policy runs on every matched route,
// so disallowed origins are rejected before a handler touches the store.
func NewRouter(handler *MovieHandler, policy *cors.Policy) *mux.Router {
	router := mux.NewRouter()
	router.Use(policy.Middleware)

	moviesRouter := router.PathPrefix("/movies").Subrouter()
	moviesRouter.HandleFunc("", handler.GetMovies).Methods(http.MethodGet)
	moviesRouter.HandleFunc("", handler.CreateMovie).Methods(http.MethodPost)
	moviesRouter.HandleFunc("", policy.Preflight).Methods(http.MethodOptions)
	moviesRouter.HandleFunc("/{id}", handler.GetMovieByID).Methods(http.MethodGet)
	moviesRouter.HandleFunc("/{id}", handler.UpdateMovie).Methods(http.MethodPatch)
	moviesRouter.HandleFunc("/{id}", handler.DeleteMovie).Methods(http.MethodDelete)
	moviesRouter.HandleFunc("/{id}", policy.Preflight).Methods(http.MethodOptions)

	return router
}
