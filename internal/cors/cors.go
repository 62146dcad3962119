// Package cors decides which browser origins may call the API and writes the
// matching Access-Control-* headers.
package cors

import (
	"log/slog"
	"net/http"
	"strings"
)

// DefaultAllowedOrigins is the compiled-in allow-list.
var DefaultAllowedOrigins = []string{
	"http://localhost:8080",
	"http://localhost:1234",
	"http://movies.com",
	"http://midu.dev",
}

// AllowedMethods are advertised on pre-flight responses.
var AllowedMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete}

// Policy holds the allow-list.
type Policy struct {
	allowed  map[string]struct{}
	wildcard bool
	logger   *slog.Logger
}

// Option configures a Policy.
type Option func(*Policy)

// WithWildcard answers allowed origins with "*" instead of echoing them back.
// Browsers then accept the response from any page, so it is off by default.
func WithWildcard() Option {
	return func(p *Policy) { p.wildcard = true }
}

// WithLogger sets the logger used for rejected origins.
func WithLogger(l *slog.Logger) Option {
	return func(p *Policy) { p.logger = l }
}

// NewPolicy creates a Policy allowing the given origins.
func NewPolicy(origins []string, opts ...Option) *Policy {
	p := &Policy{allowed: make(map[string]struct{}, len(origins)), logger: slog.Default()}
	for _, o := range origins {
		p.allowed[strings.TrimRight(o, "/")] = struct{}{}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsAllowed reports whether a request from origin may proceed. An empty origin
// (same-origin or non-browser client) is always allowed.
func (p *Policy) IsAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// Apply writes the allow-origin header for r and reports whether the origin is allowed.
// Nothing is written for rejected origins.
func (p *Policy) Apply(w http.ResponseWriter, r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if !p.IsAllowed(origin) {
		return false
	}
	if p.wildcard {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		return true
	}
	addVary(w.Header(), "Origin")
	if origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
	}
	return true
}

// Middleware rejects requests from origins outside the allow-list with a plain 403
// and decorates every other response with the allow-origin header.
func (p *Policy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !p.Apply(w, r) {
			p.logger.WarnContext(r.Context(), "Request rejected by CORS policy",
				slog.String("origin", r.Header.Get("Origin")),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path))
			http.Error(w, "origin not allowed", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Preflight answers an OPTIONS request with the allowed methods and an empty 200.
func (p *Policy) Preflight(w http.ResponseWriter, r *http.Request) {
	if !p.Apply(w, r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}
	w.Header().Set("Access-Control-Allow-Methods", strings.Join(AllowedMethods, ", "))
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.WriteHeader(http.StatusOK)
}

func addVary(h http.Header, value string) {
	for _, v := range h.Values("Vary") {
		if strings.EqualFold(v, value) {
			return
		}
	}
	h.Add("Vary", value)
}
