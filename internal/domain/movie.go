package domain

import (
	"strings"

	"github.com/lib/pq"
)

// Genres is the fixed vocabulary a movie genre is drawn from.
var Genres = []string{
	"Action",
	"Adventure",
	"Animation",
	"Biography",
	"Comedy",
	"Crime",
	"Drama",
	"Fantasy",
	"Horror",
	"Romance",
	"Sci-Fi",
	"Thriller",
}

// IsGenre reports whether g is part of the vocabulary. The check is case-sensitive.
func IsGenre(g string) bool {
	for _, known := range Genres {
		if g == known {
			return true
		}
	}
	return false
}

// Movie is a single record of the catalog.
type Movie struct {
	ID       string         `json:"id" db:"id"`
	Title    string         `json:"title" db:"title" validate:"required,notblank,max=255"`
	Year     int            `json:"year" db:"year" validate:"required,gte=1888,lte=2100"`
	Director string         `json:"director" db:"director" validate:"required,notblank,max=100"`
	Duration int            `json:"duration" db:"duration" validate:"required,gt=0"`
	Rate     float64        `json:"rate" db:"rate" validate:"gte=0,lte=10"`
	Poster   string         `json:"poster" db:"poster" validate:"required,url"`
	Genre    pq.StringArray `json:"genre" db:"genre" validate:"required,min=1,dive,genre"`
}

// Clone returns a deep copy, so callers never share the genre slice with a store.
func (m Movie) Clone() Movie {
	if m.Genre != nil {
		m.Genre = append(pq.StringArray(nil), m.Genre...)
	}
	return m
}

// HasGenre reports whether any of the movie's genres equals g, ignoring case.
func (m Movie) HasGenre(g string) bool {
	for _, genre := range m.Genre {
		if strings.EqualFold(genre, g) {
			return true
		}
	}
	return false
}

// CreateMovieRequest is the body of POST /movies.
type CreateMovieRequest struct {
	Title    string   `json:"title" validate:"required,notblank,max=255"`
	Year     int      `json:"year" validate:"required,gte=1888,lte=2100"`
	Director string   `json:"director" validate:"required,notblank,max=100"`
	Duration int      `json:"duration" validate:"required,gt=0"`
	Rate     *float64 `json:"rate,omitempty" validate:"omitnil,gte=0,lte=10"`
	Poster   string   `json:"poster" validate:"required,url"`
	Genre    []string `json:"genre" validate:"required,min=1,dive,genre"`
}

// Movie builds the normalized record. The ID is left empty; the caller assigns it.
func (r CreateMovieRequest) Movie() Movie {
	m := Movie{
		Title:    r.Title,
		Year:     r.Year,
		Director: r.Director,
		Duration: r.Duration,
		Poster:   r.Poster,
		Genre:    append(pq.StringArray(nil), r.Genre...),
	}
	if r.Rate != nil {
		m.Rate = *r.Rate
	}
	return m
}

// MoviePatch is the body of PATCH /movies/{id}. Nil fields are left untouched.
type MoviePatch struct {
	Title    *string  `json:"title,omitempty" validate:"omitnil,notblank,max=255"`
	Year     *int     `json:"year,omitempty" validate:"omitnil,gte=1888,lte=2100"`
	Director *string  `json:"director,omitempty" validate:"omitnil,notblank,max=100"`
	Duration *int     `json:"duration,omitempty" validate:"omitnil,gt=0"`
	Rate     *float64 `json:"rate,omitempty" validate:"omitnil,gte=0,lte=10"`
	Poster   *string  `json:"poster,omitempty" validate:"omitnil,url"`
	Genre    []string `json:"genre,omitempty" validate:"omitnil,min=1,dive,genre"`
}

// IsEmpty reports whether the patch changes nothing.
func (p MoviePatch) IsEmpty() bool {
	return p.Title == nil && p.Year == nil && p.Director == nil && p.Duration == nil &&
		p.Rate == nil && p.Poster == nil && p.Genre == nil
}

// Apply merges the patch over m and returns the result. m itself is not modified.
func (p MoviePatch) Apply(m Movie) Movie {
	out := m.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Year != nil {
		out.Year = *p.Year
	}
	if p.Director != nil {
		out.Director = *p.Director
	}
	if p.Duration != nil {
		out.Duration = *p.Duration
	}
	if p.Rate != nil {
		out.Rate = *p.Rate
	}
	if p.Poster != nil {
		out.Poster = *p.Poster
	}
	if p.Genre != nil {
		out.Genre = append(pq.StringArray(nil), p.Genre...)
	}
	return out
}
