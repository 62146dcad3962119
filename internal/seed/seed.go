// Package seed loads the dataset the store starts with.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"movies-api/internal/domain"
	"movies-api/internal/validation"
)

//go:embed movies.json
var defaultMovies []byte

// Load reads the seed dataset from path, or the embedded dataset when path is empty.
// Every record must pass validation and carry a unique id.
func Load(ctx context.Context, path string, v *validation.Validator) ([]domain.Movie, error) {
	if path == "" {
		return Decode(ctx, bytes.NewReader(defaultMovies), v)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	movies, err := Decode(ctx, f, v)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return movies, nil
}

// Decode parses and validates a JSON array of movies.
func Decode(ctx context.Context, r io.Reader, v *validation.Validator) ([]domain.Movie, error) {
	var movies []domain.Movie
	if err := json.NewDecoder(r).Decode(&movies); err != nil {
		return nil, fmt.Errorf("decode seed movies: %w", err)
	}
	seen := make(map[string]int, len(movies))
	for i := range movies {
		if err := v.ValidateMovie(ctx, &movies[i]); err != nil {
			return nil, fmt.Errorf("seed movie #%d (%q): %w", i, movies[i].Title, err)
		}
		if j, dup := seen[movies[i].ID]; dup {
			return nil, fmt.Errorf("seed movie #%d reuses id %s of movie #%d", i, movies[i].ID, j)
		}
		seen[movies[i].ID] = i
	}
	return movies, nil
}
