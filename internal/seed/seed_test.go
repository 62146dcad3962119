package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"movies-api/internal/validation"
)

func TestLoadEmbeddedDataset(t *testing.T) {
	movies, err := Load(context.Background(), "", validation.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(movies) == 0 {
		t.Fatal("embedded dataset is empty")
	}
	var drama bool
	for _, m := range movies {
		if m.HasGenre("drama") {
			drama = true
		}
	}
	if !drama {
		t.Fatal("expected at least one Drama movie in the seed")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.json")
	data := `[{"id":"x1","title":"Up","year":2009,"director":"Pete Docter","duration":96,"poster":"https://posters.example.com/up.jpg","genre":["Animation"]}]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	movies, err := Load(context.Background(), path, validation.New())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(movies) != 1 || movies[0].ID != "x1" || movies[0].Rate != 0 {
		t.Fatalf("unexpected movies: %+v", movies)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"), validation.New())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestDecodeRejectsInvalidRecords(t *testing.T) {
	tests := map[string]string{
		"not an array": `{"id":"x"}`,
		"missing id":   `[{"title":"Up","year":2009,"director":"Pete Docter","duration":96,"poster":"https://p.example/up.jpg","genre":["Animation"]}]`,
		"bad genre":    `[{"id":"x","title":"Up","year":2009,"director":"Pete Docter","duration":96,"poster":"https://p.example/up.jpg","genre":["Cartoon"]}]`,
		"duplicate id": `[{"id":"x","title":"Up","year":2009,"director":"Pete Docter","duration":96,"poster":"https://p.example/up.jpg","genre":["Animation"]},
			{"id":"x","title":"Coco","year":2017,"director":"Lee Unkrich","duration":105,"poster":"https://p.example/coco.jpg","genre":["Animation"]}]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(context.Background(), strings.NewReader(data), validation.New()); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeWrapsValidationError(t *testing.T) {
	data := `[{"id":"x","title":"","year":2009,"director":"Pete Docter","duration":96,"poster":"https://p.example/up.jpg","genre":["Animation"]}]`
	_, err := Decode(context.Background(), strings.NewReader(data), validation.New())
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected wrapped *validation.Error, got %v", err)
	}
}
