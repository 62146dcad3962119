package domain

import (
	"reflect"
	"testing"

	"github.com/lib/pq"
)

func sampleMovie() Movie {
	return Movie{
		ID:       "a1",
		Title:    "The Shawshank Redemption",
		Year:     1994,
		Director: "Frank Darabont",
		Duration: 142,
		Rate:     9.3,
		Poster:   "https://posters.example.com/shawshank.jpg",
		Genre:    pq.StringArray{"Drama"},
	}
}

func TestApplyOnlyTouchesPresentFields(t *testing.T) {
	base := sampleMovie()
	year := 2020
	got := MoviePatch{Year: &year}.Apply(base)

	want := sampleMovie()
	want.Year = 2020
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected merge result: got %+v want %+v", got, want)
	}
	if base.Year != 1994 {
		t.Fatalf("apply mutated its input: year = %d", base.Year)
	}
}

func TestApplyReplacesGenreWithoutAliasing(t *testing.T) {
	genres := []string{"Crime", "Thriller"}
	got := MoviePatch{Genre: genres}.Apply(sampleMovie())

	genres[0] = "Horror"
	if got.Genre[0] != "Crime" {
		t.Fatalf("merged genre shares backing array with patch: %v", got.Genre)
	}
}

func TestEmptyPatchIsNoop(t *testing.T) {
	p := MoviePatch{}
	if !p.IsEmpty() {
		t.Fatal("zero patch should be empty")
	}
	if got := p.Apply(sampleMovie()); !reflect.DeepEqual(got, sampleMovie()) {
		t.Fatalf("empty patch changed the record: %+v", got)
	}
}

func TestHasGenreIgnoresCase(t *testing.T) {
	m := sampleMovie()
	for _, g := range []string{"Drama", "drama", "DRAMA"} {
		if !m.HasGenre(g) {
			t.Errorf("HasGenre(%q) = false, want true", g)
		}
	}
	if m.HasGenre("Dram") {
		t.Error("HasGenre matched a prefix")
	}
}

func TestCloneCopiesGenre(t *testing.T) {
	m := sampleMovie()
	c := m.Clone()
	c.Genre[0] = "Comedy"
	if m.Genre[0] != "Drama" {
		t.Fatalf("clone shares genre slice: %v", m.Genre)
	}
}

func TestCreateRequestDefaultsRate(t *testing.T) {
	req := CreateMovieRequest{Title: "Up", Year: 2009, Director: "Pete Docter", Duration: 96, Poster: "https://x.example/up.jpg", Genre: []string{"Animation"}}
	if got := req.Movie().Rate; got != 0 {
		t.Fatalf("rate = %v, want 0", got)
	}
	rate := 8.3
	req.Rate = &rate
	if got := req.Movie().Rate; got != 8.3 {
		t.Fatalf("rate = %v, want 8.3", got)
	}
}

func TestIsGenreIsCaseSensitive(t *testing.T) {
	if !IsGenre("Sci-Fi") {
		t.Error("Sci-Fi should be a genre")
	}
	if IsGenre("sci-fi") {
		t.Error("genre vocabulary must be case-sensitive")
	}
}
