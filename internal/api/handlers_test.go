package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"movies-api/internal/cors"
	"movies-api/internal/domain"
	"movies-api/internal/store"
	"movies-api/internal/validation"

	"github.com/lib/pq"
)

const dramaID = "dcdd0fad-a94c-4810-8acc-5f108d3b18c3"

const newMovieBody = `{
	"title": "Parasite",
	"year": 2019,
	"director": "Bong Joon-ho",
	"duration": 132,
	"poster": "https://posters.example.com/parasite.jpg",
	"genre": ["Drama", "Thriller"]
}`

type testEnv struct {
	store  *store.MemoryMovieStore
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	seed := []domain.Movie{
		{ID: dramaID, Title: "The Shawshank Redemption", Year: 1994, Director: "Frank Darabont", Duration: 142, Rate: 9.3, Poster: "https://posters.example.com/shawshank.jpg", Genre: pq.StringArray{"Drama"}},
		{ID: "c906673b-3948-4402-ac7f-73ac3a9e3105", Title: "The Matrix", Year: 1999, Director: "Lana Wachowski", Duration: 136, Rate: 8.7, Poster: "https://posters.example.com/matrix.jpg", Genre: pq.StringArray{"Action", "Sci-Fi"}},
	}
	s := store.NewMemoryMovieStore(seed, logger)
	h := NewMovieHandler(s, logger, validation.New())
	policy := cors.NewPolicy(cors.DefaultAllowedOrigins, cors.WithLogger(logger))
	return &testEnv{store: s, router: NewRouter(h, policy)}
}

func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) count(t *testing.T) int {
	t.Helper()
	n, err := e.store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	return n
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestGetMoviesReturnsAll(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/movies", "")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type = %q", ct)
	}
	movies := decode[[]domain.Movie](t, rr)
	if len(movies) != 2 || movies[0].ID != dramaID {
		t.Fatalf("unexpected movies: %+v", movies)
	}
}

func TestGetMoviesGenreFilterIsCaseInsensitive(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/movies?genre=drama", "")

	movies := decode[[]domain.Movie](t, rr)
	if len(movies) != 1 || movies[0].ID != dramaID {
		t.Fatalf("expected only the Drama movie, got %+v", movies)
	}

	rr = env.do(t, http.MethodGet, "/movies?genre=western", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected 200 with empty array, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestGetMovieByID(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/movies/"+dramaID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if m := decode[domain.Movie](t, rr); m.Title != "The Shawshank Redemption" {
		t.Fatalf("unexpected movie: %+v", m)
	}

	rr = env.do(t, http.MethodGet, "/movies/does-not-exist", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"message":"Movie not found"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestCreateMovieAssignsFreshIDAndDefaultRate(t *testing.T) {
	env := newTestEnv(t)

	first := env.do(t, http.MethodPost, "/movies", newMovieBody)
	if first.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", first.Code, first.Body.String())
	}
	created := decode[domain.Movie](t, first)
	if created.ID == "" || created.ID == dramaID {
		t.Fatalf("expected fresh id, got %q", created.ID)
	}
	if created.Rate != 0 || created.Title != "Parasite" || created.Year != 2019 || len(created.Genre) != 2 {
		t.Fatalf("unexpected created movie: %+v", created)
	}

	second := decode[domain.Movie](t, env.do(t, http.MethodPost, "/movies", newMovieBody))
	if second.ID == created.ID {
		t.Fatalf("ids must not repeat: %q", second.ID)
	}

	rr := env.do(t, http.MethodGet, "/movies/"+created.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("created movie not readable: %d", rr.Code)
	}
	if env.count(t) != 4 {
		t.Fatalf("count = %d, want 4", env.count(t))
	}
}

func TestCreateMovieKeepsExplicitRate(t *testing.T) {
	env := newTestEnv(t)
	body := strings.Replace(newMovieBody, `"duration"`, `"rate": 8.5, "duration"`, 1)
	created := decode[domain.Movie](t, env.do(t, http.MethodPost, "/movies", body))
	if created.Rate != 8.5 {
		t.Fatalf("rate = %v, want 8.5", created.Rate)
	}
}

func TestCreateMovieInvalidLeavesStoreUnchanged(t *testing.T) {
	env := newTestEnv(t)
	before := env.count(t)

	body := strings.Replace(newMovieBody, `"title": "Parasite",`, "", 1)
	rr := env.do(t, http.MethodPost, "/movies", body)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	resp := decode[map[string][]validation.Issue](t, rr)
	issues := resp["error"]
	if len(issues) == 0 || issues[0].Field != "title" {
		t.Fatalf("expected title issue, got %+v", resp)
	}
	if after := env.count(t); after != before {
		t.Fatalf("store changed: before %d after %d", before, after)
	}
}

func TestCreateMovieMalformedJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/movies", `{"title": `)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if _, ok := decode[map[string]json.RawMessage](t, rr)["error"]; !ok {
		t.Fatalf("expected error key, got %s", rr.Body.String())
	}
}

func TestCreateMovieRejectsTrailingData(t *testing.T) {
	env := newTestEnv(t)
	before := env.count(t)

	for _, body := range []string{newMovieBody + " garbage", newMovieBody + newMovieBody} {
		rr := env.do(t, http.MethodPost, "/movies", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rr.Code)
		}
		issues := decode[map[string][]validation.Issue](t, rr)["error"]
		if len(issues) != 1 || issues[0].Rule != "json" {
			t.Fatalf("expected a single json issue, got %+v", issues)
		}
	}
	if after := env.count(t); after != before {
		t.Fatalf("store changed: before %d after %d", before, after)
	}
}

func TestCreateMovieRejectsBlankTitle(t *testing.T) {
	env := newTestEnv(t)
	before := env.count(t)

	rr := env.do(t, http.MethodPost, "/movies", strings.Replace(newMovieBody, `"Parasite"`, `"   "`, 1))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	issues := decode[map[string][]validation.Issue](t, rr)["error"]
	if len(issues) == 0 || issues[0].Field != "title" || issues[0].Rule != "notblank" {
		t.Fatalf("expected title/notblank issue, got %+v", issues)
	}
	if after := env.count(t); after != before {
		t.Fatalf("store changed: before %d after %d", before, after)
	}
}

func TestCreateMovieIDCollisionIsConflict(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	s := store.NewMemoryMovieStore([]domain.Movie{
		{ID: dramaID, Title: "The Shawshank Redemption", Year: 1994, Director: "Frank Darabont", Duration: 142, Rate: 9.3, Poster: "https://posters.example.com/shawshank.jpg", Genre: pq.StringArray{"Drama"}},
	}, logger)
	h := NewMovieHandler(s, logger, validation.New())
	h.newID = func() string { return dramaID }
	router := NewRouter(h, cors.NewPolicy(nil, cors.WithLogger(logger)))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/movies", strings.NewReader(newMovieBody)))
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
	if n, _ := s.Count(context.Background()); n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	if got, _ := s.GetByID(context.Background(), dramaID); got.Title != "The Shawshank Redemption" {
		t.Fatalf("existing movie overwritten: %+v", got)
	}
	if !strings.Contains(logs.String(), "level=WARN") || strings.Contains(logs.String(), "level=ERROR") {
		t.Fatalf("id collision should log at warn, not error:\n%s", logs.String())
	}
}

func TestCreateMovieBodyTooLarge(t *testing.T) {
	env := newTestEnv(t)
	huge := `{"title": "` + strings.Repeat("a", maxBodyBytes) + `"}`
	rr := env.do(t, http.MethodPost, "/movies", huge)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestPatchMovieUpdatesOnlyGivenFields(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPatch, "/movies/"+dramaID, `{"year": 2020}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rr.Code, rr.Body.String())
	}
	got := decode[domain.Movie](t, rr)
	want := domain.Movie{ID: dramaID, Title: "The Shawshank Redemption", Year: 2020, Director: "Frank Darabont", Duration: 142, Rate: 9.3, Poster: "https://posters.example.com/shawshank.jpg", Genre: pq.StringArray{"Drama"}}
	if got.ID != want.ID || got.Title != want.Title || got.Year != want.Year || got.Director != want.Director ||
		got.Duration != want.Duration || got.Rate != want.Rate || got.Poster != want.Poster ||
		len(got.Genre) != 1 || got.Genre[0] != "Drama" {
		t.Fatalf("unexpected patched movie: %+v", got)
	}

	stored := decode[domain.Movie](t, env.do(t, http.MethodGet, "/movies/"+dramaID, ""))
	if stored.Year != 2020 {
		t.Fatalf("patch not persisted: %+v", stored)
	}
}

func TestPatchMovieIgnoresID(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPatch, "/movies/"+dramaID, `{"id": "hijack", "title": "Renamed"}`)
	if got := decode[domain.Movie](t, rr); got.ID != dramaID || got.Title != "Renamed" {
		t.Fatalf("unexpected patched movie: %+v", got)
	}
}

func TestPatchMovieEmptyBodyIsNoop(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPatch, "/movies/"+dramaID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decode[domain.Movie](t, rr); got.Year != 1994 {
		t.Fatalf("empty patch changed the record: %+v", got)
	}
}

func TestPatchMovieErrors(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPatch, "/movies/"+dramaID, `{"year": "soon"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid patch: status = %d, want 400", rr.Code)
	}

	rr = env.do(t, http.MethodPatch, "/movies/missing", `{"year": 2020}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status = %d, want 404", rr.Code)
	}

	rr = env.do(t, http.MethodPatch, "/movies/missing", `{"genre": ["Western"]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("invalid patch for unknown id: status = %d, want 400", rr.Code)
	}
}

func TestPatchMovieRejectsTrailingDataAndBlankFields(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{`{"year": 2020} garbage`, `{"year": 2020}{"year": 2021}`, `{"director": "  "}`} {
		rr := env.do(t, http.MethodPatch, "/movies/"+dramaID, body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %s: status = %d, want 400", body, rr.Code)
		}
	}
	got, err := env.store.GetByID(context.Background(), dramaID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Year != 1994 || got.Director != "Frank Darabont" {
		t.Fatalf("rejected patch changed the record: %+v", got)
	}
}

func TestDeleteMovieIsVisibleAndNotRepeatable(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodDelete, "/movies/"+dramaID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"message":"Movie deleted"}` {
		t.Fatalf("unexpected body: %s", got)
	}

	if rr := env.do(t, http.MethodGet, "/movies/"+dramaID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("deleted movie still readable: %d", rr.Code)
	}
	rr = env.do(t, http.MethodDelete, "/movies/"+dramaID, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete: status = %d, want 404", rr.Code)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != `{"message":"Movie not found"}` {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestCORSHeaders(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/movies", "", "Origin", "http://localhost:8080")
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8080" {
		t.Fatalf("allow-origin = %q", got)
	}

	rr = env.do(t, http.MethodDelete, "/movies/"+dramaID, "", "Origin", "http://evil.example")
	if rr.Code != http.StatusForbidden {
		t.Fatalf("disallowed origin: status = %d, want 403", rr.Code)
	}
	if env.count(t) != 2 {
		t.Fatal("rejected request must not reach the store")
	}

	rr = env.do(t, http.MethodOptions, "/movies/"+dramaID, "", "Origin", "http://midu.dev", "Access-Control-Request-Method", "DELETE")
	if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
		t.Fatalf("preflight: status = %d body = %q", rr.Code, rr.Body.String())
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, PATCH, DELETE" {
		t.Fatalf("allow-methods = %q", got)
	}
}

type failingStore struct{ store.MovieStore }

func (failingStore) List(context.Context, store.MovieListParams) ([]*domain.Movie, error) {
	return nil, errors.New("boom")
}

func (failingStore) GetByID(context.Context, string) (*domain.Movie, error) {
	return nil, errors.New("boom")
}

func TestStoreFailuresAreInternalErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewMovieHandler(failingStore{}, logger, validation.New())
	router := NewRouter(h, cors.NewPolicy(nil, cors.WithLogger(logger)))

	for _, target := range []string{"/movies", "/movies/x"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("%s: status = %d, want 500", target, rr.Code)
		}
	}
}
