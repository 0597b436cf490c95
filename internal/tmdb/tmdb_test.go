package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"torrentfront/pkg/models"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = value
	return nil
}

func newTestClient(t *testing.T, h http.HandlerFunc, cache Cache) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "k", BaseURL: srv.URL, Client: srv.Client(), Cache: cache})
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "k" || r.URL.Query().Get("query") != "alien" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":348,"title":"Alien","poster_path":"/a.jpg","overview":"o","release_date":"1979-05-25"}]}`))
	}, nil)

	got, err := c.Search(context.Background(), "alien", models.MediaKindMovie)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != 348 || got[0].DisplayTitle() != "Alien" || got[0].Kind != models.MediaKindMovie {
		t.Fatalf("unexpected results %+v", got)
	}
}

func TestDetails_TV(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/1396" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":1396,"name":"Breaking Bad","poster_path":null,"first_air_date":"2008-01-20"}`))
	}, nil)

	m, err := c.Details(context.Background(), 1396, models.MediaKindTV)
	if err != nil {
		t.Fatalf("Details: %v", err)
	}
	if m.DisplayTitle() != "Breaking Bad" || m.PosterPath != nil || m.Kind != models.MediaKindTV {
		t.Fatalf("unexpected metadata %+v", m)
	}
}

func TestDetails_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, nil)

	_, err := c.Details(context.Background(), 1, models.MediaKindMovie)
	if err == nil || !strings.Contains(err.Error(), "Unauthorized") {
		t.Fatalf("expected status text in error, got %v", err)
	}
	if _, err := c.Search(context.Background(), "x", "anime"); err == nil {
		t.Fatal("expected error for invalid kind")
	}
}

func TestDetails_Cache(t *testing.T) {
	var calls atomic.Int32
	cache := &memCache{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"id":603,"title":"The Matrix"}`))
	}, cache)

	for i := 0; i < 3; i++ {
		m, err := c.Details(context.Background(), 603, models.MediaKindMovie)
		if err != nil || m.Title != "The Matrix" {
			t.Fatalf("Details: %+v %v", m, err)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got %d", calls.Load())
	}
	if _, ok := cache.data["details:movie:603"]; !ok {
		t.Fatalf("cache key missing: %v", cache.data)
	}
}

func TestRedisCache_Unreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	c := NewRedisCache(rdb)
	defer c.Close()

	if _, ok := c.Get(context.Background(), "x"); ok {
		t.Fatal("expected miss")
	}
	if err := c.Set(context.Background(), "x", []byte("1"), time.Minute); err == nil {
		t.Fatal("expected write error")
	}
	if _, err := DialRedis(context.Background(), "not a url"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestImageURL(t *testing.T) {
	c := NewClient(Config{})
	cases := []struct{ path, size, want string }{
		{"/abc.jpg", "w500", "https://image.tmdb.org/t/p/w500/abc.jpg"},
		{"abc.jpg", "original", "https://image.tmdb.org/t/p/original/abc.jpg"},
		{"/abc.jpg", "", "https://image.tmdb.org/t/p/w500/abc.jpg"},
		{"", "w500", PlaceholderImage},
	}
	for _, tc := range cases {
		if got := c.ImageURL(tc.path, tc.size); got != tc.want {
			t.Errorf("ImageURL(%q,%q) = %q, want %q", tc.path, tc.size, got, tc.want)
		}
	}
}

type fakeCatalog struct {
	mu    sync.Mutex
	calls map[Key]int
	fail  map[int64]bool
}

func (f *fakeCatalog) Details(_ context.Context, id int64, kind models.MediaKind) (*models.Metadata, error) {
	f.mu.Lock()
	f.calls[Key{Kind: kind, ID: id}]++
	f.mu.Unlock()
	if f.fail[id] {
		return nil, errors.New("boom")
	}
	poster := "/p.jpg"
	return &models.Metadata{ID: id, Kind: kind, Title: "T", PosterPath: &poster, Overview: "ov"}, nil
}

func (f *fakeCatalog) ImageURL(path, size string) string {
	return (&Client{imageBase: defaultImageBaseURL}).ImageURL(path, size)
}

func TestEnrich(t *testing.T) {
	id := func(v int64) *int64 { return &v }
	kind := func(k models.MediaKind) *models.MediaKind { return &k }

	torrents := []models.Torrent{
		{ID: 1, TMDBID: id(10), MediaType: kind(models.MediaKindMovie)},
		{ID: 2, TMDBID: id(10), MediaType: kind(models.MediaKindMovie)},
		{ID: 3, TMDBID: id(10), MediaType: kind(models.MediaKindTV)},
		{ID: 4, TMDBID: id(99), MediaType: kind(models.MediaKindMovie)},
		{ID: 5, TMDBID: id(11)},
		{ID: 6},
	}
	cat := &fakeCatalog{calls: map[Key]int{}, fail: map[int64]bool{99: true}}

	got := NewEnricher(cat, 2).Enrich(context.Background(), torrents)

	if len(cat.calls) != 3 {
		t.Fatalf("expected 3 distinct lookups, got %v", cat.calls)
	}
	for k, n := range cat.calls {
		if n != 1 {
			t.Fatalf("key %+v looked up %d times", k, n)
		}
	}
	if len(got) != 2 {
		t.Fatalf("failed lookup must be omitted, got %v", got)
	}
	d := got[Key{Kind: models.MediaKindMovie, ID: 10}]
	if d.PosterURL != "https://image.tmdb.org/t/p/w500/p.jpg" || d.BackdropURL != PlaceholderImage || d.Overview != "ov" {
		t.Fatalf("unexpected decoration %+v", d)
	}
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search/tv":
			_, _ = w.Write([]byte(`{"results":[{"id":1,"name":"Show"}]}`))
		case "/movie/5":
			_, _ = w.Write([]byte(`{"id":5,"title":"Film"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}, nil)

	r := gin.New()
	NewHandler(c).RegisterRoutes(r.Group("/api/tmdb"))

	cases := []struct {
		url    string
		status int
		check  func(body []byte)
	}{
		{"/api/tmdb?query=show&type=tv", http.StatusOK, func(body []byte) {
			var out []models.Metadata
			if err := json.Unmarshal(body, &out); err != nil || len(out) != 1 || out[0].Name != "Show" {
				t.Errorf("unexpected search body %s", body)
			}
		}},
		{"/api/tmdb?id=5&type=movie", http.StatusOK, func(body []byte) {
			var out models.Metadata
			if err := json.Unmarshal(body, &out); err != nil || out.Title != "Film" {
				t.Errorf("unexpected details body %s", body)
			}
		}},
		{"/api/tmdb?query=show", http.StatusBadRequest, func(body []byte) {
			if !strings.Contains(string(body), "Missing query or type parameter") {
				t.Errorf("unexpected body %s", body)
			}
		}},
		{"/api/tmdb?type=tv", http.StatusBadRequest, nil},
		{"/api/tmdb?id=abc&type=tv", http.StatusBadRequest, nil},
		{"/api/tmdb?id=6&type=movie", http.StatusInternalServerError, nil},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.url, nil))
		if w.Code != tc.status {
			t.Errorf("%s: status %d, want %d (%s)", tc.url, w.Code, tc.status, w.Body.String())
			continue
		}
		if tc.check != nil {
			tc.check(w.Body.Bytes())
		}
	}
}
