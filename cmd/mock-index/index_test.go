package main

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"torrentfront/internal/seed"
	"torrentfront/internal/upstream"
)

func newTestServer(t *testing.T) (*upstream.IndexClient, *upstream.TrackerClient, string, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	newIndex(seed.Default()).routes(r.Group("/api"), gin.Accounts{"admin": "password"})
	srv := httptest.NewServer(r)

	index := upstream.NewIndexClient(upstream.IndexConfig{BaseURL: srv.URL + "/api"})
	tracker := upstream.NewTrackerClient(upstream.TrackerConfig{BaseURL: srv.URL + "/api", Username: "admin", Password: "password"})
	return index, tracker, srv.URL + "/api", srv.Close
}

func TestMockIndex_ListGetSearch(t *testing.T) {
	index, _, _, done := newTestServer(t)
	defer done()
	ctx := context.Background()

	page, err := index.List(ctx, 2, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != len(seed.Default()) || len(page.Torrents) != 10 || page.Torrents[0].ID != 11 {
		t.Fatalf("unexpected page total=%d len=%d", page.Total, len(page.Torrents))
	}

	got, err := index.Get(ctx, 3)
	if err != nil || got.ID != 3 {
		t.Fatalf("get: %+v %v", got, err)
	}
	if _, err := index.Get(ctx, 9999); !upstream.IsStatus(err, 404) {
		t.Fatalf("expected 404 status error, got %v", err)
	}

	needle := seed.Default()[0].Title[:4]
	results, err := index.Search(ctx, needle, "", "")
	if err != nil || len(results) == 0 {
		t.Fatalf("search %q: %d results, %v", needle, len(results), err)
	}
}

func TestMockIndex_CreateAndStats(t *testing.T) {
	index, tracker, base, done := newTestServer(t)
	defer done()
	ctx := context.Background()

	first, err := index.Create(ctx, upstream.Upload{Fields: map[string]string{"name": "Fresh Upload", "media_type": "movie"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := index.Create(ctx, upstream.Upload{Fields: map[string]string{"name": "Another"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.ID != first.ID+1 {
		t.Fatalf("ids must keep increasing: %d then %d", first.ID, second.ID)
	}

	fetched, err := index.Get(ctx, first.ID)
	if err != nil || fetched.Name != "Fresh Upload" {
		t.Fatalf("uploaded torrent not served: %+v %v", fetched, err)
	}

	st, err := tracker.Stats(ctx, first.InfoHash)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Seeders != 0 || st.Leechers != 0 {
		t.Fatalf("new upload should have an empty swarm: %+v", st)
	}

	bad := upstream.NewTrackerClient(upstream.TrackerConfig{BaseURL: base, Username: "admin", Password: "wrong"})
	if _, err := bad.Stats(ctx, first.InfoHash); !upstream.IsStatus(err, 401) {
		t.Fatalf("expected 401, got %v", err)
	}
}
