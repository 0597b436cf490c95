package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"torrentfront/internal/auth"
	"torrentfront/internal/directory"
	"torrentfront/internal/events"
	"torrentfront/internal/metrics"
	"torrentfront/internal/tmdb"
	"torrentfront/pkg/database"
	"torrentfront/pkg/utils"
)

func testRouter(t *testing.T) (*gin.Engine, auth.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "t.db")})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	reg := prometheus.NewRegistry()
	metrics.Register(reg)

	tokens := auth.TokenService{Secret: []byte("s"), Issuer: "t", Duration: time.Hour}
	r := NewRouter(Deps{
		DB:        db,
		Directory: directory.New(nil, nil, directory.Config{MockOnly: true}),
		Catalog:   tmdb.NewClient(tmdb.Config{}),
		Hub:       events.NewHub(),
		Tokens:    tokens,
		Server:    utils.ServerConfig{CORSOrigins: []string{"*"}, RateLimitRPS: 100, RateLimitBurst: 100},
		Gatherer:  reg,
	})
	return r, tokens
}

func TestRouter(t *testing.T) {
	r, tokens := testRouter(t)
	userTok, _, _ := tokens.Sign(&auth.User{ID: "1", Username: "user"})
	adminTok, _, _ := tokens.Sign(&auth.User{ID: "2", Username: "admin", IsAdmin: true})

	cases := []struct {
		method, path, token string
		status              int
		location            string
	}{
		{http.MethodGet, "/health", "", http.StatusOK, ""},
		{http.MethodGet, "/ready", "", http.StatusOK, ""},
		{http.MethodGet, "/api/torrents", "", http.StatusOK, ""},
		{http.MethodGet, "/api/tmdb", "", http.StatusBadRequest, ""},
		{http.MethodGet, "/settings", "", http.StatusFound, "/login"},
		{http.MethodGet, "/profile", userTok, http.StatusOK, ""},
		{http.MethodGet, "/admin/status", userTok, http.StatusFound, "/"},
		{http.MethodGet, "/admin/status", adminTok, http.StatusOK, ""},
		{http.MethodPost, "/api/upload", "", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.AddCookie(&http.Cookie{Name: auth.TokenCookie, Value: tc.token})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != tc.status {
			t.Errorf("%s %s: status %d, want %d", tc.method, tc.path, w.Code, tc.status)
			continue
		}
		if tc.location != "" && w.Header().Get("Location") != tc.location {
			t.Errorf("%s %s: location %q", tc.method, tc.path, w.Header().Get("Location"))
		}
	}
}

func TestRouter_Metrics(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/torrents", nil))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "torrentfront_http_requests_total") {
		t.Fatal("expected http request counter in /metrics output")
	}
}
