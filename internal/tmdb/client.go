// Package tmdb reads movie and tv metadata from The Movie Database.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"torrentfront/internal/metrics"
	"torrentfront/internal/telemetry"
	"torrentfront/pkg/models"
)

const (
	defaultBaseURL      = "https://api.themoviedb.org/3"
	defaultImageBaseURL = "https://image.tmdb.org/t/p"
	defaultCacheTTL     = 24 * time.Hour
	maxBodyBytes        = 512 * 1024
)

type Client struct {
	apiKey    string
	baseURL   string
	imageBase string
	http      *http.Client
	cache     Cache
	cacheTTL  time.Duration
}

type Config struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
	Client       *http.Client
	// Cache is optional; nil disables cross-request caching.
	Cache    Cache
	CacheTTL time.Duration
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	imageBase := strings.TrimSpace(cfg.ImageBaseURL)
	if imageBase == "" {
		imageBase = defaultImageBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = telemetry.HTTPClient(10 * time.Second)
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &Client{
		apiKey:    strings.TrimSpace(cfg.APIKey),
		baseURL:   strings.TrimRight(baseURL, "/"),
		imageBase: strings.TrimRight(imageBase, "/"),
		http:      httpClient,
		cache:     cfg.Cache,
		cacheTTL:  cacheTTL,
	}
}

func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type searchResponse struct {
	Results []models.Metadata `json:"results"`
}

// Search returns the catalog matches for query. Every result is tagged with
// kind since the per-kind endpoints leave media_type out.
func (c *Client) Search(ctx context.Context, query string, kind models.MediaKind) ([]models.Metadata, error) {
	if !kind.Valid() {
		return nil, errors.Errorf("tmdb: invalid kind %q", kind)
	}
	query = strings.TrimSpace(query)
	key := fmt.Sprintf("search:%s:%s", kind, strings.ToLower(query))

	var resp searchResponse
	if c.cached(ctx, key, &resp.Results) {
		return resp.Results, nil
	}

	if err := c.get(ctx, "search", "/search/"+string(kind), url.Values{"query": {query}}, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []models.Metadata{}
	}
	for i := range resp.Results {
		resp.Results[i].Kind = kind
	}
	c.store(ctx, key, resp.Results)
	return resp.Results, nil
}

func (c *Client) Details(ctx context.Context, id int64, kind models.MediaKind) (*models.Metadata, error) {
	if !kind.Valid() {
		return nil, errors.Errorf("tmdb: invalid kind %q", kind)
	}
	key := fmt.Sprintf("details:%s:%d", kind, id)

	var m models.Metadata
	if c.cached(ctx, key, &m) {
		return &m, nil
	}

	if err := c.get(ctx, "details", "/"+string(kind)+"/"+strconv.FormatInt(id, 10), nil, &m); err != nil {
		return nil, err
	}
	m.Kind = kind
	c.store(ctx, key, m)
	return &m, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.UpstreamRequestsTotal.WithLabelValues("tmdb", op, status).Inc()
		metrics.UpstreamRequestDuration.WithLabelValues("tmdb", op).Observe(time.Since(start).Seconds())
	}()

	q := url.Values{"api_key": {c.apiKey}}
	for k, vs := range params {
		q[k] = vs
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "tmdb: build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "tmdb")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return errors.Errorf("TMDb API error: %s", http.StatusText(resp.StatusCode))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return errors.Wrap(err, "tmdb: decode response")
	}
	return nil
}

func (c *Client) cached(ctx context.Context, key string, out any) bool {
	if c.cache == nil {
		return false
	}
	data, ok := c.cache.Get(ctx, key)
	if !ok || json.Unmarshal(data, out) != nil {
		metrics.CacheMissesTotal.Inc()
		return false
	}
	metrics.CacheHitsTotal.Inc()
	return true
}

func (c *Client) store(ctx context.Context, key string, v any) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.cacheTTL); err != nil {
		log.WithError(err).WithField("key", key).Debug("tmdb cache write failed")
	}
}
