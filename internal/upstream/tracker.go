package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"torrentfront/pkg/models"
)

const trackerService = "tracker"

type TrackerConfig struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
	Client   *http.Client
}

// TrackerClient reads swarm statistics from the tracker API using basic auth.
type TrackerClient struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

func NewTrackerClient(cfg TrackerConfig) *TrackerClient {
	return &TrackerClient{
		baseURL:  strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		username: cfg.Username,
		password: cfg.Password,
		http:     newHTTPClient(cfg.Client, cfg.Timeout),
	}
}

func (c *TrackerClient) Stats(ctx context.Context, infoHash string) (*models.TorrentStats, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/stats/torrent/"+url.PathEscape(infoHash), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build stats request")
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	var out models.TorrentStats
	if err := doJSON(ctx, c.http, trackerService, "stats", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
