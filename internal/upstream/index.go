package upstream

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"torrentfront/pkg/models"
)

const indexService = "index"

type IndexConfig struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
}

// IndexClient is a thin HTTP client for the torrent index API.
type IndexClient struct {
	baseURL string
	http    *http.Client
}

func NewIndexClient(cfg IndexConfig) *IndexClient {
	return &IndexClient{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		http:    newHTTPClient(cfg.Client, cfg.Timeout),
	}
}

type Page struct {
	Torrents []models.Torrent `json:"torrents"`
	Total    int              `json:"total"`
}

func (c *IndexClient) List(ctx context.Context, page, limit int) (*Page, error) {
	q := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/torrents?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build list request")
	}

	var out Page
	if err := doJSON(ctx, c.http, indexService, "list", req, &out); err != nil {
		return nil, err
	}
	out.Torrents = validRecords("list", out.Torrents)
	return &out, nil
}

func (c *IndexClient) Get(ctx context.Context, id int64) (*models.Torrent, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/torrents/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build get request")
	}

	var out models.Torrent
	if err := doJSON(ctx, c.http, indexService, "get", req, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, errors.Wrap(err, "index get")
	}
	return &out, nil
}

// Search passes optional category and media type through; empty values are
// left off the query string.
func (c *IndexClient) Search(ctx context.Context, query, category, mediaType string) ([]models.Torrent, error) {
	q := url.Values{"query": {query}}
	if category != "" {
		q.Set("category", category)
	}
	if mediaType != "" {
		q.Set("media_type", mediaType)
	}
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/torrents/search?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build search request")
	}

	out := []models.Torrent{}
	if err := doJSON(ctx, c.http, indexService, "search", req, &out); err != nil {
		return nil, err
	}
	return validRecords("search", out), nil
}

// Upload is the multipart form accepted by the index. Fields are sent as
// given, file parts keep their original names.
type Upload struct {
	Fields      map[string]string
	TorrentFile *FilePart
	Screenshots []FilePart
}

type FilePart struct {
	Field    string
	Filename string
	Data     []byte
}

func (u Upload) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range u.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", errors.Wrapf(err, "write field %s", k)
		}
	}

	parts := u.Screenshots
	if u.TorrentFile != nil {
		parts = append([]FilePart{*u.TorrentFile}, parts...)
	}
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.Field, p.Filename)
		if err != nil {
			return nil, "", errors.Wrapf(err, "create part %s", p.Field)
		}
		if _, err := fw.Write(p.Data); err != nil {
			return nil, "", errors.Wrapf(err, "write part %s", p.Field)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", errors.Wrap(err, "close multipart")
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *IndexClient) Create(ctx context.Context, u Upload) (*models.Torrent, error) {
	body, contentType, err := u.encode()
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/torrents", body)
	if err != nil {
		return nil, errors.Wrap(err, "build create request")
	}
	req.Header.Set("Content-Type", contentType)

	var out models.Torrent
	if err := doJSON(ctx, c.http, indexService, "create", req, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, errors.Wrap(err, "index create")
	}
	return &out, nil
}

// validRecords drops records that break the torrent invariants. One bad
// row should not cost the whole page.
func validRecords(op string, ts []models.Torrent) []models.Torrent {
	out := make([]models.Torrent, 0, len(ts))
	for _, t := range ts {
		if err := t.Validate(); err != nil {
			log.WithError(err).WithField("op", op).Warn("dropping invalid index record")
			continue
		}
		out = append(out, t)
	}
	return out
}

// Ping checks that the index answers at all; any HTTP response counts.
func (c *IndexClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/torrents?page=1&limit=1", nil)
	if err != nil {
		return errors.Wrap(err, "build ping request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "index ping")
	}
	resp.Body.Close()
	return nil
}
