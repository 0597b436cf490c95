package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"torrentfront/pkg/models"
)

type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAPIClient(baseURL, token string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		IsAdmin  bool   `json:"is_admin"`
	} `json:"user"`
}

type listResponse struct {
	Torrents   []models.Torrent `json:"torrents"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	TotalPages int              `json:"total_pages"`
	Source     string           `json:"source"`
}

func (c *apiClient) login(ctx context.Context, username, password string) (*loginResponse, error) {
	var out loginResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", map[string]string{"username": username, "password": password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) register(ctx context.Context, username, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/register", map[string]string{"username": username, "password": password}, nil)
}

func (c *apiClient) list(ctx context.Context, params url.Values) (*listResponse, error) {
	var out listResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/torrents?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) search(ctx context.Context, params url.Values) ([]models.Torrent, error) {
	var out []models.Torrent
	if err := c.doJSON(ctx, http.MethodGet, "/api/torrents?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) get(ctx context.Context, id int64) (*models.Torrent, error) {
	var out models.Torrent
	if err := c.doJSON(ctx, http.MethodGet, "/api/torrents/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) stats(ctx context.Context, id int64) (*models.TorrentStats, error) {
	var out models.TorrentStats
	if err := c.doJSON(ctx, http.MethodGet, "/api/torrents/"+strconv.FormatInt(id, 10)+"/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// upload posts fields and an optional .torrent file as multipart form data.
func (c *apiClient) upload(ctx context.Context, fields map[string]string, torrentPath string) (*models.Torrent, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, errors.Wrapf(err, "write field %s", k)
		}
	}
	if torrentPath != "" {
		data, err := os.ReadFile(torrentPath)
		if err != nil {
			return nil, errors.Wrap(err, "read torrent file")
		}
		part, err := w.CreateFormFile("torrent_file", filepath.Base(torrentPath))
		if err != nil {
			return nil, errors.Wrap(err, "create form file")
		}
		if _, err := part.Write(data); err != nil {
			return nil, errors.Wrap(err, "write torrent file")
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart writer")
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var out models.Torrent
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *apiClient) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *apiClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *apiClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return errors.Errorf("%s %s: %d %s", req.Method, req.URL.Path, resp.StatusCode, apiErr.Error)
		}
		return errors.Errorf("%s %s: %s", req.Method, req.URL.Path, resp.Status)
	}
	if out == nil {
		return nil
	}
	return errors.Wrap(json.Unmarshal(data, out), "decode response")
}

// watch prints every event pushed over /ws until the connection drops or
// ctx is done.
func (c *apiClient) watch(ctx context.Context, handle func([]byte)) error {
	wsURL, err := websocketURL(c.baseURL, "/ws")
	if err != nil {
		return err
	}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return errors.Wrap(err, "dial websocket")
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "read websocket")
		}
		handle(msg)
	}
}

// watchTCP reads the JSON-lines feed served on the events address.
func watchTCP(ctx context.Context, addr string, handle func([]byte)) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "dial %s", addr)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		handle(sc.Bytes())
	}
	if ctx.Err() != nil {
		return nil
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "read feed")
	}
	return errors.New("feed closed by server")
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parse api url")
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: path}).String(), nil
}

type tokenData struct {
	Token string `json:"token"`
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.torrentfront-token.json"
	}
	return filepath.Join(home, ".torrentfront", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create token dir")
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// readToken returns "" when no token has been saved.
func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "read token")
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", errors.Wrap(err, "decode token file")
	}
	return td.Token, nil
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
