package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"torrentfront/internal/events"
	"torrentfront/pkg/models"
)

func TestAPIClient_ListSendsTokenAndFilters(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(listResponse{
			Torrents: []models.Torrent{{ID: 7, Name: "Example"}},
			Total:    1, Page: 1, TotalPages: 1, Source: "fallback",
		})
	}))
	defer srv.Close()

	c := newAPIClient(srv.URL+"/", "tok")
	resp, err := c.list(context.Background(), url.Values{"quality": {"1080p"}, "page": {"1"}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if !strings.Contains(gotQuery, "quality=1080p") {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(resp.Torrents) != 1 || resp.Torrents[0].ID != 7 || resp.Source != "fallback" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAPIClient_ErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Torrent not found"}`))
	}))
	defer srv.Close()

	_, err := newAPIClient(srv.URL, "").get(context.Background(), 99)
	if err == nil || !strings.Contains(err.Error(), "Torrent not found") {
		t.Fatalf("expected api error message, got %v", err)
	}
}

func TestAPIClient_UploadMultipart(t *testing.T) {
	dir := t.TempDir()
	torrentPath := filepath.Join(dir, "a.torrent")
	if err := os.WriteFile(torrentPath, []byte("d4:infod4:name1:aee"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("name") != "Movie" || r.FormValue("audio_languages") != `["English"]` {
			t.Errorf("unexpected fields %v", r.MultipartForm.Value)
		}
		if _, ok := r.MultipartForm.Value["quality"]; ok {
			t.Error("empty fields must be omitted")
		}
		if fh := r.MultipartForm.File["torrent_file"]; len(fh) != 1 || fh[0].Filename != "a.torrent" {
			t.Errorf("missing torrent_file part")
		}
		_ = json.NewEncoder(w).Encode(models.Torrent{ID: 31, Name: "Movie"})
	}))
	defer srv.Close()

	audio, _ := jsonList([]string{"English"})
	fields := map[string]string{"name": "Movie", "quality": "", "audio_languages": audio}
	got, err := newAPIClient(srv.URL, "tok").upload(context.Background(), fields, torrentPath)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if got.ID != 31 {
		t.Fatalf("unexpected torrent %+v", got)
	}
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")

	tok, err := readToken(path)
	if err != nil || tok != "" {
		t.Fatalf("missing file should read as empty, got %q %v", tok, err)
	}
	if err := saveToken(path, "abc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if tok, _ := readToken(path); tok != "abc" {
		t.Fatalf("unexpected token %q", tok)
	}
	if err := clearToken(path); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := clearToken(path); err != nil {
		t.Fatalf("clearing twice should be a no-op: %v", err)
	}
}

func TestWebsocketURL(t *testing.T) {
	got, err := websocketURL("https://example.org/base", "/ws")
	if err != nil || got != "wss://example.org/ws" {
		t.Fatalf("got %q %v", got, err)
	}
}

func TestPrintEvent(t *testing.T) {
	msg, _ := json.Marshal(events.TorrentEvent{
		Type:    events.TypeTorrentCreated,
		Source:  "live",
		Torrent: models.Torrent{ID: 3, Name: "Show", Size: 2 << 30},
		At:      time.Now(),
	})
	var buf bytes.Buffer
	printEvent(&buf, msg)
	if !strings.Contains(buf.String(), "#3 Show (2.0 GiB, live)") {
		t.Fatalf("unexpected output %q", buf.String())
	}

	buf.Reset()
	printEvent(&buf, []byte(`{"type":"welcome"}`))
	if strings.TrimSpace(buf.String()) != `{"type":"welcome"}` {
		t.Fatalf("unknown events should print raw, got %q", buf.String())
	}
}

func TestWatchTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Write([]byte("{\"type\":\"welcome\"}\n{\"type\":\"torrent.created\"}\n"))
		_ = conn.Close()
	}()

	var got []string
	err = watchTCP(context.Background(), ln.Addr().String(), func(b []byte) { got = append(got, string(b)) })
	if err == nil || !strings.Contains(err.Error(), "closed") {
		t.Fatalf("expected closed error, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two lines, got %q", got)
	}
}
