package events

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"torrentfront/pkg/models"
)

func TestWSFeed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub()
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	_, msg, err := ws.ReadMessage()
	if err != nil || !strings.Contains(string(msg), "welcome") {
		t.Fatalf("welcome: %s %v", msg, err)
	}

	deadline := time.Now().Add(time.Second)
	for hub.Stats().WSClients != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	hub.BroadcastJSON(TorrentCreated(models.Torrent{ID: 31, Name: "New"}, "fallback"))

	_, msg, err = ws.ReadMessage()
	if err != nil {
		t.Fatalf("read event: %v", err)
	}
	var ev TorrentEvent
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Type != TypeTorrentCreated || ev.Torrent.ID != 31 || ev.Source != "fallback" {
		t.Fatalf("unexpected event %+v", ev)
	}

	ws.Close()
	deadline = time.Now().Add(time.Second)
	for hub.Stats().WSClients != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never removed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
