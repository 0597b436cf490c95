package events

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"torrentfront/internal/metrics"
)

const writeWait = 2 * time.Second

// Hub fans events out to websocket and raw TCP clients. Slow or broken
// clients are dropped on the first failed write.
type Hub struct {
	mu         sync.Mutex
	wsClients  map[*websocket.Conn]struct{}
	tcpClients map[net.Conn]struct{}
}

type Stats struct {
	WSClients  int `json:"ws_clients"`
	TCPClients int `json:"tcp_clients"`
}

func NewHub() *Hub {
	return &Hub{
		wsClients:  make(map[*websocket.Conn]struct{}),
		tcpClients: make(map[net.Conn]struct{}),
	}
}

func (h *Hub) Add(ws *websocket.Conn) {
	h.mu.Lock()
	h.wsClients[ws] = struct{}{}
	h.updateGauges()
	h.mu.Unlock()
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.updateGauges()
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) AddTCP(conn net.Conn) {
	h.mu.Lock()
	h.tcpClients[conn] = struct{}{}
	h.updateGauges()
	h.mu.Unlock()
}

func (h *Hub) RemoveTCP(conn net.Conn) {
	h.mu.Lock()
	delete(h.tcpClients, conn)
	h.updateGauges()
	h.mu.Unlock()
	_ = conn.Close()
}

// BroadcastJSON sends v as one websocket text message, or one newline
// terminated line on TCP.
func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("encode event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for ws := range h.wsClients {
		_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}

	line := append(b, '\n')
	for c := range h.tcpClients {
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		w := bufio.NewWriter(c)
		if _, err := w.Write(line); err == nil {
			err = w.Flush()
		}
		if err != nil {
			_ = c.Close()
			delete(h.tcpClients, c)
		}
	}
	h.updateGauges()
}

// updateGauges must be called with mu held.
func (h *Hub) updateGauges() {
	metrics.FeedClients.WithLabelValues("websocket").Set(float64(len(h.wsClients)))
	metrics.FeedClients.WithLabelValues("tcp").Set(float64(len(h.tcpClients)))
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{WSClients: len(h.wsClients), TCPClients: len(h.tcpClients)}
}
