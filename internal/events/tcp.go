package events

import (
	"bufio"
	"net"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// TCPServer streams the event feed as JSON lines to plain TCP clients.
type TCPServer struct {
	Addr string
	Hub  *Hub

	mu sync.Mutex
	ln net.Listener
}

func NewTCPServer(addr string, hub *Hub) *TCPServer {
	return &TCPServer{Addr: addr, Hub: hub}
}

func (s *TCPServer) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return errors.Wrap(err, "listen event feed")
	}
	return s.Serve(ln)
}

// Serve accepts clients on ln until Close is called.
func (s *TCPServer) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	log.WithField("addr", ln.Addr().String()).Info("event feed listening")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.WithError(err).Warn("event feed accept")
			continue
		}

		_, _ = conn.Write([]byte("{\"type\":\"welcome\",\"transport\":\"tcp\"}\n"))
		s.Hub.AddTCP(conn)
		log.WithField("remote", conn.RemoteAddr().String()).Debug("tcp client connected")

		go func(c net.Conn) {
			defer func() {
				s.Hub.RemoveTCP(c)
				log.WithField("remote", c.RemoteAddr().String()).Debug("tcp client disconnected")
			}()
			// input is ignored; the scan ends when the client goes away
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

func (s *TCPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
