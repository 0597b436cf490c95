package events

import (
	"time"

	"torrentfront/pkg/models"
)

const TypeTorrentCreated = "torrent.created"

type TorrentEvent struct {
	Type    string         `json:"type"`
	Source  string         `json:"source"`
	Torrent models.Torrent `json:"torrent"`
	At      time.Time      `json:"at"`
}

func TorrentCreated(t models.Torrent, source string) TorrentEvent {
	return TorrentEvent{Type: TypeTorrentCreated, Source: source, Torrent: t, At: time.Now().UTC()}
}
