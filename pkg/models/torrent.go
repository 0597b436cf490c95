package models

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type MediaKind string

const (
	MediaKindMovie MediaKind = "movie"
	MediaKindTV    MediaKind = "tv"
)

func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindTV
}

func (k MediaKind) String() string {
	return string(k)
}

// ParseMediaKind accepts "movie" or "tv" in any case.
func ParseMediaKind(s string) (MediaKind, bool) {
	k := MediaKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", false
	}
	return k, true
}

// Torrent is the canonical torrent record as served by the index and by the
// seed fallback. Field names follow the index wire format.
type Torrent struct {
	ID                int64      `json:"id"`
	InfoHash          string     `json:"info_hash"`
	Name              string     `json:"name"`
	Description       *string    `json:"description"`
	Size              int64      `json:"size"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Category          *string    `json:"category"`
	Seeders           int64      `json:"seeders"`
	Leechers          int64      `json:"leechers"`
	Completed         int64      `json:"completed"`
	TMDBID            *int64     `json:"tmdb_id"`
	MediaType         *MediaKind `json:"media_type"`
	Quality           *string    `json:"quality"`
	AudioLanguages    []string   `json:"audio_languages"`
	SubtitleLanguages []string   `json:"subtitle_languages"`
	ReleaseGroup      *string    `json:"release_group"`
}

// Validate checks the record invariants.
func (t Torrent) Validate() error {
	if t.Size < 0 {
		return errors.Errorf("torrent %d: negative size", t.ID)
	}
	if t.Seeders < 0 || t.Leechers < 0 || t.Completed < 0 {
		return errors.Errorf("torrent %d: negative swarm counter", t.ID)
	}
	if t.MediaType != nil && !t.MediaType.Valid() {
		return errors.Errorf("torrent %d: invalid media type %q", t.ID, *t.MediaType)
	}
	if t.InfoHash != "" && !ValidInfoHash(t.InfoHash) {
		return errors.Errorf("torrent %d: invalid info hash", t.ID)
	}
	return nil
}

func (t Torrent) Kind() MediaKind {
	if t.MediaType == nil {
		return ""
	}
	return *t.MediaType
}

func (t Torrent) QualityValue() string {
	if t.Quality == nil {
		return ""
	}
	return *t.Quality
}

// ValidInfoHash reports whether s is a 40 char hex string.
func ValidInfoHash(s string) bool {
	if len(s) != 40 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

type TorrentStats struct {
	Seeders   int64 `json:"seeders"`
	Leechers  int64 `json:"leechers"`
	Completed int64 `json:"completed"`
}

func (t Torrent) Stats() TorrentStats {
	return TorrentStats{Seeders: t.Seeders, Leechers: t.Leechers, Completed: t.Completed}
}
