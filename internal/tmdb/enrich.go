package tmdb

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"torrentfront/pkg/models"
)

const defaultEnrichLimit = 8

type Key struct {
	Kind models.MediaKind
	ID   int64
}

func KeyOf(t models.Torrent) (Key, bool) {
	if t.TMDBID == nil || t.MediaType == nil || !t.MediaType.Valid() {
		return Key{}, false
	}
	return Key{Kind: *t.MediaType, ID: *t.TMDBID}, true
}

type Catalog interface {
	Details(ctx context.Context, id int64, kind models.MediaKind) (*models.Metadata, error)
	ImageURL(path, size string) string
}

// Decoration is the metadata shown next to a torrent.
type Decoration struct {
	Title       string `json:"title"`
	Overview    string `json:"overview"`
	PosterURL   string `json:"poster_url"`
	BackdropURL string `json:"backdrop_url"`
	ReleaseDate string `json:"release_date,omitempty"`
}

// Enricher looks up metadata for a page of torrents, one request per
// distinct (kind, id).
type Enricher struct {
	catalog Catalog
	limit   int
}

func NewEnricher(catalog Catalog, limit int) *Enricher {
	if limit <= 0 {
		limit = defaultEnrichLimit
	}
	return &Enricher{catalog: catalog, limit: limit}
}

// Enrich never fails. Lookups that error are logged and left out of the
// result.
func (e *Enricher) Enrich(ctx context.Context, torrents []models.Torrent) map[Key]Decoration {
	keys := make(map[Key]struct{})
	for _, t := range torrents {
		if k, ok := KeyOf(t); ok {
			keys[k] = struct{}{}
		}
	}

	out := make(map[Key]Decoration, len(keys))
	if len(keys) == 0 {
		return out
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.limit)
	for k := range keys {
		g.Go(func() error {
			m, err := e.catalog.Details(ctx, k.ID, k.Kind)
			if err != nil {
				log.WithError(err).WithFields(log.Fields{"kind": k.Kind, "tmdb_id": k.ID}).Warn("metadata lookup failed")
				return nil
			}
			d := e.decorate(*m)
			mu.Lock()
			out[k] = d
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (e *Enricher) decorate(m models.Metadata) Decoration {
	d := Decoration{
		Title:       m.DisplayTitle(),
		Overview:    m.Overview,
		PosterURL:   e.catalog.ImageURL(m.Poster(), SizeW500),
		ReleaseDate: m.ReleaseDate,
	}
	if d.ReleaseDate == "" {
		d.ReleaseDate = m.FirstAirDate
	}
	if m.BackdropPath != nil {
		d.BackdropURL = e.catalog.ImageURL(*m.BackdropPath, SizeOriginal)
	} else {
		d.BackdropURL = PlaceholderImage
	}
	return d
}
