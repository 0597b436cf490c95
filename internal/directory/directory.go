// Package directory fronts the torrent index. Reads degrade to the seed
// dataset whenever the index fails; uploads do not.
package directory

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/cases"

	"torrentfront/internal/metrics"
	"torrentfront/internal/query"
	"torrentfront/internal/seed"
	"torrentfront/internal/upstream"
	"torrentfront/pkg/models"
)

type Index interface {
	List(ctx context.Context, page, limit int) (*upstream.Page, error)
	Get(ctx context.Context, id int64) (*models.Torrent, error)
	Search(ctx context.Context, query, category, mediaType string) ([]models.Torrent, error)
	Create(ctx context.Context, u upstream.Upload) (*models.Torrent, error)
}

type Tracker interface {
	Stats(ctx context.Context, infoHash string) (*models.TorrentStats, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	// MockOnly skips the index entirely.
	MockOnly   bool
	Records    []seed.Record
	Normalizer seed.Normalizer
}

type Directory struct {
	index    Index
	tracker  Tracker
	records  []seed.Record
	maxID    int64
	norm     seed.Normalizer
	mockOnly bool
}

// New builds a Directory. A nil index forces mock-only mode. Seed records
// missing an info hash get one here, once.
func New(index Index, tracker Tracker, cfg Config) *Directory {
	records := cfg.Records
	if records == nil {
		records = seed.Default()
	}
	records = seed.WithInfoHashes(records, cfg.Normalizer.Rand)
	return &Directory{
		index:    index,
		tracker:  tracker,
		records:  records,
		maxID:    seed.MaxID(records),
		norm:     cfg.Normalizer,
		mockOnly: cfg.MockOnly || index == nil,
	}
}

func (d *Directory) MockOnly() bool { return d.mockOnly }

func (d *Directory) SeedSize() int { return len(d.records) }

type PageResult struct {
	Torrents []models.Torrent
	Total    int
	Source   Source
}

func (d *Directory) ListPage(ctx context.Context, page, limit int) (*PageResult, error) {
	if page < 1 || limit < 1 {
		return nil, errors.Wrapf(ErrValidation, "page %d limit %d", page, limit)
	}

	if !d.mockOnly {
		p, err := d.index.List(ctx, page, limit)
		if err == nil {
			return &PageResult{Torrents: p.Torrents, Total: p.Total, Source: SourceLive}, nil
		}
		d.fellBack("list", err)
	}

	all := d.norm.NormalizeAll(d.records)
	start, end := query.PageBounds(page, limit, len(all))
	return &PageResult{Torrents: all[start:end], Total: len(all), Source: SourceFallback}, nil
}

func (d *Directory) Get(ctx context.Context, id int64) (models.Torrent, Source, error) {
	if !d.mockOnly {
		t, err := d.index.Get(ctx, id)
		if err == nil {
			return *t, SourceLive, nil
		}
		d.fellBack("get", err)
	}

	for _, r := range d.records {
		if r.ID == id {
			return d.norm.Normalize(r), SourceFallback, nil
		}
	}
	return models.Torrent{}, SourceFallback, errors.Wrapf(ErrNotFound, "id %d", id)
}

// Search matches on name. The fallback ignores category.
func (d *Directory) Search(ctx context.Context, query, category string, kind models.MediaKind) ([]models.Torrent, Source, error) {
	if !d.mockOnly {
		ts, err := d.index.Search(ctx, query, category, string(kind))
		if err == nil {
			return ts, SourceLive, nil
		}
		d.fellBack("search", err)
	}

	fold := cases.Fold()
	needle := fold.String(query)
	out := []models.Torrent{}
	for _, r := range d.records {
		if !strings.Contains(fold.String(r.Title), needle) {
			continue
		}
		if kind != "" && !strings.EqualFold(r.Type, string(kind)) {
			continue
		}
		out = append(out, d.norm.Normalize(r))
	}
	return out, SourceFallback, nil
}

// Stats never fails: any lookup problem yields zeros. In mock-only mode key
// is matched against seed ids, otherwise it is sent to the tracker as an
// info hash.
func (d *Directory) Stats(ctx context.Context, key string) models.TorrentStats {
	if d.mockOnly {
		for _, r := range d.records {
			if strconv.FormatInt(r.ID, 10) == key {
				return models.TorrentStats{Seeders: r.Seeders, Leechers: r.Leechers, Completed: r.Completed}
			}
		}
		return models.TorrentStats{}
	}
	if d.tracker == nil {
		return models.TorrentStats{}
	}

	st, err := d.tracker.Stats(ctx, key)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("tracker stats unavailable")
		return models.TorrentStats{}
	}
	return *st
}

// TorrentStats resolves id and asks for its stats using whichever key the
// current mode understands.
func (d *Directory) TorrentStats(ctx context.Context, id int64) (models.TorrentStats, Source, error) {
	t, src, err := d.Get(ctx, id)
	if err != nil {
		return models.TorrentStats{}, src, err
	}
	key := t.InfoHash
	if d.mockOnly {
		key = strconv.FormatInt(t.ID, 10)
	}
	return d.Stats(ctx, key), src, nil
}

type Status struct {
	Mode           string `json:"mode"`
	SeedRecords    int    `json:"seed_records"`
	IndexReachable *bool  `json:"index_reachable,omitempty"`
}

func (d *Directory) Status(ctx context.Context) Status {
	st := Status{Mode: "live", SeedRecords: len(d.records)}
	if d.mockOnly {
		st.Mode = "mock"
		return st
	}
	if p, ok := d.index.(pinger); ok {
		reachable := p.Ping(ctx) == nil
		st.IndexReachable = &reachable
	}
	return st
}

func (d *Directory) fellBack(op string, err error) {
	metrics.FallbacksTotal.WithLabelValues(op).Inc()
	log.WithError(err).WithField("op", op).Warn("index unavailable, serving seed data")
}
