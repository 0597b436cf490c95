package torrents

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"maps"
	"mime/multipart"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"torrentfront/internal/directory"
	"torrentfront/internal/events"
	"torrentfront/internal/query"
	"torrentfront/internal/tmdb"
	"torrentfront/internal/upstream"
	"torrentfront/pkg/models"
)

const (
	defaultLimit   = 25
	maxLimit       = 100
	maxUploadBytes = 32 << 20

	sourceHeader = "X-Data-Source"
)

type Directory interface {
	ListPage(ctx context.Context, page, limit int) (*directory.PageResult, error)
	Get(ctx context.Context, id int64) (models.Torrent, directory.Source, error)
	Search(ctx context.Context, query, category string, kind models.MediaKind) ([]models.Torrent, directory.Source, error)
	Create(ctx context.Context, p directory.UploadPayload) (models.Torrent, directory.Source, error)
	TorrentStats(ctx context.Context, id int64) (models.TorrentStats, directory.Source, error)
}

type Enricher interface {
	Enrich(ctx context.Context, torrents []models.Torrent) map[tmdb.Key]tmdb.Decoration
}

type Broadcaster interface {
	BroadcastJSON(v any)
}

type Handler struct {
	Dir Directory
	// Enricher and Events are optional.
	Enricher Enricher
	Events   Broadcaster
}

func NewHandler(dir Directory, enricher Enricher, events Broadcaster) *Handler {
	return &Handler{Dir: dir, Enricher: enricher, Events: events}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/torrents", h.list)
	rg.GET("/torrents/:id", h.get)
	rg.GET("/torrents/:id/stats", h.stats)
}

// RegisterUpload mounts POST /upload; callers put it behind the gate and a
// rate limit.
func (h *Handler) RegisterUpload(rg gin.IRoutes) {
	rg.POST("/upload", h.upload)
}

type languages struct {
	Audio     []string `json:"audio"`
	Subtitles []string `json:"subtitles"`
}

// sortState echoes the applied sort and, per column, the sort that
// selecting that column would apply next.
type sortState struct {
	query.Sort
	Next map[query.SortField]query.Sort `json:"next"`
}

func newSortState(s query.Sort) sortState {
	next := make(map[query.SortField]query.Sort, 3)
	for _, f := range []query.SortField{query.SortSeeders, query.SortLeechers, query.SortCompleted} {
		next[f] = s.Toggle(f)
	}
	return sortState{Sort: s, Next: next}
}

type listResponse struct {
	Torrents   []models.Torrent           `json:"torrents"`
	Total      int                        `json:"total"`
	Page       int                        `json:"page"`
	Limit      int                        `json:"limit"`
	TotalPages int                        `json:"total_pages"`
	Pages      []int                      `json:"pages"`
	Source     directory.Source           `json:"source"`
	Languages  languages                  `json:"languages"`
	Sort       sortState                  `json:"sort"`
	Metadata   map[string]tmdb.Decoration `json:"metadata,omitempty"`
}

func (h *Handler) list(c *gin.Context) {
	filter := filterFromQuery(c)
	sort, sortGiven, err := sortFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if q := strings.TrimSpace(c.Query("query")); q != "" {
		h.search(c, q, filter, sort, sortGiven)
		return
	}

	page, err := intParam(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit, err := intParam(c, "limit", defaultLimit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if page < 1 || limit < 1 || limit > maxLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("page must be >= 1 and limit 1-%d", maxLimit)})
		return
	}

	res, err := h.Dir.ListPage(c.Request.Context(), page, limit)
	if err != nil {
		writeError(c, err, "Failed to fetch torrents")
		return
	}

	visible := query.Apply(res.Torrents, filter, sort)
	audio, subs := query.Languages(res.Torrents)
	totalPages := query.TotalPages(res.Total, limit)

	out := listResponse{
		Torrents:   visible,
		Total:      res.Total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
		Pages:      query.PageWindow(page, totalPages),
		Source:     res.Source,
		Languages:  languages{Audio: audio, Subtitles: subs},
		Sort:       newSortState(sort),
	}
	if wantEnrich(c) && h.Enricher != nil {
		out.Metadata = metadataMap(h.Enricher.Enrich(c.Request.Context(), visible))
	}

	c.Header(sourceHeader, string(res.Source))
	c.JSON(http.StatusOK, out)
}

func (h *Handler) search(c *gin.Context, q string, filter query.Filter, sort query.Sort, sortGiven bool) {
	var kind models.MediaKind
	if raw := strings.TrimSpace(c.Query("mediaType")); raw != "" {
		k, ok := models.ParseMediaKind(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mediaType must be movie or tv"})
			return
		}
		kind = k
	} else if k, ok := filter.SingleKind(); ok {
		kind = k
	}

	results, src, err := h.Dir.Search(c.Request.Context(), q, strings.TrimSpace(c.Query("category")), kind)
	if err != nil {
		writeError(c, err, "Failed to search torrents")
		return
	}

	out := make([]models.Torrent, 0, len(results))
	for _, t := range results {
		if filter.Match(t) {
			out = append(out, t)
		}
	}
	if sortGiven {
		out = query.Apply(out, query.Filter{}, sort)
	}

	c.Header(sourceHeader, string(src))
	c.JSON(http.StatusOK, out)
}

func (h *Handler) get(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	t, src, err := h.Dir.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Failed to fetch torrent details")
		return
	}
	c.Header(sourceHeader, string(src))
	c.JSON(http.StatusOK, t)
}

func (h *Handler) stats(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	st, src, err := h.Dir.TorrentStats(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "Failed to fetch torrent stats")
		return
	}
	c.Header(sourceHeader, string(src))
	c.JSON(http.StatusOK, st)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a multipart form"})
		return
	}

	payload, err := payloadFromForm(c.Request.MultipartForm)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, src, err := h.Dir.Create(c.Request.Context(), payload)
	if err != nil {
		writeError(c, err, "Failed to upload torrent")
		return
	}

	if h.Events != nil {
		h.Events.BroadcastJSON(events.TorrentCreated(t, string(src)))
	}
	log.WithFields(log.Fields{"id": t.ID, "info_hash": t.InfoHash, "source": src}).Info("torrent uploaded")

	c.Header(sourceHeader, string(src))
	c.JSON(http.StatusOK, t)
}

func payloadFromForm(form *multipart.Form) (directory.UploadPayload, error) {
	p := directory.UploadPayload{Fields: map[string]string{}}
	for k, vs := range form.Value {
		if len(vs) > 0 {
			p.Fields[k] = vs[0]
		}
	}

	// screenshot_N in index order, so screenshot_10 follows screenshot_9
	fields := slices.SortedFunc(maps.Keys(form.File), func(a, b string) int {
		return cmp.Or(cmp.Compare(len(a), len(b)), strings.Compare(a, b))
	})
	for _, field := range fields {
		headers := form.File[field]
		if len(headers) == 0 {
			continue
		}
		if field != "torrent_file" && !strings.HasPrefix(field, "screenshot_") {
			continue
		}
		part, err := readPart(field, headers[0])
		if err != nil {
			return p, err
		}
		if field == "torrent_file" {
			p.TorrentFile = &part
		} else {
			p.Screenshots = append(p.Screenshots, part)
		}
	}
	return p, nil
}

func readPart(field string, fh *multipart.FileHeader) (upstream.FilePart, error) {
	f, err := fh.Open()
	if err != nil {
		return upstream.FilePart{}, errors.Wrapf(err, "open %s", field)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return upstream.FilePart{}, errors.Wrapf(err, "read %s", field)
	}
	return upstream.FilePart{Field: field, Filename: fh.Filename, Data: data}, nil
}

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, directory.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Torrent not found"})
	case errors.Is(err, directory.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, directory.ErrUpstreamUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.WithError(err).WithField("path", c.Request.URL.Path).Error(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
