package main

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"

	"torrentfront/internal/directory"
	"torrentfront/internal/query"
	"torrentfront/internal/seed"
	"torrentfront/internal/upstream"
	"torrentfront/pkg/models"
)

// index is an in-memory torrent index and tracker serving the same wire
// format as the real upstreams. Uploads are kept until the process exits.
type index struct {
	mu       sync.RWMutex
	torrents []models.Torrent
	nextID   int64
	synth    *directory.Directory
}

func newIndex(records []seed.Record) *index {
	return &index{
		torrents: seed.Normalizer{}.NormalizeAll(records),
		nextID:   seed.MaxID(records) + 1,
		synth:    directory.New(nil, nil, directory.Config{MockOnly: true, Records: records}),
	}
}

func (ix *index) routes(r gin.IRouter, trackerAuth gin.Accounts) {
	r.GET("/torrents", ix.list)
	r.GET("/torrents/search", ix.search)
	r.GET("/torrents/:id", ix.get)
	r.POST("/torrents", ix.create)

	stats := r.Group("/stats")
	if len(trackerAuth) > 0 {
		stats.Use(gin.BasicAuth(trackerAuth))
	}
	stats.GET("/torrent/:hash", ix.stats)
}

func (ix *index) list(c *gin.Context) {
	page, err1 := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, err2 := strconv.Atoi(c.DefaultQuery("limit", "25"))
	if err1 != nil || err2 != nil || page < 1 || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page or limit"})
		return
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	total := len(ix.torrents)
	start, end := query.PageBounds(page, limit, total)
	c.JSON(http.StatusOK, upstream.Page{Torrents: ix.torrents[start:end], Total: total})
}

func (ix *index) search(c *gin.Context) {
	fold := cases.Fold()
	q := fold.String(strings.TrimSpace(c.Query("query")))
	category := c.Query("category")
	kind := c.Query("media_type")

	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := []models.Torrent{}
	for _, t := range ix.torrents {
		if !strings.Contains(fold.String(t.Name), q) {
			continue
		}
		if category != "" && (t.Category == nil || *t.Category != category) {
			continue
		}
		if kind != "" && string(t.Kind()) != kind {
			continue
		}
		out = append(out, t)
	}
	c.JSON(http.StatusOK, out)
}

func (ix *index) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if t, ok := ix.find(func(t models.Torrent) bool { return t.ID == id }); ok {
		c.JSON(http.StatusOK, t)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "Torrent not found"})
}

func (ix *index) stats(c *gin.Context) {
	hash := strings.ToLower(c.Param("hash"))
	if t, ok := ix.find(func(t models.Torrent) bool { return t.InfoHash == hash }); ok {
		c.JSON(http.StatusOK, t.Stats())
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown info hash"})
}

func (ix *index) find(match func(models.Torrent) bool) (models.Torrent, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, t := range ix.torrents {
		if match(t) {
			return t, true
		}
	}
	return models.Torrent{}, false
}

func (ix *index) create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a multipart form"})
		return
	}
	payload, err := payloadOf(form)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	t, _, err := ix.synth.Create(c.Request.Context(), payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if d := strings.TrimSpace(payload.Fields["description"]); d != "" {
		t.Description = &d
	}
	if cat := strings.TrimSpace(payload.Fields["category"]); cat != "" {
		t.Category = &cat
	}

	ix.mu.Lock()
	t.ID = ix.nextID
	ix.nextID++
	ix.torrents = append(ix.torrents, t)
	ix.mu.Unlock()

	c.JSON(http.StatusCreated, t)
}

func payloadOf(form *multipart.Form) (directory.UploadPayload, error) {
	p := directory.UploadPayload{Fields: map[string]string{}}
	for k, vs := range form.Value {
		if len(vs) > 0 {
			p.Fields[k] = vs[0]
		}
	}
	if fhs := form.File["torrent_file"]; len(fhs) > 0 {
		f, err := fhs[0].Open()
		if err != nil {
			return p, errors.Wrap(err, "open torrent_file")
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return p, errors.Wrap(err, "read torrent_file")
		}
		p.TorrentFile = &upstream.FilePart{Field: "torrent_file", Filename: fhs[0].Filename, Data: data}
	}
	return p, nil
}
