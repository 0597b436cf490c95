package tmdb

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"torrentfront/pkg/models"
)

type Searcher interface {
	Search(ctx context.Context, query string, kind models.MediaKind) ([]models.Metadata, error)
	Details(ctx context.Context, id int64, kind models.MediaKind) (*models.Metadata, error)
}

type Handler struct {
	Catalog Searcher
}

func NewHandler(catalog Searcher) *Handler {
	return &Handler{Catalog: catalog}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.lookup)
}

// GET /api/tmdb?id=&type= or ?query=&type=
func (h *Handler) lookup(c *gin.Context) {
	rawID := strings.TrimSpace(c.Query("id"))
	query := strings.TrimSpace(c.Query("query"))
	kind, kindOK := models.ParseMediaKind(c.Query("type"))

	if rawID != "" {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		if !kindOK {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query or type parameter"})
			return
		}
		m, err := h.Catalog.Details(c.Request.Context(), id, kind)
		if err != nil {
			log.WithError(err).WithField("tmdb_id", id).Error("tmdb details failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch TMDB details"})
			return
		}
		c.JSON(http.StatusOK, m)
		return
	}

	if query == "" || !kindOK {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query or type parameter"})
		return
	}

	results, err := h.Catalog.Search(c.Request.Context(), query, kind)
	if err != nil {
		log.WithError(err).WithField("query", query).Error("tmdb search failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch from TMDB"})
		return
	}
	c.JSON(http.StatusOK, results)
}
