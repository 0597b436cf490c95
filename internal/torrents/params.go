package torrents

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"torrentfront/internal/query"
	"torrentfront/internal/tmdb"
)

// listParam accepts both repeated keys and comma separated values.
func listParam(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func filterFromQuery(c *gin.Context) query.Filter {
	kinds := listParam(c, "type")
	for i, k := range kinds {
		kinds[i] = strings.ToLower(k)
	}
	return query.Filter{
		Qualities: listParam(c, "quality"),
		Audio:     listParam(c, "audio"),
		Subtitles: listParam(c, "subtitles"),
		Kinds:     kinds,
	}
}

func sortFromQuery(c *gin.Context) (query.Sort, bool, error) {
	s := query.DefaultSort()
	rawField, rawOrder := c.Query("sort"), c.Query("order")
	if rawField != "" {
		f, ok := query.ParseSortField(rawField)
		if !ok {
			return s, false, errors.Errorf("sort must be seeders, leechers or completed")
		}
		s.Field = f
	}
	if rawOrder != "" {
		o, ok := query.ParseSortOrder(rawOrder)
		if !ok {
			return s, false, errors.Errorf("order must be asc or desc")
		}
		s.Order = o
	}
	return s, rawField != "" || rawOrder != "", nil
}

func intParam(c *gin.Context, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Errorf("%s must be an integer", key)
	}
	return n, nil
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid torrent id"})
		return 0, false
	}
	return id, true
}

func wantEnrich(c *gin.Context) bool {
	v, err := strconv.ParseBool(c.DefaultQuery("enrich", "false"))
	return err == nil && v
}

func metadataMap(in map[tmdb.Key]tmdb.Decoration) map[string]tmdb.Decoration {
	out := make(map[string]tmdb.Decoration, len(in))
	for k, d := range in {
		out[string(k.Kind)+":"+strconv.FormatInt(k.ID, 10)] = d
	}
	return out
}
