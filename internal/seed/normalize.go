package seed

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"torrentfront/pkg/models"
)

// DefaultSize is used when a seed size string cannot be parsed.
const DefaultSize int64 = 100 * 1024 * 1024

var (
	sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([KMGT]iB)$`)
	agePattern  = regexp.MustCompile(`^\s*(\d+)`)
)

// ParseSize converts strings such as "2.3 GiB" to bytes using binary
// multipliers. Only KiB, MiB, GiB and TiB are accepted; anything else,
// including a zero size or one that does not fit in int64, yields
// DefaultSize.
func ParseSize(s string) int64 {
	s = strings.TrimSpace(s)
	if !sizePattern.MatchString(s) {
		return DefaultSize
	}
	n, err := humanize.ParseBytes(s)
	if err != nil || n == 0 || n > math.MaxInt64 {
		return DefaultSize
	}
	return int64(n)
}

// ParseAge subtracts a relative age such as "3 days ago" from now. Months are
// subtracted on the calendar, so Mar 31 minus one month normalizes to Mar 3
// (or Mar 2 in leap years). Unknown units and missing counts return now.
func ParseAge(s string, now time.Time) time.Time {
	m := agePattern.FindStringSubmatch(s)
	if m == nil {
		return now
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return now
	}

	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "minute"):
		return now.Add(-time.Duration(n) * time.Minute)
	case strings.Contains(s, "hour"):
		return now.Add(-time.Duration(n) * time.Hour)
	case strings.Contains(s, "day"):
		return now.Add(-time.Duration(n) * 24 * time.Hour)
	case strings.Contains(s, "week"):
		return now.Add(-time.Duration(n) * 7 * 24 * time.Hour)
	case strings.Contains(s, "month"):
		return now.AddDate(0, -n, 0)
	default:
		return now
	}
}

// RandomInfoHash returns 40 lowercase hex chars read from src.
func RandomInfoHash(src io.Reader) string {
	if src == nil {
		src = rand.Reader
	}
	b := make([]byte, 20)
	if _, err := io.ReadFull(src, b); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	return hex.EncodeToString(b)
}

// Normalizer turns seed records into canonical torrents.
type Normalizer struct {
	Now  func() time.Time
	Rand io.Reader
}

func (n Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now().UTC()
	}
	return time.Now().UTC()
}

func (n Normalizer) Normalize(r Record) models.Torrent {
	createdAt := ParseAge(r.TimeAgo, n.now())

	infoHash := strings.ToLower(r.InfoHash)
	if infoHash == "" {
		infoHash = RandomInfoHash(n.Rand)
	}

	t := models.Torrent{
		ID:                r.ID,
		InfoHash:          infoHash,
		Name:              r.Title,
		Size:              ParseSize(r.Size),
		CreatedAt:         createdAt,
		UpdatedAt:         createdAt,
		Seeders:           r.Seeders,
		Leechers:          r.Leechers,
		Completed:         r.Completed,
		AudioLanguages:    nonNil(r.Audio),
		SubtitleLanguages: nonNil(r.Subtitles),
	}
	if r.TMDBID != nil {
		id := *r.TMDBID
		t.TMDBID = &id
	}
	if kind, ok := models.ParseMediaKind(r.Type); ok {
		t.MediaType = &kind
	}
	t.Quality = optional(r.Quality)
	t.ReleaseGroup = optional(r.ReleaseGroup)
	return t
}

// NormalizeAll normalizes records in order.
func (n Normalizer) NormalizeAll(records []Record) []models.Torrent {
	out := make([]models.Torrent, 0, len(records))
	for _, r := range records {
		out = append(out, n.Normalize(r))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
