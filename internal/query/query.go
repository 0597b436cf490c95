// Package query filters, sorts and paginates an already fetched page of
// torrents. Nothing here touches the network.
package query

import (
	"cmp"
	"slices"
	"strings"

	"torrentfront/pkg/models"
)

const KindAll = "all"

type SortField string

const (
	SortSeeders   SortField = "seeders"
	SortLeechers  SortField = "leechers"
	SortCompleted SortField = "completed"
)

type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(strings.ToLower(strings.TrimSpace(s))); f {
	case SortSeeders, SortLeechers, SortCompleted:
		return f, true
	default:
		return "", false
	}
}

func ParseSortOrder(s string) (SortOrder, bool) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case Asc, Desc:
		return o, true
	default:
		return "", false
	}
}

// Sort defaults to seeders, descending.
type Sort struct {
	Field SortField `json:"field"`
	Order SortOrder `json:"order"`
}

func DefaultSort() Sort {
	return Sort{Field: SortSeeders, Order: Desc}
}

// Toggle mirrors clicking a column header: the same field flips the order,
// a new field starts descending.
func (s Sort) Toggle(field SortField) Sort {
	if field == s.Field {
		if s.Order == Asc {
			return Sort{Field: field, Order: Desc}
		}
		return Sort{Field: field, Order: Asc}
	}
	return Sort{Field: field, Order: Desc}
}

func (s Sort) key(t models.Torrent) int64 {
	switch s.Field {
	case SortLeechers:
		return t.Leechers
	case SortCompleted:
		return t.Completed
	default:
		return t.Seeders
	}
}

// Filter selects records. Dimensions are ANDed, values within one dimension
// are ORed, and an empty dimension matches everything.
type Filter struct {
	Qualities []string
	Audio     []string
	Subtitles []string
	// Kinds holds "all", "movie" and/or "tv". Empty means all.
	Kinds []string
}

func (f Filter) Match(t models.Torrent) bool {
	if len(f.Qualities) > 0 && (t.Quality == nil || !slices.Contains(f.Qualities, *t.Quality)) {
		return false
	}
	if len(f.Audio) > 0 && !intersects(f.Audio, t.AudioLanguages) {
		return false
	}
	if len(f.Subtitles) > 0 && !intersects(f.Subtitles, t.SubtitleLanguages) {
		return false
	}
	return f.matchKind(t)
}

func (f Filter) matchKind(t models.Torrent) bool {
	if len(f.Kinds) == 0 || slices.Contains(f.Kinds, KindAll) {
		return true
	}
	if t.MediaType == nil {
		return false
	}
	return slices.Contains(f.Kinds, string(*t.MediaType))
}

// SingleKind returns the one media kind selected, if exactly one of movie
// and tv is chosen. Searches without an explicit media type send it to the
// index.
func (f Filter) SingleKind() (models.MediaKind, bool) {
	if len(f.Kinds) == 0 || slices.Contains(f.Kinds, KindAll) {
		return "", false
	}
	movie := slices.Contains(f.Kinds, string(models.MediaKindMovie))
	tv := slices.Contains(f.Kinds, string(models.MediaKindTV))
	switch {
	case movie && !tv:
		return models.MediaKindMovie, true
	case tv && !movie:
		return models.MediaKindTV, true
	default:
		return "", false
	}
}

func intersects(selected, values []string) bool {
	for _, v := range values {
		if slices.Contains(selected, v) {
			return true
		}
	}
	return false
}

// Apply returns a new slice with the records that pass f, stably sorted by s.
// The input is not modified.
func Apply(torrents []models.Torrent, f Filter, s Sort) []models.Torrent {
	out := make([]models.Torrent, 0, len(torrents))
	for _, t := range torrents {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	slices.SortStableFunc(out, func(a, b models.Torrent) int {
		if s.Order == Asc {
			return cmp.Compare(s.key(a), s.key(b))
		}
		return cmp.Compare(s.key(b), s.key(a))
	})
	return out
}

// TotalPages is ceil(total/pageSize); zero for an empty set.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// PageBounds returns the slice bounds of a 1-based page over n records.
// Pages past the end, however large, give an empty range at n.
func PageBounds(page, limit, n int) (start, end int) {
	if page < 1 || limit < 1 || n <= 0 || page-1 > n/limit {
		return n, n
	}
	start = min((page-1)*limit, n)
	return start, start + min(limit, n-start)
}

const windowSize = 5

// PageWindow returns the page numbers for a strip of at most five links.
func PageWindow(current, totalPages int) []int {
	if totalPages <= 0 {
		return []int{}
	}
	n := min(windowSize, totalPages)
	pages := make([]int, n)
	for i := range pages {
		switch {
		case totalPages <= windowSize:
			pages[i] = i + 1
		case current <= 3:
			pages[i] = i + 1
		case current >= totalPages-2:
			pages[i] = totalPages - windowSize + 1 + i
		default:
			pages[i] = current - 2 + i
		}
	}
	return pages
}

// Languages lists the distinct audio and subtitle languages in first-seen
// order; the listing offers them as filter choices.
func Languages(torrents []models.Torrent) (audio, subtitles []string) {
	audio, subtitles = []string{}, []string{}
	seenAudio := map[string]struct{}{}
	seenSubs := map[string]struct{}{}
	for _, t := range torrents {
		for _, l := range t.AudioLanguages {
			if _, ok := seenAudio[l]; !ok {
				seenAudio[l] = struct{}{}
				audio = append(audio, l)
			}
		}
		for _, l := range t.SubtitleLanguages {
			if _, ok := seenSubs[l]; !ok {
				seenSubs[l] = struct{}{}
				subtitles = append(subtitles, l)
			}
		}
	}
	return audio, subtitles
}
