package query

import (
	"math"
	"reflect"
	"testing"

	"torrentfront/pkg/models"
)

func str(s string) *string { return &s }

func kind(k models.MediaKind) *models.MediaKind { return &k }

func sample() []models.Torrent {
	return []models.Torrent{
		{ID: 1, Quality: str("1080p"), Seeders: 5, Leechers: 3, Completed: 10,
			AudioLanguages: []string{"English"}, SubtitleLanguages: []string{"Spanish"}, MediaType: kind(models.MediaKindMovie)},
		{ID: 2, Quality: str("2160p"), Seeders: 1, Leechers: 8, Completed: 4,
			AudioLanguages: []string{"Japanese", "English"}, SubtitleLanguages: []string{}, MediaType: kind(models.MediaKindTV)},
		{ID: 3, Quality: str("1080p"), Seeders: 9, Leechers: 0, Completed: 4,
			AudioLanguages: []string{"French"}, SubtitleLanguages: []string{"English"}, MediaType: kind(models.MediaKindTV)},
		{ID: 4, Seeders: 5, Leechers: 1, Completed: 1,
			AudioLanguages: []string{}, SubtitleLanguages: []string{}},
	}
}

func ids(ts []models.Torrent) []int64 {
	out := make([]int64, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func TestFilter_Quality(t *testing.T) {
	got := Apply(sample(), Filter{Qualities: []string{"1080p"}}, Sort{Field: SortSeeders, Order: Asc})
	if !reflect.DeepEqual(ids(got), []int64{1, 3}) {
		t.Fatalf("unexpected ids %v", ids(got))
	}

	all := Apply(sample(), Filter{}, DefaultSort())
	if len(all) != 4 {
		t.Fatalf("empty filter must pass everything, got %d", len(all))
	}
}

func TestFilter_Languages(t *testing.T) {
	got := Apply(sample(), Filter{Audio: []string{"English", "German"}}, Sort{Field: SortSeeders, Order: Asc})
	if !reflect.DeepEqual(ids(got), []int64{2, 1}) {
		t.Fatalf("audio: unexpected ids %v", ids(got))
	}

	got = Apply(sample(), Filter{Subtitles: []string{"English"}}, DefaultSort())
	if !reflect.DeepEqual(ids(got), []int64{3}) {
		t.Fatalf("subtitles: unexpected ids %v", ids(got))
	}

	got = Apply(sample(), Filter{Audio: []string{"English"}, Qualities: []string{"2160p"}}, DefaultSort())
	if !reflect.DeepEqual(ids(got), []int64{2}) {
		t.Fatalf("and across dimensions: unexpected ids %v", ids(got))
	}
}

func TestFilter_Kinds(t *testing.T) {
	cases := []struct {
		kinds []string
		want  []int64
	}{
		{nil, []int64{3, 1, 4, 2}},
		{[]string{"all"}, []int64{3, 1, 4, 2}},
		{[]string{"all", "tv"}, []int64{3, 1, 4, 2}},
		{[]string{"tv"}, []int64{3, 2}},
		{[]string{"movie"}, []int64{1}},
		{[]string{"movie", "tv"}, []int64{3, 1, 2}},
	}
	for _, tc := range cases {
		got := Apply(sample(), Filter{Kinds: tc.kinds}, DefaultSort())
		if !reflect.DeepEqual(ids(got), tc.want) {
			t.Errorf("kinds %v: got %v, want %v", tc.kinds, ids(got), tc.want)
		}
	}
}

func TestSingleKind(t *testing.T) {
	if _, ok := (Filter{Kinds: []string{"all"}}).SingleKind(); ok {
		t.Fatal("all must not yield a single kind")
	}
	if k, ok := (Filter{Kinds: []string{"tv"}}).SingleKind(); !ok || k != models.MediaKindTV {
		t.Fatalf("expected tv, got %q %v", k, ok)
	}
	if _, ok := (Filter{Kinds: []string{"tv", "movie"}}).SingleKind(); ok {
		t.Fatal("two kinds must not yield a single kind")
	}
}

func TestSort(t *testing.T) {
	in := []models.Torrent{{ID: 1, Seeders: 5}, {ID: 2, Seeders: 1}, {ID: 3, Seeders: 9}}

	desc := Apply(in, Filter{}, Sort{Field: SortSeeders, Order: Desc})
	var seeders []int64
	for _, t := range desc {
		seeders = append(seeders, t.Seeders)
	}
	if !reflect.DeepEqual(seeders, []int64{9, 5, 1}) {
		t.Fatalf("desc: got %v", seeders)
	}

	asc := Apply(in, Filter{}, Sort{Field: SortSeeders, Order: Asc})
	seeders = seeders[:0]
	for _, t := range asc {
		seeders = append(seeders, t.Seeders)
	}
	if !reflect.DeepEqual(seeders, []int64{1, 5, 9}) {
		t.Fatalf("asc: got %v", seeders)
	}

	if in[0].ID != 1 || in[1].ID != 2 {
		t.Fatal("input slice was reordered")
	}
}

func TestSort_StableTies(t *testing.T) {
	got := Apply(sample(), Filter{}, Sort{Field: SortCompleted, Order: Desc})
	// records 2 and 3 share completed=4 and keep their input order
	if !reflect.DeepEqual(ids(got), []int64{1, 2, 3, 4}) {
		t.Fatalf("unexpected order %v", ids(got))
	}
	got = Apply(sample(), Filter{}, Sort{Field: SortLeechers, Order: Asc})
	if !reflect.DeepEqual(ids(got), []int64{3, 4, 1, 2}) {
		t.Fatalf("leechers asc: unexpected order %v", ids(got))
	}
}

func TestToggle(t *testing.T) {
	s := DefaultSort()
	s = s.Toggle(SortSeeders)
	if s.Order != Asc {
		t.Fatalf("expected asc after toggling the active field, got %q", s.Order)
	}
	s = s.Toggle(SortLeechers)
	if s.Field != SortLeechers || s.Order != Desc {
		t.Fatalf("unexpected sort %+v", s)
	}
}

func TestTotalPages(t *testing.T) {
	cases := [][3]int{{0, 25, 0}, {1, 25, 1}, {25, 25, 1}, {26, 25, 2}, {250, 25, 10}, {10, 0, 0}}
	for _, c := range cases {
		if got := TotalPages(c[0], c[1]); got != c[2] {
			t.Errorf("TotalPages(%d,%d) = %d, want %d", c[0], c[1], got, c[2])
		}
	}
}

func TestPageBounds(t *testing.T) {
	cases := []struct {
		page, limit, n int
		start, end     int
	}{
		{1, 25, 30, 0, 25},
		{2, 25, 30, 25, 30},
		{3, 25, 30, 30, 30},
		{1, 25, 0, 0, 0},
		{2, 15, 30, 15, 30},
		{100_000_000_000_000_000, 100, 30, 30, 30},
		{1, math.MaxInt, 30, 0, 30},
		{math.MaxInt, math.MaxInt, 30, 30, 30},
		{2, math.MaxInt, 30, 30, 30},
	}
	for _, tc := range cases {
		start, end := PageBounds(tc.page, tc.limit, tc.n)
		if start != tc.start || end != tc.end {
			t.Errorf("PageBounds(%d,%d,%d) = %d,%d want %d,%d", tc.page, tc.limit, tc.n, start, end, tc.start, tc.end)
		}
	}
}

func TestPageWindow(t *testing.T) {
	cases := []struct {
		current, total int
		want           []int
	}{
		{1, 10, []int{1, 2, 3, 4, 5}},
		{3, 10, []int{1, 2, 3, 4, 5}},
		{10, 10, []int{6, 7, 8, 9, 10}},
		{8, 10, []int{6, 7, 8, 9, 10}},
		{5, 10, []int{3, 4, 5, 6, 7}},
		{2, 3, []int{1, 2, 3}},
		{1, 5, []int{1, 2, 3, 4, 5}},
		{1, 0, []int{}},
	}
	for _, tc := range cases {
		if got := PageWindow(tc.current, tc.total); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("PageWindow(%d,%d) = %v, want %v", tc.current, tc.total, got, tc.want)
		}
	}
}

func TestLanguages(t *testing.T) {
	audio, subs := Languages(sample())
	if !reflect.DeepEqual(audio, []string{"English", "Japanese", "French"}) {
		t.Fatalf("unexpected audio %v", audio)
	}
	if !reflect.DeepEqual(subs, []string{"Spanish", "English"}) {
		t.Fatalf("unexpected subtitles %v", subs)
	}
}

func TestParseSort(t *testing.T) {
	if f, ok := ParseSortField("Completed"); !ok || f != SortCompleted {
		t.Fatalf("unexpected field %q", f)
	}
	if _, ok := ParseSortField("size"); ok {
		t.Fatal("size is not a sortable field")
	}
	if o, ok := ParseSortOrder("ASC"); !ok || o != Asc {
		t.Fatalf("unexpected order %q", o)
	}
}
