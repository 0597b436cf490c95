package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"torrentfront/pkg/models"
)

func TestDefault(t *testing.T) {
	records := Default()
	if len(records) < 26 {
		t.Fatalf("bundled dataset should span more than one page, got %d", len(records))
	}
	if MaxID(records) != int64(len(records)) {
		t.Fatalf("expected sequential ids, max=%d len=%d", MaxID(records), len(records))
	}
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown field":  `{"torrents":[{"id":1,"title":"a","bogus":true}]}`,
		"missing title":  `{"torrents":[{"id":1}]}`,
		"zero id":        `{"torrents":[{"id":0,"title":"a"}]}`,
		"duplicate id":   `{"torrents":[{"id":1,"title":"a"},{"id":1,"title":"b"}]}`,
		"bad type":       `{"torrents":[{"id":1,"title":"a","type":"anime"}]}`,
		"negative count": `{"torrents":[{"id":1,"title":"a","seeders":-1}]}`,
		"short hash":     `{"torrents":[{"id":1,"title":"a","info_hash":"abc"}]}`,
		"not json":       `torrents: []`,
	}
	for name, body := range cases {
		if _, err := Parse(strings.NewReader(body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParse_Minimal(t *testing.T) {
	records, err := Parse(strings.NewReader(`{"torrents":[{"id":3,"title":"a","size":"weird"},{"id":9,"title":"b","type":"tv"}]}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 || MaxID(records) != 9 {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestLoadOrDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(path, []byte(`{"torrents":[{"id":1,"title":"only"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	records, err := LoadOrDefault(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 1 || records[0].Title != "only" {
		t.Fatalf("unexpected records %+v", records)
	}

	records, err = LoadOrDefault("")
	if err != nil || len(records) != len(Default()) {
		t.Fatalf("expected bundled dataset, got %d records err=%v", len(records), err)
	}

	if _, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestWithInfoHashes(t *testing.T) {
	keep := "0123456789abcdef0123456789abcdef01234567"
	in := []Record{{ID: 1, Title: "a"}, {ID: 2, Title: "b", InfoHash: keep}}

	out := WithInfoHashes(in, nil)
	if in[0].InfoHash != "" {
		t.Fatal("input must not be modified")
	}
	if !models.ValidInfoHash(out[0].InfoHash) {
		t.Fatalf("expected a generated hash, got %q", out[0].InfoHash)
	}
	if out[1].InfoHash != keep {
		t.Fatalf("existing hash replaced: %q", out[1].InfoHash)
	}

	n := Normalizer{}
	if n.Normalize(out[0]).InfoHash != n.Normalize(out[0]).InfoHash {
		t.Fatal("normalizing the same record twice must give the same hash")
	}
}
