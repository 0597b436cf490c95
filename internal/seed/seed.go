package seed

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"torrentfront/pkg/models"
)

//go:embed data/torrents.json
var defaultData []byte

// Record is one entry of a seed file. Only ID and Title are required.
type Record struct {
	ID           int64    `json:"id"`
	Title        string   `json:"title"`
	Size         string   `json:"size,omitempty"`
	TimeAgo      string   `json:"timeAgo,omitempty"`
	InfoHash     string   `json:"info_hash,omitempty"`
	Seeders      int64    `json:"seeders"`
	Leechers     int64    `json:"leechers"`
	Completed    int64    `json:"completed"`
	TMDBID       *int64   `json:"tmdbId,omitempty"`
	Type         string   `json:"type,omitempty"`
	Quality      string   `json:"quality,omitempty"`
	Audio        []string `json:"audio,omitempty"`
	Subtitles    []string `json:"subtitles,omitempty"`
	ReleaseGroup string   `json:"releaseGroup,omitempty"`
}

type file struct {
	Torrents []Record `json:"torrents"`
}

// Parse decodes and validates a seed file. Unknown fields and malformed
// entries fail the whole load.
func Parse(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decode seed file")
	}

	seen := make(map[int64]struct{}, len(f.Torrents))
	for i, rec := range f.Torrents {
		if err := rec.validate(); err != nil {
			return nil, errors.Wrapf(err, "seed entry %d", i)
		}
		if _, dup := seen[rec.ID]; dup {
			return nil, errors.Errorf("seed entry %d: duplicate id %d", i, rec.ID)
		}
		seen[rec.ID] = struct{}{}
	}
	return f.Torrents, nil
}

func (r Record) validate() error {
	if r.ID <= 0 {
		return errors.New("id must be positive")
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.Errorf("id %d: title required", r.ID)
	}
	if r.Seeders < 0 || r.Leechers < 0 || r.Completed < 0 {
		return errors.Errorf("id %d: negative swarm counter", r.ID)
	}
	if r.Type != "" {
		if _, ok := models.ParseMediaKind(r.Type); !ok {
			return errors.Errorf("id %d: unknown type %q", r.ID, r.Type)
		}
	}
	if r.InfoHash != "" && !models.ValidInfoHash(r.InfoHash) {
		return errors.Errorf("id %d: info_hash must be 40 hex chars", r.ID)
	}
	return nil
}

// Load reads a seed file from disk.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open seed file")
	}
	defer f.Close()
	return Parse(f)
}

// Default returns the bundled dataset.
func Default() []Record {
	records, err := Parse(bytes.NewReader(defaultData))
	if err != nil {
		panic(errors.Wrap(err, "bundled seed data"))
	}
	return records
}

// LoadOrDefault loads path, or the bundled dataset when path is empty.
func LoadOrDefault(path string) ([]Record, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	return Load(path)
}

// WithInfoHashes returns a copy of records where every entry without an
// info hash has been given a random one, so a record keeps the same hash
// for as long as the copy lives.
func WithInfoHashes(records []Record, src io.Reader) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	for i := range out {
		if out[i].InfoHash == "" {
			out[i].InfoHash = RandomInfoHash(src)
		}
	}
	return out
}

// MaxID returns the largest id in records, 0 for an empty set.
func MaxID(records []Record) int64 {
	var max int64
	for _, r := range records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max
}
