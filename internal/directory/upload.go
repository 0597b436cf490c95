package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"torrentfront/internal/seed"
	"torrentfront/internal/upstream"
	"torrentfront/pkg/models"
)

const (
	defaultUploadName       = "Unnamed Torrent"
	defaultUploadSize int64 = 1 << 30
)

// UploadPayload is an upload form as received. Fields hold the plain form
// values (name, media_type, tmdb_id, quality, release_group,
// audio_languages, subtitle_languages and anything else the client sent).
type UploadPayload struct {
	Fields      map[string]string
	TorrentFile *upstream.FilePart
	Screenshots []upstream.FilePart
}

func (p UploadPayload) field(name string) string {
	return strings.TrimSpace(p.Fields[name])
}

// Create forwards the upload to the index, or synthesizes a record in
// mock-only mode. Index failures surface as ErrUpstreamUnavailable.
func (d *Directory) Create(ctx context.Context, p UploadPayload) (models.Torrent, Source, error) {
	if d.mockOnly {
		t, err := d.synthesize(p)
		return t, SourceFallback, err
	}

	t, err := d.index.Create(ctx, upstream.Upload{
		Fields:      p.Fields,
		TorrentFile: p.TorrentFile,
		Screenshots: p.Screenshots,
	})
	if err != nil {
		log.WithError(err).Error("index rejected upload")
		return models.Torrent{}, SourceLive, errors.Wrap(ErrUpstreamUnavailable, err.Error())
	}
	return *t, SourceLive, nil
}

func (d *Directory) synthesize(p UploadPayload) (models.Torrent, error) {
	now := time.Now().UTC()
	if d.norm.Now != nil {
		now = d.norm.Now().UTC()
	}

	t := models.Torrent{
		ID:                d.maxID + 1,
		Name:              p.field("name"),
		Size:              defaultUploadSize,
		CreatedAt:         now,
		UpdatedAt:         now,
		AudioLanguages:    []string{},
		SubtitleLanguages: []string{},
	}

	if p.TorrentFile != nil && len(p.TorrentFile.Data) > 0 {
		if hash, name, size, err := readMetainfo(p.TorrentFile.Data); err != nil {
			log.WithError(err).Debug("torrent file not parsed, synthesizing hash")
		} else {
			t.InfoHash = hash
			if size > 0 {
				t.Size = size
			}
			if t.Name == "" {
				t.Name = name
			}
		}
	}
	if t.InfoHash == "" {
		t.InfoHash = seed.RandomInfoHash(d.norm.Rand)
	}
	if t.Name == "" {
		t.Name = defaultUploadName
	}

	if raw := p.field("tmdb_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id != 0 {
			t.TMDBID = &id
		}
	}
	if raw := p.field("media_type"); raw != "" {
		kind, ok := models.ParseMediaKind(raw)
		if !ok {
			return models.Torrent{}, errors.Wrapf(ErrValidation, "media_type %q", raw)
		}
		t.MediaType = &kind
	}
	if q := p.field("quality"); q != "" {
		t.Quality = &q
	}
	if g := p.field("release_group"); g != "" {
		t.ReleaseGroup = &g
	}

	var err error
	if t.AudioLanguages, err = languageList(p.field("audio_languages")); err != nil {
		return models.Torrent{}, errors.Wrap(err, "audio_languages")
	}
	if t.SubtitleLanguages, err = languageList(p.field("subtitle_languages")); err != nil {
		return models.Torrent{}, errors.Wrap(err, "subtitle_languages")
	}
	return t, nil
}

// languageList decodes a JSON array of strings; empty input gives [].
func languageList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, errors.Wrap(ErrValidation, "expected a JSON array of strings")
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func readMetainfo(data []byte) (hash, name string, size int64, err error) {
	mi, err := metainfo.Load(bytes.NewReader(data))
	if err != nil {
		return "", "", 0, errors.Wrap(err, "load metainfo")
	}
	info, err := mi.UnmarshalInfo()
	if err != nil {
		return "", "", 0, errors.Wrap(err, "unmarshal info")
	}
	return mi.HashInfoBytes().HexString(), info.Name, info.TotalLength(), nil
}
