package directory

import "github.com/pkg/errors"

var (
	ErrNotFound            = errors.New("torrent not found")
	ErrValidation          = errors.New("invalid request")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Source tells whether a result came from the index or from seed data.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)
