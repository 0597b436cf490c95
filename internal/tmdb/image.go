package tmdb

import "strings"

const (
	SizeW500     = "w500"
	SizeOriginal = "original"

	PlaceholderImage = "/placeholder.svg?height=750&width=500&text=No%20Image"
)

// ImageURL builds a display URL for a poster or backdrop path. An empty path
// yields the local placeholder; an unknown size falls back to w500.
func (c *Client) ImageURL(path, size string) string {
	if path == "" {
		return PlaceholderImage
	}
	if size != SizeOriginal {
		size = SizeW500
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.imageBase + "/" + size + path
}
