package models

// Metadata is a movie or tv item from the external catalog. Movies carry
// Title and ReleaseDate, tv shows carry Name and FirstAirDate.
type Metadata struct {
	ID           int64     `json:"id"`
	Kind         MediaKind `json:"media_type,omitempty"`
	Title        string    `json:"title,omitempty"`
	Name         string    `json:"name,omitempty"`
	PosterPath   *string   `json:"poster_path"`
	BackdropPath *string   `json:"backdrop_path"`
	Overview     string    `json:"overview"`
	ReleaseDate  string    `json:"release_date,omitempty"`
	FirstAirDate string    `json:"first_air_date,omitempty"`
}

func (m Metadata) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

func (m Metadata) Poster() string {
	if m.PosterPath == nil {
		return ""
	}
	return *m.PosterPath
}
