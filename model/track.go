package model

import (
	"database/sql"
	"time"
)

// Track represents an audio track in the station catalog.
type Track struct {
	ID            int64          `json:"id"`
	Title         string         `json:"title"`
	Artist        string         `json:"artist"`
	Genre         sql.NullString `json:"-"`
	DurationLabel sql.NullString `json:"-"` // display label such as "3:45", not used by playback
	AudioURL      string         `json:"audioUrl"`
	CoverImage    sql.NullString `json:"-"`
	SoundcloudURL sql.NullString `json:"-"`
	FileSize      sql.NullInt64  `json:"-"`
	IsPublished   bool           `json:"isPublished"`
	UploadedBy    int64          `json:"uploadedBy"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// TrackView is the JSON shape handed to API clients and the playback
// engine. Nullable columns flatten to plain strings, empty when unset.
type TrackView struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	Genre         string    `json:"genre,omitempty"`
	DurationLabel string    `json:"duration,omitempty"`
	AudioURL      string    `json:"audioUrl"`
	CoverImage    string    `json:"coverImage,omitempty"`
	SoundcloudURL string    `json:"soundcloudUrl,omitempty"`
	IsPublished   bool      `json:"isPublished"`
	CreatedAt     time.Time `json:"createdAt"`
}

// View flattens a Track into its API representation.
func (t *Track) View() TrackView {
	return TrackView{
		ID:            t.ID,
		Title:         t.Title,
		Artist:        t.Artist,
		Genre:         t.Genre.String,
		DurationLabel: t.DurationLabel.String,
		AudioURL:      t.AudioURL,
		CoverImage:    t.CoverImage.String,
		SoundcloudURL: t.SoundcloudURL.String,
		IsPublished:   t.IsPublished,
		CreatedAt:     t.CreatedAt,
	}
}

// GenreSummary backs the genre browser: one row per distinct genre with
// the number of tracks and a representative track for the tile.
type GenreSummary struct {
	Genre       string    `json:"genre"`
	TrackCount  int       `json:"trackCount"`
	SampleTrack TrackView `json:"sampleTrack"`
}
