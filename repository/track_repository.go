package repository

import (
	"database/sql"
	"fmt"
	"time"

	"massiliafm/db"
	"massiliafm/model"
)

// TrackUpdate carries the editable metadata fields of a track.
type TrackUpdate struct {
	Title         string
	Artist        string
	Genre         sql.NullString
	DurationLabel sql.NullString
	SoundcloudURL sql.NullString
}

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	Create(track *model.Track) (int64, error)
	GetByID(id int64) (*model.Track, error)
	ListPublished(limit, offset int) ([]*model.Track, error)
	ListByUploader(userID int64) ([]*model.Track, error)
	ListAll() ([]*model.Track, error)
	ListByGenre(genre string) ([]*model.Track, error)
	Update(id int64, patch TrackUpdate) error
	SetPublished(id int64, published bool) error
	Delete(id int64) error
	ListGenres() ([]*model.GenreSummary, error)
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	DB *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository() TrackRepository {
	return &mysqlTrackRepository{DB: db.DB}
}

const trackColumns = `id, title, artist, genre, duration_label, audio_url, cover_image,
	soundcloud_url, file_size, is_published, uploaded_by, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(row rowScanner) (*model.Track, error) {
	track := &model.Track{}
	err := row.Scan(&track.ID, &track.Title, &track.Artist, &track.Genre,
		&track.DurationLabel, &track.AudioURL, &track.CoverImage,
		&track.SoundcloudURL, &track.FileSize, &track.IsPublished,
		&track.UploadedBy, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return track, nil
}

func (r *mysqlTrackRepository) queryTracks(query string, args ...interface{}) ([]*model.Track, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return tracks, nil
}

// Create adds a new track to the database.
func (r *mysqlTrackRepository) Create(track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (title, artist, genre, duration_label, audio_url, cover_image,
		soundcloud_url, file_size, is_published, uploaded_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for Create: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(track.Title, track.Artist, track.Genre, track.DurationLabel,
		track.AudioURL, track.CoverImage, track.SoundcloudURL, track.FileSize,
		track.IsPublished, track.UploadedBy, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute Create: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for Create: %w", err)
	}
	return id, nil
}

// GetByID retrieves a track by its ID. Returns nil when not found.
func (r *mysqlTrackRepository) GetByID(id int64) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	track, err := scanTrack(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan track by ID %d: %w", id, err)
	}
	return track, nil
}

// ListPublished retrieves published tracks, newest first.
func (r *mysqlTrackRepository) ListPublished(limit, offset int) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks
		WHERE is_published = TRUE ORDER BY created_at DESC LIMIT ? OFFSET ?`
	return r.queryTracks(query, limit, offset)
}

// ListByUploader retrieves every track a DJ uploaded, newest first,
// published or not.
func (r *mysqlTrackRepository) ListByUploader(userID int64) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks
		WHERE uploaded_by = ? ORDER BY created_at DESC`
	return r.queryTracks(query, userID)
}

// ListAll retrieves every track, newest first. Admin dashboard only.
func (r *mysqlTrackRepository) ListAll() ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY created_at DESC`
	return r.queryTracks(query)
}

// ListByGenre retrieves published tracks of one genre, newest first.
// Serves the public genre browser, so drafts never appear.
func (r *mysqlTrackRepository) ListByGenre(genre string) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks
		WHERE is_published = TRUE AND genre = ? ORDER BY created_at DESC`
	return r.queryTracks(query, genre)
}

// Update rewrites the editable metadata of a track.
func (r *mysqlTrackRepository) Update(id int64, patch TrackUpdate) error {
	query := `UPDATE tracks SET title = ?, artist = ?, genre = ?, duration_label = ?,
		soundcloud_url = ?, updated_at = ? WHERE id = ?`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for Update: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(patch.Title, patch.Artist, patch.Genre, patch.DurationLabel,
		patch.SoundcloudURL, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to execute Update for track ID %d: %w", id, err)
	}
	return nil
}

// SetPublished flips the publish flag of a track.
func (r *mysqlTrackRepository) SetPublished(id int64, published bool) error {
	query := `UPDATE tracks SET is_published = ?, updated_at = ? WHERE id = ?`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for SetPublished: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(published, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to execute SetPublished for track ID %d: %w", id, err)
	}
	return nil
}

// Delete removes a track row.
func (r *mysqlTrackRepository) Delete(id int64) error {
	query := `DELETE FROM tracks WHERE id = ?`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for Delete: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.Exec(id)
	if err != nil {
		return fmt.Errorf("failed to execute Delete for track ID %d: %w", id, err)
	}
	return nil
}

// ListGenres aggregates published tracks per genre and attaches the
// most recent track of each genre as the sample for the browser tile.
func (r *mysqlTrackRepository) ListGenres() ([]*model.GenreSummary, error) {
	query := `SELECT genre, COUNT(*) FROM tracks
		WHERE is_published = TRUE AND genre IS NOT NULL AND genre != ''
		GROUP BY genre ORDER BY COUNT(*) DESC, genre ASC`
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query genres: %w", err)
	}
	defer rows.Close()

	summaries := make([]*model.GenreSummary, 0)
	for rows.Next() {
		s := &model.GenreSummary{}
		if err := rows.Scan(&s.Genre, &s.TrackCount); err != nil {
			return nil, fmt.Errorf("failed to scan genre row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during genre rows iteration: %w", err)
	}

	sampleQuery := `SELECT ` + trackColumns + ` FROM tracks
		WHERE is_published = TRUE AND genre = ? ORDER BY created_at DESC LIMIT 1`
	for _, s := range summaries {
		track, err := scanTrack(r.DB.QueryRow(sampleQuery, s.Genre))
		if err != nil {
			if err == sql.ErrNoRows {
				continue
			}
			return nil, fmt.Errorf("failed to scan sample track for genre %s: %w", s.Genre, err)
		}
		s.SampleTrack = track.View()
	}
	return summaries, nil
}
