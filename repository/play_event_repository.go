package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"massiliafm/model"
)

// PlayEventRepository records and reads listen history.
type PlayEventRepository interface {
	Record(event *model.PlayEvent) error
	RecentBySession(sessionID string, limit int) ([]model.PlayEvent, error)
	RecentByTrack(trackID int64, limit int) ([]model.PlayEvent, error)
}

// gormPlayEventRepository implements PlayEventRepository with GORM.
type gormPlayEventRepository struct {
	db *gorm.DB
}

// NewGormPlayEventRepository creates a play-event repository.
func NewGormPlayEventRepository(db *gorm.DB) PlayEventRepository {
	return &gormPlayEventRepository{db: db}
}

// Record persists one play event.
func (r *gormPlayEventRepository) Record(event *model.PlayEvent) error {
	if event.StartedAt.IsZero() {
		event.StartedAt = time.Now()
	}
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to record play event: %w", err)
	}
	return nil
}

// RecentBySession returns the latest events of one listening session.
func (r *gormPlayEventRepository) RecentBySession(sessionID string, limit int) ([]model.PlayEvent, error) {
	var events []model.PlayEvent
	err := r.db.Where("session_id = ?", sessionID).
		Order("started_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query play events for session %s: %w", sessionID, err)
	}
	return events, nil
}

// RecentByTrack returns the latest events for one track.
func (r *gormPlayEventRepository) RecentByTrack(trackID int64, limit int) ([]model.PlayEvent, error) {
	var events []model.PlayEvent
	err := r.db.Where("track_id = ?", trackID).
		Order("started_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query play events for track %d: %w", trackID, err)
	}
	return events, nil
}
