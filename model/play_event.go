package model

import "time"

// PlayEvent is a listen-history row recorded whenever a player session
// starts a track. Stored through GORM, unlike the hand-written SQL of
// the users/tracks tables.
type PlayEvent struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID string    `json:"sessionId" gorm:"size:36;index;not null"`
	TrackID   int64     `json:"trackId" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"size:255"`
	Artist    string    `json:"artist" gorm:"size:255"`
	Surface   string    `json:"surface" gorm:"size:32"` // carousel, genre, transport, monitor
	StartedAt time.Time `json:"startedAt" gorm:"index"`
}

// TableName pins the table name.
func (PlayEvent) TableName() string {
	return "play_events"
}
