package model

import (
	"database/sql"
	"time"
)

// PlayEvent is one row of the append-only play history. UserID is NULL for
// anonymous listeners. Repeated plays by the same user are all recorded.
type PlayEvent struct {
	ID       int64         `json:"id" gorm:"primaryKey"`
	TrackID  int64         `json:"trackId" gorm:"not null;index"`
	UserID   sql.NullInt64 `json:"userId" gorm:"index"`
	PlayedAt time.Time     `json:"playedAt" gorm:"not null;index"`
}

// TableName returns the database table name.
func (PlayEvent) TableName() string {
	return "play_history"
}

// DownloadEvent is one row of the append-only download history.
type DownloadEvent struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	TrackID      int64     `json:"trackId" gorm:"not null;index"`
	UserID       int64     `json:"userId" gorm:"not null;index"`
	DownloadedAt time.Time `json:"downloadedAt" gorm:"not null;index"`
}

// TableName returns the database table name.
func (DownloadEvent) TableName() string {
	return "download_history"
}

// Favorite is a user-declared like relation, unique per (user, track).
// Toggling creates and destroys rows; no history is retained.
type Favorite struct {
	UserID    int64     `json:"userId" gorm:"not null;uniqueIndex:idx_user_track_favorite"`
	TrackID   int64     `json:"trackId" gorm:"not null;uniqueIndex:idx_user_track_favorite"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the database table name.
func (Favorite) TableName() string {
	return "user_favorites"
}

// TrackCounters is a point-in-time aggregate read for one track. Plays and
// Downloads come from the counter cache; PlaylistMemberships and
// FavoriteCount are distinct-counted at read time.
type TrackCounters struct {
	Plays               int64 `json:"plays"`
	Downloads           int64 `json:"downloads"`
	PlaylistMemberships int64 `json:"playlistMemberships"`
	FavoriteCount       int64 `json:"favoriteCount"`
}

// ActivityPoint is one day of the weekly activity series.
type ActivityPoint struct {
	Date      string `json:"date"` // YYYY-MM-DD, server-local calendar
	Plays     int64  `json:"plays"`
	Downloads int64  `json:"downloads"`
}

// TrackStats is the combined stats payload for one track.
type TrackStats struct {
	TrackID  int64           `json:"trackId"`
	Counters TrackCounters   `json:"counters"`
	Weekly   []ActivityPoint `json:"weekly"`
}

// UserStats is the combined stats payload for one user's own activity.
type UserStats struct {
	UserID    int64           `json:"userId"`
	Plays     int64           `json:"plays"`
	Downloads int64           `json:"downloads"`
	Weekly    []ActivityPoint `json:"weekly"`
}

// DownloadGrant is the outcome of a recorded download: where to fetch the
// asset and what to call the file.
type DownloadGrant struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}
