package model

import "time"

// Playlist is a user-curated track collection.
type Playlist struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"userId" gorm:"not null;index"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	CoverURL  string    `json:"coverUrl" gorm:"size:767"`
	IsPublic  bool      `json:"isPublic" gorm:"not null;default:true"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name.
func (Playlist) TableName() string {
	return "playlists"
}

// PlaylistTrack is the membership row linking a playlist to a track.
type PlaylistTrack struct {
	PlaylistID int64 `json:"playlistId" gorm:"not null;uniqueIndex:idx_playlist_track"`
	TrackID    int64 `json:"trackId" gorm:"not null;uniqueIndex:idx_playlist_track;index"`
	Position   int   `json:"position" gorm:"not null;default:0"`
}

// TableName returns the database table name.
func (PlaylistTrack) TableName() string {
	return "playlist_tracks"
}
