package model

import "time"

// Track represents an audio track in the catalog. PlaysCount and
// DownloadsCount are denormalized caches of the event history totals and
// must stay reconcilable to COUNT(*) over play_history / download_history.
type Track struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	Title          string    `json:"title" gorm:"size:255;not null"`
	Artist         string    `json:"artist" gorm:"size:255"`
	ArtistID       int64     `json:"artistId" gorm:"index"`
	AlbumID        int64     `json:"albumId" gorm:"index"`
	Duration       float32   `json:"duration"` // seconds
	PlaysCount     int64     `json:"playsCount" gorm:"not null;default:0"`
	DownloadsCount int64     `json:"downloadsCount" gorm:"not null;default:0"`
	FileURL        string    `json:"-" gorm:"size:767"` // object path, populated by the upload pipeline
	CoverURL       string    `json:"coverUrl" gorm:"size:767"`
	IsActive       bool      `json:"isActive" gorm:"not null;default:true"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// TableName returns the database table name.
func (Track) TableName() string {
	return "tracks"
}
