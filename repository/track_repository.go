package repository

import (
	"context"
	"database/sql"
	"time"

	"echofm/model"
)

// trackColumns is the SELECT list shared by every track read.
const trackColumns = `id, title, artist, artist_id, album_id, duration, plays_count, downloads_count, file_url, cover_url, is_active, created_at, updated_at`

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(ctx context.Context, track *model.Track) (int64, error)
	GetTrackByID(ctx context.Context, id int64) (*model.Track, error)
	ListActiveTracks(ctx context.Context, limit, offset int) ([]*model.Track, error)
	DeactivateTrack(ctx context.Context, id int64) error
	SearchTracks(ctx context.Context, query string) ([]*model.Track, error)
	TrendingTracks(ctx context.Context, limit, playsWeight, downloadsWeight int) ([]*model.Track, error)
	IncrementPlays(ctx context.Context, id int64) error
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	db *sql.DB
}

// NewMySQLTrackRepository creates a new mysqlTrackRepository on the shared pool.
func NewMySQLTrackRepository(db *sql.DB) TrackRepository {
	return &mysqlTrackRepository{db: db}
}

// CreateTrack adds a new track to the database. Counters start at zero;
// file_url is populated by the upload collaborator.
func (r *mysqlTrackRepository) CreateTrack(ctx context.Context, track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (title, artist, artist_id, album_id, duration, plays_count, downloads_count, file_url, cover_url, is_active, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, 0, 0, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query,
		track.Title, track.Artist, track.ArtistID, track.AlbumID, track.Duration,
		track.FileURL, track.CoverURL, track.IsActive, now, now)
	if err != nil {
		return 0, wrapStore("failed to execute CreateTrack", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapStore("failed to get last insert ID for CreateTrack", err)
	}
	return id, nil
}

// GetTrackByID retrieves a track by its ID. Returns (nil, nil) when absent.
func (r *mysqlTrackRepository) GetTrackByID(ctx context.Context, id int64) (*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ?`
	track, err := scanTrack(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Track not found
		}
		return nil, wrapStore("failed to scan track by ID", err)
	}
	return track, nil
}

// ListActiveTracks returns a page of active tracks, newest first.
func (r *mysqlTrackRepository) ListActiveTracks(ctx context.Context, limit, offset int) ([]*model.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE is_active = 1 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, wrapStore("failed to query active tracks", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

// DeactivateTrack soft-deletes a track. Tracks are never hard-deleted while
// event history references them.
func (r *mysqlTrackRepository) DeactivateTrack(ctx context.Context, id int64) error {
	query := `UPDATE tracks SET is_active = 0, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return wrapStore("failed to execute DeactivateTrack", err)
	}
	return nil
}

// SearchTracks matches the query substring case-insensitively against the
// track title and artist name. Results are ordered by title for stability.
func (r *mysqlTrackRepository) SearchTracks(ctx context.Context, query string) ([]*model.Track, error) {
	pattern := "%" + query + "%"

	b := &condBuilder{}
	b.where("is_active = 1")
	b.where("(LOWER(title) LIKE LOWER(?) OR LOWER(artist) LIKE LOWER(?))", pattern, pattern)
	where, args, err := b.clause()
	if err != nil {
		return nil, wrapStore("failed to build SearchTracks query", err)
	}

	stmt := `SELECT ` + trackColumns + ` FROM tracks` + where + ` ORDER BY title ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, wrapStore("failed to query tracks for search", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

// TrendingTracks ranks active tracks by the weighted counter score, breaking
// ties by newest created_at, then by id, for full determinism.
func (r *mysqlTrackRepository) TrendingTracks(ctx context.Context, limit, playsWeight, downloadsWeight int) ([]*model.Track, error) {
	if limit <= 0 {
		return []*model.Track{}, nil
	}
	query := `SELECT ` + trackColumns + `
	           FROM tracks
	           WHERE is_active = 1
	           ORDER BY (plays_count * ? + downloads_count * ?) DESC, created_at DESC, id DESC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, playsWeight, downloadsWeight, limit)
	if err != nil {
		return nil, wrapStore("failed to query trending tracks", err)
	}
	defer rows.Close()
	return collectTracks(rows)
}

// IncrementPlays bumps the cached plays counter by one. A single statement,
// commutative under concurrent writers; no transaction needed.
func (r *mysqlTrackRepository) IncrementPlays(ctx context.Context, id int64) error {
	query := `UPDATE tracks SET plays_count = plays_count + 1, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, time.Now(), id); err != nil {
		return wrapStore("failed to execute IncrementPlays", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrack(row rowScanner) (*model.Track, error) {
	track := &model.Track{}
	err := row.Scan(&track.ID, &track.Title, &track.Artist, &track.ArtistID, &track.AlbumID,
		&track.Duration, &track.PlaysCount, &track.DownloadsCount,
		&track.FileURL, &track.CoverURL, &track.IsActive, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return track, nil
}

func collectTracks(rows *sql.Rows) ([]*model.Track, error) {
	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, wrapStore("failed to scan track row", err)
		}
		tracks = append(tracks, track)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStore("error during track rows iteration", err)
	}
	return tracks, nil
}
