package repository

import (
	"context"
	"database/sql"

	"echofm/model"
)

// PlaylistRepository serves the playlist reads the engagement core needs:
// free-text search and membership counting. Playlist CRUD itself belongs to
// the excluded collaborator.
type PlaylistRepository interface {
	SearchPlaylists(ctx context.Context, query string) ([]*model.Playlist, error)
	CountContainingTrack(ctx context.Context, trackID int64) (int64, error)
}

// mysqlPlaylistRepository implements PlaylistRepository for MySQL.
type mysqlPlaylistRepository struct {
	db *sql.DB
}

// NewMySQLPlaylistRepository creates a new mysqlPlaylistRepository on the shared pool.
func NewMySQLPlaylistRepository(db *sql.DB) PlaylistRepository {
	return &mysqlPlaylistRepository{db: db}
}

// SearchPlaylists matches the query substring case-insensitively against
// public playlist names, ordered by name for stable results.
func (r *mysqlPlaylistRepository) SearchPlaylists(ctx context.Context, query string) ([]*model.Playlist, error) {
	pattern := "%" + query + "%"

	b := &condBuilder{}
	b.where("is_public = 1")
	b.where("LOWER(name) LIKE LOWER(?)", pattern)
	where, args, err := b.clause()
	if err != nil {
		return nil, wrapStore("failed to build SearchPlaylists query", err)
	}

	stmt := `SELECT id, user_id, name, cover_url, is_public, created_at, updated_at FROM playlists` + where + ` ORDER BY name ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, wrapStore("failed to query playlists for search", err)
	}
	defer rows.Close()

	playlists := make([]*model.Playlist, 0)
	for rows.Next() {
		p := &model.Playlist{}
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CoverURL, &p.IsPublic, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, wrapStore("failed to scan playlist row", err)
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStore("error during playlist rows iteration", err)
	}
	return playlists, nil
}

// CountContainingTrack counts distinct playlists holding the track. Derived
// at read time, never cached on the track row.
func (r *mysqlPlaylistRepository) CountContainingTrack(ctx context.Context, trackID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT playlist_id) FROM playlist_tracks WHERE track_id = ?`, trackID).Scan(&n)
	if err != nil {
		return 0, wrapStore("failed to count playlist memberships", err)
	}
	return n, nil
}
