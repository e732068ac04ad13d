package repository

import (
	"context"
	"database/sql"
	"time"
)

// FavoriteRepository manages the unique (user, track) like relation.
type FavoriteRepository interface {
	IsFavorite(ctx context.Context, userID, trackID int64) (bool, error)
	// Insert adds the favorite row. A concurrent duplicate insert is not an
	// error: the row already existing means "already liked", so Insert
	// reports inserted=false and no failure (first-writer-wins).
	Insert(ctx context.Context, userID, trackID int64) (inserted bool, err error)
	Delete(ctx context.Context, userID, trackID int64) (deleted bool, err error)
	CountByTrack(ctx context.Context, trackID int64) (int64, error)
}

// mysqlFavoriteRepository implements FavoriteRepository for MySQL.
type mysqlFavoriteRepository struct {
	db *sql.DB
}

// NewMySQLFavoriteRepository creates a new mysqlFavoriteRepository on the shared pool.
func NewMySQLFavoriteRepository(db *sql.DB) FavoriteRepository {
	return &mysqlFavoriteRepository{db: db}
}

// IsFavorite checks whether the (user, track) favorite row exists.
func (r *mysqlFavoriteRepository) IsFavorite(ctx context.Context, userID, trackID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM user_favorites WHERE user_id = ? AND track_id = ?`, userID, trackID).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, wrapStore("failed to check favorite existence", err)
	}
	return true, nil
}

// Insert creates the favorite row, absorbing duplicate-key races.
func (r *mysqlFavoriteRepository) Insert(ctx context.Context, userID, trackID int64) (bool, error) {
	query := `INSERT INTO user_favorites (user_id, track_id, created_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, userID, trackID, time.Now()); err != nil {
		if isDuplicateEntry(err) {
			return false, nil // already liked
		}
		return false, wrapStore("failed to insert favorite", err)
	}
	return true, nil
}

// Delete removes the favorite row if present.
func (r *mysqlFavoriteRepository) Delete(ctx context.Context, userID, trackID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = ? AND track_id = ?`, userID, trackID)
	if err != nil {
		return false, wrapStore("failed to delete favorite", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapStore("failed to read delete favorite result", err)
	}
	return affected > 0, nil
}

// CountByTrack counts how many users have favorited a track.
func (r *mysqlFavoriteRepository) CountByTrack(ctx context.Context, trackID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_favorites WHERE track_id = ?`, trackID).Scan(&n)
	if err != nil {
		return 0, wrapStore("failed to count favorites for track", err)
	}
	return n, nil
}
