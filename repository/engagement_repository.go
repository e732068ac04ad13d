package repository

import (
	"context"
	"database/sql"
	"time"

	"echofm/apperr"
	"echofm/model"
)

// ActivityScope selects whose events a weekly query aggregates: one track's
// (all listeners) or one user's (all tracks). Exactly one field is set.
type ActivityScope struct {
	TrackID int64
	UserID  int64
}

// EngagementRepository records play/download events and serves the aggregate
// reads derived from them.
type EngagementRepository interface {
	InsertPlayEvent(ctx context.Context, trackID int64, userID *int64, playedAt time.Time) error
	// RecordDownload atomically verifies the track has a playable asset,
	// appends the DownloadEvent and increments downloads_count. On a missing
	// track or empty file_url it fails NotFound with no partial write.
	RecordDownload(ctx context.Context, trackID, userID int64, downloadedAt time.Time) (fileURL, title string, err error)
	GetCounters(ctx context.Context, trackID int64) (*model.TrackCounters, error)
	CountPlayEvents(ctx context.Context, trackID int64) (int64, error)
	PlaysByDay(ctx context.Context, scope ActivityScope, from, to time.Time) (map[string]int64, error)
	DownloadsByDay(ctx context.Context, scope ActivityScope, from, to time.Time) (map[string]int64, error)
	UserTotals(ctx context.Context, userID int64) (plays, downloads int64, err error)
}

// mysqlEngagementRepository implements EngagementRepository for MySQL.
type mysqlEngagementRepository struct {
	db *sql.DB
}

// NewMySQLEngagementRepository creates a new mysqlEngagementRepository on the shared pool.
func NewMySQLEngagementRepository(db *sql.DB) EngagementRepository {
	return &mysqlEngagementRepository{db: db}
}

// InsertPlayEvent appends one row to play_history. userID nil means an
// anonymous listener.
func (r *mysqlEngagementRepository) InsertPlayEvent(ctx context.Context, trackID int64, userID *int64, playedAt time.Time) error {
	query := `INSERT INTO play_history (track_id, user_id, played_at) VALUES (?, ?, ?)`
	var uid sql.NullInt64
	if userID != nil {
		uid = sql.NullInt64{Int64: *userID, Valid: true}
	}
	if _, err := r.db.ExecContext(ctx, query, trackID, uid, playedAt); err != nil {
		return wrapStore("failed to insert play event", err)
	}
	return nil
}

// RecordDownload runs the existence check, event append and counter bump as
// one transaction so a NotFound never leaves a DownloadEvent row behind.
func (r *mysqlEngagementRepository) RecordDownload(ctx context.Context, trackID, userID int64, downloadedAt time.Time) (string, string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", "", wrapStore("failed to begin download transaction", err)
	}
	defer tx.Rollback()

	var fileURL, title string
	row := tx.QueryRowContext(ctx,
		`SELECT file_url, title FROM tracks WHERE id = ? AND is_active = 1`, trackID)
	if err := row.Scan(&fileURL, &title); err != nil {
		if err == sql.ErrNoRows {
			return "", "", apperr.Newf(apperr.KindNotFound, "track %d not found", trackID)
		}
		return "", "", wrapStore("failed to resolve track for download", err)
	}
	if fileURL == "" {
		return "", "", apperr.Newf(apperr.KindNotFound, "track %d has no playable asset", trackID)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO download_history (track_id, user_id, downloaded_at) VALUES (?, ?, ?)`,
		trackID, userID, downloadedAt); err != nil {
		return "", "", wrapStore("failed to insert download event", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE tracks SET downloads_count = downloads_count + 1, updated_at = ? WHERE id = ?`,
		downloadedAt, trackID); err != nil {
		return "", "", wrapStore("failed to increment downloads counter", err)
	}

	if err := tx.Commit(); err != nil {
		return "", "", wrapStore("failed to commit download transaction", err)
	}
	return fileURL, title, nil
}

// GetCounters reads the cached play/download counters off the track row.
// Playlist memberships and favorites are derived at read time by their own
// repositories; the caller composes the full TrackCounters.
func (r *mysqlEngagementRepository) GetCounters(ctx context.Context, trackID int64) (*model.TrackCounters, error) {
	query := `SELECT plays_count, downloads_count FROM tracks WHERE id = ?`
	counters := &model.TrackCounters{}
	err := r.db.QueryRowContext(ctx, query, trackID).Scan(&counters.Plays, &counters.Downloads)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.Newf(apperr.KindNotFound, "track %d not found", trackID)
		}
		return nil, wrapStore("failed to scan track counters", err)
	}
	return counters, nil
}

// CountPlayEvents counts the event log rows backing a track's plays counter.
// Used to probe counter/event-log consistency.
func (r *mysqlEngagementRepository) CountPlayEvents(ctx context.Context, trackID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM play_history WHERE track_id = ?`, trackID).Scan(&n)
	if err != nil {
		return 0, wrapStore("failed to count play events", err)
	}
	return n, nil
}

// PlaysByDay groups play events by server-local calendar day within [from, to).
func (r *mysqlEngagementRepository) PlaysByDay(ctx context.Context, scope ActivityScope, from, to time.Time) (map[string]int64, error) {
	return r.eventsByDay(ctx, "play_history", "played_at", scope, from, to)
}

// DownloadsByDay groups download events by server-local calendar day within [from, to).
func (r *mysqlEngagementRepository) DownloadsByDay(ctx context.Context, scope ActivityScope, from, to time.Time) (map[string]int64, error) {
	return r.eventsByDay(ctx, "download_history", "downloaded_at", scope, from, to)
}

func (r *mysqlEngagementRepository) eventsByDay(ctx context.Context, table, tsColumn string, scope ActivityScope, from, to time.Time) (map[string]int64, error) {
	b := &condBuilder{}
	b.where(tsColumn+" >= ?", from)
	b.where(tsColumn+" < ?", to)
	if scope.TrackID != 0 {
		b.where("track_id = ?", scope.TrackID)
	}
	if scope.UserID != 0 {
		b.where("user_id = ?", scope.UserID)
	}
	where, args, err := b.clause()
	if err != nil {
		return nil, wrapStore("failed to build activity query", err)
	}

	query := `SELECT DATE_FORMAT(` + tsColumn + `, '%Y-%m-%d') AS day, COUNT(*) FROM ` + table + where + ` GROUP BY day`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStore("failed to query daily activity", err)
	}
	defer rows.Close()

	byDay := make(map[string]int64)
	for rows.Next() {
		var day string
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, wrapStore("failed to scan daily activity row", err)
		}
		byDay[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStore("error during daily activity iteration", err)
	}
	return byDay, nil
}

// UserTotals counts all play and download events recorded for one user.
func (r *mysqlEngagementRepository) UserTotals(ctx context.Context, userID int64) (int64, int64, error) {
	var plays, downloads int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM play_history WHERE user_id = ?`, userID).Scan(&plays)
	if err != nil {
		return 0, 0, wrapStore("failed to count user plays", err)
	}
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM download_history WHERE user_id = ?`, userID).Scan(&downloads)
	if err != nil {
		return 0, 0, wrapStore("failed to count user downloads", err)
	}
	return plays, downloads, nil
}
