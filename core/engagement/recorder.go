// Package engagement implements the engagement core: recording play and
// download events, counter reads, the weekly activity series, trending
// ranking and favorite toggling. All state lives in the durable store;
// concurrent requests coordinate only through it.
package engagement

import (
	"context"
	"path"
	"regexp"
	"strings"
	"time"

	"echofm/apperr"
	"echofm/logger"
	"echofm/model"
	"echofm/repository"
)

// AssetStore resolves a stored object into a client-fetchable download URL
// and answers whether the object actually exists. Implemented by
// storage.MinioStore.
type AssetStore interface {
	PresignDownload(ctx context.Context, object, filename string) (string, error)
	StatObject(ctx context.Context, object string) (bool, error)
}

// Service is the engagement core behind the query gateway.
type Service struct {
	tracks    repository.TrackRepository
	events    repository.EngagementRepository
	favorites repository.FavoriteRepository
	playlists repository.PlaylistRepository
	assets    AssetStore
	trending  *TrendingRanker

	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewService wires the engagement core onto its repositories.
func NewService(
	tracks repository.TrackRepository,
	events repository.EngagementRepository,
	favorites repository.FavoriteRepository,
	playlists repository.PlaylistRepository,
	assets AssetStore,
	trending *TrendingRanker,
) *Service {
	return &Service{
		tracks:    tracks,
		events:    events,
		favorites: favorites,
		playlists: playlists,
		assets:    assets,
		trending:  trending,
		now:       time.Now,
	}
}

// RecordPlay appends a play event for the track. The event append is the
// primary effect. The cached counter increment is best-effort: its failure
// is logged and the play still succeeds, since counting is advisory.
// userID is nil for anonymous listeners.
func (s *Service) RecordPlay(ctx context.Context, trackID int64, userID *int64) error {
	track, err := s.tracks.GetTrackByID(ctx, trackID)
	if err != nil {
		return err
	}
	if track == nil || !track.IsActive {
		return apperr.Newf(apperr.KindNotFound, "track %d not found", trackID)
	}

	if err := s.events.InsertPlayEvent(ctx, trackID, userID, s.now()); err != nil {
		return err
	}

	if err := s.tracks.IncrementPlays(ctx, trackID); err != nil {
		logger.Warn("Play counter increment failed, event recorded",
			logger.Int64("trackId", trackID),
			logger.ErrorField(err),
		)
	}
	return nil
}

// RecordDownload records the download transactionally and grants the caller
// a presigned asset URL with a suggested filename. The asset object is
// stat-checked before anything is written, so a dangling file_url fails
// NotFound without leaving a download event behind.
func (s *Service) RecordDownload(ctx context.Context, trackID, userID int64) (*model.DownloadGrant, error) {
	track, err := s.tracks.GetTrackByID(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track == nil || !track.IsActive || track.FileURL == "" {
		return nil, apperr.Newf(apperr.KindNotFound, "track %d not found", trackID)
	}

	exists, err := s.assets.StatObject(ctx, track.FileURL)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.Newf(apperr.KindNotFound, "track %d has no playable asset", trackID)
	}

	fileURL, title, err := s.events.RecordDownload(ctx, trackID, userID, s.now())
	if err != nil {
		return nil, err
	}

	filename := suggestedFilename(title, path.Ext(fileURL))
	url, err := s.assets.PresignDownload(ctx, fileURL, filename)
	if err != nil {
		return nil, err
	}
	return &model.DownloadGrant{URL: url, Filename: filename}, nil
}

// Trending returns the ranked track list. See TrendingRanker.
func (s *Service) Trending(ctx context.Context, limit int) ([]*model.Track, error) {
	return s.trending.Trending(ctx, limit)
}

// TrackStats assembles the combined stats payload for one track: cached
// counters, read-time membership/favorite counts and the 7-day series.
func (s *Service) TrackStats(ctx context.Context, trackID int64) (*model.TrackStats, error) {
	counters, err := s.events.GetCounters(ctx, trackID)
	if err != nil {
		return nil, err
	}

	counters.PlaylistMemberships, err = s.playlists.CountContainingTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}
	counters.FavoriteCount, err = s.favorites.CountByTrack(ctx, trackID)
	if err != nil {
		return nil, err
	}

	// Probe counter/event-log agreement. A mismatch is logged for
	// reconciliation; the cached value is still served.
	if logged, err := s.events.CountPlayEvents(ctx, trackID); err == nil && logged != counters.Plays {
		logger.Warn("Plays counter disagrees with event log",
			logger.Int64("trackId", trackID),
			logger.Int64("counter", counters.Plays),
			logger.Int64("eventLog", logged),
		)
	}

	weekly, err := s.WeeklyActivity(ctx, repository.ActivityScope{TrackID: trackID})
	if err != nil {
		return nil, err
	}

	return &model.TrackStats{
		TrackID:  trackID,
		Counters: *counters,
		Weekly:   weekly,
	}, nil
}

// UserStats assembles one user's own totals and 7-day series.
func (s *Service) UserStats(ctx context.Context, userID int64) (*model.UserStats, error) {
	plays, downloads, err := s.events.UserTotals(ctx, userID)
	if err != nil {
		return nil, err
	}

	weekly, err := s.WeeklyActivity(ctx, repository.ActivityScope{UserID: userID})
	if err != nil {
		return nil, err
	}

	return &model.UserStats{
		UserID:    userID,
		Plays:     plays,
		Downloads: downloads,
		Weekly:    weekly,
	}, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9_\-\.]`)
var repeatedSpaces = regexp.MustCompile(`\s+`)

// suggestedFilename derives a download filename from the track title,
// keeping the stored object's extension.
func suggestedFilename(title, ext string) string {
	base := strings.TrimSpace(title)
	if base == "" {
		base = "track"
	}
	base = repeatedSpaces.ReplaceAllString(base, "_")
	base = unsafeFilenameChars.ReplaceAllString(base, "")
	if len(base) > 100 {
		base = base[:100]
	}
	if base == "" {
		base = "track"
	}
	if ext == "" {
		ext = ".mp3"
	}
	return base + ext
}
