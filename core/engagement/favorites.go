package engagement

import (
	"context"

	"echofm/apperr"
)

// FavoriteState is the outcome of a toggle.
type FavoriteState string

const (
	Liked   FavoriteState = "liked"
	Unliked FavoriteState = "unliked"
)

// IsFavorite reports whether the user has favorited the track.
func (s *Service) IsFavorite(ctx context.Context, userID, trackID int64) (bool, error) {
	return s.favorites.IsFavorite(ctx, userID, trackID)
}

// ToggleFavorite flips the favorite relation. Deleting first makes the
// operation race-safe: whichever concurrent toggle wins the delete reports
// unliked, and the insert path absorbs duplicate-key losses as liked, so
// N concurrent toggles from a fresh state converge to at most one row.
func (s *Service) ToggleFavorite(ctx context.Context, userID, trackID int64) (FavoriteState, error) {
	track, err := s.tracks.GetTrackByID(ctx, trackID)
	if err != nil {
		return "", err
	}
	if track == nil {
		return "", apperr.Newf(apperr.KindNotFound, "track %d not found", trackID)
	}

	deleted, err := s.favorites.Delete(ctx, userID, trackID)
	if err != nil {
		return "", err
	}
	if deleted {
		return Unliked, nil
	}

	if _, err := s.favorites.Insert(ctx, userID, trackID); err != nil {
		return "", err
	}
	return Liked, nil
}
