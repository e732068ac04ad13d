// Package search implements free-text catalog search across tracks and
// playlists.
package search

import (
	"context"
	"strings"

	"echofm/apperr"
	"echofm/model"
	"echofm/repository"
)

// Result holds both halves of a catalog search. The two sub-searches are
// all-or-nothing: a caller never sees a one-sided result set.
type Result struct {
	Tracks    []*model.Track    `json:"tracks"`
	Playlists []*model.Playlist `json:"playlists"`
}

// Service runs catalog searches over the track and playlist repositories.
type Service struct {
	tracks    repository.TrackRepository
	playlists repository.PlaylistRepository
}

// NewService creates a search service.
func NewService(tracks repository.TrackRepository, playlists repository.PlaylistRepository) *Service {
	return &Service{tracks: tracks, playlists: playlists}
}

// Search matches query as a case-insensitive substring against track
// title/artist and playlist name. An empty query is a caller error; a query
// matching nothing returns empty slices without error.
func (s *Service) Search(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.New(apperr.KindInvalidArgument, "search query must not be empty")
	}

	tracks, err := s.tracks.SearchTracks(ctx, query)
	if err != nil {
		return nil, err
	}
	playlists, err := s.playlists.SearchPlaylists(ctx, query)
	if err != nil {
		return nil, err
	}

	return &Result{Tracks: tracks, Playlists: playlists}, nil
}
