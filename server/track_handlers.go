package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"echofm/apperr"
	"echofm/logger"
	"echofm/model"
)

// CreateTrackRequest is the metadata payload the upload collaborator posts
// once an asset exists. FileURL points at the stored object.
type CreateTrackRequest struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	ArtistID int64   `json:"artistId"`
	AlbumID  int64   `json:"albumId"`
	Duration float32 `json:"duration"`
	FileURL  string  `json:"fileUrl"`
	CoverURL string  `json:"coverUrl"`
}

// CreateTrackHandler registers a new track's metadata.
// POST /api/tracks
func (h *APIHandler) CreateTrackHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := GetUserIDFromContext(r.Context()); !ok {
		respondError(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	var req CreateTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.New(apperr.KindInvalidArgument, "invalid request body"))
		return
	}
	if req.Title == "" {
		respondError(w, apperr.New(apperr.KindInvalidArgument, "title is required"))
		return
	}

	track := &model.Track{
		Title:    req.Title,
		Artist:   req.Artist,
		ArtistID: req.ArtistID,
		AlbumID:  req.AlbumID,
		Duration: req.Duration,
		FileURL:  req.FileURL,
		CoverURL: req.CoverURL,
		IsActive: true,
	}
	id, err := h.trackRepo.CreateTrack(r.Context(), track)
	if err != nil {
		respondError(w, err)
		return
	}
	track.ID = id

	logger.Info("Track created", logger.Int64("trackId", id), logger.String("title", track.Title))
	respondJSON(w, http.StatusCreated, track)
}

// GetTrackHandler returns one track.
// GET /api/tracks/{id}
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	track, err := h.trackRepo.GetTrackByID(r.Context(), trackID)
	if err != nil {
		respondError(w, err)
		return
	}
	if track == nil || !track.IsActive {
		respondError(w, apperr.Newf(apperr.KindNotFound, "track %d not found", trackID))
		return
	}
	respondJSON(w, http.StatusOK, track)
}

const defaultPageSize = 50
const maxPageSize = 200

// ListTracksHandler returns a page of active tracks, newest first.
// GET /api/tracks?limit=N&offset=M
func (h *APIHandler) ListTracksHandler(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPageSize)
	if err != nil {
		respondError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		respondError(w, err)
		return
	}
	if limit <= 0 {
		respondError(w, apperr.New(apperr.KindInvalidArgument, "limit must be positive"))
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	tracks, err := h.trackRepo.ListActiveTracks(r.Context(), limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// DeactivateTrackHandler soft-deletes a track. Event history referencing it
// stays intact.
// DELETE /api/tracks/{id}
func (h *APIHandler) DeactivateTrackHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	if _, ok := GetUserIDFromContext(r.Context()); !ok {
		respondError(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	track, err := h.trackRepo.GetTrackByID(r.Context(), trackID)
	if err != nil {
		respondError(w, err)
		return
	}
	if track == nil {
		respondError(w, apperr.Newf(apperr.KindNotFound, "track %d not found", trackID))
		return
	}

	if err := h.trackRepo.DeactivateTrack(r.Context(), trackID); err != nil {
		respondError(w, err)
		return
	}
	logger.Info("Track deactivated", logger.Int64("trackId", trackID))
	respondJSON(w, http.StatusOK, map[string]string{"message": "track deactivated"})
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val < 0 {
		return 0, apperr.Newf(apperr.KindInvalidArgument, "invalid %s: %q", name, raw)
	}
	return val, nil
}
