package server

import (
	"net/http"
	"strconv"

	"echofm/apperr"
	"echofm/logger"
)

// RecordPlayHandler records a play event for a track. Anonymous plays are
// allowed; an authenticated request attributes the play to its user.
// POST /api/tracks/{id}/play
func (h *APIHandler) RecordPlayHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var userID *int64
	if id, ok := GetUserIDFromContext(r.Context()); ok {
		userID = &id
	}

	if err := h.engagement.RecordPlay(r.Context(), trackID, userID); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "play recorded"})
}

// RecordDownloadHandler records a download and returns the asset URL plus a
// suggested filename.
// POST /api/tracks/{id}/download
func (h *APIHandler) RecordDownloadHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	grant, err := h.engagement.RecordDownload(r.Context(), trackID, userID)
	if err != nil {
		respondError(w, err)
		return
	}

	logger.Info("Download granted",
		logger.Int64("trackId", trackID),
		logger.Int64("userId", userID),
		logger.String("filename", grant.Filename),
	)
	respondJSON(w, http.StatusOK, grant)
}

// TrackStatsHandler returns a track's totals and 7-day activity series.
// GET /api/tracks/{id}/stats
func (h *APIHandler) TrackStatsHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := pathID(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	stats, err := h.engagement.TrackStats(r.Context(), trackID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// UserStatsHandler returns the authenticated user's own totals and 7-day
// series. A user may only read their own stats.
// GET /api/users/me/stats
func (h *APIHandler) UserStatsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, apperr.New(apperr.KindUnauthorized, "authentication required"))
		return
	}

	stats, err := h.engagement.UserStats(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

const defaultTrendingLimit = 20
const maxTrendingLimit = 100

// TrendingHandler returns the ranked track list.
// GET /api/tracks/trending?limit=N
func (h *APIHandler) TrendingHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultTrendingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondError(w, apperr.Newf(apperr.KindInvalidArgument, "invalid limit: %q", raw))
			return
		}
		limit = parsed
	}
	if limit > maxTrendingLimit {
		limit = maxTrendingLimit
	}

	tracks, err := h.engagement.Trending(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}
