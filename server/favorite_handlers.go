package server

import (
	"net/http"

	"echofm/apperr"
)

// FavoriteCheckHandler reports whether the authenticated user has favorited
// the track.
// GET /api/tracks/{id}/favorite
func (h *APIHandler) FavoriteCheckHandler(w http.ResponseWriter, r *http.Request) {
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

	liked, err := h.engagement.IsFavorite(r.Context(), userID, trackID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"favorite": liked})
}

// FavoriteToggleHandler flips the favorite relation and reports the
// resulting state.
// POST /api/tracks/{id}/favorite
func (h *APIHandler) FavoriteToggleHandler(w http.ResponseWriter, r *http.Request) {
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

	state, err := h.engagement.ToggleFavorite(r.Context(), userID, trackID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"state": string(state)})
}
