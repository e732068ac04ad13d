package server

import (
	"net/http"
)

// SearchHandler runs a free-text catalog search over tracks and playlists.
// GET /api/search?q=...
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
