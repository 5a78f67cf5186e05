package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *handlers) getFingerprints(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	userID := chi.URLParam(r, "user_id")
	fps, err := h.facade.GetFingerprints(r.Context(), key, userID)
	if err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, fps)
}

func (h *handlers) fingerprintCounts(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	total, usersWithFP, err := h.facade.FingerprintCounts(r.Context(), key)
	if err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"total":          total,
		"users_with_fp": usersWithFP,
	})
}
