package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type runBackupRequest struct {
	IncludeAttendance bool `json:"include_attendance"`
}

func (h *handlers) runBackup(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	var body runBackupRequest
	_ = decodeJSONBody(r, &body)

	objKey, err := h.facade.RunBackup(r.Context(), key, body.IncludeAttendance)
	if err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"key": objKey})
}

func (h *handlers) listBackups(w http.ResponseWriter, r *http.Request) {
	device := r.URL.Query().Get("device")
	backups, err := h.facade.ListBackups(r.Context(), device)
	if err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

type restoreBackupRequest struct {
	Target string `json:"target"`
	DryRun bool   `json:"dry_run"`
}

// restoreBackup is mounted at POST /backup/restore/* because S3 object keys
// (backups/<device>/<timestamp>.json) contain slashes.
func (h *handlers) restoreBackup(w http.ResponseWriter, r *http.Request) {
	objKey := chi.URLParam(r, "*")
	var body restoreBackupRequest
	_ = decodeJSONBody(r, &body)

	result, err := h.facade.RestoreBackup(r.Context(), objKey, body.Target, body.DryRun)
	if err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
