package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
)

func (h *handlers) listDevices(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.facade.AllDeviceStatuses(r.Context())
	if err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

func (h *handlers) deviceDetail(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "name")
	status, err := h.facade.DeviceStatus(r.Context(), key)
	if err != nil {
		writeError(w, err, true)
		return
	}
	if !status.Online {
		writeError(w, apperr.New(apperr.KindOffline, status.Error), true)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *handlers) restartDevice(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "name")
	if err := h.facade.RestartDevice(r.Context(), key); err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "restarting"})
}

func (h *handlers) getDeviceTime(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "name")
	t, err := h.facade.GetDeviceTime(r.Context(), key)
	if err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"device_time": t.Format(time.RFC3339)})
}

type setTimeRequest struct {
	Time *string `json:"time"`
}

func (h *handlers) setDeviceTime(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "name")

	var body setTimeRequest
	_ = decodeJSONBody(r, &body)

	if body.Time == nil {
		if err := h.facade.SyncDeviceTime(r.Context(), key); err != nil {
			writeError(w, err, false)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
		return
	}

	t, err := time.Parse(time.RFC3339, *body.Time)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "time must be RFC3339"})
		return
	}
	if err := h.facade.SetDeviceTime(r.Context(), key, t); err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "set"})
}
