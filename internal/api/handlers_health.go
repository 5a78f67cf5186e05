package api

import "net/http"

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) metrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"scheduler_running": h.cfg.SchedulerState(),
		"device_count":      h.cfg.DeviceCount,
		"cache_statuses":    h.facade.AllCacheStatuses(),
	})
}
