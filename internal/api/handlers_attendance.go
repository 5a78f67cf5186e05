package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const (
	defaultAttendanceLimit = 1000
	minAttendanceLimit     = 1
	maxAttendanceLimit     = 10000
)

func parseTimeParam(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// getAttendance returns filtered attendance for a device. limit/offset are
// optional query parameters (default limit 1000, range 1-10000; default
// offset 0); when neither is present the full filtered list is returned.
func (h *handlers) getAttendance(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	q := r.URL.Query()

	from, err := parseTimeParam(q.Get("from"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from must be RFC3339"})
		return
	}
	to, err := parseTimeParam(q.Get("to"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "to must be RFC3339"})
		return
	}

	records, err := h.facade.GetAttendance(r.Context(), key, from, to, true)
	if err != nil {
		writeError(w, err, false)
		return
	}

	if !q.Has("limit") && !q.Has("offset") {
		writeJSON(w, http.StatusOK, records)
		return
	}

	limit := defaultAttendanceLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minAttendanceLimit || n > maxAttendanceLimit {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 1 and 10000"})
			return
		}
		limit = n
	}
	offset := 0
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "offset must be >= 0"})
			return
		}
		offset = n
	}

	if offset >= len(records) {
		writeJSON(w, http.StatusOK, records[:0])
		return
	}
	end := offset + limit
	if end > len(records) {
		end = len(records)
	}
	writeJSON(w, http.StatusOK, records[offset:end])
}

func (h *handlers) countAttendance(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	count, err := h.facade.CountAttendance(r.Context(), key)
	if err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *handlers) attendanceCacheStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	writeJSON(w, http.StatusOK, h.facade.CacheStatus(key))
}
