package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abcfood/fingerprint-mw/internal/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// writeError maps an apperr.Kind to the HTTP status §7 assigns it and
// writes a JSON error body. onDeviceDetail narrows Offline to 503 (the
// device-detail path); every other Offline surfaces as 500.
func writeError(w http.ResponseWriter, err error, onDeviceDetail bool) {
	status := http.StatusInternalServerError
	kind := ""

	var ae *apperr.Error
	if errors.As(err, &ae) {
		kind = ae.Kind.String()
		switch ae.Kind {
		case apperr.KindUnknownDevice, apperr.KindUnknownUser:
			status = http.StatusNotFound
		case apperr.KindOffline:
			if onDeviceDetail {
				status = http.StatusServiceUnavailable
			} else {
				status = http.StatusInternalServerError
			}
		case apperr.KindAuthFailure:
			status = http.StatusUnauthorized
		case apperr.KindInvalidConfig, apperr.KindRemoteWriteFailure, apperr.KindPeripheralFailure:
			status = http.StatusInternalServerError
		}
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
