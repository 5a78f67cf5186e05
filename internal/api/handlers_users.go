package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/abcfood/fingerprint-mw/internal/models"
)

func (h *handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	users, err := h.facade.ListUsers(r.Context(), key)
	if err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *handlers) getUser(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	uid, err := strconv.Atoi(chi.URLParam(r, "uid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "uid must be an integer"})
		return
	}
	user, err := h.facade.GetUser(r.Context(), key, uid)
	if err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *handlers) addUser(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	var u models.User
	if err := decodeJSONBody(r, &u); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if err := h.facade.AddUser(r.Context(), key, u); err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	uid, err := strconv.Atoi(chi.URLParam(r, "uid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "uid must be an integer"})
		return
	}
	var u models.User
	if err := decodeJSONBody(r, &u); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	u.UID = uid
	if err := h.facade.UpdateUser(r.Context(), key, u); err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	uid, err := strconv.Atoi(chi.URLParam(r, "uid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "uid must be an integer"})
		return
	}
	if err := h.facade.DeleteUser(r.Context(), key, uid); err != nil {
		writeError(w, err, false)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type syncUsersRequest struct {
	DryRun bool `json:"dry_run"`
}

func (h *handlers) syncUsers(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "dev")
	var body syncUsersRequest
	_ = decodeJSONBody(r, &body)

	result, err := h.facade.SyncUsersFromHRIS(r.Context(), key, body.DryRun)
	if err != nil {
		writeError(w, err, false)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
