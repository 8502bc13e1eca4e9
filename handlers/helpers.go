package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dosada05/bracket-engine/services"
	"github.com/Dosada05/bracket-engine/storage"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, statusForError(err), map[string]string{"error": err.Error()})
}

// statusForError maps engine errors onto HTTP statuses: missing rows are
// 404, locks are 409, unimplemented surface is 501, everything the caller
// got wrong is 400.
func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrParticipantNotFound),
		errors.Is(err, storage.ErrStageNotFound),
		errors.Is(err, storage.ErrGroupNotFound),
		errors.Is(err, storage.ErrRoundNotFound),
		errors.Is(err, storage.ErrMatchNotFound),
		errors.Is(err, storage.ErrMatchGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrMatchLocked),
		errors.Is(err, services.ErrMatchGameLocked),
		errors.Is(err, services.ErrSeedingLocked),
		errors.Is(err, services.ErrRoundOneArchived):
		return http.StatusConflict
	case errors.Is(err, services.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusBadRequest
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, target interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
