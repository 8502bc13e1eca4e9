package handlers

import (
	"net/http"

	"github.com/Dosada05/bracket-engine/manager"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/services"
)

type MatchHandler struct {
	engine *manager.Manager
}

func NewMatchHandler(engine *manager.Manager) *MatchHandler {
	return &MatchHandler{engine: engine}
}

func (h *MatchHandler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	var update models.MatchUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	if id, ok := pathID(w, r, "matchID"); ok {
		update.ID = id
	} else {
		return
	}
	if err := h.engine.Update.UpdateMatch(r.Context(), &update); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *MatchHandler) UpdateMatchGame(w http.ResponseWriter, r *http.Request) {
	var update models.MatchGameUpdate
	if !decodeBody(w, r, &update) {
		return
	}
	if err := h.engine.Update.UpdateMatchGame(r.Context(), &update); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

type childCountRequest struct {
	Level      services.ChildCountLevel `json:"level"`
	ID         int                      `json:"id"`
	ChildCount int                      `json:"child_count"`
}

func (h *MatchHandler) UpdateChildCount(w http.ResponseWriter, r *http.Request) {
	var req childCountRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.engine.Update.UpdateMatchChildCount(r.Context(), req.Level, req.ID, req.ChildCount); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *MatchHandler) ResetMatchResults(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathID(w, r, "matchID")
	if !ok {
		return
	}
	if err := h.engine.Reset.MatchResults(r.Context(), matchID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *MatchHandler) ResetMatchGameResults(w http.ResponseWriter, r *http.Request) {
	gameID, ok := pathID(w, r, "gameID")
	if !ok {
		return
	}
	if err := h.engine.Reset.MatchGameResults(r.Context(), gameID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}
