package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/bracket-engine/manager"
	"github.com/Dosada05/bracket-engine/models"
	"github.com/Dosada05/bracket-engine/ordering"
	"github.com/Dosada05/bracket-engine/services"
)

type StageHandler struct {
	engine *manager.Manager
}

func NewStageHandler(engine *manager.Manager) *StageHandler {
	return &StageHandler{engine: engine}
}

func (h *StageHandler) CreateStage(w http.ResponseWriter, r *http.Request) {
	var input models.InputStage
	if !decodeBody(w, r, &input) {
		return
	}
	stage, err := h.engine.Create.Create(r.Context(), &input)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stage)
}

type seedingRequest struct {
	Seeding      []*string `json:"seeding"`
	SeedingIDs   []*int    `json:"seeding_ids"`
	KeepSameSize bool      `json:"keep_same_size"`
}

func (h *StageHandler) UpdateSeeding(w http.ResponseWriter, r *http.Request) {
	stageID, ok := pathID(w, r, "stageID")
	if !ok {
		return
	}
	var req seedingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	var seeding *services.SeedingInput
	if req.Seeding != nil || req.SeedingIDs != nil {
		seeding = &services.SeedingInput{Names: req.Seeding, IDs: req.SeedingIDs}
	}
	if err := h.engine.Create.UpdateSeeding(r.Context(), stageID, seeding, req.KeepSameSize); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *StageHandler) ConfirmSeeding(w http.ResponseWriter, r *http.Request) {
	stageID, ok := pathID(w, r, "stageID")
	if !ok {
		return
	}
	if err := h.engine.Create.ConfirmCurrentSeeding(r.Context(), stageID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *StageHandler) ResetSeeding(w http.ResponseWriter, r *http.Request) {
	stageID, ok := pathID(w, r, "stageID")
	if !ok {
		return
	}
	if err := h.engine.Reset.Seeding(r.Context(), stageID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

type orderingRequest struct {
	Methods []ordering.Method `json:"methods"`
	Method  ordering.Method   `json:"method"`
}

func (h *StageHandler) UpdateOrdering(w http.ResponseWriter, r *http.Request) {
	stageID, ok := pathID(w, r, "stageID")
	if !ok {
		return
	}
	var req orderingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.engine.Create.UpdateOrdering(r.Context(), stageID, req.Methods); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *StageHandler) UpdateRoundOrdering(w http.ResponseWriter, r *http.Request) {
	roundID, ok := pathID(w, r, "roundID")
	if !ok {
		return
	}
	var req orderingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.engine.Create.UpdateRoundOrdering(r.Context(), roundID, req.Method); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

func (h *StageHandler) DeleteStage(w http.ResponseWriter, r *http.Request) {
	stageID, ok := pathID(w, r, "stageID")
	if !ok {
		return
	}
	if err := h.engine.Delete.Stage(r.Context(), stageID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (h *StageHandler) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := pathID(w, r, "tournamentID")
	if !ok {
		return
	}
	if err := h.engine.Delete.Tournament(r.Context(), tournamentID); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
