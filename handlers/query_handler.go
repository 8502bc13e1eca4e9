package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Dosada05/bracket-engine/manager"
	"github.com/Dosada05/bracket-engine/services"
)

type QueryHandler struct {
	engine *manager.Manager
}

func NewQueryHandler(engine *manager.Manager) *QueryHandler {
	return &QueryHandler{engine: engine}
}

func (h *QueryHandler) StageData(w http.ResponseWriter, r *http.Request) {
	stageID, ok := pathID(w, r, "stageID")
	if !ok {
		return
	}
	data, err := h.engine.Get.StageData(r.Context(), stageID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

func (h *QueryHandler) TournamentData(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := pathID(w, r, "tournamentID")
	if !ok {
		return
	}
	data, err := h.engine.Get.TournamentData(r.Context(), tournamentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, data)
}

func (h *QueryHandler) CurrentStage(w http.ResponseWriter, r *http.Request) {
	tournamentID, ok := pathID(w, r, "tournamentID")
	if !ok {
		return
	}
	stage, err := h.engine.Get.CurrentStage(r.Context(), tournamentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stage)
}

func (h *QueryHandler) CurrentRound(w http.ResponseWriter, r *http.Request) {
	stageID, ok := pathID(w, r, "stageID")
	if !ok {
		return
	}
	round, err := h.engine.Get.CurrentRound(r.Context(), stageID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, round)
}

func (h *QueryHandler) CurrentMatches(w http.ResponseWriter, r *http.Request) {
	stageID, ok := pathID(w, r, "stageID")
	if !ok {
		return
	}
	matches, err := h.engine.Get.CurrentMatches(r.Context(), stageID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, matches)
}

func (h *QueryHandler) Seeding(w http.ResponseWriter, r *http.Request) {
	stageID, ok := pathID(w, r, "stageID")
	if !ok {
		return
	}
	seeding, err := h.engine.Get.Seeding(r.Context(), stageID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, seeding)
}

func (h *QueryHandler) FinalStandings(w http.ResponseWriter, r *http.Request) {
	stageID, ok := pathID(w, r, "stageID")
	if !ok {
		return
	}
	standings, err := h.engine.Get.FinalStandings(r.Context(), stageID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, standings)
}

func (h *QueryHandler) PreviousMatches(w http.ResponseWriter, r *http.Request) {
	h.neighborMatches(w, r, true)
}

func (h *QueryHandler) NextMatches(w http.ResponseWriter, r *http.Request) {
	h.neighborMatches(w, r, false)
}

func (h *QueryHandler) neighborMatches(w http.ResponseWriter, r *http.Request, previous bool) {
	matchID, ok := pathID(w, r, "matchID")
	if !ok {
		return
	}
	var participantID *int
	if raw := r.URL.Query().Get("participant_id"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid participant_id"})
			return
		}
		participantID = &value
	}

	var err error
	var matches interface{}
	if previous {
		matches, err = h.engine.Find.PreviousMatches(r.Context(), matchID, participantID)
	} else {
		matches, err = h.engine.Find.NextMatches(r.Context(), matchID, participantID)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, matches)
}

func (h *QueryHandler) Export(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.engine.Dataset.Export(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dataset)
}

func (h *QueryHandler) Import(w http.ResponseWriter, r *http.Request) {
	var dataset services.Dataset
	if !decodeBody(w, r, &dataset) {
		return
	}
	normalize := r.URL.Query().Get("normalize_ids") == "true"
	if err := h.engine.Dataset.Import(r.Context(), &dataset, normalize); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// ExportSnapshot pushes the current dataset to the configured object store.
func (h *QueryHandler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		key = "snapshots/dataset-" + time.Now().UTC().Format("20060102-150405") + ".json"
	}
	result, err := h.engine.Dataset.ExportSnapshot(r.Context(), key)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
