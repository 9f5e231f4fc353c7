package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/fundpilot/internal/assetprofile"
	"github.com/wonny/fundpilot/internal/report"
	"github.com/wonny/fundpilot/pkg/logger"
)

// RunTrigger kicks a decision run. Returns false when a run is already
// in flight.
type RunTrigger func() bool

// DecisionHandler serves the latest batch and the strategy profiles
// ⭐ SSOT: 의사결정 API 핸들러는 이 구조체에서만
type DecisionHandler struct {
	store        *report.Store
	profiles     *assetprofile.Config
	profilesHash string
	trigger      RunTrigger
	jobStats     func() interface{}
	logger       *logger.Logger
}

// NewDecisionHandler creates the decision handler. trigger and
// jobStats may be nil (one-shot CLI serving without a scheduler).
func NewDecisionHandler(
	store *report.Store,
	profiles *assetprofile.Config,
	profilesHash string,
	trigger RunTrigger,
	jobStats func() interface{},
	log *logger.Logger,
) *DecisionHandler {
	return &DecisionHandler{
		store:        store,
		profiles:     profiles,
		profilesHash: profilesHash,
		trigger:      trigger,
		jobStats:     jobStats,
		logger:       log,
	}
}

// GetLatest returns the most recent completed batch
// GET /api/decisions/latest
func (h *DecisionHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	batch := h.store.Latest()
	if batch == nil {
		respondError(w, http.StatusNotFound, "No decision run completed yet")
		return
	}

	respondJSON(w, http.StatusOK, batch)
}

// GetInstrument returns one instrument's result from the latest batch
// GET /api/decisions/{code}
func (h *DecisionHandler) GetInstrument(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	result, ok := h.store.Find(code)
	if !ok {
		respondError(w, http.StatusNotFound, "No result for instrument "+code)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetProfiles returns the active strategy configuration and its hash
// GET /api/profiles
func (h *DecisionHandler) GetProfiles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"hash":   h.profilesHash,
		"config": h.profiles,
	})
}

// GetJobs returns scheduler job statistics
// GET /api/jobs
func (h *DecisionHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	if h.jobStats == nil {
		respondError(w, http.StatusNotFound, "Scheduler not running")
		return
	}

	respondJSON(w, http.StatusOK, h.jobStats())
}

// TriggerRun starts a decision run out of schedule
// POST /api/run
func (h *DecisionHandler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		respondError(w, http.StatusServiceUnavailable, "Manual runs not enabled")
		return
	}

	if !h.trigger() {
		respondError(w, http.StatusConflict, "A run is already in progress")
		return
	}

	h.logger.Info("Manual decision run triggered")
	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "started",
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
