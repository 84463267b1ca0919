package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jonathan-kellerai/brennerbot/internal/api/middleware"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/jonathan-kellerai/brennerbot/internal/service"
)

type WhatIfHandler struct{}

func NewWhatIfHandler() *WhatIfHandler {
	return &WhatIfHandler{}
}

func writeWhatIfError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrScenarioTestNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrDiscriminativePowerRange),
		errors.Is(err, service.ErrInvalidEvidenceResult),
		errors.Is(err, service.ErrUpdateConfigBounds):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "what-if analysis failed")
	}
}

type analyzeTestRequest struct {
	CurrentConfidence float64               `json:"current_confidence"`
	Test              domain.TestInput      `json:"test"`
	Config            *updateConfigOverride `json:"config,omitempty"`
}

func (h *WhatIfHandler) AnalyzeTest(w http.ResponseWriter, r *http.Request) {
	if middleware.ResearcherFromContext(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req analyzeTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := service.AnalyzeSingleTest(req.CurrentConfidence, req.Test, req.Config.apply())
	if err != nil {
		writeWhatIfError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

type rankTestsRequest struct {
	CurrentConfidence float64               `json:"current_confidence"`
	Tests             []domain.TestInput    `json:"tests"`
	Config            *updateConfigOverride `json:"config,omitempty"`
}

func (h *WhatIfHandler) RankTests(w http.ResponseWriter, r *http.Request) {
	if middleware.ResearcherFromContext(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req rankTestsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ranking, err := service.RankCandidateTests(req.CurrentConfidence, req.Tests, req.Config.apply())
	if err != nil {
		writeWhatIfError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ranking)
}

type buildScenarioRequest struct {
	Name               string                `json:"name"`
	StartingConfidence float64               `json:"starting_confidence"`
	Tests              []domain.AssumedTest  `json:"tests"`
	Config             *updateConfigOverride `json:"config,omitempty"`
}

func (h *WhatIfHandler) BuildScenario(w http.ResponseWriter, r *http.Request) {
	if middleware.ResearcherFromContext(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req buildScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	scenario, err := service.BuildScenario(req.Name, req.StartingConfidence, req.Tests,
		req.Config.apply(), time.Now().UTC())
	if err != nil {
		writeWhatIfError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, scenario)
}

type analyzeScenarioRequest struct {
	Scenario domain.WhatIfScenario `json:"scenario"`
	Config   *updateConfigOverride `json:"config,omitempty"`
}

func (h *WhatIfHandler) AnalyzeScenario(w http.ResponseWriter, r *http.Request) {
	if middleware.ResearcherFromContext(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req analyzeScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := service.AnalyzeScenario(req.Scenario, req.Config.apply())
	if err != nil {
		writeWhatIfError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}
