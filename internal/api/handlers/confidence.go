package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonathan-kellerai/brennerbot/internal/api/middleware"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/jonathan-kellerai/brennerbot/internal/service"
)

type ConfidenceHandler struct{}

func NewConfidenceHandler() *ConfidenceHandler {
	return &ConfidenceHandler{}
}

// updateConfigOverride lets callers tune individual coefficients without
// restating the full config. Omitted fields keep their defaults.
type updateConfigOverride struct {
	SupportWeight   *float64 `json:"support_weight,omitempty"`
	ChallengeWeight *float64 `json:"challenge_weight,omitempty"`
	EliminateWeight *float64 `json:"eliminate_weight,omitempty"`
	MinConfidence   *float64 `json:"min_confidence,omitempty"`
	MaxConfidence   *float64 `json:"max_confidence,omitempty"`
}

func (o *updateConfigOverride) apply() service.UpdateConfig {
	cfg := service.DefaultUpdateConfig()
	if o == nil {
		return cfg
	}
	if o.SupportWeight != nil {
		cfg.SupportWeight = *o.SupportWeight
	}
	if o.ChallengeWeight != nil {
		cfg.ChallengeWeight = *o.ChallengeWeight
	}
	if o.EliminateWeight != nil {
		cfg.EliminateWeight = *o.EliminateWeight
	}
	if o.MinConfidence != nil {
		cfg.MinConfidence = *o.MinConfidence
	}
	if o.MaxConfidence != nil {
		cfg.MaxConfidence = *o.MaxConfidence
	}
	return cfg
}

type applyEvidenceRequest struct {
	CurrentConfidence float64               `json:"current_confidence"`
	Items             []domain.EvidenceItem `json:"items"`
	Config            *updateConfigOverride `json:"config,omitempty"`
}

func writeConfidenceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrDiscriminativePowerRange),
		errors.Is(err, service.ErrInvalidEvidenceResult),
		errors.Is(err, service.ErrUpdateConfigBounds):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "failed to apply evidence")
	}
}

func (h *ConfidenceHandler) Apply(w http.ResponseWriter, r *http.Request) {
	if middleware.ResearcherFromContext(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req applyEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items are required")
		return
	}

	update, err := service.ApplyEvidenceBatch(req.CurrentConfidence, req.Items, req.Config.apply())
	if err != nil {
		writeConfidenceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, update)
}
