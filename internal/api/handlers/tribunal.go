package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jonathan-kellerai/brennerbot/internal/api/middleware"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/jonathan-kellerai/brennerbot/internal/service"
)

const defaultVerdictPower = 3

type TribunalHandler struct {
	svc *service.TribunalService
}

func NewTribunalHandler(svc *service.TribunalService) *TribunalHandler {
	return &TribunalHandler{svc: svc}
}

type dispatchRequest struct {
	CardID string `json:"card_id"`
}

type dispatchResponse struct {
	Dispatches []domain.TribunalDispatch `json:"dispatches"`
	Count      int                       `json:"count"`
}

func (h *TribunalHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.ResearcherFromContext(r.Context())
	if researcher == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, ok := sessionID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req dispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	dispatches, err := h.svc.Dispatch(r.Context(), id, researcher.ID, req.CardID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrTribunalCardNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to dispatch tribunal")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, dispatchResponse{Dispatches: dispatches, Count: len(dispatches)})
}

type verdictsResponse struct {
	ThreadID string                   `json:"thread_id"`
	Verdicts []domain.TribunalVerdict `json:"verdicts"`
	Count    int                      `json:"count"`
	// Applied is the projected confidence update for the verdicts, present
	// only when the caller supplies a confidence query parameter.
	Applied *service.BatchUpdate `json:"applied,omitempty"`
}

func (h *TribunalHandler) Verdicts(w http.ResponseWriter, r *http.Request) {
	if middleware.ResearcherFromContext(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	threadID := chi.URLParam(r, "threadID")

	verdicts, err := h.svc.CollectVerdicts(r.Context(), threadID)
	if err != nil {
		if errors.Is(err, service.ErrThreadIDEmpty) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to collect verdicts")
		return
	}

	resp := verdictsResponse{ThreadID: threadID, Verdicts: verdicts, Count: len(verdicts)}

	if confStr := r.URL.Query().Get("confidence"); confStr != "" {
		conf, err := strconv.ParseFloat(confStr, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid confidence parameter")
			return
		}

		power := defaultVerdictPower
		if p := queryInt(r, "power"); p != 0 {
			power = p
		}

		update, err := h.svc.ApplyVerdicts(domain.HypothesisCard{Confidence: conf},
			verdicts, power, service.DefaultUpdateConfig())
		if err != nil {
			writeConfidenceError(w, err)
			return
		}
		resp.Applied = &update
	}

	writeJSON(w, http.StatusOK, resp)
}
