package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jonathan-kellerai/brennerbot/internal/api/middleware"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/jonathan-kellerai/brennerbot/internal/service"
)

type SessionHandler struct {
	svc *service.SessionService
}

func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type hypothesisInput struct {
	Statement          string   `json:"statement"`
	Mechanism          string   `json:"mechanism,omitempty"`
	Domain             []string `json:"domain,omitempty"`
	PredictionsIfTrue  []string `json:"predictions_if_true,omitempty"`
	PredictionsIfFalse []string `json:"predictions_if_false,omitempty"`
	ImpossibleIfTrue   []string `json:"impossible_if_true,omitempty"`
	Confidence         float64  `json:"confidence"`
}

func (in hypothesisInput) toService() service.NewHypothesisInput {
	return service.NewHypothesisInput{
		Statement:          in.Statement,
		Mechanism:          in.Mechanism,
		Domain:             in.Domain,
		PredictionsIfTrue:  in.PredictionsIfTrue,
		PredictionsIfFalse: in.PredictionsIfFalse,
		ImpossibleIfTrue:   in.ImpossibleIfTrue,
		Confidence:         in.Confidence,
	}
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrHypothesisNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrHypothesisArchived),
		errors.Is(err, service.ErrArchivePrimaryHypothesis),
		errors.Is(err, service.ErrInvalidPhaseTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrStatementEmpty),
		errors.Is(err, service.ErrInvalidPhase),
		errors.Is(err, service.ErrInvalidOperatorType),
		errors.Is(err, service.ErrInvalidEvolutionTrigger),
		errors.Is(err, service.ErrTestIDEmpty):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "session operation failed")
	}
}

func sessionID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.ResearcherFromContext(r.Context())
	if researcher == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req hypothesisInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.svc.Create(r.Context(), researcher.ID, req.toService())
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

type listSessionsResponse struct {
	Sessions []domain.Session `json:"sessions"`
	Count    int              `json:"count"`
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.ResearcherFromContext(r.Context())
	if researcher == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sessions, err := h.svc.ListByResearcher(r.Context(), researcher.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}

	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions, Count: len(sessions)})
}

func (h *SessionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
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

	session, err := h.svc.GetByID(r.Context(), id, researcher.ID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type advancePhaseRequest struct {
	Phase string `json:"phase"`
}

func (h *SessionHandler) AdvancePhase(w http.ResponseWriter, r *http.Request) {
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

	var req advancePhaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.svc.AdvancePhase(r.Context(), id, researcher.ID, domain.Phase(req.Phase))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type stateHypothesisResponse struct {
	Session *domain.Session       `json:"session"`
	Card    domain.HypothesisCard `json:"card"`
}

func (h *SessionHandler) StateHypothesis(w http.ResponseWriter, r *http.Request) {
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

	var req hypothesisInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, card, err := h.svc.StateHypothesis(r.Context(), id, researcher.ID, req.toService())
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, stateHypothesisResponse{Session: session, Card: card})
}

type reviseHypothesisRequest struct {
	hypothesisInput
	Reason  string `json:"reason,omitempty"`
	Trigger string `json:"trigger"`
}

func (h *SessionHandler) ReviseHypothesis(w http.ResponseWriter, r *http.Request) {
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
	cardID := chi.URLParam(r, "cardID")

	var req reviseHypothesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, card, err := h.svc.ReviseHypothesis(r.Context(), id, researcher.ID, cardID,
		req.toService(), req.Reason, domain.EvolutionTrigger(req.Trigger))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stateHypothesisResponse{Session: session, Card: card})
}

func (h *SessionHandler) ArchiveHypothesis(w http.ResponseWriter, r *http.Request) {
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
	cardID := chi.URLParam(r, "cardID")

	session, err := h.svc.ArchiveHypothesis(r.Context(), id, researcher.ID, cardID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type recordOperatorRequest struct {
	Operator string `json:"operator"`
	CardID   string `json:"card_id"`
	Notes    string `json:"notes,omitempty"`
}

func (h *SessionHandler) RecordOperator(w http.ResponseWriter, r *http.Request) {
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

	var req recordOperatorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.svc.RecordOperatorApplication(r.Context(), id, researcher.ID,
		domain.OperatorType(req.Operator), req.CardID, req.Notes)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type recordTestRequest struct {
	TestID string `json:"test_id"`
}

func (h *SessionHandler) RecordTest(w http.ResponseWriter, r *http.Request) {
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

	var req recordTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.svc.RecordTest(r.Context(), id, researcher.ID, req.TestID)
	if err != nil {
		writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, session)
}
