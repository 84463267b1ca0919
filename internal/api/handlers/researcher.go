package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/jonathan-kellerai/brennerbot/internal/api/middleware"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
)

type ResearcherHandler struct {
	store domain.ResearcherStore
}

func NewResearcherHandler(store domain.ResearcherStore) *ResearcherHandler {
	return &ResearcherHandler{store: store}
}

type createResearcherRequest struct {
	Name string `json:"name"`
}

type createResearcherResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

func (h *ResearcherHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createResearcherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}

	researcher := &domain.Researcher{
		Name:       req.Name,
		APIKeyHash: middleware.HashAPIKey(apiKey),
	}

	if err := h.store.Create(r.Context(), researcher); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create researcher")
		return
	}

	writeJSON(w, http.StatusCreated, createResearcherResponse{
		ID:     researcher.ID.String(),
		Name:   researcher.Name,
		APIKey: apiKey,
	})
}

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "rk_" + hex.EncodeToString(b), nil
}
