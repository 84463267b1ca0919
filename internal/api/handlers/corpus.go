package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonathan-kellerai/brennerbot/internal/api/middleware"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/jonathan-kellerai/brennerbot/internal/service"
)

type CorpusHandler struct {
	svc *service.CorpusService
}

func NewCorpusHandler(svc *service.CorpusService) *CorpusHandler {
	return &CorpusHandler{svc: svc}
}

type corpusSearchResponse struct {
	Results []domain.ExcerptWithScore `json:"results"`
	Query   string                    `json:"query"`
	Count   int                       `json:"count"`
}

func (h *CorpusHandler) Search(w http.ResponseWriter, r *http.Request) {
	if middleware.ResearcherFromContext(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	query := r.URL.Query().Get("q")
	topK := queryInt(r, "top_k")

	results, err := h.svc.Search(r.Context(), query, topK)
	if err != nil {
		if errors.Is(err, service.ErrQueryEmpty) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "corpus search failed")
		return
	}
	if results == nil {
		results = []domain.ExcerptWithScore{}
	}

	writeJSON(w, http.StatusOK, corpusSearchResponse{Results: results, Query: query, Count: len(results)})
}

type ingestExcerptRequest struct {
	Tape    string   `json:"tape"`
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content"`
	Topics  []string `json:"topics,omitempty"`
}

func (h *CorpusHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if middleware.ResearcherFromContext(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ingestExcerptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	excerpt := &domain.Excerpt{
		Tape:    req.Tape,
		Title:   req.Title,
		Content: req.Content,
		Topics:  req.Topics,
	}

	if err := h.svc.Ingest(r.Context(), excerpt); err != nil {
		if errors.Is(err, service.ErrExcerptContentEmpty) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to ingest excerpt")
		return
	}

	writeJSON(w, http.StatusCreated, excerpt)
}
