package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan-kellerai/brennerbot/internal/api/middleware"
	"github.com/jonathan-kellerai/brennerbot/internal/domain"
	"github.com/jonathan-kellerai/brennerbot/internal/service"
)

type AnalyticsHandler struct {
	svc *service.AnalyticsService
}

func NewAnalyticsHandler(svc *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc}
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	researcher := middleware.ResearcherFromContext(r.Context())
	if researcher == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	windowDays := 30
	if ws := r.URL.Query().Get("window"); ws != "" {
		parsed, err := strconv.Atoi(ws)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid window parameter")
			return
		}
		windowDays = parsed
	}

	objections := domain.ObjectionStats{
		Raised:   queryInt(r, "objections_raised"),
		Accepted: queryInt(r, "objections_accepted"),
		Rejected: queryInt(r, "objections_rejected"),
		Deferred: queryInt(r, "objections_deferred"),
	}

	report, err := h.svc.Compute(r.Context(), researcher.ID, objections, windowDays, time.Now().UTC())
	if err != nil {
		if errors.Is(err, service.ErrTrendWindowDays) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
