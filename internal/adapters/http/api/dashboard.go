package api

import (
	"errors"
	"net/http"

	"github.com/okian/talentscore/internal/adapters/repository"
	"github.com/okian/talentscore/internal/domain/performance"
	"github.com/okian/talentscore/pkg/logger"
)

// DashboardHandler serves candidate profiles and dashboards.
type DashboardHandler struct {
	service PerformanceService
	logger  logger.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(service PerformanceService) *DashboardHandler {
	return &DashboardHandler{service: service, logger: logger.Get().Named("api.dashboard")}
}

// HandleGetDashboard handles GET /candidates/{id}/dashboard. Unlike the
// performance endpoint, a failed aggregation is reported to the caller.
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	d, err := h.service.Dashboard(r.Context(), id)
	if err != nil {
		h.writeFailure(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleGetCandidate handles GET /candidates/{id}.
func (h *DashboardHandler) HandleGetCandidate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	c, err := h.service.Candidate(r.Context(), id)
	if err != nil {
		h.writeFailure(w, r, id, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *DashboardHandler) writeFailure(w http.ResponseWriter, r *http.Request, id string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", ErrNotFound)
	case errors.Is(err, performance.ErrAggregationFailed):
		h.logger.Error(r.Context(), "dashboard aggregation failed",
			logger.String("candidate_id", id),
			logger.Error(err))
		writeError(w, http.StatusInternalServerError, "aggregation_failed", performance.ErrAggregationFailed)
	default:
		h.logger.Error(r.Context(), "dashboard request failed",
			logger.String("candidate_id", id),
			logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}
