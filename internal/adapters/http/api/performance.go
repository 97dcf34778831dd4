package api

import (
	"net/http"

	"github.com/okian/talentscore/internal/domain/performance"
	"github.com/okian/talentscore/pkg/logger"
	"github.com/okian/talentscore/pkg/metrics"
)

// FallbackHeader is set when a performance response carries the zero
// summary in place of a failed computation.
const FallbackHeader = "X-Performance-Fallback"

// PerformanceHandler serves candidate performance summaries.
type PerformanceHandler struct {
	service PerformanceService
	logger  logger.Logger
}

// NewPerformanceHandler creates a new performance handler.
func NewPerformanceHandler(service PerformanceService) *PerformanceHandler {
	return &PerformanceHandler{service: service, logger: logger.Get().Named("api.performance")}
}

// HandleGetPerformance handles GET /candidates/{id}/performance.
//
// A failed computation is never surfaced to the caller: the zero summary is
// returned with FallbackHeader set and the failure is logged.
func (h *PerformanceHandler) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	summary, err := h.service.ComputePerformance(r.Context(), id)
	if err != nil {
		h.logger.Warn(r.Context(), "performance computation failed, serving zero summary",
			logger.String("candidate_id", id),
			logger.Error(err))
		metrics.RecordPerformanceFallback()
		w.Header().Set(FallbackHeader, "true")
		writeJSON(w, http.StatusOK, performance.ZeroSummary())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
