// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/talentscore/internal/domain/dedupe"
	"github.com/okian/talentscore/internal/domain/model"
)

// maxBodyBytes caps request bodies of the ingestion endpoints.
const maxBodyBytes = 1 << 20

// PerformanceService computes summaries and assembles dashboards.
type PerformanceService interface {
	ComputePerformance(ctx context.Context, candidateID string) (model.Summary, error)
	Dashboard(ctx context.Context, candidateID string) (model.Dashboard, error)
	Candidate(ctx context.Context, candidateID string) (model.Candidate, error)
}

// IngestService accepts records for asynchronous persistence.
type IngestService interface {
	dedupe.Deduper

	// Enqueue hands a record to the workers. It fails when the queue is full
	// or closed.
	Enqueue(ctx context.Context, e model.Envelope) error
}

// Dependencies bundles everything the handlers need. Keeping it an
// interface leaves the handler layer unaware of the service wiring.
type Dependencies interface {
	PerformanceService
	IngestService
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	performanceHandler *PerformanceHandler
	dashboardHandler   *DashboardHandler
	recordsHandler     *RecordsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		performanceHandler: NewPerformanceHandler(deps),
		dashboardHandler:   NewDashboardHandler(deps),
		recordsHandler:     NewRecordsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /candidates/{id}", MetricsMiddleware(s.dashboardHandler.HandleGetCandidate, "candidate"))
	mux.HandleFunc("GET /candidates/{id}/performance", MetricsMiddleware(s.performanceHandler.HandleGetPerformance, "performance"))
	mux.HandleFunc("GET /candidates/{id}/dashboard", MetricsMiddleware(s.dashboardHandler.HandleGetDashboard, "dashboard"))

	mux.HandleFunc("POST /candidates", MetricsMiddleware(s.recordsHandler.HandlePostCandidate, "candidates"))
	mux.HandleFunc("POST /assessments", MetricsMiddleware(s.recordsHandler.HandlePostAssessment, "assessments"))
	mux.HandleFunc("POST /interviews", MetricsMiddleware(s.recordsHandler.HandlePostInterview, "interviews"))
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
