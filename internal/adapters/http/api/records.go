package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/talentscore/internal/domain/dedupe"
	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/pkg/logger"
	"github.com/okian/talentscore/pkg/metrics"
)

// RecordsHandler accepts assessments, interviews and candidates for
// asynchronous persistence.
type RecordsHandler struct {
	service IngestService
	logger  logger.Logger
}

// NewRecordsHandler creates a new ingestion handler.
func NewRecordsHandler(service IngestService) *RecordsHandler {
	return &RecordsHandler{service: service, logger: logger.Get().Named("api.records")}
}

// HandlePostAssessment handles POST /assessments.
func (h *RecordsHandler) HandlePostAssessment(w http.ResponseWriter, r *http.Request) {
	var a model.Assessment
	if !h.decode(w, r, &a) {
		return
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if err := a.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	h.accept(w, r, model.AssessmentEnvelope(a))
}

// HandlePostInterview handles POST /interviews.
func (h *RecordsHandler) HandlePostInterview(w http.ResponseWriter, r *http.Request) {
	var i model.Interview
	if !h.decode(w, r, &i) {
		return
	}
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Status == "" {
		i.Status = model.InterviewScheduled
	}
	if err := i.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	h.accept(w, r, model.InterviewEnvelope(i))
}

// HandlePostCandidate handles POST /candidates.
func (h *RecordsHandler) HandlePostCandidate(w http.ResponseWriter, r *http.Request) {
	var c model.Candidate
	if !h.decode(w, r, &c) {
		return
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	h.accept(w, r, model.CandidateEnvelope(c))
}

// decode reads a single JSON object into v, writing a 400 on failure.
func (h *RecordsHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: trailing data", ErrBadRequest))
		return false
	}
	return true
}

// accept deduplicates and enqueues e. Resubmitting a record with identical
// content is acknowledged without being queued again; changed content under
// the same id is queued and replaces the stored record.
func (h *RecordsHandler) accept(w http.ResponseWriter, r *http.Request, e model.Envelope) {
	kind := string(e.Kind)
	key := dedupe.Key(kind, e.ID())
	fingerprint := e.Fingerprint()
	if h.service.SeenAndRecord(r.Context(), key, fingerprint) {
		metrics.RecordIngestDuplicate(kind)
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: e.ID(), Duplicate: true})
		return
	}

	if err := h.service.Enqueue(r.Context(), e); err != nil {
		h.service.Unrecord(r.Context(), key, fingerprint)
		h.logger.Warn(r.Context(), "enqueue rejected",
			logger.String("kind", kind),
			logger.String("id", e.ID()),
			logger.Error(err))
		metrics.RecordErrorByComponent("api", "backpressure")
		writeError(w, http.StatusTooManyRequests, "backpressure", fmt.Errorf("%w: %w", ErrBackpressure, err))
		return
	}

	metrics.RecordIngestAccepted(kind)
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: e.ID()})
}
