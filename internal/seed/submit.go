package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/pkg/logger"
)

// Sink receives generated records.
type Sink interface {
	// Send delivers one record. duplicate reports a record the receiver had
	// already accepted.
	Send(ctx context.Context, e model.Envelope) (duplicate bool, err error)
}

// Writer persists records directly.
type Writer interface {
	SaveAssessment(ctx context.Context, a model.Assessment) error
	SaveInterview(ctx context.Context, i model.Interview) error
	SaveCandidate(ctx context.Context, c model.Candidate) error
}

// Stats counts the outcome of a submission run.
type Stats struct {
	Submitted  int           `json:"submitted"`
	Accepted   int           `json:"accepted"`
	Duplicates int           `json:"duplicates"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// Submit sends records to sink using workers goroutines. Individual failures
// are counted, not returned; the error is non-nil only when ctx ends early.
func Submit(ctx context.Context, sink Sink, records []model.Envelope, workers int) (Stats, error) {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	log := logger.Get().Named("seed")
	log.Info(ctx, "submitting records", logger.Int("records", len(records)), logger.Int("workers", workers))

	start := time.Now()
	var submitted, accepted, duplicates, failed atomic.Int64

	ch := make(chan model.Envelope, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for e := range ch {
				submitted.Add(1)
				dup, err := sink.Send(ctx, e)
				switch {
				case err != nil:
					failed.Add(1)
					log.Debug(ctx, "record not delivered",
						logger.String("kind", string(e.Kind)),
						logger.String("id", e.ID()),
						logger.Error(err))
				case dup:
					duplicates.Add(1)
				default:
					accepted.Add(1)
				}
			}
		}()
	}

	var err error
feed:
	for _, e := range records {
		select {
		case <-ctx.Done():
			err = fmt.Errorf("submit: %w", ctx.Err())
			break feed
		case ch <- e:
		}
	}
	close(ch)
	wg.Wait()

	stats := Stats{
		Submitted:  int(submitted.Load()),
		Accepted:   int(accepted.Load()),
		Duplicates: int(duplicates.Load()),
		Failed:     int(failed.Load()),
		Duration:   time.Since(start),
	}
	log.Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration))
	return stats, err
}

// StoreSink writes records straight into a store.
type StoreSink struct {
	w Writer
}

// NewStoreSink creates a sink over w.
func NewStoreSink(w Writer) *StoreSink {
	return &StoreSink{w: w}
}

// Send implements Sink.
func (s *StoreSink) Send(ctx context.Context, e model.Envelope) (bool, error) {
	switch {
	case e.Kind == model.KindAssessment && e.Assessment != nil:
		return false, s.w.SaveAssessment(ctx, *e.Assessment)
	case e.Kind == model.KindInterview && e.Interview != nil:
		return false, s.w.SaveInterview(ctx, *e.Interview)
	case e.Kind == model.KindCandidate && e.Candidate != nil:
		return false, s.w.SaveCandidate(ctx, *e.Candidate)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
}

// HTTPSink posts records to a running service.
type HTTPSink struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSink creates a sink posting to baseURL with the given timeout.
func NewHTTPSink(baseURL string, timeout time.Duration) *HTTPSink {
	return &HTTPSink{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Send implements Sink.
func (s *HTTPSink) Send(ctx context.Context, e model.Envelope) (bool, error) {
	var (
		path string
		body any
	)
	switch {
	case e.Kind == model.KindAssessment && e.Assessment != nil:
		path, body = "/assessments", e.Assessment
	case e.Kind == model.KindInterview && e.Interview != nil:
		path, body = "/interviews", e.Interview
	case e.Kind == model.KindCandidate && e.Candidate != nil:
		path, body = "/candidates", e.Candidate
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("marshal %s: %w", e.Kind, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusAccepted:
		return false, nil
	case http.StatusOK:
		var ack ackResponse
		if err := json.Unmarshal(raw, &ack); err != nil {
			return false, fmt.Errorf("decode ack: %w", err)
		}
		return ack.Duplicate, nil
	default:
		return false, fmt.Errorf("%w: %s: %s", ErrRejected, resp.Status, bytes.TrimSpace(raw))
	}
}
