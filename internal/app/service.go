// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/talentscore/internal/adapters/mq/queue"
	"github.com/okian/talentscore/internal/adapters/mq/worker"
	"github.com/okian/talentscore/internal/adapters/repository"
	"github.com/okian/talentscore/internal/domain/dedupe"
	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/internal/domain/performance"
	"github.com/okian/talentscore/internal/domain/scoring"
	"github.com/okian/talentscore/pkg/logger"
	"github.com/okian/talentscore/pkg/metrics"
)

const (
	defaultQueueSize     = 10000
	defaultDedupeSize    = 50000
	defaultReadTimeout   = 5 * time.Second
	defaultWriteAttempts = 3
)

// Service wires the store, the performance aggregator and the ingestion
// pipeline together.
type Service struct {
	mu sync.RWMutex

	store      repository.Store
	aggregator *performance.Aggregator
	deduper    dedupe.Deduper
	queue      *queue.InMemoryQueue
	pool       *worker.Pool

	backend         string
	storeOpts       []repository.Option
	workerCount     int
	queueSize       int
	dedupeSize      int
	writeAttempts   int
	categoryWeights map[string]float64
	readTimeout     time.Duration

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		backend:       repository.BackendMemory,
		workerCount:   runtime.NumCPU(),
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		writeAttempts: defaultWriteAttempts,
		readTimeout:   defaultReadTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and starts the ingestion workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting performance service...")

	if s.store == nil {
		st, err := repository.Open(ctx, s.backend, s.storeOpts...)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = st
	}

	weights := scoring.DefaultWeights()
	if s.categoryWeights != nil {
		weights = scoring.NewWeights(s.categoryWeights)
	}
	s.aggregator = performance.NewAggregator(s.store, s.store, performance.WithWeights(weights))

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store,
		worker.WithMaxAttempts(s.writeAttempts),
		worker.WithFailureHandler(s.releaseFailed),
	)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "performance service started",
		logger.String("store", s.backend),
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Any("weights", weights.Map()),
	)
	return nil
}

// Stop drains the queue and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping performance service...")

	s.pool.Stop()
	if err := s.store.Close(ctx); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
	}
	s.store = nil

	s.started = false
	s.logger.Info(ctx, "performance service stopped")
}

// releaseFailed forgets the dedupe entry of a record the workers gave up on
// so it can be submitted again.
func (s *Service) releaseFailed(ctx context.Context, e model.Envelope, err error) {
	s.deduper.Unrecord(ctx, dedupe.Key(string(e.Kind), e.ID()), e.Fingerprint())
	s.logger.Error(ctx, "record dropped after retries",
		logger.String("kind", string(e.Kind)),
		logger.String("id", e.ID()),
		logger.Error(err))
}

// components returns the running components, or ErrNotStarted.
func (s *Service) components() (repository.Store, *performance.Aggregator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.aggregator, nil
}

func (s *Service) withReadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.readTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.readTimeout)
}

// ComputePerformance returns a freshly computed summary for the candidate.
func (s *Service) ComputePerformance(ctx context.Context, candidateID string) (model.Summary, error) {
	_, agg, err := s.components()
	if err != nil {
		return model.Summary{}, err
	}
	ctx, cancel := s.withReadTimeout(ctx)
	defer cancel()
	return agg.ComputePerformance(ctx, candidateID)
}

// Candidate returns the candidate profile.
func (s *Service) Candidate(ctx context.Context, candidateID string) (model.Candidate, error) {
	st, _, err := s.components()
	if err != nil {
		return model.Candidate{}, err
	}
	ctx, cancel := s.withReadTimeout(ctx)
	defer cancel()
	return st.GetCandidate(ctx, candidateID)
}

// Dashboard returns the candidate's profile, raw records and summary. An
// unknown candidate yields repository.ErrNotFound; a failed summary yields
// performance.ErrAggregationFailed.
func (s *Service) Dashboard(ctx context.Context, candidateID string) (model.Dashboard, error) {
	st, agg, err := s.components()
	if err != nil {
		return model.Dashboard{}, err
	}
	ctx, cancel := s.withReadTimeout(ctx)
	defer cancel()

	c, err := st.GetCandidate(ctx, candidateID)
	if err != nil {
		return model.Dashboard{}, fmt.Errorf("get candidate: %w", err)
	}

	d := model.Dashboard{Candidate: c}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := st.ListAssessments(gctx, candidateID)
		if err != nil {
			return fmt.Errorf("list assessments: %w", err)
		}
		d.Assessments = list
		return nil
	})
	g.Go(func() error {
		list, err := st.ListInterviews(gctx, candidateID)
		if err != nil {
			return fmt.Errorf("list interviews: %w", err)
		}
		d.Interviews = list
		return nil
	})
	g.Go(func() error {
		summary, err := agg.ComputePerformance(gctx, candidateID)
		if err != nil {
			return err
		}
		d.OverallPerformance = summary
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Dashboard{}, err
	}

	if d.Assessments == nil {
		d.Assessments = []model.Assessment{}
	}
	if d.Interviews == nil {
		d.Interviews = []model.Interview{}
	}
	return d, nil
}

// SeenAndRecord reports whether key was already accepted with the same
// fingerprint and records the fingerprint if not.
func (s *Service) SeenAndRecord(ctx context.Context, key, fingerprint string) bool {
	s.mu.RLock()
	d := s.deduper
	s.mu.RUnlock()
	if d == nil {
		return false
	}
	return d.SeenAndRecord(ctx, key, fingerprint)
}

// Unrecord forgets key if fingerprint is still its latest content.
func (s *Service) Unrecord(ctx context.Context, key, fingerprint string) {
	s.mu.RLock()
	d := s.deduper
	s.mu.RUnlock()
	if d != nil {
		d.Unrecord(ctx, key, fingerprint)
	}
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue hands a record to the workers.
func (s *Service) Enqueue(ctx context.Context, e model.Envelope) error {
	s.mu.RLock()
	q := s.queue
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	if err := q.Enqueue(ctx, e); err != nil {
		return fmt.Errorf("enqueue %s: %w", e.Kind, err)
	}
	s.logger.Debug(ctx, "record enqueued",
		logger.String("kind", string(e.Kind)),
		logger.String("id", e.ID()),
		logger.String("candidate_id", e.CandidateID()))
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"store":       s.backend,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if !s.started {
		return stats
	}

	queueLen := s.queue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["dedupeEntries"] = s.deduper.Size()
	stats["workers"] = s.pool.Size()
	stats["weights"] = s.aggregator.Weights().Map()
	metrics.UpdateQueueSize(queueLen)

	counts, err := s.store.Stats(ctx)
	if err != nil {
		s.logger.Warn(ctx, "store stats unavailable", logger.Error(err))
		stats["storeError"] = err.Error()
		return stats
	}
	stats["candidates"] = counts.Candidates
	stats["assessments"] = counts.Assessments
	stats["interviews"] = counts.Interviews
	metrics.UpdateStoredRecords(string(model.KindCandidate), counts.Candidates)
	metrics.UpdateStoredRecords(string(model.KindAssessment), counts.Assessments)
	metrics.UpdateStoredRecords(string(model.KindInterview), counts.Interviews)
	return stats
}
