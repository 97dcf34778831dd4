// Package worker persists queued records through a pool of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/pkg/logger"
	"github.com/okian/talentscore/pkg/metrics"
)

// Default pool configuration constants.
const (
	defaultMaxAttempts  = 3
	defaultRetryDelay   = 50 * time.Millisecond
	poolShutdownTimeout = 30 * time.Second
)

// ErrUnknownKind is returned for envelopes that carry no known record.
var ErrUnknownKind = errors.New("unknown record kind")

// Writer persists records.
type Writer interface {
	SaveAssessment(ctx context.Context, a model.Assessment) error
	SaveInterview(ctx context.Context, i model.Interview) error
	SaveCandidate(ctx context.Context, c model.Candidate) error
}

// Queue defines how workers receive records.
type Queue interface {
	Receive(ctx context.Context) (model.Envelope, error)
}

// FailureHandler is told about records that were given up on.
type FailureHandler func(ctx context.Context, e model.Envelope, err error)

// Pool runs workers that drain a queue into a Writer.
type Pool struct {
	size        int
	queue       Queue
	writer      Writer
	maxAttempts int
	retryDelay  time.Duration
	onFailure   FailureHandler
	logger      logger.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewPool creates a pool of size workers. A size below one defaults to the
// number of CPUs.
func NewPool(size int, queue Queue, writer Writer, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{
		size:        size,
		queue:       queue,
		writer:      writer,
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named("worker-pool")
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Start launches the workers. They run until the queue is closed and
// drained, or until ctx or the pool is stopped.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(p.size)
	for i := 0; i < p.size; i++ {
		name := "worker-" + strconv.Itoa(i)
		go p.run(ctx, name)
	}
	metrics.UpdateWorkerActiveCount(p.size)
	go func() {
		p.wg.Wait()
		metrics.UpdateWorkerActiveCount(0)
		close(p.done)
	}()
}

func (p *Pool) run(ctx context.Context, name string) {
	defer p.wg.Done()
	log := p.logger.Named(name)
	for {
		e, err := p.queue.Receive(ctx)
		if err != nil {
			return
		}
		if err := p.process(ctx, e); err != nil {
			log.Error(ctx, "giving up on record",
				logger.String("kind", string(e.Kind)),
				logger.String("id", e.ID()),
				logger.String("candidateId", e.CandidateID()),
				logger.Error(err),
			)
			if p.onFailure != nil {
				p.onFailure(ctx, e, err)
			}
		}
	}
}

// process writes one record, retrying transient failures.
func (p *Pool) process(ctx context.Context, e model.Envelope) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	delay := p.retryDelay
	var err error
retry:
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if err = p.write(ctx, e); err == nil {
			metrics.RecordRecordPersisted(string(e.Kind))
			return nil
		}
		if errors.Is(err, ErrUnknownKind) || attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			err = errors.Join(err, ctx.Err())
			break retry
		case <-time.After(delay):
			delay *= 2
		}
	}

	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", "persist_error")
	metrics.RecordErrorByType("persist_error", "high")
	metrics.RecordErrorLatency("worker", "persist_error", float64(time.Since(start).Milliseconds()))
	return fmt.Errorf("persist %s %s: %w", e.Kind, e.ID(), err)
}

func (p *Pool) write(ctx context.Context, e model.Envelope) error {
	switch {
	case e.Kind == model.KindAssessment && e.Assessment != nil:
		return p.writer.SaveAssessment(ctx, *e.Assessment)
	case e.Kind == model.KindInterview && e.Interview != nil:
		return p.writer.SaveInterview(ctx, *e.Interview)
	case e.Kind == model.KindCandidate && e.Candidate != nil:
		return p.writer.SaveCandidate(ctx, *e.Candidate)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
}

// Wait blocks until every worker has returned or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool: %w", ctx.Err())
	}
}

// Shutdown closes the queue if it can be closed and waits for the workers to
// drain it. Workers still running when ctx expires are cancelled.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		if closer, ok := p.queue.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil {
				p.logger.Error(ctx, "error closing queue", logger.Error(cerr))
			}
		}
		if p.cancel == nil {
			return
		}
		err = p.Wait(ctx)
		if err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Error(err))
		}
		p.cancel()
	})
	return err
}

// Stop is Shutdown with the default timeout.
func (p *Pool) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), poolShutdownTimeout)
	defer cancel()
	_ = p.Shutdown(ctx)
}
