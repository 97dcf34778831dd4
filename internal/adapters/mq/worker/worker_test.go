package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/talentscore/internal/adapters/mq/queue"
	"github.com/okian/talentscore/internal/adapters/mq/worker"
	"github.com/okian/talentscore/internal/adapters/repository"
	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// flakyWriter fails the first n writes of every record id.
type flakyWriter struct {
	mu       sync.Mutex
	failures int
	calls    map[string]int
	saved    []string
}

func newFlakyWriter(failures int) *flakyWriter {
	return &flakyWriter{failures: failures, calls: make(map[string]int)}
}

func (w *flakyWriter) save(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls[id]++
	if w.calls[id] <= w.failures {
		return errors.New("connection reset")
	}
	w.saved = append(w.saved, id)
	return nil
}

func (w *flakyWriter) SaveAssessment(_ context.Context, a model.Assessment) error { return w.save(a.ID) }
func (w *flakyWriter) SaveInterview(_ context.Context, i model.Interview) error   { return w.save(i.ID) }
func (w *flakyWriter) SaveCandidate(_ context.Context, c model.Candidate) error   { return w.save(c.ID) }

// stallingWriter blocks every write until its context is cancelled.
type stallingWriter struct{}

func (stallingWriter) stall(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (w stallingWriter) SaveAssessment(ctx context.Context, _ model.Assessment) error { return w.stall(ctx) }
func (w stallingWriter) SaveInterview(ctx context.Context, _ model.Interview) error   { return w.stall(ctx) }
func (w stallingWriter) SaveCandidate(ctx context.Context, _ model.Candidate) error   { return w.stall(ctx) }

func TestPool_PersistsRecords(t *testing.T) {
	Convey("Given a pool draining a queue into a memory store", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		store := repository.NewMemoryStore()
		pool := worker.NewPool(4, q, store)
		pool.Start(ctx)

		done := time.Now()
		for i := 0; i < 20; i++ {
			So(q.Enqueue(ctx, model.AssessmentEnvelope(model.Assessment{
				ID: fmt.Sprintf("a%d", i), CandidateID: "c1", Type: "technical", Score: 50, CompletedAt: &done,
			})), ShouldBeNil)
		}
		So(q.Enqueue(ctx, model.InterviewEnvelope(model.Interview{
			ID: "i1", CandidateID: "c1", ScheduledAt: done, Status: model.InterviewScheduled, InterviewerName: "Kim",
		})), ShouldBeNil)
		So(q.Enqueue(ctx, model.CandidateEnvelope(model.Candidate{ID: "c1", Name: "Ada"})), ShouldBeNil)

		Convey("When the pool is shut down", func() {
			sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			So(pool.Shutdown(sctx), ShouldBeNil)

			Convey("Then every buffered record was persisted", func() {
				st, err := store.Stats(ctx)
				So(err, ShouldBeNil)
				So(st, ShouldResemble, repository.Stats{Candidates: 1, Assessments: 20, Interviews: 1})
				So(pool.Size(), ShouldEqual, 4)
			})

			Convey("And shutting down again is harmless", func() {
				So(pool.Shutdown(sctx), ShouldBeNil)
			})
		})
	})
}

func TestPool_Retries(t *testing.T) {
	Convey("Given a writer that fails twice per record", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		w := newFlakyWriter(2)

		Convey("When the pool allows three attempts", func() {
			pool := worker.NewPool(1, q, w, worker.WithMaxAttempts(3), worker.WithRetryDelay(time.Millisecond))
			pool.Start(ctx)
			So(q.Enqueue(ctx, model.CandidateEnvelope(model.Candidate{ID: "c1", Name: "Ada"})), ShouldBeNil)
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then the record is eventually saved", func() {
				So(w.saved, ShouldResemble, []string{"c1"})
				So(w.calls["c1"], ShouldEqual, 3)
			})
		})

		Convey("When the pool allows only two attempts", func() {
			var mu sync.Mutex
			var failed []string
			pool := worker.NewPool(1, q, w,
				worker.WithMaxAttempts(2),
				worker.WithRetryDelay(time.Millisecond),
				worker.WithFailureHandler(func(_ context.Context, e model.Envelope, err error) {
					mu.Lock()
					defer mu.Unlock()
					failed = append(failed, e.ID())
				}),
			)
			pool.Start(ctx)
			So(q.Enqueue(ctx, model.CandidateEnvelope(model.Candidate{ID: "c2", Name: "Bo"})), ShouldBeNil)
			So(pool.Shutdown(ctx), ShouldBeNil)

			Convey("Then the failure handler is told about the record", func() {
				So(w.saved, ShouldBeEmpty)
				So(failed, ShouldResemble, []string{"c2"})
			})
		})
	})
}

func TestPool_ShutdownTimeout(t *testing.T) {
	Convey("Given a worker stuck on a write with records still buffered", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(8))
		var failed atomic.Int64
		pool := worker.NewPool(1, q, stallingWriter{},
			worker.WithMaxAttempts(1),
			worker.WithFailureHandler(func(context.Context, model.Envelope, error) {
				failed.Add(1)
			}),
		)
		pool.Start(ctx)
		for i := 0; i < 3; i++ {
			So(q.Enqueue(ctx, model.CandidateEnvelope(model.Candidate{ID: fmt.Sprintf("c%d", i), Name: "Ada"})), ShouldBeNil)
		}

		Convey("When shutdown times out and cancels the workers", func() {
			sctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
			defer cancel()
			So(pool.Shutdown(sctx), ShouldNotBeNil)
			So(pool.Wait(ctx), ShouldBeNil)

			Convey("Then every record taken off the queue reached the failure handler", func() {
				So(failed.Load(), ShouldBeGreaterThan, 0)
				So(failed.Load()+int64(q.Len(ctx)), ShouldEqual, 3)
			})
		})
	})
}

func TestPool_UnknownKind(t *testing.T) {
	Convey("Given an empty envelope on the queue", t, func() {
		ctx := context.Background()
		q := queue.NewInMemoryQueue(queue.WithCapacity(1))
		w := newFlakyWriter(0)
		var got error
		pool := worker.NewPool(1, q, w, worker.WithFailureHandler(func(_ context.Context, _ model.Envelope, err error) {
			got = err
		}))
		pool.Start(ctx)
		So(q.Enqueue(ctx, model.Envelope{Kind: "note"}), ShouldBeNil)
		So(pool.Shutdown(ctx), ShouldBeNil)

		Convey("Then it is rejected without retries", func() {
			So(errors.Is(got, worker.ErrUnknownKind), ShouldBeTrue)
			So(w.calls, ShouldBeEmpty)
		})
	})
}

func TestPool_ShutdownBeforeStart(t *testing.T) {
	Convey("Given a pool that never started", t, func() {
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(0, q, newFlakyWriter(0))

		Convey("Then shutdown returns at once and closes the queue", func() {
			So(pool.Shutdown(context.Background()), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
			So(pool.Size(), ShouldBeGreaterThan, 0)
		})
	})
}
