package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	service "github.com/okian/talentscore/internal/app"
	"github.com/okian/talentscore/internal/adapters/mq/queue"
	"github.com/okian/talentscore/internal/adapters/repository"
	"github.com/okian/talentscore/internal/domain/dedupe"
	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/internal/domain/performance"
	"github.com/okian/talentscore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var errBackend = errors.New("backend unavailable")

// failingStore fails every grouping read.
type failingStore struct {
	*repository.MemoryStore
}

func (failingStore) GroupCompletedByType(context.Context, string) ([]model.TypeGroup, error) {
	return nil, errBackend
}

// rejectingStore fails every assessment write.
type rejectingStore struct {
	*repository.MemoryStore
}

func (rejectingStore) SaveAssessment(context.Context, model.Assessment) error {
	return errBackend
}

// blockingStore holds every candidate write until release is closed.
type blockingStore struct {
	*repository.MemoryStore
	release chan struct{}
}

func (b blockingStore) SaveCandidate(ctx context.Context, c model.Candidate) error {
	<-b.release
	return b.MemoryStore.SaveCandidate(ctx, c)
}

func ptr[T any](v T) *T { return &v }

// eventually polls cond until it holds or the deadline passes.
func eventually(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was not started", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("Then reads and writes fail with ErrNotStarted", func() {
			_, err := svc.ComputePerformance(ctx, "c1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			_, err = svc.Dashboard(ctx, "c1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			err = svc.Enqueue(ctx, model.CandidateEnvelope(model.Candidate{ID: "c1", Name: "Ada"}))
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.SeenAndRecord(ctx, "k", "v"), ShouldBeFalse)
			So(svc.Size(), ShouldEqual, 0)
			So(svc.GetStats(ctx)["started"], ShouldBeFalse)
		})

		Convey("And Stop is a no-op", func() {
			So(func() { svc.Stop() }, ShouldNotPanic)
		})
	})

	Convey("Given an unknown store backend", t, func() {
		svc := service.New(service.WithStoreBackend("cassandra"))

		Convey("Then Start fails", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, repository.ErrUnknownBackend), ShouldBeTrue)
		})
	})

	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(16))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then stats describe the running components", func() {
			stats := svc.GetStats(ctx)
			So(stats["started"], ShouldBeTrue)
			So(stats["workers"], ShouldEqual, 2)
			So(stats["queueLength"], ShouldEqual, 0)
			So(stats["candidates"], ShouldEqual, 0)
			So(stats["weights"], ShouldResemble, map[string]float64{"technical": 0.4, "softskills": 0.3, "industry": 0.3})
		})
	})
}

func TestService_IngestAndCompute(t *testing.T) {
	Convey("Given a started service on a memory store", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		svc := service.New(service.WithStore(store), service.WithWorkerCount(2))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		done := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		records := []model.Envelope{
			model.CandidateEnvelope(model.Candidate{ID: "c1", Name: "Ada"}),
			model.AssessmentEnvelope(model.Assessment{ID: "a1", CandidateID: "c1", Type: "technical", Score: 90, CompletedAt: &done}),
			model.AssessmentEnvelope(model.Assessment{ID: "a2", CandidateID: "c1", Type: "softskills", Score: 70, CompletedAt: &done}),
			model.AssessmentEnvelope(model.Assessment{ID: "a3", CandidateID: "c1", Type: "industry", Score: 60}),
			model.InterviewEnvelope(model.Interview{ID: "i1", CandidateID: "c1", ScheduledAt: done, Status: model.InterviewCompleted, Score: ptr(80.0), InterviewerName: "Bob"}),
		}
		for _, e := range records {
			So(svc.Enqueue(ctx, e), ShouldBeNil)
		}

		So(eventually(func() bool {
			st, err := store.Stats(ctx)
			return err == nil && st == repository.Stats{Candidates: 1, Assessments: 3, Interviews: 1}
		}), ShouldBeTrue)

		Convey("When the performance is computed", func() {
			summary, err := svc.ComputePerformance(ctx, "c1")

			Convey("Then only completed assessments are weighted", func() {
				So(err, ShouldBeNil)
				// (90*0.4 + 70*0.3) / 0.7
				So(summary.OverallScore, ShouldEqual, 81.43)
				So(summary.SkillLevel, ShouldEqual, model.SkillExpert)
				So(summary.TotalAssessments, ShouldEqual, 3)
				So(summary.CompletedAssessments, ShouldEqual, 2)
				So(summary.Interviews.Completed, ShouldEqual, 1)
				So(summary.Interviews.AvgScore, ShouldEqual, 80)
			})
		})

		Convey("When the dashboard is requested", func() {
			d, err := svc.Dashboard(ctx, "c1")

			Convey("Then it bundles profile, records and summary", func() {
				So(err, ShouldBeNil)
				So(d.Candidate.Name, ShouldEqual, "Ada")
				So(d.Assessments, ShouldHaveLength, 3)
				So(d.Interviews, ShouldHaveLength, 1)
				So(d.OverallPerformance.OverallScore, ShouldEqual, 81.43)
			})
		})

		Convey("When an unknown candidate is requested", func() {
			_, err := svc.Dashboard(ctx, "nobody")
			_, cerr := svc.Candidate(ctx, "nobody")
			summary, perr := svc.ComputePerformance(ctx, "nobody")

			Convey("Then the dashboard reports not found and the summary is zero", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				So(errors.Is(cerr, repository.ErrNotFound), ShouldBeTrue)
				So(perr, ShouldBeNil)
				So(summary, ShouldResemble, performance.ZeroSummary())
			})
		})

		Convey("When stats are read", func() {
			stats := svc.GetStats(ctx)

			Convey("Then store counts are included", func() {
				So(stats["candidates"], ShouldEqual, 1)
				So(stats["assessments"], ShouldEqual, 3)
				So(stats["interviews"], ShouldEqual, 1)
			})
		})
	})
}

func TestService_Options(t *testing.T) {
	Convey("Given custom category weights", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		done := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
		So(store.SaveAssessment(ctx, model.Assessment{ID: "a1", CandidateID: "c1", Type: "technical", Score: 90, CompletedAt: &done}), ShouldBeNil)
		So(store.SaveAssessment(ctx, model.Assessment{ID: "a2", CandidateID: "c1", Type: "design", Score: 50, CompletedAt: &done}), ShouldBeNil)

		svc := service.New(
			service.WithStore(store),
			service.WithCategoryWeights(map[string]float64{"technical": 1, "design": 1}),
			service.WithReadTimeout(time.Second),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then the configured table is used", func() {
			summary, err := svc.ComputePerformance(ctx, "c1")
			So(err, ShouldBeNil)
			So(summary.OverallScore, ShouldEqual, 70)
			So(summary.ByType["design"].Weight, ShouldEqual, 1)
		})
	})

	Convey("Given a full queue", t, func() {
		ctx := context.Background()
		store := blockingStore{MemoryStore: repository.NewMemoryStore(), release: make(chan struct{})}
		svc := service.New(service.WithStore(store), service.WithQueueSize(1), service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		defer close(store.release)

		Convey("Then enqueue reports ErrQueueFull", func() {
			var err error
			for i := 0; i < 10 && err == nil; i++ {
				err = svc.Enqueue(ctx, model.CandidateEnvelope(model.Candidate{ID: "c", Name: "n"}))
			}
			So(errors.Is(err, queue.ErrQueueFull), ShouldBeTrue)
		})
	})
}

func TestService_Failures(t *testing.T) {
	Convey("Given a store whose grouping read fails", t, func() {
		ctx := context.Background()
		store := failingStore{repository.NewMemoryStore()}
		So(store.SaveCandidate(ctx, model.Candidate{ID: "c1", Name: "Ada"}), ShouldBeNil)
		svc := service.New(service.WithStore(store))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Then performance and dashboard report an aggregation failure", func() {
			_, err := svc.ComputePerformance(ctx, "c1")
			So(errors.Is(err, performance.ErrAggregationFailed), ShouldBeTrue)
			So(errors.Is(err, errBackend), ShouldBeTrue)

			_, err = svc.Dashboard(ctx, "c1")
			So(errors.Is(err, performance.ErrAggregationFailed), ShouldBeTrue)
		})
	})

	Convey("Given a store that rejects assessment writes", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithStore(rejectingStore{repository.NewMemoryStore()}),
			service.WithWriteAttempts(1),
			service.WithWorkerCount(1),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		e := model.AssessmentEnvelope(model.Assessment{ID: "a1", CandidateID: "c1", Type: "technical", Score: 10})
		key := dedupe.Key(string(e.Kind), e.ID())
		So(svc.SeenAndRecord(ctx, key, e.Fingerprint()), ShouldBeFalse)
		So(svc.Enqueue(ctx, e), ShouldBeNil)

		Convey("Then the dropped record's dedupe key is released", func() {
			So(eventually(func() bool { return svc.Size() == 0 }), ShouldBeTrue)
			So(svc.SeenAndRecord(ctx, key, e.Fingerprint()), ShouldBeFalse)
		})
	})
}
