package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/talentscore/internal/adapters/repository"
	"github.com/okian/talentscore/internal/config"
	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/internal/seed"
	"github.com/okian/talentscore/pkg/logger"
)

func init() {
	if err := logger.Init(logger.WithOutput(os.Stderr)); err != nil {
		panic(err)
	}
}

// sharedStore survives Close so consecutive commands see the same data.
type sharedStore struct {
	*repository.MemoryStore
}

func (sharedStore) Close(context.Context) error { return nil }

func execute(open storeOpener, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPerfctl(t *testing.T) {
	Convey("Given perfctl over a shared memory store", t, func() {
		_ = os.Setenv("PERF_ENV_FILE", filepath.Join(t.TempDir(), "none.env"))
		defer func() { _ = os.Unsetenv("PERF_ENV_FILE") }()

		store := sharedStore{repository.NewMemoryStore()}
		open := func(context.Context, *config.Config) (repository.Store, error) { return store, nil }

		Convey("When seeding candidates", func() {
			out, err := execute(open, "seed", "--candidates", "5", "--seed", "3", "--workers", "2")

			Convey("Then the submission stats are printed and the store is filled", func() {
				So(err, ShouldBeNil)
				var stats seed.Stats
				So(json.Unmarshal([]byte(out), &stats), ShouldBeNil)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Accepted, ShouldEqual, stats.Submitted)
				st, _ := store.Stats(context.Background())
				So(st.Candidates, ShouldEqual, 5)
			})
		})

		Convey("When computing a candidate's summary", func() {
			ctx := context.Background()
			done := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
			So(store.SaveAssessment(ctx, model.Assessment{ID: "a1", CandidateID: "c1", Type: "technical", Score: 30, CompletedAt: &done}), ShouldBeNil)
			out, err := execute(open, "compute", "c1")

			Convey("Then the summary is printed as JSON", func() {
				So(err, ShouldBeNil)
				var s model.Summary
				So(json.Unmarshal([]byte(out), &s), ShouldBeNil)
				So(s.OverallScore, ShouldEqual, 30)
				So(s.SkillLevel, ShouldEqual, model.SkillBeginner)
			})
		})

		Convey("When arguments are wrong", func() {
			_, err1 := execute(open, "compute")
			_, err2 := execute(open, "seed", "--candidates", "0")
			_, err3 := execute(open, "--store", "redis", "compute", "c1")

			Convey("Then the commands fail", func() {
				So(err1, ShouldNotBeNil)
				So(err2, ShouldNotBeNil)
				So(errors.Is(err3, config.ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the store cannot be opened", func() {
			boom := errors.New("boom")
			_, err := execute(func(context.Context, *config.Config) (repository.Store, error) { return nil, boom }, "compute", "c1")

			Convey("Then the error is returned", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
			})
		})
	})
}
