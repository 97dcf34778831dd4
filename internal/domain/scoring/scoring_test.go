package scoring_test

import (
	"testing"
	"time"

	"github.com/okian/talentscore/internal/domain/model"
	"github.com/okian/talentscore/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func ptr[T any](v T) *T { return &v }

var (
	t1  = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	t2  = time.Date(2025, 2, 14, 9, 0, 0, 0, time.UTC)
	t3  = time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

func TestCalculator_Summarize(t *testing.T) {
	Convey("Given a calculator with the default weight table", t, func() {
		calc := scoring.NewCalculator()

		Convey("When technical and softskills groups are present", func() {
			in := scoring.Input{
				Groups: []model.TypeGroup{
					{Type: "technical", AvgScore: 70, Count: 2, LastCompletedAt: ptr(t2)},
					{Type: "softskills", AvgScore: 50, Count: 1, LastCompletedAt: ptr(t3)},
				},
				TotalAssessments: 3,
				Now:              now,
			}
			s := calc.Summarize(in)

			Convey("Then the score is re-normalized by the present weight mass", func() {
				So(s.OverallScore, ShouldEqual, 61.43)
				So(s.SkillLevel, ShouldEqual, model.SkillAdvanced)
			})

			Convey("And the per-type breakdown carries average, count and weight", func() {
				So(s.ByType, ShouldHaveLength, 2)
				So(s.ByType["technical"], ShouldResemble, model.TypeStats{AvgScore: 70, Count: 2, Weight: 0.4})
				So(s.ByType["softskills"], ShouldResemble, model.TypeStats{AvgScore: 50, Count: 1, Weight: 0.3})
			})

			Convey("And counts and the latest completion are derived from the groups", func() {
				So(s.TotalAssessments, ShouldEqual, 3)
				So(s.CompletedAssessments, ShouldEqual, 3)
				So(s.LastCompletedAt, ShouldNotBeNil)
				So(s.LastCompletedAt.Equal(t2), ShouldBeTrue)
			})
		})

		Convey("When an unlisted category sits next to a weighted one", func() {
			s := calc.Summarize(scoring.Input{
				Groups: []model.TypeGroup{
					{Type: "technical", AvgScore: 80, Count: 1, LastCompletedAt: ptr(t1)},
					{Type: "leadership", AvgScore: 20, Count: 3, LastCompletedAt: ptr(t2)},
				},
				TotalAssessments: 5,
				Now:              now,
			})

			Convey("Then it is reported and counted but does not move the score", func() {
				So(s.OverallScore, ShouldEqual, 80)
				So(s.SkillLevel, ShouldEqual, model.SkillAdvanced)
				So(s.ByType["leadership"], ShouldResemble, model.TypeStats{AvgScore: 20, Count: 3, Weight: 0})
				So(s.CompletedAssessments, ShouldEqual, 4)
				So(s.LastCompletedAt.Equal(t2), ShouldBeTrue)
			})
		})

		Convey("When every present category weighs zero", func() {
			s := calc.Summarize(scoring.Input{
				Groups: []model.TypeGroup{
					{Type: "leadership", AvgScore: 95, Count: 2, LastCompletedAt: ptr(t1)},
				},
				TotalAssessments: 2,
				Now:              now,
			})

			Convey("Then the zero-weight fallback yields a score of zero", func() {
				So(s.OverallScore, ShouldEqual, 0)
				So(s.SkillLevel, ShouldEqual, model.SkillBeginner)
				So(s.CompletedAssessments, ShouldEqual, 2)
				So(s.ByType, ShouldContainKey, "leadership")
			})
		})

		Convey("When there are no assessments and no interviews", func() {
			s := calc.Summarize(scoring.Input{Now: now})

			Convey("Then the canonical zero summary is returned", func() {
				So(s, ShouldResemble, scoring.Zero())
				So(s.ByType, ShouldNotBeNil)
				So(s.ByType, ShouldBeEmpty)
				So(s.LastCompletedAt, ShouldBeNil)
				So(s.SkillLevel, ShouldEqual, model.SkillBeginner)
			})
		})

		Convey("When only interviews exist", func() {
			s := calc.Summarize(scoring.Input{
				TotalAssessments: 2,
				Interviews: []model.Interview{
					{ScheduledAt: t1, Status: model.InterviewCompleted, Score: ptr(70.0)},
					{ScheduledAt: now.Add(48 * time.Hour), Status: model.InterviewScheduled},
				},
				Now: now,
			})

			Convey("Then the score is zero but interview statistics are real", func() {
				So(s.OverallScore, ShouldEqual, 0)
				So(s.SkillLevel, ShouldEqual, model.SkillBeginner)
				So(s.TotalAssessments, ShouldEqual, 2)
				So(s.CompletedAssessments, ShouldEqual, 0)
				So(s.ByType, ShouldBeEmpty)
				So(s.LastCompletedAt, ShouldBeNil)
				So(s.Interviews, ShouldResemble, model.InterviewStats{Total: 2, Completed: 1, Upcoming: 1, AvgScore: 70})
			})
		})

		Convey("When assessments exist but none are valid and completed", func() {
			s := calc.Summarize(scoring.Input{TotalAssessments: 4, Now: now})

			Convey("Then the true total is still reported", func() {
				So(s.TotalAssessments, ShouldEqual, 4)
				So(s.CompletedAssessments, ShouldEqual, 0)
				So(s.OverallScore, ShouldEqual, 0)
			})
		})

		Convey("When group averages carry more than two decimals", func() {
			s := calc.Summarize(scoring.Input{
				Groups: []model.TypeGroup{
					{Type: "technical", AvgScore: 200.0 / 3.0, Count: 3, LastCompletedAt: ptr(t1)},
				},
				TotalAssessments: 3,
				Now:              now,
			})

			Convey("Then both the breakdown and the score are rounded to two decimals", func() {
				So(s.ByType["technical"].AvgScore, ShouldEqual, 66.67)
				So(s.OverallScore, ShouldEqual, 66.67)
			})
		})

		Convey("When two groups finish at the same instant", func() {
			s := calc.Summarize(scoring.Input{
				Groups: []model.TypeGroup{
					{Type: "technical", AvgScore: 60, Count: 1, LastCompletedAt: ptr(t2)},
					{Type: "industry", AvgScore: 60, Count: 1, LastCompletedAt: ptr(t2)},
					{Type: "softskills", AvgScore: 60, Count: 1},
				},
				TotalAssessments: 3,
				Now:              now,
			})

			Convey("Then the shared timestamp is reported", func() {
				So(s.LastCompletedAt.Equal(t2), ShouldBeTrue)
				So(s.OverallScore, ShouldEqual, 60)
				So(s.SkillLevel, ShouldEqual, model.SkillIntermediate)
			})
		})
	})

	Convey("Given a calculator with injected weights", t, func() {
		calc := scoring.NewCalculator(scoring.WithWeightsFromConfig(map[string]float64{"technical": 1, "industry": 3}))

		Convey("When both categories are present", func() {
			s := calc.Summarize(scoring.Input{
				Groups: []model.TypeGroup{
					{Type: "technical", AvgScore: 40, Count: 1},
					{Type: "industry", AvgScore: 80, Count: 1},
				},
				TotalAssessments: 2,
				Now:              now,
			})

			Convey("Then the injected table drives the weighted mean", func() {
				So(s.OverallScore, ShouldEqual, 70)
				So(s.ByType["softskills"].Weight, ShouldEqual, 0)
				So(s.ByType["industry"].Weight, ShouldEqual, 3)
			})
		})
	})

	Convey("Given an empty weight configuration", t, func() {
		calc := scoring.NewCalculator(scoring.WithWeightsFromConfig(nil))

		Convey("Then the defaults are kept", func() {
			So(calc.Weights().Map(), ShouldResemble, scoring.DefaultWeights().Map())
		})
	})
}

func TestSkillLevelFor(t *testing.T) {
	Convey("Given the skill level thresholds", t, func() {
		cases := []struct {
			score float64
			want  model.SkillLevel
		}{
			{0, model.SkillBeginner},
			{40, model.SkillBeginner},
			{40.01, model.SkillIntermediate},
			{60, model.SkillIntermediate},
			{60.01, model.SkillAdvanced},
			{80, model.SkillAdvanced},
			{80.01, model.SkillExpert},
			{100, model.SkillExpert},
		}

		Convey("Then each boundary maps exactly", func() {
			for _, c := range cases {
				So(scoring.SkillLevelFor(c.score), ShouldEqual, c.want)
			}
		})
	})
}

func TestInterviewStatsFor(t *testing.T) {
	Convey("Given interviews around the evaluation instant", t, func() {
		interviews := []model.Interview{
			{ScheduledAt: now.Add(-time.Hour), Status: model.InterviewCompleted, Score: ptr(80.0)},
			{ScheduledAt: now.Add(time.Hour), Status: model.InterviewCompleted, Score: ptr(65.0)},
			{ScheduledAt: now, Status: model.InterviewScheduled},
			{ScheduledAt: now.Add(24 * time.Hour), Status: model.InterviewCanceled},
			{ScheduledAt: now.Add(-24 * time.Hour), Status: model.InterviewScheduled, Score: ptr(0.0)},
		}

		stats := scoring.InterviewStatsFor(interviews, now)

		Convey("Then total counts every record regardless of status", func() {
			So(stats.Total, ShouldEqual, 5)
		})

		Convey("And completed counts only scored records, including a zero score", func() {
			So(stats.Completed, ShouldEqual, 3)
			So(stats.AvgScore, ShouldEqual, 48.33)
		})

		Convey("And upcoming counts only records strictly after now", func() {
			So(stats.Upcoming, ShouldEqual, 2)
		})
	})

	Convey("Given no scored interviews", t, func() {
		stats := scoring.InterviewStatsFor([]model.Interview{{ScheduledAt: now.Add(time.Hour)}}, now)

		Convey("Then the average is zero", func() {
			So(stats.AvgScore, ShouldEqual, 0)
			So(stats.Completed, ShouldEqual, 0)
			So(stats.Upcoming, ShouldEqual, 1)
		})
	})
}

func TestWeights(t *testing.T) {
	Convey("Given a weight map with invalid entries", t, func() {
		src := map[string]float64{"technical": 0.5, "broken": -1, "zero": 0}
		w := scoring.NewWeights(src)

		Convey("Then negative weights are dropped and zero weights kept", func() {
			So(w.Weight("broken"), ShouldEqual, 0)
			So(w.Map(), ShouldResemble, map[string]float64{"technical": 0.5, "zero": 0})
		})

		Convey("And later changes to the source map do not leak in", func() {
			src["technical"] = 9
			So(w.Weight("technical"), ShouldEqual, 0.5)
		})

		Convey("And unknown categories weigh zero", func() {
			So(w.Weight("unknown"), ShouldEqual, 0)
		})
	})
}

func TestRound2(t *testing.T) {
	Convey("Given values needing rounding", t, func() {
		So(scoring.Round2(61.428571), ShouldEqual, 61.43)
		So(scoring.Round2(48.333333), ShouldEqual, 48.33)
		So(scoring.Round2(70), ShouldEqual, 70)
		So(scoring.Round2(0.004), ShouldEqual, 0)
	})
}
