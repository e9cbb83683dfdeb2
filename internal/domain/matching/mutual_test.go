package matching_test

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/teamforge/crew/internal/domain/matching"
	"github.com/teamforge/crew/internal/domain/profile"
)

func TestMutualScore(t *testing.T) {
	Convey("Given two asymmetric profiles", t, func() {
		scorer := matching.NewScorer()

		a := &profile.Profile{
			ID: "a",
			Matching: profile.Matching{
				PrimaryRole:     "Frontend Dev",
				ExperienceLevel: profile.ExperienceBeginner,
				Skills:          []string{"React", "CSS"},
				Availability:    "weekends",
			},
			Contest: profile.ContestPreferences{Interests: []string{"web"}},
		}
		b := &profile.Profile{
			ID: "b",
			Matching: profile.Matching{
				PrimaryRole:     "Data Scientist",
				SecondaryRoles:  []string{"ML Engineer"},
				ExperienceLevel: profile.ExperienceExpert,
				Skills:          []string{"Python", "ML", "Pandas", "SQL"},
				Availability:    "weekends,evenings",
			},
			Contest: profile.ContestPreferences{Interests: []string{"ai", "web"}},
		}

		Convey("When scored mutually from both sides", func() {
			ab := scorer.MutualScore(a, b, matching.Context{})
			ba := scorer.MutualScore(b, a, matching.Context{})

			Convey("Then the totals are symmetric", func() {
				So(ab.Total, ShouldAlmostEqual, ba.Total, 1e-9)
			})

			Convey("Then the directions swap", func() {
				So(ab.UserToCandidate, ShouldAlmostEqual, ba.CandidateToUser, 1e-9)
				So(ab.CandidateToUser, ShouldAlmostEqual, ba.UserToCandidate, 1e-9)
			})

			Convey("Then the geometric mean never exceeds the better direction", func() {
				better := math.Max(ab.UserToCandidate, ab.CandidateToUser)
				So(ab.Total, ShouldBeLessThanOrEqualTo, better+1e-9)
			})

			Convey("Then the breakdown reports the forward direction", func() {
				forward := scorer.Score(a, b, matching.Context{})
				So(ab.Breakdown, ShouldResemble, forward.Breakdown)
			})
		})

		Convey("When comparing balanced and lopsided pairs", func() {
			// sqrt penalizes asymmetry: 55/55 beats 90/34 despite a higher sum.
			So(math.Sqrt(55*55), ShouldBeGreaterThan, math.Sqrt(90*34))
		})

		Convey("When both directions are computed against an empty profile", func() {
			empty := &profile.Profile{}
			result := scorer.MutualScore(a, empty, matching.Context{})

			Convey("Then the total stays within bounds", func() {
				So(result.Total, ShouldBeGreaterThanOrEqualTo, 0)
				So(result.Total, ShouldBeLessThanOrEqualTo, 100)
			})
		})
	})
}
