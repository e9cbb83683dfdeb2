package repository

import (
	"context"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStoreProfiles(t *testing.T) {
	Convey("Given a store with a few profiles", t, func() {
		ctx := context.Background()
		store := NewMemStore()
		store.PutProfile(eligibleProfile("a"))
		store.PutProfile(eligibleProfile("b"))

		Convey("When fetching an existing profile", func() {
			p, err := store.Get(ctx, "a")
			So(err, ShouldBeNil)
			So(p.ID, ShouldEqual, "a")

			Convey("Then mutating the result does not touch stored data", func() {
				p.Matching.Skills = append(p.Matching.Skills, "Sabotage")
				again, err := store.Get(ctx, "a")
				So(err, ShouldBeNil)
				So(again.Matching.Skills, ShouldNotContain, "Sabotage")
			})
		})

		Convey("When fetching a missing profile", func() {
			_, err := store.Get(ctx, "ghost")
			So(err, ShouldEqual, ErrNotFound)
		})

		Convey("When fetching many with gaps", func() {
			got, err := store.FindMany(ctx, []string{"b", "ghost", "a"})
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)
			So(got[0].ID, ShouldEqual, "b")
			So(got[1].ID, ShouldEqual, "a")
		})

		Convey("When counting", func() {
			n, err := store.Count(ctx)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})

		Convey("When replacing a profile", func() {
			replacement := eligibleProfile("a")
			replacement.DisplayName = "Renamed"
			store.PutProfile(replacement)

			n, _ := store.Count(ctx)
			So(n, ShouldEqual, 2)
			p, _ := store.Get(ctx, "a")
			So(p.DisplayName, ShouldEqual, "Renamed")
		})
	})
}

func TestMemStoreFindCandidates(t *testing.T) {
	Convey("Given a store mixing eligible and ineligible profiles", t, func() {
		ctx := context.Background()
		store := NewMemStore()

		store.PutProfile(eligibleProfile("req"))
		for i := 0; i < 5; i++ {
			p := eligibleProfile(fmt.Sprintf("ok-%d", i))
			p.DisplayName = "Visible"
			p.Matching.Skills = []string{"Go"}
			store.PutProfile(p)
		}
		optOut := eligibleProfile("opt-out")
		optOut.Consents.AllowMatching = false
		store.PutProfile(optOut)

		closed := eligibleProfile("closed")
		closed.Matching.OpenToNewTeams = false
		store.PutProfile(closed)

		q := BuildCandidateQuery("req", nil, nil, 10)

		Convey("When querying candidates", func() {
			got, err := store.FindCandidates(ctx, q)
			So(err, ShouldBeNil)

			Convey("Then only eligible strangers come back, in insertion order", func() {
				So(len(got), ShouldEqual, 5)
				for i, p := range got {
					So(p.ID, ShouldEqual, fmt.Sprintf("ok-%d", i))
				}
			})

			Convey("Then the projection keeps scoring fields and drops nothing needed", func() {
				So(got[0].DisplayName, ShouldEqual, "Visible")
				So(got[0].Matching.Skills, ShouldResemble, []string{"Go"})
				So(got[0].Consents, ShouldNotBeNil)
			})
		})

		Convey("When the limit is below the eligible count", func() {
			q.Limit = 3
			got, err := store.FindCandidates(ctx, q)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 3)
		})

		Convey("When a contest scopes the query", func() {
			fin := eligibleProfile("fin")
			fin.Contest.Interests = []string{"fintech"}
			store.PutProfile(fin)

			scoped := BuildCandidateQuery("req", []string{"fintech", "ai"}, nil, 10)
			got, err := store.FindCandidates(ctx, scoped)
			So(err, ShouldBeNil)

			Convey("Then only candidates sharing a contest interest come back", func() {
				So(len(got), ShouldEqual, 1)
				So(got[0].ID, ShouldEqual, "fin")
			})
		})

		Convey("When the context is already cancelled", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := store.FindCandidates(cancelled, q)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestMemStoreContests(t *testing.T) {
	Convey("Given a store with contests", t, func() {
		ctx := context.Background()
		store := NewMemStore()
		store.PutContest(&Contest{ID: "hack-1", Name: "Autumn Hack", Tags: []string{"ai", "web"}})

		contests := store.Contests()

		Convey("When fetching an existing contest", func() {
			c, err := contests.Get(ctx, "hack-1")
			So(err, ShouldBeNil)
			So(c.Name, ShouldEqual, "Autumn Hack")
			So(c.Tags, ShouldResemble, []string{"ai", "web"})
		})

		Convey("When fetching a missing contest", func() {
			_, err := contests.Get(ctx, "nope")
			So(err, ShouldEqual, ErrNotFound)
		})

		Convey("When fetching many", func() {
			got, err := contests.FindMany(ctx, []string{"hack-1", "nope"})
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(got["hack-1"].ID, ShouldEqual, "hack-1")
		})
	})
}
