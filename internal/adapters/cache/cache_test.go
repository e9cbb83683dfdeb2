package cache

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestKey(t *testing.T) {
	Convey("Given recommendation request parameters", t, func() {
		Convey("Then permuted exclusions share a key", func() {
			a := Key("u1", "c1", "one-way", []string{"x", "y", "z"})
			b := Key("u1", "c1", "one-way", []string{"z", "x", "y"})
			So(a, ShouldEqual, b)
		})

		Convey("Then empty exclusion entries are ignored", func() {
			So(Key("u1", "c1", "one-way", []string{"x", ""}),
				ShouldEqual, Key("u1", "c1", "one-way", []string{"x"}))
		})

		Convey("Then different requesters never collide", func() {
			So(Key("u1", "c1", "one-way", nil), ShouldNotEqual, Key("u2", "c1", "one-way", nil))
		})

		Convey("Then missing contest and mode collapse to sentinels", func() {
			So(Key("u1", "", "", nil), ShouldEqual, "u1|all|default")
		})

		Convey("Then modes partition the keyspace", func() {
			So(Key("u1", "c1", "one-way", nil), ShouldNotEqual, Key("u1", "c1", "two-way", nil))
		})
	})
}

func TestCacheTTL(t *testing.T) {
	Convey("Given a cache with a fake clock", t, func() {
		clock := newFakeClock()
		c := New[[]string](WithTTL[[]string](6*time.Hour), WithClock[[]string](clock.Now))

		key := Key("u1", "c1", "one-way", nil)
		c.Set(key, []string{"a", "b"}, "u1", "a", "b")

		Convey("When reading within the TTL", func() {
			got, ok := c.Get(key)
			So(ok, ShouldBeTrue)
			So(got, ShouldResemble, []string{"a", "b"})
		})

		Convey("When the TTL passes", func() {
			clock.Advance(6*time.Hour + time.Minute)
			_, ok := c.Get(key)

			Convey("Then the entry is gone and evicted", func() {
				So(ok, ShouldBeFalse)
				So(c.Len(), ShouldEqual, 0)
			})
		})

		Convey("When reading an unknown key", func() {
			_, ok := c.Get("nope")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestCacheInvalidateUser(t *testing.T) {
	Convey("Given cached results referencing several users", t, func() {
		c := New[string]()

		c.Set(Key("u1", "c1", "one-way", nil), "r1", "u1", "a", "b")
		c.Set(Key("u2", "c1", "one-way", nil), "r2", "u2", "b")
		c.Set(Key("u3", "c1", "one-way", nil), "r3", "u3", "c")

		Convey("When invalidating a requester", func() {
			n := c.InvalidateUser("u1")

			Convey("Then only that requester's entry is dropped", func() {
				So(n, ShouldEqual, 1)
				So(c.Len(), ShouldEqual, 2)
				_, ok := c.Get(Key("u1", "c1", "one-way", nil))
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When invalidating a candidate shared by two results", func() {
			n := c.InvalidateUser("b")

			Convey("Then both dependent entries are dropped", func() {
				So(n, ShouldEqual, 2)
				So(c.Len(), ShouldEqual, 1)
				_, ok := c.Get(Key("u3", "c1", "one-way", nil))
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When invalidating an unreferenced user", func() {
			So(c.InvalidateUser("stranger"), ShouldEqual, 0)
			So(c.Len(), ShouldEqual, 3)
		})
	})
}

func TestCacheReplaceAndClear(t *testing.T) {
	Convey("Given a cache with one entry", t, func() {
		c := New[int]()
		key := Key("u1", "c1", "one-way", nil)
		c.Set(key, 1, "u1", "old-ref")

		Convey("When the entry is replaced with new refs", func() {
			c.Set(key, 2, "u1", "new-ref")

			Convey("Then the old refs no longer evict it", func() {
				So(c.InvalidateUser("old-ref"), ShouldEqual, 0)
				got, ok := c.Get(key)
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, 2)
			})

			Convey("Then the new refs do", func() {
				So(c.InvalidateUser("new-ref"), ShouldEqual, 1)
				So(c.Len(), ShouldEqual, 0)
			})
		})

		Convey("When cleared", func() {
			c.Clear()
			So(c.Len(), ShouldEqual, 0)
			_, ok := c.Get(key)
			So(ok, ShouldBeFalse)
		})
	})
}
