package batch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestProcessSequential(t *testing.T) {
	Convey("Given 237 items and chunk size 100", t, func() {
		proc := NewProcessor[int, int](ChunkSize[int, int](100))
		items := make([]int, 237)
		for i := range items {
			items[i] = i
		}

		double := func(ctx context.Context, n int) (int, error) { return n * 2, nil }

		Convey("When processing sequentially", func() {
			out, err := proc.ProcessSequential(context.Background(), items, double)
			So(err, ShouldBeNil)

			Convey("Then every item is processed in order", func() {
				So(out.Processed, ShouldEqual, 237)
				So(out.Failed, ShouldEqual, 0)
				So(len(out.Results), ShouldEqual, 237)
				So(out.Results[0], ShouldEqual, 0)
				So(out.Results[236], ShouldEqual, 472)
			})
		})

		Convey("When every tenth item fails", func() {
			flaky := func(ctx context.Context, n int) (int, error) {
				if n%10 == 0 {
					return 0, fmt.Errorf("item %d rejected", n)
				}
				return n, nil
			}
			out, err := proc.ProcessSequential(context.Background(), items, flaky)
			So(err, ShouldBeNil)

			Convey("Then successes and failures add up to the input size", func() {
				So(out.Failed, ShouldEqual, 24)
				So(out.Processed, ShouldEqual, 213)
				So(out.Processed+out.Failed, ShouldEqual, 237)
			})

			Convey("Then errors carry the original index", func() {
				So(out.Errors[0].Index, ShouldEqual, 0)
				So(out.Errors[1].Index, ShouldEqual, 10)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := proc.ProcessSequential(ctx, items, double)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestProcessParallel(t *testing.T) {
	Convey("Given a parallel processor with small chunks", t, func() {
		proc := NewProcessor[int, int](
			ChunkSize[int, int](10),
			Concurrency[int, int](4))

		items := make([]int, 53)
		for i := range items {
			items[i] = i
		}

		Convey("When all items succeed", func() {
			out, err := proc.ProcessParallel(context.Background(), items, func(ctx context.Context, n int) (int, error) {
				return n + 1, nil
			})
			So(err, ShouldBeNil)

			Convey("Then results keep input order despite concurrency", func() {
				So(out.Processed, ShouldEqual, 53)
				for i, r := range out.Results {
					So(r, ShouldEqual, i+1)
				}
			})
		})

		Convey("When one item in a chunk fails", func() {
			var ran atomic.Int64
			out, err := proc.ProcessParallel(context.Background(), items, func(ctx context.Context, n int) (int, error) {
				ran.Add(1)
				if n == 7 {
					return 0, errors.New("bad item")
				}
				return n, nil
			})
			So(err, ShouldBeNil)

			Convey("Then its chunk siblings still settle", func() {
				So(ran.Load(), ShouldEqual, 53)
				So(out.Failed, ShouldEqual, 1)
				So(out.Processed, ShouldEqual, 52)
				So(out.Errors[0].Index, ShouldEqual, 7)
			})
		})
	})

	Convey("Given a processor with StopOnError", t, func() {
		proc := NewProcessor[int, int](
			ChunkSize[int, int](5),
			StopOnError[int, int]())

		items := make([]int, 20)
		for i := range items {
			items[i] = i
		}

		Convey("When the first chunk contains a failure", func() {
			out, err := proc.ProcessParallel(context.Background(), items, func(ctx context.Context, n int) (int, error) {
				if n == 2 {
					return 0, errors.New("fatal")
				}
				return n, nil
			})
			So(err, ShouldBeNil)

			Convey("Then no further chunks are scheduled", func() {
				So(out.Processed+out.Failed, ShouldEqual, 5)
				So(out.Failed, ShouldEqual, 1)
			})
		})
	})
}

func TestProcessStream(t *testing.T) {
	Convey("Given a stream of seven items and chunk size 3", t, func() {
		proc := NewProcessor[string, string](
			ChunkSize[string, string](3),
			Concurrency[string, string](2))

		source := make(chan string, 7)
		for i := 0; i < 7; i++ {
			source <- fmt.Sprintf("item-%d", i)
		}
		close(source)

		Convey("When streaming through the processor", func() {
			var chunks atomic.Int64
			var results atomic.Int64

			out, err := proc.ProcessStream(context.Background(), source, func(ctx context.Context, s string) (string, error) {
				if s == "item-4" {
					return "", errors.New("poison")
				}
				return s + "!", nil
			}, StreamHandlers[string, string]{
				OnResult: func(_ string, _ string) { results.Add(1) },
				OnChunk:  func(processed int) { chunks.Add(1) },
			})
			So(err, ShouldBeNil)

			Convey("Then items are drained in three chunks", func() {
				So(chunks.Load(), ShouldEqual, 3)
				So(out.Processed, ShouldEqual, 6)
				So(out.Failed, ShouldEqual, 1)
				So(results.Load(), ShouldEqual, 6)
			})
		})

		Convey("When the context ends mid-stream", func() {
			open := make(chan string)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := proc.ProcessStream(ctx, open, func(ctx context.Context, s string) (string, error) {
				return s, nil
			}, StreamHandlers[string, string]{})
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestItemError(t *testing.T) {
	Convey("Given a wrapped item error", t, func() {
		cause := errors.New("root cause")
		err := ItemError{Index: 3, Err: cause}

		Convey("Then it formats with the index and unwraps to the cause", func() {
			So(err.Error(), ShouldEqual, "item 3: root cause")
			So(errors.Is(err, cause), ShouldBeTrue)
		})
	})
}
