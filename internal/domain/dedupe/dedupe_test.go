package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/artloop/sketchduel/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func voteKey(voter, game string) string {
	return voter + "/" + game
}

func TestInMemoryDeduper(t *testing.T) {
	ctx := context.Background()

	Convey("Given a new deduper", t, func() {
		d := dedupe.NewInMemoryDeduper()

		Convey("When a vote key is recorded for the first time", func() {
			seen := d.SeenAndRecord(ctx, voteKey("user-a", "game-1"))

			Convey("Then it should not have been seen before", func() {
				So(seen, ShouldBeFalse)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same vote key is recorded twice", func() {
			d.SeenAndRecord(ctx, voteKey("user-a", "game-1"))
			seen := d.SeenAndRecord(ctx, voteKey("user-a", "game-1"))

			Convey("Then the second cast is flagged as a duplicate", func() {
				So(seen, ShouldBeTrue)
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the same voter votes on different games", func() {
			So(d.SeenAndRecord(ctx, voteKey("user-a", "game-1")), ShouldBeFalse)
			So(d.SeenAndRecord(ctx, voteKey("user-a", "game-2")), ShouldBeFalse)

			Convey("Then both keys are tracked independently", func() {
				So(d.Size(), ShouldEqual, 2)
			})
		})

		Convey("When a recorded key is unrecorded after a store failure", func() {
			key := voteKey("user-a", "game-1")
			d.SeenAndRecord(ctx, key)
			d.Unrecord(ctx, key)

			Convey("Then the vote can be retried", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(ctx, key), ShouldBeFalse)
			})
		})

		Convey("When unrecording a key that was never recorded", func() {
			d.Unrecord(ctx, voteKey("user-z", "game-9"))

			Convey("Then the size is unchanged", func() {
				So(d.Size(), ShouldEqual, 0)
			})
		})
	})
}

func TestInMemoryDeduper_Eviction(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bounded deduper at capacity", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
		for i := 1; i <= 3; i++ {
			So(d.SeenAndRecord(ctx, fmt.Sprintf("key-%d", i)), ShouldBeFalse)
		}

		Convey("When one more key is recorded", func() {
			So(d.SeenAndRecord(ctx, "key-4"), ShouldBeFalse)

			Convey("Then the oldest key is evicted and the size holds", func() {
				So(d.Size(), ShouldEqual, 3)
				// key-1 was evicted, so it records as new again
				So(d.SeenAndRecord(ctx, "key-1"), ShouldBeFalse)
				So(d.Size(), ShouldEqual, 3)
			})
		})
	})

	Convey("Given an unbounded deduper", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))

		Convey("When many keys are recorded", func() {
			const n = 1000
			for i := 0; i < n; i++ {
				So(d.SeenAndRecord(ctx, fmt.Sprintf("key-%d", i)), ShouldBeFalse)
			}

			Convey("Then nothing is evicted", func() {
				So(d.Size(), ShouldEqual, int64(n))
			})
		})
	})
}

func TestInMemoryDeduper_Concurrency(t *testing.T) {
	Convey("Given concurrent voters", t, func() {
		d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(10_000))
		const voters = 10
		const votes = 100

		Convey("When all record distinct keys at once", func() {
			var wg sync.WaitGroup
			for i := 0; i < voters; i++ {
				wg.Add(1)
				go func(voter int) {
					defer wg.Done()
					for j := 0; j < votes; j++ {
						d.SeenAndRecord(context.Background(), fmt.Sprintf("user-%d/game-%d", voter, j))
					}
				}(i)
			}
			wg.Wait()

			Convey("Then every key is recorded exactly once", func() {
				So(d.Size(), ShouldEqual, int64(voters*votes))
			})
		})

		Convey("When all goroutines race on the same key", func() {
			var wg sync.WaitGroup
			results := make(chan bool, voters)
			for i := 0; i < voters; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					results <- d.SeenAndRecord(context.Background(), "user-x/game-contested")
				}()
			}
			wg.Wait()
			close(results)

			Convey("Then exactly one caller wins the race", func() {
				wins := 0
				for seen := range results {
					if !seen {
						wins++
					}
				}
				So(wins, ShouldEqual, 1)
			})
		})
	})
}
