package dedupe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	dedupe "github.com/okian/funnel/internal/domain/dedupe"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInMemoryDeduper(t *testing.T) {
	Convey("Given a new InMemoryDeduper", t, func() {
		Convey("When creating a deduper with default options", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("Then it should start empty", func() {
				So(d, ShouldNotBeNil)
				So(d.Size(), ShouldEqual, 0)
			})
		})

		Convey("When recording notification keys", func() {
			d := dedupe.NewInMemoryDeduper()

			Convey("And the key is new", func() {
				seen := d.SeenAndRecord(context.Background(), "cand-1/interview_invite")

				Convey("Then it should return false and record the key", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And the key was already seen", func() {
				d.SeenAndRecord(context.Background(), "cand-1/interview_invite")
				seen := d.SeenAndRecord(context.Background(), "cand-1/interview_invite")

				Convey("Then it should return true without growing", func() {
					So(seen, ShouldBeTrue)
					So(d.Size(), ShouldEqual, 1)
				})
			})

			Convey("And different kinds for the same candidate", func() {
				d.SeenAndRecord(context.Background(), "cand-1/assessment_invite")
				seen := d.SeenAndRecord(context.Background(), "cand-1/interview_invite")

				Convey("Then they are tracked independently", func() {
					So(seen, ShouldBeFalse)
					So(d.Size(), ShouldEqual, 2)
				})
			})
		})

		Convey("When unrecording a key", func() {
			d := dedupe.NewInMemoryDeduper()
			d.SeenAndRecord(context.Background(), "cand-1/rejection")
			d.Unrecord(context.Background(), "cand-1/rejection")

			Convey("Then the key can be recorded again", func() {
				So(d.Size(), ShouldEqual, 0)
				So(d.SeenAndRecord(context.Background(), "cand-1/rejection"), ShouldBeFalse)
			})

			Convey("And unrecording an unknown key is a no-op", func() {
				d.Unrecord(context.Background(), "missing")
				So(d.Size(), ShouldEqual, 1)
			})
		})

		Convey("When the bounded guard overflows", func() {
			d := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(3))
			for i := 0; i < 5; i++ {
				d.SeenAndRecord(context.Background(), fmt.Sprintf("key-%d", i))
			}

			Convey("Then the oldest keys were evicted first", func() {
				So(d.Size(), ShouldEqual, 3)
				So(d.SeenAndRecord(context.Background(), "key-0"), ShouldBeFalse) // evicted
				So(d.SeenAndRecord(context.Background(), "key-4"), ShouldBeTrue)  // retained
			})
		})

		Convey("When hammered concurrently with the same key", func() {
			d := dedupe.NewInMemoryDeduper()
			const goroutines = 64

			var wg sync.WaitGroup
			var firstWins int64
			var mu sync.Mutex
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if !d.SeenAndRecord(context.Background(), "shared") {
						mu.Lock()
						firstWins++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one recording wins", func() {
				So(firstWins, ShouldEqual, 1)
				So(d.Size(), ShouldEqual, 1)
			})
		})
	})
}
