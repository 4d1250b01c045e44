package scores_test

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/okian/funnel/internal/adapters/scores"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSimulatedProvider(t *testing.T) {
	Convey("Given a simulated score provider", t, func() {
		p := scores.NewSimulatedProvider(
			scores.WithLatencyRange(time.Millisecond, 2*time.Millisecond),
		)

		Convey("When fetching an ATS score", func() {
			score, err := p.ATSScore(context.Background(), "cand-1")

			Convey("Then it is in range and deterministic per candidate", func() {
				So(err, ShouldBeNil)
				So(score, ShouldBeGreaterThanOrEqualTo, 40)
				So(score, ShouldBeLessThan, 100)

				again, err := p.ATSScore(context.Background(), "cand-1")
				So(err, ShouldBeNil)
				So(again, ShouldEqual, score)
			})
		})

		Convey("When fetching an exam result", func() {
			res, err := p.ExamResult(context.Background(), "cand-1")

			Convey("Then the outcome is well-formed", func() {
				So(err, ShouldBeNil)
				So(res.TotalQuestions, ShouldEqual, 12)
				So(res.Score, ShouldBeBetweenOrEqual, 0, 12)
				So(res.TimeTaken, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When many requests hit the provider at once", func() {
			const callers = 32
			var wg sync.WaitGroup
			errs := make(chan error, callers)

			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					id := "cand-" + strconv.Itoa(n)
					if _, err := p.ATSScore(context.Background(), id); err != nil {
						errs <- err
						return
					}
					_, err := p.ExamResult(context.Background(), id)
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)

			Convey("Then every call succeeds", func() {
				for err := range errs {
					So(err, ShouldBeNil)
				}
			})
		})

		Convey("When the context is cancelled", func() {
			slow := scores.NewSimulatedProvider(
				scores.WithLatencyRange(time.Second, 2*time.Second),
			)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer cancel()

			_, err := slow.ATSScore(ctx, "cand-1")

			Convey("Then the call aborts", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
