package model_test

import (
	"testing"
	"time"

	"github.com/okian/funnel/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStageOrdering(t *testing.T) {
	Convey("Given the pipeline stage order", t, func() {
		Convey("Then later stages are at-or-past earlier ones", func() {
			So(model.StageShortlisted.AtOrPast(model.StageATSScored), ShouldBeTrue)
			So(model.StageInterviewConsumed.AtOrPast(model.StageExamPassed), ShouldBeTrue)
			So(model.StageScraped.AtOrPast(model.StageATSScored), ShouldBeFalse)
		})

		Convey("Then terminal rejection stages are past everything", func() {
			So(model.StageRejected.AtOrPast(model.StageInterviewCompleted), ShouldBeTrue)
			So(model.StageExamFailed.AtOrPast(model.StageInterviewTokenIssued), ShouldBeTrue)
		})

		Convey("Then terminal detection matches the three quiescent stages", func() {
			So(model.StageRejected.Terminal(), ShouldBeTrue)
			So(model.StageExamFailed.Terminal(), ShouldBeTrue)
			So(model.StageInterviewCompleted.Terminal(), ShouldBeTrue)
			So(model.StageExamPassed.Terminal(), ShouldBeFalse)
		})
	})
}

func TestInterviewTokenActiveAt(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := issued.Add(48 * time.Hour)

	Convey("Given an active token", t, func() {
		tok := model.InterviewToken{
			Value:     "v",
			State:     model.TokenStateActive,
			IssuedAt:  issued,
			ExpiresAt: expires,
		}

		Convey("Then it is active strictly inside its window", func() {
			So(tok.ActiveAt(issued), ShouldBeTrue)
			So(tok.ActiveAt(expires.Add(-time.Second)), ShouldBeTrue)
		})

		Convey("Then the expiry deadline is exclusive", func() {
			So(tok.ActiveAt(expires), ShouldBeFalse)
			So(tok.ActiveAt(expires.Add(time.Second)), ShouldBeFalse)
		})

		Convey("Then it was not active before issuance", func() {
			So(tok.ActiveAt(issued.Add(-time.Minute)), ShouldBeFalse)
		})

		Convey("When the token is consumed mid-window", func() {
			at := issued.Add(time.Hour)
			tok.State = model.TokenStateConsumed
			tok.ConsumedAt = &at

			Convey("Then it was active before and inactive after consumption", func() {
				So(tok.ActiveAt(issued.Add(30*time.Minute)), ShouldBeTrue)
				So(tok.ActiveAt(at), ShouldBeFalse)
			})
		})
	})
}

func TestCandidateRecordClone(t *testing.T) {
	Convey("Given a record with nested state", t, func() {
		now := time.Now()
		consumed := now.Add(time.Hour)
		rec := &model.CandidateRecord{
			ID:              "c1",
			Stage:           model.StageExamPassed,
			StageTimes:      map[model.Stage]time.Time{model.StageScraped: now},
			InterviewScores: map[string]float64{"communication": 8.5},
			Token: model.InterviewToken{
				Value:      "tok",
				ConsumedAt: &consumed,
			},
			TokenHistory: []model.InterviewToken{{Value: "old"}},
		}

		cp := rec.Clone()

		Convey("Then mutating the clone leaves the original untouched", func() {
			cp.StageTimes[model.StageShortlisted] = now
			cp.InterviewScores["coding"] = 9.0
			cp.TokenHistory[0].Value = "changed"
			*cp.Token.ConsumedAt = now

			So(len(rec.StageTimes), ShouldEqual, 1)
			So(len(rec.InterviewScores), ShouldEqual, 1)
			So(rec.TokenHistory[0].Value, ShouldEqual, "old")
			So(rec.Token.ConsumedAt.Equal(consumed), ShouldBeTrue)
		})
	})
}

func TestTokenByValue(t *testing.T) {
	Convey("Given a record with a current and a superseded token", t, func() {
		rec := &model.CandidateRecord{
			Token:        model.InterviewToken{Value: "current"},
			TokenHistory: []model.InterviewToken{{Value: "old", State: model.TokenStateInvalidated}},
		}

		Convey("Then both values resolve", func() {
			cur, ok := rec.TokenByValue("current")
			So(ok, ShouldBeTrue)
			So(cur.State, ShouldEqual, model.TokenStateActive)

			old, ok := rec.TokenByValue("old")
			So(ok, ShouldBeTrue)
			So(old.State, ShouldEqual, model.TokenStateInvalidated)
		})

		Convey("Then unknown and empty values do not resolve", func() {
			_, ok := rec.TokenByValue("nope")
			So(ok, ShouldBeFalse)
			_, ok = rec.TokenByValue("")
			So(ok, ShouldBeFalse)
		})
	})
}
