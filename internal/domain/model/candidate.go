// Package model contains domain models passed between layers.
package model

import "time"

// Stage enumerates the pipeline stages a candidate moves through.
type Stage int

const (
	StageScraped Stage = iota
	StageATSScored
	StageRejected
	StageShortlisted
	StageAssessmentInvited
	StageAssessmentCompleted
	StageExamFailed
	StageExamPassed
	StageInterviewTokenIssued
	StageInterviewConsumed
	StageInterviewCompleted
)

var stageNames = map[Stage]string{
	StageScraped:              "scraped",
	StageATSScored:            "ats_scored",
	StageRejected:             "rejected",
	StageShortlisted:          "shortlisted",
	StageAssessmentInvited:    "assessment_invited",
	StageAssessmentCompleted:  "assessment_completed",
	StageExamFailed:           "exam_failed",
	StageExamPassed:           "exam_passed",
	StageInterviewTokenIssued: "interview_token_issued",
	StageInterviewConsumed:    "interview_consumed",
	StageInterviewCompleted:   "interview_completed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transitions are possible from s.
func (s Stage) Terminal() bool {
	return s == StageRejected || s == StageExamFailed || s == StageInterviewCompleted
}

// AtOrPast reports whether s has already reached target in pipeline order.
// Rejected and ExamFailed sort as terminal: once a candidate is out, every
// later gate is past as well, which is what makes re-delivered events no-ops.
func (s Stage) AtOrPast(target Stage) bool {
	if s == StageRejected || s == StageExamFailed {
		return true
	}
	return s >= target
}

// TokenState enumerates interview token states. Expiry is detected lazily
// from ExpiresAt and never stored, so Active here means "not consumed and
// not superseded".
type TokenState int

const (
	TokenStateActive TokenState = iota
	TokenStateConsumed
	TokenStateInvalidated
)

func (ts TokenState) String() string {
	switch ts {
	case TokenStateActive:
		return "active"
	case TokenStateConsumed:
		return "consumed"
	case TokenStateInvalidated:
		return "invalidated"
	default:
		return "unknown"
	}
}

// InterviewToken is a single-use credential granting access to one interview
// session. The value is opaque and derived from a CSPRNG, never from
// candidate fields or timestamps.
type InterviewToken struct {
	Value         string
	State         TokenState
	IssuedAt      time.Time
	ExpiresAt     time.Time
	ConsumedAt    *time.Time
	InvalidatedAt *time.Time
}

// ActiveAt reports whether the token granted access at instant t.
// The expiry deadline is exclusive: a token is already expired at ExpiresAt.
func (t InterviewToken) ActiveAt(at time.Time) bool {
	if t.Value == "" {
		return false
	}
	if at.Before(t.IssuedAt) || !at.Before(t.ExpiresAt) {
		return false
	}
	if t.ConsumedAt != nil && !at.Before(*t.ConsumedAt) {
		return false
	}
	if t.InvalidatedAt != nil && !at.Before(*t.InvalidatedAt) {
		return false
	}
	return true
}

// NotifyState tracks outbound notification delivery for a candidate.
// Delivery failures never roll back a committed stage transition; they are
// recorded here and retried by an external job.
type NotifyState struct {
	Pending   bool
	Attempts  int
	LastError string
	LastTried time.Time
}

// CandidateRecord is the single durable record per applicant. It is owned by
// the repository; callers always operate on snapshot copies.
type CandidateRecord struct {
	ID       string
	Email    string
	Name     string
	JobID    string
	JobTitle string

	ATSScore        float64
	ExamPercentage  float64
	ExamScore       int
	ExamTotal       int
	ExamTimeTaken   time.Duration
	InterviewScores map[string]float64

	Stage       Stage
	StageTimes  map[Stage]time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	InterviewAt time.Time

	Token         InterviewToken
	TokenHistory  []InterviewToken
	InterviewLink string

	Notify NotifyState

	// Version backs the store's optimistic concurrency check.
	Version uint64
}

// Clone returns a deep copy safe to mutate outside the store.
func (c *CandidateRecord) Clone() *CandidateRecord {
	cp := *c
	if c.StageTimes != nil {
		cp.StageTimes = make(map[Stage]time.Time, len(c.StageTimes))
		for k, v := range c.StageTimes {
			cp.StageTimes[k] = v
		}
	}
	if c.InterviewScores != nil {
		cp.InterviewScores = make(map[string]float64, len(c.InterviewScores))
		for k, v := range c.InterviewScores {
			cp.InterviewScores[k] = v
		}
	}
	if c.TokenHistory != nil {
		cp.TokenHistory = make([]InterviewToken, len(c.TokenHistory))
		copy(cp.TokenHistory, c.TokenHistory)
	}
	cp.Token = cloneToken(c.Token)
	for i := range cp.TokenHistory {
		cp.TokenHistory[i] = cloneToken(cp.TokenHistory[i])
	}
	return &cp
}

func cloneToken(t InterviewToken) InterviewToken {
	if t.ConsumedAt != nil {
		at := *t.ConsumedAt
		t.ConsumedAt = &at
	}
	if t.InvalidatedAt != nil {
		at := *t.InvalidatedAt
		t.InvalidatedAt = &at
	}
	return t
}

// SetStage records a transition and its timestamp.
func (c *CandidateRecord) SetStage(s Stage, at time.Time) {
	c.Stage = s
	if c.StageTimes == nil {
		c.StageTimes = make(map[Stage]time.Time)
	}
	c.StageTimes[s] = at
	c.UpdatedAt = at
}

// TokenByValue returns the current or a superseded token matching value.
func (c *CandidateRecord) TokenByValue(value string) (InterviewToken, bool) {
	if c.Token.Value == value && value != "" {
		return c.Token, true
	}
	for _, t := range c.TokenHistory {
		if t.Value == value {
			return t, true
		}
	}
	return InterviewToken{}, false
}
