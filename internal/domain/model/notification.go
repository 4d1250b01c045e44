package model

import "time"

// NotificationKind distinguishes the outbound messages the orchestrator can
// trigger.
type NotificationKind string

const (
	NotifyAssessmentInvite NotificationKind = "assessment_invite"
	NotifyInterviewInvite  NotificationKind = "interview_invite"
	NotifyRejection        NotificationKind = "rejection"
)

// Notification is the payload flowing through the dispatch queue. It carries
// everything a Notifier needs so workers never read the candidate store on
// the happy path.
type Notification struct {
	ID          string
	CandidateID string
	Kind        NotificationKind
	Email       string
	Name        string
	JobTitle    string
	Link        string
	InterviewAt time.Time
	EnqueuedAt  time.Time
}

// Key returns the idempotency key guarding duplicate sends. One notification
// of each kind per candidate; a retried transition reuses the same key.
func (n Notification) Key() string {
	return n.CandidateID + "/" + string(n.Kind)
}
