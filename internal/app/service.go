// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	notifyqueue "github.com/okian/funnel/internal/adapters/mq/queue"
	workerpool "github.com/okian/funnel/internal/adapters/mq/worker"
	"github.com/okian/funnel/internal/adapters/notify"
	repository "github.com/okian/funnel/internal/adapters/repository"
	"github.com/okian/funnel/internal/adapters/scores"
	"github.com/okian/funnel/internal/domain/dedupe"
	"github.com/okian/funnel/internal/domain/gate"
	"github.com/okian/funnel/internal/domain/model"
	"github.com/okian/funnel/internal/domain/token"
	"github.com/okian/funnel/pkg/backoff"
	"github.com/okian/funnel/pkg/logger"
	"github.com/okian/funnel/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultATSThreshold   = 70.0
	defaultExamThreshold  = 70.0
	defaultTokenTTL       = 48 * time.Hour
	defaultInterviewDelay = 72 * time.Hour
	defaultBaseURL        = "https://interviews.example.com/session"
	defaultQueueSize      = 10_000
	defaultDedupeSize     = 50_000
)

// StageEvent names an externally observed pipeline event.
type StageEvent string

const (
	EventATSScored           StageEvent = "ats_scored"
	EventAssessmentInvited   StageEvent = "assessment_invited"
	EventAssessmentCompleted StageEvent = "assessment_completed"
	EventInterviewCompleted  StageEvent = "interview_completed"
)

// RegisterInput carries the fields needed to create a candidate record.
type RegisterInput struct {
	Email    string
	Name     string
	JobID    string
	JobTitle string
}

// EventPayload carries optional data attached to a stage event. Nil fields
// fall back to the scoring provider.
type EventPayload struct {
	ATSScore        *float64
	ExamScore       *int
	ExamTotal       *int
	ExamTimeTaken   *time.Duration
	InterviewScores map[string]float64
}

// TokenStatus is the read-only answer to a token validation query.
type TokenStatus struct {
	State       string
	CandidateID string
	Name        string
	JobTitle    string
	InterviewAt time.Time
	ExpiresAt   time.Time
}

// ActiveToken is one row of the point-in-time audit query.
type ActiveToken struct {
	CandidateID string
	Email       string
	TokenValue  string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	InterviewAt time.Time
}

// Service orchestrates the hiring pipeline: stage transitions, token
// lifecycle, and notification dispatch.
type Service struct {
	mu sync.RWMutex

	// Core components
	store    repository.Store
	deduper  dedupe.Deduper
	queue    notifyqueue.Queue
	provider scores.Provider
	notifier workerpool.Sender
	pool     *workerpool.Pool

	// Configuration
	atsThreshold     float64
	examThreshold    float64
	tokenTTL         time.Duration
	interviewDelay   time.Duration
	interviewBaseURL string
	workerCount      int
	queueSize        int
	dedupeSize       int
	shardCount       int
	notifyAttempts   int
	notifyBackoff    time.Duration
	scoreMinLatency  time.Duration
	scoreMaxLatency  time.Duration
	examTotal        int

	// Clock is injectable so expiry behavior is testable.
	now func() time.Time

	started bool
	logger  logger.Logger
}

// New creates a service with configuration options. Call Start before use.
func New(opts ...Option) *Service {
	s := &Service{
		atsThreshold:     defaultATSThreshold,
		examThreshold:    defaultExamThreshold,
		tokenTTL:         defaultTokenTTL,
		interviewDelay:   defaultInterviewDelay,
		interviewBaseURL: defaultBaseURL,
		queueSize:        defaultQueueSize,
		dedupeSize:       defaultDedupeSize,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes all components and launches the delivery workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting funnel service...")

	if s.store == nil {
		storeOpts := []repository.Option{}
		if s.shardCount > 0 {
			storeOpts = append(storeOpts, repository.WithShardCount(s.shardCount))
		}
		s.store = repository.NewMemStore(ctx, storeOpts...)
	}
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = notifyqueue.NewInMemoryQueue(
		notifyqueue.WithCapacity(s.queueSize),
	)
	if s.provider == nil {
		providerOpts := []scores.Option{}
		if s.scoreMinLatency > 0 && s.scoreMaxLatency > s.scoreMinLatency {
			providerOpts = append(providerOpts, scores.WithLatencyRange(s.scoreMinLatency, s.scoreMaxLatency))
		}
		if s.examTotal > 0 {
			providerOpts = append(providerOpts, scores.WithExamTotal(s.examTotal))
		}
		s.provider = scores.NewSimulatedProvider(providerOpts...)
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier()
	}

	retryOpts := []backoff.Option{
		backoff.WithOnRetry(func(attempt int, err error) {
			metrics.RecordNotificationRetry()
		}),
	}
	if s.notifyAttempts > 0 {
		retryOpts = append(retryOpts, backoff.WithMaxAttempts(s.notifyAttempts))
	}
	if s.notifyBackoff > 0 {
		retryOpts = append(retryOpts, backoff.WithBaseDelay(s.notifyBackoff))
	}
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.notifier, s,
		workerpool.WithRetryPolicy(backoff.New(retryOpts...)),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "funnel service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service. The notification queue is closed
// first so workers drain what is already enqueued.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping funnel service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(context.Background()); err != nil {
			s.logger.Warn(context.Background(), "worker pool shutdown incomplete", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "funnel service stopped")
}

// ready gates the entry points on Start having wired the components.
func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Register creates a new candidate record in the scraped stage.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.CandidateRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	now := s.now()
	rec := &model.CandidateRecord{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(in.Name),
		JobID:     in.JobID,
		JobTitle:  in.JobTitle,
		CreatedAt: now,
	}
	rec.SetStage(model.StageScraped, now)

	if err := s.store.Create(ctx, rec); err != nil {
		return nil, err
	}

	metrics.RecordCandidateRegistered()
	s.logger.Info(ctx, "candidate registered",
		logger.String("candidateID", rec.ID),
		logger.String("jobID", rec.JobID),
	)
	return rec, nil
}

// Candidate returns a snapshot of the candidate record.
func (s *Service) Candidate(ctx context.Context, id string) (*model.CandidateRecord, error) {
	return s.store.Get(ctx, id)
}

// AdvanceStage applies one pipeline event to a candidate. Events that would
// re-enter a stage the candidate already passed are no-ops: the committed
// record is returned unchanged. Events that skip ahead fail with
// ErrInvalidTransition.
func (s *Service) AdvanceStage(ctx context.Context, id string, event StageEvent, payload *EventPayload) (*model.CandidateRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	switch event {
	case EventATSScored:
		return s.applyATSScore(ctx, id, payload)
	case EventAssessmentInvited:
		return s.applyAssessmentInvite(ctx, id)
	case EventAssessmentCompleted:
		return s.applyExamResult(ctx, id, payload)
	case EventInterviewCompleted:
		return s.applyInterviewResult(ctx, id, payload)
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidInput, event)
	}
}

// applyATSScore records the resume score and applies the shortlist gate. A
// pass dispatches the assessment invitation right away; the explicit
// assessment_invited event only moves the stage.
func (s *Service) applyATSScore(ctx context.Context, id string, payload *EventPayload) (*model.CandidateRecord, error) {
	// Fetch the score before entering the atomic update. Mutations must not
	// perform I/O.
	var score float64
	if payload != nil && payload.ATSScore != nil {
		score = *payload.ATSScore
	} else {
		fetched, err := s.provider.ATSScore(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("ats score lookup failed: %w", err)
		}
		score = fetched
	}
	if score < 0 || score > 100 {
		return nil, fmt.Errorf("%w: ats score %v out of range", ErrInvalidInput, score)
	}

	decision := gate.Evaluate(score, s.atsThreshold)
	noop := false

	rec, err := s.store.AtomicUpdate(ctx, id, func(rec *model.CandidateRecord) error {
		if rec.Stage.AtOrPast(model.StageShortlisted) {
			noop = true
			return repository.ErrUnchanged
		}
		if rec.Stage != model.StageScraped {
			return fmt.Errorf("%w: ats_scored in stage %s", ErrInvalidTransition, rec.Stage)
		}
		now := s.now()
		rec.ATSScore = score
		rec.SetStage(model.StageATSScored, now)
		if decision == gate.Pass {
			rec.SetStage(model.StageShortlisted, now)
		} else {
			rec.SetStage(model.StageRejected, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noop {
		metrics.RecordStageNoop()
		return rec, nil
	}

	metrics.RecordGateDecision("ats", decision.String())
	metrics.RecordStageTransition(rec.Stage.String())
	s.logger.Info(ctx, "ats gate decided",
		logger.String("candidateID", id),
		logger.String("decision", decision.String()),
		logger.String("stage", rec.Stage.String()),
	)

	if decision == gate.Pass {
		s.enqueueNotification(ctx, rec, model.NotifyAssessmentInvite, "")
	} else {
		s.enqueueNotification(ctx, rec, model.NotifyRejection, "")
	}
	return rec, nil
}

// applyAssessmentInvite moves a shortlisted candidate to the invited stage.
// The invitation itself went out on the shortlist decision; the deduper
// swallows the duplicate enqueued here.
func (s *Service) applyAssessmentInvite(ctx context.Context, id string) (*model.CandidateRecord, error) {
	noop := false

	rec, err := s.store.AtomicUpdate(ctx, id, func(rec *model.CandidateRecord) error {
		if rec.Stage.AtOrPast(model.StageAssessmentInvited) {
			noop = true
			return repository.ErrUnchanged
		}
		if rec.Stage != model.StageShortlisted {
			return fmt.Errorf("%w: assessment_invited in stage %s", ErrInvalidTransition, rec.Stage)
		}
		rec.SetStage(model.StageAssessmentInvited, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noop {
		metrics.RecordStageNoop()
		return rec, nil
	}

	metrics.RecordStageTransition(rec.Stage.String())
	s.enqueueNotification(ctx, rec, model.NotifyAssessmentInvite, "")
	return rec, nil
}

// applyExamResult records the assessment outcome and applies the exam gate.
// Passing the gate mints the interview token in the same commit: the
// candidate lands at InterviewTokenIssued with a scheduled slot and a link.
func (s *Service) applyExamResult(ctx context.Context, id string, payload *EventPayload) (*model.CandidateRecord, error) {
	var result scores.ExamResult
	if payload != nil && payload.ExamScore != nil && payload.ExamTotal != nil {
		result = scores.ExamResult{
			Score:          *payload.ExamScore,
			TotalQuestions: *payload.ExamTotal,
		}
		if payload.ExamTimeTaken != nil {
			result.TimeTaken = *payload.ExamTimeTaken
		}
	} else {
		fetched, err := s.provider.ExamResult(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("exam result lookup failed: %w", err)
		}
		result = fetched
	}

	percentage, err := gate.Percentage(result.Score, result.TotalQuestions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	decision := gate.Evaluate(percentage, s.examThreshold)

	// Mint the value up front; the mutation must stay free of I/O and rng.
	value, err := token.NewValue()
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %w", err)
	}
	noop := false

	rec, err := s.store.AtomicUpdate(ctx, id, func(rec *model.CandidateRecord) error {
		if rec.Stage.AtOrPast(model.StageExamPassed) {
			noop = true
			return repository.ErrUnchanged
		}
		if rec.Stage != model.StageAssessmentInvited {
			return fmt.Errorf("%w: assessment_completed in stage %s", ErrInvalidTransition, rec.Stage)
		}
		now := s.now()
		rec.ExamScore = result.Score
		rec.ExamTotal = result.TotalQuestions
		rec.ExamTimeTaken = result.TimeTaken
		rec.ExamPercentage = percentage
		rec.SetStage(model.StageAssessmentCompleted, now)
		if decision == gate.Pass {
			rec.SetStage(model.StageExamPassed, now)
			rec.Token = model.InterviewToken{
				Value:     value,
				State:     model.TokenStateActive,
				IssuedAt:  now,
				ExpiresAt: now.Add(s.tokenTTL),
			}
			rec.InterviewAt = now.Add(s.interviewDelay)
			rec.InterviewLink = s.interviewBaseURL + "/" + value
			rec.SetStage(model.StageInterviewTokenIssued, now)
		} else {
			rec.SetStage(model.StageExamFailed, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noop {
		metrics.RecordStageNoop()
		return rec, nil
	}

	metrics.RecordGateDecision("exam", decision.String())
	metrics.RecordStageTransition(rec.Stage.String())
	s.logger.Info(ctx, "exam gate decided",
		logger.String("candidateID", id),
		logger.String("decision", decision.String()),
		logger.Float64("percentage", percentage),
	)

	if decision == gate.Fail {
		s.enqueueNotification(ctx, rec, model.NotifyRejection, "")
		return rec, nil
	}

	metrics.RecordTokenIssued()
	s.enqueueNotification(ctx, rec, model.NotifyInterviewInvite, rec.InterviewLink)
	return rec, nil
}

// applyInterviewResult closes the pipeline after a consumed interview.
func (s *Service) applyInterviewResult(ctx context.Context, id string, payload *EventPayload) (*model.CandidateRecord, error) {
	noop := false

	rec, err := s.store.AtomicUpdate(ctx, id, func(rec *model.CandidateRecord) error {
		if rec.Stage.AtOrPast(model.StageInterviewCompleted) {
			noop = true
			return repository.ErrUnchanged
		}
		if rec.Stage != model.StageInterviewConsumed {
			return fmt.Errorf("%w: interview_completed in stage %s", ErrInvalidTransition, rec.Stage)
		}
		if payload != nil && len(payload.InterviewScores) > 0 {
			if rec.InterviewScores == nil {
				rec.InterviewScores = make(map[string]float64, len(payload.InterviewScores))
			}
			for k, v := range payload.InterviewScores {
				rec.InterviewScores[k] = v
			}
		}
		rec.SetStage(model.StageInterviewCompleted, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if noop {
		metrics.RecordStageNoop()
		return rec, nil
	}

	metrics.RecordStageTransition(rec.Stage.String())
	return rec, nil
}

// IssueToken mints a fresh single-use interview token. The first token is
// normally minted by the exam gate itself, so this is the reissue path:
// the previous token moves to the history as Invalidated and exactly one
// token per candidate stays active.
func (s *Service) IssueToken(ctx context.Context, id string) (*model.CandidateRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	value, err := token.NewValue()
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %w", err)
	}

	reissued := false
	rec, err := s.store.AtomicUpdate(ctx, id, func(rec *model.CandidateRecord) error {
		if rec.Stage.Terminal() {
			return fmt.Errorf("%w: %s", ErrTerminalStage, rec.Stage)
		}
		if rec.Stage != model.StageExamPassed && rec.Stage != model.StageInterviewTokenIssued {
			return fmt.Errorf("%w: issue token in stage %s", ErrInvalidTransition, rec.Stage)
		}
		now := s.now()
		if rec.Token.Value != "" {
			prev := rec.Token
			prev.State = model.TokenStateInvalidated
			at := now
			prev.InvalidatedAt = &at
			rec.TokenHistory = append(rec.TokenHistory, prev)
			reissued = true
		}
		rec.Token = model.InterviewToken{
			Value:     value,
			State:     model.TokenStateActive,
			IssuedAt:  now,
			ExpiresAt: now.Add(s.tokenTTL),
		}
		rec.InterviewAt = now.Add(s.interviewDelay)
		rec.InterviewLink = s.interviewBaseURL + "/" + value
		if rec.Stage == model.StageExamPassed {
			rec.SetStage(model.StageInterviewTokenIssued, now)
		} else {
			rec.UpdatedAt = now
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTokenIssued()
	if reissued {
		metrics.RecordTokenInvalidated()
		// A reissue carries a new link; release the idempotency key so the
		// fresh invitation goes out.
		s.deduper.Unrecord(ctx, rec.ID+"/"+string(model.NotifyInterviewInvite))
	} else {
		metrics.RecordStageTransition(rec.Stage.String())
	}
	s.logger.Info(ctx, "interview token issued",
		logger.String("candidateID", id),
		logger.Bool("reissued", reissued),
		logger.Time("expiresAt", rec.Token.ExpiresAt),
	)

	s.enqueueNotification(ctx, rec, model.NotifyInterviewInvite, rec.InterviewLink)
	return rec, nil
}

// ValidateToken answers a read-only status query for a token value. It never
// mutates state: probing a link does not burn it.
func (s *Service) ValidateToken(ctx context.Context, value string) (TokenStatus, error) {
	if err := s.ready(); err != nil {
		return TokenStatus{}, err
	}
	rec, tok, err := s.resolveToken(ctx, value)
	if err != nil {
		return TokenStatus{}, err
	}

	status := TokenStatus{
		CandidateID: rec.ID,
		Name:        rec.Name,
		JobTitle:    rec.JobTitle,
		InterviewAt: rec.InterviewAt,
		ExpiresAt:   tok.ExpiresAt,
	}
	switch {
	case tok.State == model.TokenStateConsumed:
		status.State = "consumed"
	case tok.State == model.TokenStateInvalidated:
		status.State = "invalidated"
	case !s.now().Before(tok.ExpiresAt):
		status.State = "expired"
	default:
		status.State = "active"
	}
	if status.State != "active" {
		metrics.RecordTokenRejection("validate", status.State)
	}
	return status, nil
}

// ConsumeToken atomically burns a token and records the interview as
// underway. Exactly one concurrent caller wins; everyone else learns the
// token was already consumed.
func (s *Service) ConsumeToken(ctx context.Context, value string) (*model.CandidateRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	candidateID, err := s.store.FindByToken(ctx, value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordTokenRejection("consume", "not_found")
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	rec, err := s.store.AtomicUpdate(ctx, candidateID, func(rec *model.CandidateRecord) error {
		tok, ok := rec.TokenByValue(value)
		if !ok {
			return ErrTokenNotFound
		}
		switch {
		case tok.State == model.TokenStateConsumed:
			return ErrTokenConsumed
		case tok.State == model.TokenStateInvalidated:
			return ErrTokenInvalidated
		}
		now := s.now()
		if !now.Before(tok.ExpiresAt) {
			return ErrTokenExpired
		}
		at := now
		rec.Token.State = model.TokenStateConsumed
		rec.Token.ConsumedAt = &at
		rec.SetStage(model.StageInterviewConsumed, now)
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenConsumed):
			metrics.RecordTokenRejection("consume", "already_consumed")
		case errors.Is(err, ErrTokenInvalidated):
			metrics.RecordTokenRejection("consume", "invalidated")
		case errors.Is(err, ErrTokenExpired):
			metrics.RecordTokenRejection("consume", "expired")
		case errors.Is(err, ErrTokenNotFound):
			metrics.RecordTokenRejection("consume", "not_found")
		}
		return nil, err
	}

	metrics.RecordTokenConsumed()
	metrics.RecordStageTransition(rec.Stage.String())
	s.logger.Info(ctx, "interview token consumed",
		logger.String("candidateID", rec.ID),
	)
	return rec, nil
}

// ActiveTokensAt reports every token that granted access at the given
// instant. Superseded and consumed tokens count for the sub-window in which
// they were still live.
func (s *Service) ActiveTokensAt(ctx context.Context, at time.Time) []ActiveToken {
	if s.ready() != nil {
		return nil
	}
	var out []ActiveToken
	s.store.ForEach(ctx, func(rec *model.CandidateRecord) bool {
		for _, tok := range append(rec.TokenHistory, rec.Token) {
			if tok.ActiveAt(at) {
				out = append(out, ActiveToken{
					CandidateID: rec.ID,
					Email:       rec.Email,
					TokenValue:  tok.Value,
					IssuedAt:    tok.IssuedAt,
					ExpiresAt:   tok.ExpiresAt,
					InterviewAt: rec.InterviewAt,
				})
			}
		}
		return true
	})
	return out
}

// resolveToken maps a token value to its owning record and the exact token
// generation that carries the value.
func (s *Service) resolveToken(ctx context.Context, value string) (*model.CandidateRecord, model.InterviewToken, error) {
	candidateID, err := s.store.FindByToken(ctx, value)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordTokenRejection("validate", "not_found")
			return nil, model.InterviewToken{}, ErrTokenNotFound
		}
		return nil, model.InterviewToken{}, err
	}
	rec, err := s.store.Get(ctx, candidateID)
	if err != nil {
		return nil, model.InterviewToken{}, err
	}
	tok, ok := rec.TokenByValue(value)
	if !ok {
		return nil, model.InterviewToken{}, ErrTokenNotFound
	}
	return rec, tok, nil
}

// TrackDelivery records a notification delivery outcome on the candidate
// record. It implements the worker pool's Tracker interface. A failed
// delivery never rolls back the stage transition that triggered it.
func (s *Service) TrackDelivery(ctx context.Context, candidateID string, attempts int, deliveryErr error) error {
	_, err := s.store.AtomicUpdate(ctx, candidateID, func(rec *model.CandidateRecord) error {
		rec.Notify.Attempts += attempts
		rec.Notify.LastTried = s.now()
		if deliveryErr != nil {
			rec.Notify.Pending = true
			rec.Notify.LastError = deliveryErr.Error()
		} else {
			rec.Notify.Pending = false
			rec.Notify.LastError = ""
		}
		return nil
	})
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	if s.store == nil {
		return map[string]interface{}{"started": started}
	}

	ctx := context.Background()
	byStage := s.store.CountByStage(ctx)
	stages := make(map[string]int, len(byStage))
	for stage, count := range byStage {
		stages[stage.String()] = count
	}
	return map[string]interface{}{
		"started":             started,
		"candidates":          s.store.Count(ctx),
		"candidates_by_stage": stages,
		"notify_queue_size":   s.queue.Len(ctx),
		"dedupe_size":         s.deduper.Size(),
	}
}

// enqueueNotification builds and queues an outbound message, guarded by the
// idempotency cache. Runs after the owning stage transition committed.
func (s *Service) enqueueNotification(ctx context.Context, rec *model.CandidateRecord, kind model.NotificationKind, link string) {
	n := model.Notification{
		ID:          uuid.NewString(),
		CandidateID: rec.ID,
		Kind:        kind,
		Email:       rec.Email,
		Name:        rec.Name,
		JobTitle:    rec.JobTitle,
		Link:        link,
		InterviewAt: rec.InterviewAt,
		EnqueuedAt:  s.now(),
	}

	if s.deduper.SeenAndRecord(ctx, n.Key()) {
		metrics.RecordNotificationDuplicate()
		return
	}
	if !s.queue.Enqueue(ctx, n) {
		// Release the key so a later retry of the triggering event can
		// enqueue again.
		s.deduper.Unrecord(ctx, n.Key())
		s.logger.Warn(ctx, "notification queue full, dropping",
			logger.String("candidateID", rec.ID),
			logger.String("kind", string(kind)),
		)
	}
}
