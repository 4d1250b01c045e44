// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	workerpool "github.com/okian/funnel/internal/adapters/mq/worker"
	repository "github.com/okian/funnel/internal/adapters/repository"
	service "github.com/okian/funnel/internal/app"
	"github.com/okian/funnel/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.CandidateRecord, error)
	Candidate(ctx context.Context, id string) (*model.CandidateRecord, error)
	AdvanceStage(ctx context.Context, id string, event service.StageEvent, payload *service.EventPayload) (*model.CandidateRecord, error)
	IssueToken(ctx context.Context, id string) (*model.CandidateRecord, error)
	ValidateToken(ctx context.Context, value string) (service.TokenStatus, error)
	ConsumeToken(ctx context.Context, value string) (*model.CandidateRecord, error)
	ActiveTokensAt(ctx context.Context, at time.Time) []service.ActiveToken
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	candidatesHandler *CandidatesHandler
	tokensHandler     *TokensHandler
	auditHandler      *AuditHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		candidatesHandler: NewCandidatesHandler(deps),
		tokensHandler:     NewTokensHandler(deps),
		auditHandler:      NewAuditHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/candidates", MetricsMiddleware(s.candidatesHandler.HandlePostCandidate, "candidates"))
	mux.HandleFunc("/candidates/", MetricsMiddleware(s.candidatesHandler.HandleCandidatePath, "candidates"))
	mux.HandleFunc("/interview/", MetricsMiddleware(s.tokensHandler.HandleTokenPath, "interview"))
	mux.HandleFunc("/audit/active-tokens", MetricsMiddleware(s.auditHandler.HandleActiveTokens, "audit"))
}

// tokenResponse mirrors the token portion of a candidate in API responses.
type tokenResponse struct {
	Value      string     `json:"value"`
	State      string     `json:"state"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
}

// candidateResponse mirrors the OpenAPI schema for candidate reads.
type candidateResponse struct {
	ID              string             `json:"id"`
	Email           string             `json:"email"`
	Name            string             `json:"name"`
	JobID           string             `json:"job_id,omitempty"`
	JobTitle        string             `json:"job_title,omitempty"`
	Stage           string             `json:"stage"`
	ATSScore        float64            `json:"ats_score,omitempty"`
	ExamScore       int                `json:"exam_score,omitempty"`
	ExamTotal       int                `json:"exam_total,omitempty"`
	ExamPercentage  float64            `json:"exam_percentage,omitempty"`
	InterviewScores map[string]float64 `json:"interview_scores,omitempty"`
	InterviewAt     *time.Time         `json:"interview_at,omitempty"`
	InterviewLink   string             `json:"interview_link,omitempty"`
	Token           *tokenResponse     `json:"token,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func toCandidateResponse(rec *model.CandidateRecord) candidateResponse {
	resp := candidateResponse{
		ID:              rec.ID,
		Email:           rec.Email,
		Name:            rec.Name,
		JobID:           rec.JobID,
		JobTitle:        rec.JobTitle,
		Stage:           rec.Stage.String(),
		ATSScore:        rec.ATSScore,
		ExamScore:       rec.ExamScore,
		ExamTotal:       rec.ExamTotal,
		ExamPercentage:  rec.ExamPercentage,
		InterviewScores: rec.InterviewScores,
		InterviewLink:   rec.InterviewLink,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}
	if !rec.InterviewAt.IsZero() {
		at := rec.InterviewAt
		resp.InterviewAt = &at
	}
	if rec.Token.Value != "" {
		resp.Token = &tokenResponse{
			Value:      rec.Token.Value,
			State:      rec.Token.State.String(),
			IssuedAt:   rec.Token.IssuedAt,
			ExpiresAt:  rec.Token.ExpiresAt,
			ConsumedAt: rec.Token.ConsumedAt,
		}
	}
	return resp
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service and store errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrTokenNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_started", err)
	case errors.Is(err, service.ErrTokenExpired):
		writeError(w, http.StatusGone, "token_expired", err)
	case errors.Is(err, service.ErrTokenConsumed):
		writeError(w, http.StatusGone, "token_consumed", err)
	case errors.Is(err, service.ErrTokenInvalidated):
		writeError(w, http.StatusGone, "token_invalidated", err)
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrTerminalStage),
		errors.Is(err, repository.ErrExists),
		errors.Is(err, repository.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// compile-time check that the app service satisfies the handler contract.
var (
	_ Dependencies       = (*service.Service)(nil)
	_ StatsProvider      = (*service.Service)(nil)
	_ workerpool.Tracker = (*service.Service)(nil)
)
