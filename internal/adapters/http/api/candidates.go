// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	service "github.com/okian/funnel/internal/app"
)

// CandidatesHandler handles candidate registration, reads, and stage events.
type CandidatesHandler struct {
	deps Dependencies
}

// NewCandidatesHandler creates a new candidates handler.
func NewCandidatesHandler(deps Dependencies) *CandidatesHandler {
	return &CandidatesHandler{deps: deps}
}

// registerRequest mirrors the OpenAPI schema for POST /candidates.
type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	JobID    string `json:"job_id"`
	JobTitle string `json:"job_title"`
}

// advanceRequest mirrors the OpenAPI schema for POST /candidates/{id}/advance.
type advanceRequest struct {
	Event            string             `json:"event"`
	ATSScore         *float64           `json:"ats_score,omitempty"`
	ExamScore        *int               `json:"exam_score,omitempty"`
	ExamTotal        *int               `json:"exam_total,omitempty"`
	TimeTakenSeconds *int               `json:"time_taken_seconds,omitempty"`
	InterviewScores  map[string]float64 `json:"interview_scores,omitempty"`
}

// HandlePostCandidate handles POST /candidates requests.
func (h *CandidatesHandler) HandlePostCandidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_candidate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		JobID:    req.JobID,
		JobTitle: req.JobTitle,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCandidateResponse(rec))
}

// HandleCandidatePath routes requests under /candidates/{id}[/...].
func (h *CandidatesHandler) HandleCandidatePath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/candidates/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	id, action, _ := strings.Cut(path, "/")
	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleGetCandidate(w, r, id)
	case action == "advance" && r.Method == http.MethodPost:
		h.handleAdvance(w, r, id)
	case action == "token" && r.Method == http.MethodPost:
		h.handleIssueToken(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *CandidatesHandler) handleGetCandidate(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.deps.Candidate(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateResponse(rec))
}

func (h *CandidatesHandler) handleAdvance(w http.ResponseWriter, r *http.Request, id string) {
	const op = "api.advance_stage"
	var req advanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Event) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	payload := &service.EventPayload{
		ATSScore:        req.ATSScore,
		ExamScore:       req.ExamScore,
		ExamTotal:       req.ExamTotal,
		InterviewScores: req.InterviewScores,
	}
	if req.TimeTakenSeconds != nil {
		d := time.Duration(*req.TimeTakenSeconds) * time.Second
		payload.ExamTimeTaken = &d
	}

	rec, err := h.deps.AdvanceStage(r.Context(), id, service.StageEvent(req.Event), payload)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateResponse(rec))
}

func (h *CandidatesHandler) handleIssueToken(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.deps.IssueToken(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCandidateResponse(rec))
}
