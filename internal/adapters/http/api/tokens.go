// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
	"time"
)

// TokensHandler handles interview token validation and consumption.
type TokensHandler struct {
	deps Dependencies
}

// NewTokensHandler creates a new tokens handler.
func NewTokensHandler(deps Dependencies) *TokensHandler {
	return &TokensHandler{deps: deps}
}

// tokenStatusResponse mirrors the OpenAPI schema for GET /interview/{token}.
type tokenStatusResponse struct {
	State       string    `json:"state"`
	CandidateID string    `json:"candidate_id"`
	Name        string    `json:"name,omitempty"`
	JobTitle    string    `json:"job_title,omitempty"`
	InterviewAt time.Time `json:"interview_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// HandleTokenPath routes requests under /interview/{token}[/consume].
func (h *TokensHandler) HandleTokenPath(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/interview/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	value, action, _ := strings.Cut(path, "/")
	switch {
	case action == "" && r.Method == http.MethodGet:
		h.handleValidate(w, r, value)
	case action == "consume" && r.Method == http.MethodPost:
		h.handleConsume(w, r, value)
	default:
		http.NotFound(w, r)
	}
}

// handleValidate answers a read-only status probe. Opening the link never
// burns the token.
func (h *TokensHandler) handleValidate(w http.ResponseWriter, r *http.Request, value string) {
	status, err := h.deps.ValidateToken(r.Context(), value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenStatusResponse{
		State:       status.State,
		CandidateID: status.CandidateID,
		Name:        status.Name,
		JobTitle:    status.JobTitle,
		InterviewAt: status.InterviewAt,
		ExpiresAt:   status.ExpiresAt,
	})
}

func (h *TokensHandler) handleConsume(w http.ResponseWriter, r *http.Request, value string) {
	rec, err := h.deps.ConsumeToken(r.Context(), value)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCandidateResponse(rec))
}
