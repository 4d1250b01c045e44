// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"
)

// AuditHandler answers point-in-time token audit queries.
type AuditHandler struct {
	deps Dependencies
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(deps Dependencies) *AuditHandler {
	return &AuditHandler{deps: deps}
}

// activeTokenResponse is one row of GET /audit/active-tokens.
type activeTokenResponse struct {
	CandidateID string    `json:"candidate_id"`
	Email       string    `json:"email"`
	TokenValue  string    `json:"token_value"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	InterviewAt time.Time `json:"interview_at"`
}

type activeTokensResponse struct {
	At     time.Time             `json:"at"`
	Count  int                   `json:"count"`
	Tokens []activeTokenResponse `json:"tokens"`
}

// HandleActiveTokens handles GET /audit/active-tokens?at=RFC3339 requests.
// Omitting at audits the present moment.
func (h *AuditHandler) HandleActiveTokens(w http.ResponseWriter, r *http.Request) {
	const op = "api.active_tokens"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	at := time.Now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		at = parsed
	}

	active := h.deps.ActiveTokensAt(r.Context(), at)
	tokens := make([]activeTokenResponse, 0, len(active))
	for _, tok := range active {
		tokens = append(tokens, activeTokenResponse{
			CandidateID: tok.CandidateID,
			Email:       tok.Email,
			TokenValue:  tok.TokenValue,
			IssuedAt:    tok.IssuedAt,
			ExpiresAt:   tok.ExpiresAt,
			InterviewAt: tok.InterviewAt,
		})
	}
	writeJSON(w, http.StatusOK, activeTokensResponse{At: at, Count: len(tokens), Tokens: tokens})
}
