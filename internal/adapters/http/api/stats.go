// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"time"
)

// StatsProvider exposes the pipeline counters served on GET /stats.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves a point-in-time snapshot of the funnel counters.
type StatsHandler struct {
	provider StatsProvider
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider}
}

// statsResponse stamps the counters with the time the snapshot was taken,
// so scraped samples can be ordered.
type statsResponse struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Pipeline    map[string]interface{} `json:"pipeline"`
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		GeneratedAt: time.Now().UTC(),
		Pipeline:    h.provider.GetStats(),
	})
}
