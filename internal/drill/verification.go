package drill

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/okian/funnel/pkg/logger"
)

// verifyResults re-reads every candidate and compares the stored stage
// against the scripted expectation.
func verifyResults(ctx context.Context, config *Config, candidates []*Candidate, stats *Stats) error {
	logger.Get().Info(ctx, "verifying candidate stages")

	client := newHTTPClient(config.Timeout)
	mismatches := 0

	for _, c := range candidates {
		if c.ID == "" {
			continue // registration never succeeded; counted as failure already
		}

		resp, err := client.Get(ctx, config.BaseURL+"/candidates/"+c.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch candidate %s: %w", c.ID, err)
		}
		if resp.StatusCode != StatusOK {
			drain(resp)
			mismatches++
			continue
		}
		var view candidateView
		if err := readJSON(resp, &view); err != nil {
			return fmt.Errorf("failed to decode candidate %s: %w", c.ID, err)
		}

		expected := c.expectedFinalStage()
		if c.FinalStage == "" {
			// Journey aborted midway; skip the stage comparison.
			continue
		}
		if view.Stage != expected {
			mismatches++
			if config.Verbose {
				logger.Get().Warn(ctx, "stage mismatch",
					logger.String("candidateID", c.ID),
					logger.String("expected", expected),
					logger.String("actual", view.Stage))
			}
		}
	}

	if mismatches > 0 {
		atomic.AddInt64(&stats.Failures, int64(mismatches))
		return fmt.Errorf("%d candidates ended in an unexpected stage", mismatches)
	}

	logger.Get().Info(ctx, "all candidate stages match the script")
	return nil
}
