package drill

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/funnel/pkg/logger"
)

// Run executes the complete pipeline drill.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting funnel pipeline drill",
		logger.String("baseURL", config.BaseURL),
		logger.Int("candidates", config.NumCandidates),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate scripted candidates
	candidates, err := generateCandidates(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("candidate generation failed: %w", err)
	}

	// Step 3: Drive candidates through the pipeline concurrently
	if err := driveCandidates(ctx, config, candidates, stats); err != nil {
		return fmt.Errorf("pipeline drive failed: %w", err)
	}

	// Step 4: Verify final stages against the script
	if err := verifyResults(ctx, config, candidates, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "drill completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	drain(resp)

	// Accept any 200 response as healthy (the endpoint serves Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// driveCandidates pushes every candidate through its scripted journey using
// a worker pool.
func driveCandidates(ctx context.Context, config *Config, candidates []*Candidate, stats *Stats) error {
	logger.Get().Info(ctx, "driving candidates through the pipeline",
		logger.Int("count", len(candidates)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)

	candidateChan := make(chan *Candidate, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range candidateChan {
				select {
				case <-ctx.Done():
					return
				default:
					if err := driveOne(ctx, client, config, c, stats); err != nil {
						atomic.AddInt64(&stats.Failures, 1)
						if config.Verbose {
							logger.Get().Warn(ctx, "candidate journey failed",
								logger.String("email", c.Email),
								logger.Error(err))
						}
					}
				}
			}
		}()
	}

	go func() {
		defer close(candidateChan)
		for _, c := range candidates {
			select {
			case <-ctx.Done():
				return
			case candidateChan <- c:
			}
		}
	}()

	wg.Wait()
	return nil
}

// driveOne walks a single candidate through registration, gates, token
// issuance, and consumption, replaying events on purpose along the way.
func driveOne(ctx context.Context, client *HTTPClient, config *Config, c *Candidate, stats *Stats) error {
	base := config.BaseURL

	// Register.
	resp, err := client.Post(ctx, base+"/candidates", c)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if resp.StatusCode != StatusCreated {
		drain(resp)
		return fmt.Errorf("register: unexpected status %d", resp.StatusCode)
	}
	var created candidateView
	if err := readJSON(resp, &created); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	c.ID = created.ID

	// ATS gate.
	view, err := advance(ctx, client, base, c.ID, map[string]any{
		"event":     "ats_scored",
		"ats_score": c.ATSScore,
	})
	if err != nil {
		return fmt.Errorf("ats gate: %w", err)
	}

	// Replay the scoring event; the stage must not move.
	replay, err := advance(ctx, client, base, c.ID, map[string]any{
		"event":     "ats_scored",
		"ats_score": c.ATSScore,
	})
	if err != nil {
		return fmt.Errorf("ats replay: %w", err)
	}
	if replay.Stage == view.Stage {
		atomic.AddInt64(&stats.ReplaysNoop, 1)
	}

	if view.Stage == "rejected" {
		atomic.AddInt64(&stats.Rejected, 1)
		c.FinalStage = view.Stage
		return nil
	}
	atomic.AddInt64(&stats.Shortlisted, 1)

	// Assessment.
	if _, err := advance(ctx, client, base, c.ID, map[string]any{
		"event": "assessment_invited",
	}); err != nil {
		return fmt.Errorf("assessment invite: %w", err)
	}
	view, err = advance(ctx, client, base, c.ID, map[string]any{
		"event":      "assessment_completed",
		"exam_score": c.ExamScore,
		"exam_total": c.ExamTotal,
	})
	if err != nil {
		return fmt.Errorf("exam gate: %w", err)
	}

	if view.Stage == "exam_failed" {
		atomic.AddInt64(&stats.ExamFailed, 1)
		c.FinalStage = view.Stage
		return nil
	}
	atomic.AddInt64(&stats.ExamPassed, 1)

	// Passing the exam gate minted a token inline.
	if view.Token == nil || view.Token.Value == "" {
		return fmt.Errorf("exam gate: no token in response")
	}
	firstToken := view.Token.Value
	atomic.AddInt64(&stats.TokensIssued, 1)

	// Reissue: the stale link must be superseded by the fresh one.
	resp, err = client.Post(ctx, base+"/candidates/"+c.ID+"/token", nil)
	if err != nil {
		return fmt.Errorf("reissue token: %w", err)
	}
	if resp.StatusCode != StatusCreated {
		drain(resp)
		return fmt.Errorf("reissue token: unexpected status %d", resp.StatusCode)
	}
	var withToken candidateView
	if err := readJSON(resp, &withToken); err != nil {
		return fmt.Errorf("reissue token: %w", err)
	}
	if withToken.Token == nil || withToken.Token.Value == "" {
		return fmt.Errorf("reissue token: empty token in response")
	}
	if withToken.Token.Value == firstToken {
		return fmt.Errorf("reissue token: value did not rotate")
	}
	c.TokenValue = withToken.Token.Value
	atomic.AddInt64(&stats.TokensIssued, 1)

	// The superseded link must answer as invalidated, not as a live token.
	resp, err = client.Get(ctx, base+"/interview/"+firstToken)
	if err != nil {
		return fmt.Errorf("stale validate: %w", err)
	}
	var stale tokenStatusView
	if err := readJSON(resp, &stale); err != nil {
		return fmt.Errorf("stale validate: %w", err)
	}
	if stale.State != "invalidated" {
		return fmt.Errorf("stale validate: expected invalidated, got %q", stale.State)
	}

	// Validate before consuming; validation is read-only and must report
	// an active token.
	resp, err = client.Get(ctx, base+"/interview/"+c.TokenValue)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if resp.StatusCode != StatusOK {
		drain(resp)
		return fmt.Errorf("validate: unexpected status %d", resp.StatusCode)
	}
	var status tokenStatusView
	if err := readJSON(resp, &status); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if status.State != "active" {
		return fmt.Errorf("validate: expected active token, got %q", status.State)
	}

	// Consume once, then try to consume again; the second attempt must be
	// refused.
	resp, err = client.Post(ctx, base+"/interview/"+c.TokenValue+"/consume", nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	if resp.StatusCode != StatusOK {
		drain(resp)
		return fmt.Errorf("consume: unexpected status %d", resp.StatusCode)
	}
	drain(resp)
	atomic.AddInt64(&stats.TokensConsumed, 1)

	resp, err = client.Post(ctx, base+"/interview/"+c.TokenValue+"/consume", nil)
	if err != nil {
		return fmt.Errorf("double consume: %w", err)
	}
	drain(resp)
	if resp.StatusCode == StatusGone {
		atomic.AddInt64(&stats.ReplayConsumeGone, 1)
	}

	c.FinalStage = "interview_consumed"
	return nil
}

// advance posts a stage event and decodes the resulting candidate view.
func advance(ctx context.Context, client *HTTPClient, base, id string, body map[string]any) (*candidateView, error) {
	resp, err := client.Post(ctx, base+"/candidates/"+id+"/advance", body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != StatusOK {
		var apiErr errorView
		_ = readJSON(resp, &apiErr)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, apiErr.Message)
	}
	var view candidateView
	if err := readJSON(resp, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// displayFinalStats prints the final drill statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("candidatesCreated", int(stats.CandidatesCreated)),
		logger.Int("shortlisted", int(stats.Shortlisted)),
		logger.Int("rejected", int(stats.Rejected)),
		logger.Int("examPassed", int(stats.ExamPassed)),
		logger.Int("examFailed", int(stats.ExamFailed)),
		logger.Int("tokensIssued", int(stats.TokensIssued)),
		logger.Int("tokensConsumed", int(stats.TokensConsumed)),
		logger.Int("replaysNoop", int(stats.ReplaysNoop)),
		logger.Int("replayConsumeGone", int(stats.ReplayConsumeGone)),
		logger.Int("failures", int(stats.Failures)),
		logger.String("duration", stats.Duration.String()))
}
