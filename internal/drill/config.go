package drill

import "time"

// Config holds configuration for the pipeline drill
type Config struct {
	BaseURL       string        // Base URL of the service
	NumCandidates int           // Number of candidates to drive through the pipeline
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	LogFile       string        // Log file for drill output
	Verbose       bool          // Enable verbose logging
}

// Candidate is one synthetic applicant plus the scripted outcome the drill
// will feed the service.
type Candidate struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	JobID    string `json:"job_id"`
	JobTitle string `json:"job_title"`

	// Scripted scores decide which gates this candidate clears.
	ATSScore  float64 `json:"ats_score"`
	ExamScore int     `json:"exam_score"`
	ExamTotal int     `json:"exam_total"`

	// Filled in as the drill progresses.
	ID         string `json:"id,omitempty"`
	TokenValue string `json:"token_value,omitempty"`
	FinalStage string `json:"final_stage,omitempty"`
}

// candidateView mirrors the API's candidate response shape.
type candidateView struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Stage    string  `json:"stage"`
	ATSScore float64 `json:"ats_score"`
	Token    *struct {
		Value string `json:"value"`
		State string `json:"state"`
	} `json:"token"`
}

// tokenStatusView mirrors the API's token status response shape.
type tokenStatusView struct {
	State       string `json:"state"`
	CandidateID string `json:"candidate_id"`
}

// errorView mirrors the API's error response shape.
type errorView struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Stats holds drill statistics
type Stats struct {
	CandidatesCreated int64
	Shortlisted       int64
	Rejected          int64
	ExamPassed        int64
	ExamFailed        int64
	TokensIssued      int64
	TokensConsumed    int64
	ReplaysNoop       int64
	ReplayConsumeGone int64
	Failures          int64
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
