package drill

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"

	"github.com/okian/funnel/pkg/logger"
)

// Name pools for synthetic candidates.
var (
	firstNames = []string{
		"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Ken",
		"Dennis", "Leslie", "Margaret", "Tim", "Linus", "Rob", "Brian",
	}
	lastNames = []string{
		"Lovelace", "Hopper", "Turing", "Dijkstra", "Liskov", "Knuth",
		"Thompson", "Ritchie", "Lamport", "Hamilton", "Lee", "Torvalds",
	}
	jobTitles = []string{
		"Senior Go Engineer", "Platform Engineer", "Site Reliability Engineer",
		"Backend Engineer", "Infrastructure Engineer",
	}
)

// generateCandidates builds scripted candidates whose scores fan out across
// the gate thresholds: roughly a quarter fail the ATS gate, a quarter fail
// the exam, and the rest go all the way to token consumption.
func generateCandidates(ctx context.Context, config *Config, stats *Stats) ([]*Candidate, error) {
	if config.NumCandidates <= 0 {
		return nil, fmt.Errorf("candidate count must be positive, got %d", config.NumCandidates)
	}

	logger.Get().Info(ctx, "generating candidates",
		logger.Int("count", config.NumCandidates))

	candidates := make([]*Candidate, 0, config.NumCandidates)
	for i := 0; i < config.NumCandidates; i++ {
		id := uuid.NewString()
		h := hashOf(id)

		c := &Candidate{
			Email:    fmt.Sprintf("drill-%s@example.com", id[:8]),
			Name:     firstNames[h%uint64(len(firstNames))] + " " + lastNames[(h>>8)%uint64(len(lastNames))],
			JobID:    fmt.Sprintf("job-%d", h%5),
			JobTitle: jobTitles[h%uint64(len(jobTitles))],
		}

		// Script the outcome by quartile.
		switch i % 4 {
		case 0:
			// ATS rejection
			c.ATSScore = 40 + float64(h%30) // 40..69
			c.ExamScore = 0
			c.ExamTotal = ExamTotal
		case 1:
			// Exam failure
			c.ATSScore = ATSThreshold + float64(h%30) // 70..99
			c.ExamScore = int(h % uint64(ExamTotal*7/10))
			c.ExamTotal = ExamTotal
		default:
			// Full pass, token consumed
			c.ATSScore = ATSThreshold + float64(h%30)
			c.ExamScore = ExamTotal*7/10 + 1 + int(h%uint64(ExamTotal-ExamTotal*7/10-1))
			c.ExamTotal = ExamTotal
		}
		candidates = append(candidates, c)
	}

	stats.CandidatesCreated = int64(len(candidates))
	logger.Get().Info(ctx, "candidates generated",
		logger.Int("count", len(candidates)))
	return candidates, nil
}

// expectedFinalStage predicts where the drill should leave a candidate.
func (c *Candidate) expectedFinalStage() string {
	if c.ATSScore < ATSThreshold {
		return "rejected"
	}
	if float64(c.ExamScore)/float64(c.ExamTotal)*100 < ExamThreshold {
		return "exam_failed"
	}
	return "interview_consumed"
}

func hashOf(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
