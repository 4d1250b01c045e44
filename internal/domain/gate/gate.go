// Package gate implements the pass/fail decision points of the pipeline.
//
// Gates are pure: a score compared against a threshold, no I/O, no state.
// The tie-break rule is explicit because off-by-one threshold handling is the
// most common defect in this domain: a score exactly equal to the threshold
// passes.
package gate

import "fmt"

// Decision is the outcome of a gate evaluation.
type Decision int

const (
	Fail Decision = iota
	Pass
)

func (d Decision) String() string {
	if d == Pass {
		return "pass"
	}
	return "fail"
}

// Evaluate compares score against threshold. score >= threshold is a Pass.
func Evaluate(score, threshold float64) Decision {
	if score >= threshold {
		return Pass
	}
	return Fail
}

// Percentage converts a raw exam result into the 0-100 range the exam gate
// operates on. Returns an error for a non-positive total so a broken upstream
// payload cannot silently pass a gate via division results like +Inf.
func Percentage(score, total int) (float64, error) {
	if total <= 0 {
		return 0, fmt.Errorf("invalid exam total %d", total)
	}
	if score < 0 {
		return 0, fmt.Errorf("invalid exam score %d", score)
	}
	return float64(score) / float64(total) * 100, nil
}
