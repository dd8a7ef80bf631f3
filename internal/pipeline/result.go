package pipeline

import (
	"time"

	"github.com/coal/linkguard/internal/explain"
	"github.com/coal/linkguard/internal/signal"
)

// CompositeResult captures the full verdict for a single URL. It is built
// once per evaluation and not modified afterwards.
type CompositeResult struct {
	RequestID      string         `json:"request_id"`
	URL            string         `json:"url"`
	Host           string         `json:"host"`
	IsSafe         bool           `json:"is_safe"`
	Score          int            `json:"score"`
	Profile        string         `json:"profile"`
	ProfileVersion string         `json:"profile_version"`
	Signals        signal.Signals `json:"signals"`
	Explanation    []string       `json:"explanation"`
	Degraded       []string       `json:"degraded,omitempty"`
	EvaluatedAt    time.Time      `json:"evaluated_at"`
}

// IsDegraded returns true if any collaborator fell back.
func (r *CompositeResult) IsDegraded() bool {
	return len(r.Degraded) > 0
}

// FullyDegraded returns true if no collaborator produced a live answer.
func (r *CompositeResult) FullyDegraded() bool {
	return len(r.Degraded) == 4
}

// Verdict returns the top-level verdict string.
func (r *CompositeResult) Verdict() string {
	if r.IsSafe {
		return "SAFE"
	}
	return "SUSPICIOUS"
}

// Summary renders the explanation with its header.
func (r *CompositeResult) Summary() string {
	return explain.Summary(r.Explanation, r.IsSafe)
}
