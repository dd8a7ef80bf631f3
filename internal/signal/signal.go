// Package signal turns raw collaborator answers into uniform 0-100 scores
// and substitutes fixed fallbacks when a collaborator cannot answer.
package signal

import (
	"github.com/coal/linkguard/internal/inspector"
)

// Provider names used in logs, metrics and degraded markers.
const (
	ProviderReputation   = "reputation"
	ProviderMalware      = "malware_scanner"
	ProviderRegistration = "registration"
	ProviderSearch       = "search_presence"
)

// Signal is the normalized envelope every collaborator result is mapped to.
// When Degraded is set, Score is the provider's fallback constant.
type Signal[T any] struct {
	Score    int  `json:"score"`
	Safe     bool `json:"safe"`
	Degraded bool `json:"degraded"`
	Raw      T    `json:"raw"`
}

// External holds the four collaborator signals.
type External struct {
	Reputation   Signal[ReputationVerdict]   `json:"reputation"`
	Malware      Signal[MalwareVerdict]      `json:"malware_scanner"`
	Registration Signal[RegistrationVerdict] `json:"registration"`
	Search       Signal[SearchVerdict]       `json:"search_presence"`
}

// DegradedProviders lists the collaborators that fell back, in a fixed order.
func (e *External) DegradedProviders() []string {
	var out []string
	if e.Reputation.Degraded {
		out = append(out, ProviderReputation)
	}
	if e.Malware.Degraded {
		out = append(out, ProviderMalware)
	}
	if e.Registration.Degraded {
		out = append(out, ProviderRegistration)
	}
	if e.Search.Degraded {
		out = append(out, ProviderSearch)
	}
	return out
}

// Signals is the full set of six signals fusion and explanation consume.
type Signals struct {
	Lexical       inspector.LexicalFindings       `json:"lexical"`
	Impersonation inspector.ImpersonationFindings `json:"impersonation"`
	External
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
