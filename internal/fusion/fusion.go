// Package fusion combines the six normalized signals into one composite
// score with a fixed weight profile.
package fusion

import "github.com/coal/linkguard/internal/signal"

// SafeThreshold is the composite score a URL must exceed to be safe.
const SafeThreshold = 70

// ProfileVersion identifies the current weight tables. Changing any weight
// means a new version.
const ProfileVersion = "2024-1"

// Profile is a weight table. Weights are percentages and sum to 100.
type Profile struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	Reputation    int    `json:"reputation"`
	Malware       int    `json:"malware_scanner"`
	Registration  int    `json:"registration"`
	Lexical       int    `json:"lexical"`
	Impersonation int    `json:"impersonation"`
	Search        int    `json:"search_presence"`
}

// ImpersonationProfile is used when the impersonation detector fires.
var ImpersonationProfile = Profile{
	Name:          "impersonation",
	Version:       ProfileVersion,
	Reputation:    15,
	Malware:       15,
	Registration:  15,
	Lexical:       15,
	Impersonation: 20,
	Search:        20,
}

// StandardProfile leaves impersonation out and leans on search presence.
var StandardProfile = Profile{
	Name:          "standard",
	Version:       ProfileVersion,
	Reputation:    20,
	Malware:       20,
	Registration:  15,
	Lexical:       15,
	Impersonation: 0,
	Search:        30,
}

// Total returns the sum of the weights.
func (p Profile) Total() int {
	return p.Reputation + p.Malware + p.Registration + p.Lexical + p.Impersonation + p.Search
}

// Result is the fused verdict.
type Result struct {
	Score   int    `json:"score"`
	IsSafe  bool   `json:"is_safe"`
	Profile string `json:"profile"`
	Version string `json:"profile_version"`
}

// IsSafe is the single safety predicate used across the module.
func IsSafe(score int) bool {
	return score > SafeThreshold
}

// SelectProfile picks the weight table. Only impersonation suspicion decides.
func SelectProfile(impersonationSuspicious bool) Profile {
	if impersonationSuspicious {
		return ImpersonationProfile
	}
	return StandardProfile
}

// Fuse computes the composite score of s.
func Fuse(s *signal.Signals) Result {
	p := SelectProfile(s.Impersonation.IsSuspicious)
	return Apply(p, Scores{
		Reputation:    s.Reputation.Score,
		Malware:       s.Malware.Score,
		Registration:  s.Registration.Score,
		Lexical:       s.Lexical.Score,
		Impersonation: s.Impersonation.Score,
		Search:        s.Search.Score,
	})
}

// Scores are the six per-signal scores, each 0-100.
type Scores struct {
	Reputation    int
	Malware       int
	Registration  int
	Lexical       int
	Impersonation int
	Search        int
}

// Apply weights sc with p. The sum is kept in integer hundredths so halves
// round up exactly.
func Apply(p Profile, sc Scores) Result {
	sum := p.Reputation*sc.Reputation +
		p.Malware*sc.Malware +
		p.Registration*sc.Registration +
		p.Lexical*sc.Lexical +
		p.Impersonation*sc.Impersonation +
		p.Search*sc.Search

	total := p.Total()
	score := 0
	if total > 0 {
		score = (sum + total/2) / total
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return Result{
		Score:   score,
		IsSafe:  IsSafe(score),
		Profile: p.Name,
		Version: p.Version,
	}
}
