// Package explain turns the six signals into an ordered list of
// human-readable reasons.
package explain

import (
	"fmt"
	"strings"

	"github.com/coal/linkguard/internal/signal"
)

// SafeReason is the single reason given when no rule fires.
const SafeReason = "No risk indicators were found. This URL was analyzed as safe."

const (
	lexicalThreshold      = 70
	registrationThreshold = 50
)

// Rule is one explanation rule. Fire returns the reason and whether the
// rule applies.
type Rule struct {
	Name string
	Fire func(s *signal.Signals) (string, bool)
}

// Rules are evaluated in order and every rule that fires contributes one
// reason.
var Rules = []Rule{
	{Name: "lexical_patterns", Fire: lexicalRule},
	{Name: "impersonation", Fire: impersonationRule},
	{Name: "reputation_threat", Fire: reputationRule},
	{Name: "malware_detections", Fire: malwareRule},
	{Name: "registration", Fire: registrationRule},
	{Name: "search_presence", Fire: searchRule},
}

// Generate returns the reasons for s, in rule order.
func Generate(s *signal.Signals) []string {
	var reasons []string
	for _, r := range Rules {
		if msg, ok := r.Fire(s); ok {
			reasons = append(reasons, msg)
		}
	}
	if len(reasons) == 0 {
		return []string{SafeReason}
	}
	return reasons
}

// Summary renders reasons as a block of text for terminal output.
func Summary(reasons []string, safe bool) string {
	var b strings.Builder
	if safe {
		b.WriteString("This URL appears to be safe.\n")
	} else {
		b.WriteString("This URL may be unsafe for the following reasons:\n")
	}
	for _, r := range reasons {
		b.WriteString("  - ")
		b.WriteString(r)
		b.WriteByte('\n')
	}
	return b.String()
}

func lexicalRule(s *signal.Signals) (string, bool) {
	if s.Lexical.Score >= lexicalThreshold {
		return "", false
	}
	return fmt.Sprintf("URL pattern analysis found %d suspicious patterns.", s.Lexical.HitCount), true
}

func impersonationRule(s *signal.Signals) (string, bool) {
	if !s.Impersonation.IsSuspicious {
		return "", false
	}
	if w := s.Impersonation.HomoglyphMatch; w != "" {
		return fmt.Sprintf("The domain imitates %q using lookalike characters and may be impersonating a known brand.", w), true
	}
	return "The domain shows patterns typical of brand impersonation.", true
}

func reputationRule(s *signal.Signals) (string, bool) {
	threat := s.Reputation.Raw.ThreatType
	if threat == "" {
		return "", false
	}
	return fmt.Sprintf("The URL is listed as a known threat (%s).", threat), true
}

func malwareRule(s *signal.Signals) (string, bool) {
	n := s.Malware.Raw.MaliciousCount
	if n <= 0 {
		return "", false
	}
	return fmt.Sprintf("%d security engines flagged this URL as malicious.", n), true
}

func registrationRule(s *signal.Signals) (string, bool) {
	if s.Registration.Score >= registrationThreshold {
		return "", false
	}
	date := s.Registration.Raw.RegistrationDate
	if date == "" {
		date = "Unknown"
	}
	return fmt.Sprintf("The domain was registered recently or hides its registrant (registered: %s).", date), true
}

func searchRule(s *signal.Signals) (string, bool) {
	v := s.Search.Raw
	switch {
	case !v.IsInTopResults:
		return "The domain was not found in search results.", true
	case v.IsHighlySuspicious:
		return fmt.Sprintf("The domain has almost no search presence (%d results).", v.ResultCount), true
	case v.IsSuspicious:
		return fmt.Sprintf("The domain has little search presence (%d results).", v.ResultCount), true
	}
	return "", false
}
