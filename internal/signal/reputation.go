package signal

// Reputation fallback when the provider cannot answer.
const (
	ReputationFallbackScore = 80
	ReputationFallbackSafe  = true
)

// Threat categories reported by the reputation provider.
const (
	ThreatMalware                       = "MALWARE"
	ThreatSocialEngineering             = "SOCIAL_ENGINEERING"
	ThreatUnwantedSoftware              = "UNWANTED_SOFTWARE"
	ThreatPotentiallyHarmfulApplication = "POTENTIALLY_HARMFUL_APPLICATION"
)

var threatScores = map[string]int{
	ThreatMalware:                       10,
	ThreatSocialEngineering:             20,
	ThreatUnwantedSoftware:              30,
	ThreatPotentiallyHarmfulApplication: 40,
}

const unknownThreatScore = 50

// ReputationMatch is what a reputation source returns.
type ReputationMatch struct {
	Matched    bool
	ThreatType string
}

// ReputationVerdict is the raw metadata carried in the envelope.
type ReputationVerdict struct {
	ThreatType string `json:"threat_type,omitempty"`
	Error      string `json:"error,omitempty"`
}

// ScoreReputation maps a reputation lookup to a signal.
func ScoreReputation(m ReputationMatch) Signal[ReputationVerdict] {
	if !m.Matched {
		return Signal[ReputationVerdict]{Score: 100, Safe: true}
	}
	score, ok := threatScores[m.ThreatType]
	if !ok {
		score = unknownThreatScore
	}
	threat := m.ThreatType
	if threat == "" {
		threat = "UNKNOWN"
	}
	return Signal[ReputationVerdict]{
		Score: score,
		Safe:  false,
		Raw:   ReputationVerdict{ThreatType: threat},
	}
}

// FallbackReputation is the degraded reputation signal.
func FallbackReputation(err error) Signal[ReputationVerdict] {
	return Signal[ReputationVerdict]{
		Score:    ReputationFallbackScore,
		Safe:     ReputationFallbackSafe,
		Degraded: true,
		Raw:      ReputationVerdict{Error: errString(err)},
	}
}
