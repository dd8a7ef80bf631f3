package signal

import (
	"errors"
	"fmt"
	"math"
)

// Malware scanner fallback when the provider cannot answer.
const (
	MalwareFallbackScore = 75
	MalwareFallbackSafe  = true
)

// ErrNoEngines means the scanner returned a report with no engine results.
var ErrNoEngines = errors.New("scan report has no engine results")

// EngineStats is the per-verdict engine tally of a scan report.
type EngineStats struct {
	Harmless   int `json:"harmless"`
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Undetected int `json:"undetected"`
}

// MalwareVerdict is the raw metadata carried in the envelope.
type MalwareVerdict struct {
	MaliciousCount int    `json:"malicious_count"`
	TotalEngines   int    `json:"total_engines"`
	DetectionRatio string `json:"detection_ratio,omitempty"`
	Error          string `json:"error,omitempty"`
}

// ScoreMalware maps engine stats to a signal. Suspicious verdicts count as
// malicious. A report with no engines is malformed.
func ScoreMalware(s EngineStats) (Signal[MalwareVerdict], error) {
	if s.Harmless < 0 || s.Malicious < 0 || s.Suspicious < 0 || s.Undetected < 0 {
		return Signal[MalwareVerdict]{}, fmt.Errorf("negative engine count in %+v", s)
	}
	malicious := s.Malicious + s.Suspicious
	total := s.Harmless + s.Malicious + s.Suspicious + s.Undetected
	if total == 0 {
		return Signal[MalwareVerdict]{}, ErrNoEngines
	}

	score := 100 - int(math.Round(100*float64(malicious)/float64(total)))
	return Signal[MalwareVerdict]{
		Score: clamp(score),
		Safe:  malicious == 0,
		Raw: MalwareVerdict{
			MaliciousCount: malicious,
			TotalEngines:   total,
			DetectionRatio: fmt.Sprintf("%d/%d", malicious, total),
		},
	}, nil
}

// FallbackMalware is the degraded malware scanner signal.
func FallbackMalware(err error) Signal[MalwareVerdict] {
	return Signal[MalwareVerdict]{
		Score:    MalwareFallbackScore,
		Safe:     MalwareFallbackSafe,
		Degraded: true,
		Raw:      MalwareVerdict{Error: errString(err)},
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
