package inspector

import "math"

const (
	// LexicalCheckCount is the number of equally weighted lexical checks.
	LexicalCheckCount = 8
	// LexicalSuspiciousHits is the hit count at which a host is suspicious.
	LexicalSuspiciousHits = 3

	// ImpersonationWeightTotal is the denominator of the impersonation score.
	ImpersonationWeightTotal = 6
	// ImpersonationSuspiciousWeight is the weighted count at which a host
	// is suspicious.
	ImpersonationSuspiciousWeight = 3
)

// ImpersonationWeights defines how much each impersonation signal adds to
// the weighted hit count.
var ImpersonationWeights = map[string]int{
	"repeated_chars":         1,
	"digits":                 1,
	"dash_cluster":           1,
	"special_chars":          1,
	"homoglyph_substitution": 2,
	"confusable_tld":         2,
	"unusually_long":         1,
}

// ImpersonationSignals holds the boolean signals used for the weighted count.
type ImpersonationSignals struct {
	HasRepeatedChars          bool
	HasDigits                 bool
	HasDashCluster            bool
	HasNonASCIIOrSpecialChars bool
	HasHomoglyphSubstitution  bool
	HasConfusableTLD          bool
	IsUnusuallyLong           bool
}

// WeightedHits sums the weights of the signals that fired.
func WeightedHits(s ImpersonationSignals) int {
	w := 0
	if s.HasRepeatedChars {
		w += ImpersonationWeights["repeated_chars"]
	}
	if s.HasDigits {
		w += ImpersonationWeights["digits"]
	}
	if s.HasDashCluster {
		w += ImpersonationWeights["dash_cluster"]
	}
	if s.HasNonASCIIOrSpecialChars {
		w += ImpersonationWeights["special_chars"]
	}
	if s.HasHomoglyphSubstitution {
		w += ImpersonationWeights["homoglyph_substitution"]
	}
	if s.HasConfusableTLD {
		w += ImpersonationWeights["confusable_tld"]
	}
	if s.IsUnusuallyLong {
		w += ImpersonationWeights["unusually_long"]
	}
	return w
}

// RatioScore converts hits out of total into a 0-100 score where 100 means
// nothing fired. Halves round away from zero.
func RatioScore(hits, total int) int {
	if total <= 0 {
		return 100
	}
	score := 100 - int(math.Round(100*float64(hits)/float64(total)))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
