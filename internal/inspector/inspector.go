package inspector

import (
	"strings"
	"unicode/utf8"

	"github.com/coal/linkguard/internal/ruleset"
	"github.com/coal/linkguard/internal/target"
)

// HostMetadata holds everything the heuristic analyzers extract from a host.
type HostMetadata struct {
	Host          string                `json:"host"`
	Lexical       LexicalFindings       `json:"lexical"`
	Impersonation ImpersonationFindings `json:"impersonation"`
}

// LexicalFindings is the output of the URL pattern analyzer.
type LexicalFindings struct {
	LongSubdomain         bool     `json:"long_subdomain"`
	TooManySubdomains     bool     `json:"too_many_subdomains"`
	ExcessDigits          bool     `json:"excess_digits"`
	BrandKeywordCollision bool     `json:"brand_keyword_collision"`
	RandomLookingLabel    bool     `json:"random_looking_label"`
	ExcessiveDashes       bool     `json:"excessive_dashes"`
	RepeatedCharacterRun  bool     `json:"repeated_character_run"`
	UncommonTLD           bool     `json:"uncommon_tld"`
	MatchedKeywords       []string `json:"matched_keywords,omitempty"`
	HitCount              int      `json:"hit_count"`
	Score                 int      `json:"score"`
	IsSuspicious          bool     `json:"is_suspicious"`
}

func (f *LexicalFindings) flags() []bool {
	return []bool{
		f.LongSubdomain,
		f.TooManySubdomains,
		f.ExcessDigits,
		f.BrandKeywordCollision,
		f.RandomLookingLabel,
		f.ExcessiveDashes,
		f.RepeatedCharacterRun,
		f.UncommonTLD,
	}
}

// ImpersonationFindings is the output of the impersonation detector.
type ImpersonationFindings struct {
	Label                     string `json:"label"`
	TLD                       string `json:"tld"`
	HasRepeatedChars          bool   `json:"has_repeated_chars"`
	HasDigits                 bool   `json:"has_digits"`
	HasDashCluster            bool   `json:"has_dash_cluster"`
	HasNonASCIIOrSpecialChars bool   `json:"has_non_ascii_or_special_chars"`
	HasHomoglyphSubstitution  bool   `json:"has_homoglyph_substitution"`
	HomoglyphMatch            string `json:"homoglyph_match,omitempty"`
	HasConfusableTLD          bool   `json:"has_confusable_tld"`
	IsUnusuallyLong           bool   `json:"is_unusually_long"`
	WeightedHitCount          int    `json:"weighted_hit_count"`
	Score                     int    `json:"score"`
	IsSuspicious              bool   `json:"is_suspicious"`
}

// Inspector runs the lexical and impersonation heuristics. It is immutable
// after New and safe for concurrent use.
type Inspector struct {
	brandKeywords  PatternSet
	legitimate     map[string]struct{}
	uncommonTLDs   map[string]struct{}
	dictionary     map[string]struct{}
	words          []string
	homoglyphs     homoglyphTable
	popularTLDs    map[string]struct{}
	confusableTLDs map[string]struct{}
}

// New creates an Inspector from a ruleset. A nil ruleset means the
// built-in one.
func New(rs *ruleset.Ruleset) *Inspector {
	if rs == nil {
		rs = ruleset.Default()
	}
	return &Inspector{
		brandKeywords:  compileKeywords("brand_keywords", rs.Lexical.BrandKeywords),
		legitimate:     rs.LegitimateDomainSet(),
		uncommonTLDs:   rs.UncommonTLDSet(),
		dictionary:     rs.DictionarySet(),
		words:          rs.Impersonation.Dictionary,
		homoglyphs:     newHomoglyphTable(rs.Impersonation.Homoglyphs),
		popularTLDs:    rs.PopularTLDSet(),
		confusableTLDs: rs.ConfusableTLDSet(),
	}
}

// Inspect runs both analyzers on t.
func (ins *Inspector) Inspect(t target.Target) *HostMetadata {
	return &HostMetadata{
		Host:          t.Host,
		Lexical:       ins.Lexical(t),
		Impersonation: ins.Impersonation(t),
	}
}

// Lexical runs the eight URL pattern checks.
func (ins *Inspector) Lexical(t target.Target) LexicalFindings {
	host := t.Host
	labels := t.Labels()

	var f LexicalFindings
	for _, l := range labels {
		if utf8.RuneCountInString(l) > 20 {
			f.LongSubdomain = true
		}
	}
	f.TooManySubdomains = len(labels) > 5
	f.ExcessDigits = countDigits(host) > 8

	if _, ok := ins.legitimate[host]; !ok {
		f.MatchedKeywords = ins.brandKeywords.FindAll(host)
		f.BrandKeywordCollision = len(f.MatchedKeywords) > 0
	}

	for _, l := range labels[:len(labels)-1] {
		if RandomLabelPatterns.MatchAny(l) {
			f.RandomLookingLabel = true
		}
	}
	f.ExcessiveDashes = strings.Count(host, "-") > 3
	// A leading www is a convention, not a run.
	f.RepeatedCharacterRun = hasRepeatedRun(strings.TrimPrefix(host, "www."), 3)

	if len(labels) > 1 {
		_, f.UncommonTLD = ins.uncommonTLDs[labels[len(labels)-1]]
	}

	for _, hit := range f.flags() {
		if hit {
			f.HitCount++
		}
	}
	f.Score = RatioScore(f.HitCount, LexicalCheckCount)
	f.IsSuspicious = f.HitCount >= LexicalSuspiciousHits
	return f
}

// Impersonation inspects the second-level label and the TLD for signs of
// brand impersonation.
func (ins *Inspector) Impersonation(t target.Target) ImpersonationFindings {
	label, tld := splitLabel(t.Labels())
	length := utf8.RuneCountInString(label)

	f := ImpersonationFindings{
		Label:                     label,
		TLD:                       tld,
		HasRepeatedChars:          hasRepeatedRun(label, 3),
		HasDigits:                 countDigits(label) > 3 && length > 8,
		HasDashCluster:            strings.Contains(label, "-") && len(strings.Split(label, "-")) >= 4,
		HasNonASCIIOrSpecialChars: SpecialCharPatterns.MatchAny(label),
		IsUnusuallyLong:           length > 20,
	}

	if word, ok := ins.homoglyphs.match(label, ins.dictionary); ok {
		f.HasHomoglyphSubstitution = true
		f.HomoglyphMatch = word
	} else if word, ok := confusableWord(label, ins.words); ok {
		f.HasHomoglyphSubstitution = true
		f.HomoglyphMatch = word
	}

	if tld != "" {
		if _, popular := ins.popularTLDs[tld]; !popular {
			_, f.HasConfusableTLD = ins.confusableTLDs[tld]
		}
	}

	f.WeightedHitCount = WeightedHits(ImpersonationSignals{
		HasRepeatedChars:          f.HasRepeatedChars,
		HasDigits:                 f.HasDigits,
		HasDashCluster:            f.HasDashCluster,
		HasNonASCIIOrSpecialChars: f.HasNonASCIIOrSpecialChars,
		HasHomoglyphSubstitution:  f.HasHomoglyphSubstitution,
		HasConfusableTLD:          f.HasConfusableTLD,
		IsUnusuallyLong:           f.IsUnusuallyLong,
	})
	f.Score = RatioScore(f.WeightedHitCount, ImpersonationWeightTotal)
	f.IsSuspicious = f.WeightedHitCount >= ImpersonationSuspiciousWeight
	return f
}

// splitLabel returns the second-to-last label and the last one. A single
// label host has no TLD.
func splitLabel(parts []string) (label, tld string) {
	if len(parts) > 1 {
		return parts[len(parts)-2], parts[len(parts)-1]
	}
	return parts[0], ""
}
