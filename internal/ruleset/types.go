package ruleset

// Ruleset holds every list the heuristic analyzers consult. It is loaded
// from YAML so the lists can grow without a code change.
type Ruleset struct {
	Version       string             `yaml:"version" json:"version"`
	Name          string             `yaml:"name" json:"name"`
	Lexical       LexicalRules       `yaml:"lexical" json:"lexical"`
	Impersonation ImpersonationRules `yaml:"impersonation" json:"impersonation"`
}

// LexicalRules configures the URL pattern analyzer.
type LexicalRules struct {
	// BrandKeywords are alternated into one case-insensitive pattern.
	BrandKeywords     []string `yaml:"brand_keywords" json:"brand_keywords"`
	// LegitimateDomains are exact hosts exempt from the keyword check.
	LegitimateDomains []string `yaml:"legitimate_domains" json:"legitimate_domains"`
	UncommonTLDs      []string `yaml:"uncommon_tlds" json:"uncommon_tlds"`
}

// ImpersonationRules configures the impersonation detector.
type ImpersonationRules struct {
	Dictionary     []string            `yaml:"dictionary" json:"dictionary"`
	// Homoglyphs maps a plain character sequence to its lookalikes.
	// The detector applies it in both directions.
	Homoglyphs     map[string][]string `yaml:"homoglyphs" json:"homoglyphs"`
	PopularTLDs    []string            `yaml:"popular_tlds" json:"popular_tlds"`
	ConfusableTLDs map[string][]string `yaml:"confusable_tlds" json:"confusable_tlds"`
}

// LegitimateDomainSet returns the allow list as a set.
func (r *Ruleset) LegitimateDomainSet() map[string]struct{} {
	return toSet(r.Lexical.LegitimateDomains)
}

// UncommonTLDSet returns the uncommon TLD list as a set.
func (r *Ruleset) UncommonTLDSet() map[string]struct{} {
	return toSet(r.Lexical.UncommonTLDs)
}

// DictionarySet returns the common-word dictionary as a set.
func (r *Ruleset) DictionarySet() map[string]struct{} {
	return toSet(r.Impersonation.Dictionary)
}

// PopularTLDSet returns the popular TLD list as a set.
func (r *Ruleset) PopularTLDSet() map[string]struct{} {
	return toSet(r.Impersonation.PopularTLDs)
}

// ConfusableTLDSet flattens every confusable variant into one set.
func (r *Ruleset) ConfusableTLDSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, variants := range r.Impersonation.ConfusableTLDs {
		for _, v := range variants {
			set[v] = struct{}{}
		}
	}
	return set
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}
