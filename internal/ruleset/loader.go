package ruleset

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_ruleset.yaml
var defaultRuleset []byte

// Default returns the built-in ruleset.
func Default() *Ruleset {
	rs, err := Parse(defaultRuleset)
	if err != nil {
		panic(fmt.Sprintf("built-in ruleset is invalid: %v", err))
	}
	return rs
}

// LoadFromFile loads a ruleset from a YAML file.
func LoadFromFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ruleset file: %w", err)
	}
	return Parse(data)
}

// Load returns the built-in ruleset when path is empty and the file
// contents otherwise.
func Load(path string) (*Ruleset, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFromFile(path)
}

// Parse parses YAML bytes into a Ruleset.
func Parse(data []byte) (*Ruleset, error) {
	var r Ruleset
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing ruleset YAML: %w", err)
	}
	normalize(&r)
	if err := validate(&r); err != nil {
		return nil, fmt.Errorf("validating ruleset: %w", err)
	}
	return &r, nil
}

// normalize lower-cases every list entry and drops blank list items.
func normalize(r *Ruleset) {
	r.Lexical.BrandKeywords = lowerAll(r.Lexical.BrandKeywords)
	r.Lexical.LegitimateDomains = lowerAll(r.Lexical.LegitimateDomains)
	r.Lexical.UncommonTLDs = lowerAll(r.Lexical.UncommonTLDs)
	r.Impersonation.Dictionary = lowerAll(r.Impersonation.Dictionary)
	r.Impersonation.PopularTLDs = lowerAll(r.Impersonation.PopularTLDs)

	confusable := make(map[string][]string, len(r.Impersonation.ConfusableTLDs))
	for k, v := range r.Impersonation.ConfusableTLDs {
		confusable[strings.ToLower(k)] = lowerAll(v)
	}
	r.Impersonation.ConfusableTLDs = confusable

	// Blank lookalikes are kept so validate can reject them.
	homoglyphs := make(map[string][]string, len(r.Impersonation.Homoglyphs))
	for k, v := range r.Impersonation.Homoglyphs {
		lookalikes := make([]string, len(v))
		for i, l := range v {
			lookalikes[i] = strings.ToLower(l)
		}
		k = strings.ToLower(k)
		homoglyphs[k] = append(homoglyphs[k], lookalikes...)
	}
	r.Impersonation.Homoglyphs = homoglyphs
}

func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.ToLower(strings.TrimSpace(it))
		if it != "" {
			out = append(out, it)
		}
	}
	return out
}

// validate checks ruleset integrity.
func validate(r *Ruleset) error {
	if r.Version == "" {
		return fmt.Errorf("ruleset version is required")
	}
	if r.Name == "" {
		return fmt.Errorf("ruleset name is required")
	}
	if len(r.Lexical.BrandKeywords) == 0 {
		return fmt.Errorf("lexical.brand_keywords must not be empty")
	}
	if len(r.Impersonation.Dictionary) == 0 {
		return fmt.Errorf("impersonation.dictionary must not be empty")
	}

	for _, tld := range r.Lexical.UncommonTLDs {
		if err := checkTLD(tld); err != nil {
			return fmt.Errorf("lexical.uncommon_tlds: %w", err)
		}
	}
	for _, tld := range r.Impersonation.PopularTLDs {
		if err := checkTLD(tld); err != nil {
			return fmt.Errorf("impersonation.popular_tlds: %w", err)
		}
	}
	for base, variants := range r.Impersonation.ConfusableTLDs {
		for _, v := range variants {
			if err := checkTLD(v); err != nil {
				return fmt.Errorf("impersonation.confusable_tlds[%s]: %w", base, err)
			}
		}
	}

	for plain, lookalikes := range r.Impersonation.Homoglyphs {
		if plain == "" {
			return fmt.Errorf("impersonation.homoglyphs: empty key")
		}
		for _, l := range lookalikes {
			if l == "" {
				return fmt.Errorf("impersonation.homoglyphs[%s]: empty lookalike", plain)
			}
		}
	}

	return nil
}

func checkTLD(tld string) error {
	if strings.HasPrefix(tld, ".") {
		return fmt.Errorf("%q must not start with a dot", tld)
	}
	if strings.Contains(tld, ".") {
		return fmt.Errorf("%q must be a single label", tld)
	}
	return nil
}
