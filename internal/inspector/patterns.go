package inspector

import (
	"regexp"
	"strings"
)

// PatternSet holds compiled regex patterns for a specific category.
type PatternSet struct {
	Name     string
	Patterns []*regexp.Regexp
}

// compile is a helper that compiles a list of regex strings into a PatternSet.
// Panics on invalid patterns (they are compile-time constants).
func compile(name string, patterns []string) PatternSet {
	ps := PatternSet{Name: name, Patterns: make([]*regexp.Regexp, len(patterns))}
	for i, p := range patterns {
		ps.Patterns[i] = regexp.MustCompile(p)
	}
	return ps
}

// compileKeywords builds a case-insensitive alternation of literal keywords.
func compileKeywords(name string, keywords []string) PatternSet {
	if len(keywords) == 0 {
		return PatternSet{Name: name}
	}
	quoted := make([]string, len(keywords))
	for i, k := range keywords {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return compile(name, []string{`(?i)(` + strings.Join(quoted, "|") + `)`})
}

// MatchAny returns true if any pattern in the set matches the text.
func (ps *PatternSet) MatchAny(text string) bool {
	for _, p := range ps.Patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// FindAll returns all unique matches across all patterns.
func (ps *PatternSet) FindAll(text string) []string {
	seen := make(map[string]struct{})
	var results []string
	for _, p := range ps.Patterns {
		matches := p.FindAllString(text, -1)
		for _, m := range matches {
			m = strings.ToLower(m)
			if _, ok := seen[m]; !ok {
				seen[m] = struct{}{}
				results = append(results, m)
			}
		}
	}
	return results
}

// RandomLabelPatterns matches a whole label made of 15+ lowercase
// alphanumerics, the shape of generated hostnames.
var RandomLabelPatterns = compile("random_label", []string{
	`^[a-z0-9]{15,}$`,
})

// SpecialCharPatterns matches any character outside [a-z0-9-]. Hosts are
// lower-cased before inspection, so upper-case letters never reach it.
var SpecialCharPatterns = compile("special_chars", []string{
	`[^a-z0-9-]`,
})

// hasRepeatedRun reports whether any rune occurs n or more times in a row.
// RE2 has no back-references, so this is a scan instead of a pattern.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for i, r := range s {
		if i > 0 && r == prev {
			run++
		} else {
			run = 1
		}
		if run >= n {
			return true
		}
		prev = r
	}
	return false
}

// countDigits counts ASCII digits.
func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}
