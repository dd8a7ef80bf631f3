package inspector

import (
	"testing"

	"github.com/coal/linkguard/internal/ruleset"
	"github.com/coal/linkguard/internal/target"
)

func mustTarget(t testing.TB, raw string) target.Target {
	t.Helper()
	tgt, err := target.Normalize(raw)
	if err != nil {
		t.Fatalf("normalize %q: %v", raw, err)
	}
	return tgt
}

func TestLexical_LegitimateHost(t *testing.T) {
	ins := New(nil)
	f := ins.Lexical(mustTarget(t, "https://www.google.com"))

	for i, hit := range f.flags() {
		if hit {
			t.Errorf("expected flag %d to be false for www.google.com", i)
		}
	}
	if f.Score != 100 {
		t.Errorf("expected score 100, got %d", f.Score)
	}
	if f.IsSuspicious {
		t.Error("expected www.google.com not to be suspicious")
	}
}

func TestLexical_KeywordAndUncommonTLD(t *testing.T) {
	ins := New(nil)
	f := ins.Lexical(mustTarget(t, "https://paypa1-login-verify.xyz/account"))

	if !f.BrandKeywordCollision {
		t.Error("expected brand keyword collision")
	}
	if !f.UncommonTLD {
		t.Error("expected uncommon TLD")
	}
	if f.ExcessiveDashes {
		t.Error("two dashes should not count as excessive")
	}
	if f.HitCount != 2 {
		t.Errorf("expected 2 hits, got %d", f.HitCount)
	}
	if f.Score != 75 {
		t.Errorf("expected score 75, got %d", f.Score)
	}
	if len(f.MatchedKeywords) != 2 || f.MatchedKeywords[0] != "login" || f.MatchedKeywords[1] != "verify" {
		t.Errorf("unexpected matched keywords: %v", f.MatchedKeywords)
	}
}

func TestLexical_Suspicious(t *testing.T) {
	ins := New(nil)
	f := ins.Lexical(mustTarget(t, "https://secure-paypal-login-verify-now.xyz"))

	if !f.BrandKeywordCollision || !f.ExcessiveDashes || !f.UncommonTLD || !f.LongSubdomain {
		t.Errorf("unexpected flags: %+v", f)
	}
	if f.HitCount != 4 {
		t.Errorf("expected 4 hits, got %d", f.HitCount)
	}
	if !f.IsSuspicious {
		t.Error("expected suspicious")
	}
	if f.Score != 50 {
		t.Errorf("expected score 50, got %d", f.Score)
	}
}

func TestLexical_RandomLabel(t *testing.T) {
	ins := New(nil)
	f := ins.Lexical(mustTarget(t, "https://qwhzkxmvbnrtplkjhgfdsazxc.top"))

	if !f.LongSubdomain {
		t.Error("expected long subdomain")
	}
	if !f.RandomLookingLabel {
		t.Error("expected random-looking label")
	}
	if !f.UncommonTLD {
		t.Error("expected uncommon TLD")
	}
	if f.HitCount != 3 {
		t.Errorf("expected 3 hits, got %d", f.HitCount)
	}
	if f.Score > 62 {
		t.Errorf("expected score <= 62, got %d", f.Score)
	}
	if !f.IsSuspicious {
		t.Error("expected suspicious")
	}
}

func TestLexical_IndividualChecks(t *testing.T) {
	ins := New(nil)

	tests := []struct {
		url   string
		check func(LexicalFindings) bool
		name  string
	}{
		{"https://a.b.c.d.e.example.com", func(f LexicalFindings) bool { return f.TooManySubdomains }, "too many subdomains"},
		{"https://123456789.example.com", func(f LexicalFindings) bool { return f.ExcessDigits }, "excess digits"},
		{"https://a-b-c-d-e.example.com", func(f LexicalFindings) bool { return f.ExcessiveDashes }, "excessive dashes"},
		{"https://gooogle.com", func(f LexicalFindings) bool { return f.RepeatedCharacterRun }, "repeated run"},
		{"https://abcdefghij12345.example.com", func(f LexicalFindings) bool { return f.RandomLookingLabel }, "random label"},
	}

	for _, tt := range tests {
		f := ins.Lexical(mustTarget(t, tt.url))
		if !tt.check(f) {
			t.Errorf("expected %s for %s", tt.name, tt.url)
		}
	}
}

func TestLexical_ScoreMonotonic(t *testing.T) {
	prev := 101
	for hits := 0; hits <= LexicalCheckCount; hits++ {
		score := RatioScore(hits, LexicalCheckCount)
		if score >= prev {
			t.Errorf("score for %d hits (%d) is not below score for %d hits (%d)", hits, score, hits-1, prev)
		}
		prev = score
	}
}

func TestImpersonation_Legitimate(t *testing.T) {
	ins := New(nil)
	f := ins.Impersonation(mustTarget(t, "https://www.google.com"))

	if f.Label != "google" || f.TLD != "com" {
		t.Errorf("unexpected split %q/%q", f.Label, f.TLD)
	}
	if f.WeightedHitCount != 0 {
		t.Errorf("expected no hits, got %d: %+v", f.WeightedHitCount, f)
	}
	if f.Score != 100 {
		t.Errorf("expected score 100, got %d", f.Score)
	}
}

func TestImpersonation_Homoglyphs(t *testing.T) {
	ins := New(nil)

	tests := []struct {
		url  string
		word string
	}{
		{"https://micros0ft.com", "microsoft"},
		{"https://gooqle.com", "google"},
		{"https://g0ogle.com", "google"},
		{"https://arnazon.com", "amazon"},
		{"https://faceb0ok.com/login", "facebook"},
		{"https://netf1ix.net", "netflix"},
	}

	for _, tt := range tests {
		f := ins.Impersonation(mustTarget(t, tt.url))
		if !f.HasHomoglyphSubstitution {
			t.Errorf("expected homoglyph substitution for %s", tt.url)
			continue
		}
		if f.HomoglyphMatch != tt.word {
			t.Errorf("%s: matched %q, want %q", tt.url, f.HomoglyphMatch, tt.word)
		}
		if f.WeightedHitCount < 2 {
			t.Errorf("%s: expected weighted hits >= 2, got %d", tt.url, f.WeightedHitCount)
		}
	}
}

func TestImpersonation_EdgePositionsIgnored(t *testing.T) {
	ins := New(nil)

	// A lookalike touching the first or last position is not a substitution,
	// whether it is one character or a sequence.
	for _, raw := range []string{
		"https://qoogle.com",
		"https://googl3.com",
		"https://rnicrosoft.com",
		"https://rnail.com",
		"https://vvalmart.com",
		"https://xn--pple-43d.com", // Cyrillic a in first position
	} {
		f := ins.Impersonation(mustTarget(t, raw))
		if f.HasHomoglyphSubstitution {
			t.Errorf("unexpected homoglyph match %q for %s", f.HomoglyphMatch, raw)
		}
	}
}

func TestImpersonation_HomoglyphWithConfusableTLD(t *testing.T) {
	ins := New(nil)
	f := ins.Impersonation(mustTarget(t, "https://micros0ft.cm"))

	if !f.HasHomoglyphSubstitution || !f.HasConfusableTLD {
		t.Fatalf("expected homoglyph and confusable TLD: %+v", f)
	}
	if f.WeightedHitCount != 4 {
		t.Errorf("expected weighted hits 4, got %d", f.WeightedHitCount)
	}
	if !f.IsSuspicious {
		t.Error("expected suspicious")
	}
	if f.Score != 33 {
		t.Errorf("expected score 33, got %d", f.Score)
	}
}

func TestImpersonation_CustomRulesetMixedCase(t *testing.T) {
	rs, err := ruleset.Parse([]byte(`
version: "1"
name: custom
lexical:
  brand_keywords: [bank]
impersonation:
  dictionary: [Contoso]
  homoglyphs:
    O: ["0"]
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	f := New(rs).Impersonation(mustTarget(t, "https://cont0so.com"))
	if !f.HasHomoglyphSubstitution || f.HomoglyphMatch != "contoso" {
		t.Errorf("expected homoglyph match with contoso, got %+v", f)
	}
}

func TestImpersonation_IDNHomograph(t *testing.T) {
	ins := New(nil)
	// micrоsoft with a Cyrillic o
	f := ins.Impersonation(mustTarget(t, "https://xn--micrsoft-qbh.com"))

	if !f.HasNonASCIIOrSpecialChars {
		t.Error("expected non-ASCII label to count as special characters")
	}
	if !f.HasHomoglyphSubstitution || f.HomoglyphMatch != "microsoft" {
		t.Errorf("expected confusable match with microsoft, got %+v", f)
	}
	if !f.IsSuspicious {
		t.Error("expected suspicious")
	}
}

func TestImpersonation_ConfusableTLD(t *testing.T) {
	ins := New(nil)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.cm", true},
		{"https://example.con", true},
		{"https://example.g0v", true},
		{"https://example.co", false}, // popular TLDs never flag
		{"https://example.com", false},
		{"https://example.xyz", false},
		{"http://localhost", false},
	}

	for _, tt := range tests {
		f := ins.Impersonation(mustTarget(t, tt.url))
		if f.HasConfusableTLD != tt.want {
			t.Errorf("%s: confusable TLD = %v, want %v", tt.url, f.HasConfusableTLD, tt.want)
		}
	}
}

func TestImpersonation_Structural(t *testing.T) {
	ins := New(nil)
	f := ins.Impersonation(mustTarget(t, "https://secure1234-account-update-verify-center.com"))

	if !f.HasDigits {
		t.Error("expected digits signal")
	}
	if !f.HasDashCluster {
		t.Error("expected dash cluster signal")
	}
	if !f.IsUnusuallyLong {
		t.Error("expected unusually long signal")
	}
	if f.WeightedHitCount != 3 || !f.IsSuspicious {
		t.Errorf("expected 3 weighted hits and suspicious, got %d", f.WeightedHitCount)
	}
	if f.Score != 50 {
		t.Errorf("expected score 50, got %d", f.Score)
	}
}

func TestImpersonation_ScoreFloor(t *testing.T) {
	if got := RatioScore(9, ImpersonationWeightTotal); got != 0 {
		t.Errorf("expected score to clamp at 0, got %d", got)
	}
}

func TestInspect_Deterministic(t *testing.T) {
	ins := New(nil)
	tgt := mustTarget(t, "https://micros0ft-support.xyz")

	first := ins.Inspect(tgt)
	for i := 0; i < 20; i++ {
		next := ins.Inspect(tgt)
		if next.Impersonation != first.Impersonation {
			t.Fatalf("impersonation findings changed between runs: %+v vs %+v", first.Impersonation, next.Impersonation)
		}
		if next.Lexical.Score != first.Lexical.Score || next.Lexical.HitCount != first.Lexical.HitCount {
			t.Fatalf("lexical findings changed between runs")
		}
	}
}

func TestHasRepeatedRun(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"aaa", true},
		{"abcccd", true},
		{"aabbcc", false},
		{"", false},
		{"ооо", true},
	}
	for _, tt := range tests {
		if got := hasRepeatedRun(tt.s, 3); got != tt.want {
			t.Errorf("hasRepeatedRun(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func BenchmarkInspect(b *testing.B) {
	ins := New(nil)
	tgt := mustTarget(b, "https://secure-paypa1-login.account-verify.xyz/signin")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ins.Inspect(tgt)
	}
}
