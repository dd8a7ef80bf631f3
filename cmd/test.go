package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run built-in URLs against the local heuristics",
	Long:  "Run a suite of phishing-like and legitimate URLs through the lexical and impersonation heuristics to verify the ruleset.",
	RunE:  runTest,
}

type testCase struct {
	name     string
	url      string
	expected string // "CLEAN" or "SUSPICIOUS"
}

var testCases = []testCase{
	// Should be flagged, lexical
	{
		name:     "lexical_brand_keywords",
		url:      "https://secure-paypal-login-verify-now.xyz",
		expected: "SUSPICIOUS",
	},
	{
		name:     "lexical_random_label",
		url:      "https://qwhzkxmvbnrtplkjhgfdsazxc.top",
		expected: "SUSPICIOUS",
	},

	// Should be flagged, impersonation
	{
		name:     "homoglyph_confusable_tld",
		url:      "https://micros0ft.cm",
		expected: "SUSPICIOUS",
	},
	{
		name:     "idn_homograph",
		url:      "https://xn--micrsoft-qbh.com",
		expected: "SUSPICIOUS",
	},
	{
		name:     "structural_lookalike",
		url:      "https://secure1234-account-update-verify-center.com",
		expected: "SUSPICIOUS",
	},

	// Should be clean
	{
		name:     "legit_google",
		url:      "https://www.google.com",
		expected: "CLEAN",
	},
	{
		name:     "legit_example",
		url:      "https://www.example.com/path",
		expected: "CLEAN",
	},
}

func runTest(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfg, logger, nil, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "\n=== LinkGuard Heuristic Tests ===\n")
	fmt.Fprintf(out, "Ruleset: %s (%s)\n\n", a.ruleset.Name, a.ruleset.Version)

	passed := 0
	failed := 0

	for _, tc := range testCases {
		meta, err := a.pipe.InspectOnly(tc.url)
		actual := "ERROR"
		if err == nil {
			actual = "CLEAN"
			if meta.Lexical.IsSuspicious || meta.Impersonation.IsSuspicious {
				actual = "SUSPICIOUS"
			}
		}

		status := "PASS"
		if actual != tc.expected {
			status = "FAIL"
			failed++
		} else {
			passed++
		}

		fmt.Fprintf(out, "  [%s] %-28s expected=%-10s got=%-10s",
			status, tc.name, tc.expected, actual)
		if err == nil {
			fmt.Fprintf(out, " lexical=%d impersonation=%d", meta.Lexical.Score, meta.Impersonation.Score)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "\n  Results: %d passed, %d failed, %d total\n\n",
		passed, failed, len(testCases))

	if failed > 0 {
		return fmt.Errorf("%d test(s) failed", failed)
	}
	return nil
}
