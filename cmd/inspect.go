package cmd

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var offline bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <url>",
	Short: "Score a single URL and show every signal",
	Long: `Run a full evaluation of the given URL and print the composite result as
JSON, followed by the explanation. With --offline only the local lexical and
impersonation heuristics run and no collaborator is contacted.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&offline, "offline", false, "Run local heuristics only")
	inspectCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-collaborator timeout")
}

func runInspect(cmd *cobra.Command, args []string) error {
	raw := args[0]
	a, err := buildApp(cfg, logger, nil, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if offline {
		meta, err := a.pipe.InspectOnly(raw)
		if err != nil {
			return err
		}
		fmt.Fprintf(errOut, "\n=== Local Heuristics ===\n\n")
		fmt.Fprintf(errOut, "URL: %q\n\n", truncate(raw, 120))
		data, _ := jsoniter.MarshalIndent(meta, "", "  ")
		fmt.Fprintf(out, "%s\n", data)

		fmt.Fprintf(errOut, "\n  Lexical:       %d/100 (%d hits, suspicious=%t)\n",
			meta.Lexical.Score, meta.Lexical.HitCount, meta.Lexical.IsSuspicious)
		fmt.Fprintf(errOut, "  Impersonation: %d/100 (weight %d, suspicious=%t)\n\n",
			meta.Impersonation.Score, meta.Impersonation.WeightedHitCount, meta.Impersonation.IsSuspicious)
		return nil
	}

	res, err := a.pipe.Evaluate(cmd.Context(), raw)
	if err != nil {
		return err
	}

	fmt.Fprintf(errOut, "\n=== URL Evaluation ===\n\n")
	fmt.Fprintf(errOut, "URL: %q\n\n", truncate(raw, 120))
	data, _ := jsoniter.MarshalIndent(res, "", "  ")
	fmt.Fprintf(out, "%s\n", data)

	fmt.Fprintf(errOut, "\n=== Verdict ===\n\n")
	fmt.Fprintf(errOut, "  Score:   %d/100 (%s)\n", res.Score, res.Verdict())
	fmt.Fprintf(errOut, "  Profile: %s\n", res.Profile)
	if res.IsDegraded() {
		fmt.Fprintf(errOut, "  Fallbacks: %v\n", res.Degraded)
	}
	fmt.Fprintf(errOut, "\n%s\n", res.Summary())

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
