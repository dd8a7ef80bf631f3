package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/coal/linkguard/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

var (
	configFile  string
	rulesetFile string
	logLevel    string

	v      *viper.Viper
	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "linkguard",
	Short: "LinkGuard: phishing URL risk scoring",
	Long: `LinkGuard scores a URL for phishing risk.
It combines local lexical and impersonation heuristics with threat
reputation, malware scanning, domain registration and search presence
lookups into a single 0-100 score with a plain-language explanation.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Path to config file (default ./linkguard.yaml if present)")
	pf.StringVar(&rulesetFile, "ruleset", "", "Path to ruleset YAML file (default: built-in ruleset)")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(testCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("linkguard v%s\n", Version)
	},
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	var err error
	v, err = config.NewViper(configFile)
	if err != nil {
		return err
	}
	for key, name := range map[string]string{
		"ruleset":   "ruleset",
		"log.level": "log-level",
	} {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}
	bindCommandFlags(cmd)

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}
	logger = newLogger(cmd.ErrOrStderr(), cfg)
	return nil
}

// bindCommandFlags lets subcommand flags override config keys of the same
// meaning.
func bindCommandFlags(cmd *cobra.Command) {
	for key, name := range map[string]string{
		"server.listen":     "listen",
		"audit.path":        "audit-log",
		"collector.timeout": "timeout",
	} {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

func newLogger(w io.Writer, c *config.Config) zerolog.Logger {
	if c.Log.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(c.Level()).
		With().Timestamp().Str("component", "linkguard").Logger()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
