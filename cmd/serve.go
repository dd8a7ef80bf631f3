package cmd

import (
	"fmt"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/coal/linkguard/internal/dashboard"
	"github.com/coal/linkguard/internal/fusion"
	"github.com/coal/linkguard/internal/metrics"
	"github.com/coal/linkguard/internal/server"
)

var (
	listenAddr  string
	auditFile   string
	noDashboard bool
	timeout     time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the LinkGuard HTTP API",
	Long:  "Start the HTTP API that scores URLs posted to /api/analyze, with metrics and a live event feed.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", ":8080", "Address to listen on")
	serveCmd.Flags().StringVar(&auditFile, "audit-log", "", "Path to audit log file (default: stderr)")
	serveCmd.Flags().BoolVar(&noDashboard, "no-dashboard", false, "Disable the live event feed")
	serveCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Per-collaborator timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := ossignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.New()
	a, err := buildApp(cfg, logger, newAuditLogger(cfg), rec.ObserveCall)
	if err != nil {
		return err
	}
	defer a.Close()
	a.pipe.AddObserver(rec.ObserveEvaluation)

	opts := server.Options{
		Version: Version,
		Metrics: rec.Handler(),
	}
	dashboardOn := cfg.Server.Dashboard && !noDashboard
	if dashboardOn {
		hub := dashboard.NewHub(a.ruleset, logger)
		a.pipe.AddObserver(hub.OnEvent)
		dashboard.Run(ctx, hub)
		opts.Feed = dashboard.Handler(hub)
		opts.FeedPrefix = dashboard.Prefix
	}

	srv := server.New(a.pipe, opts, logger)
	addr := cfg.Server.Listen

	logger.Info().
		Str("listen", addr).
		Dur("collaborator_timeout", cfg.Collector.Timeout).
		Str("profile_version", fusion.ProfileVersion).
		Msg("starting linkguard api")

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "\n  LinkGuard v%s\n", Version)
	fmt.Fprintf(out, "  Ruleset: %s (%s)\n", a.ruleset.Name, a.ruleset.Version)
	fmt.Fprintf(out, "  Listen:  %s\n", addr)
	if dashboardOn {
		feedAddr := addr
		if strings.HasPrefix(feedAddr, ":") {
			feedAddr = "localhost" + feedAddr
		}
		fmt.Fprintf(out, "  Feed:    http://%s%s/\n", feedAddr, dashboard.Prefix)
	}
	fmt.Fprintln(out)

	if err := srv.ListenAndServe(ctx, addr); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	logger.Info().Msg("shut down")
	return nil
}

