package cmd

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/coal/linkguard/internal/audit"
	"github.com/coal/linkguard/internal/config"
	"github.com/coal/linkguard/internal/inspector"
	"github.com/coal/linkguard/internal/pipeline"
	"github.com/coal/linkguard/internal/providers"
	"github.com/coal/linkguard/internal/ruleset"
	"github.com/coal/linkguard/internal/signal"
)

// app is everything a command needs to evaluate URLs.
type app struct {
	ruleset *ruleset.Ruleset
	pipe    *pipeline.Pipeline
	audit   *audit.Logger
}

func (a *app) Close() error {
	return a.audit.Close()
}

// buildApp wires the ruleset, collaborator clients and audit sink from c.
// observe, when set, is told about every collaborator call.
func buildApp(c *config.Config, log zerolog.Logger, auditLog *audit.Logger, observe signal.CallObserver) (*app, error) {
	rs, err := ruleset.Load(c.Ruleset)
	if err != nil {
		return nil, fmt.Errorf("loading ruleset: %w", err)
	}
	log.Info().
		Str("ruleset", rs.Name).
		Str("version", rs.Version).
		Int("keywords", len(rs.Lexical.BrandKeywords)).
		Int("dictionary", len(rs.Impersonation.Dictionary)).
		Msg("ruleset loaded")

	opts := []signal.Option{
		signal.WithTimeout(c.Collector.Timeout),
		signal.WithLogger(log.With().Str("component", "collector").Logger()),
	}
	if observe != nil {
		opts = append(opts, signal.WithCallObserver(observe))
	}
	col := signal.NewCollector(buildSources(c, log), opts...)

	if auditLog == nil {
		auditLog = audit.NopLogger()
	}
	return &app{
		ruleset: rs,
		pipe:    pipeline.New(inspector.New(rs), col, auditLog, log),
		audit:   auditLog,
	}, nil
}

// buildSources creates a client for every collaborator that has an API key.
// The others stay nil and degrade without a network call.
func buildSources(c *config.Config, log zerolog.Logger) signal.Sources {
	httpClient := providers.NewHTTPClient(c.Collector.Timeout)
	pc := func(p config.ProviderConfig) providers.Config {
		return providers.Config{
			APIKey:     p.APIKey,
			BaseURL:    p.BaseURL,
			RateLimit:  p.RateLimit,
			HTTPClient: httpClient,
			UserAgent:  c.Collector.UserAgent,
			Logger:     log,
		}
	}

	var src signal.Sources
	p := c.Providers
	if p.SafeBrowsing.APIKey != "" {
		src.Reputation = providers.NewSafeBrowsing(pc(p.SafeBrowsing), "linkguard", Version)
	}
	if p.VirusTotal.APIKey != "" {
		src.Malware = providers.NewVirusTotal(pc(p.VirusTotal))
	}
	if p.Whois.APIKey != "" {
		src.Registration = providers.NewWhoisXML(pc(p.Whois))
	}
	if p.Search.APIKey != "" {
		src.Search = providers.NewCustomSearch(pc(p.Search.ProviderConfig), p.Search.EngineID)
	}

	configured := 0
	for _, ok := range []bool{src.Reputation != nil, src.Malware != nil, src.Registration != nil, src.Search != nil} {
		if ok {
			configured++
		}
	}
	if configured < 4 {
		log.Warn().Int("configured", configured).Msg("some collaborators have no API key and will use fallback scores")
	}
	return src
}

func newAuditLogger(c *config.Config) *audit.Logger {
	if c.Audit.Path == "" {
		return audit.NewStderrLogger()
	}
	return audit.NewFileLogger(c.Audit.Path, audit.Rotation{
		MaxSizeMB:  c.Audit.MaxSizeMB,
		MaxBackups: c.Audit.MaxBackups,
		MaxAgeDays: c.Audit.MaxAgeDays,
		Compress:   c.Audit.Compress,
	})
}
