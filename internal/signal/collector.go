package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/coal/linkguard/internal/target"
)

// DefaultTimeout bounds each collaborator call.
const DefaultTimeout = 10 * time.Second

// ErrNotConfigured is returned for a collaborator that has no source.
var ErrNotConfigured = errors.New("collaborator not configured")

// ErrPanic marks a collaborator call that panicked.
var ErrPanic = errors.New("collaborator panicked")

// ReputationSource looks a URL up in a threat list.
type ReputationSource interface {
	CheckURL(ctx context.Context, rawURL string) (ReputationMatch, error)
}

// MalwareSource returns the engine tally of the latest scan of a URL.
type MalwareSource interface {
	ScanURL(ctx context.Context, rawURL string) (EngineStats, error)
}

// RegistrationSource returns the registration record of a host's domain.
type RegistrationSource interface {
	LookupDomain(ctx context.Context, host string) (RegistrationRecord, error)
}

// SearchSource returns web search results for a host.
type SearchSource interface {
	SearchHost(ctx context.Context, host string) (SearchResults, error)
}

// Sources groups the four collaborators. Nil members degrade immediately.
type Sources struct {
	Reputation   ReputationSource
	Malware      MalwareSource
	Registration RegistrationSource
	Search       SearchSource
}

// CallObserver is told about every collaborator call once it settles.
type CallObserver func(provider string, elapsed time.Duration, err error)

// Collector queries the collaborators concurrently and normalizes their
// answers. It never returns an error: failures become fallback signals.
type Collector struct {
	sources Sources
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
	observe CallObserver
}

// Option configures a Collector.
type Option func(*Collector)

// WithTimeout sets the per-collaborator timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock overrides the clock used for domain age.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger degraded calls are reported to.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Collector) { c.logger = l }
}

// WithCallObserver registers a callback for every collaborator call.
func WithCallObserver(fn CallObserver) Option {
	return func(c *Collector) { c.observe = fn }
}

// NewCollector creates a Collector over the given sources.
func NewCollector(src Sources, opts ...Option) *Collector {
	c := &Collector{
		sources: src,
		timeout: DefaultTimeout,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the per-collaborator timeout.
func (c *Collector) Timeout() time.Duration {
	return c.timeout
}

// Collect runs the four collaborator calls concurrently and waits for all
// of them. Each call is bounded by the collector timeout.
func (c *Collector) Collect(ctx context.Context, t target.Target) External {
	var ext External
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ext.Reputation = c.reputation(gctx, t)
		return nil
	})
	g.Go(func() error {
		ext.Malware = c.malware(gctx, t)
		return nil
	})
	g.Go(func() error {
		ext.Registration = c.registration(gctx, t)
		return nil
	})
	g.Go(func() error {
		ext.Search = c.search(gctx, t)
		return nil
	})

	_ = g.Wait()
	return ext
}

func (c *Collector) reputation(ctx context.Context, t target.Target) Signal[ReputationVerdict] {
	src := c.sources.Reputation
	if src == nil {
		return degraded(c, ProviderReputation, t, ErrNotConfigured, FallbackReputation)
	}
	m, err := call(ctx, c, ProviderReputation, func(ctx context.Context) (ReputationMatch, error) {
		return src.CheckURL(ctx, t.OriginalURL)
	})
	if err != nil {
		return degraded(c, ProviderReputation, t, err, FallbackReputation)
	}
	return ScoreReputation(m)
}

func (c *Collector) malware(ctx context.Context, t target.Target) Signal[MalwareVerdict] {
	src := c.sources.Malware
	if src == nil {
		return degraded(c, ProviderMalware, t, ErrNotConfigured, FallbackMalware)
	}
	stats, err := call(ctx, c, ProviderMalware, func(ctx context.Context) (EngineStats, error) {
		return src.ScanURL(ctx, t.OriginalURL)
	})
	if err != nil {
		return degraded(c, ProviderMalware, t, err, FallbackMalware)
	}
	sig, err := ScoreMalware(stats)
	if err != nil {
		return degraded(c, ProviderMalware, t, fmt.Errorf("malformed scan report: %w", err), FallbackMalware)
	}
	return sig
}

func (c *Collector) registration(ctx context.Context, t target.Target) Signal[RegistrationVerdict] {
	now := c.now()
	fallback := func(err error) Signal[RegistrationVerdict] {
		return FallbackRegistration(t.Host, now, err)
	}

	src := c.sources.Registration
	if src == nil {
		return degraded(c, ProviderRegistration, t, ErrNotConfigured, fallback)
	}
	rec, err := call(ctx, c, ProviderRegistration, func(ctx context.Context) (RegistrationRecord, error) {
		return src.LookupDomain(ctx, t.ASCIIHost())
	})
	if err != nil {
		return degraded(c, ProviderRegistration, t, err, fallback)
	}
	return ScoreRegistration(rec, now)
}

func (c *Collector) search(ctx context.Context, t target.Target) Signal[SearchVerdict] {
	src := c.sources.Search
	if src == nil {
		return degraded(c, ProviderSearch, t, ErrNotConfigured, FallbackSearch)
	}
	res, err := call(ctx, c, ProviderSearch, func(ctx context.Context) (SearchResults, error) {
		return src.SearchHost(ctx, t.ASCIIHost())
	})
	if err != nil {
		return degraded(c, ProviderSearch, t, err, FallbackSearch)
	}
	return ScoreSearch(t.Host, res)
}

func degraded[T any](c *Collector, provider string, t target.Target, err error, fallback func(error) Signal[T]) Signal[T] {
	c.logger.Warn().
		Err(err).
		Str("provider", provider).
		Str("host", t.Host).
		Msg("collaborator unavailable, using fallback")
	return fallback(err)
}

// call runs fn under the collector timeout. A call that ignores its context
// is abandoned at the deadline and its late answer is dropped. Panics are
// reported as errors.
func call[T any](ctx context.Context, c *Collector, provider string, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		val T
		err error
	}
	start := time.Now()
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("%s: %w: %v", provider, ErrPanic, r)}
			}
		}()
		v, err := fn(ctx)
		ch <- result{val: v, err: err}
	}()

	var res result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.err = fmt.Errorf("%s: %w", provider, ctx.Err())
	}

	if c.observe != nil {
		c.observe(provider, time.Since(start), res.err)
	}
	return res.val, res.err
}
