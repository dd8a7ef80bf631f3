package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/coal/linkguard/internal/audit"
	"github.com/coal/linkguard/internal/explain"
	"github.com/coal/linkguard/internal/fusion"
	"github.com/coal/linkguard/internal/inspector"
	"github.com/coal/linkguard/internal/signal"
	"github.com/coal/linkguard/internal/target"
)

// EventObserver is a callback function that receives evaluation events.
type EventObserver func(event EvaluationEvent)

// EvaluationEvent is what observers see once an evaluation has completed.
type EvaluationEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id"`
	URL       string        `json:"url"`
	Host      string        `json:"host"`
	Score     int           `json:"score"`
	IsSafe    bool          `json:"is_safe"`
	Profile   string        `json:"profile"`
	Degraded  []string      `json:"degraded,omitempty"`
	Reasons   []string      `json:"reasons"`
	Lexical   int           `json:"lexical_hits"`
	Weighted  int           `json:"impersonation_weight"`
	Duration  time.Duration `json:"duration_ns"`
}

// Pipeline runs normalize → inspect → collect → fuse → explain.
type Pipeline struct {
	inspector   *inspector.Inspector
	collector   *signal.Collector
	auditLogger *audit.Logger
	logger      zerolog.Logger
	now         func() time.Time

	observerMu sync.RWMutex
	observers  []EventObserver
}

// New creates a Pipeline. A nil inspector uses the default ruleset, a nil
// collector has no collaborators configured and a nil audit logger discards.
func New(ins *inspector.Inspector, col *signal.Collector, auditLogger *audit.Logger, logger zerolog.Logger) *Pipeline {
	if ins == nil {
		ins = inspector.New(nil)
	}
	if col == nil {
		col = signal.NewCollector(signal.Sources{}, signal.WithLogger(logger))
	}
	if auditLogger == nil {
		auditLogger = audit.NopLogger()
	}
	return &Pipeline{
		inspector:   ins,
		collector:   col,
		auditLogger: auditLogger,
		logger:      logger.With().Str("component", "pipeline").Logger(),
		now:         time.Now,
	}
}

// Evaluate scores a single URL. A malformed URL yields a *target.InvalidURLError
// and no result; collaborator failures never surface as errors.
func (p *Pipeline) Evaluate(ctx context.Context, raw string) (*CompositeResult, error) {
	reqID := uuid.NewString()
	start := p.now()

	t, err := target.Normalize(raw)
	if err != nil {
		p.audit(audit.Entry{
			RequestID:  reqID,
			URL:        raw,
			Error:      err.Error(),
			DurationMS: p.now().Sub(start).Milliseconds(),
		})
		return nil, err
	}

	meta := p.inspector.Inspect(t)
	sig := signal.Signals{
		Lexical:       meta.Lexical,
		Impersonation: meta.Impersonation,
		External:      p.collector.Collect(ctx, t),
	}

	fused := fusion.Fuse(&sig)
	reasons := explain.Generate(&sig)
	degraded := sig.DegradedProviders()

	res := &CompositeResult{
		RequestID:      reqID,
		URL:            t.OriginalURL,
		Host:           t.Host,
		IsSafe:         fused.IsSafe,
		Score:          fused.Score,
		Profile:        fused.Profile,
		ProfileVersion: fused.Version,
		Signals:        sig,
		Explanation:    reasons,
		Degraded:       degraded,
		EvaluatedAt:    p.now().UTC(),
	}
	elapsed := p.now().Sub(start)

	p.audit(audit.Entry{
		RequestID:   reqID,
		URL:         res.URL,
		Host:        res.Host,
		Score:       res.Score,
		IsSafe:      res.IsSafe,
		Profile:     res.Profile,
		Degraded:    degraded,
		Explanation: reasons,
		Signals:     &res.Signals,
		DurationMS:  elapsed.Milliseconds(),
	})

	p.logger.Debug().
		Str("request_id", reqID).
		Str("host", res.Host).
		Int("score", res.Score).
		Bool("safe", res.IsSafe).
		Str("profile", res.Profile).
		Strs("degraded", degraded).
		Dur("elapsed", elapsed).
		Msg("evaluated")

	p.notify(EvaluationEvent{
		Timestamp: res.EvaluatedAt,
		RequestID: reqID,
		URL:       res.URL,
		Host:      res.Host,
		Score:     res.Score,
		IsSafe:    res.IsSafe,
		Profile:   res.Profile,
		Degraded:  degraded,
		Reasons:   reasons,
		Lexical:   sig.Lexical.HitCount,
		Weighted:  sig.Impersonation.WeightedHitCount,
		Duration:  elapsed,
	})

	return res, nil
}

func (p *Pipeline) audit(e audit.Entry) {
	if err := p.auditLogger.Log(e); err != nil {
		p.logger.Error().Err(err).Str("request_id", e.RequestID).Msg("audit write failed")
	}
}

// AddObserver registers a callback that will be invoked for every evaluation.
func (p *Pipeline) AddObserver(fn EventObserver) {
	p.observerMu.Lock()
	defer p.observerMu.Unlock()
	p.observers = append(p.observers, fn)
}

// notify sends an event to all registered observers.
func (p *Pipeline) notify(event EvaluationEvent) {
	p.observerMu.RLock()
	observers := p.observers
	p.observerMu.RUnlock()

	for _, fn := range observers {
		fn(event)
	}
}

// InspectOnly runs the normalizer and the local heuristics without calling
// any collaborator (for `inspect --offline`).
func (p *Pipeline) InspectOnly(raw string) (*inspector.HostMetadata, error) {
	t, err := target.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("inspect: %w", err)
	}
	return p.inspector.Inspect(t), nil
}

// Timeout reports the per-collaborator timeout in effect.
func (p *Pipeline) Timeout() time.Duration {
	return p.collector.Timeout()
}
