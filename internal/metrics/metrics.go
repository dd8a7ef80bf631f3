// Package metrics exposes evaluation and collaborator metrics in the
// Prometheus format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/coal/linkguard/internal/pipeline"
	"github.com/coal/linkguard/internal/signal"
)

const namespace = "linkguard"

// Recorder owns a private registry so tests and multiple servers in one
// process do not collide on the global one.
type Recorder struct {
	registry *prometheus.Registry

	evaluations   *prometheus.CounterVec
	scores        prometheus.Histogram
	evalDuration  prometheus.Histogram
	callDuration  *prometheus.HistogramVec
	callErrors    *prometheus.CounterVec
	degraded      *prometheus.CounterVec
}

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "URL evaluations by verdict and weight profile.",
		}, []string{"verdict", "profile"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "composite_score",
			Help:      "Distribution of composite scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		evalDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_duration_seconds",
			Help:      "End-to-end evaluation latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_call_duration_seconds",
			Help:      "Collaborator call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		callErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_errors_total",
			Help:      "Failed collaborator calls by provider and cause.",
		}, []string{"provider", "reason"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_signals_total",
			Help:      "Evaluations that used a fallback signal, by provider.",
		}, []string{"provider"}),
	}
	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.evaluations,
		r.scores,
		r.evalDuration,
		r.callDuration,
		r.callErrors,
		r.degraded,
	)
	return r
}

// ObserveEvaluation is a pipeline.EventObserver.
func (r *Recorder) ObserveEvaluation(e pipeline.EvaluationEvent) {
	verdict := "unsafe"
	if e.IsSafe {
		verdict = "safe"
	}
	r.evaluations.WithLabelValues(verdict, e.Profile).Inc()
	r.scores.Observe(float64(e.Score))
	r.evalDuration.Observe(e.Duration.Seconds())
	for _, p := range e.Degraded {
		r.degraded.WithLabelValues(p).Inc()
	}
}

// ObserveCall is a signal.CallObserver.
func (r *Recorder) ObserveCall(provider string, elapsed time.Duration, err error) {
	r.callDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
	if err != nil {
		r.callErrors.WithLabelValues(provider, reason(err)).Inc()
	}
}

func reason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, signal.ErrPanic):
		return "panic"
	}
	var sc signal.StatusCoder
	if errors.As(err, &sc) {
		return "status"
	}
	return "error"
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
