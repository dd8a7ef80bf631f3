// Package server exposes the evaluation pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/coal/linkguard/internal/fusion"
	"github.com/coal/linkguard/internal/pipeline"
	"github.com/coal/linkguard/internal/target"
)

const shutdownTimeout = 10 * time.Second

// Options are the optional parts of the router.
type Options struct {
	Version string
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	// Feed is mounted at /_linkguard when set.
	Feed http.Handler
	// FeedPrefix defaults to /_linkguard.
	FeedPrefix string
}

// Server is the HTTP front end of the pipeline.
type Server struct {
	pipe   *pipeline.Pipeline
	opts   Options
	logger zerolog.Logger
	router chi.Router
}

// New creates a Server and builds its routes.
func New(pipe *pipeline.Pipeline, opts Options, logger zerolog.Logger) *Server {
	if opts.FeedPrefix == "" {
		opts.FeedPrefix = "/_linkguard"
	}
	s := &Server{
		pipe:   pipe,
		opts:   opts,
		logger: logger.With().Str("component", "server").Logger(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics)
	}
	if s.opts.Feed != nil {
		r.Mount(s.opts.FeedPrefix, s.opts.Feed)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.requestLogger)
		// Bound the whole evaluation a little past the collaborator timeout.
		r.Use(middleware.Timeout(s.pipe.Timeout() + 5*time.Second))
		r.Post("/api/analyze", s.handleAnalyze)
	})
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		Version:        s.opts.Version,
		ProfileVersion: fusion.ProfileVersion,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	r.Body.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) > maxBodyBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	req, err := ParseAnalyzeRequest(body)
	if err != nil {
		if errors.Is(err, errMissingURL) {
			writeError(w, http.StatusBadRequest, "URL is required")
			return
		}
		writeError(w, http.StatusBadRequest, "request body must be a JSON object")
		return
	}

	res, err := s.pipe.Evaluate(r.Context(), req.URL)
	if err != nil {
		if errors.Is(err, target.ErrInvalidURL) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error().Err(err).Str("url", req.URL).Msg("evaluation failed")
		writeError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}

	s.logger.Info().
		Str("request_id", res.RequestID).
		Str("host", res.Host).
		Int("score", res.Score).
		Bool("safe", res.IsSafe).
		Str("profile", res.Profile).
		Strs("degraded", res.Degraded).
		Msg("analyzed")

	writeJSON(w, http.StatusOK, res)
}

// requestLogger logs one line per request with zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Str("req_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
