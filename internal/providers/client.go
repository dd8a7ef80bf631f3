// Package providers implements HTTP clients for the external collaborators:
// Google Safe Browsing, VirusTotal, WhoisXML API and Google Custom Search.
package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	json "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/coal/linkguard/internal/signal"
)

// Transport defaults. The collector's per-call timeout is the effective
// bound; RequestTimeout only stops a stuck connection outliving it.
const (
	DefaultDialTimeout         = 5 * time.Second
	DefaultTLSHandshakeTimeout = 5 * time.Second
	DefaultRequestTimeout      = 15 * time.Second
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 30 * time.Second

	maxErrorBody = 512
)

// Config holds settings shared by every collaborator client.
type Config struct {
	APIKey  string
	BaseURL string
	// RateLimit is the sustained request rate per second. Zero disables it.
	RateLimit  float64
	HTTPClient *http.Client
	UserAgent  string
	Logger     zerolog.Logger
}

// ErrMalformedResponse is returned when a 2xx body lacks the fields a
// client reads.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Code)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.Code, e.Body)
}

// StatusCode returns the HTTP status of the failed response.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// NewHTTPClient returns an http.Client with a tuned transport.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	dialer := &net.Dialer{Timeout: DefaultDialTimeout, KeepAlive: 15 * time.Second}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			TLSHandshakeTimeout: DefaultTLSHandshakeTimeout,
			MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
			ForceAttemptHTTP2:   true,
		},
	}
}

// base carries what every client needs to issue a JSON request.
type base struct {
	name      string
	apiKey    string
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

func newBase(name, defaultURL string, cfg Config) base {
	b := base{
		name:      name,
		apiKey:    cfg.APIKey,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		client:    cfg.HTTPClient,
		logger:    cfg.Logger.With().Str("provider", name).Logger(),
	}
	if b.baseURL == "" {
		b.baseURL = defaultURL
	}
	if b.client == nil {
		b.client = NewHTTPClient(DefaultRequestTimeout)
	}
	if cfg.RateLimit > 0 {
		b.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return b
}

func (b *base) configured() error {
	if b.apiKey == "" {
		return fmt.Errorf("%s: %w", b.name, signal.ErrNotConfigured)
	}
	return nil
}

// doJSON sends req and decodes a 2xx JSON body into out.
func (b *base) doJSON(ctx context.Context, req *http.Request, out any) error {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: waiting for rate limiter: %w", b.name, err)
		}
	}

	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}

	start := time.Now()
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", b.name, err)
	}
	defer resp.Body.Close()

	b.logger.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("collaborator responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Provider: b.name,
			Code:     resp.StatusCode,
			Body:     strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", b.name, err)
	}
	return nil
}

var (
	_ signal.ReputationSource   = (*SafeBrowsing)(nil)
	_ signal.MalwareSource      = (*VirusTotal)(nil)
	_ signal.RegistrationSource = (*WhoisXML)(nil)
	_ signal.SearchSource       = (*CustomSearch)(nil)
)
