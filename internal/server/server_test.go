package server

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coal/linkguard/internal/dashboard"
	"github.com/coal/linkguard/internal/metrics"
	"github.com/coal/linkguard/internal/pipeline"
	"github.com/coal/linkguard/internal/ruleset"
	"github.com/coal/linkguard/internal/signal"
)

type unavailable struct{}

func (unavailable) CheckURL(context.Context, string) (signal.ReputationMatch, error) {
	return signal.ReputationMatch{}, errors.New("unavailable")
}

func newTestServer(t *testing.T) (*httptest.Server, *metrics.Recorder) {
	t.Helper()
	rec := metrics.New()
	col := signal.NewCollector(signal.Sources{Reputation: unavailable{}},
		signal.WithCallObserver(rec.ObserveCall))
	pipe := pipeline.New(nil, col, nil, zerolog.Nop())
	pipe.AddObserver(rec.ObserveEvaluation)

	hub := dashboard.NewHub(ruleset.Default(), zerolog.Nop())
	pipe.AddObserver(hub.OnEvent)

	srv := New(pipe, Options{
		Version: "test",
		Metrics: rec.Handler(),
		Feed:    dashboard.Handler(hub),
	}, zerolog.Nop())

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return ts, rec
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url+"/api/analyze", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestAnalyze_OK(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := post(t, ts.URL, `{"url": "https://www.google.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var res pipeline.CompositeResult
	require.NoError(t, json.Unmarshal(body, &res))
	assert.Equal(t, "www.google.com", res.Host)
	assert.NotEmpty(t, res.RequestID)
	assert.GreaterOrEqual(t, res.Score, 0)
	assert.LessOrEqual(t, res.Score, 100)
	assert.Len(t, res.Degraded, 4)
	assert.NotEmpty(t, res.Explanation)
}

func TestAnalyze_BadRequests(t *testing.T) {
	ts, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `url=https://example.com`, "JSON"},
		{"missing url", `{}`, "URL is required"},
		{"blank url", `{"url": "   "}`, "URL is required"},
		{"invalid url", `{"url": "not a url"}`, "invalid url"},
		{"no host", `{"url": "https://"}`, "invalid url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, ts.URL, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var er ErrorResponse
			require.NoError(t, json.Unmarshal(body, &er))
			assert.Contains(t, er.Error, tt.want)
		})
	}
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	ts, _ := newTestServer(t)

	big := `{"url": "https://example.com/` + strings.Repeat("a", maxBodyBytes) + `"}`
	resp, _ := post(t, ts.URL, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestAnalyze_MethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/analyze")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var h HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, "test", h.Version)
}

func TestMetricsAndFeedMounted(t *testing.T) {
	ts, _ := newTestServer(t)
	post(t, ts.URL, `{"url": "https://example.com"}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(data), `linkguard_evaluations_total`)
	assert.Contains(t, string(data), `linkguard_collaborator_errors_total{provider="reputation",reason="error"} 1`)

	resp, err = http.Get(ts.URL + "/_linkguard/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var snap dashboard.StatsSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, uint64(1), snap.TotalEvaluations)
	assert.Equal(t, uint64(1), snap.DegradedCounts[signal.ProviderReputation])
}

func TestParseAnalyzeRequest(t *testing.T) {
	req, err := ParseAnalyzeRequest([]byte(`{"url": "  https://example.com  "}`))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", req.URL)

	_, err = ParseAnalyzeRequest([]byte(`{"url": 5}`))
	assert.Error(t, err)
}
