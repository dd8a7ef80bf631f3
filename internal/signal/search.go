package signal

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Search presence fallback when the provider cannot answer.
const (
	SearchFallbackScore = 50
)

// SearchResults is what a search source returns.
type SearchResults struct {
	TotalResults int
	Links        []string
}

// SearchVerdict is the raw metadata carried in the envelope.
type SearchVerdict struct {
	ResultCount        int    `json:"result_count"`
	IsInTopResults     bool   `json:"is_in_top_results"`
	IsSuspicious       bool   `json:"is_suspicious"`
	IsHighlySuspicious bool   `json:"is_highly_suspicious"`
	Error              string `json:"error,omitempty"`
}

// searchBands are applied first-match on the result count.
var searchBands = []struct {
	max                int
	score              int
	suspicious, highly bool
}{
	{0, 0, true, true},
	{1, 10, true, true},
	{5, 30, true, false},
	{10, 60, false, false},
	{20, 80, false, false},
}

const wellIndexedScore = 90

// ScoreSearch maps search results for host to a signal.
func ScoreSearch(host string, r SearchResults) Signal[SearchVerdict] {
	v := SearchVerdict{
		ResultCount:    r.TotalResults,
		IsInTopResults: inTopResults(host, r.Links),
	}

	score := wellIndexedScore
	for _, b := range searchBands {
		if r.TotalResults <= b.max {
			score = b.score
			v.IsSuspicious = b.suspicious
			v.IsHighlySuspicious = b.highly
			break
		}
	}

	return Signal[SearchVerdict]{
		Score: score,
		Safe:  !v.IsSuspicious,
		Raw:   v,
	}
}

// FallbackSearch is the degraded search presence signal. It reports the
// host as suspicious but not highly suspicious.
func FallbackSearch(err error) Signal[SearchVerdict] {
	return Signal[SearchVerdict]{
		Score:    SearchFallbackScore,
		Safe:     false,
		Degraded: true,
		Raw: SearchVerdict{
			IsSuspicious: true,
			Error:        classifySearchError(err),
		},
	}
}

// StatusCoder is implemented by errors that carry an HTTP status.
type StatusCoder interface {
	StatusCode() int
}

func classifySearchError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "search request timed out"
	}
	var sc StatusCoder
	if errors.As(err, &sc) {
		switch sc.StatusCode() {
		case 403:
			return "search API quota exceeded or permission denied"
		case 400:
			return "search API rejected the request"
		}
	}
	return err.Error()
}

// inTopResults reports whether any result link points at host itself.
func inTopResults(host string, links []string) bool {
	want := canonicalHost(host)
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil {
			continue
		}
		if canonicalHost(u.Hostname()) == want {
			return true
		}
	}
	return false
}

func canonicalHost(h string) string {
	h = strings.TrimSuffix(strings.ToLower(h), ".")
	if u, err := idna.ToUnicode(h); err == nil && u != "" {
		return u
	}
	return h
}
