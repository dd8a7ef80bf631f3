package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/coal/linkguard/internal/signal"
)

const customSearchURL = "https://www.googleapis.com"

// CustomSearch queries the Google Custom Search JSON API.
type CustomSearch struct {
	base
	engineID string
}

// NewCustomSearch creates a Custom Search client for the given engine (cx).
func NewCustomSearch(cfg Config, engineID string) *CustomSearch {
	return &CustomSearch{
		base:     newBase("customsearch", customSearchURL, cfg),
		engineID: engineID,
	}
}

type csResponse struct {
	SearchInformation *struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
}

// SearchQuery is the query issued for a host: the exact host or any page
// on it.
func SearchQuery(host string) string {
	return fmt.Sprintf("%q OR site:%s", host, host)
}

// SearchHost returns the total result count and first-page links for host.
func (c *CustomSearch) SearchHost(ctx context.Context, host string) (signal.SearchResults, error) {
	if err := c.configured(); err != nil {
		return signal.SearchResults{}, err
	}
	if c.engineID == "" {
		return signal.SearchResults{}, fmt.Errorf("customsearch: engine id: %w", signal.ErrNotConfigured)
	}

	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("cx", c.engineID)
	q.Set("q", SearchQuery(host))
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/customsearch/v1?"+q.Encode(), nil)
	if err != nil {
		return signal.SearchResults{}, fmt.Errorf("customsearch: building request: %w", err)
	}

	var resp csResponse
	if err := c.doJSON(ctx, req, &resp); err != nil {
		return signal.SearchResults{}, err
	}

	if resp.SearchInformation == nil || resp.SearchInformation.TotalResults == "" {
		return signal.SearchResults{}, fmt.Errorf("customsearch: searchInformation.totalResults: %w", ErrMalformedResponse)
	}
	s := resp.SearchInformation.TotalResults
	total, err := strconv.Atoi(s)
	if err != nil {
		return signal.SearchResults{}, fmt.Errorf("customsearch: bad totalResults %q: %w", s, ErrMalformedResponse)
	}

	links := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		links = append(links, it.Link)
	}
	return signal.SearchResults{TotalResults: total, Links: links}, nil
}
