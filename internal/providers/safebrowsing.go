package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	json "github.com/json-iterator/go"

	"github.com/coal/linkguard/internal/signal"
)

const safeBrowsingURL = "https://safebrowsing.googleapis.com"

var safeBrowsingThreatTypes = []string{
	signal.ThreatMalware,
	signal.ThreatSocialEngineering,
	signal.ThreatUnwantedSoftware,
	signal.ThreatPotentiallyHarmfulApplication,
}

// SafeBrowsing queries the Google Safe Browsing v4 Lookup API.
type SafeBrowsing struct {
	base
	clientID      string
	clientVersion string
}

// NewSafeBrowsing creates a Safe Browsing client.
func NewSafeBrowsing(cfg Config, clientID, clientVersion string) *SafeBrowsing {
	return &SafeBrowsing{
		base:          newBase("safebrowsing", safeBrowsingURL, cfg),
		clientID:      clientID,
		clientVersion: clientVersion,
	}
}

type sbRequest struct {
	Client     sbClient     `json:"client"`
	ThreatInfo sbThreatInfo `json:"threatInfo"`
}

type sbClient struct {
	ClientID      string `json:"clientId"`
	ClientVersion string `json:"clientVersion"`
}

type sbThreatInfo struct {
	ThreatTypes      []string  `json:"threatTypes"`
	PlatformTypes    []string  `json:"platformTypes"`
	ThreatEntryTypes []string  `json:"threatEntryTypes"`
	ThreatEntries    []sbEntry `json:"threatEntries"`
}

type sbEntry struct {
	URL string `json:"url"`
}

type sbResponse struct {
	Matches []struct {
		ThreatType   string `json:"threatType"`
		PlatformType string `json:"platformType"`
	} `json:"matches"`
}

// CheckURL reports whether rawURL is on a Safe Browsing list. Only the
// first match is used.
func (s *SafeBrowsing) CheckURL(ctx context.Context, rawURL string) (signal.ReputationMatch, error) {
	if err := s.configured(); err != nil {
		return signal.ReputationMatch{}, err
	}

	body, err := json.Marshal(sbRequest{
		Client: sbClient{ClientID: s.clientID, ClientVersion: s.clientVersion},
		ThreatInfo: sbThreatInfo{
			ThreatTypes:      safeBrowsingThreatTypes,
			PlatformTypes:    []string{"ANY_PLATFORM"},
			ThreatEntryTypes: []string{"URL"},
			ThreatEntries:    []sbEntry{{URL: rawURL}},
		},
	})
	if err != nil {
		return signal.ReputationMatch{}, fmt.Errorf("safebrowsing: encoding request: %w", err)
	}

	endpoint := s.baseURL + "/v4/threatMatches:find?key=" + url.QueryEscape(s.apiKey)
	req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return signal.ReputationMatch{}, fmt.Errorf("safebrowsing: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp sbResponse
	if err := s.doJSON(ctx, req, &resp); err != nil {
		return signal.ReputationMatch{}, err
	}
	if len(resp.Matches) == 0 {
		return signal.ReputationMatch{}, nil
	}
	return signal.ReputationMatch{Matched: true, ThreatType: resp.Matches[0].ThreatType}, nil
}
