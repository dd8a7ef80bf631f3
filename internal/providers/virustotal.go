package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/coal/linkguard/internal/signal"
)

const virusTotalURL = "https://www.virustotal.com"

// VirusTotal fetches the latest analysis of a URL from the VirusTotal v3 API.
type VirusTotal struct {
	base
}

// NewVirusTotal creates a VirusTotal client.
func NewVirusTotal(cfg Config) *VirusTotal {
	return &VirusTotal{base: newBase("virustotal", virusTotalURL, cfg)}
}

type vtResponse struct {
	Data *struct {
		Attributes struct {
			LastAnalysisStats *signal.EngineStats `json:"last_analysis_stats"`
		} `json:"attributes"`
	} `json:"data"`
}

// URLID is the VirusTotal identifier of a URL: unpadded base64url.
func URLID(rawURL string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(rawURL))
}

// ScanURL returns the engine tally of the last analysis of rawURL.
func (v *VirusTotal) ScanURL(ctx context.Context, rawURL string) (signal.EngineStats, error) {
	if err := v.configured(); err != nil {
		return signal.EngineStats{}, err
	}

	req, err := http.NewRequest(http.MethodGet, v.baseURL+"/api/v3/urls/"+URLID(rawURL), nil)
	if err != nil {
		return signal.EngineStats{}, fmt.Errorf("virustotal: building request: %w", err)
	}
	req.Header.Set("x-apikey", v.apiKey)

	var resp vtResponse
	if err := v.doJSON(ctx, req, &resp); err != nil {
		return signal.EngineStats{}, err
	}
	if resp.Data == nil || resp.Data.Attributes.LastAnalysisStats == nil {
		return signal.EngineStats{}, fmt.Errorf("virustotal: response has no last_analysis_stats: %w", ErrMalformedResponse)
	}
	return *resp.Data.Attributes.LastAnalysisStats, nil
}
