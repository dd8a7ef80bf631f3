package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/coal/linkguard/internal/signal"
)

const whoisXMLURL = "https://www.whoisxmlapi.com"

// whoisDateLayouts are the formats WhoisXML uses for created/expires dates.
var whoisDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// WhoisXML looks up registration records through the WhoisXML API.
type WhoisXML struct {
	base
}

// NewWhoisXML creates a WhoisXML client.
func NewWhoisXML(cfg Config) *WhoisXML {
	return &WhoisXML{base: newBase("whoisxml", whoisXMLURL, cfg)}
}

type whoisContact struct {
	Name         string `json:"name"`
	Organization string `json:"organization"`
	Country      string `json:"country"`
	Email        string `json:"email"`
}

type whoisRecordData struct {
	CreatedDate   string        `json:"createdDate"`
	ExpiresDate   string        `json:"expiresDate"`
	RegistrarName string        `json:"registrarName"`
	Registrant    *whoisContact `json:"registrant"`
}

type whoisResponse struct {
	WhoisRecord *struct {
		whoisRecordData
		DomainName   string           `json:"domainName"`
		RegistryData *whoisRecordData `json:"registryData"`
	} `json:"WhoisRecord"`
	ErrorMessage *struct {
		Msg string `json:"msg"`
	} `json:"ErrorMessage"`
}

// RegistrableDomain reduces host to its eTLD+1, which is what registries
// hold records for. Hosts without a public suffix are returned unchanged.
func RegistrableDomain(host string) string {
	d, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil || d == "" {
		return host
	}
	return d
}

// LookupDomain returns the registration record of host's registrable domain.
// Top-level fields win; registryData fills the gaps.
func (w *WhoisXML) LookupDomain(ctx context.Context, host string) (signal.RegistrationRecord, error) {
	if err := w.configured(); err != nil {
		return signal.RegistrationRecord{}, err
	}
	domain := RegistrableDomain(host)

	q := url.Values{}
	q.Set("apiKey", w.apiKey)
	q.Set("domainName", domain)
	q.Set("outputFormat", "JSON")
	req, err := http.NewRequest(http.MethodGet, w.baseURL+"/whoisserver/WhoisService?"+q.Encode(), nil)
	if err != nil {
		return signal.RegistrationRecord{}, fmt.Errorf("whoisxml: building request: %w", err)
	}

	var resp whoisResponse
	if err := w.doJSON(ctx, req, &resp); err != nil {
		return signal.RegistrationRecord{}, err
	}
	if resp.ErrorMessage != nil {
		return signal.RegistrationRecord{}, fmt.Errorf("whoisxml: %s", resp.ErrorMessage.Msg)
	}
	if resp.WhoisRecord == nil {
		return signal.RegistrationRecord{}, fmt.Errorf("whoisxml: response has no WhoisRecord")
	}

	rec := resp.WhoisRecord
	registry := rec.RegistryData
	if registry == nil {
		registry = &whoisRecordData{}
	}

	contact := rec.Registrant
	if contact == nil {
		contact = registry.Registrant
	}
	if contact == nil {
		contact = &whoisContact{}
	}

	return signal.RegistrationRecord{
		Domain:      domain,
		CreatedDate: parseWhoisDate(firstNonEmpty(rec.CreatedDate, registry.CreatedDate)),
		ExpiresDate: parseWhoisDate(firstNonEmpty(rec.ExpiresDate, registry.ExpiresDate)),
		Registrar:   firstNonEmpty(rec.RegistrarName, registry.RegistrarName),
		Registrant: signal.Registrant{
			Name:         contact.Name,
			Organization: contact.Organization,
			Country:      contact.Country,
			Email:        contact.Email,
		},
	}, nil
}

// parseWhoisDate returns the zero time for empty or unrecognized input.
func parseWhoisDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range whoisDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
