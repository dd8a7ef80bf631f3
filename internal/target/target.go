// Package target turns raw URL strings into the normalized form every
// analyzer works on.
package target

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ErrInvalidURL is matched by every error Normalize returns.
var ErrInvalidURL = errors.New("invalid url")

// InvalidURLError reports why an input could not be normalized.
type InvalidURLError struct {
	Input  string
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid url %q: %s", e.Input, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidURL) match.
func (e *InvalidURLError) Is(target error) bool {
	return target == ErrInvalidURL
}

// Target is a parsed URL. Host is lower-case and, for IDN hosts, decoded
// to Unicode so lookalike glyphs are visible to the analyzers.
type Target struct {
	OriginalURL string `json:"original_url"`
	Scheme      string `json:"scheme"`
	Host        string `json:"host"`
}

// Normalize parses raw and extracts its scheme and host.
func Normalize(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, &InvalidURLError{Input: raw, Reason: "empty"}
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return Target{}, &InvalidURLError{Input: raw, Reason: err.Error()}
	}
	if u.Scheme == "" {
		return Target{}, &InvalidURLError{Input: raw, Reason: "missing scheme"}
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	if host == "" {
		return Target{}, &InvalidURLError{Input: raw, Reason: "missing host"}
	}
	if strings.Contains(host, "xn--") {
		if decoded, err := idna.ToUnicode(host); err == nil && decoded != "" {
			host = strings.ToLower(decoded)
		}
	}

	return Target{
		OriginalURL: trimmed,
		Scheme:      strings.ToLower(u.Scheme),
		Host:        host,
	}, nil
}

// Labels splits the host on dots.
func (t Target) Labels() []string {
	return strings.Split(t.Host, ".")
}

// ASCIIHost returns the IDNA ASCII form of the host, for use on the wire.
// It falls back to Host when conversion fails.
func (t Target) ASCIIHost() string {
	ascii, err := idna.ToASCII(t.Host)
	if err != nil || ascii == "" {
		return t.Host
	}
	return ascii
}
