package signal

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreReputation(t *testing.T) {
	tests := []struct {
		threat string
		score  int
	}{
		{ThreatMalware, 10},
		{ThreatSocialEngineering, 20},
		{ThreatUnwantedSoftware, 30},
		{ThreatPotentiallyHarmfulApplication, 40},
		{"THREAT_TYPE_UNSPECIFIED", 50},
	}
	for _, tt := range tests {
		t.Run(tt.threat, func(t *testing.T) {
			sig := ScoreReputation(ReputationMatch{Matched: true, ThreatType: tt.threat})
			assert.Equal(t, tt.score, sig.Score)
			assert.False(t, sig.Safe)
			assert.False(t, sig.Degraded)
			assert.Equal(t, tt.threat, sig.Raw.ThreatType)
		})
	}

	clean := ScoreReputation(ReputationMatch{})
	assert.Equal(t, 100, clean.Score)
	assert.True(t, clean.Safe)
	assert.Empty(t, clean.Raw.ThreatType)
}

func TestFallbackReputation(t *testing.T) {
	sig := FallbackReputation(errors.New("boom"))
	assert.Equal(t, 80, sig.Score)
	assert.True(t, sig.Safe)
	assert.True(t, sig.Degraded)
	assert.Equal(t, "boom", sig.Raw.Error)
}

func TestScoreMalware(t *testing.T) {
	sig, err := ScoreMalware(EngineStats{Harmless: 60, Malicious: 5, Suspicious: 3, Undetected: 12})
	require.NoError(t, err)
	assert.Equal(t, 90, sig.Score)
	assert.False(t, sig.Safe)
	assert.Equal(t, 8, sig.Raw.MaliciousCount)
	assert.Equal(t, 80, sig.Raw.TotalEngines)
	assert.Equal(t, "8/80", sig.Raw.DetectionRatio)

	clean, err := ScoreMalware(EngineStats{Harmless: 70, Undetected: 10})
	require.NoError(t, err)
	assert.Equal(t, 100, clean.Score)
	assert.True(t, clean.Safe)

	all, err := ScoreMalware(EngineStats{Malicious: 4})
	require.NoError(t, err)
	assert.Equal(t, 0, all.Score)

	_, err = ScoreMalware(EngineStats{})
	assert.ErrorIs(t, err, ErrNoEngines)

	_, err = ScoreMalware(EngineStats{Harmless: -1, Malicious: 2})
	assert.Error(t, err)
}

func TestFallbackMalware(t *testing.T) {
	sig := FallbackMalware(errors.New("quota"))
	assert.Equal(t, 75, sig.Score)
	assert.True(t, sig.Safe)
	assert.True(t, sig.Degraded)
}

func TestScoreRegistration_AgeBrackets(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	public := Registrant{Name: "Jane Doe", Organization: "Example Inc", Country: "US", Email: "jane@example.com"}

	tests := []struct {
		ageDays int
		score   int
		isNew   bool
	}{
		{5, 20, true},
		{29, 20, true},
		{30, 40, true},
		{89, 40, true},
		{90, 60, false},
		{179, 60, false},
		{180, 70, false},
		{364, 70, false},
		{365, 100, false},
		{4000, 100, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_days", tt.ageDays), func(t *testing.T) {
			rec := RegistrationRecord{
				Domain:      "example.com",
				CreatedDate: now.AddDate(0, 0, -tt.ageDays),
				Registrant:  public,
			}
			sig := ScoreRegistration(rec, now)
			assert.Equal(t, tt.score, sig.Score)
			assert.Equal(t, tt.isNew, sig.Raw.IsNewDomain)
			require.NotNil(t, sig.Raw.Age)
			assert.Equal(t, tt.ageDays, sig.Raw.Age.Days)
			assert.False(t, sig.Raw.PrivacyProtected)
		})
	}
}

func TestScoreRegistration_Privacy(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(-5, 0, 0)

	tests := []struct {
		name       string
		registrant Registrant
		private    bool
	}{
		{"missing name", Registrant{Email: "a@b.c"}, true},
		{"privacy service", Registrant{Name: "Domains By Proxy Privacy", Email: "a@b.c"}, true},
		{"protected", Registrant{Name: "REDACTED FOR PROTECTION", Email: "a@b.c"}, true},
		{"missing email", Registrant{Name: "Jane Doe"}, true},
		{"public", Registrant{Name: "Jane Doe", Email: "jane@example.com"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := ScoreRegistration(RegistrationRecord{CreatedDate: old, Registrant: tt.registrant}, now)
			assert.Equal(t, tt.private, sig.Raw.PrivacyProtected)
			if tt.private {
				assert.Equal(t, 90, sig.Score)
			} else {
				assert.Equal(t, 100, sig.Score)
			}
		})
	}

	young := ScoreRegistration(RegistrationRecord{CreatedDate: now.AddDate(0, 0, -3)}, now)
	assert.Equal(t, 10, young.Score)
	assert.False(t, young.Safe)
}

func TestScoreRegistration_UnknownDate(t *testing.T) {
	sig := ScoreRegistration(RegistrationRecord{
		Registrant: Registrant{Name: "Jane", Email: "j@example.com"},
	}, time.Now())

	assert.Equal(t, 100, sig.Score)
	assert.Equal(t, "Unknown", sig.Raw.RegistrationDate)
	assert.Equal(t, "Unknown", sig.Raw.ExpirationDate)
	assert.Equal(t, "Unknown", sig.Raw.Registrar)
	assert.Nil(t, sig.Raw.Age)
	assert.False(t, sig.Raw.IsNewDomain)
}

func TestFallbackRegistration(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, host := range []string{"example.com", "paypa1-login.xyz", "a.b.c", "x"} {
		first := FallbackRegistration(host, now, errors.New("down"))
		second := FallbackRegistration(host, now, errors.New("down"))
		assert.Equal(t, first, second, "fallback for %s must be stable", host)

		assert.True(t, first.Degraded)
		assert.True(t, first.Raw.Synthetic)
		require.NotNil(t, first.Raw.Age)
		if first.Raw.Age.Days < 90 {
			assert.Equal(t, RegistrationFallbackNewScore, first.Score)
			assert.True(t, first.Raw.IsNewDomain)
		} else {
			assert.Equal(t, RegistrationFallbackScore, first.Score)
			assert.False(t, first.Raw.IsNewDomain)
		}
		assert.LessOrEqual(t, first.Raw.Age.Years, 9)
	}
}

func TestScoreSearch_Bands(t *testing.T) {
	tests := []struct {
		count      int
		score      int
		suspicious bool
		highly     bool
	}{
		{0, 0, true, true},
		{1, 10, true, true},
		{2, 30, true, false},
		{5, 30, true, false},
		{6, 60, false, false},
		{10, 60, false, false},
		{11, 80, false, false},
		{20, 80, false, false},
		{21, 90, false, false},
		{1000000, 90, false, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_results", tt.count), func(t *testing.T) {
			sig := ScoreSearch("example.com", SearchResults{TotalResults: tt.count})
			assert.Equal(t, tt.score, sig.Score)
			assert.Equal(t, tt.suspicious, sig.Raw.IsSuspicious)
			assert.Equal(t, tt.highly, sig.Raw.IsHighlySuspicious)
			assert.Equal(t, !tt.suspicious, sig.Safe)
		})
	}
}

func TestScoreSearch_TopResults(t *testing.T) {
	sig := ScoreSearch("example.com", SearchResults{
		TotalResults: 42,
		Links: []string{
			"https://news.example.org/article",
			"https://EXAMPLE.com/about",
		},
	})
	assert.True(t, sig.Raw.IsInTopResults)

	sig = ScoreSearch("example.com", SearchResults{
		TotalResults: 42,
		Links:        []string{"https://www.example.com/", "::not a url"},
	})
	assert.False(t, sig.Raw.IsInTopResults)
}

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

func TestFallbackSearch(t *testing.T) {
	sig := FallbackSearch(statusErr(403))
	assert.Equal(t, 50, sig.Score)
	assert.True(t, sig.Degraded)
	assert.True(t, sig.Raw.IsSuspicious)
	assert.False(t, sig.Raw.IsHighlySuspicious)
	assert.False(t, sig.Raw.IsInTopResults)
	assert.Contains(t, sig.Raw.Error, "quota")

	assert.Contains(t, FallbackSearch(statusErr(400)).Raw.Error, "rejected")
	assert.Equal(t, "status 500", FallbackSearch(statusErr(500)).Raw.Error)
}

func TestDegradedProviders(t *testing.T) {
	ext := External{
		Reputation: FallbackReputation(nil),
		Search:     FallbackSearch(nil),
	}
	assert.Equal(t, []string{ProviderReputation, ProviderSearch}, ext.DegradedProviders())
}
