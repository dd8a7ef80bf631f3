package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coal/linkguard/internal/inspector"
	"github.com/coal/linkguard/internal/signal"
)

func TestProfilesSumTo100(t *testing.T) {
	assert.Equal(t, 100, ImpersonationProfile.Total())
	assert.Equal(t, 100, StandardProfile.Total())
	assert.Zero(t, StandardProfile.Impersonation)
}

func TestSelectProfile(t *testing.T) {
	assert.Equal(t, "impersonation", SelectProfile(true).Name)
	assert.Equal(t, "standard", SelectProfile(false).Name)
}

func TestIsSafe(t *testing.T) {
	assert.False(t, IsSafe(70))
	assert.True(t, IsSafe(71))
	assert.False(t, IsSafe(0))
	assert.True(t, IsSafe(100))
}

func TestApply(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		scores  Scores
		want    int
	}{
		{"all clean standard", StandardProfile, Scores{100, 100, 100, 100, 100, 90}, 97},
		{"all fallbacks", StandardProfile, Scores{80, 75, 70, 100, 100, 50}, 72},
		{"all fallbacks new domain", StandardProfile, Scores{80, 75, 30, 100, 100, 50}, 66},
		{"impersonation ignored by standard", StandardProfile, Scores{100, 100, 100, 100, 0, 100}, 100},
		{"impersonation weighted", ImpersonationProfile, Scores{100, 100, 100, 100, 0, 100}, 80},
		{"half rounds up", StandardProfile, Scores{0, 0, 0, 0, 0, 5}, 2},
		{"all zero", ImpersonationProfile, Scores{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Apply(tt.profile, tt.scores)
			assert.Equal(t, tt.want, res.Score)
			assert.Equal(t, tt.want > SafeThreshold, res.IsSafe)
			assert.Equal(t, tt.profile.Name, res.Profile)
			assert.Equal(t, ProfileVersion, res.Version)
		})
	}
}

func TestFuse_ProfileFollowsImpersonation(t *testing.T) {
	s := &signal.Signals{
		Lexical:       inspector.LexicalFindings{Score: 100},
		Impersonation: inspector.ImpersonationFindings{Score: 50, IsSuspicious: true},
	}
	s.Reputation.Score = 100
	s.Malware.Score = 100
	s.Registration.Score = 100
	s.Search.Score = 100

	res := Fuse(s)
	assert.Equal(t, "impersonation", res.Profile)
	assert.Equal(t, 90, res.Score)

	s.Impersonation.IsSuspicious = false
	res = Fuse(s)
	assert.Equal(t, "standard", res.Profile)
	assert.Equal(t, 100, res.Score)
}

func TestFuse_ScoreInRange(t *testing.T) {
	for _, v := range []int{0, 1, 33, 50, 99, 100} {
		s := &signal.Signals{
			Lexical:       inspector.LexicalFindings{Score: v},
			Impersonation: inspector.ImpersonationFindings{Score: v, IsSuspicious: v < 50},
		}
		s.Reputation.Score = v
		s.Malware.Score = v
		s.Registration.Score = v
		s.Search.Score = v

		res := Fuse(s)
		assert.Equal(t, v, res.Score)
		assert.Equal(t, IsSafe(res.Score), res.IsSafe)
	}
}
