package cmd

import (
	"bytes"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coal/linkguard/internal/inspector"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		offline = false
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "linkguard v"+Version)
}

func TestBuiltInHeuristicCases(t *testing.T) {
	_, errOut, err := run(t, "test", "--log-level", "error")
	require.NoError(t, err, errOut)
	assert.Contains(t, errOut, "0 failed")
}

func TestInspectOffline(t *testing.T) {
	out, _, err := run(t, "inspect", "--offline", "--log-level", "error", "https://micros0ft.cm")
	require.NoError(t, err)

	var meta inspector.HostMetadata
	require.NoError(t, jsoniter.Unmarshal([]byte(out), &meta))
	assert.Equal(t, "micros0ft.cm", meta.Host)
	assert.True(t, meta.Impersonation.IsSuspicious)
}

func TestInspectInvalidURL(t *testing.T) {
	_, _, err := run(t, "inspect", "--offline", "--log-level", "error", "not a url")
	assert.Error(t, err)
}

func TestRulesetFlag_Missing(t *testing.T) {
	t.Cleanup(func() { rootCmd.PersistentFlags().Set("ruleset", "") })
	_, _, err := run(t, "test", "--log-level", "error", "--ruleset", "/nonexistent/ruleset.yaml")
	assert.Error(t, err)
}
