package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load(env(nil))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
	assert.False(t, s.Slow)
}

func TestLoadSlow(t *testing.T) {
	s, err := Load(env(map[string]string{"DBC_SLOW": "1"}))
	require.NoError(t, err)
	assert.Equal(t, compiledEnabled, s.Slow)
}

func TestSlowRequiresEnabled(t *testing.T) {
	s, err := Load(env(map[string]string{"DBC_SLOW": "yes", "DBC_ENABLED": "false"}))
	require.NoError(t, err)
	assert.False(t, s.Enabled)
	assert.False(t, s.Slow)
}

func TestLoadRejectsGarbageEnabled(t *testing.T) {
	_, err := Load(env(map[string]string{"DBC_ENABLED": "maybe"}))
	assert.ErrorContains(t, err, "DBC_ENABLED")
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dbc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
enabled: true
slow: true
repr:
  max_string: 32
  max_items: 4
cel:
  cost_limit: 500
`), 0o600))

	s, err := Load(env(map[string]string{"DBC_PROFILE": path}))
	require.NoError(t, err)
	assert.True(t, s.Enabled)
	assert.True(t, s.Slow)
	assert.Equal(t, 32, s.MaxString)
	assert.Equal(t, 4, s.MaxItems)
	assert.Equal(t, uint64(500), s.CELCostLimit)
}

func TestEnvOverridesProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dbc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: true\n"), 0o600))

	s, err := Load(env(map[string]string{"DBC_PROFILE": path, "DBC_ENABLED": "0"}))
	require.NoError(t, err)
	assert.False(t, s.Enabled)
}

func TestLoadProfileMissing(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "load profile")
}

func TestParseProfileRejectsNegativeLimits(t *testing.T) {
	_, err := ParseProfile([]byte("repr:\n  max_items: -1\n"))
	assert.Error(t, err)
}

func TestCurrentIsStable(t *testing.T) {
	assert.Equal(t, Current(), Current())
}
