package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "/Library/Preferences/SystemConfiguration/com.apple.nat.plist", cfg.NATPlist)
	assert.Equal(t, "/Library/Preferences/SystemConfiguration/preferences.plist", cfg.PreferencesPlist)
	assert.Equal(t, "com.apple.InternetSharing", cfg.DaemonLabel)
	assert.Equal(t, "bridge100", cfg.BridgeName)
	assert.Equal(t, 10, cfg.Converge.Attempts)
	require.NoError(t, cfg.Validate())

	max, err := cfg.MaxPollInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Second, max)
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
nat_plist = "/tmp/test/com.apple.nat.plist"
network_name = "lab share"

[converge]
attempts = 5
max_interval = "250ms"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test/com.apple.nat.plist", cfg.NATPlist)
	assert.Equal(t, "lab share", cfg.NetworkName)
	assert.Equal(t, 5, cfg.Converge.Attempts)

	max, err := cfg.MaxPollInterval()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, max)

	// Unset fields keep their defaults.
	assert.Equal(t, "com.apple.InternetSharing", cfg.DaemonLabel)
	assert.Equal(t, "/Library/Preferences/SystemConfiguration/preferences.plist", cfg.PreferencesPlist)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoad_BadTOML(t *testing.T) {
	path := writeConfig(t, "nat_plist = [unterminated")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadOptional(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	// Present but broken is still an error.
	path := writeConfig(t, `[converge]
attempts = 0
`)
	_, err = LoadOptional(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "zero attempts",
			mutate:  func(cfg *Config) { cfg.Converge.Attempts = 0 },
			wantErr: "converge.attempts",
		},
		{
			name:    "relative nat plist",
			mutate:  func(cfg *Config) { cfg.NATPlist = "com.apple.nat.plist" },
			wantErr: "nat_plist",
		},
		{
			name:    "relative preferences plist",
			mutate:  func(cfg *Config) { cfg.PreferencesPlist = "prefs.plist" },
			wantErr: "preferences_plist",
		},
		{
			name:    "unparseable interval",
			mutate:  func(cfg *Config) { cfg.Converge.MaxInterval = "soon" },
			wantErr: "max_interval",
		},
		{
			name:    "negative interval",
			mutate:  func(cfg *Config) { cfg.Converge.MaxInterval = "-1s" },
			wantErr: "max_interval",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMaxPollInterval_EmptyUsesDefault(t *testing.T) {
	cfg := Default()
	cfg.Converge.MaxInterval = ""

	max, err := cfg.MaxPollInterval()
	require.NoError(t, err)
	assert.Equal(t, time.Second, max)
}
