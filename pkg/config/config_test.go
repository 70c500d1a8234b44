package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, "temp_media", cfg.Media.WorkDir)
	assert.Equal(t, 30*time.Second, cfg.Media.URLFetchTimeout.Duration)
	assert.True(t, cfg.Media.CleanupDownloads)
	assert.Equal(t, "@hourly", cfg.Janitor.Schedule)
	assert.Equal(t, 24*time.Hour, cfg.Janitor.MaxAge.Duration)
	assert.Zero(t, cfg.Extractors.Timeout.Duration)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
	  "channels": {"telegram": {"enabled": true, "allow_from": [12345, "@budi"]}},
	  "extractors": {"ktp_url": "https://ktp.example/api", "timeout": "45s"},
	  "media": {"url_fetch_timeout": 10}
	}`), 0o600))

	t.Setenv("DOKBOT_EXTRACTORS_SIM_URL", "http://sim.example/api")
	t.Setenv("DOKBOT_JANITOR_MAX_AGE", "2h")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.Channels.Telegram.Enabled)
	assert.Equal(t, FlexibleStringSlice{"12345", "@budi"}, cfg.Channels.Telegram.AllowFrom)
	assert.Equal(t, "https://ktp.example/api", cfg.Extractors.KTPURL)
	assert.Equal(t, "http://sim.example/api", cfg.Extractors.SIMURL)
	assert.Equal(t, 45*time.Second, cfg.Extractors.Timeout.Duration)
	assert.Equal(t, 10*time.Second, cfg.Media.URLFetchTimeout.Duration)
	assert.Equal(t, 2*time.Hour, cfg.Janitor.MaxAge.Duration)
	assert.Equal(t, "temp_media", cfg.Media.WorkDir, "unset fields keep defaults")
}

func TestLoadConfigRejectsBadEndpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"extractors": {"kk_url": "ftp://kk"}}`), 0o600))

	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "extractors.kk_url")
}

func TestValidateSchedule(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Janitor.Schedule = "every now and then"
	assert.Error(t, cfg.Validate())

	cfg.Janitor.Schedule = "*/15 * * * *"
	assert.NoError(t, cfg.Validate())

	cfg.Janitor.Enabled = false
	cfg.Janitor.Schedule = ""
	assert.NoError(t, cfg.Validate())
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Extractors.IjazahURL = "https://ijazah.example"
	require.NoError(t, SaveConfig(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, "30s", generic["media"].(map[string]any)["url_fetch_timeout"])

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x.db"), expandHome("~/x.db"))
	assert.Equal(t, "/abs/x.db", expandHome("/abs/x.db"))
	assert.Equal(t, "", expandHome(""))
}

func TestValidateURLFetchTimeout(t *testing.T) {
	cfg := DefaultConfig()
	for _, d := range []time.Duration{0, -time.Second} {
		cfg.Media.URLFetchTimeout = Duration{d}
		assert.ErrorContains(t, cfg.Validate(), "media.url_fetch_timeout")
	}

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"media": {"url_fetch_timeout": "0s"}}`), 0o600))
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "media.url_fetch_timeout")
}
