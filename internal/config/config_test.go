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
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAndValidate(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 8080

[telemetry]
base_url = "https://telemetry.example.com/v2/targets/adsb"
api_key = "secret"

[imputation]
time_threshold_minutes = 30

[logging]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "secret", cfg.Telemetry.APIKey)

	// Explicit threshold kept, the other two default independently.
	assert.Equal(t, 30*time.Minute, cfg.Imputation.TimeThreshold())
	assert.Equal(t, 20*time.Minute, cfg.Imputation.MidnightThreshold())
	assert.Equal(t, 20*time.Minute, cfg.Imputation.GroupGap())

	assert.Equal(t, "sqlite", cfg.Storage.Type)
	assert.Equal(t, 60, cfg.Ingest.IntervalMinutes)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := Config{
		Server:    ServerConfig{Port: 8080},
		Telemetry: TelemetryConfig{BaseURL: "https://telemetry.example.com"},
	}

	bad := base
	bad.Server.Port = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Telemetry.BaseURL = ""
	assert.Error(t, bad.Validate())

	bad = base
	bad.Imputation.GroupGapMinutes = -1
	assert.Error(t, bad.Validate())

	bad = base
	bad.Logging.Level = "verbose"
	assert.Error(t, bad.Validate())

	bad = base
	bad.Storage.Type = "postgres"
	assert.Error(t, bad.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}
