package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server     ServerConfig     `toml:"server"`     // HTTP server settings
	Telemetry  TelemetryConfig  `toml:"telemetry"`  // ADS-B telemetry source settings
	Imputation ImputationConfig `toml:"imputation"` // Flight ID imputation settings
	Ingest     IngestConfig     `toml:"ingest"`     // Ingest pipeline settings
	Storage    StorageConfig    `toml:"storage"`    // Data persistence settings
	Logging    LoggingConfig    `toml:"logging"`    // Application logging settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
}

// TelemetryConfig contains ADS-B telemetry source configuration
type TelemetryConfig struct {
	BaseURL            string `toml:"base_url"`                // Telemetry API endpoint serving hourly parquet files
	APIKey             string `toml:"api_key"`                 // API key sent in the x-api-key header
	RequestTimeoutSecs int    `toml:"request_timeout_seconds"` // Per-request timeout for hourly fetches (default: 60)
}

// ImputationConfig contains flight ID imputation tuning.
// All three thresholds are independent and default to 20 minutes.
type ImputationConfig struct {
	TimeThresholdMinutes     int `toml:"time_threshold_minutes"`     // Max distance to an identified waypoint for ID inheritance
	MidnightThresholdMinutes int `toml:"midnight_threshold_minutes"` // Window around UTC midnight for rollover/holdover ID synthesis
	GroupGapMinutes          int `toml:"group_gap_minutes"`          // Silence gap that splits one aircraft's waypoints into separate groups
}

// IngestConfig contains ingest pipeline configuration
type IngestConfig struct {
	AutoIngest        bool `toml:"auto_ingest"`         // Ingest the previous UTC day automatically on a schedule
	IntervalMinutes   int  `toml:"interval_minutes"`    // How often the auto-ingest check runs (default: 60)
	RunTimeoutMinutes int  `toml:"run_timeout_minutes"` // Upper bound on a single day's ingest run (default: 30)
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Type           string `toml:"type"`             // Storage backend type (currently only "sqlite" is supported)
	SQLiteBasePath string `toml:"sqlite_base_path"` // Base path for SQLite database files (actual filename will be generated as flighttrace-YYYY-MM-DD.db)
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// TimeThreshold returns the inheritance threshold as a duration
func (c *ImputationConfig) TimeThreshold() time.Duration {
	return time.Duration(c.TimeThresholdMinutes) * time.Minute
}

// MidnightThreshold returns the midnight window as a duration
func (c *ImputationConfig) MidnightThreshold() time.Duration {
	return time.Duration(c.MidnightThresholdMinutes) * time.Minute
}

// GroupGap returns the group-splitting gap as a duration
func (c *ImputationConfig) GroupGap() time.Duration {
	return time.Duration(c.GroupGapMinutes) * time.Minute
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	// Check if the file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // Standard location in configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		} else {
			lastErr = err
		}
	}

	return nil, fmt.Errorf("no config file found in any of the searched locations: %w", lastErr)
}

// Validate checks the configuration for errors and fills in defaults
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}

	// Validate telemetry config
	if c.Telemetry.BaseURL == "" {
		return fmt.Errorf("telemetry base_url cannot be empty")
	}
	if c.Telemetry.RequestTimeoutSecs < 0 {
		return fmt.Errorf("invalid telemetry request timeout: %d", c.Telemetry.RequestTimeoutSecs)
	}
	if c.Telemetry.RequestTimeoutSecs == 0 {
		c.Telemetry.RequestTimeoutSecs = 60
	}

	// Validate imputation config
	if c.Imputation.TimeThresholdMinutes < 0 ||
		c.Imputation.MidnightThresholdMinutes < 0 ||
		c.Imputation.GroupGapMinutes < 0 {
		return fmt.Errorf("imputation thresholds must not be negative")
	}
	if c.Imputation.TimeThresholdMinutes == 0 {
		c.Imputation.TimeThresholdMinutes = 20
	}
	if c.Imputation.MidnightThresholdMinutes == 0 {
		c.Imputation.MidnightThresholdMinutes = 20
	}
	if c.Imputation.GroupGapMinutes == 0 {
		c.Imputation.GroupGapMinutes = 20
	}

	// Validate ingest config
	if c.Ingest.IntervalMinutes < 0 {
		return fmt.Errorf("invalid ingest interval: %d", c.Ingest.IntervalMinutes)
	}
	if c.Ingest.IntervalMinutes == 0 {
		c.Ingest.IntervalMinutes = 60
	}
	if c.Ingest.RunTimeoutMinutes == 0 {
		c.Ingest.RunTimeoutMinutes = 30
	}

	// Validate storage config
	if c.Storage.Type == "" {
		c.Storage.Type = "sqlite"
	}
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Storage.SQLiteBasePath == "" {
		c.Storage.SQLiteBasePath = "data"
	}

	// Validate logging config
	switch c.Logging.Level {
	case "":
		c.Logging.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "":
		c.Logging.Format = "console"
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}
