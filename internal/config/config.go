package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"fatwabox/internal/constants"
	"fatwabox/internal/models"
	"fatwabox/internal/security"
)

var (
	ErrMissingRemoteURL = models.ConfigError{Message: "missing remote base URL"}
	ErrMissingDBPath    = models.ConfigError{Message: "missing database path"}
)

// LoadConfig reads, validates, and applies environment overrides to the
// JSON configuration at path.
func LoadConfig(path string) (*models.Config, error) {
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	if err := validateSecurity(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Remote.BaseURL == "" {
		return ErrMissingRemoteURL
	}
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}

	if c.Remote.Table == "" {
		c.Remote.Table = "questions"
	}
	if c.Remote.TimeoutSec <= 0 {
		c.Remote.TimeoutSec = constants.DefaultRemoteTimeoutSec
	}

	if c.Connectivity.CheckIntervalSec <= 0 {
		c.Connectivity.CheckIntervalSec = constants.DefaultConnectivityCheckSec
	}
	if c.Connectivity.ProbeTimeoutSec <= 0 {
		c.Connectivity.ProbeTimeoutSec = constants.DefaultConnectivityProbeSec
	}

	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = constants.DefaultDatabaseRetryAttempts
	}

	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.Port > 65535 {
		return models.ConfigError{Message: fmt.Sprintf("invalid server port: %d", c.Server.Port)}
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if url := os.Getenv("FATWABOX_REMOTE_URL"); url != "" {
		c.Remote.BaseURL = url
	}

	// SECURITY: API keys should be set via environment variables
	if key := os.Getenv("FATWABOX_REMOTE_API_KEY"); key != "" {
		c.Remote.APIKey = key
	}

	if path := os.Getenv("FATWABOX_DB_PATH"); path != "" {
		c.Database.Path = path
	}

	if port := os.Getenv("FATWABOX_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if level := os.Getenv("FATWABOX_LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// validateSecurity performs security-specific validation
func validateSecurity(c *models.Config) error {
	isProduction := os.Getenv("FATWABOX_ENV") == "production"

	if isProduction {
		if c.Remote.APIKey == "" {
			return models.ConfigError{Message: "remote API key is required in production (set FATWABOX_REMOTE_API_KEY environment variable)"}
		}

		if c.LogLevel == "debug" {
			return models.ConfigError{Message: "debug logging should not be used in production (security risk)"}
		}
	} else {
		if c.Remote.APIKey == "" {
			fmt.Fprintf(os.Stderr, "WARNING: remote API key not set. Set FATWABOX_REMOTE_API_KEY environment variable.\n")
		}
	}

	return nil
}
