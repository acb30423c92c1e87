// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server and worker.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database
	DatabaseURL string `koanf:"database_url"`

	// Redis (market snapshot cache, rate limiting)
	RedisURL string `koanf:"redis_url"`

	// JWT Authentication
	JWTSecret string `koanf:"jwt_secret"`

	// Ranking
	RankingCalibrationPath string `koanf:"ranking_calibration_path"`

	// Market data
	MarketDataAPIKey string `koanf:"market_data_api_key"`

	// Analysis model backend
	AnalyzerEndpoint string `koanf:"analyzer_endpoint"`
	AnalyzerAPIKey   string `koanf:"analyzer_api_key"`

	// Feature Flags
	ReputationWeightingEnabled bool `koanf:"reputation_weighting_enabled"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL is required")
	ErrMissingJWTSecret   = errors.New("JWT_SECRET is required")
	ErrInvalidPort        = errors.New("PORT must be a valid integer")
)

// Default values for non-secret configuration.
const (
	DefaultPort = 8080
	DefaultEnv  = "development"

	DefaultReputationWeightingEnabled = false
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
// If a config file path is provided and the file cannot be loaded, an error is returned.
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	// Load from YAML file first if provided (lower precedence)
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	// Parse port from env, collecting error if invalid
	port, portErr := getEnvIntOrDefault("PORT", k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	// Parse reputation weighting feature flag from env with default
	weightingEnabled := DefaultReputationWeightingEnabled
	if k.Exists("reputation_weighting_enabled") {
		weightingEnabled = k.Bool("reputation_weighting_enabled")
	}
	if val := os.Getenv("REPUTATION_WEIGHTING_ENABLED"); val != "" {
		// Env var takes precedence over file config
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			weightingEnabled = true
		case "false", "0", "no", "off":
			weightingEnabled = false
		}
	}

	// Build config struct, with env vars taking precedence over file values
	cfg := &Config{
		Port:                       port,
		Env:                        getEnvOrDefaultMulti([]string{"ENV", "GO_ENV"}, k.String("env"), DefaultEnv),
		DatabaseURL:                getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:                   getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		JWTSecret:                  getEnvOrKoanf("JWT_SECRET", k, "jwt_secret"),
		RankingCalibrationPath:     getEnvOrKoanf("RANKING_CALIBRATION_PATH", k, "ranking_calibration_path"),
		MarketDataAPIKey:           getEnvOrKoanf("MARKET_DATA_API_KEY", k, "market_data_api_key"),
		AnalyzerEndpoint:           getEnvOrKoanf("ANALYZER_ENDPOINT", k, "analyzer_endpoint"),
		AnalyzerAPIKey:             getEnvOrKoanf("ANALYZER_API_KEY", k, "analyzer_api_key"),
		ReputationWeightingEnabled: weightingEnabled,
	}

	// Validate and collect errors
	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefaultMulti tries multiple environment variable keys in order.
// Returns the first non-empty value found, otherwise the koanf value, or default.
func getEnvOrDefaultMulti(envKeys []string, koanfVal string, defaultVal string) string {
	for _, key := range envKeys {
		if val := os.Getenv(key); val != "" {
			return val
		}
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
// Note: A port value of 0 from a YAML file will fall back to the default; port 0 is not supported in YAML files.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidPort)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks that all required configuration values are present.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, ErrMissingDatabaseURL)
	}
	if c.JWTSecret == "" {
		errs = append(errs, ErrMissingJWTSecret)
	}

	return errs
}

// GetJWTSecrets returns the current signing secret and the previous one, if
// set via JWT_SECRET_PREVIOUS. The previous secret allows tokens signed before
// a rotation to keep validating until they expire.
func (c *Config) GetJWTSecrets() (current, previous string) {
	return c.JWTSecret, os.Getenv("JWT_SECRET_PREVIOUS")
}

// LogSummary returns a summary of the configuration suitable for logging.
// All secrets are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                         fmt.Sprintf("%d", c.Port),
		"env":                          c.Env,
		"database_url":                 maskDatabaseURL(c.DatabaseURL),
		"redis_url":                    maskDatabaseURL(c.RedisURL),
		"jwt_secret":                   maskSecret(c.JWTSecret),
		"ranking_calibration_path":     c.RankingCalibrationPath,
		"market_data_api_key":          maskSecret(c.MarketDataAPIKey),
		"analyzer_endpoint":            c.AnalyzerEndpoint,
		"analyzer_api_key":             maskSecret(c.AnalyzerAPIKey),
		"reputation_weighting_enabled": fmt.Sprintf("%t", c.ReputationWeightingEnabled),
	}
}

// maskSecret masks a secret value, showing only the first 4 characters followed by ****
// If the secret is shorter than 8 characters, it's fully masked.
func maskSecret(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) < 8 {
		return "****"
	}
	return s[:4] + "****"
}

// maskDatabaseURL masks the password in a database URL.
// Supports both postgres:// and postgresql:// schemes.
func maskDatabaseURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	// Look for password pattern: user:password@host
	// Simple approach: find :// and then mask between : and @
	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return maskSecret(s)
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	// Reconstruct URL with masked password
	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
