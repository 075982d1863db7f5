package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string
	API         APIConfig
	Stub        StubConfig
	LogLevel    string
}

type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	TokenFile string
}

type StubConfig struct {
	Port   string
	DBPath string
	Seed   bool
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("API_BASE_URL", "http://localhost:5000/api")
	viper.SetDefault("HTTP_TIMEOUT_SECONDS", "30")
	viper.SetDefault("STUB_PORT", "5000")
	viper.SetDefault("STUB_DB_PATH", "./data/gymstub.db")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	timeoutSecs := getEnvOrViper("HTTP_TIMEOUT_SECONDS", "30")
	timeout, err := time.ParseDuration(timeoutSecs + "s")
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT_SECONDS %q: %w", timeoutSecs, err)
	}

	cfg := &Config{
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		API: APIConfig{
			BaseURL:   getEnvOrViper("API_BASE_URL", "http://localhost:5000/api"),
			Timeout:   timeout,
			TokenFile: getEnvOrViper("TOKEN_FILE", defaultTokenFile()),
		},
		Stub: StubConfig{
			Port:   getEnvOrViper("STUB_PORT", "5000"),
			DBPath: getEnvOrViper("STUB_DB_PATH", "./data/gymstub.db"),
			Seed:   getEnvOrViper("STUB_SEED", "true") == "true",
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	return cfg, nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gymclient-token"
	}
	return home + "/.gymclient-token"
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
