// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/randytsao24/ctaglass/internal/transit"
)

// DefaultEnvFile is read by Load when present
const DefaultEnvFile = ".env"

// Config holds all application configuration.
type Config struct {
	Port     string `validate:"required,numeric"`
	Env      string `validate:"required"`
	LogLevel string `validate:"oneof=debug info warn warning error"`

	// Missing API keys are reported per call, not at startup
	TrainAPIKey  string
	BusAPIKey    string
	TrainBaseURL string `validate:"required,url"`
	BusBaseURL   string `validate:"required,url"`
	AlertsURL    string `validate:"omitempty,url"`

	HTTPTimeout   time.Duration `validate:"gt=0"`
	CacheTTL      time.Duration `validate:"gte=0"`
	DatabasePath  string        `validate:"required"`
	ProbeStations []string      `validate:"required,min=1,dive,numeric"`

	PairingTimeout     time.Duration `validate:"gt=0"`
	SimulatedGlasses   bool
	SimulatedLinkDelay time.Duration `validate:"gte=0"`
}

// Load reads an optional .env file and then environment variables, falling
// back to defaults. Variables already set in the environment win over the
// file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return &Config{
		Port:     getEnv("PORT", "3000"),
		Env:      getEnv("ENV", "development"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		TrainAPIKey:  getEnv("CTA_TRAIN_API_KEY", ""),
		BusAPIKey:    getEnv("CTA_BUS_API_KEY", ""),
		TrainBaseURL: getEnv("CTA_TRAIN_BASE_URL", transit.DefaultTrainBaseURL),
		BusBaseURL:   getEnv("CTA_BUS_BASE_URL", transit.DefaultBusBaseURL),
		AlertsURL:    getEnv("GTFS_ALERTS_URL", ""),

		HTTPTimeout:   getDurationEnv("HTTP_TIMEOUT_SECONDS", 10, time.Second),
		CacheTTL:      getDurationEnv("CACHE_TTL_SECONDS", 120, time.Second),
		DatabasePath:  getEnv("DATABASE_PATH", "data/ctaglass.db"),
		ProbeStations: getListEnv("PROBE_STATIONS", transit.DefaultProbeStations),

		PairingTimeout:     getDurationEnv("PAIRING_TIMEOUT_SECONDS", 30, time.Second),
		SimulatedGlasses:   getBoolEnv("SIMULATED_GLASSES", true),
		SimulatedLinkDelay: getDurationEnv("SIMULATED_GLASSES_DELAY_MS", 1500, time.Millisecond),
	}, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv reads an integer count of unit. Unparseable values fall
// back to the default.
func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return time.Duration(n) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := getEnv(key, ""); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := getEnv(key, "")
	if value == "" {
		return append([]string(nil), defaultValue...)
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
