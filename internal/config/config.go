// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mjwhite/moneta/internal/domain"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for the sqlite databases (always absolute)
	Port           int
	LogLevel       string
	DevMode        bool
	ScrapeSchedule string // cron spec for the price scrape job
	QuotesFile     string // quote file for the price source; scraping disabled when empty
	App            AppConfig
}

// AppConfig holds the application-level constants that drive the overview
// and fund computations. Defaults match the values the data was originally
// recorded under; override via an optional YAML file (MONETA_APP_CONFIG).
type AppConfig struct {
	EpochYear    int      `yaml:"epoch_year"`    // earliest supported bucket
	EpochMonth   int      `yaml:"epoch_month"`   //
	PastMonths   int      `yaml:"past_months"`   // overview look-back span
	FutureMonths int      `yaml:"future_months"` // overview look-forward span
	Categories   []string `yaml:"categories"`    // category ledger tables
	FutureCats   []string `yaml:"future_categories"` // forecast-eligible (discretionary) categories
	FundSalt     string   `yaml:"fund_salt"`     // salt for fund name hashing
	HistoryDetail int     `yaml:"history_detail"` // target point count for downsampled history
}

// Epoch returns the configured epoch floor bucket.
func (a AppConfig) Epoch() domain.YearMonth {
	return domain.YearMonth{Year: a.EpochYear, Month: a.EpochMonth}
}

// defaultAppConfig mirrors the constants the recorded data was produced
// under. The fund salt in particular must not change once prices have been
// cached, since it takes part in the fund identifier derivation.
func defaultAppConfig() AppConfig {
	return AppConfig{
		EpochYear:     2014,
		EpochMonth:    9,
		PastMonths:    25,
		FutureMonths:  12,
		Categories:    []string{"income", "bills", "food", "general", "holiday", "social"},
		FutureCats:    []string{"food", "general", "holiday", "social"},
		FundSalt:      "a963anx2",
		HistoryDetail: 100,
	}
}

// Load reads configuration from environment variables and the optional
// application config file.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("MONETA_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	app := defaultAppConfig()
	if path := getEnv("MONETA_APP_CONFIG", ""); path != "" {
		if err := loadAppConfig(path, &app); err != nil {
			return nil, err
		}
	}

	if err := validateAppConfig(app); err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:        absDataDir,
		Port:           getEnvAsInt("MONETA_PORT", 3001),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		ScrapeSchedule: getEnv("MONETA_SCRAPE_SCHEDULE", "@every 1h"),
		QuotesFile:     getEnv("MONETA_QUOTES_FILE", ""),
		App:            app,
	}

	return cfg, nil
}

// loadAppConfig overlays values from a YAML file onto the defaults.
// Fields absent from the file keep their default values.
func loadAppConfig(path string, app *AppConfig) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read app config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, app); err != nil {
		return fmt.Errorf("failed to parse app config %s: %w", path, err)
	}
	return nil
}

func validateAppConfig(app AppConfig) error {
	if app.EpochMonth < 1 || app.EpochMonth > 12 {
		return fmt.Errorf("invalid epoch month: %d", app.EpochMonth)
	}
	if app.PastMonths < 0 || app.FutureMonths < 0 {
		return fmt.Errorf("window spans must be non-negative (past=%d, future=%d)",
			app.PastMonths, app.FutureMonths)
	}
	if app.HistoryDetail < 1 {
		return fmt.Errorf("history detail must be at least 1: %d", app.HistoryDetail)
	}
	known := make(map[string]bool, len(app.Categories))
	for _, c := range app.Categories {
		known[c] = true
	}
	for _, c := range app.FutureCats {
		if !known[c] {
			return fmt.Errorf("future category %q is not in the category list", c)
		}
	}
	return nil
}

// getEnv retrieves an environment variable with a fallback
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer with a fallback
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvAsBool retrieves an environment variable as a boolean with a fallback
func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
