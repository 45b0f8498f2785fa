package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string `yaml:"port"`
	Environment  string `yaml:"env"`
	ReadTimeout  int    `yaml:"read_timeout"`
	WriteTimeout int    `yaml:"write_timeout"`

	// Адреса сервисов
	AnalysisURL string `yaml:"analysis_url"`
	WorkshopURL string `yaml:"workshop_url"`

	// Workshop
	DBPath          string `yaml:"db_path"`
	CatalogPath     string `yaml:"catalog_path"`
	FixturesPath    string `yaml:"fixtures_path"`
	SearchDelayMS   int    `yaml:"search_delay_ms"`
	LookupDelayMS   int    `yaml:"lookup_delay_ms"`
	HandoffTTLHours int    `yaml:"handoff_ttl_hours"`
	ProbeTimeout    int    `yaml:"probe_timeout"`
}

// Load загружает конфигурацию: дефолты, затем YAML из CONFIG_FILE, затем переменные окружения.
func Load() *Config {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			// конфиг-файл опционален, сервис стартует на дефолтах
			fmt.Fprintf(os.Stderr, "[CONFIG] %v\n", err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENV", cfg.Environment)
	cfg.ReadTimeout = getEnvAsInt("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.AnalysisURL = getEnv("ANALYSIS_URL", cfg.AnalysisURL)
	cfg.WorkshopURL = getEnv("WORKSHOP_URL", cfg.WorkshopURL)
	cfg.DBPath = getEnv("WORKSHOP_DB_PATH", cfg.DBPath)
	cfg.CatalogPath = getEnv("CATALOG_PATH", cfg.CatalogPath)
	cfg.FixturesPath = getEnv("ANALYSER_FIXTURES", cfg.FixturesPath)
	cfg.SearchDelayMS = getEnvAsInt("SEARCH_DELAY_MS", cfg.SearchDelayMS)
	cfg.LookupDelayMS = getEnvAsInt("LOOKUP_DELAY_MS", cfg.LookupDelayMS)
	cfg.HandoffTTLHours = getEnvAsInt("HANDOFF_TTL_HOURS", cfg.HandoffTTLHours)
	cfg.ProbeTimeout = getEnvAsInt("PROBE_TIMEOUT", cfg.ProbeTimeout)

	return cfg
}

func defaults() *Config {
	return &Config{
		Port:            "3000",
		Environment:     "development",
		ReadTimeout:     10,
		WriteTimeout:    10,
		AnalysisURL:     "http://localhost:3001",
		WorkshopURL:     "http://localhost:3002",
		DBPath:          "data/db/workshop.db",
		SearchDelayMS:   2000,
		LookupDelayMS:   3000,
		HandoffTTLHours: 24,
		ProbeTimeout:    15,
	}
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// SearchDelay: задержка имитации поиска по каталогу.
func (c *Config) SearchDelay() time.Duration {
	return time.Duration(c.SearchDelayMS) * time.Millisecond
}

// LookupDelay: задержка имитации запроса к E3Technical / Partlink24.
func (c *Config) LookupDelay() time.Duration {
	return time.Duration(c.LookupDelayMS) * time.Millisecond
}

func (c *Config) HandoffTTL() time.Duration {
	return time.Duration(c.HandoffTTLHours) * time.Hour
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}
