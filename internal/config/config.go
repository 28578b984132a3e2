package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Summary modes for the weekly review.
const (
	SummaryModeTemplate = "template"
	SummaryModeLLM      = "llm"
)

// Config holds all configuration for the application.
type Config struct {
	DBPath    string
	APIPort   string
	LogLevel  slog.Level
	LogFormat string

	SearchDebounce  time.Duration
	SearchTimeout   time.Duration
	SearchShardSize int

	SummaryMode  string
	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string

	SeedDemoData bool
}

// envSearchDepth bounds how many parent directories are searched for a .env file.
const envSearchDepth = 5

// Load reads configuration from environment variables, applying defaults for optional
// fields and validating the values that are set. The nearest .env file in the working
// directory or its parents is loaded first; variables already set in the environment win.
func Load() (*Config, error) {
	if wd, err := os.Getwd(); err == nil {
		if path := findDotEnv(wd, envSearchDepth); path != "" {
			_ = godotenv.Load(path)
		}
	}

	cfg := &Config{
		DBPath:       getEnv("DB_PATH", "./data/knowledge.db"),
		APIPort:      getEnv("API_PORT", "9000"),
		LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", "text")),
		SummaryMode:  strings.ToLower(getEnv("SUMMARY_MODE", SummaryModeTemplate)),
		LLMBaseURL:   getEnv("LLM_BASE_URL", "http://localhost:8080"),
		LLMModelName: getEnv("LLM_MODEL", "Llama-3.1-8B-Instruct"),
		LLMAPIKey:    os.Getenv("LLM_API_KEY"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}

	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}

	debounceMS, err := getEnvInt("SEARCH_DEBOUNCE_MS", 800)
	if err != nil {
		return nil, err
	}
	if debounceMS < 0 {
		return nil, fmt.Errorf("SEARCH_DEBOUNCE_MS must not be negative")
	}
	cfg.SearchDebounce = time.Duration(debounceMS) * time.Millisecond

	timeoutMS, err := getEnvInt("SEARCH_TIMEOUT_MS", 10000)
	if err != nil {
		return nil, err
	}
	if timeoutMS <= 0 {
		return nil, fmt.Errorf("SEARCH_TIMEOUT_MS must be greater than 0")
	}
	cfg.SearchTimeout = time.Duration(timeoutMS) * time.Millisecond

	cfg.SearchShardSize, err = getEnvInt("SEARCH_SHARD_SIZE", 5000)
	if err != nil {
		return nil, err
	}
	if cfg.SearchShardSize <= 0 {
		return nil, fmt.Errorf("SEARCH_SHARD_SIZE must be greater than 0")
	}

	if cfg.SummaryMode != SummaryModeTemplate && cfg.SummaryMode != SummaryModeLLM {
		return nil, fmt.Errorf("SUMMARY_MODE must be %s or %s, got %q", SummaryModeTemplate, SummaryModeLLM, cfg.SummaryMode)
	}

	seed := getEnv("SEED_DEMO_DATA", "false")
	cfg.SeedDemoData, err = strconv.ParseBool(seed)
	if err != nil {
		return nil, fmt.Errorf("SEED_DEMO_DATA must be a boolean: %w", err)
	}

	// Create the data directory if it doesn't exist
	dataDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return cfg, nil
}

// NewLogger builds the slog logger described by the config.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: c.LogLevel,
	}
	var handler slog.Handler
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

// findDotEnv returns the path of the first .env file found in dir or up to depth-1 of its
// parents, or "" when there is none.
func findDotEnv(dir string, depth int) string {
	for ; depth > 0; depth-- {
		candidate := filepath.Join(dir, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
	return ""
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}
