package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setEnv sets an environment variable, ignoring errors (for test setup)
func setEnv(key, value string) {
	_ = os.Setenv(key, value)
}

// unsetEnv unsets an environment variable, ignoring errors (for test cleanup)
func unsetEnv(key string) {
	_ = os.Unsetenv(key)
}

var envVars = []string{
	"DB_PATH", "API_PORT", "LOG_LEVEL", "LOG_FORMAT",
	"SEARCH_DEBOUNCE_MS", "SEARCH_TIMEOUT_MS", "SEARCH_SHARD_SIZE",
	"SUMMARY_MODE", "LLM_BASE_URL", "LLM_API_KEY", "LLM_MODEL", "SEED_DEMO_DATA",
}

// isolateEnv clears the config env vars and moves into a temp dir without a .env file.
func isolateEnv(t *testing.T) {
	t.Helper()

	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		unsetEnv(key)
	}

	originalWd, _ := os.Getwd()
	_ = os.Chdir(t.TempDir())

	t.Cleanup(func() {
		_ = os.Chdir(originalWd)
		for key, value := range originalEnv {
			if value != "" {
				setEnv(key, value)
			} else {
				unsetEnv(key)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		setupEnv    func(*testing.T)
		wantErr     bool
		checkConfig func(*Config) bool
	}{
		{
			name:     "defaults",
			setupEnv: func(t *testing.T) {},
			wantErr:  false,
			checkConfig: func(cfg *Config) bool {
				return cfg.DBPath == "./data/knowledge.db" &&
					cfg.APIPort == "9000" &&
					cfg.LogLevel == slog.LevelInfo &&
					cfg.LogFormat == "text" &&
					cfg.SearchDebounce == 800*time.Millisecond &&
					cfg.SearchTimeout == 10*time.Second &&
					cfg.SearchShardSize == 5000 &&
					cfg.SummaryMode == SummaryModeTemplate &&
					cfg.LLMBaseURL == "http://localhost:8080" &&
					cfg.LLMModelName == "Llama-3.1-8B-Instruct" &&
					cfg.LLMAPIKey == "" &&
					!cfg.SeedDemoData
			},
		},
		{
			name: "custom values",
			setupEnv: func(t *testing.T) {
				setEnv("DB_PATH", filepath.Join(t.TempDir(), "custom", "db.db"))
				setEnv("API_PORT", "8088")
				setEnv("LOG_LEVEL", "debug")
				setEnv("LOG_FORMAT", "JSON")
				setEnv("SEARCH_DEBOUNCE_MS", "0")
				setEnv("SEARCH_TIMEOUT_MS", "250")
				setEnv("SEARCH_SHARD_SIZE", "100")
				setEnv("SUMMARY_MODE", "llm")
				setEnv("SEED_DEMO_DATA", "true")
			},
			wantErr: false,
			checkConfig: func(cfg *Config) bool {
				return filepath.Base(cfg.DBPath) == "db.db" &&
					cfg.APIPort == "8088" &&
					cfg.LogLevel == slog.LevelDebug &&
					cfg.LogFormat == "json" &&
					cfg.SearchDebounce == 0 &&
					cfg.SearchTimeout == 250*time.Millisecond &&
					cfg.SearchShardSize == 100 &&
					cfg.SummaryMode == SummaryModeLLM &&
					cfg.SeedDemoData
			},
		},
		{
			name:     "invalid LOG_LEVEL",
			setupEnv: func(t *testing.T) { setEnv("LOG_LEVEL", "loud") },
			wantErr:  true,
		},
		{
			name:     "invalid LOG_FORMAT",
			setupEnv: func(t *testing.T) { setEnv("LOG_FORMAT", "xml") },
			wantErr:  true,
		},
		{
			name:     "invalid SEARCH_DEBOUNCE_MS",
			setupEnv: func(t *testing.T) { setEnv("SEARCH_DEBOUNCE_MS", "soon") },
			wantErr:  true,
		},
		{
			name:     "negative SEARCH_DEBOUNCE_MS",
			setupEnv: func(t *testing.T) { setEnv("SEARCH_DEBOUNCE_MS", "-1") },
			wantErr:  true,
		},
		{
			name:     "zero SEARCH_TIMEOUT_MS",
			setupEnv: func(t *testing.T) { setEnv("SEARCH_TIMEOUT_MS", "0") },
			wantErr:  true,
		},
		{
			name:     "zero SEARCH_SHARD_SIZE",
			setupEnv: func(t *testing.T) { setEnv("SEARCH_SHARD_SIZE", "0") },
			wantErr:  true,
		},
		{
			name:     "unknown SUMMARY_MODE",
			setupEnv: func(t *testing.T) { setEnv("SUMMARY_MODE", "magic") },
			wantErr:  true,
		},
		{
			name:     "invalid SEED_DEMO_DATA",
			setupEnv: func(t *testing.T) { setEnv("SEED_DEMO_DATA", "maybe") },
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)
			tt.setupEnv(t)

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if cfg == nil {
				t.Fatal("Load() returned nil config")
			}

			if tt.checkConfig != nil && !tt.checkConfig(cfg) {
				t.Errorf("Load() config validation failed: %+v", cfg)
			}
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	isolateEnv(t)

	if err := os.WriteFile(".env", []byte("API_PORT=7777\nSUMMARY_MODE=llm\n"), 0o644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}
	t.Cleanup(func() {
		unsetEnv("API_PORT")
		unsetEnv("SUMMARY_MODE")
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIPort != "7777" {
		t.Errorf("Load() APIPort = %v, want 7777", cfg.APIPort)
	}
	if cfg.SummaryMode != SummaryModeLLM {
		t.Errorf("Load() SummaryMode = %v, want %v", cfg.SummaryMode, SummaryModeLLM)
	}
}

func TestLoad_CreatesDataDirectory(t *testing.T) {
	isolateEnv(t)

	dbPath := filepath.Join(t.TempDir(), "test", "db.db")
	setEnv("DB_PATH", dbPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	dir := filepath.Dir(dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Errorf("Load() should create data directory: %v", err)
	}

	if cfg.DBPath != dbPath {
		t.Errorf("Load() DBPath = %v, want %v", cfg.DBPath, dbPath)
	}
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		debugs bool
	}{
		{name: "text info", cfg: Config{LogFormat: "text", LogLevel: slog.LevelInfo}, debugs: false},
		{name: "json debug", cfg: Config{LogFormat: "json", LogLevel: slog.LevelDebug}, debugs: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := tt.cfg.NewLogger()
			if logger == nil {
				t.Fatal("NewLogger() returned nil")
			}
			if got := logger.Enabled(t.Context(), slog.LevelDebug); got != tt.debugs {
				t.Errorf("NewLogger() debug enabled = %v, want %v", got, tt.debugs)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	originalValue := os.Getenv("TEST_ENV_VAR")
	defer func() {
		if originalValue != "" {
			setEnv("TEST_ENV_VAR", originalValue)
		} else {
			unsetEnv("TEST_ENV_VAR")
		}
	}()

	tests := []struct {
		name         string
		setupEnv     func()
		key          string
		defaultValue string
		want         string
	}{
		{
			name:         "env var set",
			setupEnv:     func() { setEnv("TEST_ENV_VAR", "set-value") },
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "set-value",
		},
		{
			name:         "env var not set",
			setupEnv:     func() { unsetEnv("TEST_ENV_VAR") },
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name:         "empty env var uses default",
			setupEnv:     func() { setEnv("TEST_ENV_VAR", "") },
			key:          "TEST_ENV_VAR",
			defaultValue: "default",
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setupEnv()
			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestFindDotEnv(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	envPath := filepath.Join(root, "a", ".env")
	if err := os.WriteFile(envPath, []byte("API_PORT=1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	// A directory named .env is not a candidate.
	if err := os.Mkdir(filepath.Join(root, "a", "b", ".env"), 0o755); err != nil {
		t.Fatalf("Mkdir() error = %v", err)
	}

	tests := []struct {
		name  string
		dir   string
		depth int
		want  string
	}{
		{name: "found in parent", dir: nested, depth: 5, want: envPath},
		{name: "same directory", dir: filepath.Join(root, "a"), depth: 1, want: envPath},
		{name: "beyond depth", dir: nested, depth: 2, want: ""},
		{name: "zero depth", dir: nested, depth: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findDotEnv(tt.dir, tt.depth); got != tt.want {
				t.Errorf("findDotEnv() = %q, want %q", got, tt.want)
			}
		})
	}
}
