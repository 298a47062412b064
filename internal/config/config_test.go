package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_ValidJSON(t *testing.T) {
	content := `{
		"addr": ":9090",
		"model": "gpt-4o",
		"max_tokens": 2048,
		"storage": "sqlite",
		"sqlite_path": "/tmp/fit.db",
		"log_json": true
	}`

	cfg, err := LoadConfig(writeConfig(t, "config.json", content))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 2048, cfg.MaxTokens)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, "/tmp/fit.db", cfg.SQLitePath)
	assert.True(t, cfg.LogJSON)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	content := "model: o3-mini\ntemperature: 0.7\ntimeout: 90s\nstorage: redis\nredis_url: redis://localhost:6379/0\n"

	for _, name := range []string{"config.yaml", "config.yml"} {
		t.Run(name, func(t *testing.T) {
			cfg, err := LoadConfig(writeConfig(t, name, content))
			require.NoError(t, err)

			assert.Equal(t, "o3-mini", cfg.Model)
			assert.Equal(t, 0.7, cfg.Temperature)
			assert.Equal(t, "90s", cfg.Timeout)
			assert.Equal(t, StorageRedis, cfg.Storage)
			assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
		})
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "config.json", `{ invalid json }`))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config JSON")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "config.yaml", "model: [unterminated\n"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "config path is empty")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"zero config", Config{}, ""},
		{"defaults", Defaults(), ""},
		{"unknown storage", Config{Storage: "memcached"}, "'storage'"},
		{"redis without url", Config{Storage: StorageRedis}, "'redis_url'"},
		{"postgres without url", Config{Storage: StoragePostgres}, "'database_url'"},
		{"postgres with url", Config{Storage: StoragePostgres, DatabaseURL: "postgres://localhost/fit"}, ""},
		{"temperature too high", Config{Temperature: 2.5}, "'temperature'"},
		{"negative max tokens", Config{MaxTokens: -1}, "'max_tokens'"},
		{"negative history", Config{HistoryMax: -3}, "'history_max'"},
		{"bad addr", Config{Addr: "not an address"}, "'addr'"},
		{"bad base url", Config{BaseURL: "::nope"}, "'base_url'"},
		{"bad log level", Config{LogLevel: "loud"}, "'log_level'"},
		{"bad timeout", Config{Timeout: "soon"}, "'timeout' is not a duration"},
		{"negative timeout", Config{Timeout: "-5s"}, "'timeout' must be positive"},
		{"missing profile", Config{ProfilePath: "/nonexistent/profile.md"}, "profile file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), "config error")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	defaults := Config{
		Addr:       ":8080",
		Model:      "default-model",
		MaxTokens:  4096,
		HistoryMax: 5,
		LogJSON:    true,
	}

	partial := Config{
		Model:  "custom-model",
		APIKey: "sk-custom",
	}

	merged := partial.MergeWithDefaults(defaults)

	// Custom values should be preserved
	assert.Equal(t, "custom-model", merged.Model)
	assert.Equal(t, "sk-custom", merged.APIKey)

	// Default values should fill in empty fields
	assert.Equal(t, ":8080", merged.Addr)
	assert.Equal(t, 4096, merged.MaxTokens)
	assert.Equal(t, 5, merged.HistoryMax)
	assert.True(t, merged.LogJSON)

	// The receiver is not modified
	assert.Empty(t, partial.Addr)
}

func TestMergeWithDefaults_EmptyDefaults(t *testing.T) {
	cfg := Config{Model: "m", Storage: StorageSession}

	merged := cfg.MergeWithDefaults(Config{})

	assert.Equal(t, cfg, merged)
}

func TestFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("FIT_ADDR", "")
	t.Setenv("PORT", "3000")
	t.Setenv("FIT_MODEL", "gpt-4o")
	t.Setenv("FIT_TEMPERATURE", "0.9")
	t.Setenv("FIT_MAX_TOKENS", "not-a-number")
	t.Setenv("FIT_HISTORY_MAX", "7")
	t.Setenv("FIT_STORAGE", "postgres")
	t.Setenv("DATABASE_URL", "postgres://env/fit")
	t.Setenv("LOG_JSON", "true")

	cfg := FromEnv()

	assert.Equal(t, "sk-env", cfg.APIKey)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 0.9, cfg.Temperature)
	assert.Zero(t, cfg.MaxTokens, "unparsable numbers are ignored")
	assert.Equal(t, 7, cfg.HistoryMax)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, "postgres://env/fit", cfg.DatabaseURL)
	assert.True(t, cfg.LogJSON)
}

func TestLoad_Layering(t *testing.T) {
	t.Setenv("FIT_MODEL", "env-model")
	t.Setenv("FIT_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("FIT_STORAGE", "")
	t.Setenv("FIT_TIMEOUT", "")
	path := writeConfig(t, "config.yaml", "model: file-model\naddr: \":7070\"\ntimeout: 30s\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-model", cfg.Model, "environment wins over the file")
	assert.Equal(t, ":7070", cfg.Addr, "file wins over defaults")
	assert.Equal(t, StorageSession, cfg.Storage, "defaults fill the rest")
	assert.Equal(t, 5, cfg.HistoryMax)
}

func TestLoad_InvalidFails(t *testing.T) {
	t.Setenv("FIT_STORAGE", "redis")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load("")
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis_url")
}

func TestLLMConfig(t *testing.T) {
	cfg := Config{Model: "o3-mini", MaxTokens: 1000, Timeout: "15s"}

	out := cfg.LLMConfig()

	assert.Equal(t, "o3-mini", out.Model)
	assert.Equal(t, 1000, out.MaxTokens)
	assert.Equal(t, 15*time.Second, out.Timeout)
	assert.True(t, out.StrictJSON)
	assert.NoError(t, out.Validate())

	// Unparsable timeouts keep the default
	out = (&Config{Timeout: "whenever"}).LLMConfig()
	assert.Greater(t, out.Timeout, time.Duration(0))
}
