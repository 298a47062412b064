// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/portfolio-fit/internal/llm"
)

// Storage backends for the history medium
const (
	StorageSession  = "session"
	StorageRedis    = "redis"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
)

// Config represents the configuration that can be loaded from a JSON or YAML file
// and overlaid with environment variables. All fields are optional; zero values
// fall back to Defaults.
type Config struct {
	// Server
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" validate:"omitempty,hostname_port"`

	// Completion provider
	APIKey      string  `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL     string  `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Model       string  `json:"model,omitempty" yaml:"model,omitempty"`
	Temperature float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" validate:"gte=0,lte=2"` // zero means default
	MaxTokens   int     `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" validate:"gte=0"`
	Timeout     string  `json:"timeout,omitempty" yaml:"timeout,omitempty"` // Go duration, e.g. "60s"

	// Candidate profile embedded into the system prompt
	ProfilePath string `json:"profile_path,omitempty" yaml:"profile_path,omitempty"`

	// History storage
	Storage     string `json:"storage,omitempty" yaml:"storage,omitempty" validate:"omitempty,oneof=session redis sqlite postgres"`
	RedisURL    string `json:"redis_url,omitempty" yaml:"redis_url,omitempty" validate:"required_if=Storage redis"`
	SQLitePath  string `json:"sqlite_path,omitempty" yaml:"sqlite_path,omitempty" validate:"required_if=Storage sqlite"`
	DatabaseURL string `json:"database_url,omitempty" yaml:"database_url,omitempty" validate:"required_if=Storage postgres"`
	HistoryMax  int    `json:"history_max,omitempty" yaml:"history_max,omitempty" validate:"gte=0"`

	// Logging
	LogLevel string `json:"log_level,omitempty" yaml:"log_level,omitempty" validate:"omitempty,oneof=debug info warn warning error"`
	LogJSON  bool   `json:"log_json,omitempty" yaml:"log_json,omitempty"`
	LogFile  string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

// Defaults returns the built-in configuration
func Defaults() Config {
	llmDefaults := llm.DefaultConfig()
	return Config{
		Addr:        ":8080",
		BaseURL:     llm.DefaultBaseURL,
		Model:       llmDefaults.Model,
		Temperature: llmDefaults.Temperature,
		MaxTokens:   llmDefaults.MaxTokens,
		Timeout:     llmDefaults.Timeout.String(),
		Storage:     StorageSession,
		SQLitePath:  filepath.Join("data", "history.db"),
		HistoryMax:  5,
		LogLevel:    "info",
	}
}

// LoadConfig loads configuration from a JSON or YAML file, chosen by extension.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// FromEnv reads configuration from environment variables. Unset variables
// leave the corresponding field zero.
func FromEnv() Config {
	cfg := Config{
		Addr:        os.Getenv("FIT_ADDR"),
		APIKey:      os.Getenv("OPENAI_API_KEY"),
		BaseURL:     os.Getenv("OPENAI_BASE_URL"),
		Model:       os.Getenv("FIT_MODEL"),
		Timeout:     os.Getenv("FIT_TIMEOUT"),
		ProfilePath: os.Getenv("FIT_PROFILE"),
		Storage:     os.Getenv("FIT_STORAGE"),
		RedisURL:    os.Getenv("REDIS_URL"),
		SQLitePath:  os.Getenv("FIT_SQLITE_PATH"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFile:     os.Getenv("LOG_FILE"),
	}
	if port := os.Getenv("PORT"); cfg.Addr == "" && port != "" {
		cfg.Addr = ":" + port
	}
	if v, err := strconv.ParseFloat(os.Getenv("FIT_TEMPERATURE"), 64); err == nil {
		cfg.Temperature = v
	}
	if v, err := strconv.Atoi(os.Getenv("FIT_MAX_TOKENS")); err == nil {
		cfg.MaxTokens = v
	}
	if v, err := strconv.Atoi(os.Getenv("FIT_HISTORY_MAX")); err == nil {
		cfg.HistoryMax = v
	}
	if v, err := strconv.ParseBool(os.Getenv("LOG_JSON")); err == nil {
		cfg.LogJSON = v
	}
	return cfg
}

// Load layers configuration: environment over the optional file over Defaults.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := FromEnv()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = cfg.MergeWithDefaults(*fileCfg)
	}
	cfg = cfg.MergeWithDefaults(Defaults())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their config key rather than the Go name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks that the configuration has valid values.
// Note: zero values are accepted since they are filled by MergeWithDefaults.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' validation", fe.Field(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("config error: 'timeout' is not a duration: %s", c.Timeout)
		}
		if d <= 0 {
			return fmt.Errorf("config error: 'timeout' must be positive")
		}
	}

	if c.ProfilePath != "" {
		if _, err := os.Stat(c.ProfilePath); os.IsNotExist(err) {
			return fmt.Errorf("config error: profile file not found: %s", c.ProfilePath)
		}
	}

	return nil
}

type stringField struct {
	dst *string
	src string
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	strs := []stringField{
		{&result.Addr, defaults.Addr},
		{&result.APIKey, defaults.APIKey},
		{&result.BaseURL, defaults.BaseURL},
		{&result.Model, defaults.Model},
		{&result.Timeout, defaults.Timeout},
		{&result.ProfilePath, defaults.ProfilePath},
		{&result.Storage, defaults.Storage},
		{&result.RedisURL, defaults.RedisURL},
		{&result.SQLitePath, defaults.SQLitePath},
		{&result.DatabaseURL, defaults.DatabaseURL},
		{&result.LogLevel, defaults.LogLevel},
		{&result.LogFile, defaults.LogFile},
	}
	for _, s := range strs {
		if *s.dst == "" {
			*s.dst = s.src
		}
	}

	// Numeric fields: use default if zero
	if result.Temperature == 0 {
		result.Temperature = defaults.Temperature
	}
	if result.MaxTokens == 0 {
		result.MaxTokens = defaults.MaxTokens
	}
	if result.HistoryMax == 0 {
		result.HistoryMax = defaults.HistoryMax
	}

	// Bool fields: cannot distinguish unset from false, so true wins
	result.LogJSON = result.LogJSON || defaults.LogJSON

	return result
}

// LLMConfig converts the completion settings into a request config.
// Unset or unparsable values keep the llm defaults.
func (c *Config) LLMConfig() llm.Config {
	out := llm.DefaultConfig()
	if c.Model != "" {
		out.Model = c.Model
	}
	if c.Temperature != 0 {
		out.Temperature = c.Temperature
	}
	if c.MaxTokens != 0 {
		out.MaxTokens = c.MaxTokens
	}
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		out.Timeout = d
	}
	return out
}
