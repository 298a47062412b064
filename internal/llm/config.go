// Package llm provides the streaming completion client used for fit analysis:
// SSE frame decoding, request configuration and a fixed error taxonomy.
package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultModel is used when no model is configured
	DefaultModel = "gpt-4o-mini"
	// DefaultTimeout bounds one full analysis stream
	DefaultTimeout = 60 * time.Second
)

// completionTokenPrefixes lists model families that reject max_tokens and
// require max_completion_tokens instead.
var completionTokenPrefixes = []string{"o1", "o3", "o4", "gpt-5"}

// Config holds the per-request completion settings
type Config struct {
	Model       string        `json:"model" validate:"required"`
	Temperature float64       `json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `json:"max_tokens" validate:"gt=0"`
	Timeout     time.Duration `json:"timeout" validate:"gt=0"`
	StrictJSON  bool          `json:"strict_json"` // request a JSON object response format
}

// DefaultConfig returns the configuration used for match assessments
func DefaultConfig() Config {
	return Config{
		Model:       DefaultModel,
		Temperature: 0.3,
		MaxTokens:   4096,
		Timeout:     DefaultTimeout,
		StrictJSON:  true,
	}
}

var validate = validator.New()

// Validate checks the configuration ranges
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid completion config: %w", err)
	}
	return nil
}

// WithModel returns a copy of c using a different model
func (c Config) WithModel(model string) Config {
	c.Model = model
	return c
}

// UsesCompletionTokens reports whether the model family expects
// max_completion_tokens rather than max_tokens.
func (c Config) UsesCompletionTokens() bool {
	model := strings.ToLower(c.Model)
	// Provider-qualified names such as "openai/o3-mini" are matched on the model part
	if idx := strings.LastIndex(model, "/"); idx >= 0 {
		model = model[idx+1:]
	}
	for _, prefix := range completionTokenPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
