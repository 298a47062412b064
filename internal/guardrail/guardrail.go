// Package guardrail screens job descriptions for prompt injection before they
// reach the model.
package guardrail

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// SuspiciousKeywords suggest an injection attempt but also occur in honest
// postings, so a match is logged and never blocks.
var SuspiciousKeywords = []string{
	"system prompt",
	"ignore previous",
	"ignore all",
	"disregard above",
	"forget everything",
	"new instructions",
	"roleplay",
	"pretend to be",
}

// blockingPatterns are phrasings with no place in a job description
var blockingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+)?(the\s+)?(previous|prior|above)\s+(instructions?|prompts?)`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+)?(the\s+)?(previous|prior|above)\s+(instructions?|prompts?|text)`),
	regexp.MustCompile(`(?i)forget\s+(all\s+)?(your\s+)?(previous\s+)?(instructions|everything)`),
	regexp.MustCompile(`(?i)new\s+instructions?\s*:`),
	regexp.MustCompile(`(?i)(reveal|print|repeat)\s+(your|the)\s+system\s+prompt`),
}

// InjectionError reports an input rejected by the guardrail
type InjectionError struct {
	Matches []string
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("input looks like a prompt injection attempt: %s", strings.Join(e.Matches, ", "))
}

// CheckResult holds the result of a keyword heuristic check.
type CheckResult struct {
	IsSafe           bool
	DetectedKeywords []string
}

// CheckKeywords performs a basic keyword-based check for obvious injection attempts.
func CheckKeywords(text string) CheckResult {
	lower := strings.ToLower(text)
	var detected []string
	for _, keyword := range SuspiciousKeywords {
		if strings.Contains(lower, keyword) {
			detected = append(detected, keyword)
		}
	}
	return CheckResult{IsSafe: len(detected) == 0, DetectedKeywords: detected}
}

// FindBlocking returns every blocking phrase found in text
func FindBlocking(text string) []string {
	var matches []string
	for _, pattern := range blockingPatterns {
		if m := pattern.FindString(text); m != "" {
			matches = append(matches, m)
		}
	}
	return matches
}

// Heuristic is a pattern-based guardrail
type Heuristic struct {
	logger *zap.Logger
}

// New creates a Heuristic guardrail
func New(logger *zap.Logger) *Heuristic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Heuristic{logger: logger.Named("guardrail")}
}

// Check rejects input containing a blocking phrase with an *InjectionError.
// Suspicious keywords alone are only logged. Context cancellation is left to the
// completion client, which reports it as a timeout.
func (h *Heuristic) Check(_ context.Context, input string) error {
	if matches := FindBlocking(input); len(matches) > 0 {
		h.logger.Warn("rejected input", zap.Strings("matches", matches))
		return &InjectionError{Matches: matches}
	}

	if result := CheckKeywords(input); !result.IsSafe {
		h.logger.Info("suspicious keywords in input", zap.Strings("keywords", result.DetectedKeywords))
	}
	return nil
}
