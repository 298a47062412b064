// Package llm - util.go provides shared utilities for LLM response processing.
package llm

import (
	"encoding/json"
	"strings"
)

// CleanJSONBlock removes markdown code block wrappers, conversational preamble and
// trailing chatter from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// Handle generic ``` ... ``` blocks
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	if json.Valid([]byte(text)) {
		return text
	}
	if extracted := extractFirstJSON(text); extracted != "" {
		return extracted
	}
	return text
}

// extractFirstJSON returns the first balanced, valid JSON object found in text,
// falling back to the first valid array. Bracketed notes such as "[1]" in a
// preamble never win over an object.
func extractFirstJSON(text string) string {
	if candidate := firstValid(text, '{', extractJSONObject); candidate != "" {
		return candidate
	}
	return firstValid(text, '[', extractJSONArray)
}

func firstValid(text string, open byte, extract func(string) string) string {
	for i := strings.IndexByte(text, open); i >= 0; {
		if candidate := extract(text[i:]); candidate != "" && json.Valid([]byte(candidate)) {
			return candidate
		}
		next := strings.IndexByte(text[i+1:], open)
		if next < 0 {
			break
		}
		i += next + 1
	}
	return ""
}

// extractJSONObject returns the balanced {...} prefix of s, or "" if s does not start with one
func extractJSONObject(s string) string {
	return extractBalanced(s, '{', '}')
}

// extractJSONArray returns the balanced [...] prefix of s, or "" if s does not start with one
func extractJSONArray(s string) string {
	return extractBalanced(s, '[', ']')
}

func extractBalanced(s string, open, closing byte) string {
	if len(s) == 0 || s[0] != open {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}
