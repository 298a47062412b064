package llm

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
)

// ErrorType classifies transport and service failures
type ErrorType string

const (
	ErrorNetwork         ErrorType = "network"
	ErrorTimeout         ErrorType = "timeout"
	ErrorServer          ErrorType = "server"
	ErrorRateLimit       ErrorType = "rate_limit"
	ErrorInvalidResponse ErrorType = "invalid_response"
	ErrorAPIKeyMissing   ErrorType = "api_key_missing"
)

// genericMessage is shown for anything that has no entry in userMessages
const genericMessage = "Something went wrong while analyzing. Please try again."

// userMessages is the only source of caller-visible error text.
// Messages never carry credentials, upstream status text or internal diagnostics.
var userMessages = map[ErrorType]string{
	ErrorNetwork:         "Unable to reach the analysis service. Please check your connection and try again.",
	ErrorTimeout:         "The analysis took too long to complete. Please try again.",
	ErrorServer:          "The analysis service encountered an error. Please try again in a moment.",
	ErrorRateLimit:       "Too many analysis requests right now. Please wait a moment and try again.",
	ErrorInvalidResponse: "The analysis service returned an unexpected response. Please try again.",
	ErrorAPIKeyMissing:   "The analysis service is not configured. Please contact the site owner.",
}

// UserMessage returns the fixed user-facing message for an error type
func UserMessage(t ErrorType) string {
	if msg, ok := userMessages[t]; ok {
		return msg
	}
	return genericMessage
}

// LLMError is the single error type surfaced by the streaming client
type LLMError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Retryable bool      `json:"retryable"`
}

func (e *LLMError) Error() string {
	return e.Message
}

// newError builds an LLMError with its message looked up from the fixed table.
// api_key_missing is the only type that is never retryable.
func newError(t ErrorType) *LLMError {
	return &LLMError{
		Type:      t,
		Message:   UserMessage(t),
		Retryable: t != ErrorAPIKeyMissing,
	}
}

// classifyStatus maps a non-success HTTP status to an LLMError
func classifyStatus(status int) *LLMError {
	switch {
	case status == http.StatusTooManyRequests:
		return newError(ErrorRateLimit)
	case status == http.StatusUnauthorized:
		return newError(ErrorAPIKeyMissing)
	default:
		// >= 500 and every other non-success status share the server class
		return newError(ErrorServer)
	}
}

// classifyTransport maps an error from opening or reading the response.
// An aborted request (timeout or cancelled context) is always a timeout;
// any other transport failure is a network error.
func classifyTransport(ctx context.Context, err error) *LLMError {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newError(ErrorTimeout)
	}
	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newError(ErrorNetwork)
	}
	return newError(ErrorServer)
}
