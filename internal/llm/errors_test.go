package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	for _, typ := range []ErrorType{
		ErrorNetwork, ErrorTimeout, ErrorServer, ErrorRateLimit, ErrorInvalidResponse, ErrorAPIKeyMissing,
	} {
		msg := UserMessage(typ)
		assert.NotEmpty(t, msg)
		assert.NotEqual(t, genericMessage, msg, "type %s should have its own message", typ)
	}

	assert.Equal(t, genericMessage, UserMessage("something_new"))
}

func TestNewError_Retryable(t *testing.T) {
	assert.False(t, newError(ErrorAPIKeyMissing).Retryable)
	for _, typ := range []ErrorType{ErrorNetwork, ErrorTimeout, ErrorServer, ErrorRateLimit, ErrorInvalidResponse} {
		assert.True(t, newError(typ).Retryable, "type %s", typ)
	}
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, ErrorRateLimit, classifyStatus(429).Type)
	assert.Equal(t, ErrorAPIKeyMissing, classifyStatus(401).Type)
	assert.Equal(t, ErrorServer, classifyStatus(500).Type)
	assert.Equal(t, ErrorServer, classifyStatus(503).Type)
	assert.Equal(t, ErrorServer, classifyStatus(403).Type)
	assert.Equal(t, ErrorServer, classifyStatus(302).Type)
}

func TestClassifyTransport(t *testing.T) {
	live := context.Background()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	dnsErr := &url.Error{Op: "Post", URL: "https://api.invalid", Err: &net.DNSError{Err: "no such host", Name: "api.invalid"}}

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want ErrorType
	}{
		{"aborted context", cancelled, errors.New("read tcp: use of closed connection"), ErrorTimeout},
		{"deadline error", live, fmt.Errorf("wrapped: %w", context.DeadlineExceeded), ErrorTimeout},
		{"dns failure", live, dnsErr, ErrorNetwork},
		{"net op error", live, &net.OpError{Op: "read", Err: errors.New("connection reset")}, ErrorNetwork},
		{"unexpected eof", live, io.ErrUnexpectedEOF, ErrorNetwork},
		{"anything else", live, errors.New("boom"), ErrorServer},
		{"already classified", live, newError(ErrorRateLimit), ErrorRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTransport(tt.ctx, tt.err)
			assert.Equal(t, tt.want, got.Type)
			assert.Equal(t, UserMessage(tt.want), got.Message)
		})
	}
}

func TestLLMError_ErrorIsUserMessage(t *testing.T) {
	err := newError(ErrorRateLimit)
	assert.Equal(t, UserMessage(ErrorRateLimit), err.Error())
}
