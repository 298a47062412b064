package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the OpenAI-compatible API root
const DefaultBaseURL = "https://api.openai.com/v1"

// readBufferSize is the size of each body read; frames may span reads
const readBufferSize = 4096

// Message is a provider-agnostic chat message
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ClientOptions configures a Client
type ClientOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client opens streaming chat completions against an OpenAI-compatible endpoint
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new streaming completion client
func NewClient(opts ClientOptions) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		// No client-level timeout: each stream is bounded by its own Config.Timeout
		httpClient = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger.Named("llm"),
	}
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatRequest is the request body. Exactly one of the two token-limit fields is set.
type chatRequest struct {
	Model               string          `json:"model"`
	Messages            []Message       `json:"messages"`
	Temperature         float64         `json:"temperature"`
	MaxTokens           int             `json:"max_tokens,omitempty"`
	MaxCompletionTokens int             `json:"max_completion_tokens,omitempty"`
	Stream              bool            `json:"stream"`
	ResponseFormat      *responseFormat `json:"response_format,omitempty"`
}

func buildRequest(systemPrompt string, messages []Message, cfg Config) chatRequest {
	all := make([]Message, 0, len(messages)+1)
	if systemPrompt != "" {
		all = append(all, Message{Role: "system", Content: systemPrompt})
	}
	all = append(all, messages...)

	req := chatRequest{
		Model:       cfg.Model,
		Messages:    all,
		Temperature: cfg.Temperature,
		Stream:      true,
	}
	if cfg.UsesCompletionTokens() {
		req.MaxCompletionTokens = cfg.MaxTokens
	} else {
		req.MaxTokens = cfg.MaxTokens
	}
	if cfg.StrictJSON {
		req.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return req
}

// Stream opens one streaming completion request. The returned Stream must be
// consumed with Next and released with Close. Every error is an *LLMError.
func (c *Client) Stream(ctx context.Context, systemPrompt string, messages []Message, cfg Config) (*Stream, error) {
	if c.apiKey == "" {
		c.logger.Error("completion requested without an API key")
		return nil, newError(ErrorAPIKeyMissing)
	}
	if err := cfg.Validate(); err != nil {
		c.logger.Error("rejecting completion request", zap.Error(err))
		return nil, newError(ErrorServer)
	}

	body, err := json.Marshal(buildRequest(systemPrompt, messages, cfg))
	if err != nil {
		c.logger.Error("failed to marshal completion request", zap.Error(err))
		return nil, newError(ErrorServer)
	}

	// The timer is armed here and covers both the open and every subsequent read
	streamCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		cancel()
		c.logger.Error("failed to create completion request", zap.Error(err))
		return nil, newError(ErrorServer)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	start := time.Now()
	c.logger.Debug("opening completion stream",
		zap.String("model", cfg.Model),
		zap.Int("messages", len(messages)),
		zap.Duration("timeout", cfg.Timeout))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		llmErr := classifyTransport(streamCtx, err)
		cancel()
		c.logger.Warn("completion request failed",
			zap.String("type", string(llmErr.Type)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, llmErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		cancel()
		llmErr := classifyStatus(resp.StatusCode)
		c.logger.Warn("completion request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("type", string(llmErr.Type)))
		return nil, llmErr
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		cancel()
		c.logger.Warn("completion response has no body", zap.Int("status", resp.StatusCode))
		return nil, newError(ErrorInvalidResponse)
	}

	return &Stream{
		ctx:     streamCtx,
		cancel:  cancel,
		body:    resp.Body,
		decoder: NewDecoder(c.logger),
		buf:     make([]byte, readBufferSize),
		logger:  c.logger,
		start:   start,
	}, nil
}

// Stream is a single-pass, forward-only sequence of text increments.
// It is not restartable: once Next returns false it keeps returning false.
type Stream struct {
	ctx     context.Context
	cancel  context.CancelFunc
	body    io.ReadCloser
	decoder *Decoder
	buf     []byte
	queue   []StreamEvent
	eof     bool

	current     string
	accumulated strings.Builder
	err         *LLMError
	finished    bool

	logger *zap.Logger
	start  time.Time
}

// Next advances to the next non-empty text increment. It blocks on network
// reads and returns false when the stream is complete or has failed; check Err.
func (s *Stream) Next() bool {
	if s.finished {
		return false
	}

	for {
		for len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]

			switch ev.Kind {
			case EventDone:
				s.finish(nil)
				return false
			case EventError:
				s.logger.Warn("completion stream reported an error", zap.String("upstream_message", ev.Message))
				s.finish(newError(ErrorServer))
				return false
			case EventChunk:
				if ev.Content == "" {
					continue
				}
				s.current = ev.Content
				s.accumulated.WriteString(ev.Content)
				return true
			}
		}

		if s.eof {
			// Body ended without a completion marker; treat what arrived as complete
			s.finish(nil)
			return false
		}

		if err := s.ctx.Err(); err != nil {
			s.finish(classifyTransport(s.ctx, err))
			return false
		}

		n, err := s.body.Read(s.buf)
		if n > 0 {
			s.queue = append(s.queue, s.decoder.Feed(string(s.buf[:n]))...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.eof = true
				s.queue = append(s.queue, s.decoder.Flush()...)
				continue
			}
			llmErr := classifyTransport(s.ctx, err)
			s.logger.Warn("completion stream read failed",
				zap.String("type", string(llmErr.Type)),
				zap.Duration("elapsed", time.Since(s.start)),
				zap.Error(err))
			s.finish(llmErr)
			return false
		}
	}
}

// Chunk returns the increment produced by the last successful Next
func (s *Stream) Chunk() string {
	return s.current
}

// Accumulated returns every increment received so far, concatenated
func (s *Stream) Accumulated() string {
	return s.accumulated.String()
}

// Err returns the error that terminated the stream, or nil on clean completion.
// The returned value is always an *LLMError when non-nil.
func (s *Stream) Err() error {
	if s.err == nil {
		return nil
	}
	return s.err
}

// Close releases the connection and the timeout timer. Abandoning a stream
// before completion closes the underlying connection.
func (s *Stream) Close() error {
	if !s.finished {
		s.finish(nil)
	}
	return nil
}

func (s *Stream) finish(err *LLMError) {
	if s.finished {
		return
	}
	s.finished = true
	s.err = err
	s.current = ""
	s.queue = nil
	_ = s.body.Close()
	s.cancel()
	if err == nil {
		s.logger.Debug("completion stream finished",
			zap.Int("chars", s.accumulated.Len()),
			zap.Duration("elapsed", time.Since(s.start)))
	}
}
