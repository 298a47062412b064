package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio-fit/internal/guardrail"
	"github.com/jonathan/portfolio-fit/internal/history"
	"github.com/jonathan/portfolio-fit/internal/ids"
	"github.com/jonathan/portfolio-fit/internal/llm"
	"github.com/jonathan/portfolio-fit/internal/parsing"
	"github.com/jonathan/portfolio-fit/internal/progress"
	"github.com/jonathan/portfolio-fit/internal/storage"
	"github.com/jonathan/portfolio-fit/internal/types"
)

const jobDescription = "Senior Go engineer to build streaming data pipelines on Kubernetes."

const modelOutput = `{"confidence":"strong","alignments":[{"area":"Streaming systems","explanation":"Built Kafka pipelines","evidence":[{"source":"Experience: Staff Engineer at Acme","detail":"Owned ingestion"},{"source":"Project: Ledger","detail":"Exactly-once writes"}]}],"gaps":[{"area":"Kubernetes operators","explanation":"No operator work","severity":"minor"}],"recommendation":{"verdict":"proceed","summary":"Strong fit","reasoning":"Core skills match"}}`

// splitEvery cuts s into pieces of n bytes
func splitEvery(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	return append(out, s)
}

// fakeLLM serves pieces as an OpenAI-compatible event stream
func fakeLLM(t *testing.T, pieces []string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, p := range pieces {
			frame, err := json.Marshal(map[string]any{
				"choices": []any{map[string]any{"delta": map[string]string{"content": p}}},
			})
			require.NoError(t, err)
			_, _ = io.WriteString(w, "data: "+string(frame)+"\n\n")
			flusher.Flush()
		}
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRunner(baseURL string, store *history.Store) *Runner {
	cfg := llm.DefaultConfig()
	cfg.Timeout = 5 * time.Second
	return &Runner{
		Client: llm.NewClient(llm.ClientOptions{APIKey: "test-key", BaseURL: baseURL}),
		Store:  store,
		Config: cfg,
		NewID:  ids.Sequence("id"),
		Now:    func() time.Time { return time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC) },
	}
}

func recordEvents(events *[]Event) EventCallback {
	return func(e Event) { *events = append(*events, e) }
}

func eventsOfType(events []Event, typ EventType) []Event {
	var out []Event
	for _, e := range events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func TestRun_Success(t *testing.T) {
	pieces := splitEvery(modelOutput, 7)
	srv := fakeLLM(t, pieces)
	store := history.NewStore(storage.NewSession(time.Minute, time.Minute))
	runner := newRunner(srv.URL, store)

	var events []Event
	result, err := runner.Run(context.Background(), RunOptions{
		JobDescription: jobDescription,
		OnEvent:        recordEvents(&events),
	})
	require.NoError(t, err)

	require.NotEmpty(t, events)
	assert.Equal(t, Event{Type: EventProgress, Phase: progress.PhasePreparing, Message: progress.PhasePreparing.Label()}, events[0])
	last := events[len(events)-1]
	assert.Equal(t, EventComplete, last.Type)
	assert.Same(t, result.Assessment, last.Assessment)

	var streamed strings.Builder
	for _, e := range eventsOfType(events, EventChunk) {
		streamed.WriteString(e.Content)
	}
	assert.Equal(t, modelOutput, streamed.String(), "chunks arrive complete and in order")
	assert.Len(t, eventsOfType(events, EventChunk), len(pieces))
	assert.Equal(t, modelOutput, result.Raw)

	var phases []progress.Phase
	for _, e := range eventsOfType(events, EventProgress) {
		phases = append(phases, e.Phase)
	}
	assert.Equal(t, progress.Phases(), phases, "every phase reported once, in order")

	assert.Len(t, eventsOfType(events, EventDone), 1)
	assert.Empty(t, eventsOfType(events, EventError))

	a := result.Assessment
	assert.Equal(t, types.ConfidenceStrong, a.ConfidenceScore)
	require.Len(t, a.AlignmentAreas, 1)
	assert.Equal(t, types.EvidenceExperience, a.AlignmentAreas[0].Evidence[0].Type)
	assert.Equal(t, types.EvidenceProject, a.AlignmentAreas[0].Evidence[1].Type)
	assert.Equal(t, "id-3", a.ID)

	assert.True(t, result.Saved)
	entries := store.Load(context.Background())
	require.Len(t, entries, 1)
	assert.Equal(t, a.ID, entries[0].Assessment.ID)
	assert.Equal(t, jobDescription, entries[0].JobDescriptionFull)
}

func TestRun_FinalizingEmittedAfterDone(t *testing.T) {
	// No "reasoning" key, so finalizing is only reached once the stream ends
	srv := fakeLLM(t, []string{`{"confidence":"limited","alignments":[],"gaps":[],"recommendation":{"verdict":"reconsider","summary":"no","details":"x"}}`})
	runner := newRunner(srv.URL, nil)

	var events []Event
	_, err := runner.Run(context.Background(), RunOptions{JobDescription: jobDescription, OnEvent: recordEvents(&events)})
	require.Error(t, err, "reasoning is required")

	var kinds []EventType
	for _, e := range events {
		kinds = append(kinds, e.Type)
	}
	doneAt := indexOf(kinds, EventDone)
	require.GreaterOrEqual(t, doneAt, 0)
	require.Greater(t, len(events), doneAt+2)
	assert.Equal(t, Event{Type: EventProgress, Phase: progress.PhaseFinalizing, Message: progress.PhaseFinalizing.Label()}, events[doneAt+1])
	assert.Equal(t, EventError, events[doneAt+2].Type)
}

func indexOf(kinds []EventType, want EventType) int {
	for i, typ := range kinds {
		if typ == want {
			return i
		}
	}
	return -1
}

func TestRun_ParseFailureIsRetryableError(t *testing.T) {
	srv := fakeLLM(t, []string{"I'm sorry, ", "I can't help with that."})
	store := history.NewStore(storage.NewSession(time.Minute, time.Minute))
	runner := newRunner(srv.URL, store)

	var events []Event
	result, err := runner.Run(context.Background(), RunOptions{JobDescription: jobDescription, OnEvent: recordEvents(&events)})
	assert.Nil(t, result)

	var pe *parsing.ParseError
	require.True(t, errors.As(err, &pe))

	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Equal(t, "Failed to parse structured response", last.Message)
	assert.True(t, last.Retryable)
	assert.Empty(t, eventsOfType(events, EventComplete))
	assert.Equal(t, 0, store.Count(context.Background()))
}

func TestRun_UnauthorizedIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided: test-key"}}`)
	}))
	defer srv.Close()
	runner := newRunner(srv.URL, nil)

	var events []Event
	_, err := runner.Run(context.Background(), RunOptions{JobDescription: jobDescription, OnEvent: recordEvents(&events)})

	var llmErr *llm.LLMError
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.ErrorAPIKeyMissing, llmErr.Type)

	require.Len(t, events, 2)
	assert.Equal(t, EventProgress, events[0].Type)
	assert.Equal(t, Event{Type: EventError, Message: llm.UserMessage(llm.ErrorAPIKeyMissing), Retryable: false}, events[1])
	assert.NotContains(t, events[1].Message, "test-key")
}

func TestRun_RateLimitedIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	runner := newRunner(srv.URL, nil)

	var events []Event
	_, err := runner.Run(context.Background(), RunOptions{JobDescription: jobDescription, OnEvent: recordEvents(&events)})
	require.Error(t, err)

	errEvents := eventsOfType(events, EventError)
	require.Len(t, errEvents, 1)
	assert.True(t, errEvents[0].Retryable)
	assert.Equal(t, llm.UserMessage(llm.ErrorRateLimit), errEvents[0].Message)
}

type rejectAll struct{}

func (rejectAll) Check(context.Context, string) error { return errors.New("prompt injection detected") }

func TestRun_GuardrailRejectsBeforeRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	runner := newRunner(srv.URL, nil)
	runner.Guardrail = rejectAll{}

	var events []Event
	_, err := runner.Run(context.Background(), RunOptions{JobDescription: jobDescription, OnEvent: recordEvents(&events)})

	var rejected *RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, int32(0), calls.Load())

	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.False(t, last.Retryable)
	assert.NotContains(t, last.Message, "injection")
}

func TestRun_CancelledBeforeStartIsTimeout(t *testing.T) {
	srv := fakeLLM(t, []string{modelOutput})
	runner := newRunner(srv.URL, nil)
	runner.Guardrail = guardrail.New(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var events []Event
	_, err := runner.Run(ctx, RunOptions{JobDescription: jobDescription, OnEvent: recordEvents(&events)})

	var rejected *RejectedError
	assert.False(t, errors.As(err, &rejected), "cancellation is not a guardrail rejection")
	var llmErr *llm.LLMError
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.ErrorTimeout, llmErr.Type)

	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.True(t, last.Retryable)
}

func TestRun_SessionStoreOverride(t *testing.T) {
	srv := fakeLLM(t, []string{modelOutput})
	medium := storage.NewSession(time.Minute, time.Minute)
	base := history.NewStore(medium)
	runner := newRunner(srv.URL, base)

	session := base.ForSession("visitor-1")
	result, err := runner.Run(context.Background(), RunOptions{JobDescription: jobDescription, Store: session})
	require.NoError(t, err, "a nil callback is allowed")
	assert.True(t, result.Saved)

	assert.Equal(t, 1, session.Count(context.Background()))
	assert.Equal(t, 0, base.Count(context.Background()))
}

func TestEvent_JSONShape(t *testing.T) {
	data, err := json.Marshal(Event{Type: EventChunk, Content: `{"conf`})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"chunk","content":"{\"conf"}`, string(data))

	data, err = json.Marshal(Event{Type: EventDone})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"done"}`, string(data))
}
