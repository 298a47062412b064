package llm

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// EventKind tags a StreamEvent
type EventKind string

const (
	EventChunk EventKind = "chunk"
	EventDone  EventKind = "done"
	EventError EventKind = "error"
)

const (
	dataPrefix = "data:"
	doneMarker = "[DONE]"
)

// StreamEvent is one decoded frame of the completion stream.
// Content is set for chunks, Message for errors.
type StreamEvent struct {
	Kind    EventKind
	Content string
	Message string
}

// chunkPayload is the OpenAI-compatible shape of a streamed data line
type chunkPayload struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Decoder turns arbitrarily split text fragments into complete StreamEvents.
// It holds exactly one pending partial line between calls.
type Decoder struct {
	pending string
	logger  *zap.Logger
}

// NewDecoder creates a Decoder. A nil logger discards diagnostics.
func NewDecoder(logger *zap.Logger) *Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{logger: logger}
}

// Feed appends fragment to the pending buffer and returns the events for every
// line the fragment completed, in source order.
func (d *Decoder) Feed(fragment string) []StreamEvent {
	d.pending += fragment
	lines := strings.Split(d.pending, "\n")
	d.pending = lines[len(lines)-1]

	var events []StreamEvent
	for _, line := range lines[:len(lines)-1] {
		if ev, ok := d.decodeLine(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Flush decodes whatever is left in the buffer as a final line.
// Call it once the underlying body has been fully read.
func (d *Decoder) Flush() []StreamEvent {
	line := d.pending
	d.pending = ""
	if ev, ok := d.decodeLine(line); ok {
		return []StreamEvent{ev}
	}
	return nil
}

func (d *Decoder) decodeLine(line string) (StreamEvent, bool) {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, dataPrefix) {
		// comments, blank separators, event:/id:/retry: fields
		return StreamEvent{}, false
	}

	data := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))
	if data == doneMarker {
		return StreamEvent{Kind: EventDone}, true
	}

	var payload chunkPayload
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		d.logger.Debug("dropping malformed stream frame", zap.Int("bytes", len(data)), zap.Error(err))
		return StreamEvent{}, false
	}
	if payload.Error != nil {
		return StreamEvent{Kind: EventError, Message: payload.Error.Message}, true
	}

	var content strings.Builder
	for _, choice := range payload.Choices {
		content.WriteString(choice.Delta.Content)
	}
	return StreamEvent{Kind: EventChunk, Content: content.String()}, true
}
