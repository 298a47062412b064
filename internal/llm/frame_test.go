package llm

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataLine(content string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n", content)
}

func feedAll(d *Decoder, fragments []string) []StreamEvent {
	var events []StreamEvent
	for _, f := range fragments {
		events = append(events, d.Feed(f)...)
	}
	return events
}

func TestDecoder_CompleteLines(t *testing.T) {
	d := NewDecoder(nil)

	events := d.Feed(dataLine("Hello") + "\n" + dataLine(" world") + "\n")

	require.Len(t, events, 2)
	assert.Equal(t, StreamEvent{Kind: EventChunk, Content: "Hello"}, events[0])
	assert.Equal(t, StreamEvent{Kind: EventChunk, Content: " world"}, events[1])
	assert.Empty(t, d.pending)
}

func TestDecoder_LineSplitAcrossFragments(t *testing.T) {
	d := NewDecoder(nil)
	line := dataLine(`{"confidence":"strong"}`)

	first := d.Feed(line[:17])
	assert.Empty(t, first, "no event until the line is terminated")
	assert.Equal(t, line[:17], d.pending)

	second := d.Feed(line[17:])
	require.Len(t, second, 1)
	assert.Equal(t, `{"confidence":"strong"}`, second[0].Content)
}

func TestDecoder_DoneMarker(t *testing.T) {
	d := NewDecoder(nil)

	events := d.Feed(dataLine("x") + "data: [DONE]\n")

	require.Len(t, events, 2)
	assert.Equal(t, EventChunk, events[0].Kind)
	assert.Equal(t, StreamEvent{Kind: EventDone}, events[1])
}

func TestDecoder_SkipsNonDataLines(t *testing.T) {
	d := NewDecoder(nil)

	input := ": keep-alive comment\n" +
		"event: message\n" +
		"id: 42\n" +
		"retry: 1000\n" +
		"\n" +
		dataLine("kept")

	events := d.Feed(input)
	require.Len(t, events, 1)
	assert.Equal(t, "kept", events[0].Content)
}

func TestDecoder_DropsMalformedPayload(t *testing.T) {
	d := NewDecoder(nil)

	input := dataLine("before") +
		"data: {\"choices\": [\n" +
		"data: not json at all\n" +
		"data:\n" +
		dataLine("after")

	events := d.Feed(input)
	require.Len(t, events, 2, "corrupt frames are dropped without aborting the stream")
	assert.Equal(t, "before", events[0].Content)
	assert.Equal(t, "after", events[1].Content)
}

func TestDecoder_CRLFLineEndings(t *testing.T) {
	d := NewDecoder(nil)

	events := d.Feed("data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\r\n\r\ndata: [DONE]\r\n")
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Content)
	assert.Equal(t, EventDone, events[1].Kind)
}

func TestDecoder_ErrorPayload(t *testing.T) {
	d := NewDecoder(nil)

	events := d.Feed("data: {\"error\":{\"message\":\"overloaded\"}}\n")
	require.Len(t, events, 1)
	assert.Equal(t, StreamEvent{Kind: EventError, Message: "overloaded"}, events[0])
}

func TestDecoder_RoleOnlyDeltaIsEmptyChunk(t *testing.T) {
	d := NewDecoder(nil)

	events := d.Feed("data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n")
	require.Len(t, events, 1)
	assert.Equal(t, StreamEvent{Kind: EventChunk, Content: ""}, events[0])
}

func TestDecoder_NoSpaceAfterPrefix(t *testing.T) {
	d := NewDecoder(nil)

	events := d.Feed("data:{\"choices\":[{\"delta\":{\"content\":\"tight\"}}]}\n")
	require.Len(t, events, 1)
	assert.Equal(t, "tight", events[0].Content)
}

func TestDecoder_Flush(t *testing.T) {
	d := NewDecoder(nil)

	events := d.Feed(strings.TrimSuffix(dataLine("tail"), "\n"))
	assert.Empty(t, events)

	flushed := d.Flush()
	require.Len(t, flushed, 1)
	assert.Equal(t, "tail", flushed[0].Content)
	assert.Empty(t, d.pending)
	assert.Empty(t, d.Flush(), "second flush has nothing left")
}

func TestDecoder_ArbitrarySplitsPreserveCountAndOrder(t *testing.T) {
	const n = 25
	var sb strings.Builder
	var want []string
	for i := 0; i < n; i++ {
		content := fmt.Sprintf("piece-%02d \"quoted\" ünïcødé", i)
		want = append(want, content)
		sb.WriteString(dataLine(content))
		if i%3 == 0 {
			sb.WriteString("\n")
		}
	}
	stream := sb.String()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 200; trial++ {
		var fragments []string
		rest := stream
		for len(rest) > 0 {
			size := 1 + rng.Intn(40)
			if size > len(rest) {
				size = len(rest)
			}
			fragments = append(fragments, rest[:size])
			rest = rest[size:]
		}

		events := feedAll(NewDecoder(nil), fragments)
		require.Len(t, events, n, "trial %d", trial)
		for i, ev := range events {
			assert.Equal(t, EventChunk, ev.Kind)
			assert.Equal(t, want[i], ev.Content, "trial %d event %d", trial, i)
		}
	}
}

func TestDecoder_ByteAtATime(t *testing.T) {
	stream := dataLine("a") + dataLine("b") + "data: [DONE]\n"

	var fragments []string
	for i := 0; i < len(stream); i++ {
		fragments = append(fragments, stream[i:i+1])
	}

	events := feedAll(NewDecoder(nil), fragments)
	require.Len(t, events, 3)
	assert.Equal(t, "a", events[0].Content)
	assert.Equal(t, "b", events[1].Content)
	assert.Equal(t, EventDone, events[2].Kind)
}
