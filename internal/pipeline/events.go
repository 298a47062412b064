package pipeline

import (
	"github.com/jonathan/portfolio-fit/internal/progress"
	"github.com/jonathan/portfolio-fit/internal/types"
)

// EventType tags an Event
type EventType string

const (
	EventChunk    EventType = "chunk"
	EventProgress EventType = "progress"
	EventDone     EventType = "done"
	EventError    EventType = "error"
	EventComplete EventType = "complete"
)

// Event is one update relayed to the caller while an analysis runs
type Event struct {
	Type       EventType              `json:"type"`
	Content    string                 `json:"content,omitempty"`
	Phase      progress.Phase         `json:"phase,omitempty"`
	Message    string                 `json:"message,omitempty"`
	Retryable  bool                   `json:"retryable,omitempty"`
	Assessment *types.MatchAssessment `json:"assessment,omitempty"`
}

// EventCallback is called for every Event, in order, on the goroutine running the analysis
type EventCallback func(event Event)

// emit calls the callback if configured
func emit(opts *RunOptions, event Event) {
	if opts.OnEvent != nil {
		opts.OnEvent(event)
	}
}

func progressEvent(p progress.Phase) Event {
	return Event{Type: EventProgress, Phase: p, Message: p.Label()}
}
