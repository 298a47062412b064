// Package progress infers coarse analysis phases from partial model output.
package progress

import "strings"

// Phase is an ordered, advisory progress label for one analysis run
type Phase string

const (
	PhasePreparing                Phase = "preparing"
	PhaseAnalyzing                Phase = "analyzing"
	PhaseFindingAlignments        Phase = "finding_alignments"
	PhaseIdentifyingGaps          Phase = "identifying_gaps"
	PhaseGeneratingRecommendation Phase = "generating_recommendation"
	PhaseFinalizing               Phase = "finalizing"
)

// phaseOrder lists every phase from first to last
var phaseOrder = []Phase{
	PhasePreparing,
	PhaseAnalyzing,
	PhaseFindingAlignments,
	PhaseIdentifyingGaps,
	PhaseGeneratingRecommendation,
	PhaseFinalizing,
}

var phaseLabels = map[Phase]string{
	PhasePreparing:                "Preparing analysis...",
	PhaseAnalyzing:                "Analyzing job requirements...",
	PhaseFindingAlignments:        "Finding alignments...",
	PhaseIdentifyingGaps:          "Identifying gaps...",
	PhaseGeneratingRecommendation: "Generating recommendation...",
	PhaseFinalizing:               "Finalizing...",
}

// Phases returns all phases in order
func Phases() []Phase {
	out := make([]Phase, len(phaseOrder))
	copy(out, phaseOrder)
	return out
}

// Index returns the position of p in the phase order, or -1 for an unknown phase
func (p Phase) Index() int {
	for i, candidate := range phaseOrder {
		if candidate == p {
			return i
		}
	}
	return -1
}

// Valid reports whether p is a known phase
func (p Phase) Valid() bool {
	return p.Index() >= 0
}

// Label returns a short human-readable status line for p
func (p Phase) Label() string {
	if label, ok := phaseLabels[p]; ok {
		return label
	}
	return string(p)
}

// After reports whether p comes strictly later than other
func (p Phase) After(other Phase) bool {
	return p.Index() > other.Index()
}

type marker struct {
	substring string
	phase     Phase
}

// markers is scanned in order and the last match wins. The substrings are the
// quoted top-level keys of the expected response, in the order the model emits them.
var markers = []marker{
	{`"confidence"`, PhaseAnalyzing},
	{`"alignments"`, PhaseFindingAlignments},
	{`"gaps"`, PhaseIdentifyingGaps},
	{`"recommendation"`, PhaseGeneratingRecommendation},
	{`"reasoning"`, PhaseFinalizing},
}

// Detect returns the phase implied by the accumulated text. It only does
// substring matching and never regresses: the result is never earlier than current.
func Detect(accumulated string, current Phase) Phase {
	detected := current
	for _, m := range markers {
		if strings.Contains(accumulated, m.substring) {
			detected = m.phase
		}
	}
	if detected.After(current) {
		return detected
	}
	return current
}

// Tracker follows the phase of a single run as text accumulates
type Tracker struct {
	accumulated strings.Builder
	phase       Phase
}

// NewTracker starts a tracker in the preparing phase
func NewTracker() *Tracker {
	return &Tracker{phase: PhasePreparing}
}

// Observe appends an increment and reports the new phase when it advanced
func (t *Tracker) Observe(increment string) (Phase, bool) {
	t.accumulated.WriteString(increment)
	next := Detect(t.accumulated.String(), t.phase)
	if next == t.phase {
		return t.phase, false
	}
	t.phase = next
	return next, true
}

// Advance moves directly to p if it is later than the current phase
func (t *Tracker) Advance(p Phase) bool {
	if !p.After(t.phase) {
		return false
	}
	t.phase = p
	return true
}

// Phase returns the current phase
func (t *Tracker) Phase() Phase {
	return t.phase
}
