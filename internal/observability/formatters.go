// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/jonathan/portfolio-fit/internal/history"
	"github.com/jonathan/portfolio-fit/internal/progress"
	"github.com/jonathan/portfolio-fit/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

var confidenceLabels = map[types.ConfidenceScore]string{
	types.ConfidenceStrong:  "Strong match",
	types.ConfidencePartial: "Partial match",
	types.ConfidenceLimited: "Limited match",
}

var recommendationLabels = map[types.RecommendationType]string{
	types.RecommendProceed:    "Proceed",
	types.RecommendConsider:   "Consider",
	types.RecommendReconsider: "Reconsider",
}

// Printer handles formatted output for the CLI
type Printer struct {
	out io.Writer

	phase *color.Color
	good  *color.Color
	warn  *color.Color
	bad   *color.Color
}

// NewPrinter creates a new Printer that writes to the given writer.
// Colors follow fatih/color's terminal detection.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{
		out:   out,
		phase: color.New(color.FgCyan),
		good:  color.New(color.FgGreen, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		bad:   color.New(color.FgRed, color.Bold),
	}
}

// truncate shortens s to at most n runes, ending in "..." when cut
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// verdictColor picks the color for a confidence score
func (p *Printer) verdictColor(c types.ConfidenceScore) *color.Color {
	switch c {
	case types.ConfidenceStrong:
		return p.good
	case types.ConfidencePartial:
		return p.warn
	default:
		return p.bad
	}
}

// PrintPhase outputs one progress line, e.g. "[2/6] Finding alignments..."
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintPhase(phase progress.Phase) {
	p.phase.Fprintf(p.out, "[%d/%d] %s\n", phase.Index()+1, len(progress.Phases()), phase.Label())
}

// PrintAssessment outputs a human-readable summary of an assessment.
func (p *Printer) PrintAssessment(a *types.MatchAssessment) {
	if a == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Job:         %s\n", a.JobDescriptionPreview))
	sb.WriteString(fmt.Sprintf("Confidence:  %s\n", confidenceLabels[a.ConfidenceScore]))
	sb.WriteString(fmt.Sprintf("Analyzed:    %s\n", types.FormatTimestamp(a.Timestamp)))
	sb.WriteString("\n")

	if len(a.AlignmentAreas) > 0 {
		sb.WriteString("Alignments:\n")
		count := min(len(a.AlignmentAreas), maxItemsToShow)
		for i := 0; i < count; i++ {
			area := a.AlignmentAreas[i]
			sb.WriteString(fmt.Sprintf("  ✓ %s\n", area.Title))
			for _, ev := range area.Evidence {
				sb.WriteString(fmt.Sprintf("      [%s] %s\n", ev.Type, ev.Title))
			}
		}
		if len(a.AlignmentAreas) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(a.AlignmentAreas)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(a.GapAreas) > 0 {
		sb.WriteString("Gaps:\n")
		count := min(len(a.GapAreas), maxItemsToShow)
		for i := 0; i < count; i++ {
			gap := a.GapAreas[i]
			sb.WriteString(fmt.Sprintf("  ✗ %s (%s)\n", gap.Title, gap.Severity))
		}
		if len(a.GapAreas) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(a.GapAreas)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Recommendation: %s\n", recommendationLabels[a.Recommendation.Type]))
	sb.WriteString(a.Recommendation.Summary)

	p.printBox("FIT ASSESSMENT", sb.String())

	//nolint:errcheck // writing to stdout; errors are not recoverable
	p.verdictColor(a.ConfidenceScore).Fprintf(p.out, "%s: %s\n",
		confidenceLabels[a.ConfidenceScore], recommendationLabels[a.Recommendation.Type])
}

// PrintHistory outputs the stored analyses, newest first.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintHistory(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(p.out, "No analyses in history.")
		return
	}

	var sb strings.Builder
	for i, e := range entries {
		a := e.Assessment
		sb.WriteString(fmt.Sprintf("%s  %s\n", types.FormatTimestamp(a.Timestamp), a.ID))
		sb.WriteString(fmt.Sprintf("    %s, %s\n", confidenceLabels[a.ConfidenceScore], recommendationLabels[a.Recommendation.Type]))
		sb.WriteString(fmt.Sprintf("    %s", a.JobDescriptionPreview))
		if i < len(entries)-1 {
			sb.WriteString("\n\n")
		}
	}

	p.printBox(fmt.Sprintf("HISTORY (%d)", len(entries)), sb.String())
}

// PrintError outputs a user-facing error message
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintError(message string, retryable bool) {
	p.bad.Fprintf(p.out, "Error: %s\n", message)
	if retryable {
		fmt.Fprintln(p.out, "This may be temporary; try again.")
	}
}
