//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"time"
)

// TimestampLayout is the fixed textual format used for every persisted timestamp.
// Millisecond precision in UTC, matching what browsers produce for Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// HistoryRecord is the persisted form of a MatchAssessment plus the full input text
type HistoryRecord struct {
	ID                    string          `json:"id"`
	Timestamp             string          `json:"timestamp"`
	JobDescriptionPreview string          `json:"jobDescriptionPreview"`
	JobDescriptionFull    string          `json:"jobDescriptionFull"`
	ConfidenceScore       ConfidenceScore `json:"confidenceScore"`
	AlignmentAreas        []AlignmentArea `json:"alignmentAreas"`
	GapAreas              []GapArea       `json:"gapAreas"`
	Recommendation        Recommendation  `json:"recommendation"`
}

// NormalizeTimestamp converts t to UTC at millisecond precision, the form that
// survives FormatTimestamp and ParseTimestamp unchanged.
func NormalizeTimestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FormatTimestamp renders t in TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses a timestamp written by FormatTimestamp
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
