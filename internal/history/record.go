package history

import (
	"fmt"

	"github.com/jonathan/portfolio-fit/internal/schemas"
	"github.com/jonathan/portfolio-fit/internal/types"
)

// Entry is one deserialized history item
type Entry struct {
	Assessment         types.MatchAssessment `json:"assessment"`
	JobDescriptionFull string                `json:"jobDescriptionFull"`
}

// payload is the single value stored under the history key
type payload struct {
	Entries     []types.HistoryRecord `json:"entries"`
	LastUpdated string                `json:"lastUpdated"`
}

// Serialize converts an assessment and its full input text into a HistoryRecord.
// Sub-record slices are shared with a, which is immutable once created.
func Serialize(a types.MatchAssessment, fullText string) types.HistoryRecord {
	return types.HistoryRecord{
		ID:                    a.ID,
		Timestamp:             types.FormatTimestamp(a.Timestamp),
		JobDescriptionPreview: a.JobDescriptionPreview,
		JobDescriptionFull:    fullText,
		ConfidenceScore:       a.ConfidenceScore,
		AlignmentAreas:        a.AlignmentAreas,
		GapAreas:              a.GapAreas,
		Recommendation:        a.Recommendation,
	}
}

// Deserialize validates a HistoryRecord and converts it back into an Entry
func Deserialize(rec types.HistoryRecord) (Entry, error) {
	if err := schemas.ValidateAssessment(rec); err != nil {
		return Entry{}, fmt.Errorf("history record %q failed validation: %w", rec.ID, err)
	}
	ts, err := types.ParseTimestamp(rec.Timestamp)
	if err != nil {
		return Entry{}, fmt.Errorf("history record %q: %w", rec.ID, err)
	}
	return Entry{
		Assessment: types.MatchAssessment{
			ID:                    rec.ID,
			Timestamp:             ts,
			JobDescriptionPreview: rec.JobDescriptionPreview,
			ConfidenceScore:       rec.ConfidenceScore,
			AlignmentAreas:        rec.AlignmentAreas,
			GapAreas:              rec.GapAreas,
			Recommendation:        rec.Recommendation,
		},
		JobDescriptionFull: rec.JobDescriptionFull,
	}, nil
}

// Record returns the serialized form of e
func (e Entry) Record() types.HistoryRecord {
	return Serialize(e.Assessment, e.JobDescriptionFull)
}
