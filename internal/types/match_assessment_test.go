//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumValidity(t *testing.T) {
	assert.True(t, ConfidenceStrong.Valid())
	assert.True(t, ConfidencePartial.Valid())
	assert.True(t, ConfidenceLimited.Valid())
	assert.False(t, ConfidenceScore("strong").Valid())

	assert.True(t, EvidenceProject.Valid())
	assert.False(t, EvidenceType("education").Valid())

	assert.True(t, SeveritySignificant.Valid())
	assert.False(t, Severity("critical").Valid())
	assert.False(t, Severity("").Valid())

	assert.True(t, RecommendReconsider.Valid())
	assert.False(t, RecommendationType("skip").Valid())
}

func TestMatchAssessment_JSONFieldNames(t *testing.T) {
	a := MatchAssessment{
		ID:                    "a1",
		Timestamp:             time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		JobDescriptionPreview: "Backend engineer",
		ConfidenceScore:       ConfidencePartial,
		AlignmentAreas: []AlignmentArea{{
			ID:          "al1",
			Title:       "Go services",
			Description: "Built several",
			Evidence:    []Evidence{{Type: EvidenceSkill, Title: "Go", Reference: "go", Excerpt: "5 years"}},
		}},
		GapAreas:       []GapArea{},
		Recommendation: Recommendation{Type: RecommendConsider, Summary: "s", Details: "d"},
	}

	data, err := json.Marshal(a)
	require.NoError(t, err)
	s := string(data)
	assert.Contains(t, s, `"jobDescriptionPreview":"Backend engineer"`)
	assert.Contains(t, s, `"confidenceScore":"partial_match"`)
	assert.Contains(t, s, `"alignmentAreas":[`)
	assert.Contains(t, s, `"gapAreas":[]`)
	assert.Contains(t, s, `"recommendation":{"type":"consider"`)
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2026, 10, 18, 9, 30, 15, 123_000_000, time.UTC)

	formatted := FormatTimestamp(ts)
	assert.Equal(t, "2026-10-18T09:30:15.123Z", formatted)

	parsed, err := ParseTimestamp(formatted)
	require.NoError(t, err)
	assert.Equal(t, ts, parsed)
}

func TestFormatTimestamp_ConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2026, 1, 1, 2, 0, 0, 0, loc)
	assert.Equal(t, "2026-01-01T00:00:00.000Z", FormatTimestamp(ts))
}

func TestNormalizeTimestamp(t *testing.T) {
	ts := time.Date(2026, 10, 18, 10, 30, 15, 123_456_789, time.FixedZone("+0100", 3600))

	got := NormalizeTimestamp(ts)
	assert.Equal(t, time.Date(2026, 10, 18, 9, 30, 15, 123_000_000, time.UTC), got)

	parsed, err := ParseTimestamp(FormatTimestamp(ts))
	require.NoError(t, err)
	assert.Equal(t, got, parsed)
}

func TestParseTimestamp_Invalid(t *testing.T) {
	_, err := ParseTimestamp("yesterday")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timestamp")
}
