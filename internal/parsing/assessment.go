// Package parsing turns the accumulated model output of a fit analysis into a
// validated MatchAssessment.
package parsing

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/jonathan/portfolio-fit/internal/ids"
	"github.com/jonathan/portfolio-fit/internal/llm"
	"github.com/jonathan/portfolio-fit/internal/types"
)

// PreviewLength is the maximum length, in characters, of a job description preview
const PreviewLength = 100

const ellipsis = "..."

// Context carries what the parser needs besides the model output
type Context struct {
	OriginalInput string
	NewID         ids.Generator    // defaults to ids.UUID
	Now           func() time.Time // defaults to time.Now
}

var confidenceTable = map[string]types.ConfidenceScore{
	"strong":  types.ConfidenceStrong,
	"partial": types.ConfidencePartial,
	"limited": types.ConfidenceLimited,
}

var verdictTable = map[string]types.RecommendationType{
	"proceed":    types.RecommendProceed,
	"consider":   types.RecommendConsider,
	"reconsider": types.RecommendReconsider,
}

// rawAssessment is the top level of the model output. Every field stays raw so
// each one can be checked for the right JSON kind before it is decoded.
type rawAssessment struct {
	Confidence     json.RawMessage `json:"confidence"`
	Alignments     json.RawMessage `json:"alignments"`
	Gaps           json.RawMessage `json:"gaps"`
	Recommendation json.RawMessage `json:"recommendation"`
}

type rawAlignment struct {
	Area        string            `json:"area"`
	Title       string            `json:"title"`
	Explanation string            `json:"explanation"`
	Description string            `json:"description"`
	Evidence    []json.RawMessage `json:"evidence"`
}

type rawEvidence struct {
	Source string `json:"source"`
	Detail string `json:"detail"`
}

type rawGap struct {
	Area        string `json:"area"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

type rawRecommendation struct {
	Verdict   string `json:"verdict"`
	Summary   string `json:"summary"`
	Reasoning string `json:"reasoning"`
}

// ParseAssessment parses the complete model output into a MatchAssessment.
// Malformed alignments, evidence items and gaps are dropped individually; a bad
// confidence, a bad or missing recommendation, or a non-object root fails the
// whole parse with a *ParseError.
func ParseAssessment(text string, pc Context) (*types.MatchAssessment, error) {
	newID := pc.NewID
	if newID == nil {
		newID = ids.UUID
	}
	now := pc.Now
	if now == nil {
		now = time.Now
	}

	cleaned := llm.CleanJSONBlock(text)

	var root json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &root); err != nil {
		return nil, &ParseError{Message: "Failed to parse structured response", Cause: err}
	}
	if jsonKind(root) != '{' {
		return nil, &ParseError{Message: "Structured response is not an object"}
	}

	var raw rawAssessment
	if err := json.Unmarshal(root, &raw); err != nil {
		return nil, &ParseError{Message: "Failed to parse structured response", Cause: err}
	}

	confidence, err := parseConfidence(raw.Confidence)
	if err != nil {
		return nil, err
	}

	if jsonKind(raw.Alignments) != '[' {
		return nil, &ParseError{Message: "Alignments must be a list", Field: "alignments"}
	}
	var rawAlignments []json.RawMessage
	if err := json.Unmarshal(raw.Alignments, &rawAlignments); err != nil {
		return nil, &ParseError{Message: "Alignments must be a list", Field: "alignments", Cause: err}
	}

	if jsonKind(raw.Gaps) != '[' {
		return nil, &ParseError{Message: "Gaps must be a list", Field: "gaps"}
	}
	var rawGaps []json.RawMessage
	if err := json.Unmarshal(raw.Gaps, &rawGaps); err != nil {
		return nil, &ParseError{Message: "Gaps must be a list", Field: "gaps", Cause: err}
	}

	recommendation, err := parseRecommendation(raw.Recommendation)
	if err != nil {
		return nil, err
	}

	alignments := make([]types.AlignmentArea, 0, len(rawAlignments))
	for _, item := range rawAlignments {
		if area, ok := parseAlignment(item, newID); ok {
			alignments = append(alignments, area)
		}
	}

	gaps := make([]types.GapArea, 0, len(rawGaps))
	for _, item := range rawGaps {
		if gap, ok := parseGap(item, newID); ok {
			gaps = append(gaps, gap)
		}
	}

	return &types.MatchAssessment{
		ID:                    newID(),
		Timestamp:             types.NormalizeTimestamp(now()),
		JobDescriptionPreview: Preview(pc.OriginalInput),
		ConfidenceScore:       confidence,
		AlignmentAreas:        alignments,
		GapAreas:              gaps,
		Recommendation:        recommendation,
	}, nil
}

func parseConfidence(raw json.RawMessage) (types.ConfidenceScore, error) {
	var token string
	if jsonKind(raw) != '"' || json.Unmarshal(raw, &token) != nil {
		return "", &ParseError{Message: "Missing confidence score", Field: "confidence"}
	}
	score, ok := confidenceTable[token]
	if !ok {
		return "", &ParseError{Message: "Unrecognized confidence score", Field: "confidence"}
	}
	return score, nil
}

func parseRecommendation(raw json.RawMessage) (types.Recommendation, error) {
	if jsonKind(raw) != '{' {
		return types.Recommendation{}, &ParseError{Message: "Missing recommendation", Field: "recommendation"}
	}
	var rec rawRecommendation
	if err := json.Unmarshal(raw, &rec); err != nil {
		return types.Recommendation{}, &ParseError{Message: "Malformed recommendation", Field: "recommendation", Cause: err}
	}
	verdict, ok := verdictTable[rec.Verdict]
	if !ok {
		return types.Recommendation{}, &ParseError{Message: "Unrecognized recommendation verdict", Field: "recommendation"}
	}
	summary := strings.TrimSpace(rec.Summary)
	details := strings.TrimSpace(rec.Reasoning)
	if summary == "" || details == "" {
		return types.Recommendation{}, &ParseError{Message: "Recommendation is missing its summary or reasoning", Field: "recommendation"}
	}
	return types.Recommendation{Type: verdict, Summary: summary, Details: details}, nil
}

// parseAlignment returns false when the entry is malformed or none of its
// evidence survives validation.
func parseAlignment(raw json.RawMessage, newID ids.Generator) (types.AlignmentArea, bool) {
	if jsonKind(raw) != '{' {
		return types.AlignmentArea{}, false
	}
	var item rawAlignment
	if err := json.Unmarshal(raw, &item); err != nil {
		return types.AlignmentArea{}, false
	}

	title := firstNonEmpty(item.Area, item.Title)
	description := firstNonEmpty(item.Explanation, item.Description)
	if title == "" || description == "" {
		return types.AlignmentArea{}, false
	}

	evidence := make([]types.Evidence, 0, len(item.Evidence))
	for _, e := range item.Evidence {
		if ev, ok := parseEvidence(e); ok {
			evidence = append(evidence, ev)
		}
	}
	if len(evidence) == 0 {
		return types.AlignmentArea{}, false
	}

	return types.AlignmentArea{
		ID:          newID(),
		Title:       title,
		Description: description,
		Evidence:    evidence,
	}, true
}

func parseEvidence(raw json.RawMessage) (types.Evidence, bool) {
	if jsonKind(raw) != '{' {
		return types.Evidence{}, false
	}
	var item rawEvidence
	if err := json.Unmarshal(raw, &item); err != nil {
		return types.Evidence{}, false
	}

	source := strings.TrimSpace(item.Source)
	detail := strings.TrimSpace(item.Detail)
	reference := Slugify(source)
	if source == "" || detail == "" || reference == "" {
		return types.Evidence{}, false
	}

	return types.Evidence{
		Type:      InferEvidenceType(source),
		Title:     source,
		Reference: reference,
		Excerpt:   detail,
	}, true
}

func parseGap(raw json.RawMessage, newID ids.Generator) (types.GapArea, bool) {
	if jsonKind(raw) != '{' {
		return types.GapArea{}, false
	}
	var item rawGap
	if err := json.Unmarshal(raw, &item); err != nil {
		return types.GapArea{}, false
	}

	title := firstNonEmpty(item.Area, item.Title)
	description := firstNonEmpty(item.Explanation, item.Description)
	severity := types.Severity(item.Severity)
	if title == "" || description == "" || !severity.Valid() {
		return types.GapArea{}, false
	}

	return types.GapArea{
		ID:          newID(),
		Title:       title,
		Description: description,
		Severity:    severity,
	}, true
}

// Preview trims the input and shortens it to at most PreviewLength characters,
// ending in an ellipsis when it was cut.
func Preview(input string) string {
	trimmed := strings.TrimSpace(input)
	runes := []rune(trimmed)
	if len(runes) <= PreviewLength {
		return trimmed
	}
	return string(runes[:PreviewLength-len(ellipsis)]) + ellipsis
}

// jsonKind returns the first significant byte of a JSON value, or 0 when absent
func jsonKind(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
