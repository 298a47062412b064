// Package types provides type definitions for structured data used throughout the fit analysis system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// ConfidenceScore is the overall fit verdict of an assessment
type ConfidenceScore string

const (
	ConfidenceStrong  ConfidenceScore = "strong_match"
	ConfidencePartial ConfidenceScore = "partial_match"
	ConfidenceLimited ConfidenceScore = "limited_match"
)

// Valid reports whether c is one of the closed set of confidence scores
func (c ConfidenceScore) Valid() bool {
	switch c {
	case ConfidenceStrong, ConfidencePartial, ConfidenceLimited:
		return true
	}
	return false
}

// EvidenceType classifies where a piece of evidence comes from
type EvidenceType string

const (
	EvidenceExperience EvidenceType = "experience"
	EvidenceProject    EvidenceType = "project"
	EvidenceSkill      EvidenceType = "skill"
)

// Valid reports whether t is a known evidence type
func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceExperience, EvidenceProject, EvidenceSkill:
		return true
	}
	return false
}

// Severity grades how much a gap matters for the role
type Severity string

const (
	SeverityMinor       Severity = "minor"
	SeverityModerate    Severity = "moderate"
	SeveritySignificant Severity = "significant"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	switch s {
	case SeverityMinor, SeverityModerate, SeveritySignificant:
		return true
	}
	return false
}

// RecommendationType is the final verdict on whether to pursue the role
type RecommendationType string

const (
	RecommendProceed    RecommendationType = "proceed"
	RecommendConsider   RecommendationType = "consider"
	RecommendReconsider RecommendationType = "reconsider"
)

// Valid reports whether r is a known recommendation type
func (r RecommendationType) Valid() bool {
	switch r {
	case RecommendProceed, RecommendConsider, RecommendReconsider:
		return true
	}
	return false
}

// Evidence is a single cited fact supporting an alignment claim
type Evidence struct {
	Type      EvidenceType `json:"type"`
	Title     string       `json:"title"`
	Reference string       `json:"reference"` // URL/key-safe slug of the evidence source
	Excerpt   string       `json:"excerpt"`
}

// AlignmentArea is a requirement of the role the candidate demonstrably meets.
// An AlignmentArea always carries at least one Evidence item.
type AlignmentArea struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Evidence    []Evidence `json:"evidence"`
}

// GapArea is a requirement of the role the candidate does not clearly meet
type GapArea struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Recommendation is the single verdict of an assessment
type Recommendation struct {
	Type    RecommendationType `json:"type"`
	Summary string             `json:"summary"`
	Details string             `json:"details"`
}

// MatchAssessment is the validated result of one fit analysis.
// It is created once at the end of a successful parse and never mutated afterwards.
// Timestamp is kept normalized (see NormalizeTimestamp), since a history round
// trip only preserves UTC millisecond precision.
type MatchAssessment struct {
	ID                    string          `json:"id"`
	Timestamp             time.Time       `json:"timestamp"`
	JobDescriptionPreview string          `json:"jobDescriptionPreview"`
	ConfidenceScore       ConfidenceScore `json:"confidenceScore"`
	AlignmentAreas        []AlignmentArea `json:"alignmentAreas"`
	GapAreas              []GapArea       `json:"gapAreas"`
	Recommendation        Recommendation  `json:"recommendation"`
}
