package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/portfolio-fit/internal/types"
)

func TestInferEvidenceType(t *testing.T) {
	tests := []struct {
		source string
		want   types.EvidenceType
	}{
		{"Experience: Platform Team", types.EvidenceExperience},
		{"Role - Staff Engineer", types.EvidenceExperience},
		{"Company: Acme Corp", types.EvidenceExperience},
		{"Work at Globex", types.EvidenceExperience},
		{"Work - Initech", types.EvidenceExperience},
		{"Experience", types.EvidenceExperience},
		{"Position: Tech Lead", types.EvidenceExperience},
		{"JOB: Backend Developer", types.EvidenceExperience},
		{"Senior Engineer at Initech", types.EvidenceExperience},
		{"Consultant @ Hooli", types.EvidenceExperience},
		{"Project: E-Commerce (2023)", types.EvidenceProject},
		{"project - realtime dashboard", types.EvidenceProject},
		{"Open source projects", types.EvidenceProject},
		{"Side Project: Chess engine", types.EvidenceProject},
		{"Project work at Acme", types.EvidenceProject},
		{"Go", types.EvidenceSkill},
		{"Workflow automation", types.EvidenceSkill},
		{"Jobs scheduling", types.EvidenceSkill},
		{"Job Board App", types.EvidenceSkill},
		{"Role-based access control", types.EvidenceSkill},
		{"Company culture building", types.EvidenceSkill},
		{"Distributed systems", types.EvidenceSkill},
		{"", types.EvidenceSkill},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, InferEvidenceType(tt.source))
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Project: E-Commerce (2023)", "project-e-commerce-2023"},
		{"Senior Engineer @ Acme, Inc.", "senior-engineer-acme-inc"},
		{"  --Go--  ", "go"},
		{"C++ / Rust", "c-rust"},
		{"already-a-slug", "already-a-slug"},
		{"Café Ünïcode", "café-ünïcode"},
		{"日本語", "日本語"},
		{"Go (日本語 docs)", "go-日本語-docs"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}
