package parsing

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/portfolio-fit/internal/types"
)

// experiencePrefixes mark a source label that names a role or employer
var experiencePrefixes = []string{"experience", "role", "company", "work", "position", "job"}

// projectPrefixes mark a source label that names a project
var projectPrefixes = []string{"project"}

// InferEvidenceType classifies an evidence source label. Explicit prefixes are
// checked first, then "<title> at <company>" style labels, then any mention of a
// project. Everything else is a skill.
func InferEvidenceType(source string) types.EvidenceType {
	lower := strings.ToLower(strings.TrimSpace(source))

	switch {
	case hasLabelPrefix(lower, experiencePrefixes):
		return types.EvidenceExperience
	case hasWordPrefix(lower, projectPrefixes):
		return types.EvidenceProject
	case strings.Contains(lower, " at ") || strings.Contains(lower, " @ "):
		return types.EvidenceExperience
	case strings.Contains(lower, "project"):
		return types.EvidenceProject
	default:
		return types.EvidenceSkill
	}
}

// hasLabelPrefix reports whether s starts with one of the prefixes used as a label,
// so "work: acme" matches "work" but "workflow tooling" and "job board app" do not.
func hasLabelPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if !strings.HasPrefix(s, p) {
			continue
		}
		rest := strings.TrimLeftFunc(s[len(p):], unicode.IsSpace)
		if rest == "" {
			return true
		}
		r, size := utf8.DecodeRuneInString(rest)
		switch {
		case strings.ContainsRune(":|/", r):
			return true
		case strings.ContainsRune("-–—", r):
			// "Role - Staff Engineer" but not "role-based access"
			after := rest[size:]
			next, _ := utf8.DecodeRuneInString(after)
			if after == "" || unicode.IsSpace(next) {
				return true
			}
		}
	}
	return false
}

// hasWordPrefix reports whether s starts with one of the prefixes as a whole word,
// so "project work" matches "project" but "projector" does not.
func hasWordPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if !strings.HasPrefix(s, p) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(s[len(p):])
		if len(s) == len(p) || (!unicode.IsLetter(r) && !unicode.IsDigit(r)) {
			return true
		}
	}
	return false
}

// Slugify lower-cases s and collapses every run of characters that are neither
// letters nor digits into a single hyphen, trimming hyphens at both ends.
// Letters outside ASCII are kept.
func Slugify(s string) string {
	var sb strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return sb.String()
}
