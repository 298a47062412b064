package prompts

import "strings"

const analysisFile = "analysis.json"

// CheckAnalysis reports a missing or blank analysis template before any run starts
func CheckAnalysis() error {
	return Require(analysisFile, "system", "user", "default-profile")
}

// AnalysisSystem returns the system instruction for a fit analysis against the
// given candidate profile. An empty profile uses the built-in fallback.
func AnalysisSystem(profile string) string {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = MustGet(analysisFile, "default-profile")
	}
	return Format(MustGet(analysisFile, "system"), map[string]string{
		"Profile": profile,
	})
}

// AnalysisUser returns the user message carrying the job description
func AnalysisUser(jobDescription string) string {
	return Format(MustGet(analysisFile, "user"), map[string]string{
		"JobDescription": jobDescription,
	})
}
