package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var (
	secretRe      = regexp.MustCompile(`(?i)\b(password|passwd|secret|api[_-]?key|access[_-]?token|auth[_-]?token|private[_-]?key|client[_-]?secret|jwt[_-]?secret)\w*['"]?\s*[:=]\s*['"]([^'"\s]{4,})['"]`)
	secretValueRe = regexp.MustCompile(`(['"])[^'"\s]{4,}(['"])\s*[,;]?\s*$`)
)

func init() {
	Register(Check{
		ID:       "hardcoded-secret",
		Summary:  "Credential literal in source; load secrets from configuration.",
		Severity: "HIGH",
		Keywords: [][]string{{"secret", "credential", "password", "api key", "apikey", "hardcod", "hard-cod"}},
		Applies:  func(p string) bool { return !isTest(p) },
		Eval:     evalHardcodedSecret,
	})
}

func evalHardcodedSecret(f ir.CandidateFile, _ string, _ Settings) []Hit {
	hits := grepLines(f.Content, secretRe)
	for i := range hits {
		// never echo the credential itself into reports
		hits[i].Text = secretValueRe.ReplaceAllString(hits[i].Text, "${1}****${2}")
	}
	return hits
}
