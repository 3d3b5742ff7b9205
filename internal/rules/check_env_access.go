package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var envAccessRe = regexp.MustCompile(`\bprocess\.env\b|\bimport\.meta\.env\b|\bDeno\.env\b`)

func init() {
	Register(Check{
		ID:       "env-access",
		Summary:  "Environment read directly; inject configuration (e.g. ConfigService) instead.",
		Severity: "HIGH",
		Keywords: [][]string{{"environment variable", "env var", "process.env", "env access", "environment access", ".env"}},
		Applies: func(p string) bool {
			return isSource(p) && !isConfigFile(p) && !isTest(p)
		},
		Eval: func(f ir.CandidateFile, _ string, _ Settings) []Hit {
			return grepLines(f.Content, envAccessRe)
		},
	})
}
