package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var anyTypeRe = regexp.MustCompile(`:\s*any\b|\bas\s+any\b|<any>|\bany\[\]`)

func init() {
	Register(Check{
		ID:       "no-any",
		Summary:  "Explicit any type weakens type safety.",
		Severity: "LOW",
		Keywords: [][]string{{"any type", "type any", "`any`", "'any'", "\"any\"", "explicit any", "no any"}},
		Applies:  notTest(isTypeScript),
		Eval: func(f ir.CandidateFile, _ string, _ Settings) []Hit {
			return grepLines(f.Content, anyTypeRe)
		},
	})
}
