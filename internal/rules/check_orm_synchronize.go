package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var synchronizeRe = regexp.MustCompile(`\bsynchronize\s*:\s*true\b`)

func init() {
	Register(Check{
		ID:       "orm-synchronize",
		Summary:  "ORM schema synchronize is enabled; use migrations.",
		Severity: "HIGH",
		Keywords: [][]string{{"synchroniz"}},
		Applies:  isSource,
		Eval: func(f ir.CandidateFile, _ string, _ Settings) []Hit {
			return grepLines(f.Content, synchronizeRe)
		},
	})
}
