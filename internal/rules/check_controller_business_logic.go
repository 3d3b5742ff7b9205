package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var controllerLogicRe = regexp.MustCompile(`\bfor\s*\(|\bwhile\s*\(|\.reduce\s*\(|\bswitch\s*\(|\.forEach\s*\(`)

func init() {
	Register(Check{
		ID:       "controller-business-logic",
		Summary:  "Controller contains control flow that belongs in a service.",
		Severity: "MEDIUM",
		Keywords: [][]string{{"business logic", "thin controller", "domain logic"}},
		Applies:  isController,
		Eval: func(f ir.CandidateFile, _ string, _ Settings) []Hit {
			return grepLines(f.Content, controllerLogicRe)
		},
	})
}
