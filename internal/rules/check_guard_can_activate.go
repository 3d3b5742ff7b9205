package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var canActivateRe = regexp.MustCompile(`implements\s+[\w\s,<>]*\bCanActivate\b`)

func init() {
	Register(Check{
		ID:       "guard-can-activate",
		Summary:  "Guard class does not implement CanActivate.",
		Severity: "MEDIUM",
		Keywords: [][]string{{"guard"}, {"canactivate", "can activate"}},
		Applies:  notTest(isGuard),
		Eval: func(f ir.CandidateFile, _ string, _ Settings) []Hit {
			return missing(f.Content, canActivateRe, "class without implements CanActivate")
		},
	})
}
