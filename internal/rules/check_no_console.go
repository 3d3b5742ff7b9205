package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var consoleRe = regexp.MustCompile(`\bconsole\.(log|debug|info|warn|error|trace)\s*\(`)

func init() {
	Register(Check{
		ID:       "no-console",
		Summary:  "console.* call; use the framework Logger.",
		Severity: "LOW",
		Keywords: [][]string{{"console"}},
		Applies:  notTest(isSource),
		Eval: func(f ir.CandidateFile, _ string, _ Settings) []Hit {
			return grepLines(f.Content, consoleRe)
		},
	})
}
