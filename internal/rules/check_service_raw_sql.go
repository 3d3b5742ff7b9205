package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var rawSQLRe = regexp.MustCompile("(?i)(\\.query|\\.raw|\\$queryRaw(Unsafe)?|\\$executeRaw(Unsafe)?)\\s*(\\(\\s*)?['\"`]\\s*(select|insert|update|delete|with|create|drop|alter|truncate)\\b")

func init() {
	Register(Check{
		ID:       "service-raw-sql",
		Summary:  "Service issues raw SQL; go through the repository / query builder.",
		Severity: "MEDIUM",
		Keywords: [][]string{{"service"}, {"raw sql", "raw quer", "sql", "repositor"}},
		Applies:  notTest(isService),
		Eval: func(f ir.CandidateFile, _ string, _ Settings) []Hit {
			return grepLines(f.Content, rawSQLRe)
		},
	})
}
