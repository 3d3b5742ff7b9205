package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var injectableRe = regexp.MustCompile(`@Injectable\s*\(`)

func init() {
	Register(Check{
		ID:       "service-injectable",
		Summary:  "Service class is missing the @Injectable() decorator.",
		Severity: "MEDIUM",
		Keywords: [][]string{{"service", "provider"}, {"@injectable", "injectable"}},
		Applies:  notTest(isService),
		Eval: func(f ir.CandidateFile, _ string, _ Settings) []Hit {
			return missing(f.Content, injectableRe, "class without @Injectable()")
		},
	})
}
