package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var controllerDecoratorRe = regexp.MustCompile(`@Controller\s*\(`)

func init() {
	Register(Check{
		ID:       "controller-decorator",
		Summary:  "Controller class is missing the @Controller() decorator.",
		Severity: "MEDIUM",
		Keywords: [][]string{{"controller"}, {"@controller", "decorat"}},
		Applies:  isController,
		Eval: func(f ir.CandidateFile, _ string, _ Settings) []Hit {
			return missing(f.Content, controllerDecoratorRe, "class without @Controller()")
		},
	})
}
