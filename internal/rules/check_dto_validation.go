package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var (
	validatorRe  = regexp.MustCompile(`@(Is[A-Z]\w*|Validate\w*|Min\w*|Max\w*|Length|Matches|Array\w+|Equals|NotEquals|Allow)\s*\(`)
	mappedTypeRe = regexp.MustCompile(`extends\s+(PartialType|PickType|OmitType|IntersectionType)\s*\(`)
)

func init() {
	Register(Check{
		ID:       "dto-validation",
		Summary:  "DTO class has no class-validator decorators.",
		Severity: "MEDIUM",
		Keywords: [][]string{{"dto"}, {"validat", "class-validator", "decorat"}},
		Applies:  notTest(isDTO),
		Eval:     evalDTOValidation,
	})
}

func evalDTOValidation(f ir.CandidateFile, _ string, _ Settings) []Hit {
	// Mapped types inherit the decorators of their base DTO.
	if mappedTypeRe.Match(f.Content) {
		return nil
	}
	return missing(f.Content, validatorRe, "class without validation decorators")
}
