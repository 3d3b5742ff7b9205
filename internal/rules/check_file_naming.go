package rules

import (
	"path"
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var kebabRe = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*(\.[a-z0-9]+(-[a-z0-9]+)*)*$`)

func init() {
	Register(Check{
		ID:       "file-naming",
		Summary:  "File name is not kebab-case (e.g. user-profile.service.ts).",
		Severity: "LOW",
		Keywords: [][]string{{"kebab", "file name", "filename", "naming convention", "file naming"}},
		Applies:  isSource,
		Eval: func(f ir.CandidateFile, _ string, _ Settings) []Hit {
			base := path.Base(f.Path)
			if kebabRe.MatchString(base) {
				return nil
			}
			return []Hit{{Line: 0, Text: base}}
		},
	})
}
