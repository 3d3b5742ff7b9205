package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var deepImportRe = regexp.MustCompile(`(\bfrom\s+|\brequire\s*\(\s*|\bimport\s*\(\s*|^\s*import\s+)['"](\.\./){3,}`)

func init() {
	Register(Check{
		ID:       "deep-relative-import",
		Summary:  "Import climbs three or more directories; use a path alias or module boundary.",
		Severity: "LOW",
		Keywords: [][]string{{"relative import", "../", "deep import", "path alias"}},
		Applies:  isSource,
		Eval: func(f ir.CandidateFile, _ string, _ Settings) []Hit {
			return grepLines(f.Content, deepImportRe)
		},
	})
}
