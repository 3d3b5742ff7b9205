package rules

import (
	"regexp"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var controllerDBRe = regexp.MustCompile(`(\.query\s*\(|createQueryBuilder\s*\(|getRepository\s*\(|getManager\s*\(|\bdataSource\.|\bentityManager\.|@InjectRepository\s*\(|@InjectModel\s*\(|\bprisma\.\w+\.|\bknex\s*\(|this\.\w*[Rr]epo(sitory)?\w*\.\w+\s*\()`)

func init() {
	Register(Check{
		ID:       "controller-db-access",
		Summary:  "Controller talks to the database directly; delegate persistence to a service or repository.",
		Severity: "HIGH",
		Keywords: [][]string{
			{"controller"},
			{"database", "quer", "repositor", "orm", "sql", "persistence", "entitymanager", "datasource"},
		},
		Applies: isController,
		Eval:    evalControllerDBAccess,
	})
}

func evalControllerDBAccess(f ir.CandidateFile, _ string, _ Settings) []Hit {
	return grepLines(f.Content, controllerDBRe)
}
