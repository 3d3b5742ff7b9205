package reporting

import (
	"sort"

	"github.com/codewithboateng/archcheck/internal/ir"
	"github.com/codewithboateng/archcheck/internal/rules"
)

// Build aggregates per-file results into a report. Identity fields (ID,
// StartedAt, RuleSource, Context) are left for the caller.
func Build(results []rules.Result) ir.Report {
	rep := ir.Report{
		IRVersion:  ir.Version,
		Files:      len(results),
		Violations: map[string][]ir.Violation{},
	}
	seen := map[string]struct{}{}
	for _, r := range results {
		if len(r.Violations) > 0 {
			vs := append(rep.Violations[r.Path], r.Violations...)
			rules.SortViolations(vs)
			rep.Violations[r.Path] = vs
		}
		rep.Errors = append(rep.Errors, r.Errors...)
		for _, s := range r.Skipped {
			k := s.Pattern + "\x00" + s.Instruction
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			rep.Skipped = append(rep.Skipped, s)
		}
	}
	sort.SliceStable(rep.Errors, func(i, j int) bool { return rep.Errors[i].Path < rep.Errors[j].Path })
	sort.SliceStable(rep.Skipped, func(i, j int) bool {
		if rep.Skipped[i].Pattern != rep.Skipped[j].Pattern {
			return rep.Skipped[i].Pattern < rep.Skipped[j].Pattern
		}
		return rep.Skipped[i].Instruction < rep.Skipped[j].Instruction
	})
	return rep
}
