package rules

import (
	"strings"

	"go.uber.org/zap"

	"github.com/codewithboateng/archcheck/internal/classifier"
	"github.com/codewithboateng/archcheck/internal/ir"
	"github.com/codewithboateng/archcheck/internal/storage"
)

// ApplyWaivers filters out violations that match any active waiver.
// Returns (kept, waivedCount)
func ApplyWaivers(in []ir.Violation, waivers []storage.Waiver) ([]ir.Violation, int) {
	if len(waivers) == 0 || len(in) == 0 {
		return in, 0
	}
	type compiled struct {
		w     storage.Waiver
		paths classifier.Matcher
	}
	ws := make([]compiled, 0, len(waivers))
	for _, w := range waivers {
		c := compiled{w: w}
		if w.PathGlob != "" {
			m, err := classifier.NewMatcher([]string{w.PathGlob})
			if err != nil {
				zap.L().Warn("skipping waiver with invalid path glob",
					zap.Int64("waiver", w.ID), zap.String("glob", w.PathGlob), zap.Error(err))
				continue
			}
			c.paths = m
		}
		ws = append(ws, c)
	}

	var out []ir.Violation
	waived := 0
nextViolation:
	for _, v := range in {
		for _, c := range ws {
			if c.w.CheckID != "*" && !eqCI(v.CheckID, c.w.CheckID) {
				continue
			}
			if c.paths != nil && !c.paths.Match(v.Path) {
				continue
			}
			if c.w.PatternSub != "" {
				ps := strings.ToUpper(c.w.PatternSub)
				if !strings.Contains(strings.ToUpper(v.Evidence), ps) &&
					!strings.Contains(strings.ToUpper(v.Instruction), ps) {
					continue
				}
			}
			waived++
			continue nextViolation
		}
		out = append(out, v)
	}
	return out, waived
}

func eqCI(a, b string) bool { return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) }
