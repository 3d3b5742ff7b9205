package rules

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/codewithboateng/archcheck/internal/ir"
)

// Result is the outcome of checking one file.
type Result struct {
	Path       string
	Violations []ir.Violation
	Skipped    []ir.SkippedInstruction
	Errors     []ir.FileError
}

// Evaluator applies resolved checks to candidate files. It holds no mutable
// state and is safe for concurrent use.
type Evaluator struct {
	settings Settings
}

func NewEvaluator(s Settings) *Evaluator {
	return &Evaluator{settings: s.withDefaults()}
}

func (e *Evaluator) Settings() Settings { return e.settings }

// Evaluate runs every instruction of groups against f. Identical instruction
// text from overlapping groups is checked once and attributed to the first
// group; distinct instructions are never merged.
func (e *Evaluator) Evaluate(f ir.CandidateFile, groups []ir.RuleGroup) Result {
	res := Result{Path: f.Path}
	seen := map[string]struct{}{}

	for _, g := range groups {
		for _, ins := range g.Instructions {
			key := strings.TrimSpace(ins)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			c, ok := Resolve(ins)
			if !ok {
				zap.L().Debug("no heuristic for instruction",
					zap.String("pattern", g.Pattern),
					zap.String("instruction", ins))
				res.Skipped = append(res.Skipped, ir.SkippedInstruction{
					Pattern:     g.Pattern,
					Instruction: ins,
					Reason:      "no matching check",
				})
				continue
			}
			if e.settings.disabled(c.ID) || !e.settings.severityOK(c.Severity) {
				continue
			}
			if c.Applies != nil && !c.Applies(f.Path) {
				continue
			}
			hits, err := runCheck(c, f, stripExplicit(ins), e.settings)
			if err != nil {
				zap.L().Error("check failed",
					zap.String("path", f.Path),
					zap.String("check", c.ID),
					zap.Error(err))
				res.Errors = append(res.Errors, ir.FileError{Path: f.Path, Error: err.Error()})
				continue
			}
			if len(hits) == 0 {
				continue
			}
			first := hits[0]
			res.Violations = append(res.Violations, ir.Violation{
				ID:          makeID(c.ID, f.Path, ins, first.Line),
				Path:        f.Path,
				Instruction: ins,
				CheckID:     c.ID,
				Severity:    c.Severity,
				Pattern:     g.Pattern,
				Line:        first.Line,
				Message:     c.Summary,
				Evidence:    snippet(first.Text),
				Occurrences: len(hits),
			})
		}
	}

	SortViolations(res.Violations)
	return res
}

// runCheck converts a panic in c.Eval into an error.
func runCheck(c Check, f ir.CandidateFile, instruction string, s Settings) (hits []Hit, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("check %s panicked: %v", c.ID, r)
		}
	}()
	return c.Eval(f, instruction, s), nil
}

// SortViolations orders by severity (desc), line, then check ID.
func SortViolations(vs []ir.Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		ri, rj := SeverityRank(vs[i].Severity), SeverityRank(vs[j].Severity)
		if ri != rj {
			return ri > rj
		}
		if vs[i].Line != vs[j].Line {
			return vs[i].Line < vs[j].Line
		}
		if vs[i].CheckID != vs[j].CheckID {
			return vs[i].CheckID < vs[j].CheckID
		}
		return vs[i].Instruction < vs[j].Instruction
	})
}
