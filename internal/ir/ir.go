package ir

import (
	"sort"
	"time"
)

const Version = "1.0"

// RuleSet is the loaded rule definition. Immutable after load.
type RuleSet struct {
	Source string      `json:"source,omitempty"`
	Groups []RuleGroup `json:"groups"`
}

type RuleGroup struct {
	Index        int      `json:"index"`
	Name         string   `json:"name,omitempty"`
	Pattern      string   `json:"pattern"`
	Instructions []string `json:"instructions"`
}

// CandidateFile is one file under check. Path is slash-separated and
// relative to the scan root.
type CandidateFile struct {
	Path    string
	Content []byte
	// Origin is the file on disk. Empty for in-memory candidates.
	Origin string
}

type Violation struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	Instruction string `json:"instruction"`
	CheckID     string `json:"check_id"`
	Severity    string `json:"severity"` // LOW|MEDIUM|HIGH
	Pattern     string `json:"pattern,omitempty"`
	Line        int    `json:"line,omitempty"` // 0 = whole file
	Message     string `json:"message"`
	Evidence    string `json:"evidence,omitempty"`
	Occurrences int    `json:"occurrences,omitempty"`
}

// FileError records a candidate that could not be read.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// SkippedInstruction is an instruction no heuristic could be resolved for.
type SkippedInstruction struct {
	Pattern     string `json:"pattern"`
	Instruction string `json:"instruction"`
	Reason      string `json:"reason"`
}

type Context struct {
	SeverityThreshold string   `json:"severity_threshold,omitempty"`
	DisabledChecks    []string `json:"disabled_checks,omitempty"`
	Roots             []string `json:"roots,omitempty"`
}

// Report is the compliance report of one run.
type Report struct {
	ID         string                 `json:"id"`
	StartedAt  time.Time              `json:"started_at"`
	IRVersion  string                 `json:"ir_version,omitempty"`
	RuleSource string                 `json:"rule_source,omitempty"`
	Context    Context                `json:"context"`
	Files      int                    `json:"files_checked"`
	Violations map[string][]Violation `json:"violations"`
	Errors     []FileError            `json:"errors,omitempty"`
	Skipped    []SkippedInstruction   `json:"skipped,omitempty"`
	Waived     int                    `json:"waived,omitempty"`
}

func (r *Report) TotalViolations() int {
	n := 0
	for _, vs := range r.Violations {
		n += len(vs)
	}
	return n
}

func (r *Report) IsCompliant() bool { return r.TotalViolations() == 0 }

// Paths returns the paths with at least one violation, sorted.
func (r *Report) Paths() []string {
	out := make([]string, 0, len(r.Violations))
	for p, vs := range r.Violations {
		if len(vs) > 0 {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// All flattens violations in path order.
func (r *Report) All() []Violation {
	var out []Violation
	for _, p := range r.Paths() {
		out = append(out, r.Violations[p]...)
	}
	return out
}
