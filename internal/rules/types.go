package rules

import "github.com/codewithboateng/archcheck/internal/ir"

// Check is one heuristic an instruction can resolve to.
type Check struct {
	ID       string
	Summary  string
	Severity string // LOW|MEDIUM|HIGH
	// Keywords resolve free-text instructions: every group needs at least
	// one keyword starting a word of the lowercased instruction.
	Keywords [][]string
	// Applies filters by file kind. Nil means every file.
	Applies func(path string) bool
	// Eval returns the offending lines of f. The instruction is passed for
	// checks that read parameters from it.
	Eval func(f ir.CandidateFile, instruction string, s Settings) []Hit
}

// Hit is one match inside a file. Line 0 means the whole file.
type Hit struct {
	Line int
	Text string
}
