package rules

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var linesLimitRe = regexp.MustCompile(`(?i)(\d+)\s*(lines|loc)\b`)

func init() {
	Register(Check{
		ID:       "max-file-lines",
		Summary:  "File is longer than the allowed number of lines; split it.",
		Severity: "LOW",
		Keywords: [][]string{{"lines", "line limit", "file length"}, {"file", "exceed", "max", "longer", "more than", "limit"}},
		Eval:     evalMaxFileLines,
	})
}

func evalMaxFileLines(f ir.CandidateFile, instruction string, s Settings) []Hit {
	limit := s.MaxFileLines
	if m := linesLimitRe.FindStringSubmatch(instruction); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			limit = n
		}
	}
	n := countLines(f.Content)
	if n <= limit {
		return nil
	}
	return []Hit{{Line: limit + 1, Text: fmt.Sprintf("%d lines (max %d)", n, limit)}}
}

func countLines(b []byte) int {
	if len(b) == 0 {
		return 0
	}
	n := bytes.Count(b, []byte("\n"))
	if b[len(b)-1] != '\n' {
		n++
	}
	return n
}
