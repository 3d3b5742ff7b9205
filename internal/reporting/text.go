package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/codewithboateng/archcheck/internal/ir"
)

// RenderText writes the human summary. A compliant report is one line;
// otherwise a header is followed by exactly one line per violation and one
// line per unreadable file.
func RenderText(w io.Writer, rep *ir.Report) error {
	if rep.IsCompliant() {
		_, err := fmt.Fprintf(w, "compliant (%d files checked)\n", rep.Files)
		if err != nil {
			return err
		}
		return renderErrors(w, rep)
	}

	paths := rep.Paths()
	if _, err := fmt.Fprintf(w, "non-compliant: %d violation(s) in %d file(s)\n", rep.TotalViolations(), len(paths)); err != nil {
		return err
	}
	for _, p := range paths {
		for _, v := range rep.Violations[p] {
			if _, err := fmt.Fprintln(w, FormatViolation(v)); err != nil {
				return err
			}
		}
	}
	return renderErrors(w, rep)
}

// FormatViolation renders `path:line: [SEVERITY check-id] instruction | evidence`.
func FormatViolation(v ir.Violation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:%d: [%s %s] %s", v.Path, v.Line, v.Severity, v.CheckID, oneLine(v.Instruction))
	if v.Evidence != "" {
		sb.WriteString(" | ")
		sb.WriteString(oneLine(v.Evidence))
	}
	return sb.String()
}

func renderErrors(w io.Writer, rep *ir.Report) error {
	for _, e := range rep.Errors {
		if _, err := fmt.Fprintf(w, "error: %s: %s\n", e.Path, oneLine(e.Error)); err != nil {
			return err
		}
	}
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
