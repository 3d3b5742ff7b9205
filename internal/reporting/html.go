package reporting

import (
	"fmt"
	"html"
	"io"
	"path/filepath"
	"sort"

	"github.com/codewithboateng/archcheck/internal/ir"
	"github.com/codewithboateng/archcheck/internal/rules"
)

func WriteHTML(runID, outDir string, rep *ir.Report) (string, error) {
	return writeFile(filepath.Join(outDir, runID+".html"), func(w io.Writer) error {
		return RenderHTML(w, rep)
	})
}

func RenderHTML(f io.Writer, rep *ir.Report) error {
	// Head + styles
	fmt.Fprintf(f, "<!doctype html><html><head><meta charset='utf-8'><title>%s</title>", html.EscapeString(rep.ID))
	fmt.Fprint(f, "<style>body{font-family:system-ui,Arial,sans-serif;padding:20px;line-height:1.4} table{border-collapse:collapse;margin:8px 0} td,th{border:1px solid #ddd;padding:6px} h1,h2{margin:6px 0 4px} .dim{color:#666} .mono{font-family:ui-monospace,Menlo,Consolas,monospace} .HIGH{color:#b00020} .MEDIUM{color:#b26a00}</style>")
	fmt.Fprint(f, "</head><body>")

	// Title + summary
	fmt.Fprintf(f, "<h1>archcheck report – <span class='mono'>%s</span></h1>", html.EscapeString(rep.ID))
	status := "compliant"
	if !rep.IsCompliant() {
		status = "non-compliant"
	}
	fmt.Fprintf(f, "<p><b>%s</b> &nbsp; Files: %d &nbsp; Violations: %d &nbsp; Waived: %d</p>",
		status, rep.Files, rep.TotalViolations(), rep.Waived)
	if rep.RuleSource != "" {
		fmt.Fprintf(f, "<p class='dim'>Rules: <span class='mono'>%s</span></p>", html.EscapeString(rep.RuleSource))
	}

	// Severity/disabled banner
	fmt.Fprintf(f, "<p class='dim'>Severity threshold: %s", html.EscapeString(rep.Context.SeverityThreshold))
	if n := len(rep.Context.DisabledChecks); n > 0 {
		fmt.Fprintf(f, " &nbsp; Disabled checks: %d", n)
	}
	fmt.Fprint(f, "</p>")

	// Counts per check, most frequent first
	if !rep.IsCompliant() {
		counts := map[string]int{}
		for _, v := range rep.All() {
			counts[v.CheckID]++
		}
		ids := make([]string, 0, len(counts))
		for id := range counts {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool {
			if counts[ids[i]] == counts[ids[j]] {
				return ids[i] < ids[j]
			}
			return counts[ids[i]] > counts[ids[j]]
		})
		fmt.Fprint(f, "<h2>By Check</h2><table><tr><th>Check</th><th>Severity</th><th>Violations</th></tr>")
		for _, id := range ids {
			sev := ""
			if c, ok := rules.Get(id); ok {
				sev = c.Severity
			}
			fmt.Fprintf(f, "<tr><td class='mono'>%s</td><td class='%s'>%s</td><td>%d</td></tr>",
				html.EscapeString(id), html.EscapeString(sev), html.EscapeString(sev), counts[id])
		}
		fmt.Fprint(f, "</table>")
	}

	// All violations
	if !rep.IsCompliant() {
		fmt.Fprint(f, "<h2>All Violations</h2><table><tr><th>Severity</th><th>Check</th><th>File</th><th>Line</th><th>Instruction</th><th>Evidence</th></tr>")
		for _, v := range rep.All() {
			fmt.Fprintf(f, "<tr><td class='%s'>%s</td><td class='mono'>%s</td><td class='mono'>%s</td><td>%d</td><td>%s</td><td class='mono'>%s</td></tr>",
				html.EscapeString(v.Severity),
				html.EscapeString(v.Severity),
				html.EscapeString(v.CheckID),
				html.EscapeString(v.Path),
				v.Line,
				html.EscapeString(v.Instruction),
				html.EscapeString(v.Evidence),
			)
		}
		fmt.Fprint(f, "</table>")
	} else {
		fmt.Fprint(f, "<h2>All Violations</h2><p class='dim'>No violations at or above the configured threshold.</p>")
	}

	if len(rep.Errors) > 0 {
		fmt.Fprint(f, "<h2>Unreadable Files</h2><table><tr><th>File</th><th>Error</th></tr>")
		for _, e := range rep.Errors {
			fmt.Fprintf(f, "<tr><td class='mono'>%s</td><td>%s</td></tr>", html.EscapeString(e.Path), html.EscapeString(e.Error))
		}
		fmt.Fprint(f, "</table>")
	}

	if len(rep.Skipped) > 0 {
		fmt.Fprint(f, "<h2>Instructions Without a Check</h2><table><tr><th>Pattern</th><th>Instruction</th></tr>")
		for _, s := range rep.Skipped {
			fmt.Fprintf(f, "<tr><td class='mono'>%s</td><td>%s</td></tr>", html.EscapeString(s.Pattern), html.EscapeString(s.Instruction))
		}
		fmt.Fprint(f, "</table>")
	}

	_, err := fmt.Fprint(f, "</body></html>")
	return err
}
