package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codewithboateng/archcheck/internal/ir"
)

type DiffPayload struct {
	BaseID  string          `json:"base_id"`
	HeadID  string          `json:"head_id"`
	Summary DiffSummary     `json:"summary"`
	New     []diffViolation `json:"new"`
	Removed []diffViolation `json:"removed"`
	Changed []diffChanged   `json:"changed"`
}

type DiffSummary struct {
	NewCount     int `json:"new"`
	RemovedCount int `json:"removed"`
	ChangedCount int `json:"changed"`
}

type diffViolation struct {
	CheckID     string `json:"check_id"`
	Path        string `json:"path"`
	Line        int    `json:"line,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Instruction string `json:"instruction"`
	Evidence    string `json:"evidence,omitempty"`
	Occurrences int    `json:"occurrences,omitempty"`
}

type diffChanged struct {
	Key     string        `json:"key"`
	Base    diffViolation `json:"base"`
	Head    diffViolation `json:"head"`
	Changed []string      `json:"fields_changed"`
}

// Diff compares two reports. Violations are identified by
// check|path|instruction|evidence, so a moved line is a change, not a new
// violation.
func Diff(base, head *ir.Report) DiffPayload {
	bm := map[string]ir.Violation{}
	hm := map[string]ir.Violation{}
	for _, v := range base.All() {
		bm[keyOf(v)] = v
	}
	for _, v := range head.All() {
		hm[keyOf(v)] = v
	}

	added := []diffViolation{}
	removed := []diffViolation{}
	changed := []diffChanged{}

	// additions & changes
	for k, hv := range hm {
		bv, ok := bm[k]
		if !ok {
			added = append(added, asDiff(hv))
			continue
		}
		var fields []string
		if norm(bv.Severity) != norm(hv.Severity) {
			fields = append(fields, "severity")
		}
		if bv.Line != hv.Line {
			fields = append(fields, "line")
		}
		if bv.Occurrences != hv.Occurrences {
			fields = append(fields, "occurrences")
		}
		if len(fields) > 0 {
			changed = append(changed, diffChanged{Key: k, Base: asDiff(bv), Head: asDiff(hv), Changed: fields})
		}
	}
	// removals
	for k, bv := range bm {
		if _, ok := hm[k]; !ok {
			removed = append(removed, asDiff(bv))
		}
	}

	sortDiff(added)
	sortDiff(removed)
	sort.Slice(changed, func(i, j int) bool { return changed[i].Key < changed[j].Key })

	return DiffPayload{
		BaseID: base.ID,
		HeadID: head.ID,
		Summary: DiffSummary{
			NewCount:     len(added),
			RemovedCount: len(removed),
			ChangedCount: len(changed),
		},
		New:     added,
		Removed: removed,
		Changed: changed,
	}
}

func WriteDiffJSON(outDir string, base, head *ir.Report) (string, DiffPayload, error) {
	payload := Diff(base, head)
	path := filepath.Join(outDir, "diff_"+base.ID+"__"+head.ID+".json")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", payload, err
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", payload, err
	}
	return path, payload, os.WriteFile(path, b, 0o644)
}

func keyOf(v ir.Violation) string {
	sb := strings.Builder{}
	sb.WriteString(norm(v.CheckID))
	sb.WriteByte('|')
	sb.WriteString(v.Path)
	sb.WriteByte('|')
	sb.WriteString(strings.TrimSpace(v.Instruction))
	sb.WriteByte('|')
	// evidence drives logical identity for most checks
	sb.WriteString(strings.TrimSpace(v.Evidence))
	return sb.String()
}

func asDiff(v ir.Violation) diffViolation {
	return diffViolation{
		CheckID:     v.CheckID,
		Path:        v.Path,
		Line:        v.Line,
		Severity:    v.Severity,
		Instruction: v.Instruction,
		Evidence:    v.Evidence,
		Occurrences: v.Occurrences,
	}
}

func sortDiff(vs []diffViolation) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Path != vs[j].Path {
			return vs[i].Path < vs[j].Path
		}
		if vs[i].CheckID != vs[j].CheckID {
			return vs[i].CheckID < vs[j].CheckID
		}
		return vs[i].Instruction < vs[j].Instruction
	})
}

func norm(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
