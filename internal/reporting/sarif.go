package reporting

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/codewithboateng/archcheck/internal/ir"
	"github.com/codewithboateng/archcheck/internal/rules"
)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Message   sarifMessage    `json:"message"`
	Level     string          `json:"level"` // error, warning, note
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           sarifRegion   `json:"region"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

const sarifSchema = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"

// RenderSARIF writes the report as a SARIF 2.1.0 log.
func RenderSARIF(w io.Writer, rep *ir.Report, toolVersion string) error {
	all := rep.All()
	results := make([]sarifResult, 0, len(all))
	used := map[string]bool{}
	for _, v := range all {
		start := v.Line
		if start <= 0 {
			start = 1
		}
		text := strings.TrimSpace(v.Instruction)
		if v.Evidence != "" {
			text += ": " + v.Evidence
		}
		used[v.CheckID] = true
		results = append(results, sarifResult{
			RuleID:  v.CheckID,
			Level:   sevToLevel(v.Severity),
			Message: sarifMessage{Text: text},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysical{
					ArtifactLocation: sarifArtifact{URI: v.Path},
					Region:           sarifRegion{StartLine: start},
				},
			}},
		})
	}

	var descs []sarifRule
	for _, c := range rules.List() {
		if used[c.ID] {
			descs = append(descs, sarifRule{ID: c.ID, ShortDescription: sarifMessage{Text: c.Summary}})
		}
	}

	log := sarifLog{
		Version: "2.1.0",
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:    "archcheck",
				Version: toolVersion,
				Rules:   descs,
			}},
			Results: results,
		}},
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func WriteSARIF(runID, outDir string, rep *ir.Report, toolVersion string) (string, error) {
	return writeFile(filepath.Join(outDir, runID+".sarif"), func(w io.Writer) error {
		return RenderSARIF(w, rep, toolVersion)
	})
}

func sevToLevel(s string) string {
	switch strings.ToUpper(s) {
	case "HIGH":
		return "error"
	case "MEDIUM":
		return "warning"
	default:
		return "note"
	}
}
