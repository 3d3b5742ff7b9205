package reporting

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/codewithboateng/archcheck/internal/ir"
)

func RenderJSON(w io.Writer, rep *ir.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func WriteJSON(runID, outDir string, rep *ir.Report) (string, error) {
	return writeFile(filepath.Join(outDir, runID+".json"), func(w io.Writer) error {
		return RenderJSON(w, rep)
	})
}

func writeFile(path string, render func(io.Writer) error) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return "", err
	}
	return path, f.Close()
}
