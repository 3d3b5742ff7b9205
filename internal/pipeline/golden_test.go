package pipeline

import (
	"bytes"
	"context"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/archcheck/internal/reporting"
)

var update = flag.Bool("update", false, "update golden snapshot")

func TestGolden_NestAppText(t *testing.T) {
	rep, err := Run(context.Background(), Options{
		RulesPath: filepath.Join("testdata", "nest-app", ".cursorrules"),
		Workers:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Files)
	assert.Empty(t, rep.Skipped)
	assert.Empty(t, rep.Errors)

	var got bytes.Buffer
	require.NoError(t, reporting.RenderText(&got, &rep))

	golden := filepath.Join("testdata", "nest-app.golden")
	if *update {
		require.NoError(t, os.WriteFile(golden, got.Bytes(), 0o644))
		t.Logf("updated golden: %s", golden)
		return
	}
	want, err := os.ReadFile(golden)
	require.NoError(t, err, "missing golden; run: go test ./internal/pipeline -run Golden -update")
	assert.Equal(t, string(want), got.String())
}
