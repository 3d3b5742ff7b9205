package rulesdsl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cursorRulesJSON = `{
	"rules": [
		{
			"pattern": "src/modules/**",
			"instructions": [
				"controllers must not query the database",
				"keep business logic in services"
			]
		},
		{
			"pattern": "**/*.ts",
			"instructions": ["never use direct environment variable access"]
		}
	]
}`

func TestParse_JSONWithTabs(t *testing.T) {
	rs, err := Parse([]byte(cursorRulesJSON), ".cursorrules")
	require.NoError(t, err)
	require.Len(t, rs.Groups, 2)

	assert.Equal(t, ".cursorrules", rs.Source)
	assert.Equal(t, "src/modules/**", rs.Groups[0].Pattern)
	assert.Equal(t, []string{"controllers must not query the database", "keep business logic in services"}, rs.Groups[0].Instructions)
	assert.Equal(t, 1, rs.Groups[1].Index)
}

func TestParse_YAMLList(t *testing.T) {
	src := `
- name: dto
  pattern: "src/**/dto/*.dto.ts"
  instructions:
    - DTOs must use class-validator decorators
`
	rs, err := Parse([]byte(src), "rules.yaml")
	require.NoError(t, err)
	require.Len(t, rs.Groups, 1)
	assert.Equal(t, "dto", rs.Groups[0].Name)
}

func TestParse_PatternMapKeepsOrder(t *testing.T) {
	src := `
"src/**/*.controller.ts":
  - controllers must not query the database
"**/*.ts": never use console.log
"Dockerfile":
  - pin docker base image tags, never use latest
`
	rs, err := Parse([]byte(src), "")
	require.NoError(t, err)
	require.Len(t, rs.Groups, 3)
	assert.Equal(t, "src/**/*.controller.ts", rs.Groups[0].Pattern)
	assert.Equal(t, []string{"never use console.log"}, rs.Groups[1].Instructions)
	assert.Equal(t, "Dockerfile", rs.Groups[2].Pattern)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason string
	}{
		{"empty document", "", "empty document"},
		{"not yaml", "rules: [", "cannot parse"},
		{"scalar document", "just text", "unexpected structure"},
		{"no groups", `{"rules": []}`, "no rule groups"},
		{"empty pattern", `{"rules": [{"pattern": " ", "instructions": ["x"]}]}`, "empty pattern"},
		{"empty instructions", `{"rules": [{"pattern": "src/**", "instructions": []}]}`, "no instructions"},
		{"blank instruction", `{"rules": [{"pattern": "src/**", "instructions": ["ok", "  "]}]}`, "instruction 1 is blank"},
		{"invalid glob", `{"rules": [{"pattern": "src/[", "instructions": ["x"]}]}`, "invalid pattern"},
		{"null instructions", "\"src/**\":\n", "no instructions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "r.json")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRuleSet))

			var me *MalformedRuleSetError
			require.True(t, errors.As(err, &me))
			assert.Contains(t, me.Error(), tt.reason)
			assert.Equal(t, "r.json", me.Source)
		})
	}
}

func TestParse_GroupIndexInError(t *testing.T) {
	_, err := Parse([]byte(`[{"pattern":"a/**","instructions":["x"]},{"pattern":"b/**","instructions":[]}]`), "")
	var me *MalformedRuleSetError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, 1, me.Group)
	assert.Contains(t, err.Error(), "group 1")
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".cursorrules")
	require.NoError(t, os.WriteFile(p, []byte(cursorRulesJSON), 0o644))

	rs, err := LoadFile(p)
	require.NoError(t, err)
	assert.Len(t, rs.Groups, 2)

	_, err = LoadFile(filepath.Join(dir, "missing"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMalformedRuleSet))
}

// The loader must never panic on arbitrary input.
func FuzzParseNoPanic(f *testing.F) {
	seeds := []string{
		cursorRulesJSON,
		"- pattern: a\n  instructions: [b]\n",
		"\"**\": x\n",
		"{]",
		"",
	}
	for _, s := range seeds {
		f.Add([]byte(s))
	}
	f.Fuzz(func(t *testing.T, data []byte) {
		_, _ = Parse(data, "fuzz")
	})
}
