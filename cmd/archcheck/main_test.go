package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/archcheck/internal/ir"
)

const rulesJSON = `{
	"rules": [
		{"pattern": "src/modules/**", "instructions": ["Controllers must not query the database directly"]},
		{"pattern": "**/*.ts", "instructions": ["Never use direct environment variable access"]}
	]
}`

const dirtyController = `@Controller('users')
export class UserController {
  findAll() {
    return this.dataSource.query('SELECT 1');
  }
}
`

func project(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	code := run(args, &out, &errb)
	return code, out.String(), errb.String()
}

func TestCheckCompliant(t *testing.T) {
	root := project(t, map[string]string{
		".cursorrules": rulesJSON,
		"src/main.ts":  "export const x = 1;\n",
	})
	code, out, _ := runCLI(t, "check", "--rules", filepath.Join(root, ".cursorrules"))
	assert.Equal(t, exitCompliant, code)
	assert.Equal(t, "compliant (2 files checked)\n", out)
}

func TestCheckViolations(t *testing.T) {
	root := project(t, map[string]string{
		".cursorrules":                        rulesJSON,
		"src/modules/user/user.controller.ts": dirtyController,
	})
	code, out, _ := runCLI(t, "check", "--rules", filepath.Join(root, ".cursorrules"))
	assert.Equal(t, exitViolations, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "non-compliant: 1 violation(s) in 1 file(s)", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "src/modules/user/user.controller.ts:4: [HIGH controller-db-access] Controllers must not query the database directly"))
}

func TestCheckMalformedRules(t *testing.T) {
	root := project(t, map[string]string{
		".cursorrules": `{"rules": [{"pattern": "src/**", "instructions": []}]}`,
		"src/a.ts":     "x",
	})
	code, out, errOut := runCLI(t, "check", "--rules", filepath.Join(root, ".cursorrules"))
	assert.Equal(t, exitUsage, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "malformed rule set")
}

func TestCheckBadFlags(t *testing.T) {
	root := project(t, map[string]string{".cursorrules": rulesJSON})
	rulesPath := filepath.Join(root, ".cursorrules")

	code, _, errOut := runCLI(t, "check", "--rules", rulesPath, "--format", "xml")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "--format")

	code, _, _ = runCLI(t, "check", "--rules", rulesPath, "--disable", "no-such-check")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "check", "--no-such-flag")
	assert.Equal(t, exitUsage, code)
}

func TestCheckJSONFormat(t *testing.T) {
	root := project(t, map[string]string{
		".cursorrules":                        rulesJSON,
		"src/modules/user/user.controller.ts": dirtyController,
	})
	code, out, _ := runCLI(t, "check", "--rules", filepath.Join(root, ".cursorrules"), "--format", "json")
	assert.Equal(t, exitViolations, code)
	var rep ir.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 1, rep.TotalViolations())
}

func TestCheckDisableMakesCompliant(t *testing.T) {
	root := project(t, map[string]string{
		".cursorrules":                        rulesJSON,
		"src/modules/user/user.controller.ts": dirtyController,
	})
	code, _, _ := runCLI(t, "check", "--rules", filepath.Join(root, ".cursorrules"), "--disable", "controller-db-access")
	assert.Equal(t, exitCompliant, code)
}

func TestHistoryWaiversAndDiff(t *testing.T) {
	root := project(t, map[string]string{
		".cursorrules":                        rulesJSON,
		"src/modules/user/user.controller.ts": dirtyController,
	})
	rulesPath := filepath.Join(root, ".cursorrules")
	db := filepath.Join(t.TempDir(), "archcheck.db")

	code, _, _ := runCLI(t, "check", "--rules", rulesPath, "--db", db)
	require.Equal(t, exitViolations, code)

	code, out, _ := runCLI(t, "report", "--db", db)
	require.Equal(t, exitCompliant, code)
	assert.True(t, strings.HasPrefix(out, "non-compliant"))

	code, out, _ = runCLI(t, "report", "--db", db, "--list")
	require.Equal(t, exitCompliant, code)
	assert.Contains(t, out, "run-")

	code, out, _ = runCLI(t, "waiver", "add", "--db", db, "--check", "controller-db-access", "--path", "src/modules/user/**", "--reason", "legacy", "--by", "tester")
	require.Equal(t, exitCompliant, code, out)
	assert.Contains(t, out, "waiver 1 created")

	code, out, _ = runCLI(t, "check", "--rules", rulesPath, "--db", db)
	assert.Equal(t, exitCompliant, code)
	assert.True(t, strings.HasPrefix(out, "compliant"))

	code, out, _ = runCLI(t, "waiver", "list", "--db", db)
	require.Equal(t, exitCompliant, code)
	assert.Contains(t, out, "legacy")

	code, _, _ = runCLI(t, "waiver", "revoke", "--db", db, "1")
	require.Equal(t, exitCompliant, code)

	code, out, _ = runCLI(t, "report", "--db", db, "--list", "--limit", "2")
	require.Equal(t, exitCompliant, code)
	var ids []string
	for _, l := range strings.Split(strings.TrimSpace(out), "\n")[1:] {
		ids = append(ids, strings.Fields(l)[0])
	}
	require.Len(t, ids, 2)

	outDir := t.TempDir()
	code, out, _ = runCLI(t, "diff", "--db", db, "--base", ids[0], "--head", ids[1], "--out", outDir)
	require.Equal(t, exitCompliant, code)
	assert.Equal(t, "new: 1  removed: 0  changed: 0\n", out)

	code, _, errOut := runCLI(t, "diff", "--db", db, "--base", "nope", "--head", ids[1])
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, `no stored run "nope"`)

	code, out, _ = runCLI(t, "report", "--db", db, "--run", ids[1], "--min-severity", "high")
	require.Equal(t, exitCompliant, code)
	assert.Contains(t, out, "src/modules/user/user.controller.ts:4: [HIGH controller-db-access]")

	code, out, _ = runCLI(t, "report", "--db", db, "--prune", "1")
	require.Equal(t, exitCompliant, code)
	assert.Equal(t, "pruned 1 run(s)\n", out)
}

func TestReportRequiresDB(t *testing.T) {
	code, _, errOut := runCLI(t, "report")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, errOut, "--db")
}

func TestReportRejectsUnknownFormat(t *testing.T) {
	db := filepath.Join(t.TempDir(), "archcheck.db")
	code, out, errOut := runCLI(t, "report", "--db", db, "--format", "xml")
	assert.Equal(t, exitUsage, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, `unknown --format "xml"`)
}

func TestRulesListAndValidate(t *testing.T) {
	code, out, _ := runCLI(t, "rules")
	require.Equal(t, exitCompliant, code)
	assert.Contains(t, out, "controller-db-access")
	assert.Contains(t, out, "env-access")

	root := project(t, map[string]string{".cursorrules": `{"**/*.ts": ["No console logging", "Be kind"]}`})
	code, out, _ = runCLI(t, "rules", "validate", filepath.Join(root, ".cursorrules"))
	require.Equal(t, exitCompliant, code)
	assert.Contains(t, out, "no-console")
	assert.Contains(t, out, "1 group(s) valid; 1 instruction(s) without a check")

	code, _, _ = runCLI(t, "rules", "validate", filepath.Join(root, "missing"))
	assert.Equal(t, exitUsage, code)
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "version")
	assert.Equal(t, exitCompliant, code)
	assert.Contains(t, out, "archcheck dev")
}
