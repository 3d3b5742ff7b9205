package rules

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewithboateng/archcheck/internal/ir"
	"github.com/codewithboateng/archcheck/internal/storage"
)

func TestRegistryComplete(t *testing.T) {
	want := []string{
		"controller-business-logic", "controller-db-access", "controller-decorator",
		"deep-relative-import", "docker-pinned-image", "dto-validation", "env-access",
		"file-naming", "guard-can-activate", "hardcoded-secret", "max-file-lines",
		"no-any", "no-console", "orm-synchronize", "service-injectable", "service-raw-sql",
	}
	var got []string
	for _, c := range List() {
		got = append(got, c.ID)
		assert.NotEmpty(t, c.Summary, c.ID)
		assert.Contains(t, []string{"LOW", "MEDIUM", "HIGH"}, c.Severity, c.ID)
		assert.NotNil(t, c.Eval, c.ID)
	}
	assert.Equal(t, want, got)

	_, ok := Get("NO-CONSOLE")
	assert.True(t, ok)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() { Register(Check{ID: "no-console"}) })
}

func TestResolve(t *testing.T) {
	cases := map[string]string{
		"Controllers must not query the database directly":           "controller-db-access",
		"Controllers should not use repositories":                    "controller-db-access",
		"Keep business logic out of controllers":                     "controller-business-logic",
		"Controllers must be decorated with @Controller":             "controller-decorator",
		"Services must not run raw SQL":                              "service-raw-sql",
		"Every service must be marked @Injectable":                   "service-injectable",
		"Guards must implement CanActivate":                          "guard-can-activate",
		"DTOs must use class-validator decorators":                   "dto-validation",
		"Never use direct environment variable access":               "env-access",
		"Do not read process.env outside config":                     "env-access",
		"No console logging":                                         "no-console",
		"Avoid the any type":                                         "no-any",
		"Never hardcode secrets or passwords":                        "hardcoded-secret",
		"Use kebab-case file names":                                  "file-naming",
		"Prefer path aliases over deep relative imports":             "deep-relative-import",
		"Never enable TypeORM synchronize in production":             "orm-synchronize",
		"Files must not exceed 200 lines":                            "max-file-lines",
		"Pin Docker base images to a specific version, never latest": "docker-pinned-image",
		"[no-console] whatever the words say":                        "no-console",
		"[NO-ANY] ids are case-insensitive":                          "no-any",
	}
	for ins, want := range cases {
		c, ok := Resolve(ins)
		if assert.True(t, ok, ins) {
			assert.Equal(t, want, c.ID, ins)
		}
	}

	for _, ins := range []string{
		"Write beautiful code",
		"Follow SOLID principles",
		"[not-a-check] console",
		"Use the company logo in every page",
	} {
		_, ok := Resolve(ins)
		assert.False(t, ok, ins)
	}
}

func TestResolveWordStart(t *testing.T) {
	// "reconsole" must not count as "console"
	_, ok := Resolve("reconsole the team")
	assert.False(t, ok)
}

func eval(t *testing.T, s Settings, path, content string, instructions ...string) Result {
	t.Helper()
	return NewEvaluator(s).Evaluate(
		ir.CandidateFile{Path: path, Content: []byte(content)},
		[]ir.RuleGroup{{Pattern: "**", Instructions: instructions}},
	)
}

func TestChecksDetect(t *testing.T) {
	long := strings.Repeat("x\n", 12)
	cases := []struct {
		name, path, content, instruction, check string
		line                                    int
	}{
		{"db in controller", "src/user.controller.ts", "class C {\n  a() { return this.userRepository.find(); }\n}", "controllers must not use repositories", "controller-db-access", 2},
		{"loop in controller", "src/user.controller.ts", "@Controller()\nclass C {\n  a() { for (const x of y) {} }\n}", "no business logic in controllers", "controller-business-logic", 3},
		{"controller without decorator", "src/user.controller.ts", "export class UserController {}\n", "controllers need the @Controller decorator", "controller-decorator", 1},
		{"raw sql in service", "src/user.service.ts", "@Injectable()\nclass S {\n  a() { return this.ds.query(`SELECT * FROM users`); }\n}", "services must not use raw sql", "service-raw-sql", 3},
		{"service without injectable", "src/user.service.ts", "\nexport class UserService {}\n", "services must be @Injectable", "service-injectable", 2},
		{"guard without canactivate", "src/auth.guard.ts", "export class AuthGuard {}\n", "guards must implement CanActivate", "guard-can-activate", 1},
		{"dto without validators", "src/create-user.dto.ts", "export class CreateUserDto {\n  name: string;\n}\n", "dto fields need validation decorators", "dto-validation", 1},
		{"env access", "src/app.service.ts", "// process.env in comment is fine\nconst p = process.env.PORT;\n", "no direct environment variable access", "env-access", 2},
		{"console", "src/app.ts", "console.log('hi');\n", "no console", "no-console", 1},
		{"any", "src/app.ts", "let x: any = 1;\n", "avoid the any type", "no-any", 1},
		{"secret", "src/app.ts", "const password = 'hunter2hunter2';\n", "no hardcoded secrets", "hardcoded-secret", 1},
		{"naming", "src/UserService.ts", "", "use kebab-case file names", "file-naming", 0},
		{"deep import", "src/a/b/c.ts", "import { X } from '../../../x';\n", "no deep relative imports", "deep-relative-import", 1},
		{"synchronize", "src/app.module.ts", "TypeOrmModule.forRoot({ synchronize: true })\n", "never synchronize schemas automatically", "orm-synchronize", 1},
		{"max lines", "src/app.ts", long, "files must not exceed 10 lines", "max-file-lines", 11},
		{"docker latest", "Dockerfile", "FROM node:latest\n", "pin docker images to a version", "docker-pinned-image", 1},
		{"docker untagged", "Dockerfile", "FROM --platform=linux/amd64 node AS build\nFROM build\n", "pin docker images to a version", "docker-pinned-image", 1},
		{"compose latest", "docker-compose.yml", "services:\n  db:\n    image: postgres:latest\n", "pin docker images to a version", "docker-pinned-image", 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := eval(t, DefaultSettings(), tc.path, tc.content, tc.instruction)
			require.Len(t, res.Violations, 1, fmt.Sprintf("%+v", res))
			v := res.Violations[0]
			assert.Equal(t, tc.check, v.CheckID)
			assert.Equal(t, tc.line, v.Line)
			assert.Equal(t, tc.instruction, v.Instruction)
			assert.Equal(t, tc.path, v.Path)
			assert.NotEmpty(t, v.ID)
		})
	}
}

func TestChecksClean(t *testing.T) {
	cases := []struct {
		name, path, content, instruction string
	}{
		{"controller delegates", "src/user.controller.ts", "@Controller('u')\nexport class C {\n  a() { return this.users.findAll(); }\n}", "controllers must not query the database"},
		{"db access outside controllers", "src/user.service.ts", "this.dataSource.query('SELECT 1')", "controllers must not query the database"},
		{"decorated controller", "src/user.controller.ts", "@Controller('u')\nexport class C {}", "controllers need the @Controller decorator"},
		{"parameterized query", "src/user.service.ts", "@Injectable()\nclass S { a() { return this.repo.find({ where: { id } }); } }", "services must not use raw sql"},
		{"injectable service", "src/user.service.ts", "@Injectable()\nexport class S {}", "services must be @Injectable"},
		{"guard ok", "src/auth.guard.ts", "export class AuthGuard implements CanActivate {}", "guards must implement CanActivate"},
		{"validated dto", "src/create-user.dto.ts", "export class CreateUserDto {\n  @IsString()\n  name: string;\n}", "dto fields need validation decorators"},
		{"mapped dto", "src/update-user.dto.ts", "export class UpdateUserDto extends PartialType(CreateUserDto) {}", "dto fields need validation decorators"},
		{"env in config", "src/config/database.config.ts", "export default () => ({ url: process.env.DB_URL });", "no direct environment variable access"},
		{"env in tests", "src/app.service.spec.ts", "process.env.X = '1';", "no direct environment variable access"},
		{"console in test", "src/app.spec.ts", "console.log(1)", "no console"},
		{"no any", "src/app.ts", "const company = 'anyone';\n", "avoid the any type"},
		{"secret from config", "src/app.ts", "const password = this.config.get('DB_PASSWORD');", "no hardcoded secrets"},
		{"kebab name", "src/user-profile.service.ts", "", "use kebab-case file names"},
		{"shallow import", "src/a.ts", "import { X } from '../../x';", "no deep relative imports"},
		{"synchronize false", "src/app.module.ts", "synchronize: false", "never synchronize schemas automatically"},
		{"short file", "src/app.ts", "a\nb\n", "files must not exceed 10 lines"},
		{"docker pinned", "Dockerfile", "FROM node:20-alpine AS build\nFROM build\nFROM scratch\nFROM ${BASE}\n", "pin docker images to a version"},
		{"not a dockerfile", "src/app.ts", "FROM node:latest", "pin docker images to a version"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := eval(t, DefaultSettings(), tc.path, tc.content, tc.instruction)
			assert.Empty(t, res.Violations)
		})
	}
}

func TestSecretIsMasked(t *testing.T) {
	res := eval(t, DefaultSettings(), "src/app.ts", "const apiKey = 'sk_live_abcdef123456';\n", "no hardcoded api keys")
	require.Len(t, res.Violations, 1)
	assert.NotContains(t, res.Violations[0].Evidence, "sk_live")
	assert.Contains(t, res.Violations[0].Evidence, "****")
}

func TestMaxFileLinesFromSettings(t *testing.T) {
	content := strings.Repeat("x\n", 6)
	s := DefaultSettings()
	s.MaxFileLines = 5
	res := eval(t, s, "src/app.ts", content, "keep files short: limit lines per file")
	require.Len(t, res.Violations, 1)
	assert.Contains(t, res.Violations[0].Evidence, "6 lines (max 5)")
}

func TestEvaluateOnePerInstructionWithOccurrences(t *testing.T) {
	res := eval(t, DefaultSettings(), "src/app.ts", "console.log(1);\nconsole.warn(2);\nconsole.error(3);\n", "no console")
	require.Len(t, res.Violations, 1)
	assert.Equal(t, 3, res.Violations[0].Occurrences)
	assert.Equal(t, 1, res.Violations[0].Line)
	assert.Equal(t, "console.log(1);", res.Violations[0].Evidence)
}

func TestEvaluateDistinctInstructionsSameCheck(t *testing.T) {
	res := eval(t, DefaultSettings(), "src/app.ts", "console.log(1);\n", "no console", "Never log with console")
	assert.Len(t, res.Violations, 2)
}

func TestEvaluateNoGroups(t *testing.T) {
	res := NewEvaluator(DefaultSettings()).Evaluate(ir.CandidateFile{Path: "src/app.ts", Content: []byte("console.log(1)")}, nil)
	assert.Empty(t, res.Violations)
	assert.Empty(t, res.Skipped)
}

func TestEvaluateDuplicateInstructionAcrossGroups(t *testing.T) {
	f := ir.CandidateFile{Path: "src/app.ts", Content: []byte("console.log(1)\n")}
	res := NewEvaluator(DefaultSettings()).Evaluate(f, []ir.RuleGroup{
		{Index: 0, Pattern: "src/**", Instructions: []string{"no console"}},
		{Index: 1, Pattern: "**/*.ts", Instructions: []string{"  no console  ", "Be kind"}},
	})
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "src/**", res.Violations[0].Pattern)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "**/*.ts", res.Skipped[0].Pattern)
}

func TestEvaluateThresholdAndDisabled(t *testing.T) {
	content := "console.log(1);\nconst p = process.env.X;\n"
	all := []string{"no console", "no direct environment variable access"}

	s := DefaultSettings()
	s.SeverityThreshold = "HIGH"
	res := eval(t, s, "src/app.ts", content, all...)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "env-access", res.Violations[0].CheckID)

	s = DefaultSettings()
	s.Disabled = DisabledSet([]string{" env-access "})
	res = eval(t, s, "src/app.ts", content, all...)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "no-console", res.Violations[0].CheckID)
}

func TestEvaluateSortsBySeverity(t *testing.T) {
	content := "console.log(1);\nconst p = process.env.X;\n"
	res := eval(t, DefaultSettings(), "src/app.ts", content, "no console", "no direct environment variable access")
	require.Len(t, res.Violations, 2)
	assert.Equal(t, "HIGH", res.Violations[0].Severity)
	assert.Equal(t, "LOW", res.Violations[1].Severity)
}

func TestViolationIDStable(t *testing.T) {
	a := eval(t, DefaultSettings(), "src/app.ts", "console.log(1)", "no console")
	b := eval(t, DefaultSettings(), "src/app.ts", "console.log(1)", "no console")
	require.Len(t, a.Violations, 1)
	assert.Equal(t, a.Violations[0].ID, b.Violations[0].ID)
	assert.True(t, strings.HasPrefix(a.Violations[0].ID, "no-console-"))
}

func TestApplyWaivers(t *testing.T) {
	vs := []ir.Violation{
		{CheckID: "no-console", Path: "src/legacy/a.ts", Evidence: "console.log(1)"},
		{CheckID: "no-console", Path: "src/new/b.ts", Evidence: "console.log(2)"},
		{CheckID: "env-access", Path: "src/legacy/a.ts", Evidence: "process.env.PORT"},
		{CheckID: "env-access", Path: "src/new/b.ts", Evidence: "process.env.SECRET"},
	}
	kept, n := ApplyWaivers(vs, []storage.Waiver{
		{ID: 1, CheckID: "NO-CONSOLE", PathGlob: "src/legacy/**"},
		{ID: 2, CheckID: "*", PatternSub: "secret"},
		{ID: 3, CheckID: "env-access", PathGlob: "src/[bad"},
	})
	assert.Equal(t, 2, n)
	require.Len(t, kept, 2)
	assert.Equal(t, "src/new/b.ts", kept[0].Path)
	assert.Equal(t, "env-access", kept[1].CheckID)
	assert.Equal(t, "src/legacy/a.ts", kept[1].Path)

	same, n := ApplyWaivers(vs, nil)
	assert.Equal(t, 0, n)
	assert.Len(t, same, 4)
}

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityRank("high"), SeverityRank("MEDIUM"))
	assert.Greater(t, SeverityRank("MEDIUM"), SeverityRank("LOW"))
	assert.Equal(t, SeverityRank("LOW"), SeverityRank("bogus"))
}

// withCheck registers c for the duration of the test.
func withCheck(t *testing.T, c Check) {
	t.Helper()
	savedReg := append([]Check(nil), registry...)
	savedIdx := make(map[string]int, len(checkIdx))
	for k, v := range checkIdx {
		savedIdx[k] = v
	}
	Register(c)
	t.Cleanup(func() { registry, checkIdx = savedReg, savedIdx })
}

func TestEvaluateRecoversPanickingCheck(t *testing.T) {
	withCheck(t, Check{
		ID:       "exploding-check",
		Severity: "LOW",
		Eval: func(ir.CandidateFile, string, Settings) []Hit {
			panic("boom")
		},
	})
	res := eval(t, DefaultSettings(), "src/app.ts", "console.log(1);\n", "[exploding-check] anything", "no console")
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "no-console", res.Violations[0].CheckID)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "src/app.ts", res.Errors[0].Path)
	assert.Equal(t, "check exploding-check panicked: boom", res.Errors[0].Error)
}

func TestSnippetCutsOnRuneBoundary(t *testing.T) {
	s := strings.Repeat("a", maxEvidence-1) + "é tail"
	out := snippet(s)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, strings.Repeat("a", maxEvidence-1)+"...", out)

	short := "console.log('é');"
	assert.Equal(t, short, snippet("  "+short+"  "))
}

func TestEvidenceStaysValidUTF8(t *testing.T) {
	line := "console.log('" + strings.Repeat("x", maxEvidence-14) + "é');"
	res := eval(t, DefaultSettings(), "src/app.ts", line+"\n", "no console")
	require.Len(t, res.Violations, 1)
	assert.True(t, utf8.ValidString(res.Violations[0].Evidence))
}

func TestGrepLinesHasNoLineLimit(t *testing.T) {
	re := regexp.MustCompile(`console\.log`)
	long := "const blob = '" + strings.Repeat("x", 5<<20) + "';"
	content := []byte("const a = 1;\r\n" + long + "\nconsole.log(a);\r\n")

	hits := grepLines(content, re)
	require.Len(t, hits, 1)
	assert.Equal(t, Hit{Line: 3, Text: "console.log(a);"}, hits[0])
}

func TestEachLineNumbering(t *testing.T) {
	var got []string
	eachLine([]byte("a\n\nb\r\nc"), func(n int, line string) {
		got = append(got, fmt.Sprintf("%d:%s", n, line))
	})
	assert.Equal(t, []string{"1:a", "2:", "3:b", "4:c"}, got)
}
