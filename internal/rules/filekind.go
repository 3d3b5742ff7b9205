package rules

import (
	"bytes"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

var sourceExts = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true, ".cjs": true, ".mts": true, ".cts": true,
}

func isSource(p string) bool { return sourceExts[strings.ToLower(path.Ext(p))] }

func isTypeScript(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".ts" || ext == ".tsx" || ext == ".mts" || ext == ".cts"
}

// hasRole reports "user.controller.ts"-style files or files below a
// "controllers/" directory.
func hasRole(p, role string) bool {
	if !isSource(p) {
		return false
	}
	base := strings.ToLower(path.Base(p))
	if strings.Contains(base, "."+role+".") {
		return true
	}
	for _, seg := range strings.Split(strings.ToLower(path.Dir(p)), "/") {
		if seg == role+"s" {
			return true
		}
	}
	return false
}

func isController(p string) bool { return hasRole(p, "controller") }
func isService(p string) bool    { return hasRole(p, "service") }
func isGuard(p string) bool      { return hasRole(p, "guard") }
func isDTO(p string) bool        { return hasRole(p, "dto") }

func isTest(p string) bool {
	base := strings.ToLower(path.Base(p))
	return strings.Contains(base, ".spec.") || strings.Contains(base, ".test.") || strings.Contains(base, ".e2e-spec.")
}

// isConfigFile matches files allowed to read the environment.
func isConfigFile(p string) bool {
	lp := strings.ToLower(p)
	base := path.Base(lp)
	if strings.Contains(base, ".config.") || strings.HasPrefix(base, "config.") || strings.HasPrefix(base, "configuration.") {
		return true
	}
	return strings.HasPrefix(lp, "config/") || strings.Contains(lp, "/config/")
}

func isDockerfile(p string) bool {
	base := strings.ToLower(path.Base(p))
	return strings.HasPrefix(base, "dockerfile") || strings.HasSuffix(base, ".dockerfile")
}

func isCompose(p string) bool {
	base := strings.ToLower(path.Base(p))
	return (strings.HasPrefix(base, "docker-compose") || strings.HasPrefix(base, "compose")) &&
		(strings.HasSuffix(base, ".yml") || strings.HasSuffix(base, ".yaml"))
}

func notTest(pred func(string) bool) func(string) bool {
	return func(p string) bool { return pred(p) && !isTest(p) }
}

// isCommentLine skips whole-line JS/TS comments.
func isCommentLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") || strings.HasPrefix(trimmed, "*")
}

// eachLine calls fn with every line of content, numbered from 1. Lines have
// no length limit and a trailing \r is dropped.
func eachLine(content []byte, fn func(n int, line string)) {
	n := 0
	for len(content) > 0 {
		n++
		line := content
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			line, content = content[:i], content[i+1:]
		} else {
			content = nil
		}
		fn(n, string(bytes.TrimSuffix(line, []byte("\r"))))
	}
}

// grepLines returns one hit per non-comment line matching re.
func grepLines(content []byte, re *regexp.Regexp) []Hit {
	var out []Hit
	eachLine(content, func(n int, line string) {
		trim := strings.TrimSpace(line)
		if trim == "" || isCommentLine(trim) {
			return
		}
		if re.MatchString(line) {
			out = append(out, Hit{Line: n, Text: trim})
		}
	})
	return out
}

var classRe = regexp.MustCompile(`(?m)^[ \t]*(export\s+)?(default\s+)?(abstract\s+)?class\s+\w+`)

// missing reports the first class declaration when nothing in content
// matches re. Files without a class are not reported.
func missing(content []byte, re *regexp.Regexp, text string) []Hit {
	loc := classRe.FindIndex(content)
	if loc == nil || re.Match(content) {
		return nil
	}
	line := bytes.Count(content[:loc[0]], []byte("\n")) + 1
	return []Hit{{Line: line, Text: text}}
}

const maxEvidence = 200

// snippet trims evidence to maxEvidence bytes on a rune boundary.
func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxEvidence {
		n := maxEvidence
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		return s[:n] + "..."
	}
	return s
}
