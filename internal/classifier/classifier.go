// Package classifier selects the rule groups that apply to a file path.
package classifier

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"

	"github.com/codewithboateng/archcheck/internal/ir"
)

// Compile compiles a rule pattern. `*` stays inside one path segment and
// `**` spans any number of segments, including none.
func Compile(pattern string) (glob.Glob, error) {
	p := strings.TrimSpace(pattern)
	if p == "" {
		return nil, fmt.Errorf("empty pattern")
	}
	p = patternPath(p)

	var out anyGlob
	for _, v := range variants(p) {
		g, err := glob.Compile(v, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// patternPath drops a leading "./" or "/". Backslashes are glob escapes in
// patterns and are kept as is.
func patternPath(p string) string {
	for {
		switch {
		case strings.HasPrefix(p, "./"):
			p = p[2:]
		case strings.HasPrefix(p, "/"):
			p = p[1:]
		default:
			return p
		}
	}
}

// variants expands p so that every "**/" segment may also match zero
// directories and a trailing "/**" also matches the directory itself.
func variants(p string) []string {
	out := expand(p)
	if strings.HasSuffix(p, "/**") {
		out = append(out, expand(strings.TrimSuffix(p, "/**"))...)
	}
	return dedupe(out)
}

func expand(p string) []string {
	k := strings.Index(p, "**/")
	for k > 0 && p[k-1] != '/' {
		n := strings.Index(p[k+3:], "**/")
		if n < 0 {
			return []string{p}
		}
		k += 3 + n
	}
	if k < 0 {
		return []string{p}
	}
	head := p[:k]
	var out []string
	for _, rest := range expand(p[k+3:]) {
		out = append(out, head+"**/"+rest, head+rest)
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

type anyGlob []glob.Glob

func (a anyGlob) Match(s string) bool {
	for _, g := range a {
		if g.Match(s) {
			return true
		}
	}
	return false
}

// NormalizePath converts a path to the form patterns are matched against.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "" {
		return p
	}
	return path.Clean(p)
}

type compiledGroup struct {
	group ir.RuleGroup
	g     glob.Glob
}

// Classifier holds the compiled patterns of one rule set.
type Classifier struct {
	groups []compiledGroup
}

func New(rs ir.RuleSet) (*Classifier, error) {
	c := &Classifier{groups: make([]compiledGroup, 0, len(rs.Groups))}
	for _, grp := range rs.Groups {
		g, err := Compile(grp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", grp.Index, err)
		}
		c.groups = append(c.groups, compiledGroup{group: grp, g: g})
	}
	return c, nil
}

// Classify returns the groups whose pattern matches p, in rule set order.
func (c *Classifier) Classify(p string) []ir.RuleGroup {
	np := NormalizePath(p)
	var out []ir.RuleGroup
	for _, cg := range c.groups {
		if cg.g.Match(np) {
			out = append(out, cg.group)
		}
	}
	return out
}

// Matcher is a set of globs used for excludes and waivers.
type Matcher []glob.Glob

func NewMatcher(patterns []string) (Matcher, error) {
	m := make(Matcher, 0, len(patterns))
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		g, err := Compile(p)
		if err != nil {
			return nil, err
		}
		m = append(m, g)
	}
	return m, nil
}

func (m Matcher) Match(p string) bool {
	np := NormalizePath(p)
	for _, g := range m {
		if g.Match(np) {
			return true
		}
	}
	return false
}
