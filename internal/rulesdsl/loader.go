package rulesdsl

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codewithboateng/archcheck/internal/classifier"
	"github.com/codewithboateng/archcheck/internal/ir"
)

// ErrMalformedRuleSet is matched by every *MalformedRuleSetError.
var ErrMalformedRuleSet = errors.New("malformed rule set")

// MalformedRuleSetError reports why a rule set was rejected. Group is the
// zero-based group index, or -1 when the document itself is bad.
type MalformedRuleSetError struct {
	Source string
	Group  int
	Reason string
	Err    error
}

func (e *MalformedRuleSetError) Error() string {
	var sb strings.Builder
	sb.WriteString("malformed rule set")
	if e.Source != "" {
		sb.WriteString(" " + e.Source)
	}
	if e.Group >= 0 {
		fmt.Fprintf(&sb, ": group %d", e.Group)
	}
	sb.WriteString(": " + e.Reason)
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

func (e *MalformedRuleSetError) Unwrap() error { return e.Err }

func (e *MalformedRuleSetError) Is(target error) bool { return target == ErrMalformedRuleSet }

type dslPack struct {
	Rules []dslGroup `yaml:"rules"`
}

type dslGroup struct {
	Name         string   `yaml:"name"`
	Pattern      string   `yaml:"pattern"`
	Instructions []string `yaml:"instructions"`
}

// LoadFile reads and validates a rule set file.
func LoadFile(path string) (ir.RuleSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ir.RuleSet{}, fmt.Errorf("read rule set: %w", err)
	}
	return Parse(b, path)
}

// Parse decodes a rule set. Three shapes are accepted, in YAML or JSON:
//
//	rules: [{pattern: "src/**", instructions: ["..."]}]
//	[{pattern: "src/**", instructions: ["..."]}]
//	"src/**": ["..."]
func Parse(data []byte, source string) (ir.RuleSet, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		// JSON forbids raw tabs inside strings, so outside them they are
		// plain whitespace; YAML rejects them as indentation.
		data = bytes.ReplaceAll(data, []byte("\t"), []byte("  "))
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return ir.RuleSet{}, malformed(source, -1, "cannot parse", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return ir.RuleSet{}, malformed(source, -1, "empty document", nil)
	}

	groups, err := decodeGroups(root.Content[0])
	if err != nil {
		return ir.RuleSet{}, malformed(source, -1, "unexpected structure", err)
	}
	if len(groups) == 0 {
		return ir.RuleSet{}, malformed(source, -1, "no rule groups", nil)
	}

	rs := ir.RuleSet{Source: source, Groups: make([]ir.RuleGroup, 0, len(groups))}
	for i, g := range groups {
		grp, err := validate(i, g)
		if err != nil {
			err.Source = source
			return ir.RuleSet{}, err
		}
		rs.Groups = append(rs.Groups, grp)
	}
	return rs, nil
}

func decodeGroups(n *yaml.Node) ([]dslGroup, error) {
	switch n.Kind {
	case yaml.SequenceNode:
		var gs []dslGroup
		if err := n.Decode(&gs); err != nil {
			return nil, err
		}
		return gs, nil
	case yaml.MappingNode:
		if hasKey(n, "rules") {
			var pack dslPack
			if err := n.Decode(&pack); err != nil {
				return nil, err
			}
			return pack.Rules, nil
		}
		return decodePatternMap(n)
	default:
		return nil, fmt.Errorf("expected a mapping or a list at line %d", n.Line)
	}
}

// decodePatternMap keeps key order, which a Go map would lose.
func decodePatternMap(n *yaml.Node) ([]dslGroup, error) {
	var out []dslGroup
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		g := dslGroup{Pattern: k.Value}
		switch v.Kind {
		case yaml.ScalarNode:
			if v.Tag != "!!null" {
				g.Instructions = []string{v.Value}
			}
		case yaml.SequenceNode:
			if err := v.Decode(&g.Instructions); err != nil {
				return nil, fmt.Errorf("pattern %q: %w", k.Value, err)
			}
		default:
			return nil, fmt.Errorf("pattern %q: instructions must be a list (line %d)", k.Value, v.Line)
		}
		out = append(out, g)
	}
	return out, nil
}

func hasKey(n *yaml.Node, key string) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}

func validate(idx int, g dslGroup) (ir.RuleGroup, *MalformedRuleSetError) {
	pattern := strings.TrimSpace(g.Pattern)
	if pattern == "" {
		return ir.RuleGroup{}, &MalformedRuleSetError{Group: idx, Reason: "empty pattern"}
	}
	if _, err := classifier.Compile(pattern); err != nil {
		return ir.RuleGroup{}, &MalformedRuleSetError{Group: idx, Reason: "invalid pattern", Err: err}
	}
	if len(g.Instructions) == 0 {
		return ir.RuleGroup{}, &MalformedRuleSetError{Group: idx, Reason: fmt.Sprintf("pattern %q has no instructions", pattern)}
	}
	ins := make([]string, 0, len(g.Instructions))
	for j, s := range g.Instructions {
		s = strings.TrimSpace(s)
		if s == "" {
			return ir.RuleGroup{}, &MalformedRuleSetError{Group: idx, Reason: fmt.Sprintf("instruction %d is blank", j)}
		}
		ins = append(ins, s)
	}
	return ir.RuleGroup{
		Index:        idx,
		Name:         strings.TrimSpace(g.Name),
		Pattern:      pattern,
		Instructions: ins,
	}, nil
}

func malformed(source string, group int, reason string, err error) *MalformedRuleSetError {
	return &MalformedRuleSetError{Source: source, Group: group, Reason: reason, Err: err}
}
