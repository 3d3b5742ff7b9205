package rules

import (
	"fmt"
	"hash/crc32"
	"regexp"
	"sort"
	"strings"
)

var (
	registry  []Check
	checkIdx  = map[string]int{} // UPPER(checkID) -> index
	keywordRe = map[string]*regexp.Regexp{}
)

// Register adds a check. Called from init() of each check_*.go file.
func Register(c Check) {
	id := strings.ToUpper(strings.TrimSpace(c.ID))
	if _, dup := checkIdx[id]; dup {
		panic("rules: duplicate check " + c.ID)
	}
	registry = append(registry, c)
	checkIdx[id] = len(registry) - 1
	for _, grp := range c.Keywords {
		for _, kw := range grp {
			if _, ok := keywordRe[kw]; !ok {
				keywordRe[kw] = regexp.MustCompile(`(^|[^a-z0-9])` + regexp.QuoteMeta(strings.ToLower(kw)))
			}
		}
	}
}

// List returns every registered check sorted by ID.
func List() []Check {
	out := make([]Check, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a check by ID.
func Get(id string) (Check, bool) {
	idx, ok := checkIdx[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return Check{}, false
	}
	return registry[idx], true
}

var explicitRe = regexp.MustCompile(`^\[([A-Za-z0-9_-]+)\]\s*`)

// Resolve maps an instruction to a check. "[check-id] text" names the check
// directly; otherwise the check whose keyword groups all hit wins, preferring
// more groups, then the lower ID.
func Resolve(instruction string) (Check, bool) {
	if m := explicitRe.FindStringSubmatch(instruction); m != nil {
		return Get(m[1])
	}
	text := strings.ToLower(instruction)
	var (
		best  Check
		score int
	)
	for _, c := range List() {
		if len(c.Keywords) <= score {
			continue
		}
		if keywordsHit(text, c.Keywords) {
			best, score = c, len(c.Keywords)
		}
	}
	return best, score > 0
}

func keywordsHit(text string, groups [][]string) bool {
	for _, grp := range groups {
		hit := false
		for _, kw := range grp {
			if keywordRe[kw].MatchString(text) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// stripExplicit drops a leading "[check-id]" from an instruction.
func stripExplicit(instruction string) string {
	return explicitRe.ReplaceAllString(instruction, "")
}

func makeID(checkID, path, instruction string, line int) string {
	data := fmt.Sprintf("%s|%s|%s|%d", checkID, path, instruction, line)
	sum := crc32.ChecksumIEEE([]byte(data))
	return fmt.Sprintf("%s-%08x", checkID, sum)
}
