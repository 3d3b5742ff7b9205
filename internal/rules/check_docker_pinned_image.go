package rules

import (
	"regexp"
	"strings"

	"github.com/codewithboateng/archcheck/internal/ir"
)

var (
	dockerFromRe   = regexp.MustCompile(`(?i)^\s*FROM\s+(?:--platform=\S+\s+)?(\S+)(?:\s+AS\s+(\S+))?`)
	composeImageRe = regexp.MustCompile(`^\s*image:\s*['"]?([^'"\s#]+)`)
)

func init() {
	Register(Check{
		ID:       "docker-pinned-image",
		Summary:  "Container image is not pinned to an explicit tag or digest.",
		Severity: "MEDIUM",
		Keywords: [][]string{{"docker", "base image", "image", "container"}, {"latest", "pin", "tag", "version"}},
		Applies:  func(p string) bool { return isDockerfile(p) || isCompose(p) },
		Eval:     evalDockerPinnedImage,
	})
}

func evalDockerPinnedImage(f ir.CandidateFile, _ string, _ Settings) []Hit {
	var out []Hit
	stages := map[string]bool{}
	compose := isCompose(f.Path)

	eachLine(f.Content, func(n int, line string) {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			return
		}
		var image string
		if compose {
			if m := composeImageRe.FindStringSubmatch(line); m != nil {
				image = m[1]
			}
		} else if m := dockerFromRe.FindStringSubmatch(line); m != nil {
			image = m[1]
			if m[2] != "" {
				stages[strings.ToLower(m[2])] = true
			}
		}
		if image == "" || stages[strings.ToLower(image)] && !strings.Contains(image, ":") {
			return
		}
		if !imagePinned(image) {
			out = append(out, Hit{Line: n, Text: strings.TrimSpace(line)})
		}
	})
	return out
}

// imagePinned accepts digests, build args and explicit non-latest tags.
func imagePinned(image string) bool {
	if strings.EqualFold(image, "scratch") || strings.Contains(image, "@sha256:") || strings.Contains(image, "$") {
		return true
	}
	last := image[strings.LastIndex(image, "/")+1:]
	i := strings.LastIndex(last, ":")
	if i < 0 {
		return false
	}
	tag := last[i+1:]
	return tag != "" && !strings.EqualFold(tag, "latest")
}
