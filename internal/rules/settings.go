package rules

import "strings"

type Settings struct {
	SeverityThreshold string
	Disabled          map[string]bool // upper-cased check IDs
	MaxFileLines      int
}

func DefaultSettings() Settings {
	return Settings{
		SeverityThreshold: "LOW",
		Disabled:          map[string]bool{},
		MaxFileLines:      300,
	}
}

// withDefaults fills zero fields from DefaultSettings.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.SeverityThreshold == "" {
		s.SeverityThreshold = d.SeverityThreshold
	}
	if s.Disabled == nil {
		s.Disabled = d.Disabled
	}
	if s.MaxFileLines <= 0 {
		s.MaxFileLines = d.MaxFileLines
	}
	return s
}

// DisabledSet builds the Disabled map from a list of check IDs.
func DisabledSet(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out[strings.ToUpper(id)] = true
		}
	}
	return out
}

func SeverityRank(sev string) int {
	switch strings.ToUpper(strings.TrimSpace(sev)) {
	case "HIGH":
		return 3
	case "MEDIUM":
		return 2
	default:
		return 1 // LOW or unknown → LOW
	}
}

func (s Settings) severityOK(sev string) bool {
	return SeverityRank(sev) >= SeverityRank(s.SeverityThreshold)
}

func (s Settings) disabled(id string) bool {
	return s.Disabled[strings.ToUpper(strings.TrimSpace(id))]
}
