package storage

import "time"

// RunRow is a lightweight listing row for `archcheck report --list`.
type RunRow struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	RuleSource string    `json:"rule_source,omitempty"`
	Files      int       `json:"files"`
	Violations int       `json:"violations"`
}
