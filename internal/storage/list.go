package storage

import (
	"database/sql"

	"github.com/codewithboateng/archcheck/internal/ir"
)

// ListRuns returns a lightweight list of runs with counts.
func (db *DB) ListRuns(limit, offset int) ([]RunRow, error) {
	const q = `
		SELECT id, started_at, COALESCE(rule_source,''), files, violations
		  FROM runs
		 ORDER BY started_at DESC, id DESC
		 LIMIT ? OFFSET ?`
	rows, err := db.conn.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var rr RunRow
		var startedAt sql.NullString
		if err := rows.Scan(&rr.ID, &startedAt, &rr.RuleSource, &rr.Files, &rr.Violations); err != nil {
			return nil, err
		}
		rr.StartedAt = parseTime(startedAt)
		out = append(out, rr)
	}
	return out, rows.Err()
}

// ListViolations returns violations for a run at or above a minimum severity.
func (db *DB) ListViolations(runID, minSeverity string) ([]ir.Violation, error) {
	const q = `
		SELECT id, path, check_id, severity, instruction, pattern, line, message, evidence, occurrences
		  FROM violations
		 WHERE run_id = ?
		   AND (CASE severity WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END)
		       >= (CASE ? WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END)
		 ORDER BY
		       (CASE severity WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END) DESC,
		       path, line, check_id, id`
	rows, err := db.conn.Query(q, runID, minSeverity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ir.Violation
	for rows.Next() {
		var v ir.Violation
		if err := rows.Scan(&v.ID, &v.Path, &v.CheckID, &v.Severity, &v.Instruction, &v.Pattern, &v.Line, &v.Message, &v.Evidence, &v.Occurrences); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (db *DB) HasRun(id string) (bool, error) {
	const q = `SELECT 1 FROM runs WHERE id = ? LIMIT 1`
	var one int
	err := db.conn.QueryRow(q, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// PruneRuns deletes all but the newest keep runs. Violations cascade.
func (db *DB) PruneRuns(keep int) (int64, error) {
	res, err := db.conn.Exec(`
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
