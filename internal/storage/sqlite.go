package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // CGO-free SQLite driver

	"github.com/codewithboateng/archcheck/internal/ir"
)

// tsLayout is fixed-width so stored timestamps sort as text.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// DB is the concrete storage backed by SQLite.
type DB struct {
	conn *sql.DB
}

// OpenSQLite opens (and creates if missing) a SQLite DB at path.
func OpenSQLite(path string) (*DB, error) {
	// Pragmas via DSN keep it portable with the modernc driver.
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	c, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &DB{conn: c}, nil
}

func (db *DB) Close() error { return db.conn.Close() }

// CreateSchema ensures tables exist.
func (db *DB) CreateSchema() error {
	_, err := db.conn.Exec(`
CREATE TABLE IF NOT EXISTS runs (
  id          TEXT PRIMARY KEY,
  started_at  TEXT,          -- tsLayout, UTC
  rule_source TEXT,
  files       INTEGER NOT NULL DEFAULT 0,
  violations  INTEGER NOT NULL DEFAULT 0,
  report_json TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS violations (
  id          TEXT,
  run_id      TEXT NOT NULL,
  path        TEXT NOT NULL,
  check_id    TEXT NOT NULL,
  severity    TEXT,
  instruction TEXT,
  pattern     TEXT,
  line        INTEGER,
  message     TEXT,
  evidence    TEXT,
  occurrences INTEGER,
  PRIMARY KEY (id, run_id),
  FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_violations_run ON violations(run_id);
CREATE INDEX IF NOT EXISTS idx_violations_check ON violations(check_id);

CREATE TABLE IF NOT EXISTS waivers (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  check_id    TEXT NOT NULL,     -- "*" = any check
  path_glob   TEXT,              -- NULL = any path
  pattern_sub TEXT,              -- optional substring of evidence/instruction
  reason      TEXT NOT NULL,
  expires_at  TEXT NOT NULL,     -- tsLayout, UTC
  created_by  TEXT NOT NULL,
  created_at  TEXT NOT NULL,
  revoked_at  TEXT               -- NULL = active
);
`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveRun upserts a report and (re)writes its violations.
func (db *DB) SaveRun(rep *ir.Report) error {
	b, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	ts := rep.StartedAt.UTC().Format(tsLayout)

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO runs (id, started_at, rule_source, files, violations, report_json)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET started_at=excluded.started_at, rule_source=excluded.rule_source,
           files=excluded.files, violations=excluded.violations, report_json=excluded.report_json`,
		rep.ID, ts, rep.RuleSource, rep.Files, rep.TotalViolations(), string(b),
	); err != nil {
		return fmt.Errorf("save run %s: %w", rep.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM violations WHERE run_id = ?`, rep.ID); err != nil {
		return err
	}
	if all := rep.All(); len(all) > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO violations
			(id, run_id, path, check_id, severity, instruction, pattern, line, message, evidence, occurrences)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, v := range all {
			if _, err := stmt.Exec(
				v.ID,
				rep.ID,
				v.Path,
				v.CheckID,
				v.Severity,
				v.Instruction,
				v.Pattern,
				v.Line,
				v.Message,
				v.Evidence,
				v.Occurrences,
			); err != nil {
				return fmt.Errorf("save violation %s: %w", v.ID, err)
			}
		}
	}

	return tx.Commit()
}

// LoadRun returns the full report (from stored JSON).
func (db *DB) LoadRun(id string) (ir.Report, error) {
	return db.loadOne(`SELECT report_json FROM runs WHERE id = ?`, id)
}

// LoadLatestRun returns the most recently started report.
func (db *DB) LoadLatestRun() (ir.Report, error) {
	return db.loadOne(`SELECT report_json FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`)
}

func (db *DB) loadOne(q string, args ...any) (ir.Report, error) {
	var s string
	if err := db.conn.QueryRow(q, args...).Scan(&s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ir.Report{}, fmt.Errorf("run %v: %w", args, ErrNotFound)
		}
		return ir.Report{}, err
	}
	var rep ir.Report
	if err := json.Unmarshal([]byte(s), &rep); err != nil {
		return ir.Report{}, fmt.Errorf("decode stored run: %w", err)
	}
	if rep.Violations == nil {
		rep.Violations = map[string][]ir.Violation{}
	}
	return rep, nil
}
