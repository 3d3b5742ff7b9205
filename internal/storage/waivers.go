package storage

import (
	"database/sql"
	"time"
)

// Waiver suppresses violations of one check (or "*"), optionally limited to
// paths matching PathGlob and evidence containing PatternSub.
type Waiver struct {
	ID         int64      `json:"id"`
	CheckID    string     `json:"check_id"`
	PathGlob   string     `json:"path_glob,omitempty"`
	PatternSub string     `json:"pattern_sub,omitempty"`
	Reason     string     `json:"reason"`
	ExpiresAt  time.Time  `json:"expires_at"`
	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

func (db *DB) CreateWaiver(checkID, pathGlob, pattern, reason, createdBy string, expires time.Time) (int64, error) {
	now := time.Now().UTC().Format(tsLayout)
	res, err := db.conn.Exec(`
INSERT INTO waivers(check_id, path_glob, pattern_sub, reason, expires_at, created_by, created_at)
VALUES(?,?,?,?,?,?,?)`,
		checkID, nz(pathGlob), nz(pattern), reason, expires.UTC().Format(tsLayout), createdBy, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RevokeWaiver marks a waiver revoked. Revoking twice is a no-op.
func (db *DB) RevokeWaiver(id int64) error {
	_, err := db.conn.Exec(`UPDATE waivers SET revoked_at=? WHERE id=? AND revoked_at IS NULL`,
		time.Now().UTC().Format(tsLayout), id)
	return err
}

func (db *DB) ListWaivers(activeOnly bool) ([]Waiver, error) {
	q := `
SELECT id, check_id, COALESCE(path_glob,''), COALESCE(pattern_sub,''),
       reason, expires_at, created_by, created_at, revoked_at
FROM waivers`
	args := []any{}
	if activeOnly {
		q += ` WHERE (revoked_at IS NULL) AND (expires_at > ?)`
		args = append(args, time.Now().UTC().Format(tsLayout))
	}
	q += ` ORDER BY id DESC`
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Waiver
	for rows.Next() {
		var (
			w           Waiver
			exp, ca, ra sql.NullString
		)
		if err := rows.Scan(&w.ID, &w.CheckID, &w.PathGlob, &w.PatternSub, &w.Reason, &exp, &w.CreatedBy, &ca, &ra); err != nil {
			return nil, err
		}
		w.ExpiresAt = parseTime(exp)
		w.CreatedAt = parseTime(ca)
		if ra.Valid {
			t := parseTime(ra)
			w.RevokedAt = &t
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func nz(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s.String); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s.String); err == nil {
		return t
	}
	return time.Time{}
}
