package store

import "context"

// Migrate creates the schema when it does not exist yet. The uniqueness
// constraint on attendance carries the ledger invariant: one row per
// (course, student, date), row existence means present.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS courses (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			schedule_json TEXT NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS students (
			id         TEXT PRIMARY KEY,
			firstname  TEXT NOT NULL,
			lastname   TEXT NOT NULL,
			gender     TEXT NOT NULL DEFAULT '',
			age        INTEGER NOT NULL DEFAULT 0,
			phone      TEXT NOT NULL DEFAULT '-',
			partner_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS enrollments (
			course_id  TEXT NOT NULL REFERENCES courses(id),
			student_id TEXT NOT NULL REFERENCES students(id),
			PRIMARY KEY (course_id, student_id)
		)`,
		`CREATE TABLE IF NOT EXISTS attendance (
			course_id  TEXT NOT NULL,
			student_id TEXT NOT NULL,
			date       TEXT NOT NULL,
			present    BOOLEAN NOT NULL DEFAULT TRUE,
			UNIQUE (course_id, student_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_course_date
			ON attendance (course_id, date)`,
	}
	for _, stmt := range stmts {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
