package attendance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"tanzschule/internal/roster"
)

// Repository persists courses, rosters and presence triples in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Courses returns all courses without their rosters.
func (r *Repository) Courses(ctx context.Context) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, schedule_json
		FROM courses
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []Course
	for rows.Next() {
		c, err := scanCourse(rows.Scan)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Course returns a single course by id.
func (r *Repository) Course(ctx context.Context, id string) (Course, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, schedule_json
		FROM courses WHERE id = $1
	`, id)
	c, err := scanCourse(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, fmt.Errorf("%w: course %s", ErrNotFound, id)
	}
	return c, err
}

func scanCourse(scan func(...any) error) (Course, error) {
	var c Course
	var scheduleJSON []byte
	if err := scan(&c.ID, &c.Name, &scheduleJSON); err != nil {
		return Course{}, err
	}
	if err := json.Unmarshal(scheduleJSON, &c.Schedule); err != nil {
		return Course{}, fmt.Errorf("course %s: bad schedule_json: %w", c.ID, err)
	}
	return c, nil
}

// Rosters returns every course's participants in one join, keyed by course
// id. One query for the whole tree instead of a query per course.
func (r *Repository) Rosters(ctx context.Context) (map[string][]roster.Participant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT e.course_id, s.id, s.firstname, s.lastname, s.gender, s.age, s.phone,
		       COALESCE(s.partner_id, '')
		FROM students s
		JOIN enrollments e ON s.id = e.student_id
		ORDER BY e.course_id, s.lastname, s.firstname
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rosters := make(map[string][]roster.Participant)
	for rows.Next() {
		var courseID string
		var p roster.Participant
		if err := rows.Scan(&courseID, &p.ID, &p.FirstName, &p.LastName, &p.Gender, &p.Age, &p.Phone, &p.PartnerOf); err != nil {
			return nil, err
		}
		rosters[courseID] = append(rosters[courseID], p)
	}
	return rosters, rows.Err()
}

// PresenceTriples returns recorded presence, optionally limited to the
// given courses. Only presence rows exist; absence is the row not being
// there.
func (r *Repository) PresenceTriples(ctx context.Context, courseIDs ...string) ([]Triple, error) {
	query := `
		SELECT course_id, student_id, date
		FROM attendance
		WHERE present`
	args := []any{}
	if len(courseIDs) > 0 {
		placeholders := ""
		for i, id := range courseIDs {
			if i > 0 {
				placeholders += ", "
			}
			placeholders += fmt.Sprintf("$%d", i+1)
			args = append(args, id)
		}
		query += " AND course_id IN (" + placeholders + ")"
	}
	query += " ORDER BY course_id, date"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var triples []Triple
	for rows.Next() {
		var t Triple
		if err := rows.Scan(&t.CourseID, &t.ParticipantID, &t.Date); err != nil {
			return nil, err
		}
		triples = append(triples, t)
	}
	return triples, rows.Err()
}

// PresentIDs returns the participants recorded present for one course and
// date.
func (r *Repository) PresentIDs(ctx context.Context, courseID, date string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT student_id FROM attendance
		WHERE course_id = $1 AND date = $2 AND present
	`, courseID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HasPresence reports whether the triple exists.
func (r *Repository) HasPresence(ctx context.Context, t Triple) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM attendance
			WHERE course_id = $1 AND student_id = $2 AND date = $3 AND present
		)
	`, t.CourseID, t.ParticipantID, t.Date).Scan(&exists)
	return exists, err
}

// AddPresence inserts the triple; a duplicate insert is swallowed by the
// uniqueness constraint, keeping the write idempotent.
func (r *Repository) AddPresence(ctx context.Context, t Triple) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance (course_id, student_id, date, present)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (course_id, student_id, date) DO NOTHING
	`, t.CourseID, t.ParticipantID, t.Date)
	return err
}

// RemovePresence deletes the triple. Deleting an absent triple is a no-op.
func (r *Repository) RemovePresence(ctx context.Context, t Triple) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM attendance
		WHERE course_id = $1 AND student_id = $2 AND date = $3
	`, t.CourseID, t.ParticipantID, t.Date)
	return err
}

// Enrolled reports whether the participant is enrolled in the course.
func (r *Repository) Enrolled(ctx context.Context, courseID, participantID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM enrollments
			WHERE course_id = $1 AND student_id = $2
		)
	`, courseID, participantID).Scan(&exists)
	return exists, err
}

// CreateEnrolled writes one or two participants plus their enrollments in a
// single transaction, so a couple never exists half-linked.
func (r *Repository) CreateEnrolled(ctx context.Context, courseID string, ps []roster.Participant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, p := range ps {
		var partner any
		if p.PartnerOf != "" {
			partner = p.PartnerOf
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO students (id, firstname, lastname, gender, age, phone, partner_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, p.FirstName, p.LastName, p.Gender, p.Age, p.Phone, partner); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO enrollments (course_id, student_id)
			VALUES ($1, $2)
		`, courseID, p.ID); err != nil {
			return err
		}
	}
	return tx.Commit()
}
