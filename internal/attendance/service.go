package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tanzschule/internal/roster"
	"tanzschule/internal/schedule"
)

var (
	// ErrNotFound marks a toggle or lookup against an unknown course or
	// participant.
	ErrNotFound = errors.New("not found")
	// ErrInvalid marks a malformed request payload (bad date, bad
	// participant count). Never caused by storage.
	ErrInvalid = errors.New("invalid request")
)

// Course is a recurring class with its weekly schedule strings
// ("Montag 19:00" style; only the leading weekday token is interpreted).
type Course struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Schedule     []string             `json:"schedule"`
	Participants []roster.Participant `json:"participants"`
}

// Triple addresses one presence record. Its existence in the store means
// "present"; absence means absent. Date is always YYYY-MM-DD.
type Triple struct {
	CourseID      string `json:"courseId"`
	ParticipantID string `json:"participantId"`
	Date          string `json:"date"`
}

// Snapshot is the bulk shape the client consumes: every course with its
// roster, plus presence ids grouped under "<courseId>_<date>" keys.
type Snapshot struct {
	Courses    []Course            `json:"courses"`
	Attendance map[string][]string `json:"attendance"`
}

// SessionPlan is the resolved calendar for one course.
type SessionPlan struct {
	Dates       []string `json:"dates"`
	DefaultDate string   `json:"defaultDate"`
}

// Store is what the service needs from persistence. *Repository implements
// it against Postgres; tests swap in an in-memory store.
type Store interface {
	Courses(ctx context.Context) ([]Course, error)
	Course(ctx context.Context, id string) (Course, error)
	Rosters(ctx context.Context) (map[string][]roster.Participant, error)
	PresenceTriples(ctx context.Context, courseIDs ...string) ([]Triple, error)
	PresentIDs(ctx context.Context, courseID, date string) ([]string, error)
	HasPresence(ctx context.Context, t Triple) (bool, error)
	AddPresence(ctx context.Context, t Triple) error
	RemovePresence(ctx context.Context, t Triple) error
	Enrolled(ctx context.Context, courseID, participantID string) (bool, error)
	CreateEnrolled(ctx context.Context, courseID string, ps []roster.Participant) error
}

// Service owns the attendance ledger semantics and the session calendar.
type Service struct {
	store       Store
	locale      schedule.Locale
	pastWeeks   int
	futureWeeks int
	now         func() time.Time
}

// NewService creates a service over a store. pastWeeks/futureWeeks bound the
// session-date window around "today".
func NewService(store Store, locale schedule.Locale, pastWeeks, futureWeeks int) *Service {
	if pastWeeks <= 0 {
		pastWeeks = 4
	}
	if futureWeeks < 0 {
		futureWeeks = 0
	}
	return &Service{
		store:       store,
		locale:      locale,
		pastWeeks:   pastWeeks,
		futureWeeks: futureWeeks,
		now:         time.Now,
	}
}

// Key builds the composite attendance key used by the snapshot and client.
func Key(courseID, date string) string {
	return courseID + "_" + date
}

// Snapshot assembles the full course/roster/attendance tree from three
// batched queries. A failing query fails the whole snapshot.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	courses, err := s.store.Courses(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	rosters, err := s.store.Rosters(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	triples, err := s.store.PresenceTriples(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Attendance: make(map[string][]string)}
	for _, c := range courses {
		c.Participants = rosters[c.ID]
		if c.Participants == nil {
			c.Participants = []roster.Participant{}
		}
		snap.Courses = append(snap.Courses, c)
	}
	for _, t := range triples {
		key := Key(t.CourseID, t.Date)
		snap.Attendance[key] = append(snap.Attendance[key], t.ParticipantID)
	}
	return snap, nil
}

// View returns the grouped presence mapping on its own, optionally limited
// to some courses. Values only ever contain ids whose last write was
// "present"; an unset triple has no row to show up here.
func (s *Service) View(ctx context.Context, courseIDs ...string) (map[string][]string, error) {
	triples, err := s.store.PresenceTriples(ctx, courseIDs...)
	if err != nil {
		return nil, err
	}
	view := make(map[string][]string)
	for _, t := range triples {
		key := Key(t.CourseID, t.Date)
		view[key] = append(view[key], t.ParticipantID)
	}
	return view, nil
}

// Sessions resolves a course's schedule into its candidate dates and the
// date to pre-select. A malformed schedule surfaces as schedule.ErrConfig.
func (s *Service) Sessions(ctx context.Context, courseID string) (SessionPlan, error) {
	course, err := s.store.Course(ctx, courseID)
	if err != nil {
		return SessionPlan{}, err
	}
	ref := s.now()
	dates, err := schedule.SessionDates(s.locale, course.Schedule, s.pastWeeks, s.futureWeeks, ref)
	if err != nil {
		return SessionPlan{}, fmt.Errorf("course %s: %w", courseID, err)
	}
	def, err := schedule.DefaultDate(dates, ref)
	if err != nil {
		return SessionPlan{}, fmt.Errorf("course %s: %w", courseID, err)
	}

	plan := SessionPlan{DefaultDate: schedule.ISO(def)}
	for _, d := range dates {
		plan.Dates = append(plan.Dates, schedule.ISO(d))
	}
	return plan, nil
}

// IsPresent reports whether the triple is recorded. Side-effect free.
func (s *Service) IsPresent(ctx context.Context, t Triple) (bool, error) {
	if err := validTriple(t); err != nil {
		return false, err
	}
	return s.store.HasPresence(ctx, t)
}

// SetPresence toggles one triple. present=true inserts (duplicate inserts
// are swallowed), present=false deletes (missing rows are a no-op). Both
// directions are idempotent, so callers may retry a failed write as-is.
func (s *Service) SetPresence(ctx context.Context, t Triple, present bool) error {
	if err := validTriple(t); err != nil {
		return err
	}
	ok, err := s.store.Enrolled(ctx, t.CourseID, t.ParticipantID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: participant %s in course %s", ErrNotFound, t.ParticipantID, t.CourseID)
	}
	if present {
		return s.store.AddPresence(ctx, t)
	}
	return s.store.RemovePresence(ctx, t)
}

// Checklist returns the display rows for one course and date: couples
// folded together, each side carrying its own presence bit.
func (s *Service) Checklist(ctx context.Context, courseID, date string) ([]roster.Row, error) {
	if !validDate(date) {
		return nil, fmt.Errorf("%w: date %q", ErrInvalid, date)
	}
	if _, err := s.store.Course(ctx, courseID); err != nil {
		return nil, err
	}
	rosters, err := s.store.Rosters(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := s.store.PresentIDs(ctx, courseID, date)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}
	return roster.Group(rosters[courseID], present), nil
}

// AddParticipants enrolls one or two new participants. Two are linked as a
// mutual couple and written in one transaction, so the pair never exists
// half-linked. Missing ids are filled with fresh UUIDs. Returns the
// participants as stored.
func (s *Service) AddParticipants(ctx context.Context, courseID string, ps []roster.Participant) ([]roster.Participant, error) {
	if len(ps) < 1 || len(ps) > 2 {
		return nil, fmt.Errorf("%w: expected 1 or 2 participants, got %d", ErrInvalid, len(ps))
	}
	if _, err := s.store.Course(ctx, courseID); err != nil {
		return nil, err
	}
	for i := range ps {
		if ps[i].FirstName == "" || ps[i].LastName == "" {
			return nil, fmt.Errorf("%w: participant name required", ErrInvalid)
		}
		if ps[i].ID == "" {
			ps[i].ID = uuid.NewString()
		}
		if ps[i].Phone == "" {
			ps[i].Phone = "-"
		}
	}
	if len(ps) == 2 {
		ps[0].PartnerOf = ps[1].ID
		ps[1].PartnerOf = ps[0].ID
	} else {
		ps[0].PartnerOf = ""
	}
	if err := s.store.CreateEnrolled(ctx, courseID, ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func validTriple(t Triple) error {
	if t.CourseID == "" || t.ParticipantID == "" {
		return fmt.Errorf("%w: course and participant required", ErrInvalid)
	}
	if !validDate(t.Date) {
		return fmt.Errorf("%w: date %q", ErrInvalid, t.Date)
	}
	return nil
}

func validDate(date string) bool {
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}
