package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrConfig marks a schedule that cannot be resolved: an unknown weekday
// token, or a window that yields no session dates at all.
var ErrConfig = errors.New("invalid schedule configuration")

// Locale maps weekday names, as they appear at the front of a course's
// schedule strings, to time.Weekday. The range scan itself is
// locale-independent; only this table changes per deployment.
type Locale map[string]time.Weekday

// German is the default locale; the deployed client stores schedules like
// "Montag 19:00".
var German = Locale{
	"Sonntag":    time.Sunday,
	"Montag":     time.Monday,
	"Dienstag":   time.Tuesday,
	"Mittwoch":   time.Wednesday,
	"Donnerstag": time.Thursday,
	"Freitag":    time.Friday,
	"Samstag":    time.Saturday,
}

var English = Locale{
	"Sunday":    time.Sunday,
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
}

// ByName returns a locale by its config name.
func ByName(name string) (Locale, error) {
	switch strings.ToLower(name) {
	case "", "de":
		return German, nil
	case "en":
		return English, nil
	}
	return nil, fmt.Errorf("%w: unknown weekday locale %q", ErrConfig, name)
}

// Weekdays resolves the leading token of each schedule string. An
// unrecognized token is an error rather than a skip, so a misconfigured
// course surfaces instead of quietly losing its sessions.
func (l Locale) Weekdays(tokens []string) ([]time.Weekday, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: empty schedule", ErrConfig)
	}
	days := make([]time.Weekday, 0, len(tokens))
	for _, tok := range tokens {
		name, _, _ := strings.Cut(strings.TrimSpace(tok), " ")
		day, ok := l[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q in %q", ErrConfig, name, tok)
		}
		days = append(days, day)
	}
	return days, nil
}

// SessionDates resolves a course's schedule strings into concrete session
// dates inside the closed range [ref-7*pastWeeks, ref+7*futureWeeks],
// ascending and de-duplicated. With futureWeeks zero the reference day itself
// is the latest candidate, so "today" is included whenever its weekday
// matches.
func SessionDates(loc Locale, tokens []string, pastWeeks, futureWeeks int, ref time.Time) ([]time.Time, error) {
	days, err := loc.Weekdays(tokens)
	if err != nil {
		return nil, err
	}

	wanted := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		wanted[d] = true
	}

	start := midnight(ref).AddDate(0, 0, -7*pastWeeks)
	end := midnight(ref).AddDate(0, 0, 7*futureWeeks)

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wanted[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("%w: schedule %v resolves to no dates in window", ErrConfig, tokens)
	}
	return dates, nil
}

// DefaultDate picks the session to pre-select: the most recent date not
// after ref, or the earliest future date when every candidate lies ahead.
func DefaultDate(dates []time.Time, ref time.Time) (time.Time, error) {
	if len(dates) == 0 {
		return time.Time{}, fmt.Errorf("%w: no candidate dates", ErrConfig)
	}
	cutoff := midnight(ref)
	picked := time.Time{}
	for _, d := range dates {
		if d.After(cutoff) {
			break
		}
		picked = d
	}
	if picked.IsZero() {
		return dates[0], nil
	}
	return picked, nil
}

// ISO formats a date as the YYYY-MM-DD key used throughout the API and the
// attendance table.
func ISO(d time.Time) string {
	return d.Format("2006-01-02")
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
