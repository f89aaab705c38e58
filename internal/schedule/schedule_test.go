package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSessionDatesWeekdayFilter(t *testing.T) {
	// 2024-05-15 is a Wednesday.
	ref := date(2024, time.May, 15)

	dates, err := SessionDates(German, []string{"Montag 19:00", "Donnerstag 20:30"}, 4, 0, ref)
	require.NoError(t, err)

	// Window [2024-04-17, 2024-05-15] holds four Mondays and four Thursdays.
	require.Len(t, dates, 8)
	for i, d := range dates {
		assert.True(t, d.Weekday() == time.Monday || d.Weekday() == time.Thursday, "got %s", d)
		if i > 0 {
			assert.True(t, dates[i-1].Before(d), "not ascending at %d", i)
		}
		assert.False(t, d.Before(ref.AddDate(0, 0, -28)))
		assert.False(t, d.After(ref))
	}
	assert.Equal(t, "2024-04-18", ISO(dates[0]))
	assert.Equal(t, "2024-05-13", ISO(dates[len(dates)-1]))
}

func TestSessionDatesIncludesTodayWhenMatching(t *testing.T) {
	// Reference day is a Monday and the schedule meets Mondays.
	ref := date(2024, time.May, 13)
	dates, err := SessionDates(German, []string{"Montag"}, 4, 0, ref)
	require.NoError(t, err)
	assert.Equal(t, ISO(ref), ISO(dates[len(dates)-1]))
}

func TestSessionDatesDeduplicates(t *testing.T) {
	ref := date(2024, time.May, 15)
	// Two schedule entries on the same weekday must not double the dates.
	dates, err := SessionDates(German, []string{"Montag 18:00", "Montag 20:00"}, 4, 0, ref)
	require.NoError(t, err)
	require.Len(t, dates, 4)
	seen := map[string]bool{}
	for _, d := range dates {
		assert.False(t, seen[ISO(d)], "duplicate %s", ISO(d))
		seen[ISO(d)] = true
	}
}

func TestSessionDatesUnknownToken(t *testing.T) {
	_, err := SessionDates(German, []string{"Montag", "Blursday 19:00"}, 4, 0, time.Now())
	require.ErrorIs(t, err, ErrConfig)

	_, err = SessionDates(German, nil, 4, 0, time.Now())
	require.ErrorIs(t, err, ErrConfig)
}

func TestSessionDatesFutureWindow(t *testing.T) {
	ref := date(2024, time.May, 15) // Wednesday
	dates, err := SessionDates(German, []string{"Freitag"}, 0, 1, ref)
	require.NoError(t, err)
	require.Len(t, dates, 1)
	assert.Equal(t, "2024-05-17", ISO(dates[0]))
}

func TestDefaultDateMostRecentPast(t *testing.T) {
	dates := []time.Time{
		date(2024, time.January, 1),
		date(2024, time.January, 8),
		date(2024, time.January, 15),
	}
	got, err := DefaultDate(dates, date(2024, time.January, 10))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", ISO(got))

	// Reference exactly on a session date selects that date.
	got, err = DefaultDate(dates, date(2024, time.January, 8))
	require.NoError(t, err)
	assert.Equal(t, "2024-01-08", ISO(got))
}

func TestDefaultDateAllFuture(t *testing.T) {
	dates := []time.Time{
		date(2024, time.February, 1),
		date(2024, time.February, 8),
	}
	got, err := DefaultDate(dates, date(2024, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", ISO(got))
}

func TestDefaultDateEmpty(t *testing.T) {
	_, err := DefaultDate(nil, time.Now())
	require.ErrorIs(t, err, ErrConfig)
}

func TestByName(t *testing.T) {
	loc, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, loc["Montag"])

	loc, err = ByName("en")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, loc["Monday"])

	_, err = ByName("fr")
	require.ErrorIs(t, err, ErrConfig)
}
