package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func named(id, partner string) Participant {
	return Participant{ID: id, FirstName: "F" + id, LastName: "L" + id, PartnerOf: partner}
}

func allIDs(rows []Row) []string {
	var ids []string
	for _, r := range rows {
		for _, e := range r.Participants {
			ids = append(ids, e.Participant.ID)
		}
	}
	return ids
}

func TestGroupCoupleAndSingles(t *testing.T) {
	ps := []Participant{
		named("a", ""),
		named("b", "c"),
		named("c", "b"),
		named("d", ""),
	}
	rows := Group(ps, map[string]bool{"b": true})

	require.Len(t, rows, 3)
	assert.False(t, rows[0].Couple())
	assert.True(t, rows[1].Couple())
	assert.False(t, rows[2].Couple())

	assert.Equal(t, "b", rows[1].Participants[0].Participant.ID)
	assert.Equal(t, "c", rows[1].Participants[1].Participant.ID)
	assert.True(t, rows[1].Participants[0].Present)
	assert.False(t, rows[1].Participants[1].Present)

	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, allIDs(rows))
}

func TestGroupCoupleOrderIndependent(t *testing.T) {
	// The pair groups into one row no matter which half appears first.
	ps := []Participant{
		named("c", "b"),
		named("a", ""),
		named("b", "c"),
	}
	rows := Group(ps, nil)

	require.Len(t, rows, 2)
	assert.True(t, rows[0].Couple())
	assert.Equal(t, "c", rows[0].Participants[0].Participant.ID)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, allIDs(rows))
}

func TestGroupOrphanedPartner(t *testing.T) {
	// Partner id points outside the roster: single row, no error, no omission.
	ps := []Participant{
		named("a", "gone"),
		named("b", ""),
	}
	rows := Group(ps, map[string]bool{"a": true})

	require.Len(t, rows, 2)
	assert.False(t, rows[0].Couple())
	assert.Equal(t, "a", rows[0].Participants[0].Participant.ID)
	assert.True(t, rows[0].Participants[0].Present)
}

func TestGroupEachParticipantOnce(t *testing.T) {
	// Two people both reference the same partner; the partner is consumed by
	// the first anchor and the second degrades to a single row.
	ps := []Participant{
		named("a", "x"),
		named("x", "a"),
		named("b", "x"),
	}
	rows := Group(ps, nil)

	ids := allIDs(rows)
	require.Len(t, ids, 3)
	seen := map[string]int{}
	for _, id := range ids {
		seen[id]++
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "participant %s emitted %d times", id, n)
	}
}

func TestGroupEmpty(t *testing.T) {
	assert.Empty(t, Group(nil, nil))
}
