package roster

// Participant is an enrolled dancer. PartnerOf links two participants into a
// couple; the link is mutual (A.PartnerOf == B.ID and B.PartnerOf == A.ID)
// when both were created together.
type Participant struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender"`
	Age       int    `json:"age"`
	Phone     string `json:"phone"`
	PartnerOf string `json:"isPartnerOf,omitempty"`
}

// Row is one checklist line: a single participant, or a couple shown as one
// unit with independent presence flags.
type Row struct {
	Participants []Entry `json:"participants"`
}

// Entry pairs a participant with their presence on the selected date.
type Entry struct {
	Participant Participant `json:"participant"`
	Present     bool        `json:"present"`
}

// Couple reports whether the row holds a linked pair.
func (r Row) Couple() bool {
	return len(r.Participants) == 2
}

// Group walks the roster in order and folds mutual partners into couple
// rows. A participant whose partner is missing from the list (removed, or
// enrolled elsewhere) falls back to a single row. Every participant lands in
// exactly one row: once consumed as someone's partner, an id is never used
// as a grouping anchor again.
func Group(participants []Participant, presentIDs map[string]bool) []Row {
	byID := make(map[string]Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}

	rows := make([]Row, 0, len(participants))
	grouped := make(map[string]bool, len(participants))

	for _, p := range participants {
		if grouped[p.ID] {
			continue
		}
		grouped[p.ID] = true

		if p.PartnerOf != "" {
			partner, ok := byID[p.PartnerOf]
			if ok && !grouped[partner.ID] {
				grouped[partner.ID] = true
				rows = append(rows, Row{Participants: []Entry{
					{Participant: p, Present: presentIDs[p.ID]},
					{Participant: partner, Present: presentIDs[partner.ID]},
				}})
				continue
			}
		}

		rows = append(rows, Row{Participants: []Entry{
			{Participant: p, Present: presentIDs[p.ID]},
		}})
	}
	return rows
}
