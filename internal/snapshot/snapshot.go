// Package snapshot holds the in-memory copy of one board that the mutation
// engine edits and the live update merger patches.
package snapshot

import (
	"github.com/dyluth/pinboard/internal/position"
	"github.com/dyluth/pinboard/pkg/board"
)

// Selection points at the list and card the user currently has open.
// Empty fields mean nothing is selected.
type Selection struct {
	ListID string `json:"list_id,omitempty"`
	CardID string `json:"card_id,omitempty"`
}

// Snapshot is a board with its lists and cards in display order. Lists and
// each list's Cards are kept sorted by position.
type Snapshot struct {
	Board      board.Board      `json:"board"`
	Lists      []board.List     `json:"lists"`
	Labels     []board.Label    `json:"labels"`
	Members    []board.Member   `json:"members"`
	Activities []board.Activity `json:"activities"`
	Role       board.Role       `json:"role"`
	Selection  Selection        `json:"selection"`
}

// Clone returns a deep copy that shares no mutable state with s.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{
		Board:     s.Board,
		Lists:     CloneLists(s.Lists),
		Labels:    append([]board.Label(nil), s.Labels...),
		Members:   append([]board.Member(nil), s.Members...),
		Role:      s.Role,
		Selection: s.Selection,
	}
	if s.Activities != nil {
		out.Activities = make([]board.Activity, len(s.Activities))
	}
	for i, a := range s.Activities {
		out.Activities[i] = a
		if a.Data != nil {
			out.Activities[i].Data = make(map[string]string, len(a.Data))
			for k, v := range a.Data {
				out.Activities[i].Data[k] = v
			}
		}
	}
	return out
}

// CloneLists deep copies lists and their cards.
func CloneLists(lists []board.List) []board.List {
	if lists == nil {
		return nil
	}
	out := make([]board.List, len(lists))
	for i, l := range lists {
		out[i] = CloneList(l)
	}
	return out
}

// CloneList deep copies a list and its cards.
func CloneList(l board.List) board.List {
	out := l
	out.Cards = CloneCards(l.Cards)
	return out
}

// CloneCards deep copies a card slice. A nil slice stays nil.
func CloneCards(cards []board.Card) []board.Card {
	if cards == nil {
		return nil
	}
	out := make([]board.Card, len(cards))
	for i, c := range cards {
		out[i] = CloneCard(c)
	}
	return out
}

// CloneCard deep copies a card including its relations.
func CloneCard(c board.Card) board.Card {
	out := c
	if c.DueDate != nil {
		d := *c.DueDate
		out.DueDate = &d
	}
	out.Labels = append([]board.Label(nil), c.Labels...)
	out.Assignees = append([]board.Member(nil), c.Assignees...)
	out.Comments = append([]board.Comment(nil), c.Comments...)
	return out
}

// ListIndex returns the index of the list with id, or -1.
func (s *Snapshot) ListIndex(id string) int {
	for i := range s.Lists {
		if s.Lists[i].ID == id {
			return i
		}
	}
	return -1
}

// List returns a pointer into s for the list with id, or nil.
func (s *Snapshot) List(id string) *board.List {
	if i := s.ListIndex(id); i >= 0 {
		return &s.Lists[i]
	}
	return nil
}

// CardIndex returns the index of the card with id inside list l, or -1.
func CardIndex(l *board.List, id string) int {
	for i := range l.Cards {
		if l.Cards[i].ID == id {
			return i
		}
	}
	return -1
}

// FindCard locates a card anywhere on the board.
func (s *Snapshot) FindCard(id string) (listIdx, cardIdx int, ok bool) {
	for li := range s.Lists {
		if ci := CardIndex(&s.Lists[li], id); ci >= 0 {
			return li, ci, true
		}
	}
	return -1, -1, false
}

// Card returns a pointer into s for the card with id, or nil.
func (s *Snapshot) Card(id string) *board.Card {
	li, ci, ok := s.FindCard(id)
	if !ok {
		return nil
	}
	return &s.Lists[li].Cards[ci]
}

// RenumberLists rewrites every list position from its index.
func (s *Snapshot) RenumberLists() {
	for i := range s.Lists {
		s.Lists[i].Position = position.ForIndex(i)
	}
}

// RenumberCards rewrites every card position of l from its index and points
// each card at l.
func RenumberCards(l *board.List) {
	for i := range l.Cards {
		l.Cards[i].Position = position.ForIndex(i)
		l.Cards[i].ListID = l.ID
	}
}

// CardCount returns the number of cards across all lists.
func (s *Snapshot) CardCount() int {
	n := 0
	for _, l := range s.Lists {
		n += len(l.Cards)
	}
	return n
}
