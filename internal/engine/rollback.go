package engine

import (
	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
)

// slot records where an entity sat before a structural change.
type slot struct {
	id       string
	position int
}

func captureListSlots(lists []board.List) []slot {
	slots := make([]slot, len(lists))
	for i, l := range lists {
		slots[i] = slot{id: l.ID, position: l.Position}
	}
	return slots
}

func captureCardSlots(l *board.List) []slot {
	slots := make([]slot, len(l.Cards))
	for i, c := range l.Cards {
		slots[i] = slot{id: c.ID, position: c.Position}
	}
	return slots
}

// restoreLists puts the board's lists back into the captured order and
// positions. Lists that appeared since the capture keep their relative order
// after the captured ones; if any exist, or any captured list is gone, the
// sequence is renumbered instead of restoring stale positions.
func restoreLists(s *snapshot.Snapshot, saved []slot) {
	byID := make(map[string]board.List, len(s.Lists))
	for _, l := range s.Lists {
		byID[l.ID] = l
	}

	restored := make([]board.List, 0, len(s.Lists))
	seen := make(map[string]bool, len(saved))
	exact := true
	for _, sl := range saved {
		l, ok := byID[sl.id]
		if !ok {
			exact = false
			continue
		}
		l.Position = sl.position
		restored = append(restored, l)
		seen[sl.id] = true
	}
	for _, l := range s.Lists {
		if !seen[l.ID] {
			restored = append(restored, l)
			exact = false
		}
	}

	s.Lists = restored
	if !exact {
		s.RenumberLists()
	}
}

// restoreCards puts the cards of every list named in saved back into the
// captured membership, order and positions. Cards are looked up across all
// of those lists, so a card moved between them returns to its origin.
func restoreCards(s *snapshot.Snapshot, saved map[string][]slot) {
	pool := make(map[string]board.Card)
	current := make(map[string][]string)
	for listID := range saved {
		l := s.List(listID)
		if l == nil {
			continue
		}
		for _, c := range l.Cards {
			pool[c.ID] = c
			current[listID] = append(current[listID], c.ID)
		}
	}

	claimed := make(map[string]bool)
	for _, slots := range saved {
		for _, sl := range slots {
			if _, ok := pool[sl.id]; ok {
				claimed[sl.id] = true
			}
		}
	}

	for listID, slots := range saved {
		l := s.List(listID)
		if l == nil {
			continue
		}

		cards := make([]board.Card, 0, len(slots))
		exact := true
		for _, sl := range slots {
			c, ok := pool[sl.id]
			if !ok {
				exact = false
				continue
			}
			c.ListID = listID
			c.Position = sl.position
			cards = append(cards, c)
		}
		for _, id := range current[listID] {
			if !claimed[id] {
				cards = append(cards, pool[id])
				exact = false
			}
		}

		l.Cards = cards
		if !exact {
			snapshot.RenumberCards(l)
		}
	}
}
