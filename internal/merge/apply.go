package merge

import (
	"slices"
	"sort"

	"github.com/dyluth/pinboard/internal/identity"
	"github.com/dyluth/pinboard/internal/position"
	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
)

// Result describes what applying one event did to a snapshot.
type Result struct {
	// Changed is true when the snapshot was modified
	Changed bool

	// RefreshCardID names a card whose comments, labels and assignees must
	// be refetched from the store. Empty when no refetch is needed.
	RefreshCardID string
}

// Apply folds a decoded live event into s. Events about entities the
// snapshot holds under a temporary identity are ignored for that entity,
// creates of entities already present are ignored, and full list
// replacements keep the local temporary cards.
//
// Apply does not look at the event's origin; the caller decides whether an
// event is its own echo.
func Apply(s *snapshot.Snapshot, ev board.Event) Result {
	switch ev.Type {
	case board.EventListCreated:
		return Result{Changed: applyListCreated(s, *ev.List)}
	case board.EventListDeleted:
		return Result{Changed: applyListDeleted(s, ev.ListID)}
	case board.EventListsReordered:
		return Result{Changed: applyListOrder(s, ev.ListOrder)}
	case board.EventCardCreated:
		return Result{Changed: applyCardCreated(s, ev.ListID, *ev.Card)}
	case board.EventCardDeleted:
		return Result{Changed: applyCardDeleted(s, ev.CardID)}
	case board.EventCardMoved:
		if len(ev.NewLists) > 0 {
			return Result{Changed: applyNewLists(s, ev.NewLists)}
		}
		return Result{Changed: applyCardMove(s, ev)}
	case board.EventCardUpdated:
		return Result{RefreshCardID: refreshTarget(s, ev.CardID)}
	}
	return Result{}
}

func applyListCreated(s *snapshot.Snapshot, l board.List) bool {
	if identity.IsTemporary(l.ID) || s.ListIndex(l.ID) >= 0 {
		return false
	}

	l.Cards = snapshot.CloneCards(visibleCards(l.Cards))
	if l.Cards == nil {
		l.Cards = []board.Card{}
	}
	for i := range l.Cards {
		l.Cards[i].ListID = l.ID
	}
	s.Lists = append(s.Lists, l)
	if !increasing(listPositions(s.Lists)) {
		s.RenumberLists()
	}
	return true
}

func applyListDeleted(s *snapshot.Snapshot, listID string) bool {
	idx := s.ListIndex(listID)
	if idx < 0 || identity.IsTemporary(listID) {
		return false
	}

	s.Lists = append(s.Lists[:idx:idx], s.Lists[idx+1:]...)
	s.RenumberLists()
	if s.Selection.ListID == listID {
		s.Selection = snapshot.Selection{}
	}
	return true
}

// applyListOrder sorts the confirmed lists named in order by their new
// positions. Lists the order does not mention, temporary ones included,
// keep their relative order after them. The result is renumbered.
func applyListOrder(s *snapshot.Snapshot, order []board.ListOrder) bool {
	rank := make(map[string]int, len(order))
	for _, o := range order {
		rank[o.ID] = o.Position
	}

	var named, rest []board.List
	for _, l := range s.Lists {
		if _, ok := rank[l.ID]; ok && !identity.IsTemporary(l.ID) {
			named = append(named, l)
		} else {
			rest = append(rest, l)
		}
	}
	if len(named) == 0 {
		return false
	}
	sort.SliceStable(named, func(i, j int) bool { return rank[named[i].ID] < rank[named[j].ID] })

	before := listIDs(s.Lists)
	beforePositions := listPositions(s.Lists)
	s.Lists = append(named, rest...)
	s.RenumberLists()
	return !slices.Equal(before, listIDs(s.Lists)) || !slices.Equal(beforePositions, listPositions(s.Lists))
}

func applyCardCreated(s *snapshot.Snapshot, listID string, c board.Card) bool {
	if identity.IsTemporary(c.ID) || identity.IsTemporary(listID) || c.Archived {
		return false
	}
	if s.Card(c.ID) != nil {
		return false
	}
	l := s.List(listID)
	if l == nil {
		return false
	}

	c = withRelations(snapshot.CloneCard(c))
	c.ListID = listID
	l.Cards = append(l.Cards, c)
	if !increasing(cardPositions(l)) {
		snapshot.RenumberCards(l)
	}
	return true
}

func applyCardDeleted(s *snapshot.Snapshot, cardID string) bool {
	if identity.IsTemporary(cardID) {
		return false
	}
	li, ci, ok := s.FindCard(cardID)
	if !ok {
		return false
	}

	l := &s.Lists[li]
	l.Cards = append(l.Cards[:ci:ci], l.Cards[ci+1:]...)
	snapshot.RenumberCards(l)
	if s.Selection.CardID == cardID {
		s.Selection.CardID = ""
	}
	return true
}

// applyCardMove places the moved card at the event's target index of the
// target list and renumbers both lists. The locally held copy of the card is
// preferred; the event's copy is used when the card is not held locally.
func applyCardMove(s *snapshot.Snapshot, ev board.Event) bool {
	if identity.IsTemporary(ev.CardID) || identity.IsTemporary(ev.ToListID) {
		return false
	}

	var card board.Card
	var from *board.List
	if li, ci, ok := s.FindCard(ev.CardID); ok {
		from = &s.Lists[li]
		card = from.Cards[ci]
		from.Cards = append(from.Cards[:ci:ci], from.Cards[ci+1:]...)
		snapshot.RenumberCards(from)
	} else if ev.MovedCard != nil && !ev.MovedCard.Archived {
		card = withRelations(snapshot.CloneCard(*ev.MovedCard))
	} else {
		return false
	}

	to := s.List(ev.ToListID)
	if to == nil {
		// The card left for a list this snapshot does not hold
		return from != nil
	}

	card.ListID = to.ID
	to.Cards = position.Insert(to.Cards, ev.NewPosition, card)
	snapshot.RenumberCards(to)
	return true
}

// applyNewLists replaces the cards of every named list that the snapshot
// holds. Local temporary cards survive at the end of their list. Cards that
// now belong to a replaced list are removed from any other list.
func applyNewLists(s *snapshot.Snapshot, lists []board.List) bool {
	changed := false
	for _, incoming := range lists {
		if identity.IsTemporary(incoming.ID) {
			continue
		}
		l := s.List(incoming.ID)
		if l == nil {
			continue
		}

		cards := visibleCards(incoming.Cards)
		sort.SliceStable(cards, func(i, j int) bool { return cards[i].Position < cards[j].Position })

		next := make([]board.Card, 0, len(cards))
		for _, c := range cards {
			if identity.IsTemporary(c.ID) {
				continue
			}
			if local := s.Card(c.ID); local != nil {
				c.Labels, c.Assignees, c.Comments = local.Labels, local.Assignees, local.Comments
			}
			removeElsewhere(s, c.ID, l.ID)
			c = withRelations(snapshot.CloneCard(c))
			c.ListID = l.ID
			next = append(next, c)
		}
		for _, c := range l.Cards {
			if identity.IsTemporary(c.ID) {
				next = append(next, c)
			}
		}

		l.Cards = next
		snapshot.RenumberCards(l)
		changed = true
	}
	return changed
}

// removeElsewhere drops cardID from every list other than keepListID.
func removeElsewhere(s *snapshot.Snapshot, cardID, keepListID string) {
	for i := range s.Lists {
		l := &s.Lists[i]
		if l.ID == keepListID {
			continue
		}
		if idx := snapshot.CardIndex(l, cardID); idx >= 0 {
			l.Cards = append(l.Cards[:idx:idx], l.Cards[idx+1:]...)
			snapshot.RenumberCards(l)
		}
	}
}

// refreshTarget picks the card a card_updated signal refers to: the named
// card, or the selected one when the event names none.
func refreshTarget(s *snapshot.Snapshot, cardID string) string {
	if cardID == "" {
		cardID = s.Selection.CardID
	}
	if cardID == "" || identity.IsTemporary(cardID) || s.Card(cardID) == nil {
		return ""
	}
	return cardID
}

func visibleCards(cards []board.Card) []board.Card {
	out := make([]board.Card, 0, len(cards))
	for _, c := range cards {
		if !c.Archived {
			out = append(out, c)
		}
	}
	return out
}

func withRelations(c board.Card) board.Card {
	if c.Labels == nil {
		c.Labels = []board.Label{}
	}
	if c.Assignees == nil {
		c.Assignees = []board.Member{}
	}
	if c.Comments == nil {
		c.Comments = []board.Comment{}
	}
	return c
}

func listIDs(lists []board.List) []string {
	out := make([]string, len(lists))
	for i, l := range lists {
		out[i] = l.ID
	}
	return out
}

func listPositions(lists []board.List) []int {
	out := make([]int, len(lists))
	for i, l := range lists {
		out[i] = l.Position
	}
	return out
}

func cardPositions(l *board.List) []int {
	out := make([]int, len(l.Cards))
	for i, c := range l.Cards {
		out[i] = c.Position
	}
	return out
}

func increasing(ps []int) bool {
	for i := 1; i < len(ps); i++ {
		if ps[i] <= ps[i-1] {
			return false
		}
	}
	return true
}
