package filter

import (
	"path/filepath"
	"strings"

	"github.com/dyluth/pinboard/pkg/board"
)

// Criteria defines filtering criteria for cards.
// All filters are ANDed together - a card must match ALL criteria to pass.
type Criteria struct {
	DueAfter  string // Inclusive YYYY-MM-DD lower bound, empty = no filter
	DueBefore string // Inclusive YYYY-MM-DD upper bound, empty = no filter
	TitleGlob string // Case-insensitive glob on the title, empty = no filter
	Label     string // Label name or ID, empty = no filter
	Assignee  string // Assignee user ID, email or display name, empty = no filter
}

// Matches returns true if the card matches all filter criteria.
// Cards without a due date never match a due window.
func (c *Criteria) Matches(card *board.Card) bool {
	if c.DueAfter != "" || c.DueBefore != "" {
		if card.DueDate == nil {
			return false
		}
		if c.DueAfter != "" && *card.DueDate < c.DueAfter {
			return false
		}
		if c.DueBefore != "" && *card.DueDate > c.DueBefore {
			return false
		}
	}

	if c.TitleGlob != "" {
		matched, err := filepath.Match(strings.ToLower(c.TitleGlob), strings.ToLower(card.Title))
		if err != nil || !matched {
			return false
		}
	}

	if c.Label != "" && !hasLabel(card, c.Label) {
		return false
	}

	if c.Assignee != "" && !hasAssignee(card, c.Assignee) {
		return false
	}

	return true
}

// HasFilters returns true if any filters are active.
func (c *Criteria) HasFilters() bool {
	return c.DueAfter != "" ||
		c.DueBefore != "" ||
		c.TitleGlob != "" ||
		c.Label != "" ||
		c.Assignee != ""
}

// Lists returns copies of lists holding only the matching cards. Lists
// themselves are always kept so the board's shape stays visible.
func (c *Criteria) Lists(lists []board.List) []board.List {
	out := make([]board.List, len(lists))
	for i, l := range lists {
		kept := make([]board.Card, 0, len(l.Cards))
		for j := range l.Cards {
			if c.Matches(&l.Cards[j]) {
				kept = append(kept, l.Cards[j])
			}
		}
		l.Cards = kept
		out[i] = l
	}
	return out
}

func hasLabel(card *board.Card, ref string) bool {
	for _, l := range card.Labels {
		if l.ID == ref || strings.EqualFold(l.Name, ref) {
			return true
		}
	}
	return false
}

func hasAssignee(card *board.Card, ref string) bool {
	for _, a := range card.Assignees {
		if a.UserID == ref || strings.EqualFold(a.Email, ref) || strings.EqualFold(a.DisplayName, ref) {
			return true
		}
	}
	return false
}
