package filter

import (
	"testing"

	"github.com/dyluth/pinboard/pkg/board"
	"github.com/stretchr/testify/assert"
)

func due(d string) *string { return &d }

func TestCriteriaMatches(t *testing.T) {
	card := &board.Card{
		Title:     "Fix login redirect",
		DueDate:   due("2025-10-29"),
		Labels:    []board.Label{{ID: "l1", Name: "bug"}},
		Assignees: []board.Member{{UserID: "u1", Email: "alice@example.com", DisplayName: "Alice"}},
	}

	tests := []struct {
		name     string
		criteria Criteria
		want     bool
	}{
		{"no filters", Criteria{}, true},
		{"due inside window", Criteria{DueAfter: "2025-10-01", DueBefore: "2025-10-29"}, true},
		{"due after window", Criteria{DueBefore: "2025-10-28"}, false},
		{"due before window", Criteria{DueAfter: "2025-10-30"}, false},
		{"title glob ignores case", Criteria{TitleGlob: "fix*"}, true},
		{"title glob miss", Criteria{TitleGlob: "*logout*"}, false},
		{"label by name", Criteria{Label: "BUG"}, true},
		{"label by id", Criteria{Label: "l1"}, true},
		{"missing label", Criteria{Label: "feature"}, false},
		{"assignee by email", Criteria{Assignee: "alice@example.com"}, true},
		{"assignee by name", Criteria{Assignee: "alice"}, true},
		{"other assignee", Criteria{Assignee: "bob"}, false},
		{"all criteria", Criteria{DueAfter: "2025-10-29", TitleGlob: "*login*", Label: "bug", Assignee: "u1"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.Matches(card))
		})
	}

	t.Run("no due date never matches a window", func(t *testing.T) {
		c := Criteria{DueBefore: "2030-01-01"}
		assert.False(t, c.Matches(&board.Card{Title: "x"}))
	})
}

func TestCriteriaLists(t *testing.T) {
	lists := []board.List{
		{ID: "L1", Cards: []board.Card{{ID: "a", Title: "alpha"}, {ID: "b", Title: "beta"}}},
		{ID: "L2", Cards: []board.Card{{ID: "c", Title: "gamma"}}},
	}
	c := Criteria{TitleGlob: "*a"}

	got := c.Lists(lists)
	assert.Len(t, got, 2)
	assert.Len(t, got[0].Cards, 2)
	assert.Len(t, got[1].Cards, 1)

	c = Criteria{TitleGlob: "b*"}
	got = c.Lists(lists)
	assert.Equal(t, "b", got[0].Cards[0].ID)
	assert.Empty(t, got[1].Cards)
	assert.Len(t, lists[0].Cards, 2, "input is not modified")
	assert.True(t, c.HasFilters())
}
