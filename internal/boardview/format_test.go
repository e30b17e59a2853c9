package boardview

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 10, 29, 12, 0, 0, 0, time.UTC)

func due(d string) *string { return &d }

func fixture() *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Board: board.Board{ID: "b0b0b0b0-0000-4000-8000-000000000000", Title: "Roadmap"},
		Role:  board.RoleOwner,
		Lists: []board.List{
			{ID: "11111111-aaaa-4aaa-8aaa-aaaaaaaaaaaa", Title: "To Do", Cards: []board.Card{
				{
					ID:        "cccccccc-0000-4000-8000-000000000001",
					Title:     "Write release notes",
					DueDate:   due("2025-11-01"),
					Labels:    []board.Label{{Name: "docs"}, {Name: "urgent"}},
					Assignees: []board.Member{{DisplayName: "Alice"}, {Email: "bob@example.com"}},
				},
				{ID: "cccccccc-0000-4000-8000-000000000002", Title: "Tag v1"},
			}},
			{ID: "22222222-bbbb-4bbb-8bbb-bbbbbbbbbbbb", Title: "Done"},
		},
	}
}

func TestFormatBoard(t *testing.T) {
	var buf bytes.Buffer
	n := FormatBoard(&buf, fixture())
	out := buf.String()

	assert.Equal(t, 2, n)
	assert.Contains(t, out, "Board 'Roadmap' (b0b0b0b0, owner)")
	assert.Contains(t, out, "11111111  To Do (2)")
	assert.Contains(t, out, "22222222  Done (0)\n  (empty)")
	assert.Contains(t, out, "cccccccc   2025-11-01 docs,urgent")
	assert.Contains(t, out, "Alice,bob@exa...")
	assert.Contains(t, out, "2 cards across 2 lists")

	buf.Reset()
	assert.Zero(t, FormatBoard(&buf, &snapshot.Snapshot{Board: board.Board{Title: "Empty"}}))
	assert.Contains(t, buf.String(), "No lists yet")
}

func TestFormatBoards(t *testing.T) {
	var buf bytes.Buffer
	assert.Zero(t, FormatBoards(&buf, nil, now))
	assert.Equal(t, "No boards found\n", buf.String())

	buf.Reset()
	boards := []board.Board{{
		ID:         "b0b0b0b0-0000-4000-8000-000000000000",
		Title:      "Roadmap",
		Visibility: board.VisibilityPrivate,
		UpdatedAt:  now.Add(-90 * time.Minute),
	}}
	assert.Equal(t, 1, FormatBoards(&buf, boards, now))
	assert.Contains(t, buf.String(), "b0b0b0b0   private    1h ago   Roadmap")
	assert.Contains(t, buf.String(), "1 board found")
}

func TestFormatCardsJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCardsJSONL(&buf, fixture().Lists))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	var c board.Card
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &c))
	assert.Equal(t, "Write release notes", c.Title)
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestFormatCard(t *testing.T) {
	c := fixture().Lists[0].Cards[0]
	c.Description = "Line one\nLine two\n"
	c.Archived = true
	c.Comments = []board.Comment{{Author: "Alice", Body: "\nlooks good\nthanks", CreatedAt: now.Add(-2 * time.Minute)}}

	var buf bytes.Buffer
	FormatCard(&buf, &c, now)
	out := buf.String()

	assert.Contains(t, out, "due:       2025-11-01")
	assert.Contains(t, out, "labels:    docs,urgent")
	assert.Contains(t, out, "archived")
	assert.Contains(t, out, "\nLine one\nLine two\n")
	assert.Contains(t, out, "[2m ago] Alice: looks good")
}

func TestFormatActivityAndMembers(t *testing.T) {
	var buf bytes.Buffer
	FormatActivity(&buf, nil, now)
	assert.Equal(t, "No activity yet\n", buf.String())

	buf.Reset()
	FormatActivity(&buf, []board.Activity{{
		Type:      board.ActivityCardMoved,
		Data:      map[string]string{"to_list_id": "L2", "card_id": "c1"},
		CreatedAt: now.Add(-3 * 24 * time.Hour),
	}}, now)
	assert.Contains(t, buf.String(), "3d ago   card.moved             card_id=c1 to_list_id=L2")

	buf.Reset()
	FormatMembers(&buf, []board.Member{{UserID: "u1", DisplayName: "Alice", Email: "a@example.com", Role: board.RoleEditor}})
	assert.Contains(t, buf.String(), "u1         editor   Alice")
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "-", truncate("  \n ", 10))
	assert.Equal(t, "abcdefg...", truncate(strings.Repeat("abcdefghij", 3), 10))
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "-", formatAge(time.Time{}, now))
	assert.Equal(t, "0s ago", formatAge(now.Add(time.Second), now))
	assert.Equal(t, "abcdefgh", formatID("abcdefghijkl"))
}
