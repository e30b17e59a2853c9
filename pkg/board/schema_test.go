package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyPatterns(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"board", BoardKey("ns", "b1"), "pinboard:ns:board:b1"},
		{"board lists", BoardListsKey("ns", "b1"), "pinboard:ns:board:b1:lists"},
		{"board labels", BoardLabelsKey("ns", "b1"), "pinboard:ns:board:b1:labels"},
		{"board members", BoardMembersKey("ns", "b1"), "pinboard:ns:board:b1:members"},
		{"board activity", BoardActivityKey("ns", "b1"), "pinboard:ns:board:b1:activity"},
		{"list", ListKey("ns", "l1"), "pinboard:ns:list:l1"},
		{"list cards", ListCardsKey("ns", "l1"), "pinboard:ns:list:l1:cards"},
		{"card", CardKey("ns", "c1"), "pinboard:ns:card:c1"},
		{"card labels", CardLabelsKey("ns", "c1"), "pinboard:ns:card:c1:labels"},
		{"card assignees", CardAssigneesKey("ns", "c1"), "pinboard:ns:card:c1:assignees"},
		{"card comments", CardCommentsKey("ns", "c1"), "pinboard:ns:card:c1:comments"},
		{"label", LabelKey("ns", "x"), "pinboard:ns:label:x"},
		{"user", UserKey("ns", "u1"), "pinboard:ns:user:u1"},
		{"email index", UserEmailIndexKey("ns"), "pinboard:ns:user_by_email"},
		{"boards", BoardsKey("ns"), "pinboard:ns:boards"},
		{"events", BoardEventsChannel("ns", "b1"), "pinboard:ns:board:b1:events"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestNamespaceIsolation(t *testing.T) {
	assert.NotEqual(t, BoardKey("prod", "b1"), BoardKey("staging", "b1"))
	assert.NotEqual(t, BoardEventsChannel("prod", "b1"), BoardEventsChannel("staging", "b1"))
}
