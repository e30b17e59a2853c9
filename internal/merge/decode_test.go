package merge

import (
	"testing"

	"github.com/dyluth/pinboard/pkg/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("valid payloads", func(t *testing.T) {
		tests := []struct {
			name    string
			payload string
			want    board.EventType
		}{
			{"list created", `{"type":"list_created","list":{"id":"L9","title":"New"}}`, board.EventListCreated},
			{"list deleted", `{"type":"list_deleted","listId":"L1"}`, board.EventListDeleted},
			{"lists reordered", `{"type":"lists_reordered","listOrder":[{"id":"L1","position":1000}]}`, board.EventListsReordered},
			{"card created", `{"type":"card_created","listId":"L1","card":{"id":"c9"}}`, board.EventCardCreated},
			{"card deleted", `{"type":"card_deleted","cardId":"c1"}`, board.EventCardDeleted},
			{"card moved delta", `{"type":"card_moved","cardId":"c1","fromListId":"L1","toListId":"L2","newPosition":0}`, board.EventCardMoved},
			{"card moved replacement", `{"type":"card_moved","newLists":[{"id":"L1","cards":[]}]}`, board.EventCardMoved},
			{"card updated without card", `{"type":"card_updated"}`, board.EventCardUpdated},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				ev, err := Decode([]byte(tt.payload))
				require.NoError(t, err)
				assert.Equal(t, tt.want, ev.Type)
			})
		}
	})

	t.Run("card created falls back to the card's list", func(t *testing.T) {
		ev, err := Decode([]byte(`{"type":"card_created","card":{"id":"c9","list_id":"L2"}}`))
		require.NoError(t, err)
		assert.Equal(t, "L2", ev.ListID)
	})

	t.Run("malformed payloads", func(t *testing.T) {
		tests := []struct {
			name    string
			payload string
		}{
			{"not json", `{"type":`},
			{"missing type", `{"cardId":"c1"}`},
			{"unknown type", `{"type":"board_exploded"}`},
			{"list created without list", `{"type":"list_created"}`},
			{"card created without list", `{"type":"card_created","card":{"id":"c9"}}`},
			{"move without target", `{"type":"card_moved","cardId":"c1","fromListId":"L1"}`},
			{"move with negative index", `{"type":"card_moved","cardId":"c1","fromListId":"L1","toListId":"L2","newPosition":-1}`},
			{"empty reorder", `{"type":"lists_reordered","listOrder":[]}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Decode([]byte(tt.payload))
				var malformed *MalformedEventError
				assert.ErrorAs(t, err, &malformed)
			})
		}
	})
}
