package board

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeBoardEvents(t *testing.T) {
	client, _ := setupTestClient(t)
	ctx := context.Background()

	sub, err := client.SubscribeBoardEvents(ctx, "board-1")
	require.NoError(t, err)
	t.Cleanup(func() { sub.Close() })

	t.Run("delivers published events as raw payloads", func(t *testing.T) {
		ev := Event{Type: EventCardMoved, CardID: "c1", FromListID: "a", ToListID: "b", NewPosition: 2}
		require.NoError(t, client.Publish(ctx, "board-1", ev))

		select {
		case payload := <-sub.Events():
			var got Event
			require.NoError(t, json.Unmarshal(payload, &got))
			assert.Equal(t, ev, got)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	})

	t.Run("passes malformed payloads through untouched", func(t *testing.T) {
		require.NoError(t, client.PublishRaw(ctx, "board-1", []byte("{not json")))

		select {
		case payload := <-sub.Events():
			assert.Equal(t, "{not json", string(payload))
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	})

	t.Run("other boards are not delivered", func(t *testing.T) {
		require.NoError(t, client.Publish(ctx, "board-2", Event{Type: EventCardUpdated}))

		select {
		case payload := <-sub.Events():
			t.Fatalf("unexpected event %s", payload)
		case <-time.After(100 * time.Millisecond):
		}
	})
}

func TestSubscriptionClose(t *testing.T) {
	client, _ := setupTestClient(t)

	sub, err := client.SubscribeBoardEvents(context.Background(), "board-1")
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	_, ok := <-sub.Events()
	assert.False(t, ok, "events channel should be closed")
}

func TestEventWireNames(t *testing.T) {
	payload, err := json.Marshal(Event{Type: EventCardCreated, ListID: "l1", Card: &Card{ID: "c1"}})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	assert.Equal(t, "card_created", raw["type"])
	assert.Equal(t, "l1", raw["listId"])
	assert.Contains(t, raw, "card")
	assert.NotContains(t, raw, "newLists")
}
