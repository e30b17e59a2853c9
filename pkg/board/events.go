package board

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// EventType names a live update broadcast on a board channel.
type EventType string

const (
	// EventListCreated carries the new list in List
	EventListCreated EventType = "list_created"

	// EventListDeleted carries the removed list's ID in ListID
	EventListDeleted EventType = "list_deleted"

	// EventListsReordered carries the full list order in ListOrder
	EventListsReordered EventType = "lists_reordered"

	// EventCardCreated carries the new card in Card and its list in ListID
	EventCardCreated EventType = "card_created"

	// EventCardDeleted carries CardID and ListID
	EventCardDeleted EventType = "card_deleted"

	// EventCardMoved is either a delta (CardID, FromListID, ToListID,
	// NewPosition as a target index, MovedCard) or a full replacement of the
	// affected lists in NewLists
	EventCardMoved EventType = "card_moved"

	// EventCardUpdated is a signal that a card's dependent data changed.
	// CardID is optional; receivers refresh the card they have open when absent.
	EventCardUpdated EventType = "card_updated"
)

// Event is the wire shape of a live update. Field names follow the JSON
// clients already exchange, hence camelCase.
type Event struct {
	Type        EventType   `json:"type"`
	Origin      string      `json:"origin,omitempty"`
	List        *List       `json:"list,omitempty"`
	ListID      string      `json:"listId,omitempty"`
	Card        *Card       `json:"card,omitempty"`
	CardID      string      `json:"cardId,omitempty"`
	FromListID  string      `json:"fromListId,omitempty"`
	ToListID    string      `json:"toListId,omitempty"`
	NewPosition int         `json:"newPosition,omitempty"`
	MovedCard   *Card       `json:"movedCard,omitempty"`
	NewLists    []List      `json:"newLists,omitempty"`
	ListOrder   []ListOrder `json:"listOrder,omitempty"`
}

// Publish broadcasts an event on the board's channel. Delivery is fire and
// forget: subscribers that are not connected miss it.
func (c *Client) Publish(ctx context.Context, boardID string, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return c.PublishRaw(ctx, boardID, payload)
}

// PublishRaw broadcasts an already encoded payload on the board's channel.
func (c *Client) PublishRaw(ctx context.Context, boardID string, payload []byte) error {
	channel := BoardEventsChannel(c.namespace, boardID)
	if err := c.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish board event: %w", err)
	}
	return nil
}

// Subscription represents an active Pub/Sub subscription to one board's
// live updates. Payloads are delivered undecoded.
type Subscription struct {
	events <-chan []byte
	cancel context.CancelFunc
	done   <-chan struct{}
	once   sync.Once
}

// Events returns a read-only channel of raw event payloads.
// The channel is closed when the subscription ends.
func (s *Subscription) Events() <-chan []byte {
	return s.events
}

// Close unsubscribes and waits for the delivery goroutine to stop.
// Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	<-s.done
	return nil
}

// SubscribeBoardEvents subscribes to the board's live update channel. The
// subscription is confirmed with Redis before this returns, so events
// published afterwards are never missed.
//
// The returned subscription ends when ctx is cancelled or Close is called.
func (c *Client) SubscribeBoardEvents(ctx context.Context, boardID string) (*Subscription, error) {
	channel := BoardEventsChannel(c.namespace, boardID)
	pubsub := c.rdb.Subscribe(ctx, channel)

	// Wait for the subscribe confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	eventsChan := make(chan []byte, 10)
	done := make(chan struct{})
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(done)
		defer close(eventsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case eventsChan <- []byte(msg.Payload):
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		cancel: cancelFunc,
		done:   done,
	}, nil
}
