package merge

import (
	"encoding/json"
	"fmt"

	"github.com/dyluth/pinboard/pkg/board"
)

// MalformedEventError reports a live payload that could not be decoded or
// lacks the fields its type requires. Such payloads are discarded.
type MalformedEventError struct {
	Type   board.EventType
	Reason string
	Err    error
}

func (e *MalformedEventError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed live event: %s: %v", e.Reason, e.Err)
	}
	if e.Type != "" {
		return fmt.Sprintf("malformed %s event: %s", e.Type, e.Reason)
	}
	return fmt.Sprintf("malformed live event: %s", e.Reason)
}

func (e *MalformedEventError) Unwrap() error {
	return e.Err
}

// Decode parses a raw live payload and checks that it carries what its
// type needs to be applied.
func Decode(payload []byte) (board.Event, error) {
	var ev board.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return board.Event{}, &MalformedEventError{Reason: "invalid JSON", Err: err}
	}

	malformed := func(reason string) (board.Event, error) {
		return board.Event{}, &MalformedEventError{Type: ev.Type, Reason: reason}
	}

	switch ev.Type {
	case board.EventListCreated:
		if ev.List == nil || ev.List.ID == "" {
			return malformed("missing list")
		}
	case board.EventListDeleted:
		if ev.ListID == "" {
			return malformed("missing listId")
		}
	case board.EventListsReordered:
		if len(ev.ListOrder) == 0 {
			return malformed("missing listOrder")
		}
	case board.EventCardCreated:
		if ev.Card == nil || ev.Card.ID == "" {
			return malformed("missing card")
		}
		if ev.ListID == "" {
			ev.ListID = ev.Card.ListID
		}
		if ev.ListID == "" {
			return malformed("missing listId")
		}
	case board.EventCardDeleted:
		if ev.CardID == "" {
			return malformed("missing cardId")
		}
	case board.EventCardMoved:
		if len(ev.NewLists) > 0 {
			break
		}
		if ev.CardID == "" || ev.FromListID == "" || ev.ToListID == "" {
			return malformed("needs either newLists or cardId, fromListId and toListId")
		}
		if ev.NewPosition < 0 {
			return malformed("negative newPosition")
		}
	case board.EventCardUpdated:
		// cardId is optional
	case "":
		return malformed("missing type")
	default:
		return malformed("unknown type")
	}
	return ev, nil
}
