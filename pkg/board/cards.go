package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// CreateCard appends a card to a list of the board. The store assigns the
// identity and a position one step past the list's current last card.
func (c *Client) CreateCard(ctx context.Context, boardID, listID, title string) (*Card, error) {
	if err := requireTitle("title", title); err != nil {
		return nil, err
	}
	if _, err := c.authorizeWrite(ctx, boardID); err != nil {
		return nil, err
	}
	if _, err := c.getList(ctx, boardID, listID); err != nil {
		return nil, err
	}

	last, err := c.lastScore(ctx, ListCardsKey(c.namespace, listID))
	if err != nil {
		return nil, err
	}

	now := c.now()
	card := &Card{
		ID:        newID(),
		ListID:    listID,
		BoardID:   boardID,
		Title:     strings.TrimSpace(title),
		Position:  last + PositionStep,
		Labels:    []Label{},
		Assignees: []Member{},
		Comments:  []Comment{},
		CreatedBy: c.actor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, CardKey(c.namespace, card.ID), CardToHash(card))
		pipe.ZAdd(ctx, ListCardsKey(c.namespace, listID), redis.Z{Score: float64(card.Position), Member: card.ID})
		return c.recordActivity(ctx, pipe, boardID, ActivityCardCreated, map[string]string{
			"card_id": card.ID,
			"list_id": listID,
			"title":   card.Title,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write card to Redis: %w", err)
	}

	return card, nil
}

// getCard reads a bare card and checks that it belongs to boardID.
func (c *Client) getCard(ctx context.Context, boardID, cardID string) (*Card, error) {
	hashData, err := c.readHash(ctx, CardKey(c.namespace, cardID))
	if err != nil {
		return nil, err
	}
	card, err := HashToCard(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize card: %w", err)
	}
	if card.BoardID != boardID {
		return nil, ErrNotFound
	}
	return card, nil
}

// GetCard returns a card with its labels, assignees and comments.
func (c *Client) GetCard(ctx context.Context, boardID, cardID string) (*Card, error) {
	if _, _, err := c.authorizeRead(ctx, boardID); err != nil {
		return nil, err
	}
	if _, err := c.getCard(ctx, boardID, cardID); err != nil {
		return nil, err
	}

	card, err := c.readCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	if card.Labels, err = c.CardLabels(ctx, boardID, cardID); err != nil {
		return nil, err
	}
	if card.Assignees, err = c.CardAssignees(ctx, boardID, cardID); err != nil {
		return nil, err
	}
	return card, nil
}

// UpdateCard applies a partial update to a card and returns the stored card
// without relations. List membership never changes here.
func (c *Client) UpdateCard(ctx context.Context, boardID, cardID string, patch CardPatch) (*Card, error) {
	if err := Validate(patch); err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if err := requireTitle("title", *patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.ClearDueDate && patch.DueDate != nil {
		return nil, FieldErrors{"due_date": "cannot be set and cleared at once"}
	}
	if _, err := c.authorizeWrite(ctx, boardID); err != nil {
		return nil, err
	}

	card, err := c.getCard(ctx, boardID, cardID)
	if err != nil {
		return nil, err
	}

	patch.ApplyTo(card)
	card.UpdatedAt = c.now()

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, CardKey(c.namespace, card.ID), CardToHash(card))
		return c.recordActivity(ctx, pipe, boardID, ActivityCardUpdated, map[string]string{"card_id": card.ID, "title": card.Title})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update card: %w", err)
	}

	return card, nil
}

// DeleteCard removes a card and its relations.
func (c *Client) DeleteCard(ctx context.Context, boardID, cardID string) error {
	if _, err := c.authorizeWrite(ctx, boardID); err != nil {
		return err
	}

	card, err := c.getCard(ctx, boardID, cardID)
	if err != nil {
		return err
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, c.cardKeys(cardID)...)
		pipe.ZRem(ctx, ListCardsKey(c.namespace, card.ListID), cardID)
		return c.recordActivity(ctx, pipe, boardID, ActivityCardDeleted, map[string]string{"card_id": cardID, "title": card.Title})
	})
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	return nil
}

// SetCards writes list membership and positions for a batch of cards in one
// transaction. Only list_id and position are persisted from each placement;
// content fields travel with the payload but are left to UpdateCard so that
// a bulk reorder never overwrites a concurrent edit.
//
// An entry marked Moved records a card.moved activity naming both lists; a
// batch without one records cards.reordered.
func (c *Client) SetCards(ctx context.Context, boardID string, placements []CardPlacement) error {
	if _, err := c.authorizeWrite(ctx, boardID); err != nil {
		return err
	}

	current := make(map[string]*Card, len(placements))
	checkedLists := make(map[string]bool)
	for _, p := range placements {
		card, err := c.getCard(ctx, boardID, p.ID)
		if err != nil {
			return fmt.Errorf("card %s: %w", p.ID, err)
		}
		current[p.ID] = card

		if !checkedLists[p.ListID] {
			if _, err := c.getList(ctx, boardID, p.ListID); err != nil {
				return fmt.Errorf("list %s: %w", p.ListID, err)
			}
			checkedLists[p.ListID] = true
		}
	}

	now := c.now()
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		moved := false
		for _, p := range placements {
			prev := current[p.ID]
			if prev.ListID != p.ListID {
				pipe.ZRem(ctx, ListCardsKey(c.namespace, prev.ListID), p.ID)
			}
			pipe.ZAdd(ctx, ListCardsKey(c.namespace, p.ListID), redis.Z{Score: float64(p.Position), Member: p.ID})
			pipe.HSet(ctx, CardKey(c.namespace, p.ID),
				"list_id", p.ListID,
				"position", p.Position,
				"updated_at_ms", now.UnixMilli())

			if p.Moved {
				moved = true
				from := p.PreviousListID
				if from == "" {
					from = prev.ListID
				}
				err := c.recordActivity(ctx, pipe, boardID, ActivityCardMoved, map[string]string{
					"card_id":      p.ID,
					"title":        prev.Title,
					"from_list_id": from,
					"to_list_id":   p.ListID,
				})
				if err != nil {
					return err
				}
			}
		}
		if !moved && len(placements) > 0 {
			return c.recordActivity(ctx, pipe, boardID, ActivityCardsReordered, nil)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write cards: %w", err)
	}
	return nil
}
