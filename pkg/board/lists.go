package board

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// PositionStep is the gap the store leaves between appended siblings.
const PositionStep = 1000

// CreateList appends a list to the board. The store assigns the identity and
// a position one step past the current last list.
func (c *Client) CreateList(ctx context.Context, boardID, title string) (*List, error) {
	if err := requireTitle("title", title); err != nil {
		return nil, err
	}
	if _, err := c.authorizeWrite(ctx, boardID); err != nil {
		return nil, err
	}

	last, err := c.lastScore(ctx, BoardListsKey(c.namespace, boardID))
	if err != nil {
		return nil, err
	}

	now := c.now()
	l := &List{
		ID:        newID(),
		BoardID:   boardID,
		Title:     strings.TrimSpace(title),
		Position:  last + PositionStep,
		Cards:     []Card{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, ListKey(c.namespace, l.ID), ListToHash(l))
		pipe.ZAdd(ctx, BoardListsKey(c.namespace, boardID), redis.Z{Score: float64(l.Position), Member: l.ID})
		return c.recordActivity(ctx, pipe, boardID, ActivityListCreated, map[string]string{"list_id": l.ID, "title": l.Title})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write list to Redis: %w", err)
	}

	return l, nil
}

// getList reads a list and checks that it belongs to boardID.
func (c *Client) getList(ctx context.Context, boardID, listID string) (*List, error) {
	hashData, err := c.readHash(ctx, ListKey(c.namespace, listID))
	if err != nil {
		return nil, err
	}
	l, err := HashToList(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize list: %w", err)
	}
	if l.BoardID != boardID {
		return nil, ErrNotFound
	}
	return l, nil
}

// UpdateList applies a partial update to a list and returns the stored list
// (without cards).
func (c *Client) UpdateList(ctx context.Context, boardID, listID string, patch ListPatch) (*List, error) {
	if err := Validate(patch); err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if err := requireTitle("title", *patch.Title); err != nil {
			return nil, err
		}
	}
	if _, err := c.authorizeWrite(ctx, boardID); err != nil {
		return nil, err
	}

	l, err := c.getList(ctx, boardID, listID)
	if err != nil {
		return nil, err
	}

	patch.ApplyTo(l)
	l.UpdatedAt = c.now()

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, ListKey(c.namespace, l.ID), ListToHash(l))
		return c.recordActivity(ctx, pipe, boardID, ActivityListUpdated, map[string]string{"list_id": l.ID, "title": l.Title})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update list: %w", err)
	}

	return l, nil
}

// DeleteList removes a list and all of its cards.
func (c *Client) DeleteList(ctx context.Context, boardID, listID string) error {
	if _, err := c.authorizeWrite(ctx, boardID); err != nil {
		return err
	}

	l, err := c.getList(ctx, boardID, listID)
	if err != nil {
		return err
	}

	cardIDs, err := c.rdb.ZRange(ctx, ListCardsKey(c.namespace, listID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read list cards: %w", err)
	}

	keys := []string{ListKey(c.namespace, listID), ListCardsKey(c.namespace, listID)}
	for _, cardID := range cardIDs {
		keys = append(keys, c.cardKeys(cardID)...)
	}

	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, BoardListsKey(c.namespace, boardID), listID)
		return c.recordActivity(ctx, pipe, boardID, ActivityListDeleted, map[string]string{"list_id": listID, "title": l.Title})
	})
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	return nil
}

// SetListsOrder writes the given positions for the board's lists in one
// transaction. Every entry must name a list of the board.
func (c *Client) SetListsOrder(ctx context.Context, boardID string, order []ListOrder) error {
	if _, err := c.authorizeWrite(ctx, boardID); err != nil {
		return err
	}

	listsKey := BoardListsKey(c.namespace, boardID)
	for _, entry := range order {
		if err := c.rdb.ZScore(ctx, listsKey, entry.ID).Err(); err != nil {
			if IsNotFound(err) {
				return fmt.Errorf("list %s: %w", entry.ID, ErrNotFound)
			}
			return fmt.Errorf("failed to check list membership: %w", err)
		}
	}

	now := c.now()
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, entry := range order {
			pipe.HSet(ctx, ListKey(c.namespace, entry.ID), "position", entry.Position, "updated_at_ms", now.UnixMilli())
			pipe.ZAdd(ctx, listsKey, redis.Z{Score: float64(entry.Position), Member: entry.ID})
		}
		return c.recordActivity(ctx, pipe, boardID, ActivityListsReordered, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to reorder lists: %w", err)
	}
	return nil
}
